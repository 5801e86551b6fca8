// Package eventbus fans committed contract events out to subscribers.
package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"go.uber.org/zap"
)

// TopicAll receives every published batch.
const TopicAll = "events"

// Topic is the per-contract topic.
func Topic(contract entities.Addr) string { return TopicAll + ":" + string(contract) }

// Handler receives the events of one committed top-level call.
type Handler func(contract entities.Addr, events []entities.Event)

var _ ports.EventPublisher = (*Bus)(nil)

// Bus implements ports.EventPublisher.
type Bus struct {
	bus    evbus.Bus
	logger *zap.Logger
}

// New returns an empty bus. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{bus: evbus.New(), logger: logger}
}

// Publish implements ports.EventPublisher.
func (b *Bus) Publish(contract entities.Addr, events []entities.Event) {
	if len(events) == 0 {
		return
	}
	b.logger.Debug("publishing events",
		zap.String("contract", string(contract)),
		zap.Int("count", len(events)))
	b.bus.Publish(TopicAll, contract, events)
	b.bus.Publish(Topic(contract), contract, events)
}

// Subscribe registers h for every batch.
func (b *Bus) Subscribe(h Handler) error {
	return b.bus.Subscribe(TopicAll, h)
}

// SubscribeContract registers h for batches of one contract.
func (b *Bus) SubscribeContract(contract entities.Addr, h Handler) error {
	return b.bus.Subscribe(Topic(contract), h)
}

// SubscribeAsync registers h to run off the publishing goroutine. Use Wait
// to drain pending deliveries.
func (b *Bus) SubscribeAsync(h Handler) error {
	return b.bus.SubscribeAsync(TopicAll, h, false)
}

// Unsubscribe removes h from every batch.
func (b *Bus) Unsubscribe(h Handler) error {
	return b.bus.Unsubscribe(TopicAll, h)
}

// Wait blocks until asynchronous handlers have finished.
func (b *Bus) Wait() { b.bus.WaitAsync() }
