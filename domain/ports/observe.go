package ports

import (
	"time"

	"github.com/reglet-dev/cwvm/domain/entities"
)

// Metrics receives execution measurements.
type Metrics interface {
	ObserveCall(entryPoint string, duration time.Duration, err error)
	ObserveSubMessage(kind string, replyOn entities.ReplyOn, continuation string)
	ObserveGas(entryPoint string, used uint64)
	ObserveDepth(scope string, depth uint32)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveCall(string, time.Duration, error) {}
func (NopMetrics) ObserveSubMessage(string, entities.ReplyOn, string) {}
func (NopMetrics) ObserveGas(string, uint64) {}
func (NopMetrics) ObserveDepth(string, uint32) {}

// EventPublisher fans committed events out to subscribers. It is called only
// after a top-level call's outer transaction commits.
type EventPublisher interface {
	Publish(contract entities.Addr, events []entities.Event)
}
