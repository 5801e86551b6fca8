package system

import (
	"strconv"
	"strings"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
)

// EventType is the closed set of event types the engine itself emits.
// Contracts cannot produce these: their events are always re-typed under
// CustomEventPrefix.
type EventType string

const (
	EventStoreCode           EventType = "store_code"
	EventInstantiate         EventType = "instantiate"
	EventExecute             EventType = "execute"
	EventMigrate             EventType = "migrate"
	EventPinCode             EventType = "pin_code"
	EventUnpinCode           EventType = "unpin_code"
	EventSudo                EventType = "sudo"
	EventReply               EventType = "reply"
	EventUpdateContractAdmin EventType = "update_contract_admin"
	EventIBCChannelOpen      EventType = "ibc_channel_open"
	EventIBCChannelConnect   EventType = "ibc_channel_connect"
	EventIBCChannelClose     EventType = "ibc_channel_close"
	EventIBCPacketReceive    EventType = "ibc_packet_receive"
	EventIBCPacketAck        EventType = "ibc_packet_ack"
	EventIBCPacketTimeout    EventType = "ibc_packet_timeout"
)

// AttributeKey is the closed set of attribute keys on engine events.
type AttributeKey string

const (
	AttributeContractAddress AttributeKey = "_contract_address"
	AttributeCodeID          AttributeKey = "code_id"
	AttributeNewAdmin        AttributeKey = "new_admin"
	AttributeChecksum        AttributeKey = "checksum"
)

const (
	// ModuleEventType carries a response's loose attributes.
	ModuleEventType = "wasm"
	// CustomEventPrefix is prepended to every contract-defined event type.
	CustomEventPrefix = "wasm-"
	// CustomEventTypeMinLength applies to the trimmed type before prefixing.
	CustomEventTypeMinLength = 2
	// ReservedAttributePrefix marks attribute keys only the engine may use.
	ReservedAttributePrefix = "_"
)

// SystemAttribute is an engine attribute.
type SystemAttribute struct {
	Key   AttributeKey
	Value string
}

// SystemEvent is an engine event.
type SystemEvent struct {
	Type       EventType
	Attributes []SystemAttribute
}

// Event converts e to the generic form contracts and subscribers see.
func (e SystemEvent) Event() entities.Event {
	attrs := make([]entities.Attribute, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		attrs = append(attrs, entities.Attribute{Key: string(a.Key), Value: a.Value})
	}
	return entities.NewEvent(string(e.Type), attrs...)
}

type entryPointEvent struct {
	typ        EventType
	withCodeID bool
}

var entryPointEvents = map[string]entryPointEvent{
	executor.Instantiate.Name():       {typ: EventInstantiate, withCodeID: true},
	executor.Execute.Name():           {typ: EventExecute},
	executor.Migrate.Name():           {typ: EventMigrate, withCodeID: true},
	executor.Reply.Name():             {typ: EventReply},
	executor.Sudo.Name():              {typ: EventSudo},
	executor.IBCChannelOpen.Name():    {typ: EventIBCChannelOpen},
	executor.IBCChannelConnect.Name(): {typ: EventIBCChannelConnect},
	executor.IBCChannelClose.Name():   {typ: EventIBCChannelClose},
	executor.IBCPacketReceive.Name():  {typ: EventIBCPacketReceive},
	executor.IBCPacketAck.Name():      {typ: EventIBCPacketAck},
	executor.IBCPacketTimeout.Name():  {typ: EventIBCPacketTimeout},
}

// EntryPointEvent returns the system event for a finished call of ep, or
// false if ep emits none.
func EntryPointEvent(ep executor.EntryPoint, contract entities.Addr, codeID uint64) (SystemEvent, bool) {
	def, ok := entryPointEvents[ep.Name()]
	if !ok {
		return SystemEvent{}, false
	}
	attrs := []SystemAttribute{{Key: AttributeContractAddress, Value: string(contract)}}
	if def.withCodeID {
		attrs = append(attrs, SystemAttribute{Key: AttributeCodeID, Value: strconv.FormatUint(codeID, 10)})
	}
	return SystemEvent{Type: def.typ, Attributes: attrs}, true
}

// SanitizeAttributes trims every attribute, rejects empty keys and values
// and reserved keys, and appends the contract address attribute. The input
// slice is not modified.
func SanitizeAttributes(attrs []entities.Attribute, contract entities.Addr) ([]entities.Attribute, error) {
	out := make([]entities.Attribute, 0, len(attrs)+1)
	for _, a := range attrs {
		key := strings.TrimSpace(a.Key)
		if key == "" {
			return nil, engerrors.NewSystemError(engerrors.SystemEmptyEventKey, "value %q", a.Value)
		}
		value := strings.TrimSpace(a.Value)
		if value == "" {
			return nil, engerrors.NewSystemError(engerrors.SystemEmptyEventValue, "key %q", key)
		}
		// checked after trimming so " _x" cannot slip through
		if strings.HasPrefix(key, ReservedAttributePrefix) {
			return nil, engerrors.NewSystemError(engerrors.SystemReservedEventPrefixIsUsed, "key %q", key)
		}
		out = append(out, entities.Attribute{Key: key, Value: value})
	}
	out = append(out, entities.Attribute{Key: string(AttributeContractAddress), Value: string(contract)})
	return out, nil
}

// DeriveEvents computes, in emission order, the events a successful call of
// ep on contract produces: the system event, the module event for loose
// attributes, then the contract's custom events. Nothing is returned unless
// every event validates.
func DeriveEvents(ep executor.EntryPoint, contract entities.Addr, codeID uint64, resp entities.Response) ([]entities.Event, error) {
	events := make([]entities.Event, 0, len(resp.Events)+2)
	if sys, ok := EntryPointEvent(ep, contract, codeID); ok {
		events = append(events, sys.Event())
	}

	if len(resp.Attributes) > 0 {
		attrs, err := SanitizeAttributes(resp.Attributes, contract)
		if err != nil {
			return nil, err
		}
		events = append(events, entities.NewEvent(ModuleEventType, attrs...))
	}

	for _, ev := range resp.Events {
		typ := strings.TrimSpace(ev.Type)
		if len(typ) < CustomEventTypeMinLength {
			return nil, engerrors.NewSystemError(engerrors.SystemEventTypeIsTooShort, "type %q", ev.Type)
		}
		attrs, err := SanitizeAttributes(ev.Attributes, contract)
		if err != nil {
			return nil, err
		}
		events = append(events, entities.NewEvent(CustomEventPrefix+typ, attrs...))
	}
	return events, nil
}
