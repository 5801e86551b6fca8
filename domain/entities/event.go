package entities

import "encoding/json"

// Attribute is a key/value pair attached to an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a typed list of attributes emitted by the engine or a contract.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent builds an event of the given type.
func NewEvent(typ string, attrs ...Attribute) Event {
	return Event{Type: typ, Attributes: attrs}
}

// MarshalJSON implements json.Marshaler so attributes are never null.
func (e Event) MarshalJSON() ([]byte, error) {
	attrs := e.Attributes
	if attrs == nil {
		attrs = []Attribute{}
	}
	return json.Marshal(struct {
		Type       string      `json:"type"`
		Attributes []Attribute `json:"attributes"`
	}{Type: e.Type, Attributes: attrs})
}

// Events is a list of events that serializes as an array, never null.
type Events []Event

// MarshalJSON implements json.Marshaler.
func (es Events) MarshalJSON() ([]byte, error) {
	if es == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Event(es))
}

// Get returns the value of the first attribute with the given key.
func (e Event) Get(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
