package entities

import (
	"encoding/json"
	"errors"
)

// Response is what a successful instantiate, execute, migrate, reply, sudo or
// IBC entry point returns.
type Response struct {
	Messages   []SubMsg    `json:"messages" validate:"dive"`
	Attributes []Attribute `json:"attributes"`
	Events     []Event     `json:"events"`
	Data       []byte      `json:"data,omitempty"`
}

// ContractResult is the guest's Result<T, String>. Exactly one of Ok or Err
// is meaningful; Ok == nil means the contract returned an error.
type ContractResult[T any] struct {
	Ok  *T
	Err string
}

// IsErr reports whether the contract returned an error.
func (r ContractResult[T]) IsErr() bool { return r.Ok == nil }

// MarshalJSON implements json.Marshaler.
func (r ContractResult[T]) MarshalJSON() ([]byte, error) {
	if r.Ok == nil {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	return json.Marshal(map[string]*T{"ok": r.Ok})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ContractResult[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Ok  json.RawMessage `json:"ok"`
		Err *string         `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.Err != nil && raw.Ok != nil:
		return errors.New("contract result has both ok and error")
	case raw.Err != nil:
		r.Ok, r.Err = nil, *raw.Err
	case raw.Ok != nil:
		var v T
		if err := json.Unmarshal(raw.Ok, &v); err != nil {
			return err
		}
		r.Ok, r.Err = &v, ""
	default:
		return errors.New("contract result has neither ok nor error")
	}
	return nil
}

// OkResult wraps a value as a successful ContractResult.
func OkResult[T any](v T) ContractResult[T] {
	return ContractResult[T]{Ok: &v}
}

// ErrResult wraps a message as a failed ContractResult.
func ErrResult[T any](msg string) ContractResult[T] {
	return ContractResult[T]{Err: msg}
}

// Reply is passed to a contract's reply entry point once a sub-message with a
// matching ReplyOn policy has finished.
type Reply struct {
	Payload []byte       `json:"payload,omitempty"`
	Result  SubMsgResult `json:"result"`
	ID      uint64       `json:"id"`
	GasUsed uint64       `json:"gas_used"`
}

// SubMsgResult is either the sub-message's events and data, or its error
// rendered as a string.
type SubMsgResult struct {
	Ok  *SubMsgResponse
	Err string
}

// MarshalJSON implements json.Marshaler.
func (r SubMsgResult) MarshalJSON() ([]byte, error) {
	if r.Ok == nil {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	return json.Marshal(map[string]*SubMsgResponse{"ok": r.Ok})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SubMsgResult) UnmarshalJSON(b []byte) error {
	var cr ContractResult[SubMsgResponse]
	if err := cr.UnmarshalJSON(b); err != nil {
		return err
	}
	r.Ok, r.Err = cr.Ok, cr.Err
	return nil
}

// SubMsgResponse is the successful outcome of a sub-message.
type SubMsgResponse struct {
	Events Events `json:"events"`
	Data   []byte `json:"data,omitempty"`
}

