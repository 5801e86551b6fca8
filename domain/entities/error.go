package entities

import "strings"

// ErrorDetail is the JSON form of an engine error, as printed by the CLI and
// logged by the executor. Type is one of memory, marshal, system,
// call_depth, gas, guest, config, validation, bank, not_found or internal;
// Code narrows it, e.g. the failing function or limit scope.
type ErrorDetail struct {
	Cause    *ErrorDetail `json:"cause,omitempty"`
	Type     string       `json:"type"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message"`
	NotFound bool         `json:"not_found,omitempty"`
}

// NewErrorDetail returns a detail of the given type.
func NewErrorDetail(typ, message string) *ErrorDetail {
	return &ErrorDetail{Type: typ, Message: message}
}

// Error renders "type[code]: message", followed by the cause chain.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	for d := e; d != nil; d = d.Cause {
		if d != e {
			b.WriteString(": ")
		}
		if d.Type != "" && d.Type != "internal" {
			b.WriteString(d.Type)
			if d.Code != "" {
				b.WriteString("[" + d.Code + "]")
			}
			b.WriteString(": ")
		}
		b.WriteString(d.Message)
	}
	return b.String()
}

// Unwrap returns the cause, if any.
func (e *ErrorDetail) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}
