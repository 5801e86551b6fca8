package hostfuncs

import (
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
)

// DefaultMaxCallDepth bounds host to guest re-entry.
const DefaultMaxCallDepth uint32 = 32

// CallDepth counts how many times control has moved from host code into
// guest code without returning. A contract that calls a host function which
// calls back into wasm (a smart query, an allocation) nests one level per
// hop; the counter turns unbounded mutual recursion into a deterministic
// error instead of a stack overflow.
//
// A CallDepth belongs to one execution and is not safe for concurrent use.
type CallDepth struct {
	scope   string
	limit   uint32
	current uint32
	peak    uint32
}

// NewCallDepth creates a counter that fails once depth would pass limit.
// scope labels errors, for example "guest" or "submessage".
func NewCallDepth(scope string, limit uint32) *CallDepth {
	if limit == 0 {
		limit = DefaultMaxCallDepth
	}
	return &CallDepth{scope: scope, limit: limit}
}

// Enter records one more level, failing without recording it if that would
// exceed the limit.
func (d *CallDepth) Enter() error {
	if d.current >= d.limit {
		return &engerrors.CallDepthError{Scope: d.scope, Depth: d.current + 1, Limit: d.limit}
	}
	d.current++
	if d.current > d.peak {
		d.peak = d.current
	}
	return nil
}

// Leave pops one level.
func (d *CallDepth) Leave() {
	if d.current > 0 {
		d.current--
	}
}

// Guard runs fn one level deeper.
func (d *CallDepth) Guard(fn func() error) error {
	if err := d.Enter(); err != nil {
		return err
	}
	defer d.Leave()
	return fn()
}

// Scope labels the counter.
func (d *CallDepth) Scope() string { return d.scope }

// Current is the present depth.
func (d *CallDepth) Current() uint32 { return d.current }

// Peak is the deepest level reached so far.
func (d *CallDepth) Peak() uint32 { return d.peak }

// Limit is the configured bound.
func (d *CallDepth) Limit() uint32 { return d.limit }
