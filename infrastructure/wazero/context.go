package wazero

import (
	"context"

	"github.com/reglet-dev/cwvm/hostfuncs"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var callDepthKey = &contextKey{name: "call_depth"}

// WithCallDepth attaches the re-entry counter host functions use when they
// call back into the guest.
func WithCallDepth(ctx context.Context, depth *hostfuncs.CallDepth) context.Context {
	return context.WithValue(ctx, callDepthKey, depth)
}

// CallDepthFrom retrieves the counter installed by WithCallDepth, or nil.
func CallDepthFrom(ctx context.Context) *hostfuncs.CallDepth {
	depth, _ := ctx.Value(callDepthKey).(*hostfuncs.CallDepth)
	return depth
}
