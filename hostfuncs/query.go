package hostfuncs

import (
	"context"
	"fmt"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/memory"
	"go.uber.org/zap"
)

// QueryChain implements query_chain(request) -> response. The request is a
// JSON QueryRequest; the response is a JSON SystemResult. Smart queries run
// another contract, so this is the main path by which guest code re-enters
// the host and then wasm again.
func QueryChain(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	request, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxQueryLength)
	if err != nil {
		return nil, fmt.Errorf("query_chain request: %w", err)
	}
	if err := chargeBytes(env, len(request)); err != nil {
		return nil, err
	}
	response, err := env.Querier().QueryRaw(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := chargeBytes(env, len(response)); err != nil {
		return nil, err
	}
	ptr, err := passToGuest(ctx, g, response)
	if err != nil {
		return nil, fmt.Errorf("query_chain response: %w", err)
	}
	return []uint64{uint64(ptr)}, nil
}

// Debug implements debug(message).
func Debug(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxMessageLength)
	if err != nil {
		return nil, fmt.Errorf("debug: %w", err)
	}
	env.Logger().Debug("contract debug",
		zap.String("contract", env.Contract().String()),
		zap.String("message", string(msg)))
	return nil, nil
}

// Abort implements abort(message). It always traps.
func Abort(_ context.Context, g Guest, params []uint64) ([]uint64, error) {
	msg, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, 0), MaxMessageLength)
	if err != nil {
		return nil, fmt.Errorf("abort: %w", err)
	}
	return nil, &engerrors.GuestTrapError{Function: "abort", Message: string(msg)}
}
