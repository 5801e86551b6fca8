package hostfuncs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Middleware is a function that wraps a HostFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next HostFunc) HostFunc

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

// PanicError is a panic raised inside a host function.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("host function panicked: %v", e.Value)
}

// RecoveryMiddleware converts panics into errors. The error still traps the
// guest, but the host process survives and the dispatcher can roll back.
func RecoveryMiddleware() Middleware {
	return func(next HostFunc) HostFunc {
		return func(ctx context.Context, g Guest, params []uint64) (results []uint64, err error) {
			defer func() {
				if r := recover(); r != nil {
					results = nil
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, g, params)
		}
	}
}

// GasMiddleware charges the environment's per-call cost before running the
// function. Calls made without an Environment on the context are not charged.
func GasMiddleware() Middleware {
	return func(next HostFunc) HostFunc {
		return func(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
			if env, err := EnvironmentFrom(ctx); err == nil {
				if err := env.Gas().Consume(env.Costs().HostCall); err != nil {
					return nil, err
				}
			}
			return next(ctx, g, params)
		}
	}
}

// LoggingMiddleware logs every host function invocation at debug level and
// failures at warn level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HostFunc) HostFunc {
		return func(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			start := time.Now()
			results, err := next(ctx, g, params)
			if err != nil {
				logger.Warn("host function failed",
					zap.String("function", funcName),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				return results, err
			}
			logger.Debug("host function completed",
				zap.String("function", funcName),
				zap.Duration("elapsed", time.Since(start)))
			return results, nil
		}
	}
}
