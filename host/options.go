package host

import (
	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"go.uber.org/zap"
)

// Defaults for the executor limits.
const (
	DefaultMaxSubMessageDepth uint32 = 10
	DefaultMemoryLimitPages   uint32 = 512
	DefaultCacheSize                 = 100
	DefaultGasLimit           uint64 = 100_000_000
	DefaultChainID                   = "cwvm-local"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions replaces the standard env import registry.
func WithHostFunctions(registry *hostfuncs.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m ports.Metrics) Option {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEventPublisher receives the events of every committed top-level call.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(e *Executor) {
		e.publisher = p
	}
}

// WithGasCosts sets the host function price list.
func WithGasCosts(costs hostfuncs.GasCosts) Option {
	return func(e *Executor) {
		e.costs = costs
	}
}

// WithGasLimit sets the budget each top-level call starts with.
func WithGasLimit(limit uint64) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.gasLimit = limit
		}
	}
}

// WithMaxCallDepth bounds host to guest re-entry within one top-level call.
func WithMaxCallDepth(depth uint32) Option {
	return func(e *Executor) {
		if depth > 0 {
			e.maxCallDepth = depth
		}
	}
}

// WithMaxSubMessageDepth bounds how deeply contracts may dispatch to each
// other through sub-messages.
func WithMaxSubMessageDepth(depth uint32) Option {
	return func(e *Executor) {
		if depth > 0 {
			e.maxSubMessageDepth = depth
		}
	}
}

// WithResultLimit bounds the serialized result of an entry point.
func WithResultLimit(limit uint32) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.resultLimit = limit
		}
	}
}

// WithMemoryLimitPages caps each contract's linear memory, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		if pages > 0 {
			e.memoryLimitPages = pages
		}
	}
}

// WithCacheSize sets how many compiled modules stay in memory, pinned ones
// not counted.
func WithCacheSize(size int) Option {
	return func(e *Executor) {
		if size > 0 {
			e.cacheSize = size
		}
	}
}

// WithBlock sets the block the first calls execute in.
func WithBlock(block entities.BlockInfo) Option {
	return func(e *Executor) {
		e.block = block
	}
}

// WithCustom handles custom queries and messages. Without one they are
// unsupported.
func WithCustom(h CustomHandler) Option {
	return func(e *Executor) {
		e.custom = h
	}
}

// WithIBC handles the inter-chain messages contracts emit. Without one they
// are unsupported.
func WithIBC(h IBCHandler) Option {
	return func(e *Executor) {
		e.ibc = h
	}
}
