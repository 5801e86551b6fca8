package config

import (
	"fmt"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/host"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/infrastructure/address"
	"github.com/reglet-dev/cwvm/infrastructure/codestore"
	"github.com/reglet-dev/cwvm/infrastructure/storage"
	"go.uber.org/zap"
)

// OpenChain builds a chain over fresh in-memory state and the configured
// code store. The caller closes chain.Codes.
func (c Config) OpenChain(logger *zap.Logger) (host.Chain, error) {
	codes, err := codestore.Open(c.CodeStoreOptions(logger)...)
	if err != nil {
		return host.Chain{}, fmt.Errorf("open code store: %w", err)
	}
	return host.NewChain(storage.NewMemory(), codes, address.NewBech32(c.Chain.Bech32Prefix)), nil
}

// ExecutorOptions converts c into executor options. Options passed in extra
// are applied last.
func (c Config) ExecutorOptions(logger *zap.Logger, extra ...host.Option) []host.Option {
	opts := []host.Option{
		host.WithLogger(logger),
		host.WithGasLimit(c.Gas.Limit),
		host.WithGasCosts(hostfuncs.GasCosts{
			HostCall:        c.Gas.HostCall,
			PerByte:         c.Gas.PerByte,
			Secp256k1Verify: c.Gas.Secp256k1Verify,
			Ed25519Verify:   c.Gas.Ed25519Verify,
		}),
		host.WithMaxCallDepth(c.Limits.MaxCallDepth),
		host.WithMaxSubMessageDepth(c.Limits.MaxSubMessageDepth),
		host.WithResultLimit(c.Limits.ResultLimit),
		host.WithMemoryLimitPages(c.Limits.MemoryLimitPages),
		host.WithCacheSize(c.Limits.ModuleCacheSize),
		host.WithBlock(entities.BlockInfo{ChainID: c.Chain.ID, Height: 1}),
	}
	return append(opts, extra...)
}

// CodeStoreOptions converts c into code store options.
func (c Config) CodeStoreOptions(logger *zap.Logger) []codestore.Option {
	opts := []codestore.Option{
		codestore.WithLogger(logger.Named("codestore")),
		codestore.WithCacheSize(c.CodeStore.CacheMB),
		codestore.WithCacheTTL(c.CodeStore.CacheTTL),
	}
	if c.CodeStore.Persistent() {
		opts = append(opts, codestore.WithDir(c.CodeStore.Dir))
	}
	return opts
}
