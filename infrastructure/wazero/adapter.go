// Package wazero binds the engine's host functions and guest memory protocol
// to the wazero runtime.
package wazero

import (
	"context"
	"fmt"

	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DefaultModuleName is the import module contracts link against.
const DefaultModuleName = "env"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "env").
	ModuleName string
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{ModuleName: DefaultModuleName}
}

// RegisterWithRuntime instantiates a host module exporting every function in
// registry. All parameters and results are i32.
//
// Each exported function:
//   - wraps the calling module as an Instance bounded by the CallDepth on ctx
//   - invokes the registry with the i32 arguments
//   - traps the guest by panicking with the returned error, which wazero
//     surfaces from the outermost Call
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.Registry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range registry.Names() {
		f, _ := registry.Lookup(name)
		builder.NewFunctionBuilder().
			WithGoModuleFunction(hostFunction(registry, f), i32s(f.Params), i32s(f.Results)).
			Export(name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return nil
}

func hostFunction(registry *hostfuncs.Registry, f hostfuncs.Func) api.GoModuleFunc {
	name, nParams, nResults := f.Name, f.Params, f.Results
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		params := make([]uint64, nParams)
		for i := range params {
			params[i] = uint64(api.DecodeU32(stack[i]))
		}

		results, err := registry.Invoke(ctx, name, NewInstance(mod, CallDepthFrom(ctx)), params)
		if err != nil {
			panic(err)
		}
		if len(results) != nResults {
			panic(fmt.Errorf("host function %q returned %d values, declared %d", name, len(results), nResults))
		}
		for i, v := range results {
			stack[i] = api.EncodeU32(uint32(v)) //nolint:gosec // G115: i32 results
		}
	}
}

func i32s(n int) []api.ValueType {
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}
