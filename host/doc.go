// Package host runs contracts on the wazero WebAssembly runtime.
//
// An Executor owns the runtime, the env host module built from a
// hostfuncs.Registry, and a cache of compiled modules keyed by code
// checksum. It exposes the chain-level operations: StoreCode, Instantiate,
// Execute, Migrate, UpdateAdmin, Sudo, the IBC callbacks, Query and
// QueryChain, and code pinning.
//
// Each top-level call gets a Session. The Session is the system.VM the
// dispatcher drives and the hostfuncs.Environment the contract's imports
// see. Nested calls made through sub-messages or smart queries run in child
// sessions sharing the top-level call's gas meter and depth counters, and
// every contract call runs in a fresh module instance.
//
// # Basic Usage
//
//	chain, err := host.NewMemoryChain("cosmwasm")
//	exec, err := host.NewExecutor(ctx, chain, host.WithLogger(logger))
//	defer exec.Close(ctx)
//
//	code, _, err := exec.StoreCode(ctx, creator, wasm)
//	addr, _, err := exec.Instantiate(ctx, host.InstantiateParams{
//	    Sender: creator,
//	    CodeID: code.CodeID,
//	    Msg:    []byte(`{}`),
//	})
//	res, err := exec.Execute(ctx, creator, addr, []byte(`{"increment":{}}`), nil)
package host
