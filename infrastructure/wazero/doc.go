// Package wazero binds the engine to the wazero WebAssembly runtime.
//
// It handles:
//
//   - Exposing a hostfuncs.Registry as the "env" host module
//   - Adapting wazero linear memory to memory.Memory
//   - Wrapping instantiated modules as executor.Instance values whose calls
//     are bounded by a hostfuncs.CallDepth
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.RecoveryMiddleware(), hostfuncs.GasMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry)
//
//	mod, err := runtime.InstantiateModule(ctx, compiled, config)
//	depth := hostfuncs.NewCallDepth("guest", hostfuncs.DefaultMaxCallDepth)
//	inst := wazero.NewInstance(mod, depth)
//	res, err := executor.Call[entities.Response](wazero.WithCallDepth(ctx, depth), inst, executor.Execute, env, &info, msg, limit)
package wazero
