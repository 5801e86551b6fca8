package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// Registry is an immutable collection of named host functions.
// Once created via NewRegistry, functions cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type Registry struct {
	funcs map[string]Func
	names []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	funcs      map[string]Func
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable Registry with the given options.
// Returns an error if any function name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(RecoveryMiddleware(), GasMiddleware()),
//	    WithBundle(AllBundles()),
//	)
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{
		funcs: make(map[string]Func),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.funcs))
	for name := range b.funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	wrapped := make(map[string]Func, len(b.funcs))
	for name, f := range b.funcs {
		fn := f.Fn
		// Apply middleware in reverse order so first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			fn = b.middleware[i](fn)
		}
		f.Fn = fn
		wrapped[name] = f
	}

	return &Registry{
		funcs: wrapped,
		names: names,
	}, nil
}

// Invoke dispatches a host function call by name.
func (r *Registry) Invoke(ctx context.Context, name string, g Guest, params []uint64) ([]uint64, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("host function %q not registered", name)
	}
	if len(params) != f.Params {
		return nil, fmt.Errorf("host function %q takes %d params, got %d", name, f.Params, len(params))
	}

	hctx := HostContextFrom(ctx, name)
	return f.Fn(hctx, g, params)
}

// Lookup returns the middleware-wrapped function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Has returns true if a function with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (r *Registry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// addFunc registers a function.
// Returns an error if the name is already registered.
func (b *registryBuilder) addFunc(f Func) error {
	if f.Name == "" {
		return fmt.Errorf("host function name cannot be empty")
	}
	if f.Fn == nil {
		return fmt.Errorf("host function %q has no implementation", f.Name)
	}
	if _, exists := b.funcs[f.Name]; exists {
		return fmt.Errorf("duplicate host function name: %q", f.Name)
	}
	b.funcs[f.Name] = f
	return nil
}

// WithFunc registers a single host function.
func WithFunc(f Func) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addFunc(f); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
