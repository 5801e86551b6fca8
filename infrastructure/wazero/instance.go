package wazero

import (
	"context"
	"fmt"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/memory"
	"github.com/tetratelabs/wazero/api"
)

// Memory adapts wazero linear memory to memory.Memory.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps mem. A nil mem fails every access.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// Read implements memory.Memory.
func (m *Memory) Read(ptr memory.Pointer, buf []byte) error {
	if m.mem == nil {
		return &engerrors.MemoryError{Kind: engerrors.MemoryRead, Pointer: ptr, Detail: "module exports no memory"}
	}
	data, ok := m.mem.Read(ptr, uint32(len(buf))) //nolint:gosec // G115: buffers are bounded by region limits
	if !ok {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryRead,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%d bytes, memory size %d", len(buf), m.mem.Size()),
		}
	}
	copy(buf, data)
	return nil
}

// Write implements memory.Memory.
func (m *Memory) Write(ptr memory.Pointer, data []byte) error {
	if m.mem == nil {
		return &engerrors.MemoryError{Kind: engerrors.MemoryWrite, Pointer: ptr, Detail: "module exports no memory"}
	}
	if !m.mem.Write(ptr, data) {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryWrite,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%d bytes, memory size %d", len(data), m.mem.Size()),
		}
	}
	return nil
}

// Size implements memory.Memory.
func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Instance is an instantiated contract module. It satisfies both
// executor.Instance, for the host calling entry points, and hostfuncs.Guest,
// for host functions allocating result buffers. Every call into the module
// is one level on the CallDepth.
type Instance struct {
	mod   api.Module
	mem   *Memory
	depth *hostfuncs.CallDepth
}

var (
	_ executor.Instance = (*Instance)(nil)
	_ hostfuncs.Guest   = (*Instance)(nil)
)

// NewInstance wraps mod. A nil depth leaves calls unbounded.
func NewInstance(mod api.Module, depth *hostfuncs.CallDepth) *Instance {
	return &Instance{mod: mod, mem: NewMemory(mod.Memory()), depth: depth}
}

// Module returns the wrapped module.
func (i *Instance) Module() api.Module { return i.mod }

// Memory implements executor.Instance.
func (i *Instance) Memory() memory.Memory { return i.mem }

// Invoke implements executor.Instance. Traps come back as
// errors.GuestTrapError wrapping whatever the trapping host function
// returned.
func (i *Instance) Invoke(ctx context.Context, function string, params ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(function)
	if fn == nil {
		return nil, fmt.Errorf("module %q does not export %q", i.mod.Name(), function)
	}
	if i.depth != nil {
		if err := i.depth.Enter(); err != nil {
			return nil, err
		}
		defer i.depth.Leave()
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, &engerrors.GuestTrapError{Err: err, Function: function}
	}
	return results, nil
}

// Allocate implements hostfuncs.Guest.
func (i *Instance) Allocate(ctx context.Context, size uint32) (memory.Pointer, error) {
	return executor.Allocate(ctx, i, size)
}

// Close closes the underlying module.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}
