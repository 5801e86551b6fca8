// Package testutil provides an in-process guest for exercising the host
// side of the contract ABI without compiling wasm.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/reglet-dev/cwvm/memory"
	"github.com/stretchr/testify/require"
)

// ExportFunc scripts a guest export.
type ExportFunc func(ctx context.Context, g *Guest, params []uint64) ([]uint64, error)

// heapStart keeps every allocation away from offset 0.
const heapStart = 1024

// Guest is an in-process stand-in for a contract instance. It implements the
// region allocator protocol on top of memory.Slice and lets tests script the
// remaining exports.
type Guest struct {
	Mem     *memory.Slice
	Exports map[string]ExportFunc
	Calls   []string
	Freed   []memory.Pointer
	next    uint32
}

// NewGuest creates a guest with size bytes of memory.
func NewGuest(size uint32) *Guest {
	return &Guest{
		Mem:     memory.NewSlice(size),
		Exports: make(map[string]ExportFunc),
		next:    heapStart,
	}
}

// Memory implements executor.Instance.
func (g *Guest) Memory() memory.Memory { return g.Mem }

// Invoke implements executor.Instance.
func (g *Guest) Invoke(ctx context.Context, function string, params ...uint64) ([]uint64, error) {
	g.Calls = append(g.Calls, function)
	switch function {
	case "allocate":
		ptr, err := g.alloc(uint32(params[0])) //nolint:gosec // G115: test guest sizes are small
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(ptr)}, nil
	case "deallocate":
		g.Freed = append(g.Freed, memory.Pointer(params[0])) //nolint:gosec // G115: i32 argument
		return nil, nil
	}
	fn, ok := g.Exports[function]
	if !ok {
		return nil, fmt.Errorf("guest has no export %q", function)
	}
	return fn(ctx, g, params)
}

// Allocate satisfies the host function Guest interface.
func (g *Guest) Allocate(_ context.Context, size uint32) (memory.Pointer, error) {
	return g.alloc(size)
}

func (g *Guest) alloc(size uint32) (memory.Pointer, error) {
	data := g.next
	regionPtr := align8(data + size)
	end := regionPtr + memory.RegionSize
	if end > g.Mem.Size() {
		return 0, fmt.Errorf("test guest out of memory: need %d, have %d", end, g.Mem.Size())
	}
	g.next = align8(end)
	enc := memory.Region{Offset: data, Capacity: size}.Encode()
	if err := g.Mem.Write(regionPtr, enc[:]); err != nil {
		return 0, err
	}
	return regionPtr, nil
}

func align8(v uint32) uint32 {
	return (v + 7) &^ 7
}

// PutRegion allocates a region holding data and returns its pointer.
func (g *Guest) PutRegion(t *testing.T, data []byte) memory.Pointer {
	t.Helper()
	ptr, err := g.alloc(uint32(len(data))) //nolint:gosec // G115: test payloads are small
	require.NoError(t, err)
	require.NoError(t, memory.WriteRegion(g.Mem, ptr, data))
	return ptr
}

// MustRegion is PutRegion for use inside scripted exports, where there is no
// *testing.T at hand.
func (g *Guest) MustRegion(data []byte) memory.Pointer {
	ptr, err := g.alloc(uint32(len(data))) //nolint:gosec // G115: test payloads are small
	if err != nil {
		panic(err)
	}
	if err := memory.WriteRegion(g.Mem, ptr, data); err != nil {
		panic(err)
	}
	return ptr
}

// ReadRegion reads the region at ptr.
func (g *Guest) ReadRegion(ptr memory.Pointer) []byte {
	data, err := memory.ReadRegion(g.Mem, ptr)
	if err != nil {
		panic(err)
	}
	return data
}
