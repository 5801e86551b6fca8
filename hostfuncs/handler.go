package hostfuncs

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/reglet-dev/cwvm/memory"
)

// Guest is the part of a running contract a host function may touch: its
// linear memory and its allocator. Allocate re-enters guest code and is
// therefore subject to the call-depth bound.
type Guest interface {
	Memory() memory.Memory
	Allocate(ctx context.Context, size uint32) (memory.Pointer, error)
}

// HostFunc implements one guest import. Params and results are the raw i32
// values of the wasm signature widened to uint64. A returned error traps the
// guest.
type HostFunc func(ctx context.Context, g Guest, params []uint64) ([]uint64, error)

// Func is a named host function with its wasm signature arity. All
// parameters and results are i32.
type Func struct {
	Fn      HostFunc
	Name    string
	Params  int
	Results int
}

// Read limits for data the guest passes in.
const (
	MaxKeyLength     = 64 * units.KiB
	MaxValueLength   = 128 * units.KiB
	MaxAddressLength = 256
	MaxQueryLength   = 64 * units.KiB
	MaxMessageLength = 64 * units.KiB
	MaxCryptoLength  = 256
)

// passToGuest copies data into a newly allocated guest region.
func passToGuest(ctx context.Context, g Guest, data []byte) (memory.Pointer, error) {
	ptr, err := g.Allocate(ctx, uint32(len(data))) //nolint:gosec // G115: callers bound data by the read limits
	if err != nil {
		return 0, err
	}
	if err := memory.WriteRegion(g.Memory(), ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}

func ptrParam(params []uint64, i int) memory.Pointer {
	return memory.Pointer(params[i]) //nolint:gosec // G115: i32 arguments
}
