package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/memory"
)

// DefaultResultLimit bounds the size of an entry point's serialized result.
const DefaultResultLimit uint32 = 64 * units.MiB

// Instance is a live guest module. Invoke runs an export and returns its raw
// results; implementations account for call depth on every invocation.
type Instance interface {
	Memory() memory.Memory
	Invoke(ctx context.Context, function string, params ...uint64) ([]uint64, error)
}

func invoke(ctx context.Context, inst Instance, in Input) ([]uint64, error) {
	return inst.Invoke(ctx, in.Function, in.Params...)
}

// Allocate asks the guest allocator for a region of size bytes and returns
// the region pointer.
func Allocate(ctx context.Context, inst Instance, size uint32) (memory.Pointer, error) {
	in := AllocateInput(size)
	results, err := invoke(ctx, inst, in)
	if err != nil {
		return 0, err
	}
	v, err := ParseValue(in.Function, results)
	if err != nil {
		return 0, err
	}
	if v == 0 || v > math.MaxUint32 {
		return 0, &engerrors.MemoryError{
			Kind:   engerrors.MemoryInvalidPointer,
			Detail: fmt.Sprintf("allocate returned %d", v),
		}
	}
	return memory.Pointer(v), nil
}

// Deallocate returns a region to the guest allocator.
func Deallocate(ctx context.Context, inst Instance, ptr memory.Pointer) error {
	in := DeallocateInput(ptr)
	results, err := invoke(ctx, inst, in)
	if err != nil {
		return err
	}
	return ParseUnit(in.Function, results)
}

// Pass copies data into a freshly allocated guest region. Ownership of the
// region moves to the guest.
func Pass(ctx context.Context, inst Instance, data []byte) (memory.Pointer, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return 0, &engerrors.MemoryError{
			Kind:   engerrors.MemoryBufferSizeOverflowPointer,
			Detail: fmt.Sprintf("%d bytes", len(data)),
		}
	}
	ptr, err := Allocate(ctx, inst, uint32(len(data))) //nolint:gosec // G115: checked above
	if err != nil {
		return 0, err
	}
	if err := memory.WriteRegion(inst.Memory(), ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}

// Take reads a region the guest handed over and frees it.
func Take(ctx context.Context, inst Instance, ptr memory.Pointer, limit uint32) ([]byte, error) {
	data, err := memory.ReadRegionLimited(inst.Memory(), ptr, limit)
	if err != nil {
		return nil, err
	}
	if err := Deallocate(ctx, inst, ptr); err != nil {
		return nil, err
	}
	return data, nil
}

// CallRaw runs ep with already serialized arguments and returns the
// serialized result. info is ignored for entry points without message info.
func CallRaw(ctx context.Context, inst Instance, ep EntryPoint, env, info, msg []byte, limit uint32) ([]byte, error) {
	resultPtr, err := callEntry(ctx, inst, ep, env, info, msg)
	if err != nil {
		return nil, err
	}
	out, err := Take(ctx, inst, resultPtr, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s result: %w", ep, err)
	}
	return out, nil
}

// callEntry passes the arguments, runs ep and returns the guest's result
// region, still owned by the guest.
func callEntry(ctx context.Context, inst Instance, ep EntryPoint, env, info, msg []byte) (memory.Pointer, error) {
	envPtr, err := Pass(ctx, inst, env)
	if err != nil {
		return 0, fmt.Errorf("passing env to %s: %w", ep, err)
	}

	var in Input
	if ep.HasInfo() {
		infoPtr, err := Pass(ctx, inst, info)
		if err != nil {
			return 0, fmt.Errorf("passing info to %s: %w", ep, err)
		}
		msgPtr, err := Pass(ctx, inst, msg)
		if err != nil {
			return 0, fmt.Errorf("passing msg to %s: %w", ep, err)
		}
		in = CallInput(ep, envPtr, infoPtr, msgPtr)
	} else {
		msgPtr, err := Pass(ctx, inst, msg)
		if err != nil {
			return 0, fmt.Errorf("passing msg to %s: %w", ep, err)
		}
		in = CallWithoutInfoInput(ep, envPtr, msgPtr)
	}

	results, err := invoke(ctx, inst, in)
	if err != nil {
		return 0, err
	}
	return ParsePointer(in.Function, results)
}

// Call serializes env, info and msg, runs ep and decodes the guest's
// ContractResult. A result carrying an error is returned as a value, not as
// a Go error; the caller decides what a contract-level failure means.
func Call[T any](ctx context.Context, inst Instance, ep EntryPoint, env entities.Env, info *entities.MessageInfo, msg []byte, limit uint32) (entities.ContractResult[T], error) {
	var result entities.ContractResult[T]

	envBytes, err := json.Marshal(env)
	if err != nil {
		return result, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "env: %v", err)
	}
	var infoBytes []byte
	if ep.HasInfo() {
		if info == nil {
			return result, fmt.Errorf("%s requires message info", ep)
		}
		infoBytes, err = json.Marshal(info)
		if err != nil {
			return result, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "info: %v", err)
		}
	}

	resultPtr, err := callEntry(ctx, inst, ep, envBytes, infoBytes, msg)
	if err != nil {
		return result, err
	}
	result, err = memory.ReadRegionValue[entities.ContractResult[T]](inst.Memory(), resultPtr, limit)
	if err != nil {
		return result, fmt.Errorf("reading %s result: %w", ep, err)
	}
	if err := Deallocate(ctx, inst, resultPtr); err != nil {
		return result, err
	}
	return result, nil
}
