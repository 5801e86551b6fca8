package executor

import (
	"math"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/memory"
)

// Input is a guest call in the form the runtime executes it: the export
// name, the i32 arguments widened to uint64, and the number of results the
// signature declares.
type Input struct {
	Function string
	Params   []uint64
	Results  int
}

// AllocateInput asks the guest for a region of size bytes.
func AllocateInput(size uint32) Input {
	return Input{Function: AllocateExport, Params: []uint64{uint64(size)}, Results: 1}
}

// DeallocateInput hands a region back to the guest allocator.
func DeallocateInput(ptr memory.Pointer) Input {
	return Input{Function: DeallocateExport, Params: []uint64{uint64(ptr)}, Results: 0}
}

// CallInput builds the argument list for an entry point that takes message
// info: env, info, msg.
func CallInput(ep EntryPoint, env, info, msg memory.Pointer) Input {
	return Input{
		Function: ep.Name(),
		Params:   []uint64{uint64(env), uint64(info), uint64(msg)},
		Results:  1,
	}
}

// CallWithoutInfoInput builds the argument list for an entry point that
// takes only env and msg.
func CallWithoutInfoInput(ep EntryPoint, env, msg memory.Pointer) Input {
	return Input{
		Function: ep.Name(),
		Params:   []uint64{uint64(env), uint64(msg)},
		Results:  1,
	}
}

// ParseValue expects exactly one raw result.
func ParseValue(function string, results []uint64) (uint64, error) {
	if len(results) != 1 {
		return 0, &engerrors.MarshalError{Kind: engerrors.MarshalUnexpectedReturnType, Function: function, Got: len(results)}
	}
	return results[0], nil
}

// ParseUnit expects no results.
func ParseUnit(function string, results []uint64) error {
	if len(results) != 0 {
		return &engerrors.MarshalError{Kind: engerrors.MarshalExpectedUnit, Function: function, Got: len(results)}
	}
	return nil
}

// ParsePointer expects a single i32 result.
func ParsePointer(function string, results []uint64) (memory.Pointer, error) {
	if len(results) != 1 || results[0] > math.MaxUint32 {
		return 0, &engerrors.MarshalError{Kind: engerrors.MarshalExpectedPointer, Function: function, Got: len(results)}
	}
	return memory.Pointer(results[0]), nil
}
