package memory

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
)

// RegionSize is the encoded size of a Region descriptor.
const RegionSize = 12

// Region describes a guest-owned buffer.
type Region struct {
	Offset   Pointer
	Capacity Pointer
	Length   Pointer
}

// Encode lays the region out the way the guest expects.
func (r Region) Encode() [RegionSize]byte {
	var b [RegionSize]byte
	binary.LittleEndian.PutUint32(b[0:4], r.Offset)
	binary.LittleEndian.PutUint32(b[4:8], r.Capacity)
	binary.LittleEndian.PutUint32(b[8:12], r.Length)
	return b
}

// DecodeRegion parses a descriptor.
func DecodeRegion(b [RegionSize]byte) Region {
	return Region{
		Offset:   binary.LittleEndian.Uint32(b[0:4]),
		Capacity: binary.LittleEndian.Uint32(b[4:8]),
		Length:   binary.LittleEndian.Uint32(b[8:12]),
	}
}

// validate checks a region in a fixed order. A zero offset always wins: it
// means "uninitialized", not "empty".
func (r Region) validate(ptr Pointer, limit *uint32) error {
	if r.Offset == 0 {
		return &engerrors.MemoryError{Kind: engerrors.MemoryZeroOffset, Pointer: ptr}
	}
	if r.Length > r.Capacity {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryOutOfRange,
			Pointer: ptr,
			Detail:  fmt.Sprintf("length %d > capacity %d", r.Length, r.Capacity),
		}
	}
	if limit != nil && r.Length > *limit {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryOverflowLimit,
			Pointer: ptr,
			Detail:  fmt.Sprintf("length %d > limit %d", r.Length, *limit),
		}
	}
	if uint64(r.Offset)+uint64(r.Capacity) > math.MaxUint32 {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryBufferSizeOverflowPointer,
			Pointer: ptr,
			Detail:  fmt.Sprintf("offset %d + capacity %d", r.Offset, r.Capacity),
		}
	}
	return nil
}

// ReadRegionDescriptor reads the raw descriptor at ptr without validating it.
func ReadRegionDescriptor(mem Memory, ptr Pointer) (Region, error) {
	var buf [RegionSize]byte
	if err := mem.Read(ptr, buf[:]); err != nil {
		return Region{}, err
	}
	return DecodeRegion(buf), nil
}

// ReadRegion reads the region at ptr, validates it and returns a copy of the
// bytes it describes.
func ReadRegion(mem Memory, ptr Pointer) ([]byte, error) {
	return readRegion(mem, ptr, nil)
}

// ReadRegionLimited is ReadRegion with an upper bound on the region length.
func ReadRegionLimited(mem Memory, ptr Pointer, limit uint32) ([]byte, error) {
	return readRegion(mem, ptr, &limit)
}

func readRegion(mem Memory, ptr Pointer, limit *uint32) ([]byte, error) {
	region, err := ReadRegionDescriptor(mem, ptr)
	if err != nil {
		return nil, err
	}
	if err := region.validate(ptr, limit); err != nil {
		return nil, err
	}
	out := make([]byte, region.Length)
	if err := mem.Read(region.Offset, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteRegion writes data into the buffer described by the region at ptr and
// updates the region's length field in place. Nothing is written if data
// does not fit.
func WriteRegion(mem Memory, ptr Pointer, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryBufferSizeOverflowPointer,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%d bytes", len(data)),
		}
	}
	region, err := ReadRegionDescriptor(mem, ptr)
	if err != nil {
		return err
	}
	if region.Offset == 0 {
		return &engerrors.MemoryError{Kind: engerrors.MemoryZeroOffset, Pointer: ptr}
	}
	length := uint32(len(data)) //nolint:gosec // G115: checked against MaxUint32 above
	if length > region.Capacity {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryRegionTooSmall,
			Pointer: ptr,
			Detail:  fmt.Sprintf("need %d bytes, capacity %d", length, region.Capacity),
		}
	}
	if err := mem.Write(region.Offset, data); err != nil {
		return err
	}
	var lenField [4]byte
	binary.LittleEndian.PutUint32(lenField[:], length)
	return mem.Write(ptr+8, lenField[:])
}

// ReadRegionValue reads at most limit bytes from the region at ptr and
// decodes them as JSON into a T.
func ReadRegionValue[T any](mem Memory, ptr Pointer, limit uint32) (T, error) {
	var v T
	data, err := ReadRegionLimited(mem, ptr, limit)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "decoding %T: %v", v, err)
	}
	return v, nil
}

// WriteRegionValue encodes v as JSON and writes it into the region at ptr.
func WriteRegionValue(mem Memory, ptr Pointer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "encoding %T: %v", v, err)
	}
	return WriteRegion(mem, ptr, data)
}

// ReadFixed reads a fixed-size little-endian value of type T at ptr.
// T must have a non-zero encoded size, as reported by encoding/binary.
func ReadFixed[T any](mem Memory, ptr Pointer) (T, error) {
	var v T
	size := binary.Size(v)
	if size <= 0 || size > math.MaxInt32 {
		return v, &engerrors.MemoryError{
			Kind:    engerrors.MemoryInvalidTypeSize,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%T has size %d", v, size),
		}
	}
	buf := make([]byte, size)
	if err := mem.Read(ptr, buf); err != nil {
		return v, err
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &v); err != nil {
		return v, &engerrors.MemoryError{Kind: engerrors.MemoryInvalidTypeSize, Pointer: ptr, Detail: err.Error()}
	}
	return v, nil
}

// WriteFixed writes v at ptr in little-endian layout.
func WriteFixed[T any](mem Memory, ptr Pointer, v T) error {
	size := binary.Size(v)
	if size <= 0 {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryInvalidTypeSize,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%T has size %d", v, size),
		}
	}
	if uint64(size) > math.MaxUint32 {
		return &engerrors.MemoryError{Kind: engerrors.MemoryTypeSizeOverflow, Pointer: ptr}
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return &engerrors.MemoryError{Kind: engerrors.MemoryInvalidTypeSize, Pointer: ptr, Detail: err.Error()}
	}
	return mem.Write(ptr, buf.Bytes())
}
