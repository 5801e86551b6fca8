// Package memory implements bounds-checked access to guest linear memory and
// the Region protocol guests use to describe byte buffers to the host.
//
// A Region is a 12 byte descriptor of three little-endian u32 values:
// offset, capacity and length. The guest owns every region; the host only
// ever reads a descriptor immediately before using it and never caches one,
// since guest code may rewrite it between host calls.
package memory

import (
	"fmt"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
)

// Pointer is an address in wasm32 linear memory.
type Pointer = uint32

// Memory is guest linear memory. Implementations must fail rather than
// truncate when an access leaves bounds.
type Memory interface {
	// Read copies len(buf) bytes starting at ptr into buf.
	Read(ptr Pointer, buf []byte) error
	// Write copies data into guest memory starting at ptr.
	Write(ptr Pointer, data []byte) error
	// Size is the current size of linear memory in bytes. It may grow
	// between calls.
	Size() uint32
}

// Slice is a Memory backed by a plain byte slice. It stands in for a wasm
// instance wherever the caller only needs the memory protocol.
type Slice struct {
	buf []byte
}

// NewSlice allocates size bytes of zeroed memory.
func NewSlice(size uint32) *Slice {
	return &Slice{buf: make([]byte, size)}
}

// Read implements Memory.
func (s *Slice) Read(ptr Pointer, buf []byte) error {
	if !s.inBounds(ptr, len(buf)) {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryRead,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%d bytes, memory size %d", len(buf), len(s.buf)),
		}
	}
	copy(buf, s.buf[ptr:])
	return nil
}

// Write implements Memory.
func (s *Slice) Write(ptr Pointer, data []byte) error {
	if !s.inBounds(ptr, len(data)) {
		return &engerrors.MemoryError{
			Kind:    engerrors.MemoryWrite,
			Pointer: ptr,
			Detail:  fmt.Sprintf("%d bytes, memory size %d", len(data), len(s.buf)),
		}
	}
	copy(s.buf[ptr:], data)
	return nil
}

// Size implements Memory.
func (s *Slice) Size() uint32 {
	return uint32(len(s.buf)) //nolint:gosec // G115: slice memory is created from a uint32 size
}

// Bytes exposes the backing slice.
func (s *Slice) Bytes() []byte {
	return s.buf
}

func (s *Slice) inBounds(ptr Pointer, n int) bool {
	end := uint64(ptr) + uint64(n)
	return end <= uint64(len(s.buf))
}
