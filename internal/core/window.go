// Package core defines core types with zero external dependencies.
package core

import (
	"encoding/binary"
	"fmt"
)

// Window is a read-only, bounds-checked view into a larger forensic buffer.
// Base is the absolute image offset of byte 0. The first PageLen bytes are
// owned by this window; the rest is margin that may only be read past.
type Window struct {
	data    []byte
	base    int64
	pageLen int
}

// NewWindow returns a window over data whose whole length is page.
func NewWindow(data []byte, base int64) Window {
	return Window{data: data, base: base, pageLen: len(data)}
}

// NewPagedWindow returns a window whose first pageLen bytes are the page and
// the remainder is margin.
func NewPagedWindow(data []byte, base int64, pageLen int) Window {
	if pageLen < 0 || pageLen > len(data) {
		pageLen = len(data)
	}
	return Window{data: data, base: base, pageLen: pageLen}
}

// Base returns the absolute offset of byte 0.
func (w Window) Base() int64 { return w.base }

// Len returns page plus margin length.
func (w Window) Len() int { return len(w.data) }

// PageLen returns the owned length.
func (w Window) PageLen() int { return w.pageLen }

// Abs converts a window-relative offset to an absolute image offset.
func (w Window) Abs(off int) int64 { return w.base + int64(off) }

// Remaining returns how many bytes can be read from off.
func (w Window) Remaining(off int) int {
	if off < 0 || off >= len(w.data) {
		return 0
	}
	return len(w.data) - off
}

// Has reports whether n bytes are readable at off.
func (w Window) Has(off, n int) bool {
	return off >= 0 && n >= 0 && off <= len(w.data) && n <= len(w.data)-off
}

// Bytes returns n bytes at off without copying.
func (w Window) Bytes(off, n int) ([]byte, error) {
	if !w.Has(off, n) {
		return nil, w.short(off, n)
	}
	return w.data[off : off+n : off+n], nil
}

// U8 reads one byte.
func (w Window) U8(off int) (uint8, error) {
	if !w.Has(off, 1) {
		return 0, w.short(off, 1)
	}
	return w.data[off], nil
}

// BE16 reads a big-endian uint16.
func (w Window) BE16(off int) (uint16, error) {
	b, err := w.Bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// BE32 reads a big-endian uint32.
func (w Window) BE32(off int) (uint32, error) {
	b, err := w.Bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// LE16 reads a little-endian uint16.
func (w Window) LE16(off int) (uint16, error) {
	b, err := w.Bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// LE32 reads a little-endian uint32.
func (w Window) LE32(off int) (uint32, error) {
	b, err := w.Bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Slice returns the window starting at off. The page boundary moves with it.
func (w Window) Slice(off int) Window {
	if off < 0 {
		off = 0
	}
	if off > len(w.data) {
		off = len(w.data)
	}
	page := w.pageLen - off
	if page < 0 {
		page = 0
	}
	return Window{data: w.data[off:], base: w.base + int64(off), pageLen: page}
}

// Truncate returns the window cut to at most n bytes.
func (w Window) Truncate(n int) Window {
	if n < 0 {
		n = 0
	}
	if n > len(w.data) {
		n = len(w.data)
	}
	page := w.pageLen
	if page > n {
		page = n
	}
	return Window{data: w.data[:n:n], base: w.base, pageLen: page}
}

func (w Window) short(off, n int) error {
	return fmt.Errorf("read %d bytes at %d of %d: %w", n, off, len(w.data), ErrInsufficientData)
}
