// Package region provides Region, an owned byte container with independent
// read and write cursors.
//
// A Region keeps three zones over a single backing array:
//
//	[0, ReadIndex)          consumed bytes, free to discard ("waste")
//	[ReadIndex, WriteIndex) readable bytes
//	[WriteIndex, Cap)       free space for appends
//
// Views returned by Bytes, Peek and Next share the backing array. They are
// valid until the next call that mutates the Region (Write, Grow, Compact,
// Shrink, Reset, Release) and must be copied to be retained. CopyNext returns
// an owned copy.
//
// A Region is not safe for concurrent use.
package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrShortBuffer   = errors.New("region: not enough readable bytes")
	ErrNegativeCount = errors.New("region: negative count")
)

// Region is a growable byte container with a read cursor and a write cursor.
// The zero value is an empty Region with no backing storage.
type Region struct {
	buf []byte // len(buf) is the capacity
	r   int
	w   int
}

// New returns a Region backed by exactly capacity bytes.
func New(capacity int) *Region {
	if capacity < 0 {
		panic("region: negative capacity")
	}
	return &Region{buf: make([]byte, capacity)}
}

// Len returns the number of readable bytes.
func (b *Region) Len() int { return b.w - b.r }

// Cap returns the size of the backing array.
func (b *Region) Cap() int { return len(b.buf) }

// ReadIndex returns the read cursor.
func (b *Region) ReadIndex() int { return b.r }

// WriteIndex returns the write cursor.
func (b *Region) WriteIndex() int { return b.w }

// Waste returns the number of consumed bytes still occupying the backing array.
func (b *Region) Waste() int { return b.r }

// Available returns the free space after the write cursor.
func (b *Region) Available() int { return len(b.buf) - b.w }

// Bytes returns a view of the readable bytes.
// The view's capacity is clipped so appending to it never writes into the Region.
func (b *Region) Bytes() []byte {
	return b.buf[b.r:b.w:b.w]
}

// Peek returns a view of the next n readable bytes without consuming them.
// ok is false when fewer than n bytes are readable.
func (b *Region) Peek(n int) (view []byte, ok bool) {
	if n < 0 || n > b.Len() {
		return nil, false
	}
	return b.buf[b.r : b.r+n : b.r+n], true
}

// Next consumes n bytes and returns a view of them.
func (b *Region) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	if n > b.Len() {
		return nil, ErrShortBuffer
	}
	view := b.buf[b.r : b.r+n : b.r+n]
	b.r += n
	return view, nil
}

// CopyNext consumes n bytes and returns them in a newly allocated slice.
func (b *Region) CopyNext(n int) ([]byte, error) {
	view, err := b.Next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, view)
	return out, nil
}

// Skip consumes n bytes.
func (b *Region) Skip(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	if n > b.Len() {
		return ErrShortBuffer
	}
	b.r += n
	return nil
}

// ReadByte consumes one byte. It returns io.EOF when nothing is readable.
func (b *Region) ReadByte() (byte, error) {
	if b.r == b.w {
		return 0, io.EOF
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// IndexByte returns the offset of the first c in the readable bytes, relative
// to the read cursor, or -1.
func (b *Region) IndexByte(c byte) int {
	return bytes.IndexByte(b.buf[b.r:b.w], c)
}

// IndexByteFrom is IndexByte starting the search at offset from.
// The returned offset is still relative to the read cursor.
func (b *Region) IndexByteFrom(c byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= b.Len() {
		return -1
	}
	i := bytes.IndexByte(b.buf[b.r+from:b.w], c)
	if i < 0 {
		return -1
	}
	return from + i
}

// Index returns the offset of the first occurrence of sep in the readable
// bytes, relative to the read cursor, or -1.
func (b *Region) Index(sep []byte) int {
	return bytes.Index(b.buf[b.r:b.w], sep)
}

// IndexFrom is Index starting the search at offset from.
func (b *Region) IndexFrom(sep []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from > b.Len() {
		return -1
	}
	i := bytes.Index(b.buf[b.r+from:b.w], sep)
	if i < 0 {
		return -1
	}
	return from + i
}

// Uint decodes an unsigned integer of width bytes (1, 2, 4 or 8) located at
// offset from the read cursor, without consuming anything.
// ok is false when the bytes are not readable yet or width is unsupported.
func (b *Region) Uint(offset, width int, order binary.ByteOrder) (v uint64, ok bool) {
	if offset < 0 || offset+width > b.Len() {
		return 0, false
	}
	p := b.buf[b.r+offset : b.r+offset+width]
	switch width {
	case 1:
		return uint64(p[0]), true
	case 2:
		return uint64(order.Uint16(p)), true
	case 4:
		return uint64(order.Uint32(p)), true
	case 8:
		return order.Uint64(p), true
	default:
		return 0, false
	}
}

// Write appends p, growing the backing array as needed. It never fails.
func (b *Region) Write(p []byte) (int, error) {
	b.Grow(len(p))
	n := copy(b.buf[b.w:], p)
	b.w += n
	return n, nil
}

// WriteString appends s.
func (b *Region) WriteString(s string) (int, error) {
	b.Grow(len(s))
	n := copy(b.buf[b.w:], s)
	b.w += n
	return n, nil
}

// WriteByte appends c.
func (b *Region) WriteByte(c byte) error {
	b.Grow(1)
	b.buf[b.w] = c
	b.w++
	return nil
}

// Grow guarantees space for another n bytes after the write cursor.
//
// When the consumed prefix alone makes enough room and it is at least as
// large as the readable bytes, the readable bytes are moved down in place.
// Otherwise a new array of max(2*Cap, Len+n) bytes is allocated and only the
// readable bytes are carried over.
func (b *Region) Grow(n int) {
	if n < 0 {
		panic("region: negative count")
	}
	if len(b.buf)-b.w >= n {
		return
	}
	readable := b.Len()
	if len(b.buf)-readable >= n && b.r >= readable {
		b.Compact()
		return
	}
	size := 2 * len(b.buf)
	if size < readable+n {
		size = readable + n
	}
	b.realloc(size)
}

// Compact moves the readable bytes to offset 0 and resets the read cursor.
func (b *Region) Compact() {
	if b.r == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.r:b.w])
	b.r, b.w = 0, n
}

// Shrink reallocates the backing array to capacity bytes, never below Len.
// It does nothing when capacity is not smaller than Cap.
func (b *Region) Shrink(capacity int) {
	if capacity < b.Len() {
		capacity = b.Len()
	}
	if capacity >= len(b.buf) {
		return
	}
	b.realloc(capacity)
}

// Reset discards all bytes but keeps the backing array.
func (b *Region) Reset() {
	b.r, b.w = 0, 0
}

// Release discards all bytes and drops the backing array.
func (b *Region) Release() {
	b.buf = nil
	b.r, b.w = 0, 0
}

func (b *Region) realloc(size int) {
	buf := make([]byte, size)
	n := copy(buf, b.buf[b.r:b.w])
	b.buf, b.r, b.w = buf, 0, n
}
