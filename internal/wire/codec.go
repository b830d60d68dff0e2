// Package wire encodes and decodes the binary messages exchanged between the
// game server and its clients. Every message starts with a one-byte tag;
// multi-byte values are little-endian and positions are two float32s.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/vovakirdan/tui-snek/internal/core"
)

// Writer appends typed values to a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Byte appends a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// Int32 appends v as four little-endian bytes.
func (w *Writer) Int32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// Float32 appends the IEEE 754 bits of v, little-endian.
func (w *Writer) Float32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// Vec2 appends X then Y.
func (w *Writer) Vec2(v core.Vec2) {
	w.Float32(v.X)
	w.Float32(v.Y)
}

// PatchInt32 overwrites four bytes at offset, used for length prefixes
// that are only known after the body is written.
func (w *Writer) PatchInt32(offset int, v int32) {
	binary.LittleEndian.PutUint32(w.buf[offset:], uint32(v))
}

// Reader walks a byte slice with a cursor. The first short read sets a
// sticky ErrIncomplete and every later read returns zero values.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns how many bytes have been consumed.
func (r *Reader) Offset() int { return r.off }

// Remaining returns how many unread bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Err returns the first error encountered.
func (r *Reader) Err() error { return r.err }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.err = ErrIncomplete
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Byte reads a single byte.
func (r *Reader) Byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Int32 reads a little-endian int32.
func (r *Reader) Int32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// Float32 reads a little-endian float32.
func (r *Reader) Float32() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// Vec2 reads X then Y.
func (r *Reader) Vec2() core.Vec2 {
	x := r.Float32()
	y := r.Float32()
	return core.V(x, y)
}
