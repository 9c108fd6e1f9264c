package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a read would run past the end of the data.
var ErrShortBuffer = errors.New("serialization: unexpected end of data")

// Reader decodes little-endian values from a byte slice. The first failure is
// sticky: every later read returns a zero value and Err reports the failure.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// IsEnd reports whether every byte has been consumed.
func (r *Reader) IsEnd() bool {
	return r.pos == len(r.data)
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.pos, r.Remaining())
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	return r.U8() != 0
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// String reads a u32 length followed by that many bytes.
func (r *Reader) String() string {
	n := r.U32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.err = fmt.Errorf("%w: string of %d bytes at offset %d", ErrShortBuffer, n, r.pos)
		return ""
	}
	return string(r.take(int(n)))
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Rest returns every unread byte without copying and moves to the end.
func (r *Reader) Rest() []byte {
	return r.take(r.Remaining())
}

// Count reads a u32 element count and checks that at least count*minElemSize
// bytes remain, so corrupted counts cannot trigger huge allocations.
func (r *Reader) Count(minElemSize int) int {
	n := r.U32()
	if r.err != nil {
		return 0
	}
	if minElemSize > 0 && uint64(n)*uint64(minElemSize) > uint64(r.Remaining()) {
		r.err = fmt.Errorf("%w: %d elements at offset %d", ErrShortBuffer, n, r.pos)
		return 0
	}
	return int(n)
}
