package serialization

import (
	"encoding/binary"
	"math"
)

// Writer appends little-endian values to a growing buffer. It produces the
// exact layout Reader consumes.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

func (w *Writer) String(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutU32At overwrites a previously written u32, used to patch offsets.
func (w *Writer) PutU32At(pos int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[pos:], v)
}

// PutU64At overwrites a previously written u64.
func (w *Writer) PutU64At(pos int, v uint64) {
	binary.LittleEndian.PutUint64(w.buf[pos:], v)
}
