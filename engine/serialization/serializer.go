package serialization

// Serializer runs one description of a binary layout in either direction. A
// field function written against a Serializer both decodes and encodes, so the
// two sides of a format cannot drift apart.
type Serializer struct {
	r *Reader
	w *Writer
}

func NewReadSerializer(data []byte) *Serializer {
	return &Serializer{r: NewReader(data)}
}

func NewWriteSerializer(w *Writer) *Serializer {
	return &Serializer{w: w}
}

func (s *Serializer) IsReading() bool {
	return s.r != nil
}

// Err reports the first decoding failure. Writing never fails.
func (s *Serializer) Err() error {
	if s.r == nil {
		return nil
	}
	return s.r.Err()
}

// IsEnd reports whether a reading serializer consumed all of its input.
func (s *Serializer) IsEnd() bool {
	return s.r == nil || s.r.IsEnd()
}

// Rest returns the unread input of a reading serializer.
func (s *Serializer) Rest() []byte {
	if s.r == nil {
		return nil
	}
	return s.r.Rest()
}

func U8[T ~uint8](s *Serializer, v *T) {
	if s.r != nil {
		*v = T(s.r.U8())
		return
	}
	s.w.U8(uint8(*v))
}

func U16[T ~uint16](s *Serializer, v *T) {
	if s.r != nil {
		*v = T(s.r.U16())
		return
	}
	s.w.U16(uint16(*v))
}

func U32[T ~uint32](s *Serializer, v *T) {
	if s.r != nil {
		*v = T(s.r.U32())
		return
	}
	s.w.U32(uint32(*v))
}

func U64[T ~uint64](s *Serializer, v *T) {
	if s.r != nil {
		*v = T(s.r.U64())
		return
	}
	s.w.U64(uint64(*v))
}

// I32 stores a signed value as its two's complement u32.
func I32[T ~int32](s *Serializer, v *T) {
	u := uint32(*v)
	U32(s, &u)
	*v = T(int32(u))
}

func F32(s *Serializer, v *float32) {
	if s.r != nil {
		*v = s.r.F32()
		return
	}
	s.w.F32(*v)
}

func Bool(s *Serializer, v *bool) {
	if s.r != nil {
		*v = s.r.Bool()
		return
	}
	s.w.Bool(*v)
}

func String(s *Serializer, v *string) {
	if s.r != nil {
		*v = s.r.String()
		return
	}
	s.w.String(*v)
}

// Slice stores a u32 element count followed by every element. minElemSize is
// the smallest encoded size of one element and bounds the count on read.
func Slice[T any](s *Serializer, v *[]T, minElemSize int, elem func(*Serializer, *T)) {
	if s.r != nil {
		n := s.r.Count(minElemSize)
		if n == 0 {
			*v = nil
			return
		}
		*v = make([]T, n)
	} else {
		s.w.U32(uint32(len(*v)))
	}
	for i := range *v {
		elem(s, &(*v)[i])
		if s.Err() != nil {
			return
		}
	}
}

// Optional stores a presence flag followed by the value when present.
func Optional[T any](s *Serializer, v **T, elem func(*Serializer, *T)) {
	present := *v != nil
	Bool(s, &present)
	if !present {
		*v = nil
		return
	}
	if s.r != nil {
		*v = new(T)
	}
	elem(s, *v)
}
