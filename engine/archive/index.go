package archive

import (
	"sort"

	"github.com/spaghettifunk/anima/engine/serialization"
)

type OffsetAndSize struct {
	Offset uint32
	Size   uint32
}

// End returns the first byte past the range, computed without overflow.
func (o OffsetAndSize) End() uint64 {
	return uint64(o.Offset) + uint64(o.Size)
}

func (o *OffsetAndSize) serialize(s *serialization.Serializer) {
	serialization.U32(s, &o.Offset)
	serialization.U32(s, &o.Size)
}

// NamedResourceIndex maps resource names of one category to their records.
// It is filled while the archive opens and only read afterwards.
type NamedResourceIndex struct {
	entries map[string]OffsetAndSize
}

func newNamedResourceIndex() *NamedResourceIndex {
	return &NamedResourceIndex{entries: make(map[string]OffsetAndSize)}
}

func (idx *NamedResourceIndex) Insert(name string, offset, size uint32) {
	idx.entries[name] = OffsetAndSize{Offset: offset, Size: size}
}

// Lookup returns the stored name together with the record location.
func (idx *NamedResourceIndex) Lookup(name string) (string, OffsetAndSize, bool) {
	loc, ok := idx.entries[name]
	if !ok {
		return "", OffsetAndSize{}, false
	}
	return name, loc, true
}

func (idx *NamedResourceIndex) Len() int {
	return len(idx.entries)
}

// Names returns every resource name in sorted order.
func (idx *NamedResourceIndex) Names() []string {
	names := make([]string, 0, len(idx.entries))
	for name := range idx.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
