package containers

import "golang.org/x/exp/constraints"

const defaultArenaBlockSize = 4096

// DataPtrAlign is the alignment of every allocation handed out by an Arena.
const DataPtrAlign = 8

// Arena is a linear scratch allocator. Memory handed out by Allocate stays
// valid until Release is called, at which point every block is dropped at once.
// An Arena is not safe for concurrent use.
type Arena struct {
	blockSize int
	blocks    [][]byte
	current   []byte
	allocated int
}

// NewArena creates an arena that grows in blocks of at least blockSize bytes.
func NewArena(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = defaultArenaBlockSize
	}
	return &Arena{blockSize: blockSize}
}

// Allocate returns a zeroed slice of exactly size bytes.
func (a *Arena) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}
	aligned := AlignUp(size, DataPtrAlign)
	if aligned > len(a.current) {
		n := a.blockSize
		if aligned > n {
			n = aligned
		}
		block := make([]byte, n)
		a.blocks = append(a.blocks, block)
		a.current = block
	}
	out := a.current[:size:size]
	a.current = a.current[aligned:]
	a.allocated += size
	return out
}

// Allocated reports the number of bytes handed out since the last Release.
func (a *Arena) Allocated() int {
	return a.allocated
}

// Release drops all blocks owned by the arena.
func (a *Arena) Release() {
	a.blocks = nil
	a.current = nil
	a.allocated = 0
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two.
func AlignUp[T constraints.Integer](value, alignment T) T {
	return (value + alignment - 1) &^ (alignment - 1)
}
