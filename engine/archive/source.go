package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
)

// Source is random access storage holding an archive. *bytes.Reader
// satisfies it directly.
type Source interface {
	io.ReaderAt
	Size() int64
}

type fileSource struct {
	*os.File
	size int64
}

func openFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{File: f, size: info.Size()}, nil
}

func (f *fileSource) Size() int64 {
	return f.size
}

// sourceReader checks every range against the archive size before touching
// the source, so corrupted offsets can never read past the end.
type sourceReader struct {
	src  Source
	size uint64
}

func newSourceReader(src Source) *sourceReader {
	size := src.Size()
	if size < 0 {
		size = 0
	}
	return &sourceReader{src: src, size: uint64(size)}
}

func (r *sourceReader) contains(offset, size uint64) bool {
	return offset <= r.size && size <= r.size-offset
}

func (r *sourceReader) readAt(offset uint64, buf []byte) error {
	if !r.contains(offset, uint64(len(buf))) {
		return fmt.Errorf("range [%d, +%d) of a %d byte archive: %w", offset, len(buf), r.size, core.ErrOutOfBounds)
	}
	if len(buf) == 0 {
		return nil
	}
	n, err := r.src.ReadAt(buf, int64(offset))
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("failed to read %d bytes at offset %d: %w", len(buf), offset, err)
}

// read returns size bytes at offset in memory owned by arena.
func (r *sourceReader) read(offset uint64, size uint32, arena *containers.Arena) ([]byte, error) {
	if !r.contains(offset, uint64(size)) {
		return nil, fmt.Errorf("range [%d, +%d) of a %d byte archive: %w", offset, size, r.size, core.ErrOutOfBounds)
	}
	buf := arena.Allocate(int(size))
	if err := r.readAt(offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
