package archive

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

type Options struct {
	// DeduplicateUnpack makes concurrent unpacks of the same uncached name share
	// one device object instead of each creating their own.
	DeduplicateUnpack bool
}

/**
 * @brief A pipeline archive opened for one device type. The resource indices are
 * built once by Open and are read-only afterwards; unpacked objects are cached per
 * archive instance.
 */
type Archive struct {
	id     uuid.UUID
	logger *log.Logger

	reader      *sourceReader
	device      metadata.DeviceType
	baseOffsets [metadata.DeviceTypeCount]uint64
	debugInfo   *DebugInfo

	signatures     *NamedResourceIndex
	renderPasses   *NamedResourceIndex
	graphicsPSOs   *NamedResourceIndex
	computePSOs    *NamedResourceIndex
	rayTracingPSOs *NamedResourceIndex
	tilePSOs       *NamedResourceIndex

	shaders *ShaderCache

	signatureCache  *ResourceCache[metadata.PipelineResourceSignature]
	renderPassCache *ResourceCache[metadata.RenderPass]
	graphicsCache   *ResourceCache[metadata.PipelineState]
	computeCache    *ResourceCache[metadata.PipelineState]
	rayTracingCache *ResourceCache[metadata.PipelineState]
	tileCache       *ResourceCache[metadata.PipelineState]
}

// Open parses the archive header and chunk table and builds the resource indices.
// Any error leaves no archive behind.
func Open(src Source, dev metadata.DeviceType) (*Archive, error) {
	return OpenWithOptions(src, dev, Options{})
}

// OpenFile opens the archive stored at path. The file stays open until Close.
func OpenFile(path string, dev metadata.DeviceType, opts Options) (*Archive, error) {
	f, err := openFileSource(path)
	if err != nil {
		core.LogError("failed to open archive '%s': %s", path, err)
		return nil, err
	}
	a, err := OpenWithOptions(f, dev, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func OpenWithOptions(src Source, dev metadata.DeviceType, opts Options) (*Archive, error) {
	if src == nil {
		return nil, errors.New("archive source must not be nil")
	}
	if !dev.IsValid() {
		err := fmt.Errorf("%w: %d", core.ErrUnsupportedDevice, dev)
		core.LogError(err.Error())
		return nil, err
	}

	id := uuid.New()
	a := &Archive{
		id:              id,
		logger:          core.WithPrefix(fmt.Sprintf("Archive %s ", id.String()[:8])),
		reader:          newSourceReader(src),
		device:          dev,
		signatures:      newNamedResourceIndex(),
		renderPasses:    newNamedResourceIndex(),
		graphicsPSOs:    newNamedResourceIndex(),
		computePSOs:     newNamedResourceIndex(),
		rayTracingPSOs:  newNamedResourceIndex(),
		tilePSOs:        newNamedResourceIndex(),
		signatureCache:  NewResourceCache[metadata.PipelineResourceSignature](opts.DeduplicateUnpack),
		renderPassCache: NewResourceCache[metadata.RenderPass](opts.DeduplicateUnpack),
		graphicsCache:   NewResourceCache[metadata.PipelineState](opts.DeduplicateUnpack),
		computeCache:    NewResourceCache[metadata.PipelineState](opts.DeduplicateUnpack),
		rayTracingCache: NewResourceCache[metadata.PipelineState](opts.DeduplicateUnpack),
		tileCache:       NewResourceCache[metadata.PipelineState](opts.DeduplicateUnpack),
	}

	if err := a.readChunks(); err != nil {
		a.logger.Error(err.Error())
		return nil, err
	}
	if a.shaders == nil {
		a.shaders = newShaderCache(a.reader, a.baseOffsets[dev], nil)
	}

	a.logger.Debug("archive opened", "device", dev, "size", a.reader.size,
		"signatures", a.signatures.Len(), "render_passes", a.renderPasses.Len(), "shaders", a.shaders.Len())
	return a, nil
}

func (a *Archive) readChunks() error {
	arena := containers.NewArena(0)
	defer arena.Release()

	data, err := a.reader.read(0, uint32(headerSize), arena)
	if err != nil {
		return fmt.Errorf("failed to read archive header: %w", err)
	}
	var header Header
	header.serialize(serialization.NewReadSerializer(data))
	if header.MagicNumber != HeaderMagicNumber {
		return fmt.Errorf("%w: 0x%08X", core.ErrInvalidMagic, header.MagicNumber)
	}
	if header.Version != HeaderVersion {
		return fmt.Errorf("%w: archive version %d, expected %d", core.ErrUnsupportedVersion, header.Version, HeaderVersion)
	}
	a.baseOffsets = header.BlockBaseOffsets

	tableSize := uint64(header.NumChunks) * chunkHeaderSize
	if tableSize > math.MaxUint32 || !a.reader.contains(uint64(headerSize), tableSize) {
		return fmt.Errorf("%w: %d chunks do not fit in the archive", core.ErrMalformedChunkTable, header.NumChunks)
	}
	data, err = a.reader.read(uint64(headerSize), uint32(tableSize), arena)
	if err != nil {
		return fmt.Errorf("failed to read chunk table: %w", err)
	}

	chunks := make([]ChunkHeader, header.NumChunks)
	s := serialization.NewReadSerializer(data)
	var seen [ChunkTypeCount]bool
	for i := range chunks {
		chunk := &chunks[i]
		chunk.serialize(s)
		if !chunk.Type.isKnown() {
			return fmt.Errorf("%w: %d", core.ErrUnknownChunk, uint32(chunk.Type))
		}
		if seen[chunk.Type] {
			return fmt.Errorf("%w: %s", core.ErrDuplicateChunk, chunk.Type)
		}
		seen[chunk.Type] = true
		if !a.reader.contains(uint64(chunk.Offset), uint64(chunk.Size)) {
			return fmt.Errorf("%w: %s chunk [%d, +%d) exceeds archive size %d",
				core.ErrMalformedChunkTable, chunk.Type, chunk.Offset, chunk.Size, a.reader.size)
		}
	}

	for i := range chunks {
		if err := a.readChunk(&chunks[i], arena); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) readChunk(chunk *ChunkHeader, arena *containers.Arena) error {
	data, err := a.reader.read(uint64(chunk.Offset), chunk.Size, arena)
	if err != nil {
		return fmt.Errorf("failed to read %s chunk: %w", chunk.Type, err)
	}

	switch chunk.Type {
	case ChunkTypeArchiveDebugInfo:
		return a.readDebugInfo(data)
	case ChunkTypeShaders:
		return a.readShaderTable(data, arena)
	default:
		return readNamedResources(chunk.Type, data, a.namedIndex(chunk.Type))
	}
}

func (a *Archive) namedIndex(ct ChunkType) *NamedResourceIndex {
	switch ct {
	case ChunkTypeResourceSignature:
		return a.signatures
	case ChunkTypeRenderPass:
		return a.renderPasses
	case ChunkTypeGraphicsPipelineStates:
		return a.graphicsPSOs
	case ChunkTypeComputePipelineStates:
		return a.computePSOs
	case ChunkTypeRayTracingPipelineStates:
		return a.rayTracingPSOs
	case ChunkTypeTilePipelineStates:
		return a.tilePSOs
	default:
		return nil
	}
}

func readNamedResources(ct ChunkType, data []byte, index *NamedResourceIndex) error {
	s := serialization.NewReadSerializer(data)
	var count uint32
	serialization.U32(s, &count)
	for i := uint32(0); i < count && s.Err() == nil; i++ {
		var name string
		var loc OffsetAndSize
		serialization.String(s, &name)
		loc.serialize(s)
		if s.Err() == nil {
			index.Insert(name, loc.Offset, loc.Size)
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: %s chunk: %v", core.ErrMalformedChunkTable, ct, err)
	}
	return nil
}

func (a *Archive) readDebugInfo(data []byte) error {
	s := serialization.NewReadSerializer(data)
	info := &DebugInfo{}
	info.serialize(s)
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: debug info chunk: %v", core.ErrMalformedChunkTable, err)
	}
	a.debugInfo = info

	if info.APIVersion != core.EngineAPIVersion {
		a.logger.Infof("Archive was created with Engine API version (%d) but is used with (%d)", info.APIVersion, core.EngineAPIVersion)
	}
	if core.BuildCommitHash != "" && info.GitHash != core.BuildCommitHash {
		a.logger.Infof("Archive was built with engine commit '%s' but is used with '%s'", info.GitHash, core.BuildCommitHash)
	}
	return nil
}

func (a *Archive) readShaderTable(data []byte, arena *containers.Arena) error {
	s := serialization.NewReadSerializer(data)
	var header DataHeader
	header.serialize(s)
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: shader chunk: %v", core.ErrMalformedChunkTable, err)
	}

	base := a.baseOffsets[a.device]
	if header.Blocks[a.device].Size == 0 {
		a.logger.Warnf("Shader list has no data for %s", a.device)
		a.shaders = newShaderCache(a.reader, base, nil)
		return nil
	}

	list, err := a.deviceSpecificData(&header, arena, "Shader list")
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrMalformedChunkTable, err)
	}
	const entrySize = 8
	if len(list)%entrySize != 0 {
		return fmt.Errorf("%w: shader list size %d is not a multiple of %d", core.ErrMalformedChunkTable, len(list), entrySize)
	}

	table := make([]OffsetAndSize, len(list)/entrySize)
	ls := serialization.NewReadSerializer(list)
	for i := range table {
		table[i].serialize(ls)
	}
	a.shaders = newShaderCache(a.reader, base, table)
	return nil
}

// ID identifies this archive instance in logs.
func (a *Archive) ID() uuid.UUID {
	return a.id
}

func (a *Archive) DeviceType() metadata.DeviceType {
	return a.device
}

// DebugInfo returns nil when the archive has no debug info chunk.
func (a *Archive) DebugInfo() *DebugInfo {
	return a.debugInfo
}

// ResourceNames lists the resources of a named chunk type in sorted order.
func (a *Archive) ResourceNames(ct ChunkType) []string {
	index := a.namedIndex(ct)
	if index == nil {
		return nil
	}
	return index.Names()
}

func (a *Archive) ShaderCount() int {
	return a.shaders.Len()
}

// ClearResourceCache drops every cached object. Later unpacks decode again
// from the archive bytes.
func (a *Archive) ClearResourceCache() {
	a.shaders.Clear()
	a.signatureCache.Clear()
	a.renderPassCache.Clear()
	a.graphicsCache.Clear()
	a.computeCache.Clear()
	a.rayTracingCache.Clear()
	a.tileCache.Clear()
}

// Close releases the underlying source when it can be closed.
func (a *Archive) Close() error {
	if c, ok := a.reader.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// fail logs a failed unpack and hands the error back to the caller.
func (a *Archive) fail(err error) error {
	a.logger.Error(err.Error())
	return err
}
