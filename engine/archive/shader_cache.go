package archive

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

type shaderEntry struct {
	OffsetAndSize
	shader metadata.Shader
}

/**
 * @brief Shaders of the archive's device addressed by ordinal. The table size is
 * fixed when the archive opens; decoded shaders are created on first use.
 */
type ShaderCache struct {
	// mu guards the cached shader of every entry. It is never held while
	// reading the archive or creating a shader.
	mu         sync.Mutex
	entries    []shaderEntry
	reader     *sourceReader
	baseOffset uint64
}

func newShaderCache(reader *sourceReader, baseOffset uint64, table []OffsetAndSize) *ShaderCache {
	c := &ShaderCache{
		entries:    make([]shaderEntry, len(table)),
		reader:     reader,
		baseOffset: baseOffset,
	}
	for i, loc := range table {
		c.entries[i].OffsetAndSize = loc
	}
	return c
}

func (c *ShaderCache) Len() int {
	return len(c.entries)
}

// LoadShaders returns the shaders with the given ordinals, in the same order.
// Two callers missing the cache for the same ordinal both create a shader;
// the one that publishes last is kept.
func (c *ShaderCache) LoadShaders(device renderer.RenderDevice, indices []uint32) ([]metadata.Shader, error) {
	if device == nil {
		return nil, core.ErrNilDevice
	}
	if c.baseOffset > c.reader.size {
		return nil, fmt.Errorf("shader block does not exist in the archive: %w", core.ErrOutOfBounds)
	}

	arena := containers.NewArena(0)
	defer arena.Release()

	shaders := make([]metadata.Shader, len(indices))
	for i, idx := range indices {
		loc, cached, err := c.lookup(idx)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			shaders[i] = cached
			continue
		}

		shader, err := c.createShader(device, idx, loc, arena)
		if err != nil {
			return nil, err
		}
		shaders[i] = shader

		c.mu.Lock()
		c.entries[idx].shader = shader
		c.mu.Unlock()
	}
	return shaders, nil
}

func (c *ShaderCache) lookup(idx uint32) (OffsetAndSize, metadata.Shader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(idx) >= len(c.entries) {
		return OffsetAndSize{}, nil, fmt.Errorf("shader %d of %d: %w", idx, len(c.entries), core.ErrInvalidShaderIndex)
	}
	e := &c.entries[idx]
	return e.OffsetAndSize, e.shader, nil
}

func (c *ShaderCache) createShader(device renderer.RenderDevice, idx uint32, loc OffsetAndSize, arena *containers.Arena) (metadata.Shader, error) {
	data, err := c.reader.read(c.baseOffset+uint64(loc.Offset), loc.Size, arena)
	if err != nil {
		return nil, fmt.Errorf("shader %d: %w", idx, err)
	}

	s := serialization.NewReadSerializer(data)
	var hdr shaderRecordHeader
	hdr.serialize(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("shader %d: %w: %v", idx, core.ErrInvalidHeader, err)
	}

	ci := &metadata.ShaderCreateInfo{
		Desc:           metadata.ShaderDesc{ShaderType: hdr.ShaderType},
		EntryPoint:     hdr.EntryPoint,
		SourceLanguage: hdr.SourceLanguage,
		ShaderCompiler: hdr.ShaderCompiler,
		// resource bindings in the byte code are final
		CompileFlags: metadata.ShaderCompileFlagSkipReflection,
		ByteCode:     bytes.Clone(s.Rest()),
	}
	shader, err := device.CreateShader(ci)
	if err != nil {
		return nil, fmt.Errorf("shader %d: %w: %w", idx, core.ErrDeviceCreation, err)
	}
	if shader == nil {
		return nil, fmt.Errorf("shader %d: %w", idx, core.ErrDeviceCreation)
	}
	return shader, nil
}

// Clear drops every cached shader. The ordinal table keeps its size.
func (c *ShaderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		c.entries[i].shader = nil
	}
}
