package archive

import (
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

const (
	HeaderMagicNumber uint32 = 0xDE00000A
	HeaderVersion     uint32 = 1
)

// InvalidShaderIndex marks an optional shader slot that is not used.
const InvalidShaderIndex uint32 = 0xFFFFFFFF

type ChunkType uint32

const (
	ChunkTypeUndefined ChunkType = iota
	ChunkTypeArchiveDebugInfo
	ChunkTypeResourceSignature
	ChunkTypeGraphicsPipelineStates
	ChunkTypeComputePipelineStates
	ChunkTypeRayTracingPipelineStates
	ChunkTypeTilePipelineStates
	ChunkTypeRenderPass
	ChunkTypeShaders
	ChunkTypeCount
)

func (ct ChunkType) String() string {
	switch ct {
	case ChunkTypeArchiveDebugInfo:
		return "ArchiveDebugInfo"
	case ChunkTypeResourceSignature:
		return "ResourceSignature"
	case ChunkTypeGraphicsPipelineStates:
		return "GraphicsPipelineStates"
	case ChunkTypeComputePipelineStates:
		return "ComputePipelineStates"
	case ChunkTypeRayTracingPipelineStates:
		return "RayTracingPipelineStates"
	case ChunkTypeTilePipelineStates:
		return "TilePipelineStates"
	case ChunkTypeRenderPass:
		return "RenderPass"
	case ChunkTypeShaders:
		return "Shaders"
	default:
		return "Undefined"
	}
}

// isKnown is false for ChunkTypeUndefined: a chunk must always name its contents.
func (ct ChunkType) isKnown() bool {
	return ct > ChunkTypeUndefined && ct < ChunkTypeCount
}

/**
 * @brief Fixed header at offset 0. BlockBaseOffsets holds the absolute start of
 * each device's block, in metadata.DeviceType order.
 */
type Header struct {
	MagicNumber      uint32
	Version          uint32
	NumChunks        uint32
	BlockBaseOffsets [metadata.DeviceTypeCount]uint64
}

const headerSize = 4 + 4 + 4 + 8*int(metadata.DeviceTypeCount)

func (h *Header) serialize(s *serialization.Serializer) {
	serialization.U32(s, &h.MagicNumber)
	serialization.U32(s, &h.Version)
	serialization.U32(s, &h.NumChunks)
	for i := range h.BlockBaseOffsets {
		serialization.U64(s, &h.BlockBaseOffsets[i])
	}
}

type ChunkHeader struct {
	Type   ChunkType
	Offset uint32
	Size   uint32
}

const chunkHeaderSize = 12

func (c *ChunkHeader) serialize(s *serialization.Serializer) {
	serialization.U32(s, &c.Type)
	serialization.U32(s, &c.Offset)
	serialization.U32(s, &c.Size)
}

/**
 * @brief Leads every resource record and the shader chunk. Blocks locates the
 * device-specific payload of each device relative to that device's base offset.
 */
type DataHeader struct {
	Type   ChunkType
	Blocks [metadata.DeviceTypeCount]OffsetAndSize
}

const dataHeaderSize = 4 + 8*int(metadata.DeviceTypeCount)

func (h *DataHeader) serialize(s *serialization.Serializer) {
	serialization.U32(s, &h.Type)
	for i := range h.Blocks {
		h.Blocks[i].serialize(s)
	}
}

/** @brief Build information of the engine that wrote the archive. */
type DebugInfo struct {
	APIVersion uint32
	GitHash    string
}

func (d *DebugInfo) serialize(s *serialization.Serializer) {
	serialization.U32(s, &d.APIVersion)
	serialization.String(s, &d.GitHash)
}
