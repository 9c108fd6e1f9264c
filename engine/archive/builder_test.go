package archive

import (
	"sort"

	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// testRecord is one named resource: the device-independent part of the record
// and the payload stored in each device block.
type testRecord struct {
	name string
	// header is the type written to the record's data header.
	header ChunkType
	common []byte
	device map[metadata.DeviceType][]byte
}

type testShader struct {
	header   shaderRecordHeader
	byteCode []byte
}

// archiveBuilder writes archives in the layout Open reads. Chunks come in
// ChunkType order, then the records, then one block per device.
type archiveBuilder struct {
	magic     uint32
	version   uint32
	debugInfo *DebugInfo
	records   map[ChunkType][]*testRecord
	shaders   map[metadata.DeviceType][]testShader
	// withShaderChunk forces a shader chunk even when no shaders were added.
	withShaderChunk bool
}

func newArchiveBuilder() *archiveBuilder {
	return &archiveBuilder{
		magic:   HeaderMagicNumber,
		version: HeaderVersion,
		records: make(map[ChunkType][]*testRecord),
		shaders: make(map[metadata.DeviceType][]testShader),
	}
}

func (b *archiveBuilder) addRecord(ct ChunkType, name string, common func(*serialization.Serializer)) *testRecord {
	w := serialization.NewWriter()
	common(serialization.NewWriteSerializer(w))
	rec := &testRecord{name: name, header: ct, common: w.Bytes(), device: make(map[metadata.DeviceType][]byte)}
	b.records[ct] = append(b.records[ct], rec)
	return rec
}

// addShader appends a shader to the device's table and returns its ordinal.
func (b *archiveBuilder) addShader(dev metadata.DeviceType, st metadata.ShaderType, entryPoint string, byteCode []byte) uint32 {
	b.shaders[dev] = append(b.shaders[dev], testShader{
		header: shaderRecordHeader{
			ShaderType:     st,
			EntryPoint:     entryPoint,
			SourceLanguage: metadata.ShaderSourceLanguageHLSL,
			ShaderCompiler: metadata.ShaderCompilerDXC,
		},
		byteCode: byteCode,
	})
	return uint32(len(b.shaders[dev]) - 1)
}

// addSignature stores desc and its encoded attributes for every device whose
// binding model sig carries attributes for.
func (b *archiveBuilder) addSignature(sig *bindings.Signature) *testRecord {
	desc := sig.Desc
	rec := b.addRecord(ChunkTypeResourceSignature, desc.Name, func(s *serialization.Serializer) {
		serializePRSDesc(s, &desc)
	})
	for dev := metadata.DeviceType(0); dev < metadata.DeviceTypeCount; dev++ {
		if data, err := sig.MarshalBinary(dev.RenderDeviceType()); err == nil {
			rec.device[dev] = data
		}
	}
	return rec
}

func (b *archiveBuilder) addRenderPass(desc metadata.RenderPassDesc) *testRecord {
	return b.addRecord(ChunkTypeRenderPass, desc.Name, func(s *serialization.Serializer) {
		serializeRenderPassDesc(s, &desc)
	})
}

func (b *archiveBuilder) addPipeline(ct ChunkType, ci metadata.PipelineCreateInfo, signatures []string, tail func(*serialization.Serializer)) *testRecord {
	base := ci.Base()
	sigs := pipelineSignatures{Count: uint32(len(signatures)), Names: signatures}
	if len(signatures) == 0 {
		sigs.Names = []string{base.PSODesc.Name}
	}
	return b.addRecord(ct, base.PSODesc.Name, func(s *serialization.Serializer) {
		serializePipelineStateCreateInfo(s, base, &sigs)
		if tail != nil {
			tail(s)
		}
	})
}

func (b *archiveBuilder) addGraphicsPipeline(ci *metadata.GraphicsPipelineStateCreateInfo, signatures []string, renderPass string) *testRecord {
	return b.addPipeline(ChunkTypeGraphicsPipelineStates, ci, signatures, func(s *serialization.Serializer) {
		serializeGraphicsPipelineDesc(s, &ci.GraphicsPipeline)
		serialization.String(s, &renderPass)
	})
}

func (b *archiveBuilder) addComputePipeline(ci *metadata.ComputePipelineStateCreateInfo, signatures []string) *testRecord {
	return b.addPipeline(ChunkTypeComputePipelineStates, ci, signatures, nil)
}

func (b *archiveBuilder) addTilePipeline(ci *metadata.TilePipelineStateCreateInfo, signatures []string) *testRecord {
	return b.addPipeline(ChunkTypeTilePipelineStates, ci, signatures, func(s *serialization.Serializer) {
		serializeTilePipelineDesc(s, &ci.TilePipeline)
	})
}

func (b *archiveBuilder) addRayTracingPipeline(ci *metadata.RayTracingPipelineStateCreateInfo, signatures []string, idx rayTracingShaderIndices) *testRecord {
	return b.addPipeline(ChunkTypeRayTracingPipelineStates, ci, signatures, func(s *serialization.Serializer) {
		serializeRayTracingPipeline(s, ci, &idx)
	})
}

// setShaderIndices stores the pipeline's shader list for one device.
func (r *testRecord) setShaderIndices(dev metadata.DeviceType, indices ...uint32) *testRecord {
	w := serialization.NewWriter()
	serializeShaderIndices(serialization.NewWriteSerializer(w), &indices)
	r.device[dev] = w.Bytes()
	return r
}

type patch struct {
	pos int
	rec *testRecord
}

func (b *archiveBuilder) chunkTypes() []ChunkType {
	var types []ChunkType
	if b.debugInfo != nil {
		types = append(types, ChunkTypeArchiveDebugInfo)
	}
	for ct := range b.records {
		types = append(types, ct)
	}
	if len(b.shaders) > 0 || b.withShaderChunk {
		types = append(types, ChunkTypeShaders)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (b *archiveBuilder) build() []byte {
	w := serialization.NewWriter()
	s := serialization.NewWriteSerializer(w)
	types := b.chunkTypes()

	header := Header{MagicNumber: b.magic, Version: b.version, NumChunks: uint32(len(types))}
	header.serialize(s)
	tablePos := w.Len()
	for range types {
		var ch ChunkHeader
		ch.serialize(s)
	}

	// chunk contents; named tables carry placeholder record locations
	var entries []patch
	shaderHeaderPos := -1
	for i, ct := range types {
		start := w.Len()
		switch ct {
		case ChunkTypeArchiveDebugInfo:
			b.debugInfo.serialize(s)
		case ChunkTypeShaders:
			shaderHeaderPos = w.Len()
			dh := DataHeader{Type: ChunkTypeShaders}
			dh.serialize(s)
		default:
			recs := b.records[ct]
			count := uint32(len(recs))
			serialization.U32(s, &count)
			for _, rec := range recs {
				serialization.String(s, &rec.name)
				entries = append(entries, patch{pos: w.Len(), rec: rec})
				var loc OffsetAndSize
				loc.serialize(s)
			}
		}
		pos := tablePos + i*chunkHeaderSize
		w.PutU32At(pos, uint32(ct))
		w.PutU32At(pos+4, uint32(start))
		w.PutU32At(pos+8, uint32(w.Len()-start))
	}

	// records
	headers := make(map[*testRecord]int)
	for _, e := range entries {
		start := w.Len()
		headers[e.rec] = start
		dh := DataHeader{Type: e.rec.header}
		dh.serialize(s)
		w.Raw(e.rec.common)
		w.PutU32At(e.pos, uint32(start))
		w.PutU32At(e.pos+4, uint32(w.Len()-start))
	}

	// device blocks
	for dev := metadata.DeviceType(0); dev < metadata.DeviceTypeCount; dev++ {
		base := w.Len()
		w.PutU64At(12+8*int(dev), uint64(base))

		for _, e := range entries {
			data, ok := e.rec.device[dev]
			if !ok {
				continue
			}
			block := headers[e.rec] + 4 + 8*int(dev)
			w.PutU32At(block, uint32(w.Len()-base))
			w.PutU32At(block+4, uint32(len(data)))
			w.Raw(data)
		}

		shaders := b.shaders[dev]
		if len(shaders) == 0 || shaderHeaderPos < 0 {
			continue
		}
		table := make([]OffsetAndSize, len(shaders))
		for i := range shaders {
			start := w.Len()
			shaders[i].header.serialize(s)
			w.Raw(shaders[i].byteCode)
			table[i] = OffsetAndSize{Offset: uint32(start - base), Size: uint32(w.Len() - start)}
		}
		listStart := w.Len()
		for i := range table {
			table[i].serialize(s)
		}
		block := shaderHeaderPos + 4 + 8*int(dev)
		w.PutU32At(block, uint32(listStart-base))
		w.PutU32At(block+4, uint32(w.Len()-listStart))
	}
	return w.Bytes()
}
