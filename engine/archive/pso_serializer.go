package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// Record layouts. Every function here runs in both directions; names of
// resources come from the named index and are not part of the records.

func serializeSamplerDesc(s *serialization.Serializer, d *metadata.SamplerDesc) {
	serialization.U8(s, &d.MinFilter)
	serialization.U8(s, &d.MagFilter)
	serialization.U8(s, &d.MipFilter)
	serialization.U8(s, &d.AddressU)
	serialization.U8(s, &d.AddressV)
	serialization.U8(s, &d.AddressW)
	serialization.U8(s, &d.ComparisonFunc)
	serialization.U32(s, &d.MaxAnisotropy)
	serialization.F32(s, &d.MipLODBias)
	serialization.F32(s, &d.MinLOD)
	serialization.F32(s, &d.MaxLOD)
}

func serializeImmutableSampler(s *serialization.Serializer, d *metadata.ImmutableSamplerDesc) {
	serialization.U32(s, &d.ShaderStages)
	serialization.String(s, &d.SamplerOrTextureName)
	serializeSamplerDesc(s, &d.Desc)
}

func serializePipelineResource(s *serialization.Serializer, d *metadata.PipelineResourceDesc) {
	serialization.String(s, &d.Name)
	serialization.U32(s, &d.ShaderStages)
	serialization.U32(s, &d.ArraySize)
	serialization.U8(s, &d.ResourceType)
	serialization.U8(s, &d.VarType)
	serialization.U8(s, &d.Flags)
}

// serializePRSDesc covers everything but the name and SRB allocation
// granularity, which are supplied at unpack time.
func serializePRSDesc(s *serialization.Serializer, d *metadata.PipelineResourceSignatureDesc) {
	serialization.Slice(s, &d.Resources, 15, serializePipelineResource)
	serialization.Slice(s, &d.ImmutableSamplers, 8+7+16, serializeImmutableSampler)
	serialization.U8(s, &d.BindingIndex)
	serialization.Bool(s, &d.UseCombinedTextureSamplers)
	serialization.String(s, &d.CombinedSamplerSuffix)
}

func serializeAttachmentReference(s *serialization.Serializer, r *metadata.AttachmentReference) {
	serialization.U32(s, &r.AttachmentIndex)
	serialization.U32(s, &r.State)
}

func serializeRenderPassDesc(s *serialization.Serializer, d *metadata.RenderPassDesc) {
	serialization.Slice(s, &d.Attachments, 15, func(s *serialization.Serializer, a *metadata.RenderPassAttachmentDesc) {
		serialization.U16(s, &a.Format)
		serialization.U8(s, &a.SampleCount)
		serialization.U8(s, &a.LoadOp)
		serialization.U8(s, &a.StoreOp)
		serialization.U8(s, &a.StencilLoadOp)
		serialization.U8(s, &a.StencilStoreOp)
		serialization.U32(s, &a.InitialState)
		serialization.U32(s, &a.FinalState)
	})
	serialization.Slice(s, &d.Subpasses, 13, func(s *serialization.Serializer, sp *metadata.SubpassDesc) {
		serialization.Slice(s, &sp.InputAttachments, 8, serializeAttachmentReference)
		serialization.Slice(s, &sp.RenderTargetAttachments, 8, serializeAttachmentReference)
		serialization.Optional(s, &sp.DepthStencilAttachment, serializeAttachmentReference)
		serialization.Slice(s, &sp.PreserveAttachments, 4, func(s *serialization.Serializer, v *uint32) {
			serialization.U32(s, v)
		})
	})
	serialization.Slice(s, &d.Dependencies, 24, func(s *serialization.Serializer, dep *metadata.SubpassDependencyDesc) {
		serialization.U32(s, &dep.SrcSubpass)
		serialization.U32(s, &dep.DstSubpass)
		serialization.U32(s, &dep.SrcStageMask)
		serialization.U32(s, &dep.DstStageMask)
		serialization.U32(s, &dep.SrcAccessMask)
		serialization.U32(s, &dep.DstAccessMask)
	})
}

func serializeResourceLayout(s *serialization.Serializer, l *metadata.PipelineResourceLayoutDesc) {
	serialization.U8(s, &l.DefaultVariableType)
	serialization.U32(s, &l.DefaultVariableMergeStages)
	serialization.Slice(s, &l.Variables, 10, func(s *serialization.Serializer, v *metadata.ShaderResourceVariableDesc) {
		serialization.U32(s, &v.ShaderStages)
		serialization.String(s, &v.Name)
		serialization.U8(s, &v.Type)
		serialization.U8(s, &v.Flags)
	})
	serialization.Slice(s, &l.ImmutableSamplers, 8+7+16, serializeImmutableSampler)
}

/**
 * @brief The part of a pipeline record shared by all pipeline kinds.
 * SignatureCount is the serialized count; Names always holds max(SignatureCount, 1)
 * entries so a pipeline without explicit signatures still names its implicit one.
 */
type pipelineSignatures struct {
	Count uint32
	Names []string
}

func serializePipelineStateCreateInfo(s *serialization.Serializer, ci *metadata.PipelineStateCreateInfo, sigs *pipelineSignatures) {
	serialization.U8(s, &ci.PSODesc.PipelineType)
	serializeResourceLayout(s, &ci.PSODesc.ResourceLayout)
	serialization.U32(s, &ci.Flags)

	serialization.U32(s, &sigs.Count)
	if s.IsReading() && sigs.Count > metadata.MaxResourceSignatures {
		return
	}
	n := int(sigs.Count)
	if n == 0 {
		n = 1
	}
	if s.IsReading() {
		sigs.Names = make([]string, n)
	}
	for i := 0; i < n; i++ {
		serialization.String(s, &sigs.Names[i])
	}
}

// checkSignatureCount runs after decoding, when the serializer error is known.
func checkSignatureCount(sigs *pipelineSignatures) error {
	if sigs.Count > metadata.MaxResourceSignatures {
		return fmt.Errorf("%d signatures, the maximum is %d: %w", sigs.Count, metadata.MaxResourceSignatures, core.ErrTooManySignatures)
	}
	return nil
}

func serializeGraphicsPipelineDesc(s *serialization.Serializer, d *metadata.GraphicsPipelineDesc) {
	b := &d.BlendDesc
	serialization.Bool(s, &b.AlphaToCoverageEnable)
	serialization.Bool(s, &b.IndependentBlendEnable)
	for i := range b.RenderTargets {
		rt := &b.RenderTargets[i]
		serialization.Bool(s, &rt.BlendEnable)
		serialization.U8(s, &rt.SrcBlend)
		serialization.U8(s, &rt.DestBlend)
		serialization.U8(s, &rt.BlendOp)
		serialization.U8(s, &rt.RenderTargetWriteMask)
	}
	serialization.U32(s, &d.SampleMask)

	r := &d.RasterizerDesc
	serialization.U8(s, &r.FillMode)
	serialization.U8(s, &r.CullMode)
	serialization.Bool(s, &r.FrontCounterClockwise)
	serialization.Bool(s, &r.DepthClipEnable)
	serialization.Bool(s, &r.ScissorEnable)
	serialization.I32(s, &r.DepthBias)
	serialization.F32(s, &r.SlopeScaledDepthBias)

	ds := &d.DepthStencilDesc
	serialization.Bool(s, &ds.DepthEnable)
	serialization.Bool(s, &ds.DepthWriteEnable)
	serialization.U8(s, &ds.DepthFunc)
	serialization.Bool(s, &ds.StencilEnable)

	serialization.Slice(s, &d.InputLayout, 24, func(s *serialization.Serializer, e *metadata.LayoutElement) {
		serialization.String(s, &e.HLSLSemantic)
		serialization.U32(s, &e.InputIndex)
		serialization.U32(s, &e.BufferSlot)
		serialization.U32(s, &e.NumComponents)
		serialization.U8(s, &e.ValueType)
		serialization.Bool(s, &e.IsNormalized)
		serialization.U32(s, &e.RelativeOffset)
		serialization.U32(s, &e.Stride)
		serialization.Bool(s, &e.PerInstance)
	})
	serialization.U8(s, &d.PrimitiveTopology)
	serialization.U8(s, &d.NumViewports)
	serialization.U8(s, &d.NumRenderTargets)
	serialization.U8(s, &d.SubpassIndex)
	for i := range d.RTVFormats {
		serialization.U16(s, &d.RTVFormats[i])
	}
	serialization.U16(s, &d.DSVFormat)
	serialization.U8(s, &d.SampleCount)
}

func serializeTilePipelineDesc(s *serialization.Serializer, d *metadata.TilePipelineDesc) {
	serialization.U8(s, &d.NumRenderTargets)
	serialization.U8(s, &d.SampleCount)
	for i := range d.RTVFormats {
		serialization.U16(s, &d.RTVFormats[i])
	}
}

/**
 * @brief Shader slots of a ray tracing pipeline as stored in the archive: indices
 * into the pipeline's own shader list, InvalidShaderIndex for an unused slot.
 */
type rayTracingShaderIndices struct {
	General       []uint32
	TriangleHit   [][2]uint32
	ProceduralHit [][3]uint32
}

func serializeRayTracingPipeline(s *serialization.Serializer, ci *metadata.RayTracingPipelineStateCreateInfo, idx *rayTracingShaderIndices) {
	serialization.U16(s, &ci.RayTracingPipeline.ShaderRecordSize)
	serialization.U8(s, &ci.RayTracingPipeline.MaxRecursionDepth)

	serialization.Slice(s, &ci.GeneralShaders, 8, func(s *serialization.Serializer, g *metadata.RayTracingGeneralShaderGroup) {
		serialization.String(s, &g.Name)
	})
	serialization.Slice(s, &idx.General, 4, func(s *serialization.Serializer, v *uint32) {
		serialization.U32(s, v)
	})

	serialization.Slice(s, &ci.TriangleHitShaders, 4, func(s *serialization.Serializer, g *metadata.RayTracingTriangleHitShaderGroup) {
		serialization.String(s, &g.Name)
	})
	serialization.Slice(s, &idx.TriangleHit, 8, func(s *serialization.Serializer, v *[2]uint32) {
		serialization.U32(s, &v[0])
		serialization.U32(s, &v[1])
	})

	serialization.Slice(s, &ci.ProceduralHitShaders, 4, func(s *serialization.Serializer, g *metadata.RayTracingProceduralHitShaderGroup) {
		serialization.String(s, &g.Name)
	})
	serialization.Slice(s, &idx.ProceduralHit, 12, func(s *serialization.Serializer, v *[3]uint32) {
		serialization.U32(s, &v[0])
		serialization.U32(s, &v[1])
		serialization.U32(s, &v[2])
	})

	serialization.String(s, &ci.ShaderRecordName)
	serialization.U32(s, &ci.MaxAttributeSize)
	serialization.U32(s, &ci.MaxPayloadSize)
}

func (idx *rayTracingShaderIndices) matches(ci *metadata.RayTracingPipelineStateCreateInfo) bool {
	return len(idx.General) == len(ci.GeneralShaders) &&
		len(idx.TriangleHit) == len(ci.TriangleHitShaders) &&
		len(idx.ProceduralHit) == len(ci.ProceduralHitShaders)
}

// serializeShaderIndices is the device-specific payload of every pipeline record.
func serializeShaderIndices(s *serialization.Serializer, indices *[]uint32) {
	serialization.Slice(s, indices, 4, func(s *serialization.Serializer, v *uint32) {
		serialization.U32(s, v)
	})
}

/** @brief Fixed part of a shader record; the byte code is the rest of the record. */
type shaderRecordHeader struct {
	ShaderType     metadata.ShaderType
	EntryPoint     string
	SourceLanguage metadata.ShaderSourceLanguage
	ShaderCompiler metadata.ShaderCompiler
}

func (h *shaderRecordHeader) serialize(s *serialization.Serializer) {
	serialization.U32(s, &h.ShaderType)
	serialization.String(s, &h.EntryPoint)
	serialization.U32(s, &h.SourceLanguage)
	serialization.U32(s, &h.ShaderCompiler)
}
