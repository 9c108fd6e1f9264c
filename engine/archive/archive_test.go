package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/testbed"
)

func TestOpenReadsIndices(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})

	assert.Equal(t, testDevice, a.DeviceType())
	assert.Equal(t, []string{"Implicit", "SigA", "SigB", "SigC"}, a.ResourceNames(ChunkTypeResourceSignature))
	assert.Equal(t, []string{"MainPass"}, a.ResourceNames(ChunkTypeRenderPass))
	assert.Equal(t, []string{"GLOnly", "GfxCompute", "Mislabeled", "Opaque"}, a.ResourceNames(ChunkTypeGraphicsPipelineStates))
	assert.Equal(t, []string{"Cull", "Implicit", "NoShader", "NotCompute", "SharedSlot", "TooManySigs", "TwoShaders", "WrongStage"}, a.ResourceNames(ChunkTypeComputePipelineStates))
	assert.Equal(t, []string{"Resolve", "TileNoShader", "TileTwoShaders"}, a.ResourceNames(ChunkTypeTilePipelineStates))
	assert.Equal(t, []string{"RT", "RTBadIndex"}, a.ResourceNames(ChunkTypeRayTracingPipelineStates))
	assert.Nil(t, a.ResourceNames(ChunkTypeShaders))
	assert.Equal(t, 7, a.ShaderCount())

	require.NotNil(t, a.DebugInfo())
	assert.Equal(t, core.EngineAPIVersion, a.DebugInfo().APIVersion)
	assert.Equal(t, "5f3c2a1", a.DebugInfo().GitHash)
}

func TestOpenWithMismatchedDebugInfo(t *testing.T) {
	b := newTestArchiveBuilder()
	b.debugInfo = &DebugInfo{APIVersion: core.EngineAPIVersion + 1, GitHash: "deadbeef"}

	// a different engine version is reported, never rejected
	a := openTestArchive(t, b.build(), Options{})
	assert.Equal(t, core.EngineAPIVersion+1, a.DebugInfo().APIVersion)
}

func TestOpenRejectsCorruptHeaders(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, data []byte) []byte
		err     error
	}{
		{
			name: "magic",
			corrupt: func(_ *testing.T, data []byte) []byte {
				binary.LittleEndian.PutUint32(data[0:], 0xDE00000B)
				return data
			},
			err: core.ErrInvalidMagic,
		},
		{
			name: "version",
			corrupt: func(_ *testing.T, data []byte) []byte {
				binary.LittleEndian.PutUint32(data[4:], HeaderVersion+1)
				return data
			},
			err: core.ErrUnsupportedVersion,
		},
		{
			name: "duplicate chunk",
			corrupt: func(t *testing.T, data []byte) []byte {
				pos := chunkEntry(t, data, ChunkTypeComputePipelineStates)
				binary.LittleEndian.PutUint32(data[pos:], uint32(ChunkTypeResourceSignature))
				return data
			},
			err: core.ErrDuplicateChunk,
		},
		{
			name: "undefined chunk",
			corrupt: func(t *testing.T, data []byte) []byte {
				pos := chunkEntry(t, data, ChunkTypeTilePipelineStates)
				binary.LittleEndian.PutUint32(data[pos:], uint32(ChunkTypeUndefined))
				return data
			},
			err: core.ErrUnknownChunk,
		},
		{
			name: "unknown chunk",
			corrupt: func(t *testing.T, data []byte) []byte {
				pos := chunkEntry(t, data, ChunkTypeTilePipelineStates)
				binary.LittleEndian.PutUint32(data[pos:], 42)
				return data
			},
			err: core.ErrUnknownChunk,
		},
		{
			name: "chunk count",
			corrupt: func(_ *testing.T, data []byte) []byte {
				binary.LittleEndian.PutUint32(data[8:], 0x10000000)
				return data
			},
			err: core.ErrMalformedChunkTable,
		},
		{
			name: "chunk past end",
			corrupt: func(t *testing.T, data []byte) []byte {
				pos := chunkEntry(t, data, ChunkTypeRenderPass)
				binary.LittleEndian.PutUint32(data[pos+8:], uint32(len(data)))
				return data
			},
			err: core.ErrMalformedChunkTable,
		},
		{
			name: "truncated chunk table",
			corrupt: func(_ *testing.T, data []byte) []byte {
				return data[:headerSize+chunkHeaderSize+5]
			},
			err: core.ErrMalformedChunkTable,
		},
		{
			name: "truncated header",
			corrupt: func(_ *testing.T, data []byte) []byte {
				return data[:headerSize-1]
			},
			err: core.ErrOutOfBounds,
		},
		{
			name: "shader list size",
			corrupt: func(t *testing.T, data []byte) []byte {
				pos := chunkEntry(t, data, ChunkTypeShaders)
				shaderHeader := int(binary.LittleEndian.Uint32(data[pos+4:]))
				sizePos := shaderHeader + 4 + 8*int(testDevice) + 4
				size := binary.LittleEndian.Uint32(data[sizePos:])
				binary.LittleEndian.PutUint32(data[sizePos:], size-4)
				return data
			},
			err: core.ErrMalformedChunkTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.corrupt(t, newTestArchiveBuilder().build())
			a, err := Open(bytes.NewReader(data), testDevice)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestOpenRejectsInvalidDevice(t *testing.T) {
	_, err := Open(bytes.NewReader(newTestArchiveBuilder().build()), metadata.DeviceTypeCount)
	assert.ErrorIs(t, err, core.ErrUnsupportedDevice)
}

func TestOpenWithoutShaderDataForDevice(t *testing.T) {
	b := newArchiveBuilder()
	b.addShader(metadata.DeviceTypeOpenGL, metadata.ShaderTypeCompute, "main", []byte{1})

	a := openTestArchive(t, b.build(), Options{})
	assert.Equal(t, 0, a.ShaderCount())

	_, err := a.UnpackShader(&ShaderUnpackInfo{Device: newTestDevice(), Index: 0})
	assert.ErrorIs(t, err, core.ErrInvalidShaderIndex)
}

func TestOpenEmptyArchive(t *testing.T) {
	a := openTestArchive(t, newArchiveBuilder().build(), Options{})
	assert.Empty(t, a.ResourceNames(ChunkTypeResourceSignature))
	assert.Nil(t, a.DebugInfo())
	assert.Equal(t, 0, a.ShaderCount())

	_, err := a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "Opaque", Device: newTestDevice()})
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestUnpackResourceSignature(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	obj, err := a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "SigB", Device: dev, SRBAllocationGranularity: 4})
	require.NoError(t, err)
	sig, ok := obj.(*bindings.Signature)
	require.True(t, ok)

	desc := sig.GetDesc()
	assert.Equal(t, "SigB", desc.Name)
	assert.Equal(t, uint8(1), desc.BindingIndex)
	assert.Equal(t, uint32(4), desc.SRBAllocationGranularity)
	assert.Equal(t, "_sampler", desc.CombinedSamplerSuffix)
	assert.Equal(t, []metadata.PipelineResourceDesc{albedoResource}, desc.Resources)
	require.NotNil(t, sig.Vulkan)
	assert.Equal(t, uint32(1), sig.Vulkan.DescriptorSetSizes[bindings.VulkanDescriptorSetStaticMutable])

	again, err := a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "SigB", Device: dev, SRBAllocationGranularity: 4})
	require.NoError(t, err)
	assert.Same(t, sig, again)
	assert.Equal(t, 1, dev.Calls(testbed.ObjectKindResourceSignature))
}

func TestUnpackResourceSignatureWithHookIsNotCached(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	info := &ResourceSignatureUnpackInfo{
		Name:   "SigA",
		Device: dev,
		ModifySignatureDesc: func(desc *metadata.PipelineResourceSignatureDesc, userData any) {
			desc.SRBAllocationGranularity = userData.(uint32)
		},
		UserData: uint32(64),
	}
	first, err := a.UnpackResourceSignature(info)
	require.NoError(t, err)
	second, err := a.UnpackResourceSignature(info)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, uint32(64), first.GetDesc().SRBAllocationGranularity)
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindResourceSignature))
}

func TestUnpackErrors(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	_, err := a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "Missing", Device: dev})
	assert.ErrorIs(t, err, core.ErrResourceNotFound)

	_, err = a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "SigA"})
	assert.ErrorIs(t, err, core.ErrNilDevice)

	_, err = a.UnpackRenderPass(nil)
	assert.ErrorIs(t, err, core.ErrNilDevice)

	_, err = a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull"})
	assert.ErrorIs(t, err, core.ErrNilDevice)

	// a compute name is not visible to the graphics index
	_, err = a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "Cull", Device: dev})
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestUnpackRenderPass(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	rp, err := a.UnpackRenderPass(&RenderPassUnpackInfo{Name: "MainPass", Device: dev})
	require.NoError(t, err)
	desc := rp.GetDesc()
	assert.Equal(t, "MainPass", desc.Name)
	require.Len(t, desc.Attachments, 2)
	assert.Equal(t, uint16(45), desc.Attachments[1].Format)
	require.Len(t, desc.Subpasses, 1)
	require.NotNil(t, desc.Subpasses[0].DepthStencilAttachment)
	assert.Equal(t, uint32(1), desc.Subpasses[0].DepthStencilAttachment.AttachmentIndex)

	again, err := a.UnpackRenderPass(&RenderPassUnpackInfo{Name: "MainPass", Device: dev})
	require.NoError(t, err)
	assert.Same(t, rp, again)

	modified, err := a.UnpackRenderPass(&RenderPassUnpackInfo{
		Name:   "MainPass",
		Device: dev,
		ModifyRenderPassDesc: func(desc *metadata.RenderPassDesc, _ any) {
			desc.Attachments[0].LoadOp = metadata.AttachmentLoadOpDiscard
		},
	})
	require.NoError(t, err)
	assert.NotSame(t, rp, modified)
	assert.Equal(t, metadata.AttachmentLoadOpDiscard, modified.GetDesc().Attachments[0].LoadOp)
	assert.Equal(t, metadata.AttachmentLoadOpClear, rp.GetDesc().Attachments[0].LoadOp)
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindRenderPass))
}

func TestUnpackShader(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	obj, err := a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: shaderPS})
	require.NoError(t, err)
	shader := obj.(*testbed.Shader)
	assert.Equal(t, metadata.ShaderTypePixel, shader.Desc.ShaderType)
	assert.Equal(t, "PSMain", shader.CreateInfo.EntryPoint)
	assert.Equal(t, metadata.ShaderSourceLanguageHLSL, shader.CreateInfo.SourceLanguage)
	assert.Equal(t, metadata.ShaderCompilerDXC, shader.CreateInfo.ShaderCompiler)
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07, 0x01}, shader.CreateInfo.ByteCode)
	assert.NotZero(t, shader.CreateInfo.CompileFlags&metadata.ShaderCompileFlagSkipReflection)

	again, err := a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: shaderPS})
	require.NoError(t, err)
	assert.Same(t, obj, again)
	assert.Equal(t, 1, dev.Calls(testbed.ObjectKindShader))

	_, err = a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: 7})
	assert.ErrorIs(t, err, core.ErrInvalidShaderIndex)
}

func TestUnpackGraphicsPSO(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	info := &PipelineStateUnpackInfo{Name: "Opaque", Device: dev, SRBAllocationGranularity: 8, ImmediateContextMask: 3}
	obj, err := a.UnpackGraphicsPSO(info)
	require.NoError(t, err)
	pso := obj.(*testbed.PipelineState)
	ci := pso.CreateInfo.(*metadata.GraphicsPipelineStateCreateInfo)

	assert.Equal(t, "Opaque", pso.Desc.Name)
	assert.Equal(t, metadata.PipelineTypeGraphics, pso.Desc.PipelineType)
	assert.Equal(t, uint32(8), pso.Desc.SRBAllocationGranularity)
	assert.Equal(t, uint64(3), pso.Desc.ImmediateContextMask)
	assert.NotZero(t, ci.Flags&metadata.PSOCreateFlagDontRemapShaderResources)
	assert.Zero(t, ci.Flags&metadata.PSOCreateFlagImplicitSignature0)
	assert.Equal(t, metadata.CullModeBack, ci.GraphicsPipeline.RasterizerDesc.CullMode)
	assert.Equal(t, uint16(28), ci.GraphicsPipeline.RTVFormats[0])
	require.Len(t, pso.Desc.ResourceLayout.Variables, 1)
	assert.Equal(t, "g_Albedo", pso.Desc.ResourceLayout.Variables[0].Name)

	require.NotNil(t, ci.GraphicsPipeline.RenderPass)
	assert.Equal(t, "MainPass", ci.GraphicsPipeline.RenderPass.GetDesc().Name)
	require.NotNil(t, ci.VS)
	require.NotNil(t, ci.PS)
	assert.Equal(t, metadata.ShaderTypeVertex, ci.VS.GetDesc().ShaderType)
	assert.Equal(t, metadata.ShaderTypePixel, ci.PS.GetDesc().ShaderType)
	assert.Nil(t, ci.GS)

	require.Len(t, ci.ResourceSignatures, 2)
	assert.Equal(t, "SigA", ci.ResourceSignatures[0].GetDesc().Name)
	assert.Equal(t, "SigB", ci.ResourceSignatures[1].GetDesc().Name)
	// dependencies use the default granularity
	assert.Equal(t, DefaultSRBAllocationGranularity, ci.ResourceSignatures[0].GetDesc().SRBAllocationGranularity)

	// dependencies land in their caches
	sig, err := a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "SigA", Device: dev})
	require.NoError(t, err)
	assert.Same(t, ci.ResourceSignatures[0], sig)
	rp, err := a.UnpackRenderPass(&RenderPassUnpackInfo{Name: "MainPass", Device: dev})
	require.NoError(t, err)
	assert.Same(t, ci.GraphicsPipeline.RenderPass, rp)

	again, err := a.UnpackGraphicsPSO(info)
	require.NoError(t, err)
	assert.Same(t, obj, again)

	assert.Equal(t, 1, dev.Calls(testbed.ObjectKindGraphicsPipeline))
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindResourceSignature))
	assert.Equal(t, 1, dev.Calls(testbed.ObjectKindRenderPass))
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindShader))
}

func TestClearResourceCache(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()
	info := &PipelineStateUnpackInfo{Name: "Cull", Device: dev}

	first, err := a.UnpackComputePSO(info)
	require.NoError(t, err)

	a.ClearResourceCache()
	second, err := a.UnpackComputePSO(info)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.GetDesc().Name, second.GetDesc().Name)
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindComputePipeline))
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindShader))
	assert.Equal(t, 2, dev.Calls(testbed.ObjectKindResourceSignature))
}

func TestUnpackComputeAndTilePSO(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	obj, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull", Device: dev})
	require.NoError(t, err)
	cs := obj.(*testbed.PipelineState).CreateInfo.(*metadata.ComputePipelineStateCreateInfo)
	require.NotNil(t, cs.CS)
	assert.Equal(t, metadata.ShaderTypeCompute, cs.CS.GetDesc().ShaderType)

	obj, err = a.UnpackTilePSO(&PipelineStateUnpackInfo{Name: "Resolve", Device: dev})
	require.NoError(t, err)
	ts := obj.(*testbed.PipelineState).CreateInfo.(*metadata.TilePipelineStateCreateInfo)
	require.NotNil(t, ts.TS)
	assert.Equal(t, metadata.ShaderTypeTile, ts.TS.GetDesc().ShaderType)
	assert.Equal(t, uint8(4), ts.TilePipeline.SampleCount)

	_, err = a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "WrongStage", Device: dev})
	assert.ErrorIs(t, err, core.ErrShaderMismatch)
	assert.Equal(t, 1, dev.Calls(testbed.ObjectKindComputePipeline))
}

func TestUnpackImplicitSignature(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})

	obj, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Implicit", Device: newTestDevice()})
	require.NoError(t, err)
	ci := obj.(*testbed.PipelineState).CreateInfo.(*metadata.ComputePipelineStateCreateInfo)

	assert.NotZero(t, ci.Flags&metadata.PSOCreateFlagImplicitSignature0)
	require.Len(t, ci.ResourceSignatures, 1)
	assert.Equal(t, "Implicit", ci.ResourceSignatures[0].GetDesc().Name)
}

func TestUnpackRayTracingPSO(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	obj, err := a.UnpackRayTracingPSO(&PipelineStateUnpackInfo{Name: "RT", Device: dev})
	require.NoError(t, err)
	ci := obj.(*testbed.PipelineState).CreateInfo.(*metadata.RayTracingPipelineStateCreateInfo)

	assert.Equal(t, uint16(32), ci.RayTracingPipeline.ShaderRecordSize)
	assert.Equal(t, "g_ShaderRecord", ci.ShaderRecordName)
	assert.Equal(t, uint32(16), ci.MaxPayloadSize)

	require.Len(t, ci.GeneralShaders, 2)
	assert.Equal(t, "Main", ci.GeneralShaders[0].Name)
	assert.Equal(t, metadata.ShaderTypeRayGen, ci.GeneralShaders[0].Shader.GetDesc().ShaderType)
	assert.Equal(t, metadata.ShaderTypeRayMiss, ci.GeneralShaders[1].Shader.GetDesc().ShaderType)

	require.Len(t, ci.TriangleHitShaders, 1)
	assert.Equal(t, metadata.ShaderTypeRayClosestHit, ci.TriangleHitShaders[0].ClosestHitShader.GetDesc().ShaderType)
	assert.Nil(t, ci.TriangleHitShaders[0].AnyHitShader)
	assert.Empty(t, ci.ProceduralHitShaders)

	_, err = a.UnpackRayTracingPSO(&PipelineStateUnpackInfo{Name: "RTBadIndex", Device: dev})
	assert.ErrorIs(t, err, core.ErrInvalidShaderIndex)
}

func TestUnpackRejectedPipelines(t *testing.T) {
	type unpackFunc func(a *Archive, info *PipelineStateUnpackInfo) (metadata.PipelineState, error)
	var (
		graphics = (*Archive).UnpackGraphicsPSO
		compute  = (*Archive).UnpackComputePSO
		tile     = (*Archive).UnpackTilePSO
	)

	tests := []struct {
		name   string
		unpack unpackFunc
		kind   testbed.ObjectKind
		want   error
		// headerOnly is set when the record is rejected before any dependency is created.
		headerOnly bool
	}{
		{"Mislabeled", graphics, testbed.ObjectKindGraphicsPipeline, core.ErrInvalidHeader, true},
		{"NotCompute", compute, testbed.ObjectKindComputePipeline, core.ErrInvalidHeader, true},
		{"TooManySigs", compute, testbed.ObjectKindComputePipeline, core.ErrTooManySignatures, true},
		{"SharedSlot", compute, testbed.ObjectKindComputePipeline, core.ErrInvalidHeader, false},
		{"GfxCompute", graphics, testbed.ObjectKindGraphicsPipeline, core.ErrShaderMismatch, false},
		{"NoShader", compute, testbed.ObjectKindComputePipeline, core.ErrShaderMismatch, false},
		{"TwoShaders", compute, testbed.ObjectKindComputePipeline, core.ErrShaderMismatch, false},
		{"TileNoShader", tile, testbed.ObjectKindTilePipeline, core.ErrShaderMismatch, false},
		{"TileTwoShaders", tile, testbed.ObjectKindTilePipeline, core.ErrShaderMismatch, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
			dev := newTestDevice()

			pso, err := tt.unpack(a, &PipelineStateUnpackInfo{Name: tt.name, Device: dev})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, pso)
			assert.Equal(t, 0, dev.Calls(tt.kind))
			if tt.headerOnly {
				assert.Equal(t, 0, dev.Calls(testbed.ObjectKindResourceSignature))
				assert.Equal(t, 0, dev.Calls(testbed.ObjectKindShader))
			}
		})
	}
}

func TestSharedBindingIndexNamesBothSignatures(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})

	_, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "SharedSlot", Device: newTestDevice()})
	require.ErrorIs(t, err, core.ErrInvalidHeader)
	assert.Contains(t, err.Error(), "'SigA' and 'SigC' share binding index 0")
}

func TestUnpackWithoutDeviceData(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})

	_, err := a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "GLOnly", Device: newTestDevice()})
	assert.ErrorIs(t, err, core.ErrNoDeviceData)
}

func TestUnpackTruncatedDeviceBlock(t *testing.T) {
	b := newArchiveBuilder()
	b.addSignature(vulkanSignature("SigA", 0, constantsResource, albedoResource))
	data := b.build()

	// the signature payload is the last thing in the file
	a := openTestArchive(t, data[:len(data)-1], Options{})
	_, err := a.UnpackResourceSignature(&ResourceSignatureUnpackInfo{Name: "SigA", Device: newTestDevice()})
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
}

func TestModifyPipelineStateCreateInfo(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	allowed := &PipelineStateUnpackInfo{
		Name:                     "Opaque",
		Device:                   dev,
		SRBAllocationGranularity: 2,
		ModifyPipelineStateCreateInfo: func(ci metadata.PipelineCreateInfo, _ any) {
			gfx := ci.(*metadata.GraphicsPipelineStateCreateInfo)
			gfx.GraphicsPipeline.RasterizerDesc.CullMode = metadata.CullModeNone
			gfx.PSODesc.SRBAllocationGranularity = 100
		},
	}
	first, err := a.UnpackGraphicsPSO(allowed)
	require.NoError(t, err)
	ci := first.(*testbed.PipelineState).CreateInfo.(*metadata.GraphicsPipelineStateCreateInfo)
	assert.Equal(t, metadata.CullModeNone, ci.GraphicsPipeline.RasterizerDesc.CullMode)
	// tuning fields always come from the unpack info
	assert.Equal(t, uint32(2), first.GetDesc().SRBAllocationGranularity)

	// modified pipelines are never cached
	second, err := a.UnpackGraphicsPSO(allowed)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	plain, err := a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "Opaque", Device: dev})
	require.NoError(t, err)
	assert.Equal(t, metadata.CullModeBack, plain.(*testbed.PipelineState).CreateInfo.(*metadata.GraphicsPipelineStateCreateInfo).GraphicsPipeline.RasterizerDesc.CullMode)

	forbidden := map[string]ModifyPipelineStateFunc{
		"pipeline type": func(ci metadata.PipelineCreateInfo, _ any) {
			ci.Base().PSODesc.PipelineType = metadata.PipelineTypeMesh
		},
		"resource layout": func(ci metadata.PipelineCreateInfo, _ any) {
			ci.Base().PSODesc.ResourceLayout.Variables[0].Type = metadata.ShaderResourceVariableTypeStatic
		},
		"signature swap": func(ci metadata.PipelineCreateInfo, _ any) {
			sigs := ci.Base().ResourceSignatures
			sigs[0], sigs[1] = sigs[1], sigs[0]
		},
		"signature replaced": func(ci metadata.PipelineCreateInfo, _ any) {
			ci.Base().ResourceSignatures[0] = vulkanSignature("SigA", 0, constantsResource)
		},
		"signature dropped": func(ci metadata.PipelineCreateInfo, _ any) {
			ci.Base().ResourceSignatures = ci.Base().ResourceSignatures[:1]
		},
	}
	for name, hook := range forbidden {
		t.Run(name, func(t *testing.T) {
			before := dev.Calls(testbed.ObjectKindGraphicsPipeline)
			_, err := a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "Opaque", Device: dev, ModifyPipelineStateCreateInfo: hook})
			assert.ErrorIs(t, err, core.ErrModificationNotAllowed)
			assert.Equal(t, before, dev.Calls(testbed.ObjectKindGraphicsPipeline))
		})
	}
}

func TestDeviceFailureIsNotCached(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()
	errBroken := errors.New("driver lost")
	dev.FailCreation("Cull", errBroken)

	_, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull", Device: dev})
	assert.ErrorIs(t, err, core.ErrDeviceCreation)
	assert.ErrorIs(t, err, errBroken)

	// a working device succeeds afterwards
	obj, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull", Device: newTestDevice()})
	require.NoError(t, err)
	assert.NotNil(t, obj)
}

func TestShaderFailureFailsPipeline(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()
	dev.FailCreation("PSMain", errors.New("invalid byte code"))

	_, err := a.UnpackGraphicsPSO(&PipelineStateUnpackInfo{Name: "Opaque", Device: dev})
	assert.ErrorIs(t, err, core.ErrDeviceCreation)
	assert.Equal(t, 0, dev.Calls(testbed.ObjectKindGraphicsPipeline))
}

func TestConcurrentUnpack(t *testing.T) {
	for _, dedup := range []bool{false, true} {
		a := openTestArchive(t, newTestArchiveBuilder().build(), Options{DeduplicateUnpack: dedup})
		dev := newTestDevice()

		const workers = 16
		results := make([]metadata.PipelineState, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				pso, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull", Device: dev})
				assert.NoError(t, err)
				results[i] = pso
			}(i)
		}
		wg.Wait()

		cached, err := a.UnpackComputePSO(&PipelineStateUnpackInfo{Name: "Cull", Device: dev})
		require.NoError(t, err)
		for _, pso := range results {
			require.NotNil(t, pso)
			assert.Equal(t, "Cull", pso.GetDesc().Name)
			if dedup {
				assert.Same(t, cached, pso)
			}
		}
		if dedup {
			assert.Equal(t, 1, dev.Calls(testbed.ObjectKindComputePipeline))
		}
	}
}

func TestConcurrentShaderLoad(t *testing.T) {
	a := openTestArchive(t, newTestArchiveBuilder().build(), Options{})
	dev := newTestDevice()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			index := uint32(i) % uint32(a.ShaderCount())
			shader, err := a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: index})
			assert.NoError(t, err)
			assert.NotNil(t, shader)
		}(i)
	}
	wg.Wait()

	for i := 0; i < a.ShaderCount(); i++ {
		first, err := a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: uint32(i)})
		require.NoError(t, err)
		second, err := a.UnpackShader(&ShaderUnpackInfo{Device: dev, Index: uint32(i)})
		require.NoError(t, err)
		assert.Same(t, first, second)
	}
}
