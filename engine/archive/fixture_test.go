package archive

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/testbed"
)

const testDevice = metadata.DeviceTypeVulkan

var (
	constantsResource = metadata.PipelineResourceDesc{
		Name:         "g_Constants",
		ShaderStages: metadata.ShaderTypeAll,
		ArraySize:    1,
		ResourceType: metadata.ShaderResourceTypeConstantBuffer,
	}
	albedoResource = metadata.PipelineResourceDesc{
		Name:         "g_Albedo",
		ShaderStages: metadata.ShaderTypePixel,
		ArraySize:    1,
		ResourceType: metadata.ShaderResourceTypeTextureSRV,
		VarType:      metadata.ShaderResourceVariableTypeMutable,
	}
)

func vulkanSignature(name string, bindingIndex uint8, resources ...metadata.PipelineResourceDesc) *bindings.Signature {
	attribs := &bindings.VulkanSignatureAttribs{
		DescriptorSetSizes: [bindings.VulkanDescriptorSetCount]uint32{uint32(len(resources)), bindings.InvalidDescriptorSetSize},
	}
	for i := range resources {
		attribs.Resources = append(attribs.Resources, bindings.VulkanResourceAttribs{BindingIndex: uint32(i)})
	}
	return &bindings.Signature{
		Desc: metadata.PipelineResourceSignatureDesc{
			Name:                  name,
			Resources:             resources,
			BindingIndex:          bindingIndex,
			CombinedSamplerSuffix: "_sampler",
		},
		Vulkan: attribs,
	}
}

func pipelineBase(name string, pt metadata.PipelineType) metadata.PipelineStateCreateInfo {
	return metadata.PipelineStateCreateInfo{
		PSODesc: metadata.PipelineStateDesc{
			Name:         name,
			PipelineType: pt,
			ResourceLayout: metadata.PipelineResourceLayoutDesc{
				DefaultVariableType: metadata.ShaderResourceVariableTypeMutable,
				Variables: []metadata.ShaderResourceVariableDesc{
					{ShaderStages: metadata.ShaderTypePixel, Name: "g_Albedo", Type: metadata.ShaderResourceVariableTypeDynamic},
				},
			},
		},
	}
}

// shader ordinals of the test archive
const (
	shaderVS uint32 = iota
	shaderPS
	shaderCS
	shaderTS
	shaderRayGen
	shaderClosestHit
	shaderMiss
)

// newTestArchiveBuilder describes one resource of every kind for the Vulkan
// block, plus a few broken records that individual tests unpack on purpose.
func newTestArchiveBuilder() *archiveBuilder {
	b := newArchiveBuilder()
	b.debugInfo = &DebugInfo{APIVersion: core.EngineAPIVersion, GitHash: "5f3c2a1"}

	b.addSignature(vulkanSignature("SigA", 0, constantsResource))
	b.addSignature(vulkanSignature("SigB", 1, albedoResource))
	// implicit signature of the "Implicit" pipeline
	b.addSignature(vulkanSignature("Implicit", 0, constantsResource))

	b.addRenderPass(metadata.RenderPassDesc{
		Name: "MainPass",
		Attachments: []metadata.RenderPassAttachmentDesc{
			{Format: 28, SampleCount: 1, LoadOp: metadata.AttachmentLoadOpClear, FinalState: metadata.ResourceStateRenderTarget},
			{Format: 45, SampleCount: 1, LoadOp: metadata.AttachmentLoadOpClear, FinalState: metadata.ResourceStateDepthWrite},
		},
		Subpasses: []metadata.SubpassDesc{{
			RenderTargetAttachments: []metadata.AttachmentReference{{AttachmentIndex: 0, State: metadata.ResourceStateRenderTarget}},
			DepthStencilAttachment:  &metadata.AttachmentReference{AttachmentIndex: 1, State: metadata.ResourceStateDepthWrite},
		}},
	})

	b.addShader(testDevice, metadata.ShaderTypeVertex, "VSMain", []byte{0x03, 0x02, 0x23, 0x07})
	b.addShader(testDevice, metadata.ShaderTypePixel, "PSMain", []byte{0x03, 0x02, 0x23, 0x07, 0x01})
	b.addShader(testDevice, metadata.ShaderTypeCompute, "CSMain", []byte{0x03, 0x02, 0x23, 0x07, 0x02})
	b.addShader(testDevice, metadata.ShaderTypeTile, "TSMain", []byte{0x03, 0x02, 0x23, 0x07, 0x03})
	b.addShader(testDevice, metadata.ShaderTypeRayGen, "RayGen", []byte{0x10})
	b.addShader(testDevice, metadata.ShaderTypeRayClosestHit, "ClosestHit", []byte{0x11})
	b.addShader(testDevice, metadata.ShaderTypeRayMiss, "Miss", []byte{0x12})

	gfx := &metadata.GraphicsPipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("Opaque", metadata.PipelineTypeGraphics)}
	gfx.GraphicsPipeline.NumRenderTargets = 1
	gfx.GraphicsPipeline.RTVFormats[0] = 28
	gfx.GraphicsPipeline.DSVFormat = 45
	gfx.GraphicsPipeline.PrimitiveTopology = metadata.PrimitiveTopologyTriangleList
	gfx.GraphicsPipeline.RasterizerDesc.CullMode = metadata.CullModeBack
	b.addGraphicsPipeline(gfx, []string{"SigA", "SigB"}, "MainPass").setShaderIndices(testDevice, shaderVS, shaderPS)

	// only the OpenGL block carries a shader list
	noVulkan := &metadata.GraphicsPipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("GLOnly", metadata.PipelineTypeGraphics)}
	b.addGraphicsPipeline(noVulkan, []string{"SigA"}, "").setShaderIndices(metadata.DeviceTypeOpenGL, 0)

	cull := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("Cull", metadata.PipelineTypeCompute)}
	b.addComputePipeline(cull, []string{"SigA"}).setShaderIndices(testDevice, shaderCS)

	wrongStage := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("WrongStage", metadata.PipelineTypeCompute)}
	b.addComputePipeline(wrongStage, []string{"SigA"}).setShaderIndices(testDevice, shaderVS)

	implicit := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("Implicit", metadata.PipelineTypeCompute)}
	b.addComputePipeline(implicit, nil).setShaderIndices(testDevice, shaderCS)

	tile := &metadata.TilePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("Resolve", metadata.PipelineTypeTile)}
	tile.TilePipeline.NumRenderTargets = 1
	tile.TilePipeline.SampleCount = 4
	b.addTilePipeline(tile, []string{"SigA"}).setShaderIndices(testDevice, shaderTS)

	rt := &metadata.RayTracingPipelineStateCreateInfo{
		PipelineStateCreateInfo: pipelineBase("RT", metadata.PipelineTypeRayTracing),
		RayTracingPipeline:      metadata.RayTracingPipelineDesc{ShaderRecordSize: 32, MaxRecursionDepth: 2},
		GeneralShaders:          []metadata.RayTracingGeneralShaderGroup{{Name: "Main"}, {Name: "Miss"}},
		TriangleHitShaders:      []metadata.RayTracingTriangleHitShaderGroup{{Name: "Hit"}},
		ShaderRecordName:        "g_ShaderRecord",
		MaxAttributeSize:        8,
		MaxPayloadSize:          16,
	}
	// the pipeline's shader list is [raygen, closest hit, miss]
	b.addRayTracingPipeline(rt, []string{"SigA"}, rayTracingShaderIndices{
		General:     []uint32{0, 2},
		TriangleHit: [][2]uint32{{1, InvalidShaderIndex}},
	}).setShaderIndices(testDevice, shaderRayGen, shaderClosestHit, shaderMiss)

	badRT := &metadata.RayTracingPipelineStateCreateInfo{
		PipelineStateCreateInfo: pipelineBase("RTBadIndex", metadata.PipelineTypeRayTracing),
		GeneralShaders:          []metadata.RayTracingGeneralShaderGroup{{Name: "Main"}},
		TriangleHitShaders:      []metadata.RayTracingTriangleHitShaderGroup{{Name: "Hit"}},
	}
	b.addRayTracingPipeline(badRT, []string{"SigA"}, rayTracingShaderIndices{
		General:     []uint32{0},
		TriangleHit: [][2]uint32{{1, 7}},
	}).setShaderIndices(testDevice, shaderRayGen, shaderClosestHit)

	addBrokenPipelines(b)
	return b
}

// addBrokenPipelines adds pipelines whose records are well formed but which
// must not reach the device.
func addBrokenPipelines(b *archiveBuilder) {
	// SigC takes the binding index of SigA
	b.addSignature(vulkanSignature("SigC", 0, albedoResource))
	shared := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("SharedSlot", metadata.PipelineTypeCompute)}
	b.addComputePipeline(shared, []string{"SigA", "SigC"}).setShaderIndices(testDevice, shaderCS)

	// a graphics record stored under the compute header type
	mislabeled := &metadata.GraphicsPipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("Mislabeled", metadata.PipelineTypeGraphics)}
	b.addGraphicsPipeline(mislabeled, []string{"SigA"}, "").setShaderIndices(testDevice, shaderVS, shaderPS).header = ChunkTypeComputePipelineStates

	notCompute := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("NotCompute", metadata.PipelineTypeGraphics)}
	b.addComputePipeline(notCompute, []string{"SigA"}).setShaderIndices(testDevice, shaderCS)

	tooMany := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("TooManySigs", metadata.PipelineTypeCompute)}
	names := make([]string, metadata.MaxResourceSignatures+1)
	for i := range names {
		names[i] = "SigA"
	}
	b.addComputePipeline(tooMany, names).setShaderIndices(testDevice, shaderCS)

	gfxCompute := &metadata.GraphicsPipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("GfxCompute", metadata.PipelineTypeGraphics)}
	b.addGraphicsPipeline(gfxCompute, []string{"SigA"}, "").setShaderIndices(testDevice, shaderVS, shaderCS)

	noShader := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("NoShader", metadata.PipelineTypeCompute)}
	b.addComputePipeline(noShader, []string{"SigA"}).setShaderIndices(testDevice)

	twoShaders := &metadata.ComputePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("TwoShaders", metadata.PipelineTypeCompute)}
	b.addComputePipeline(twoShaders, []string{"SigA"}).setShaderIndices(testDevice, shaderCS, shaderCS)

	tileNoShader := &metadata.TilePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("TileNoShader", metadata.PipelineTypeTile)}
	b.addTilePipeline(tileNoShader, []string{"SigA"}).setShaderIndices(testDevice)

	tileTwoShaders := &metadata.TilePipelineStateCreateInfo{PipelineStateCreateInfo: pipelineBase("TileTwoShaders", metadata.PipelineTypeTile)}
	b.addTilePipeline(tileTwoShaders, []string{"SigA"}).setShaderIndices(testDevice, shaderTS, shaderTS)
}

func openTestArchive(t *testing.T, data []byte, opts Options) *Archive {
	t.Helper()
	a, err := OpenWithOptions(bytes.NewReader(data), testDevice, opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func newTestDevice() *testbed.Device {
	return testbed.NewDevice(testDevice)
}

// chunkEntry returns the position of a chunk's table entry in an encoded archive.
func chunkEntry(t *testing.T, data []byte, ct ChunkType) int {
	t.Helper()
	numChunks := int(binary.LittleEndian.Uint32(data[8:]))
	for i := 0; i < numChunks; i++ {
		pos := headerSize + i*chunkHeaderSize
		if ChunkType(binary.LittleEndian.Uint32(data[pos:])) == ct {
			return pos
		}
	}
	t.Fatalf("archive has no %s chunk", ct)
	return -1
}
