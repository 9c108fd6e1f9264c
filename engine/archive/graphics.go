package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

type graphicsPipelineData = pipelineData[*metadata.GraphicsPipelineStateCreateInfo]

var graphicsPipelineKind = &pipelineKind[*metadata.GraphicsPipelineStateCreateInfo]{
	chunk:         ChunkTypeGraphicsPipelineStates,
	resTypeName:   "Graphics pipeline",
	pipelineTypes: []metadata.PipelineType{metadata.PipelineTypeGraphics, metadata.PipelineTypeMesh},
	newCreateInfo: func() *metadata.GraphicsPipelineStateCreateInfo {
		return &metadata.GraphicsPipelineStateCreateInfo{}
	},
	index: func(a *Archive) *NamedResourceIndex { return a.graphicsPSOs },
	cache: func(a *Archive) *ResourceCache[metadata.PipelineState] { return a.graphicsCache },
	serialize: func(s *serialization.Serializer, pd *graphicsPipelineData) {
		serializeGraphicsPipelineDesc(s, &pd.createInfo.GraphicsPipeline)
		serialization.String(s, &pd.renderPassName)
	},
	resolve:       resolveRenderPass,
	assignShaders: assignGraphicsShaders,
	create: func(device renderer.RenderDevice, ci *metadata.GraphicsPipelineStateCreateInfo) (metadata.PipelineState, error) {
		return device.CreateGraphicsPipelineState(ci)
	},
}

// UnpackGraphicsPSO creates the named graphics or mesh pipeline on info.Device.
func (a *Archive) UnpackGraphicsPSO(info *PipelineStateUnpackInfo) (metadata.PipelineState, error) {
	return unpackPipeline(a, info, graphicsPipelineKind)
}

func resolveRenderPass(a *Archive, info *PipelineStateUnpackInfo, pd *graphicsPipelineData) error {
	if pd.renderPassName == "" {
		return nil
	}
	rp, err := a.unpackRenderPass(&RenderPassUnpackInfo{Name: pd.renderPassName, Device: info.Device})
	if err != nil {
		return fmt.Errorf("graphics pipeline '%s': failed to unpack render pass '%s': %w", pd.createInfo.PSODesc.Name, pd.renderPassName, err)
	}
	pd.createInfo.GraphicsPipeline.RenderPass = rp
	pd.objects = append(pd.objects, rp)
	return nil
}

func assignGraphicsShaders(pd *graphicsPipelineData, shaders []metadata.Shader) error {
	ci := pd.createInfo
	for _, shader := range shaders {
		switch st := shader.GetDesc().ShaderType; st {
		case metadata.ShaderTypeVertex:
			ci.VS = shader
		case metadata.ShaderTypePixel:
			ci.PS = shader
		case metadata.ShaderTypeGeometry:
			ci.GS = shader
		case metadata.ShaderTypeHull:
			ci.HS = shader
		case metadata.ShaderTypeDomain:
			ci.DS = shader
		case metadata.ShaderTypeAmplification:
			ci.AS = shader
		case metadata.ShaderTypeMesh:
			ci.MS = shader
		default:
			return fmt.Errorf("unsupported shader type %s for graphics pipeline: %w", st, core.ErrShaderMismatch)
		}
	}
	return nil
}
