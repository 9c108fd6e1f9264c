package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

var computePipelineKind = &pipelineKind[*metadata.ComputePipelineStateCreateInfo]{
	chunk:         ChunkTypeComputePipelineStates,
	resTypeName:   "Compute pipeline",
	pipelineTypes: []metadata.PipelineType{metadata.PipelineTypeCompute},
	newCreateInfo: func() *metadata.ComputePipelineStateCreateInfo {
		return &metadata.ComputePipelineStateCreateInfo{}
	},
	index:     func(a *Archive) *NamedResourceIndex { return a.computePSOs },
	cache:     func(a *Archive) *ResourceCache[metadata.PipelineState] { return a.computeCache },
	serialize: func(*serialization.Serializer, *pipelineData[*metadata.ComputePipelineStateCreateInfo]) {},
	assignShaders: func(pd *pipelineData[*metadata.ComputePipelineStateCreateInfo], shaders []metadata.Shader) error {
		shader, err := singleShader(shaders, metadata.ShaderTypeCompute)
		pd.createInfo.CS = shader
		return err
	},
	create: func(device renderer.RenderDevice, ci *metadata.ComputePipelineStateCreateInfo) (metadata.PipelineState, error) {
		return device.CreateComputePipelineState(ci)
	},
}

var tilePipelineKind = &pipelineKind[*metadata.TilePipelineStateCreateInfo]{
	chunk:         ChunkTypeTilePipelineStates,
	resTypeName:   "Tile pipeline",
	pipelineTypes: []metadata.PipelineType{metadata.PipelineTypeTile},
	newCreateInfo: func() *metadata.TilePipelineStateCreateInfo {
		return &metadata.TilePipelineStateCreateInfo{}
	},
	index: func(a *Archive) *NamedResourceIndex { return a.tilePSOs },
	cache: func(a *Archive) *ResourceCache[metadata.PipelineState] { return a.tileCache },
	serialize: func(s *serialization.Serializer, pd *pipelineData[*metadata.TilePipelineStateCreateInfo]) {
		serializeTilePipelineDesc(s, &pd.createInfo.TilePipeline)
	},
	assignShaders: func(pd *pipelineData[*metadata.TilePipelineStateCreateInfo], shaders []metadata.Shader) error {
		shader, err := singleShader(shaders, metadata.ShaderTypeTile)
		pd.createInfo.TS = shader
		return err
	},
	create: func(device renderer.RenderDevice, ci *metadata.TilePipelineStateCreateInfo) (metadata.PipelineState, error) {
		return device.CreateTilePipelineState(ci)
	},
}

// UnpackComputePSO creates the named compute pipeline on info.Device.
func (a *Archive) UnpackComputePSO(info *PipelineStateUnpackInfo) (metadata.PipelineState, error) {
	return unpackPipeline(a, info, computePipelineKind)
}

// UnpackTilePSO creates the named tile pipeline on info.Device.
func (a *Archive) UnpackTilePSO(info *PipelineStateUnpackInfo) (metadata.PipelineState, error) {
	return unpackPipeline(a, info, tilePipelineKind)
}

// singleShader requires exactly one shader of the given type.
func singleShader(shaders []metadata.Shader, want metadata.ShaderType) (metadata.Shader, error) {
	if len(shaders) != 1 {
		return nil, fmt.Errorf("expected one %s shader, found %d shaders: %w", want, len(shaders), core.ErrShaderMismatch)
	}
	if st := shaders[0].GetDesc().ShaderType; st != want {
		return nil, fmt.Errorf("expected a %s shader, found %s: %w", want, st, core.ErrShaderMismatch)
	}
	return shaders[0], nil
}
