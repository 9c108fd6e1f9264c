package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

type rayTracingPipelineData = pipelineData[*metadata.RayTracingPipelineStateCreateInfo]

var rayTracingPipelineKind = &pipelineKind[*metadata.RayTracingPipelineStateCreateInfo]{
	chunk:         ChunkTypeRayTracingPipelineStates,
	resTypeName:   "Ray tracing pipeline",
	pipelineTypes: []metadata.PipelineType{metadata.PipelineTypeRayTracing},
	newCreateInfo: func() *metadata.RayTracingPipelineStateCreateInfo {
		return &metadata.RayTracingPipelineStateCreateInfo{}
	},
	index: func(a *Archive) *NamedResourceIndex { return a.rayTracingPSOs },
	cache: func(a *Archive) *ResourceCache[metadata.PipelineState] { return a.rayTracingCache },
	serialize: func(s *serialization.Serializer, pd *rayTracingPipelineData) {
		serializeRayTracingPipeline(s, pd.createInfo, &pd.rayTracingShaders)
	},
	assignShaders: assignRayTracingShaders,
	create: func(device renderer.RenderDevice, ci *metadata.RayTracingPipelineStateCreateInfo) (metadata.PipelineState, error) {
		return device.CreateRayTracingPipelineState(ci)
	},
}

// UnpackRayTracingPSO creates the named ray tracing pipeline on info.Device.
func (a *Archive) UnpackRayTracingPSO(info *PipelineStateUnpackInfo) (metadata.PipelineState, error) {
	return unpackPipeline(a, info, rayTracingPipelineKind)
}

// assignRayTracingShaders replaces the shader indices stored in the record
// with the loaded shaders. InvalidShaderIndex leaves the slot empty.
func assignRayTracingShaders(pd *rayTracingPipelineData, shaders []metadata.Shader) error {
	ci := pd.createInfo
	idx := &pd.rayTracingShaders
	if !idx.matches(ci) {
		return fmt.Errorf("shader group tables do not match: %w", core.ErrInvalidHeader)
	}

	remap := func(slot *metadata.Shader, index uint32) error {
		switch {
		case index == InvalidShaderIndex:
			*slot = nil
		case int(index) < len(shaders):
			*slot = shaders[index]
		default:
			return fmt.Errorf("shader index %d, the pipeline has %d shaders: %w", index, len(shaders), core.ErrInvalidShaderIndex)
		}
		return nil
	}

	for i := range ci.GeneralShaders {
		if err := remap(&ci.GeneralShaders[i].Shader, idx.General[i]); err != nil {
			return err
		}
	}
	for i := range ci.TriangleHitShaders {
		g := &ci.TriangleHitShaders[i]
		if err := remap(&g.ClosestHitShader, idx.TriangleHit[i][0]); err != nil {
			return err
		}
		if err := remap(&g.AnyHitShader, idx.TriangleHit[i][1]); err != nil {
			return err
		}
	}
	for i := range ci.ProceduralHitShaders {
		g := &ci.ProceduralHitShaders[i]
		if err := remap(&g.IntersectionShader, idx.ProceduralHit[i][0]); err != nil {
			return err
		}
		if err := remap(&g.ClosestHitShader, idx.ProceduralHit[i][1]); err != nil {
			return err
		}
		if err := remap(&g.AnyHitShader, idx.ProceduralHit[i][2]); err != nil {
			return err
		}
	}
	return nil
}
