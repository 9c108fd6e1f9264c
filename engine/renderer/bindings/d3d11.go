package bindings

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

const d3d11SupportedStages = metadata.ShaderTypeAllGraphics | metadata.ShaderTypeCompute

// d3d11Model emits one binding per active stage. Every range has its own
// register counter per stage, and signatures are stacked on top of each other.
type d3d11Model struct{}

func (d3d11Model) resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	var base D3D11ResourceCounters
	// Render targets occupy the first UAV slots of the pixel shader.
	base[D3D11ResourceRangeUAV][metadata.ShaderTypePixel.Index()] = info.NumRenderTargets

	stages := info.ShaderStages & d3d11SupportedStages
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		attribs := sig.D3D11

		for i := range sig.Desc.Resources {
			res := &sig.Desc.Resources[i]
			rng := D3D11ResourceRangeFromType(res.ResourceType)
			if rng == D3D11ResourceRangeCount {
				continue
			}
			out = appendD3D11Bindings(out, res.Name, res.ResourceType, arraySize(res),
				res.ShaderStages&stages, attribs.Resources[i].BindPoints, base[rng])
		}

		for i := range sig.Desc.ImmutableSamplers {
			smp := &sig.Desc.ImmutableSamplers[i]
			smpAttribs := attribs.ImmutableSamplers[i]
			out = appendD3D11Bindings(out, smp.SamplerOrTextureName, metadata.ShaderResourceTypeSampler, smpAttribs.ArraySize,
				smp.ShaderStages&stages, smpAttribs.BindPoints, base[D3D11ResourceRangeSampler])
		}

		attribs.ShiftBindings(&base)
	}
	return out
}

func appendD3D11Bindings(out []PipelineResourceBinding, name string, rt metadata.ShaderResourceType, size uint32,
	stages metadata.ShaderType, bindPoints D3D11BindPoints, base [NumD3D11ShaderStages]uint32) []PipelineResourceBinding {
	for stages != metadata.ShaderTypeUnknown {
		stage := metadata.ExtractLSB(&stages)
		idx := stage.Index()
		if !bindPoints.IsStageActive(idx) {
			continue
		}
		out = append(out, PipelineResourceBinding{
			Name:         name,
			ResourceType: rt,
			Register:     base[idx] + uint32(bindPoints[idx]),
			Space:        0,
			ArraySize:    size,
			ShaderStages: stage,
		})
	}
	return out
}
