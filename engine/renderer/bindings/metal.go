package bindings

import (
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type metalModel struct{}

func (metalModel) resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	maxBuffers := info.MaxBufferFunctionArguments
	if maxBuffers == 0 {
		maxBuffers = DefaultMaxBufferFunctionArguments
	}

	var base [MetalResourceRangeCount]uint32
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		attribs := sig.Metal
		for i := range sig.Desc.Resources {
			res := &sig.Desc.Resources[i]
			rng := MetalResourceRangeFromDesc(res)
			if rng == MetalResourceRangeCount {
				continue
			}
			stages := res.ShaderStages & info.ShaderStages
			if stages == metadata.ShaderTypeUnknown {
				continue
			}
			register := base[rng] + attribs.Resources[i].BindIndex
			if rng == MetalResourceRangeBuffer && register >= maxBuffers {
				core.LogError("buffer '%s' in signature '%s' is bound to slot %d, but only %d buffer arguments are available",
					res.Name, sig.Desc.Name, register, maxBuffers)
				continue
			}
			out = append(out, PipelineResourceBinding{
				Name:         res.Name,
				ResourceType: res.ResourceType,
				Register:     register,
				ArraySize:    arraySize(res),
				ShaderStages: stages,
			})
		}
		for r := range base {
			base[r] += attribs.ResourceCounts[r]
		}
	}
	return out
}
