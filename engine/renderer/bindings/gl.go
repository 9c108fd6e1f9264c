package bindings

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

const glSupportedStages = metadata.ShaderTypeAllGraphics | metadata.ShaderTypeCompute

// glModel maps resources onto four flat binding ranges. Separate samplers have
// no binding in GL, and neither do acceleration structures.
type glModel struct{}

func (glModel) resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	var base [GLBindingRangeCount]uint32
	stages := info.ShaderStages & glSupportedStages
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		attribs := sig.GL
		for i := range sig.Desc.Resources {
			res := &sig.Desc.Resources[i]
			rng := GLBindingRangeFromDesc(res)
			if rng == GLBindingRangeCount {
				continue
			}
			register := base[rng] + attribs.Resources[i].CacheOffset
			for active := res.ShaderStages & stages; active != metadata.ShaderTypeUnknown; {
				stage := metadata.ExtractLSB(&active)
				out = append(out, PipelineResourceBinding{
					Name:         res.Name,
					ResourceType: res.ResourceType,
					Register:     register,
					ArraySize:    arraySize(res),
					ShaderStages: stage,
				})
			}
		}
		attribs.ShiftBindings(&base)
	}
	return out
}
