package bindings

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

// d3d12Model gives every signature a block of NumSpaces register spaces that
// starts after the blocks of all signatures with a lower binding index.
type d3d12Model struct{}

func (d3d12Model) resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	var baseSpace uint32
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		attribs := sig.D3D12
		for i := range sig.Desc.Resources {
			res := &sig.Desc.Resources[i]
			// the filter selects resources; records carry every declared stage
			if res.ShaderStages&info.ShaderStages == metadata.ShaderTypeUnknown {
				continue
			}
			out = append(out, PipelineResourceBinding{
				Name:         res.Name,
				ResourceType: res.ResourceType,
				Register:     attribs.Resources[i].Register,
				Space:        uint16(baseSpace + uint32(attribs.Resources[i].Space)),
				ArraySize:    arraySize(res),
				ShaderStages: res.ShaderStages,
			})
		}
		baseSpace += attribs.NumSpaces
	}
	return out
}
