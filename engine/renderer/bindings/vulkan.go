package bindings

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

// vulkanModel reports the descriptor set of a resource in Space. Each signature
// contributes between zero and two sets, in binding index order.
type vulkanModel struct {
	descSetCount uint32
}

func (m *vulkanModel) resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	m.descSetCount = 0
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		attribs := sig.Vulkan
		for i := range sig.Desc.Resources {
			res := &sig.Desc.Resources[i]
			// the filter selects resources; records carry every declared stage
			if res.ShaderStages&info.ShaderStages == metadata.ShaderTypeUnknown {
				continue
			}
			out = append(out, PipelineResourceBinding{
				Name:         res.Name,
				ResourceType: res.ResourceType,
				Register:     attribs.Resources[i].BindingIndex,
				Space:        uint16(m.descSetCount + uint32(attribs.Resources[i].DescrSet)),
				ArraySize:    arraySize(res),
				ShaderStages: res.ShaderStages,
			})
		}
		m.descSetCount += attribs.NumDescriptorSets()
	}
	return out
}
