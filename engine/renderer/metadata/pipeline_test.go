package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceLayoutEqualAndClone(t *testing.T) {
	layout := PipelineResourceLayoutDesc{
		DefaultVariableType: ShaderResourceVariableTypeMutable,
		Variables: []ShaderResourceVariableDesc{
			{ShaderStages: ShaderTypePixel, Name: "g_Texture", Type: ShaderResourceVariableTypeDynamic},
		},
		ImmutableSamplers: []ImmutableSamplerDesc{
			{ShaderStages: ShaderTypePixel, SamplerOrTextureName: "g_Texture", Desc: SamplerDesc{MinFilter: FilterTypeLinear}},
		},
	}

	clone := layout.Clone()
	assert.True(t, layout.Equal(&clone))

	clone.Variables[0].Type = ShaderResourceVariableTypeStatic
	assert.False(t, layout.Equal(&clone))
	assert.Equal(t, ShaderResourceVariableTypeDynamic, layout.Variables[0].Type)

	clone = layout.Clone()
	clone.ImmutableSamplers = nil
	assert.False(t, layout.Equal(&clone))
}

func TestCreateInfoBase(t *testing.T) {
	var ci PipelineCreateInfo = &ComputePipelineStateCreateInfo{}
	ci.Base().PSODesc.Name = "compute"
	assert.Equal(t, "compute", ci.(*ComputePipelineStateCreateInfo).PSODesc.Name)
}
