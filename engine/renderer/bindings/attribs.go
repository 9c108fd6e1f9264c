package bindings

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

// InvalidBindPoint marks a shader stage in which a D3D11 resource is not bound.
const InvalidBindPoint uint8 = 0xFF

// NumD3D11ShaderStages covers vertex, pixel, geometry, hull, domain and compute.
const NumD3D11ShaderStages = 6

type D3D11ResourceRange uint8

const (
	D3D11ResourceRangeCBV D3D11ResourceRange = iota
	D3D11ResourceRangeSRV
	D3D11ResourceRangeSampler
	D3D11ResourceRangeUAV
	D3D11ResourceRangeCount
)

// D3D11ResourceRangeFromType returns the register range a resource type is allocated from.
func D3D11ResourceRangeFromType(rt metadata.ShaderResourceType) D3D11ResourceRange {
	switch rt {
	case metadata.ShaderResourceTypeConstantBuffer:
		return D3D11ResourceRangeCBV
	case metadata.ShaderResourceTypeTextureSRV,
		metadata.ShaderResourceTypeBufferSRV,
		metadata.ShaderResourceTypeInputAttachment:
		return D3D11ResourceRangeSRV
	case metadata.ShaderResourceTypeTextureUAV,
		metadata.ShaderResourceTypeBufferUAV:
		return D3D11ResourceRangeUAV
	case metadata.ShaderResourceTypeSampler:
		return D3D11ResourceRangeSampler
	default:
		return D3D11ResourceRangeCount
	}
}

type D3D11BindPoints [NumD3D11ShaderStages]uint8

func NewD3D11BindPoints() D3D11BindPoints {
	var bp D3D11BindPoints
	for i := range bp {
		bp[i] = InvalidBindPoint
	}
	return bp
}

func (bp D3D11BindPoints) IsStageActive(stageIndex int) bool {
	return stageIndex >= 0 && stageIndex < NumD3D11ShaderStages && bp[stageIndex] != InvalidBindPoint
}

// D3D11ResourceCounters holds one register count per range per shader stage.
type D3D11ResourceCounters [D3D11ResourceRangeCount][NumD3D11ShaderStages]uint32

type D3D11ResourceAttribs struct {
	BindPoints D3D11BindPoints
}

type D3D11SamplerAttribs struct {
	BindPoints D3D11BindPoints
	ArraySize  uint32
}

type D3D11SignatureAttribs struct {
	Resources         []D3D11ResourceAttribs
	ImmutableSamplers []D3D11SamplerAttribs
	ResourceCounters  D3D11ResourceCounters
}

// ShiftBindings advances base past every register this signature uses.
func (a *D3D11SignatureAttribs) ShiftBindings(base *D3D11ResourceCounters) {
	for r := range base {
		for s := range base[r] {
			base[r][s] += a.ResourceCounters[r][s]
		}
	}
}

type D3D12ResourceAttribs struct {
	Register uint32
	// Space is local to the signature.
	Space uint16
}

type D3D12SignatureAttribs struct {
	Resources []D3D12ResourceAttribs
	NumSpaces uint32
}

type GLBindingRange uint8

const (
	GLBindingRangeUniformBuffer GLBindingRange = iota
	GLBindingRangeTexture
	GLBindingRangeImage
	GLBindingRangeStorageBuffer
	GLBindingRangeCount
)

// GLBindingRangeFromDesc returns GLBindingRangeCount for resources that have no GL binding.
func GLBindingRangeFromDesc(desc *metadata.PipelineResourceDesc) GLBindingRange {
	formatted := desc.Flags&metadata.PipelineResourceFlagFormattedBuffer != 0
	switch desc.ResourceType {
	case metadata.ShaderResourceTypeConstantBuffer:
		return GLBindingRangeUniformBuffer
	case metadata.ShaderResourceTypeTextureSRV, metadata.ShaderResourceTypeInputAttachment:
		return GLBindingRangeTexture
	case metadata.ShaderResourceTypeBufferSRV:
		if formatted {
			return GLBindingRangeTexture
		}
		return GLBindingRangeStorageBuffer
	case metadata.ShaderResourceTypeTextureUAV:
		return GLBindingRangeImage
	case metadata.ShaderResourceTypeBufferUAV:
		if formatted {
			return GLBindingRangeImage
		}
		return GLBindingRangeStorageBuffer
	default:
		return GLBindingRangeCount
	}
}

type GLResourceAttribs struct {
	CacheOffset uint32
}

type GLSignatureAttribs struct {
	Resources     []GLResourceAttribs
	BindingCounts [GLBindingRangeCount]uint32
}

func (a *GLSignatureAttribs) ShiftBindings(base *[GLBindingRangeCount]uint32) {
	for r := range base {
		base[r] += a.BindingCounts[r]
	}
}

type VulkanDescriptorSetID uint8

const (
	VulkanDescriptorSetStaticMutable VulkanDescriptorSetID = iota
	VulkanDescriptorSetDynamic
	VulkanDescriptorSetCount
)

// InvalidDescriptorSetSize marks a descriptor set the signature does not use.
const InvalidDescriptorSetSize = ^uint32(0)

type VulkanResourceAttribs struct {
	BindingIndex uint32
	// DescrSet is the index of the set within the signature's own sets.
	DescrSet uint8
}

type VulkanSignatureAttribs struct {
	Resources          []VulkanResourceAttribs
	DescriptorSetSizes [VulkanDescriptorSetCount]uint32
}

// NumDescriptorSets counts the sets that are present in the pipeline layout.
func (a *VulkanSignatureAttribs) NumDescriptorSets() uint32 {
	var n uint32
	for _, size := range a.DescriptorSetSizes {
		if size != InvalidDescriptorSetSize {
			n++
		}
	}
	return n
}

type MetalResourceRange uint8

const (
	MetalResourceRangeBuffer MetalResourceRange = iota
	MetalResourceRangeTexture
	MetalResourceRangeSampler
	MetalResourceRangeCount
)

func MetalResourceRangeFromDesc(desc *metadata.PipelineResourceDesc) MetalResourceRange {
	formatted := desc.Flags&metadata.PipelineResourceFlagFormattedBuffer != 0
	switch desc.ResourceType {
	case metadata.ShaderResourceTypeConstantBuffer, metadata.ShaderResourceTypeAccelStruct:
		return MetalResourceRangeBuffer
	case metadata.ShaderResourceTypeBufferSRV, metadata.ShaderResourceTypeBufferUAV:
		if formatted {
			return MetalResourceRangeTexture
		}
		return MetalResourceRangeBuffer
	case metadata.ShaderResourceTypeTextureSRV, metadata.ShaderResourceTypeTextureUAV,
		metadata.ShaderResourceTypeInputAttachment:
		return MetalResourceRangeTexture
	case metadata.ShaderResourceTypeSampler:
		return MetalResourceRangeSampler
	default:
		return MetalResourceRangeCount
	}
}

// DefaultMaxBufferFunctionArguments is the Metal limit of buffer arguments per function.
const DefaultMaxBufferFunctionArguments = 31

type MetalResourceAttribs struct {
	BindIndex uint32
}

type MetalSignatureAttribs struct {
	Resources      []MetalResourceAttribs
	ResourceCounts [MetalResourceRangeCount]uint32
}

/**
 * @brief A resource signature together with the backend-specific layout computed for
 * each backend it was built for. Only the attributes of the backend being resolved
 * are required.
 */
type Signature struct {
	Desc metadata.PipelineResourceSignatureDesc

	D3D11  *D3D11SignatureAttribs
	D3D12  *D3D12SignatureAttribs
	GL     *GLSignatureAttribs
	Vulkan *VulkanSignatureAttribs
	Metal  *MetalSignatureAttribs
}

// GetDesc lets a Signature be used wherever a device signature is expected.
func (s *Signature) GetDesc() *metadata.PipelineResourceSignatureDesc {
	return &s.Desc
}

func (s *Signature) hasAttribs(dt metadata.RenderDeviceType) bool {
	switch dt {
	case metadata.RenderDeviceTypeD3D11:
		return s.D3D11 != nil && len(s.D3D11.Resources) == len(s.Desc.Resources) &&
			len(s.D3D11.ImmutableSamplers) == len(s.Desc.ImmutableSamplers)
	case metadata.RenderDeviceTypeD3D12:
		return s.D3D12 != nil && len(s.D3D12.Resources) == len(s.Desc.Resources)
	case metadata.RenderDeviceTypeGL, metadata.RenderDeviceTypeGLES:
		return s.GL != nil && len(s.GL.Resources) == len(s.Desc.Resources)
	case metadata.RenderDeviceTypeVulkan:
		return s.Vulkan != nil && len(s.Vulkan.Resources) == len(s.Desc.Resources)
	case metadata.RenderDeviceTypeMetal:
		return s.Metal != nil && len(s.Metal.Resources) == len(s.Desc.Resources)
	}
	return false
}
