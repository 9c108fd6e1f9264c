package metadata

/** @brief Maximum number of resource signatures a single pipeline can use. */
const MaxResourceSignatures = 8

type ShaderResourceType uint8

const (
	ShaderResourceTypeUnknown ShaderResourceType = iota
	ShaderResourceTypeConstantBuffer
	ShaderResourceTypeTextureSRV
	ShaderResourceTypeBufferSRV
	ShaderResourceTypeTextureUAV
	ShaderResourceTypeBufferUAV
	ShaderResourceTypeSampler
	ShaderResourceTypeInputAttachment
	ShaderResourceTypeAccelStruct
)

func (rt ShaderResourceType) String() string {
	switch rt {
	case ShaderResourceTypeConstantBuffer:
		return "constant_buffer"
	case ShaderResourceTypeTextureSRV:
		return "texture_srv"
	case ShaderResourceTypeBufferSRV:
		return "buffer_srv"
	case ShaderResourceTypeTextureUAV:
		return "texture_uav"
	case ShaderResourceTypeBufferUAV:
		return "buffer_uav"
	case ShaderResourceTypeSampler:
		return "sampler"
	case ShaderResourceTypeInputAttachment:
		return "input_attachment"
	case ShaderResourceTypeAccelStruct:
		return "accel_struct"
	default:
		return "unknown"
	}
}

/** @brief How often a shader variable is expected to change. */
type ShaderResourceVariableType uint8

const (
	ShaderResourceVariableTypeStatic ShaderResourceVariableType = iota
	ShaderResourceVariableTypeMutable
	ShaderResourceVariableTypeDynamic
)

type PipelineResourceFlags uint8

const (
	PipelineResourceFlagNone                   PipelineResourceFlags = 0
	PipelineResourceFlagNoDynamicBuffers       PipelineResourceFlags = 1 << 0
	PipelineResourceFlagCombinedSampler        PipelineResourceFlags = 1 << 1
	PipelineResourceFlagFormattedBuffer        PipelineResourceFlags = 1 << 2
	PipelineResourceFlagRuntimeArray           PipelineResourceFlags = 1 << 3
	PipelineResourceFlagGeneralInputAttachment PipelineResourceFlags = 1 << 4
)

/** @brief A single shader-visible resource declared by a resource signature. */
type PipelineResourceDesc struct {
	Name         string
	ShaderStages ShaderType
	ArraySize    uint32
	ResourceType ShaderResourceType
	VarType      ShaderResourceVariableType
	Flags        PipelineResourceFlags
}

type FilterType uint8

const (
	FilterTypeUnknown FilterType = iota
	FilterTypePoint
	FilterTypeLinear
	FilterTypeAnisotropic
	FilterTypeComparisonPoint
	FilterTypeComparisonLinear
	FilterTypeComparisonAnisotropic
)

type TextureAddressMode uint8

const (
	TextureAddressUnknown TextureAddressMode = iota
	TextureAddressWrap
	TextureAddressMirror
	TextureAddressClamp
	TextureAddressBorder
	TextureAddressMirrorOnce
)

type ComparisonFunction uint8

const (
	ComparisonFuncUnknown ComparisonFunction = iota
	ComparisonFuncNever
	ComparisonFuncLess
	ComparisonFuncEqual
	ComparisonFuncLessEqual
	ComparisonFuncGreater
	ComparisonFuncNotEqual
	ComparisonFuncGreaterEqual
	ComparisonFuncAlways
)

type SamplerDesc struct {
	MinFilter      FilterType
	MagFilter      FilterType
	MipFilter      FilterType
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	ComparisonFunc ComparisonFunction
	MaxAnisotropy  uint32
	MipLODBias     float32
	MinLOD         float32
	MaxLOD         float32
}

type ImmutableSamplerDesc struct {
	ShaderStages         ShaderType
	SamplerOrTextureName string
	Desc                 SamplerDesc
}

/**
 * @brief Backend-agnostic description of the resources a group of pipelines binds.
 * BindingIndex selects the slot the signature occupies in a pipeline layout.
 */
type PipelineResourceSignatureDesc struct {
	Name                       string
	Resources                  []PipelineResourceDesc
	ImmutableSamplers          []ImmutableSamplerDesc
	BindingIndex               uint8
	UseCombinedTextureSamplers bool
	CombinedSamplerSuffix      string
	SRBAllocationGranularity   uint32
}

/**
 * @brief Parameters for creating a resource signature on a device. InternalData is
 * the backend-specific payload stored next to the descriptor in the archive.
 */
type ResourceSignatureCreateInfo struct {
	Desc         PipelineResourceSignatureDesc
	InternalData []byte
	/** @brief Set for the signature that stands in for a pipeline's implicit layout. */
	Implicit bool
}

type PipelineResourceSignature interface {
	GetDesc() *PipelineResourceSignatureDesc
}
