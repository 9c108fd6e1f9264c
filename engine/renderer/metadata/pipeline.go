package metadata

type PipelineType uint8

const (
	PipelineTypeGraphics PipelineType = iota
	PipelineTypeCompute
	PipelineTypeMesh
	PipelineTypeRayTracing
	PipelineTypeTile
)

func (pt PipelineType) String() string {
	switch pt {
	case PipelineTypeGraphics:
		return "graphics"
	case PipelineTypeCompute:
		return "compute"
	case PipelineTypeMesh:
		return "mesh"
	case PipelineTypeRayTracing:
		return "ray_tracing"
	case PipelineTypeTile:
		return "tile"
	default:
		return "unknown"
	}
}

type PSOCreateFlags uint32

const (
	PSOCreateFlagNone                           PSOCreateFlags = 0
	PSOCreateFlagIgnoreMissingVariables         PSOCreateFlags = 1 << 0
	PSOCreateFlagIgnoreMissingImmutableSamplers PSOCreateFlags = 1 << 1
	/** @brief Shader byte code already carries final bindings and must not be patched. */
	PSOCreateFlagDontRemapShaderResources PSOCreateFlags = 1 << 2
	/** @brief The single signature stands in for a layout defined by the pipeline itself. */
	PSOCreateFlagImplicitSignature0 PSOCreateFlags = 1 << 3
)

type ShaderResourceVariableFlags uint8

type ShaderResourceVariableDesc struct {
	ShaderStages ShaderType
	Name         string
	Type         ShaderResourceVariableType
	Flags        ShaderResourceVariableFlags
}

/** @brief Resource layout of a pipeline that does not use explicit signatures. */
type PipelineResourceLayoutDesc struct {
	DefaultVariableType        ShaderResourceVariableType
	DefaultVariableMergeStages ShaderType
	Variables                  []ShaderResourceVariableDesc
	ImmutableSamplers          []ImmutableSamplerDesc
}

// Equal compares layouts element by element.
func (l *PipelineResourceLayoutDesc) Equal(other *PipelineResourceLayoutDesc) bool {
	if l.DefaultVariableType != other.DefaultVariableType ||
		l.DefaultVariableMergeStages != other.DefaultVariableMergeStages ||
		len(l.Variables) != len(other.Variables) ||
		len(l.ImmutableSamplers) != len(other.ImmutableSamplers) {
		return false
	}
	for i := range l.Variables {
		if l.Variables[i] != other.Variables[i] {
			return false
		}
	}
	for i := range l.ImmutableSamplers {
		if l.ImmutableSamplers[i] != other.ImmutableSamplers[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no slices with l.
func (l *PipelineResourceLayoutDesc) Clone() PipelineResourceLayoutDesc {
	out := *l
	out.Variables = append([]ShaderResourceVariableDesc(nil), l.Variables...)
	out.ImmutableSamplers = append([]ImmutableSamplerDesc(nil), l.ImmutableSamplers...)
	return out
}

type PipelineStateDesc struct {
	Name                     string
	PipelineType             PipelineType
	SRBAllocationGranularity uint32
	ImmediateContextMask     uint64
	ResourceLayout           PipelineResourceLayoutDesc
}

/** @brief Opaque device pipeline cache handle forwarded to pipeline creation. */
type PipelineStateCache interface{}

/** @brief Fields shared by every pipeline kind. */
type PipelineStateCreateInfo struct {
	PSODesc            PipelineStateDesc
	Flags              PSOCreateFlags
	ResourceSignatures []PipelineResourceSignature
	PSOCache           PipelineStateCache
}

// PipelineCreateInfo is implemented by every per-kind create info so code that
// only needs the shared part can work on any of them.
type PipelineCreateInfo interface {
	Base() *PipelineStateCreateInfo
}

func (ci *PipelineStateCreateInfo) Base() *PipelineStateCreateInfo {
	return ci
}

type FillMode uint8

const (
	FillModeUndefined FillMode = iota
	FillModeWireframe
	FillModeSolid
)

type CullMode uint8

const (
	CullModeUndefined CullMode = iota
	CullModeNone
	CullModeFront
	CullModeBack
)

type PrimitiveTopology uint8

const (
	PrimitiveTopologyUndefined PrimitiveTopology = iota
	PrimitiveTopologyTriangleList
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyPointList
	PrimitiveTopologyLineList
	PrimitiveTopologyLineStrip
)

type RasterizerStateDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise bool
	DepthClipEnable       bool
	ScissorEnable         bool
	DepthBias             int32
	SlopeScaledDepthBias  float32
}

type DepthStencilStateDesc struct {
	DepthEnable      bool
	DepthWriteEnable bool
	DepthFunc        ComparisonFunction
	StencilEnable    bool
}

type RenderTargetBlendDesc struct {
	BlendEnable           bool
	SrcBlend              uint8
	DestBlend             uint8
	BlendOp               uint8
	RenderTargetWriteMask uint8
}

type BlendStateDesc struct {
	AlphaToCoverageEnable  bool
	IndependentBlendEnable bool
	RenderTargets          [8]RenderTargetBlendDesc
}

type LayoutElement struct {
	HLSLSemantic   string
	InputIndex     uint32
	BufferSlot     uint32
	NumComponents  uint32
	ValueType      uint8
	IsNormalized   bool
	RelativeOffset uint32
	Stride         uint32
	PerInstance    bool
}

type GraphicsPipelineDesc struct {
	BlendDesc         BlendStateDesc
	SampleMask        uint32
	RasterizerDesc    RasterizerStateDesc
	DepthStencilDesc  DepthStencilStateDesc
	InputLayout       []LayoutElement
	PrimitiveTopology PrimitiveTopology
	NumViewports      uint8
	NumRenderTargets  uint8
	SubpassIndex      uint8
	RTVFormats        [8]uint16
	DSVFormat         uint16
	SampleCount       uint8
	/** @brief Resolved from the archive; nil when the pipeline uses explicit formats. */
	RenderPass RenderPass
}

type GraphicsPipelineStateCreateInfo struct {
	PipelineStateCreateInfo
	GraphicsPipeline GraphicsPipelineDesc

	VS Shader
	PS Shader
	GS Shader
	HS Shader
	DS Shader
	AS Shader
	MS Shader
}

type ComputePipelineStateCreateInfo struct {
	PipelineStateCreateInfo
	CS Shader
}

type TilePipelineDesc struct {
	NumRenderTargets uint8
	SampleCount      uint8
	RTVFormats       [8]uint16
}

type TilePipelineStateCreateInfo struct {
	PipelineStateCreateInfo
	TilePipeline TilePipelineDesc
	TS           Shader
}

type RayTracingGeneralShaderGroup struct {
	Name   string
	Shader Shader
}

type RayTracingTriangleHitShaderGroup struct {
	Name             string
	ClosestHitShader Shader
	/** @brief Optional. */
	AnyHitShader Shader
}

type RayTracingProceduralHitShaderGroup struct {
	Name               string
	IntersectionShader Shader
	/** @brief Optional. */
	ClosestHitShader Shader
	/** @brief Optional. */
	AnyHitShader Shader
}

type RayTracingPipelineDesc struct {
	ShaderRecordSize  uint16
	MaxRecursionDepth uint8
}

type RayTracingPipelineStateCreateInfo struct {
	PipelineStateCreateInfo
	RayTracingPipeline   RayTracingPipelineDesc
	GeneralShaders       []RayTracingGeneralShaderGroup
	TriangleHitShaders   []RayTracingTriangleHitShaderGroup
	ProceduralHitShaders []RayTracingProceduralHitShaderGroup
	ShaderRecordName     string
	MaxAttributeSize     uint32
	MaxPayloadSize       uint32
}

type PipelineState interface {
	GetDesc() *PipelineStateDesc
}
