package metadata

import "math/bits"

/** @brief Shader stage bits. A single shader has exactly one bit set; resource
 * descriptions combine them to describe visibility. */
type ShaderType uint32

const (
	ShaderTypeUnknown         ShaderType = 0x0000
	ShaderTypeVertex          ShaderType = 0x0001
	ShaderTypePixel           ShaderType = 0x0002
	ShaderTypeGeometry        ShaderType = 0x0004
	ShaderTypeHull            ShaderType = 0x0008
	ShaderTypeDomain          ShaderType = 0x0010
	ShaderTypeCompute         ShaderType = 0x0020
	ShaderTypeAmplification   ShaderType = 0x0040
	ShaderTypeMesh            ShaderType = 0x0080
	ShaderTypeRayGen          ShaderType = 0x0100
	ShaderTypeRayMiss         ShaderType = 0x0200
	ShaderTypeRayClosestHit   ShaderType = 0x0400
	ShaderTypeRayAnyHit       ShaderType = 0x0800
	ShaderTypeRayIntersection ShaderType = 0x1000
	ShaderTypeCallable        ShaderType = 0x2000
	ShaderTypeTile            ShaderType = 0x4000

	ShaderTypeAllGraphics = ShaderTypeVertex | ShaderTypePixel | ShaderTypeGeometry | ShaderTypeHull | ShaderTypeDomain
	ShaderTypeAllMesh     = ShaderTypeAmplification | ShaderTypeMesh | ShaderTypePixel
	ShaderTypeAll         = ShaderType(0x7FFF)
)

// Index returns the position of the lowest set bit, or -1 for ShaderTypeUnknown.
func (st ShaderType) Index() int {
	if st == 0 {
		return -1
	}
	return bits.TrailingZeros32(uint32(st))
}

// ExtractLSB clears the lowest set bit of *st and returns it.
func ExtractLSB(st *ShaderType) ShaderType {
	lsb := *st & -*st
	*st &^= lsb
	return lsb
}

func (st ShaderType) String() string {
	switch st {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypePixel:
		return "pixel"
	case ShaderTypeGeometry:
		return "geometry"
	case ShaderTypeHull:
		return "hull"
	case ShaderTypeDomain:
		return "domain"
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeAmplification:
		return "amplification"
	case ShaderTypeMesh:
		return "mesh"
	case ShaderTypeRayGen:
		return "raygen"
	case ShaderTypeRayMiss:
		return "raymiss"
	case ShaderTypeRayClosestHit:
		return "closesthit"
	case ShaderTypeRayAnyHit:
		return "anyhit"
	case ShaderTypeRayIntersection:
		return "intersection"
	case ShaderTypeCallable:
		return "callable"
	case ShaderTypeTile:
		return "tile"
	case ShaderTypeUnknown:
		return "unknown"
	}
	s := ""
	for rest := st; rest != 0; {
		if s != "" {
			s += "|"
		}
		s += ExtractLSB(&rest).String()
	}
	return s
}

type ShaderSourceLanguage uint32

const (
	ShaderSourceLanguageDefault ShaderSourceLanguage = iota
	ShaderSourceLanguageHLSL
	ShaderSourceLanguageGLSL
	ShaderSourceLanguageGLSLVerbatim
	ShaderSourceLanguageMSL
	ShaderSourceLanguageMSLVerbatim
	ShaderSourceLanguageMTLB
)

type ShaderCompiler uint32

const (
	ShaderCompilerDefault ShaderCompiler = iota
	ShaderCompilerGLSLang
	ShaderCompilerDXC
	ShaderCompilerFXC
)

type ShaderCompileFlags uint32

const (
	ShaderCompileFlagNone                  ShaderCompileFlags = 0
	ShaderCompileFlagEnableUnboundedArrays ShaderCompileFlags = 1 << 0
	/** @brief Do not reflect resources; bindings in archived byte code are already final. */
	ShaderCompileFlagSkipReflection ShaderCompileFlags = 1 << 1
)

type ShaderDesc struct {
	Name       string
	ShaderType ShaderType
}

/** @brief Everything a device needs to create a shader from precompiled byte code. */
type ShaderCreateInfo struct {
	Desc           ShaderDesc
	EntryPoint     string
	SourceLanguage ShaderSourceLanguage
	ShaderCompiler ShaderCompiler
	CompileFlags   ShaderCompileFlags
	ByteCode       []byte
}

/** @brief A device shader object. */
type Shader interface {
	GetDesc() *ShaderDesc
}
