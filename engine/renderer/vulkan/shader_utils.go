package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// spirvHeaderWords is magic, version, generator, bound and schema.
const spirvHeaderWords = 5

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The shader module creation info. */
	CreateInfo vk.ShaderModuleCreateInfo
	/** @brief The pipeline shader stage creation info. Module is left for the device to fill. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
	/** @brief SPIR-V version word from the module header. */
	Version uint32
}

/**
 * @brief Builds the creation structures for an archived SPIR-V shader.
 * @param ci The create info produced by unpacking the shader.
 * @return The stage, or an error if the byte code is not SPIR-V or the stage has
 * no core Vulkan equivalent.
 */
func NewShaderStage(ci *metadata.ShaderCreateInfo) (*VulkanShaderStage, error) {
	code := ci.ByteCode
	if len(code)%4 != 0 || len(code) < spirvHeaderWords*4 {
		return nil, fmt.Errorf("shader '%s': %d bytes is not a SPIR-V module: %w", ci.Desc.Name, len(code), core.ErrInvalidHeader)
	}

	words := make([]uint32, len(code)/4)
	r := serialization.NewReader(code)
	for i := range words {
		words[i] = r.U32()
	}
	if words[0] != SPIRVMagic {
		return nil, fmt.Errorf("shader '%s': magic 0x%08x: %w", ci.Desc.Name, words[0], core.ErrInvalidMagic)
	}

	stage, ok := stageBits[ci.Desc.ShaderType]
	if !ok {
		return nil, fmt.Errorf("shader '%s': %s stage has no core Vulkan bit: %w", ci.Desc.Name, ci.Desc.ShaderType, core.ErrUnknown)
	}

	entry := ci.EntryPoint
	if entry == "" {
		entry = "main"
	}

	s := &VulkanShaderStage{Version: words[1]}
	s.CreateInfo.SType = vk.StructureTypeShaderModuleCreateInfo
	s.CreateInfo.CodeSize = uint64(len(code))
	s.CreateInfo.PCode = words

	s.ShaderStageCreateInfo.SType = vk.StructureTypePipelineShaderStageCreateInfo
	s.ShaderStageCreateInfo.Stage = stage
	s.ShaderStageCreateInfo.PName = entry
	return s, nil
}

// VersionString formats the SPIR-V version word as major.minor.
func (s *VulkanShaderStage) VersionString() string {
	return fmt.Sprintf("%d.%d", (s.Version>>16)&0xff, (s.Version>>8)&0xff)
}
