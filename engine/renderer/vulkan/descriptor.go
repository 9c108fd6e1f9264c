package vulkan

import (
	"fmt"
	"sort"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief The configuration for a descriptor set, built from resolved resource bindings.
 */
type VulkanDescriptorSetConfig struct {
	/** @brief The set number in the pipeline layout. */
	Set uint32
	/** @brief Binding layouts of this set, ordered by binding number. */
	Bindings []vk.DescriptorSetLayoutBinding
	/** @brief Resource names, parallel to Bindings. */
	Names []string
}

// CreateInfo returns the structure passed to vk.CreateDescriptorSetLayout.
func (c *VulkanDescriptorSetConfig) CreateInfo() vk.DescriptorSetLayoutCreateInfo {
	return vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(c.Bindings)),
		PBindings:    c.Bindings,
	}
}

// DescriptorSetConfigs groups Vulkan resource bindings by descriptor set. Sets
// that no resource uses are still returned so that set numbers stay contiguous.
func DescriptorSetConfigs(resolved []bindings.PipelineResourceBinding) ([]VulkanDescriptorSetConfig, error) {
	var numSets uint32
	for _, b := range resolved {
		if uint32(b.Space)+1 > numSets {
			numSets = uint32(b.Space) + 1
		}
	}
	if numSets > VULKAN_MAX_DESCRIPTOR_SETS {
		return nil, fmt.Errorf("pipeline layout needs %d descriptor sets, the maximum is %d", numSets, VULKAN_MAX_DESCRIPTOR_SETS)
	}

	configs := make([]VulkanDescriptorSetConfig, numSets)
	for i := range configs {
		configs[i].Set = uint32(i)
	}

	for _, b := range resolved {
		descType, err := descriptorType(b.ResourceType)
		if err != nil {
			return nil, fmt.Errorf("resource '%s': %w", b.Name, err)
		}
		count := b.ArraySize
		if count == 0 {
			count = VULKAN_RUNTIME_ARRAY_DESCRIPTOR_COUNT
		}
		cfg := &configs[b.Space]
		cfg.Bindings = append(cfg.Bindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Register,
			DescriptorType:  descType,
			DescriptorCount: count,
			StageFlags:      shaderStageFlags(b.ShaderStages),
		})
		cfg.Names = append(cfg.Names, b.Name)
	}

	for i := range configs {
		cfg := &configs[i]
		sort.Sort(byBinding{cfg})
		for j := 1; j < len(cfg.Bindings); j++ {
			if cfg.Bindings[j].Binding == cfg.Bindings[j-1].Binding {
				return nil, fmt.Errorf("resources '%s' and '%s' share binding %d in set %d",
					cfg.Names[j-1], cfg.Names[j], cfg.Bindings[j].Binding, cfg.Set)
			}
		}
		core.LogDebug("descriptor set %d: %d bindings", cfg.Set, len(cfg.Bindings))
	}
	return configs, nil
}

type byBinding struct {
	cfg *VulkanDescriptorSetConfig
}

func (b byBinding) Len() int { return len(b.cfg.Bindings) }
func (b byBinding) Less(i, j int) bool {
	return b.cfg.Bindings[i].Binding < b.cfg.Bindings[j].Binding
}
func (b byBinding) Swap(i, j int) {
	b.cfg.Bindings[i], b.cfg.Bindings[j] = b.cfg.Bindings[j], b.cfg.Bindings[i]
	b.cfg.Names[i], b.cfg.Names[j] = b.cfg.Names[j], b.cfg.Names[i]
}

func descriptorType(rt metadata.ShaderResourceType) (vk.DescriptorType, error) {
	switch rt {
	case metadata.ShaderResourceTypeConstantBuffer:
		return vk.DescriptorTypeUniformBuffer, nil
	case metadata.ShaderResourceTypeTextureSRV:
		return vk.DescriptorTypeSampledImage, nil
	case metadata.ShaderResourceTypeBufferSRV, metadata.ShaderResourceTypeBufferUAV:
		return vk.DescriptorTypeStorageBuffer, nil
	case metadata.ShaderResourceTypeTextureUAV:
		return vk.DescriptorTypeStorageImage, nil
	case metadata.ShaderResourceTypeSampler:
		return vk.DescriptorTypeSampler, nil
	case metadata.ShaderResourceTypeInputAttachment:
		return vk.DescriptorTypeInputAttachment, nil
	default:
		return 0, fmt.Errorf("resource type %s has no descriptor type: %w", rt, core.ErrUnknown)
	}
}

var stageBits = map[metadata.ShaderType]vk.ShaderStageFlagBits{
	metadata.ShaderTypeVertex:   vk.ShaderStageVertexBit,
	metadata.ShaderTypeHull:     vk.ShaderStageTessellationControlBit,
	metadata.ShaderTypeDomain:   vk.ShaderStageTessellationEvaluationBit,
	metadata.ShaderTypeGeometry: vk.ShaderStageGeometryBit,
	metadata.ShaderTypePixel:    vk.ShaderStageFragmentBit,
	metadata.ShaderTypeCompute:  vk.ShaderStageComputeBit,
}

// shaderStageFlags falls back to all stages when a stage has no core Vulkan bit.
func shaderStageFlags(stages metadata.ShaderType) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	for stages != metadata.ShaderTypeUnknown {
		stage := metadata.ExtractLSB(&stages)
		bit, ok := stageBits[stage]
		if !ok {
			return vk.ShaderStageFlags(vk.ShaderStageAll)
		}
		flags |= vk.ShaderStageFlags(bit)
	}
	return flags
}
