package metadata

import (
	"fmt"
	"strings"
)

/**
 * @brief Identifies the per-backend block of an archive. Every archive carries one
 * base offset per device type, so a single file can hold all backend variants.
 */
type DeviceType uint32

const (
	DeviceTypeOpenGL DeviceType = iota
	DeviceTypeDirect3D11
	DeviceTypeDirect3D12
	DeviceTypeVulkan
	DeviceTypeMetalIOS
	DeviceTypeMetalMacOS
	/** @brief Number of device types. Not a valid device type. */
	DeviceTypeCount
)

func (dt DeviceType) String() string {
	switch dt {
	case DeviceTypeOpenGL:
		return "opengl"
	case DeviceTypeDirect3D11:
		return "d3d11"
	case DeviceTypeDirect3D12:
		return "d3d12"
	case DeviceTypeVulkan:
		return "vulkan"
	case DeviceTypeMetalIOS:
		return "metal_ios"
	case DeviceTypeMetalMacOS:
		return "metal_macos"
	default:
		return fmt.Sprintf("DeviceType(%d)", uint32(dt))
	}
}

// IsValid reports whether dt addresses one of the archive's backend blocks.
func (dt DeviceType) IsValid() bool {
	return dt < DeviceTypeCount
}

// RenderDeviceType maps an archive block to the binding model used by that backend.
func (dt DeviceType) RenderDeviceType() RenderDeviceType {
	switch dt {
	case DeviceTypeOpenGL:
		return RenderDeviceTypeGL
	case DeviceTypeDirect3D11:
		return RenderDeviceTypeD3D11
	case DeviceTypeDirect3D12:
		return RenderDeviceTypeD3D12
	case DeviceTypeVulkan:
		return RenderDeviceTypeVulkan
	case DeviceTypeMetalIOS, DeviceTypeMetalMacOS:
		return RenderDeviceTypeMetal
	default:
		return RenderDeviceTypeUndefined
	}
}

// DeviceTypeFromString parses the names produced by DeviceType.String.
// "gles" shares the OpenGL block.
func DeviceTypeFromString(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opengl", "gl", "gles":
		return DeviceTypeOpenGL, nil
	case "d3d11":
		return DeviceTypeDirect3D11, nil
	case "d3d12":
		return DeviceTypeDirect3D12, nil
	case "vulkan", "vk":
		return DeviceTypeVulkan, nil
	case "metal_ios":
		return DeviceTypeMetalIOS, nil
	case "metal_macos", "metal":
		return DeviceTypeMetalMacOS, nil
	}
	return DeviceTypeCount, fmt.Errorf("string %s is not a valid DeviceType", s)
}

/** @brief Native graphics API, used to select a resource binding model. */
type RenderDeviceType uint8

const (
	RenderDeviceTypeUndefined RenderDeviceType = iota
	RenderDeviceTypeD3D11
	RenderDeviceTypeD3D12
	RenderDeviceTypeGL
	RenderDeviceTypeGLES
	RenderDeviceTypeVulkan
	RenderDeviceTypeMetal
	RenderDeviceTypeCount
)

func (rt RenderDeviceType) String() string {
	switch rt {
	case RenderDeviceTypeD3D11:
		return "D3D11"
	case RenderDeviceTypeD3D12:
		return "D3D12"
	case RenderDeviceTypeGL:
		return "GL"
	case RenderDeviceTypeGLES:
		return "GLES"
	case RenderDeviceTypeVulkan:
		return "Vulkan"
	case RenderDeviceTypeMetal:
		return "Metal"
	default:
		return "Undefined"
	}
}
