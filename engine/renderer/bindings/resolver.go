package bindings

import (
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/** @brief Final native location of one shader resource. */
type PipelineResourceBinding struct {
	Name         string
	ResourceType metadata.ShaderResourceType
	Register     uint32
	Space        uint16
	// ArraySize is 0 for runtime-sized arrays.
	ArraySize    uint32
	ShaderStages metadata.ShaderType
}

type PipelineResourceBindingAttribs struct {
	// Signatures are placed by their BindingIndex; the slice order is irrelevant.
	Signatures []*Signature
	DeviceType metadata.RenderDeviceType
	// ShaderStages filters the stages to resolve; ShaderTypeUnknown means all stages.
	ShaderStages metadata.ShaderType

	// NumRenderTargets is the number of color outputs of the pipeline. D3D11 UAVs
	// share registers with render targets and start after them.
	NumRenderTargets uint32
	// MaxBufferFunctionArguments limits Metal buffer slots. Zero selects the default.
	MaxBufferFunctionArguments uint32
}

type bindingModel interface {
	resolve(sigs *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding
}

/**
 * @brief Computes resource bindings for a set of signatures. The returned slice is
 * owned by the resolver and overwritten on the next call, so a Resolver must not be
 * shared between goroutines.
 */
type Resolver struct {
	bindings []PipelineResourceBinding
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// GetPipelineResourceBindings returns the bindings of every resource visible in
// info.ShaderStages. Invalid input yields an empty list and a logged error.
func (r *Resolver) GetPipelineResourceBindings(info *PipelineResourceBindingAttribs) []PipelineResourceBinding {
	r.bindings = r.bindings[:0]
	if info == nil {
		return r.bindings
	}

	model := modelFor(info.DeviceType)
	if _, unsupported := model.(unsupportedModel); unsupported {
		return model.resolve(nil, info, r.bindings)
	}

	sigs, ok := arrangeSignatures(info.Signatures, info.DeviceType)
	if !ok {
		return r.bindings
	}

	resolveInfo := *info
	if resolveInfo.ShaderStages == metadata.ShaderTypeUnknown {
		resolveInfo.ShaderStages = metadata.ShaderTypeAll
	}
	r.bindings = model.resolve(&sigs, &resolveInfo, r.bindings)
	return r.bindings
}

func modelFor(dt metadata.RenderDeviceType) bindingModel {
	switch dt {
	case metadata.RenderDeviceTypeD3D11:
		return d3d11Model{}
	case metadata.RenderDeviceTypeD3D12:
		return d3d12Model{}
	case metadata.RenderDeviceTypeGL, metadata.RenderDeviceTypeGLES:
		return glModel{}
	case metadata.RenderDeviceTypeVulkan:
		return &vulkanModel{}
	case metadata.RenderDeviceTypeMetal:
		return metalModel{}
	default:
		return unsupportedModel{}
	}
}

type unsupportedModel struct{}

func (unsupportedModel) resolve(_ *[metadata.MaxResourceSignatures]*Signature, info *PipelineResourceBindingAttribs, out []PipelineResourceBinding) []PipelineResourceBinding {
	core.LogError("resource bindings are not supported for device type %s", info.DeviceType)
	return out
}

// arrangeSignatures places every signature at its binding index.
func arrangeSignatures(signatures []*Signature, dt metadata.RenderDeviceType) ([metadata.MaxResourceSignatures]*Signature, bool) {
	var sigs [metadata.MaxResourceSignatures]*Signature
	for _, sig := range signatures {
		if sig == nil {
			continue
		}
		idx := int(sig.Desc.BindingIndex)
		if idx >= metadata.MaxResourceSignatures {
			core.LogError("signature '%s' uses binding index %d, the maximum is %d", sig.Desc.Name, idx, metadata.MaxResourceSignatures-1)
			return sigs, false
		}
		if sigs[idx] != nil {
			core.LogError("signatures '%s' and '%s' share binding index %d", sigs[idx].Desc.Name, sig.Desc.Name, idx)
			return sigs, false
		}
		if !sig.hasAttribs(dt) {
			core.LogError("signature '%s' has no %s binding attributes", sig.Desc.Name, dt)
			return sigs, false
		}
		sigs[idx] = sig
	}
	return sigs, true
}

func arraySize(desc *metadata.PipelineResourceDesc) uint32 {
	if desc.Flags&metadata.PipelineResourceFlagRuntimeArray != 0 {
		return 0
	}
	return desc.ArraySize
}
