package bindings

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// MarshalBinary encodes the attributes of one backend into the payload stored
// next to a signature descriptor in an archive.
func (s *Signature) MarshalBinary(dt metadata.RenderDeviceType) ([]byte, error) {
	if !s.hasAttribs(dt) {
		return nil, fmt.Errorf("signature '%s' has no %s attributes: %w", s.Desc.Name, dt, core.ErrNoDeviceData)
	}

	w := serialization.NewWriter()
	switch dt {
	case metadata.RenderDeviceTypeD3D11:
		a := s.D3D11
		w.U32(uint32(len(a.Resources)))
		for _, r := range a.Resources {
			w.Raw(r.BindPoints[:])
		}
		w.U32(uint32(len(a.ImmutableSamplers)))
		for _, smp := range a.ImmutableSamplers {
			w.Raw(smp.BindPoints[:])
			w.U32(smp.ArraySize)
		}
		for r := range a.ResourceCounters {
			for st := range a.ResourceCounters[r] {
				w.U32(a.ResourceCounters[r][st])
			}
		}
	case metadata.RenderDeviceTypeD3D12:
		a := s.D3D12
		w.U32(uint32(len(a.Resources)))
		for _, r := range a.Resources {
			w.U32(r.Register)
			w.U16(r.Space)
		}
		w.U32(a.NumSpaces)
	case metadata.RenderDeviceTypeGL, metadata.RenderDeviceTypeGLES:
		a := s.GL
		w.U32(uint32(len(a.Resources)))
		for _, r := range a.Resources {
			w.U32(r.CacheOffset)
		}
		for _, c := range a.BindingCounts {
			w.U32(c)
		}
	case metadata.RenderDeviceTypeVulkan:
		a := s.Vulkan
		w.U32(uint32(len(a.Resources)))
		for _, r := range a.Resources {
			w.U32(r.BindingIndex)
			w.U8(r.DescrSet)
		}
		for _, size := range a.DescriptorSetSizes {
			w.U32(size)
		}
	case metadata.RenderDeviceTypeMetal:
		a := s.Metal
		w.U32(uint32(len(a.Resources)))
		for _, r := range a.Resources {
			w.U32(r.BindIndex)
		}
		for _, c := range a.ResourceCounts {
			w.U32(c)
		}
	}
	return w.Bytes(), nil
}

// DecodeSignature rebuilds a Signature from its descriptor and the backend payload
// produced by MarshalBinary.
func DecodeSignature(dt metadata.RenderDeviceType, desc metadata.PipelineResourceSignatureDesc, data []byte) (*Signature, error) {
	sig := &Signature{Desc: desc}
	r := serialization.NewReader(data)

	switch dt {
	case metadata.RenderDeviceTypeD3D11:
		a := &D3D11SignatureAttribs{}
		n := r.Count(NumD3D11ShaderStages)
		a.Resources = make([]D3D11ResourceAttribs, n)
		for i := range a.Resources {
			copy(a.Resources[i].BindPoints[:], r.Bytes(NumD3D11ShaderStages))
		}
		n = r.Count(NumD3D11ShaderStages + 4)
		a.ImmutableSamplers = make([]D3D11SamplerAttribs, n)
		for i := range a.ImmutableSamplers {
			copy(a.ImmutableSamplers[i].BindPoints[:], r.Bytes(NumD3D11ShaderStages))
			a.ImmutableSamplers[i].ArraySize = r.U32()
		}
		for rng := range a.ResourceCounters {
			for st := range a.ResourceCounters[rng] {
				a.ResourceCounters[rng][st] = r.U32()
			}
		}
		sig.D3D11 = a
	case metadata.RenderDeviceTypeD3D12:
		a := &D3D12SignatureAttribs{}
		a.Resources = make([]D3D12ResourceAttribs, r.Count(6))
		for i := range a.Resources {
			a.Resources[i].Register = r.U32()
			a.Resources[i].Space = r.U16()
		}
		a.NumSpaces = r.U32()
		sig.D3D12 = a
	case metadata.RenderDeviceTypeGL, metadata.RenderDeviceTypeGLES:
		a := &GLSignatureAttribs{}
		a.Resources = make([]GLResourceAttribs, r.Count(4))
		for i := range a.Resources {
			a.Resources[i].CacheOffset = r.U32()
		}
		for i := range a.BindingCounts {
			a.BindingCounts[i] = r.U32()
		}
		sig.GL = a
	case metadata.RenderDeviceTypeVulkan:
		a := &VulkanSignatureAttribs{}
		a.Resources = make([]VulkanResourceAttribs, r.Count(5))
		for i := range a.Resources {
			a.Resources[i].BindingIndex = r.U32()
			a.Resources[i].DescrSet = r.U8()
		}
		for i := range a.DescriptorSetSizes {
			a.DescriptorSetSizes[i] = r.U32()
		}
		sig.Vulkan = a
	case metadata.RenderDeviceTypeMetal:
		a := &MetalSignatureAttribs{}
		a.Resources = make([]MetalResourceAttribs, r.Count(4))
		for i := range a.Resources {
			a.Resources[i].BindIndex = r.U32()
		}
		for i := range a.ResourceCounts {
			a.ResourceCounts[i] = r.U32()
		}
		sig.Metal = a
	default:
		return nil, fmt.Errorf("%s: %w", dt, core.ErrUnsupportedDevice)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("signature '%s': %w", desc.Name, err)
	}
	if !r.IsEnd() {
		return nil, fmt.Errorf("signature '%s': %d bytes of trailing %s data: %w", desc.Name, r.Remaining(), dt, core.ErrInvalidHeader)
	}
	if !sig.hasAttribs(dt) {
		return nil, fmt.Errorf("signature '%s': %s attributes do not match the descriptor: %w", desc.Name, dt, core.ErrInvalidHeader)
	}
	return sig, nil
}
