package testbed

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type ObjectKind uint8

const (
	ObjectKindShader ObjectKind = iota
	ObjectKindRenderPass
	ObjectKindResourceSignature
	ObjectKindGraphicsPipeline
	ObjectKindComputePipeline
	ObjectKindTilePipeline
	ObjectKindRayTracingPipeline
	ObjectKindCount
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectKindShader:
		return "shader"
	case ObjectKindRenderPass:
		return "render pass"
	case ObjectKindResourceSignature:
		return "resource signature"
	case ObjectKindGraphicsPipeline:
		return "graphics pipeline"
	case ObjectKindComputePipeline:
		return "compute pipeline"
	case ObjectKindTilePipeline:
		return "tile pipeline"
	case ObjectKindRayTracingPipeline:
		return "ray tracing pipeline"
	default:
		return "unknown"
	}
}

type Shader struct {
	Desc       metadata.ShaderDesc
	CreateInfo metadata.ShaderCreateInfo
}

func (s *Shader) GetDesc() *metadata.ShaderDesc {
	return &s.Desc
}

type RenderPass struct {
	Desc metadata.RenderPassDesc
}

func (rp *RenderPass) GetDesc() *metadata.RenderPassDesc {
	return &rp.Desc
}

type PipelineState struct {
	Desc       metadata.PipelineStateDesc
	CreateInfo metadata.PipelineCreateInfo
}

func (p *PipelineState) GetDesc() *metadata.PipelineStateDesc {
	return &p.Desc
}

/**
 * @brief A software render device that records every object it creates. Resource
 * signatures are decoded into bindings.Signature so they can be fed to the
 * binding resolver. Safe for concurrent use.
 */
type Device struct {
	renderDevice metadata.RenderDeviceType

	mu         sync.Mutex
	calls      [ObjectKindCount]int
	failures   map[string]error
	signatures []*bindings.Signature
}

func NewDevice(dt metadata.DeviceType) *Device {
	return &Device{
		renderDevice: dt.RenderDeviceType(),
		failures:     make(map[string]error),
	}
}

func (d *Device) RenderDeviceType() metadata.RenderDeviceType {
	return d.renderDevice
}

// Calls returns how many objects of a kind were created.
func (d *Device) Calls(kind ObjectKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[kind]
}

// FailCreation makes every later creation of the named object return err.
func (d *Device) FailCreation(name string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[name] = err
}

// Signatures returns every signature created so far, in creation order.
func (d *Device) Signatures() []*bindings.Signature {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*bindings.Signature(nil), d.signatures...)
}

func (d *Device) record(kind ObjectKind, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failures[name]; ok {
		return fmt.Errorf("%s '%s': %w", kind, name, err)
	}
	d.calls[kind]++
	core.LogDebug("created %s '%s'", kind, name)
	return nil
}

func (d *Device) CreateShader(ci *metadata.ShaderCreateInfo) (metadata.Shader, error) {
	if err := d.record(ObjectKindShader, ci.EntryPoint); err != nil {
		return nil, err
	}
	return &Shader{Desc: ci.Desc, CreateInfo: *ci}, nil
}

func (d *Device) CreateRenderPass(desc *metadata.RenderPassDesc) (metadata.RenderPass, error) {
	if err := d.record(ObjectKindRenderPass, desc.Name); err != nil {
		return nil, err
	}
	return &RenderPass{Desc: *desc}, nil
}

func (d *Device) CreatePipelineResourceSignature(ci *metadata.ResourceSignatureCreateInfo) (metadata.PipelineResourceSignature, error) {
	sig, err := bindings.DecodeSignature(d.renderDevice, ci.Desc, ci.InternalData)
	if err != nil {
		return nil, err
	}
	if err := d.record(ObjectKindResourceSignature, ci.Desc.Name); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.signatures = append(d.signatures, sig)
	d.mu.Unlock()
	return sig, nil
}

func (d *Device) createPipeline(kind ObjectKind, ci metadata.PipelineCreateInfo) (metadata.PipelineState, error) {
	base := ci.Base()
	if err := d.record(kind, base.PSODesc.Name); err != nil {
		return nil, err
	}
	return &PipelineState{Desc: base.PSODesc, CreateInfo: ci}, nil
}

func (d *Device) CreateGraphicsPipelineState(ci *metadata.GraphicsPipelineStateCreateInfo) (metadata.PipelineState, error) {
	return d.createPipeline(ObjectKindGraphicsPipeline, ci)
}

func (d *Device) CreateComputePipelineState(ci *metadata.ComputePipelineStateCreateInfo) (metadata.PipelineState, error) {
	return d.createPipeline(ObjectKindComputePipeline, ci)
}

func (d *Device) CreateTilePipelineState(ci *metadata.TilePipelineStateCreateInfo) (metadata.PipelineState, error) {
	return d.createPipeline(ObjectKindTilePipeline, ci)
}

func (d *Device) CreateRayTracingPipelineState(ci *metadata.RayTracingPipelineStateCreateInfo) (metadata.PipelineState, error) {
	return d.createPipeline(ObjectKindRayTracingPipeline, ci)
}
