package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/spaghettifunk/anima/engine/archive"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/bindings"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima/engine/systems"
	"github.com/spaghettifunk/anima/testbed"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var namedChunks = []archive.ChunkType{
	archive.ChunkTypeResourceSignature,
	archive.ChunkTypeRenderPass,
	archive.ChunkTypeGraphicsPipelineStates,
	archive.ChunkTypeComputePipelineStates,
	archive.ChunkTypeTilePipelineStates,
	archive.ChunkTypeRayTracingPipelineStates,
}

type unpackFunc func(a *archive.Archive, info *archive.PipelineStateUnpackInfo) (metadata.PipelineState, error)

var pipelineUnpackers = map[archive.ChunkType]unpackFunc{
	archive.ChunkTypeGraphicsPipelineStates:   (*archive.Archive).UnpackGraphicsPSO,
	archive.ChunkTypeComputePipelineStates:    (*archive.Archive).UnpackComputePSO,
	archive.ChunkTypeTilePipelineStates:       (*archive.Archive).UnpackTilePSO,
	archive.ChunkTypeRayTracingPipelineStates: (*archive.Archive).UnpackRayTracingPSO,
}

type inspector struct {
	out      io.Writer
	cfg      *core.LoaderConfig
	resolver *bindings.Resolver
}

func newInspector(out io.Writer, cfg *core.LoaderConfig) *inspector {
	return &inspector{out: out, cfg: cfg, resolver: bindings.NewResolver()}
}

func (in *inspector) Inspect(path string, a *archive.Archive) {
	fmt.Fprintln(in.out, titleStyle.Render(fmt.Sprintf("%s (%s)", path, a.DeviceType())))
	if info := a.DebugInfo(); info != nil {
		fmt.Fprintln(in.out, dimStyle.Render(fmt.Sprintf("engine API %d, commit '%s'", info.APIVersion, info.GitHash)))
	}
	fmt.Fprintln(in.out, dimStyle.Render(fmt.Sprintf("%d shaders", a.ShaderCount())))

	for _, ct := range namedChunks {
		names := a.ResourceNames(ct)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintln(in.out, sectionStyle.Render(fmt.Sprintf("%s (%d)", ct, len(names))))
		for _, name := range names {
			fmt.Fprintf(in.out, "  %s\n", name)
		}
	}

	// a fresh device per pass, so nothing survives from a previous archive
	dev := testbed.NewDevice(a.DeviceType())
	if a.DeviceType() == metadata.DeviceTypeVulkan {
		in.inspectShaders(a, dev)
	}
	in.prewarm(a, dev)
	for _, ct := range namedChunks {
		unpack, ok := pipelineUnpackers[ct]
		if !ok {
			continue
		}
		for _, name := range a.ResourceNames(ct) {
			in.inspectPipeline(a, dev, name, unpack)
		}
	}
}

func (in *inspector) inspectShaders(a *archive.Archive, dev *testbed.Device) {
	for i := 0; i < a.ShaderCount(); i++ {
		obj, err := a.UnpackShader(&archive.ShaderUnpackInfo{Device: dev, Index: uint32(i)})
		if err != nil {
			fmt.Fprintln(in.out, errorStyle.Render(fmt.Sprintf("  shader %d: %s", i, err)))
			continue
		}
		ci := &obj.(*testbed.Shader).CreateInfo
		stage, err := vulkan.NewShaderStage(ci)
		if err != nil {
			fmt.Fprintln(in.out, errorStyle.Render(fmt.Sprintf("  shader %d: %s", i, err)))
			continue
		}
		fmt.Fprintf(in.out, "  shader %-4d %-12s %-16s SPIR-V %s, %d words\n",
			i, ci.Desc.ShaderType, stage.ShaderStageCreateInfo.PName, stage.VersionString(), len(stage.CreateInfo.PCode))
	}
}

func (in *inspector) unpackInfo(name string, dev *testbed.Device) *archive.PipelineStateUnpackInfo {
	return &archive.PipelineStateUnpackInfo{
		Name:                     name,
		Device:                   dev,
		SRBAllocationGranularity: in.cfg.Pipeline.SRBAllocationGranularity,
		ImmediateContextMask:     in.cfg.Pipeline.ImmediateContextMask,
	}
}

/**
 * @brief Unpacks every pipeline of the archive on the worker pool so the printing
 * pass below only hits the archive caches. Failures are not cached and show up
 * again when the pipeline is printed.
 */
func (in *inspector) prewarm(a *archive.Archive, dev *testbed.Device) {
	if in.cfg.Workers < 2 {
		return
	}
	js, err := systems.NewJobSystem(in.cfg.Workers, in.cfg.Workers)
	if err != nil {
		core.LogWarn("pipeline prewarm disabled: %s", err)
		return
	}
	for _, ct := range namedChunks {
		unpack, ok := pipelineUnpackers[ct]
		if !ok {
			continue
		}
		for _, name := range a.ResourceNames(ct) {
			js.Submit(systems.JobTask{
				Name: fmt.Sprintf("unpack %s '%s'", ct, name),
				Run: func() error {
					_, err := unpack(a, in.unpackInfo(name, dev))
					return err
				},
			})
		}
	}
	_ = js.Shutdown()
}

func (in *inspector) inspectPipeline(a *archive.Archive, dev *testbed.Device, name string, unpack unpackFunc) {
	obj, err := unpack(a, in.unpackInfo(name, dev))
	if err != nil {
		fmt.Fprintln(in.out, errorStyle.Render(fmt.Sprintf("%s: %s", name, err)))
		return
	}
	pso := obj.(*testbed.PipelineState)
	ci := pso.CreateInfo.Base()

	sigs := make([]*bindings.Signature, 0, len(ci.ResourceSignatures))
	for _, sig := range ci.ResourceSignatures {
		sigs = append(sigs, sig.(*bindings.Signature))
	}

	numRenderTargets := in.cfg.Bindings.NumRenderTargets
	if gfx, ok := pso.CreateInfo.(*metadata.GraphicsPipelineStateCreateInfo); ok {
		numRenderTargets = uint32(gfx.GraphicsPipeline.NumRenderTargets)
	}

	resolved := in.resolver.GetPipelineResourceBindings(&bindings.PipelineResourceBindingAttribs{
		Signatures:                 sigs,
		DeviceType:                 dev.RenderDeviceType(),
		NumRenderTargets:           numRenderTargets,
		MaxBufferFunctionArguments: in.cfg.Bindings.MaxBufferFunctionArguments,
	})

	fmt.Fprintln(in.out, sectionStyle.Render(fmt.Sprintf("%s pipeline '%s', %d signatures", pso.Desc.PipelineType, name, len(sigs))))
	for _, b := range resolved {
		fmt.Fprintf(in.out, "  %-24s %-16s space %-3d register %-4d size %-4d %s\n",
			b.Name, b.ResourceType, b.Space, b.Register, b.ArraySize, b.ShaderStages)
	}

	if a.DeviceType() != metadata.DeviceTypeVulkan {
		return
	}
	sets, err := vulkan.DescriptorSetConfigs(resolved)
	if err != nil {
		fmt.Fprintln(in.out, errorStyle.Render(fmt.Sprintf("  descriptor sets: %s", err)))
		return
	}
	for _, set := range sets {
		fmt.Fprintln(in.out, dimStyle.Render(fmt.Sprintf("  set %d: %d bindings", set.Set, set.CreateInfo().BindingCount)))
	}
}
