package archive

import (
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// DefaultSRBAllocationGranularity is used for signatures unpacked as pipeline dependencies.
const DefaultSRBAllocationGranularity uint32 = 1

type ShaderUnpackInfo struct {
	Device renderer.RenderDevice
	// Index is the shader ordinal in the archive's shader table.
	Index uint32
}

type RenderPassUnpackInfo struct {
	Name   string
	Device renderer.RenderDevice

	// ModifyRenderPassDesc, when set, may change the descriptor before creation.
	// The result is then not cached.
	ModifyRenderPassDesc func(desc *metadata.RenderPassDesc, userData any)
	UserData             any
}

type ResourceSignatureUnpackInfo struct {
	Name                     string
	Device                   renderer.RenderDevice
	SRBAllocationGranularity uint32

	ModifySignatureDesc func(desc *metadata.PipelineResourceSignatureDesc, userData any)
	UserData            any
}

// ModifyPipelineStateFunc receives the create info of the pipeline kind being
// unpacked. Only tuning fields may change; any other change fails the unpack.
type ModifyPipelineStateFunc func(ci metadata.PipelineCreateInfo, userData any)

type PipelineStateUnpackInfo struct {
	Name   string
	Device renderer.RenderDevice

	SRBAllocationGranularity uint32
	ImmediateContextMask     uint64
	Cache                    metadata.PipelineStateCache

	ModifyPipelineStateCreateInfo ModifyPipelineStateFunc
	UserData                      any
}
