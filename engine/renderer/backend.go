package renderer

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

/**
 * @brief The device object factory the archive unpacks into. Implementations wrap a
 * native graphics API; each entry point either returns a live object or an error.
 */
type RenderDevice interface {
	CreateShader(ci *metadata.ShaderCreateInfo) (metadata.Shader, error)
	CreateRenderPass(desc *metadata.RenderPassDesc) (metadata.RenderPass, error)
	CreatePipelineResourceSignature(ci *metadata.ResourceSignatureCreateInfo) (metadata.PipelineResourceSignature, error)
	CreateGraphicsPipelineState(ci *metadata.GraphicsPipelineStateCreateInfo) (metadata.PipelineState, error)
	CreateComputePipelineState(ci *metadata.ComputePipelineStateCreateInfo) (metadata.PipelineState, error)
	CreateTilePipelineState(ci *metadata.TilePipelineStateCreateInfo) (metadata.PipelineState, error)
	CreateRayTracingPipelineState(ci *metadata.RayTracingPipelineStateCreateInfo) (metadata.PipelineState, error)
}
