/*
Package bindings computes the final native binding locations (registers, spaces,
descriptor sets, argument indices) of the resources declared by an ordered set of
resource signatures.

Every backend follows its own layout rule, so the package keeps one binding model per
native API and selects it from the requested metadata.RenderDeviceType:

	D3D11        register file with per-stage ranges; UAVs share slots with render targets
	D3D12        registers plus spaces; each signature owns a contiguous block of spaces
	GL, GLES     flat binding ranges without spaces
	Vulkan       descriptor sets; one or two sets per signature
	Metal        argument indices bounded by the per-function buffer limit

Any other device type resolves to an empty list.
*/
package bindings
