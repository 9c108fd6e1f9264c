package metadata

type AttachmentLoadOp uint8

const (
	AttachmentLoadOpLoad AttachmentLoadOp = iota
	AttachmentLoadOpClear
	AttachmentLoadOpDiscard
)

type AttachmentStoreOp uint8

const (
	AttachmentStoreOpStore AttachmentStoreOp = iota
	AttachmentStoreOpDiscard
)

/** @brief Resource state bits used for attachment layout transitions. */
type ResourceState uint32

const (
	ResourceStateUnknown         ResourceState = 0
	ResourceStateRenderTarget    ResourceState = 1 << 5
	ResourceStateDepthWrite      ResourceState = 1 << 7
	ResourceStateDepthRead       ResourceState = 1 << 8
	ResourceStateShaderResource  ResourceState = 1 << 9
	ResourceStateInputAttachment ResourceState = 1 << 18
	ResourceStatePresent         ResourceState = 1 << 16
)

type RenderPassAttachmentDesc struct {
	Format         uint16
	SampleCount    uint8
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialState   ResourceState
	FinalState     ResourceState
}

type AttachmentReference struct {
	AttachmentIndex uint32
	State           ResourceState
}

type SubpassDesc struct {
	InputAttachments        []AttachmentReference
	RenderTargetAttachments []AttachmentReference
	/** @brief Nil when the subpass has no depth-stencil attachment. */
	DepthStencilAttachment *AttachmentReference
	PreserveAttachments    []uint32
}

type SubpassDependencyDesc struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  uint32
	DstStageMask  uint32
	SrcAccessMask uint32
	DstAccessMask uint32
}

type RenderPassDesc struct {
	Name         string
	Attachments  []RenderPassAttachmentDesc
	Subpasses    []SubpassDesc
	Dependencies []SubpassDependencyDesc
}

type RenderPass interface {
	GetDesc() *RenderPassDesc
}
