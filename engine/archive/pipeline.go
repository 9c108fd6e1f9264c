package archive

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

/**
 * @brief Working state of one pipeline unpack. Everything here, the arena
 * included, is dropped when the unpack call returns.
 */
type pipelineData[P metadata.PipelineCreateInfo] struct {
	createInfo     P
	arena          *containers.Arena
	header         DataHeader
	signatures     pipelineSignatures
	renderPassName string
	// rayTracingShaders holds the shader slots of a ray tracing record until
	// the pipeline's shaders are loaded.
	rayTracingShaders rayTracingShaderIndices
	// objects keeps every dependency created for this pipeline.
	objects []any
}

func (pd *pipelineData[P]) release() {
	pd.arena.Release()
	pd.objects = nil
}

/** @brief Everything that differs between the pipeline kinds. */
type pipelineKind[P metadata.PipelineCreateInfo] struct {
	chunk         ChunkType
	resTypeName   string
	pipelineTypes []metadata.PipelineType

	newCreateInfo func() P
	index         func(a *Archive) *NamedResourceIndex
	cache         func(a *Archive) *ResourceCache[metadata.PipelineState]
	// serialize decodes the kind-specific tail of the record.
	serialize func(s *serialization.Serializer, pd *pipelineData[P])
	// resolve creates kind-specific dependencies ahead of the signatures. Optional.
	resolve       func(a *Archive, info *PipelineStateUnpackInfo, pd *pipelineData[P]) error
	assignShaders func(pd *pipelineData[P], shaders []metadata.Shader) error
	create        func(device renderer.RenderDevice, ci P) (metadata.PipelineState, error)
}

func unpackPipeline[P metadata.PipelineCreateInfo](a *Archive, info *PipelineStateUnpackInfo, kind *pipelineKind[P]) (metadata.PipelineState, error) {
	if info == nil || info.Device == nil {
		return nil, a.fail(fmt.Errorf("%s: %w", kind.resTypeName, core.ErrNilDevice))
	}

	load := func() (metadata.PipelineState, error) {
		return createPipeline(a, info, kind)
	}

	var pso metadata.PipelineState
	var err error
	if info.ModifyPipelineStateCreateInfo != nil {
		pso, err = load()
	} else {
		pso, err = kind.cache(a).Load(info.Name, load)
	}
	if err != nil {
		return nil, a.fail(err)
	}
	return pso, nil
}

func createPipeline[P metadata.PipelineCreateInfo](a *Archive, info *PipelineStateUnpackInfo, kind *pipelineKind[P]) (metadata.PipelineState, error) {
	pd := &pipelineData[P]{
		createInfo: kind.newCreateInfo(),
		arena:      containers.NewArena(0),
	}
	defer pd.release()

	if err := readPipelineData(a, info.Name, kind, pd); err != nil {
		return nil, err
	}
	base := pd.createInfo.Base()

	if kind.resolve != nil {
		if err := kind.resolve(a, info, pd); err != nil {
			return nil, err
		}
	}
	if err := a.createResourceSignatures(base, &pd.signatures, info.Device, &pd.objects); err != nil {
		return nil, err
	}

	payload, err := a.deviceSpecificData(&pd.header, pd.arena, kind.resTypeName)
	if err != nil {
		return nil, fmt.Errorf("%s '%s': %w", kind.resTypeName, base.PSODesc.Name, err)
	}
	var indices []uint32
	s := serialization.NewReadSerializer(payload)
	serializeShaderIndices(s, &indices)
	if s.Err() != nil || !s.IsEnd() {
		return nil, fmt.Errorf("%s '%s': invalid shader list: %w", kind.resTypeName, base.PSODesc.Name, core.ErrInvalidHeader)
	}

	shaders, err := a.shaders.LoadShaders(info.Device, indices)
	if err != nil {
		return nil, fmt.Errorf("%s '%s': failed to load shaders: %w", kind.resTypeName, base.PSODesc.Name, err)
	}
	for _, shader := range shaders {
		pd.objects = append(pd.objects, shader)
	}
	if err := kind.assignShaders(pd, shaders); err != nil {
		return nil, fmt.Errorf("%s '%s': %w", kind.resTypeName, base.PSODesc.Name, err)
	}

	if err := modifyPipelineStateCreateInfo(pd.createInfo, info); err != nil {
		return nil, fmt.Errorf("%s '%s': %w", kind.resTypeName, base.PSODesc.Name, err)
	}

	base.PSODesc.SRBAllocationGranularity = info.SRBAllocationGranularity
	base.PSODesc.ImmediateContextMask = info.ImmediateContextMask
	base.PSOCache = info.Cache

	pso, err := kind.create(info.Device, pd.createInfo)
	if err != nil {
		return nil, fmt.Errorf("%s '%s': %w: %w", kind.resTypeName, base.PSODesc.Name, core.ErrDeviceCreation, err)
	}
	if pso == nil {
		return nil, fmt.Errorf("%s '%s': %w", kind.resTypeName, base.PSODesc.Name, core.ErrDeviceCreation)
	}
	return pso, nil
}

func readPipelineData[P metadata.PipelineCreateInfo](a *Archive, name string, kind *pipelineKind[P], pd *pipelineData[P]) error {
	storedName, data, err := a.loadResourceData(kind.index(a), name, pd.arena, kind.resTypeName)
	if err != nil {
		return err
	}

	s := serialization.NewReadSerializer(data)
	pd.header.serialize(s)
	if s.Err() != nil || pd.header.Type != kind.chunk {
		return fmt.Errorf("invalid %s header in the archive for '%s': %w", kind.resTypeName, storedName, core.ErrInvalidHeader)
	}

	base := pd.createInfo.Base()
	serializePipelineStateCreateInfo(s, base, &pd.signatures)
	if err := checkSignatureCount(&pd.signatures); err != nil {
		return fmt.Errorf("%s '%s': %w", kind.resTypeName, storedName, err)
	}
	kind.serialize(s, pd)
	if err := s.Err(); err != nil {
		return fmt.Errorf("%s '%s': %w: %v", kind.resTypeName, storedName, core.ErrInvalidHeader, err)
	}
	if !s.IsEnd() {
		return fmt.Errorf("%s '%s': %w: trailing data", kind.resTypeName, storedName, core.ErrInvalidHeader)
	}
	if !slices.Contains(kind.pipelineTypes, base.PSODesc.PipelineType) {
		return fmt.Errorf("%s '%s': unexpected pipeline type %s: %w", kind.resTypeName, storedName, base.PSODesc.PipelineType, core.ErrInvalidHeader)
	}

	base.PSODesc.Name = storedName
	// shader byte code in the archive already has final bindings
	base.Flags |= metadata.PSOCreateFlagDontRemapShaderResources
	if pd.signatures.Count == 0 {
		pd.signatures.Count = 1
		base.Flags |= metadata.PSOCreateFlagImplicitSignature0
	}
	return nil
}

func (a *Archive) createResourceSignatures(base *metadata.PipelineStateCreateInfo, sigs *pipelineSignatures, device renderer.RenderDevice, objects *[]any) error {
	implicit := base.Flags&metadata.PSOCreateFlagImplicitSignature0 != 0
	base.ResourceSignatures = make([]metadata.PipelineResourceSignature, sigs.Count)
	// names of the signatures placed so far, by binding index
	var slots [metadata.MaxResourceSignatures]string
	for i := range base.ResourceSignatures {
		sig, err := a.unpackResourceSignature(&ResourceSignatureUnpackInfo{
			Name:                     sigs.Names[i],
			Device:                   device,
			SRBAllocationGranularity: DefaultSRBAllocationGranularity,
		}, implicit)
		if err != nil {
			return fmt.Errorf("pipeline '%s': failed to unpack resource signature '%s': %w", base.PSODesc.Name, sigs.Names[i], err)
		}
		base.ResourceSignatures[i] = sig
		*objects = append(*objects, sig)

		idx := sig.GetDesc().BindingIndex
		if int(idx) >= len(slots) {
			return fmt.Errorf("pipeline '%s': signature '%s' has binding index %d, the maximum is %d: %w",
				base.PSODesc.Name, sigs.Names[i], idx, len(slots)-1, core.ErrInvalidHeader)
		}
		if prev := slots[idx]; prev != "" {
			return fmt.Errorf("pipeline '%s': signatures '%s' and '%s' share binding index %d: %w",
				base.PSODesc.Name, prev, sigs.Names[i], idx, core.ErrInvalidHeader)
		}
		slots[idx] = sigs.Names[i]
	}
	return nil
}

// modifyPipelineStateCreateInfo runs the caller's hook and rejects any change
// to the pipeline type, resource layout or signatures.
func modifyPipelineStateCreateInfo(ci metadata.PipelineCreateInfo, info *PipelineStateUnpackInfo) error {
	if info.ModifyPipelineStateCreateInfo == nil {
		return nil
	}

	base := ci.Base()
	pipelineType := base.PSODesc.PipelineType
	layout := base.PSODesc.ResourceLayout.Clone()
	signatures := slices.Clone(base.ResourceSignatures)

	info.ModifyPipelineStateCreateInfo(ci, info.UserData)

	if pipelineType != base.PSODesc.PipelineType {
		return fmt.Errorf("modifying pipeline type is not allowed: %w", core.ErrModificationNotAllowed)
	}
	if !layout.Equal(&base.PSODesc.ResourceLayout) {
		return fmt.Errorf("modifying resource layout is not allowed: %w", core.ErrModificationNotAllowed)
	}
	if !slices.EqualFunc(signatures, base.ResourceSignatures, sameObject[metadata.PipelineResourceSignature]) {
		return fmt.Errorf("modifying resource signatures is not allowed: %w", core.ErrModificationNotAllowed)
	}
	return nil
}

// sameObject reports whether a and b hold the same object. Values of
// non-comparable dynamic types never match.
func sameObject[T any](a, b T) bool {
	va, vb := any(a), any(b)
	if va == nil || vb == nil {
		return va == nil && vb == nil
	}
	ta := reflect.TypeOf(va)
	if ta != reflect.TypeOf(vb) || !ta.Comparable() {
		return false
	}
	return va == vb
}
