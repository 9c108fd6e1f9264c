package archive

import (
	"bytes"
	"fmt"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// UnpackResourceSignature creates the named resource signature on info.Device.
func (a *Archive) UnpackResourceSignature(info *ResourceSignatureUnpackInfo) (metadata.PipelineResourceSignature, error) {
	sig, err := a.unpackResourceSignature(info, false)
	if err != nil {
		return nil, a.fail(err)
	}
	return sig, nil
}

func (a *Archive) unpackResourceSignature(info *ResourceSignatureUnpackInfo, implicit bool) (metadata.PipelineResourceSignature, error) {
	if info == nil || info.Device == nil {
		return nil, fmt.Errorf("resource signature: %w", core.ErrNilDevice)
	}
	load := func() (metadata.PipelineResourceSignature, error) {
		return a.createResourceSignature(info, implicit)
	}
	if info.ModifySignatureDesc != nil {
		return load()
	}
	return a.signatureCache.Load(info.Name, load)
}

func (a *Archive) createResourceSignature(info *ResourceSignatureUnpackInfo, implicit bool) (metadata.PipelineResourceSignature, error) {
	arena := containers.NewArena(0)
	defer arena.Release()

	name, data, err := a.loadResourceData(a.signatures, info.Name, arena, "Resource signature")
	if err != nil {
		return nil, err
	}

	s := serialization.NewReadSerializer(data)
	var header DataHeader
	header.serialize(s)
	if s.Err() != nil || header.Type != ChunkTypeResourceSignature {
		return nil, fmt.Errorf("resource signature '%s': %w", name, core.ErrInvalidHeader)
	}

	ci := &metadata.ResourceSignatureCreateInfo{Implicit: implicit}
	serializePRSDesc(s, &ci.Desc)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("resource signature '%s': %w: %v", name, core.ErrInvalidHeader, err)
	}
	if !s.IsEnd() {
		return nil, fmt.Errorf("resource signature '%s': %w: trailing data", name, core.ErrInvalidHeader)
	}
	ci.Desc.Name = name
	ci.Desc.SRBAllocationGranularity = info.SRBAllocationGranularity

	payload, err := a.deviceSpecificData(&header, arena, "Resource signature")
	if err != nil {
		return nil, err
	}
	ci.InternalData = bytes.Clone(payload)

	if info.ModifySignatureDesc != nil {
		info.ModifySignatureDesc(&ci.Desc, info.UserData)
	}

	sig, err := info.Device.CreatePipelineResourceSignature(ci)
	if err != nil {
		return nil, fmt.Errorf("resource signature '%s': %w: %w", name, core.ErrDeviceCreation, err)
	}
	if sig == nil {
		return nil, fmt.Errorf("resource signature '%s': %w", name, core.ErrDeviceCreation)
	}
	return sig, nil
}
