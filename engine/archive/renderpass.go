package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/serialization"
)

// UnpackRenderPass creates the named render pass on info.Device.
func (a *Archive) UnpackRenderPass(info *RenderPassUnpackInfo) (metadata.RenderPass, error) {
	rp, err := a.unpackRenderPass(info)
	if err != nil {
		return nil, a.fail(err)
	}
	return rp, nil
}

func (a *Archive) unpackRenderPass(info *RenderPassUnpackInfo) (metadata.RenderPass, error) {
	if info == nil || info.Device == nil {
		return nil, fmt.Errorf("render pass: %w", core.ErrNilDevice)
	}
	load := func() (metadata.RenderPass, error) {
		return a.createRenderPass(info)
	}
	if info.ModifyRenderPassDesc != nil {
		return load()
	}
	return a.renderPassCache.Load(info.Name, load)
}

func (a *Archive) createRenderPass(info *RenderPassUnpackInfo) (metadata.RenderPass, error) {
	arena := containers.NewArena(0)
	defer arena.Release()

	name, data, err := a.loadResourceData(a.renderPasses, info.Name, arena, "Render pass")
	if err != nil {
		return nil, err
	}

	s := serialization.NewReadSerializer(data)
	var header DataHeader
	header.serialize(s)
	if s.Err() != nil || header.Type != ChunkTypeRenderPass {
		return nil, fmt.Errorf("render pass '%s': %w", name, core.ErrInvalidHeader)
	}

	desc := &metadata.RenderPassDesc{}
	serializeRenderPassDesc(s, desc)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("render pass '%s': %w: %v", name, core.ErrInvalidHeader, err)
	}
	if !s.IsEnd() {
		return nil, fmt.Errorf("render pass '%s': %w: trailing data", name, core.ErrInvalidHeader)
	}
	desc.Name = name

	if info.ModifyRenderPassDesc != nil {
		info.ModifyRenderPassDesc(desc, info.UserData)
	}

	rp, err := info.Device.CreateRenderPass(desc)
	if err != nil {
		return nil, fmt.Errorf("render pass '%s': %w: %w", name, core.ErrDeviceCreation, err)
	}
	if rp == nil {
		return nil, fmt.Errorf("render pass '%s': %w", name, core.ErrDeviceCreation)
	}
	return rp, nil
}
