package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// UnpackShader creates the shader with the given ordinal, or returns the cached one.
func (a *Archive) UnpackShader(info *ShaderUnpackInfo) (metadata.Shader, error) {
	if info == nil || info.Device == nil {
		return nil, a.fail(fmt.Errorf("shader: %w", core.ErrNilDevice))
	}
	shaders, err := a.shaders.LoadShaders(info.Device, []uint32{info.Index})
	if err != nil {
		return nil, a.fail(err)
	}
	return shaders[0], nil
}
