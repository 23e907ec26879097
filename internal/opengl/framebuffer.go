package opengl

import (
	"fmt"

	"Armada3D/internal/logger"
	"Armada3D/internal/resource"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// DepthFramebuffer is an offscreen depth-only render target, one per
// light per shadow cascade. The depth texture is set up for hardware
// comparison so the object shader can sample it through
// sampler2DShadow.
type DepthFramebuffer struct {
	fbo        uint32
	texture    uint32
	resolution int32
}

func (f *DepthFramebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.Viewport(0, 0, f.resolution, f.resolution)
	gl.Scissor(0, 0, f.resolution, f.resolution)
}

func (f *DepthFramebuffer) Resolution() int32 { return f.resolution }

func (f *DepthFramebuffer) BindDepthTexture(unit int32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.ActiveTexture(gl.TEXTURE0)
}

// Delete releases the framebuffer and its depth texture.
func (f *DepthFramebuffer) Delete() {
	gl.DeleteFramebuffers(1, &f.fbo)
	gl.DeleteTextures(1, &f.texture)
}

// FramebufferFactory creates depth targets on the live GL context.
type FramebufferFactory struct{}

func (FramebufferFactory) NewDepthFramebuffer(resolution int32) (resource.Framebuffer, error) {
	f := &DepthFramebuffer{resolution: resolution}

	gl.GenTextures(1, &f.texture)
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, resolution, resolution,
		0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.GenFramebuffers(1, &f.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, f.texture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.Delete()
		err := fmt.Errorf("depth framebuffer incomplete: 0x%x", status)
		logger.Log.Error("Shadow map framebuffer creation failed",
			zap.Int32("resolution", resolution), zap.Error(err))
		return nil, err
	}
	return f, nil
}
