// Package opengl implements the resource interfaces on OpenGL 4.1
// core: GPU state sequencing, shader programs with name-based uniform
// binding, interleaved-vertex meshes and depth-only framebuffers for
// the shadow cascades.
package opengl

import (
	"Armada3D/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Context tracks the fixed-function state so redundant gl calls are
// skipped. One Context per window; must be used from the thread that
// owns the GL context.
type Context struct {
	depthMask bool
	depthTest bool
	blending  bool

	// Default framebuffer viewport, restored after shadow passes.
	width, height int32
}

func NewContext(width, height int32) (*Context, error) {
	if err := gl.Init(); err != nil {
		logger.Log.Error("OpenGL initialization failed", zap.Error(err))
		return nil, err
	}
	logger.Log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	gl.Enable(gl.SCISSOR_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthFunc(gl.LEQUAL)

	c := &Context{width: width, height: height}
	c.SetDepthTest(true)
	c.SetDepthMask(true)
	return c, nil
}

func (c *Context) Resize(width, height int32) {
	c.width = width
	c.height = height
}

func (c *Context) SetDepthMask(enabled bool) {
	if c.depthMask == enabled {
		return
	}
	c.depthMask = enabled
	gl.DepthMask(enabled)
}

func (c *Context) SetDepthTest(enabled bool) {
	if c.depthTest == enabled {
		return
	}
	c.depthTest = enabled
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (c *Context) SetBlending(enabled bool) {
	if c.blending == enabled {
		return
	}
	c.blending = enabled
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (c *Context) SetViewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (c *Context) SetScissor(x, y, width, height int32) {
	gl.Scissor(x, y, width, height)
}

func (c *Context) SetClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (c *Context) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask == 0 {
		return
	}
	// Clearing writes through the depth mask, so force it on for the
	// duration.
	if depth && !c.depthMask {
		gl.DepthMask(true)
		defer gl.DepthMask(false)
	}
	gl.Clear(mask)
}

func (c *Context) BindDefaultFramebuffer() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, c.width, c.height)
	gl.Scissor(0, 0, c.width, c.height)
}
