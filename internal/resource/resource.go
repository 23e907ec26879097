// Package resource is the boundary to the collaborators the rendering
// core does not own: mesh geometry, shader programs, GPU state and
// framebuffers. The scene package only ever sees these interfaces; the
// opengl package provides the live implementations and the tests
// provide recording fakes.
package resource

// UniformSource produces a uniform value on demand. Values are bound by
// name; a shader silently ignores names it has no location for, so the
// scene can always offer its full uniform set.
type UniformSource func() interface{}

// Shader is a compiled, linked shader program.
type Shader interface {
	Bind()
	BindUniforms(uniforms map[string]UniformSource)
}

// Mesh is a renderable geometry resource. Triangle counts are split by
// transparency so the scene can decide which passes the mesh
// contributes to without touching vertex data.
type Mesh interface {
	// Size is the bounding radius around the mesh origin.
	Size() float32
	OpaqueTriangleCount() int
	TransparentTriangleCount() int
	// Render draws with full attributes; wireframe selects line mode.
	Render(wireframe bool)
	// RenderDepth draws positions only, for shadow map passes.
	RenderDepth()
}

// Framebuffer is an offscreen depth render target (one per light per
// shadow cascade).
type Framebuffer interface {
	// Bind makes the framebuffer the render target and sizes the
	// viewport to it.
	Bind()
	Resolution() int32
	// BindDepthTexture attaches the depth texture to a sampler unit for
	// the subsequent color passes.
	BindDepthTexture(unit int32)
}

// FramebufferFactory creates depth targets. Kept separate from Context
// so scene setup can run against a fake without a GPU.
type FramebufferFactory interface {
	NewDepthFramebuffer(resolution int32) (Framebuffer, error)
}

// Context carries the fixed-function GPU state the per-frame render
// algorithm sequences: depth mask/test, blending, clears, viewport.
type Context interface {
	SetDepthMask(enabled bool)
	SetDepthTest(enabled bool)
	SetBlending(enabled bool)
	SetViewport(x, y, width, height int32)
	SetScissor(x, y, width, height int32)
	SetClearColor(r, g, b, a float32)
	Clear(color, depth bool)
	BindDefaultFramebuffer()
}

// Uniform names offered by the scene. Implementations resolve them to
// locations once and skip the rest.
const (
	UniformModelMatrix           = "u_modelMatrix"
	UniformNormalMatrix          = "u_normalMatrix"
	UniformViewMatrix            = "u_viewMatrix"
	UniformProjectionMatrix      = "u_projMatrix"
	UniformViewProjectionMatrix  = "u_viewProjMatrix"
	UniformInverseViewProjection = "u_viewDirectionProjectionInverse"
	UniformCameraPosition        = "u_eyePos"
	UniformLightDirections       = "u_dirLights"
	UniformLightColors           = "u_dirLightColors"
	UniformNumLights             = "u_numDirLights"
	UniformShadowMaps            = "u_shadowMaps"
	UniformShadowMatrices        = "u_shadowMatrices"
	UniformNumShadowRanges       = "u_numRanges"
	UniformLODFactor             = "u_lod"
	UniformLuminosityFactors     = "u_luminosityFactors"
	UniformColor                 = "u_color"
	UniformBillboardSize         = "u_billboardSize"
	UniformShift                 = "u_shift"
	UniformFarthestZ             = "u_farthestZ"
)
