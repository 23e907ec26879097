package scene

import (
	"errors"

	"Armada3D/internal/logger"
	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

var errSceneCameraRebound = errors.New("scene camera already bound to a different scene")

// LODConfiguration maps detail levels to the minimum apparent size (in
// pixels) at which they are used, and caps the highest enabled level.
// Levels need not be contiguous.
type LODConfiguration struct {
	Thresholds      map[int]float32
	MaxEnabledLevel int
}

func DefaultLODConfiguration() LODConfiguration {
	return LODConfiguration{
		Thresholds: map[int]float32{
			0: 0,
			1: 30,
			2: 60,
			3: 250,
			4: 400,
		},
		MaxEnabledLevel: 4,
	}
}

// ShadowMappingParams configures the cascaded shadow passes.
type ShadowMappingParams struct {
	// Shader is the depth-only program bound for every shadow pass.
	Shader resource.Shader
	// Ranges are the cascade distances, ascending. One depth target is
	// created per (shadow-casting light, range) pair.
	Ranges     []float32
	Resolution int32
	// FirstSamplerSlot is the first fixed texture unit the shadow maps
	// are bound to for the color passes.
	FirstSamplerSlot int32
}

func DefaultShadowMappingParams(shader resource.Shader) ShadowMappingParams {
	return ShadowMappingParams{
		Shader:           shader,
		Ranges:           []float32{40, 150, 600},
		Resolution:       2048,
		FirstSamplerSlot: 4,
	}
}

// Scene owns the node forest, the camera and light lists and the
// per-frame render algorithm: shadow passes, then background, opaque
// and transparent color passes. Created once at level load, torn down
// when the level unloads.
type Scene struct {
	backgroundNodes []*Node
	nodes           []*Node
	cameras         []*Camera
	lights          []*LightSource

	camera *SceneCamera

	lod        LODConfiguration
	clearColor [4]float32

	left, bottom  int32
	width, height int32

	shadowMappingEnabled bool
	shadowParams         ShadowMappingParams

	// frame is the scene-wide counter the per-node caches are stamped
	// against; advancing it invalidates every cached cascade transform
	// without a reset sweep.
	frame             uint64
	trianglesRendered int

	uniforms       map[string]resource.UniformSource
	shadowUniforms map[string]resource.UniformSource

	// Active shadow pass state, read by the uniform closures.
	activeLight *LightSource
	activeRange float32
}

func NewScene(left, bottom, width, height int32, clearColor [4]float32, lod LODConfiguration) *Scene {
	logger.Init()
	s := &Scene{
		lod:        lod,
		clearColor: clearColor,
		left:       left,
		bottom:     bottom,
		width:      width,
		height:     height,
	}
	s.camera = NewSceneCamera(float32(width)/float32(height), 60)
	s.camera.scene = s
	s.buildUniformSources()
	return s
}

func (s *Scene) Camera() *SceneCamera   { return s.camera }
func (s *Scene) LOD() LODConfiguration  { return s.lod }
func (s *Scene) Frame() uint64          { return s.frame }
func (s *Scene) TrianglesRendered() int { return s.trianglesRendered }
func (s *Scene) Lights() []*LightSource { return s.lights }

// SetSceneCamera swaps in an externally created scene camera. Binding a
// camera already owned by another scene is a lifecycle bug, reported
// loudly.
func (s *Scene) SetSceneCamera(sc *SceneCamera) error {
	if err := sc.attachScene(s); err != nil {
		return err
	}
	s.camera = sc
	return nil
}

// AddObject attaches a top-level node.
func (s *Scene) AddObject(n *Node) *Node {
	n.setScene(s)
	s.nodes = append(s.nodes, n)
	return n
}

// AddBackgroundObject attaches a node to the background list, rendered
// first with depth testing and writes disabled so it can never occlude
// or be occluded.
func (s *Scene) AddBackgroundObject(n *Node) *Node {
	n.setScene(s)
	s.backgroundNodes = append(s.backgroundNodes, n)
	return n
}

func (s *Scene) AddCamera(c *Camera) { s.cameras = append(s.cameras, c) }

func (s *Scene) AddLightSource(l *LightSource) { s.lights = append(s.lights, l) }

func (s *Scene) nodesWithViews() []*Node {
	var out []*Node
	for _, n := range s.nodes {
		if n.HasViews() {
			out = append(out, n)
		}
	}
	return out
}

// EnableShadowMapping allocates the per-light, per-cascade depth
// targets and turns the shadow passes on.
func (s *Scene) EnableShadowMapping(factory resource.FramebufferFactory, params ShadowMappingParams) error {
	for _, l := range s.lights {
		if !l.castsShadows {
			continue
		}
		if err := l.createShadowMaps(factory, len(params.Ranges), params.Resolution); err != nil {
			return err
		}
	}
	s.shadowParams = params
	s.shadowMappingEnabled = true
	return nil
}

// ResizeViewport updates the scene's screen rectangle and recomputes
// every camera's perspective matrix for the new aspect: the scene
// camera, the registered cameras and every chase view bound to a node.
// View cameras live on nodes, not in the camera list, so the node trees
// are walked too.
func (s *Scene) ResizeViewport(width, height int32) {
	s.width = width
	s.height = height
	aspect := float32(width) / float32(height)
	s.camera.SetAspect(aspect)
	if fc := s.camera.followedCamera; fc != nil {
		fc.SetAspect(aspect)
	}
	for _, c := range s.cameras {
		c.SetAspect(aspect)
	}
	for _, n := range s.nodes {
		n.resizeViews(aspect)
	}
	for _, n := range s.backgroundNodes {
		n.resizeViews(aspect)
	}
}

// cleanup sweeps nodes marked for deletion (and expired particles) from
// both node lists before any traversal touches them.
func (s *Scene) cleanup() {
	s.nodes = sweep(s.nodes)
	s.backgroundNodes = sweep(s.backgroundNodes)
}

func sweep(nodes []*Node) []*Node {
	kept := nodes[:0]
	for _, n := range nodes {
		if n.shouldBeSwept() {
			continue
		}
		n.cleanup()
		kept = append(kept, n)
	}
	return kept
}

// Render draws one frame: cleanup sweep, camera update, shadow map
// passes, then the background / opaque / transparent sequence. One
// atomic unit of work per frame; it always runs to completion.
func (s *Scene) Render(ctx resource.Context, dt float32) {
	s.frame++
	s.cleanup()
	s.camera.Update(dt)
	s.trianglesRendered = 0

	params := RenderParameters{
		Context:        ctx,
		Scene:          s,
		Camera:         s.camera,
		ViewportWidth:  float32(s.width),
		ViewportHeight: float32(s.height),
		Dt:             dt,
	}

	if s.shadowMappingEnabled && s.shadowParams.Shader != nil {
		s.renderShadowMaps(ctx, &params)
	}

	ctx.BindDefaultFramebuffer()
	ctx.SetViewport(s.left, s.bottom, s.width, s.height)
	ctx.SetScissor(s.left, s.bottom, s.width, s.height)
	ctx.SetClearColor(s.clearColor[0], s.clearColor[1], s.clearColor[2], s.clearColor[3])
	ctx.SetDepthMask(true)
	ctx.Clear(true, true)

	// Background: never occludes, never occluded.
	ctx.SetDepthTest(false)
	ctx.SetDepthMask(false)
	ctx.SetBlending(true)
	params.DepthMask = true
	for _, n := range s.backgroundNodes {
		s.trianglesRendered += n.CascadeRender(&params)
	}
	params.DepthMask = false
	for _, n := range s.backgroundNodes {
		s.trianglesRendered += n.CascadeRender(&params)
	}

	// Opaque pass: depth writes on, blending off.
	ctx.SetDepthTest(true)
	ctx.SetDepthMask(true)
	ctx.SetBlending(false)
	params.DepthMask = true
	for _, n := range s.nodes {
		s.trianglesRendered += n.CascadeRender(&params)
	}

	// Transparent pass: depth test stays on, writes off, blending on.
	// The only correct order for a forward renderer that does not sort
	// transparent geometry by depth.
	ctx.SetDepthMask(false)
	ctx.SetBlending(true)
	params.DepthMask = false
	for _, n := range s.nodes {
		s.trianglesRendered += n.CascadeRender(&params)
	}
}

// renderShadowMaps runs the depth-only passes: per shadow-casting
// light, per cascade in ascending range order, then binds every shadow
// map to its fixed sampler slot for the color passes.
func (s *Scene) renderShadowMaps(ctx resource.Context, params *RenderParameters) {
	s.shadowParams.Shader.Bind()
	ctx.SetDepthTest(true)
	ctx.SetDepthMask(true)
	ctx.SetBlending(false)

	for _, light := range s.lights {
		if !light.castsShadows {
			continue
		}
		s.activeLight = light
		for i, r := range s.shadowParams.Ranges {
			fb := light.ShadowMap(i)
			if fb == nil {
				continue
			}
			s.activeRange = r
			fb.Bind()
			ctx.Clear(false, true)
			s.shadowParams.Shader.BindUniforms(s.shadowUniforms)
			for _, n := range s.nodes {
				n.CascadeRenderShadowMap(params)
			}
		}
	}

	unit := s.shadowParams.FirstSamplerSlot
	for _, light := range s.lights {
		if !light.castsShadows {
			continue
		}
		for i := range s.shadowParams.Ranges {
			if fb := light.ShadowMap(i); fb != nil {
				fb.BindDepthTexture(unit)
			}
			unit++
		}
	}
	s.activeLight = nil
}

// ShadowShader is the depth program drawables bind their model matrix
// against during shadow passes.
func (s *Scene) ShadowShader() resource.Shader { return s.shadowParams.Shader }

// UniformSources is the scene-level uniform set offered to every
// drawable's shader by name; shaders ignore the names they do not use.
func (s *Scene) UniformSources() map[string]resource.UniformSource {
	return s.uniforms
}

func (s *Scene) buildUniformSources() {
	s.uniforms = map[string]resource.UniformSource{
		resource.UniformViewMatrix: func() interface{} {
			return s.camera.ViewMatrix()
		},
		resource.UniformProjectionMatrix: func() interface{} {
			return s.camera.ProjectionMatrix()
		},
		resource.UniformViewProjectionMatrix: func() interface{} {
			return s.camera.ViewProjectionMatrix()
		},
		resource.UniformCameraPosition: func() interface{} {
			return s.camera.Position()
		},
		resource.UniformLightDirections: func() interface{} {
			dirs := make([]mgl32.Vec3, len(s.lights))
			for i, l := range s.lights {
				dirs[i] = l.direction
			}
			return dirs
		},
		resource.UniformLightColors: func() interface{} {
			colors := make([]mgl32.Vec3, len(s.lights))
			for i, l := range s.lights {
				colors[i] = l.Color
			}
			return colors
		},
		resource.UniformNumLights: func() interface{} {
			return int32(len(s.lights))
		},
		resource.UniformShadowMaps: func() interface{} {
			count := 0
			for _, l := range s.lights {
				if l.castsShadows {
					count += len(s.shadowParams.Ranges)
				}
			}
			slots := make([]int32, count)
			for i := range slots {
				slots[i] = s.shadowParams.FirstSamplerSlot + int32(i)
			}
			return slots
		},
		resource.UniformShadowMatrices: func() interface{} {
			var mats []mgl32.Mat4
			for _, l := range s.lights {
				if !l.castsShadows {
					continue
				}
				for _, r := range s.shadowParams.Ranges {
					mats = append(mats, l.ViewProjectionMatrix(s.camera.Position(), r))
				}
			}
			return mats
		},
		resource.UniformNumShadowRanges: func() interface{} {
			if !s.shadowMappingEnabled {
				return int32(0)
			}
			return int32(len(s.shadowParams.Ranges))
		},
	}

	s.shadowUniforms = map[string]resource.UniformSource{
		resource.UniformViewProjectionMatrix: func() interface{} {
			if s.activeLight == nil {
				return mgl32.Ident4()
			}
			return s.activeLight.ViewProjectionMatrix(s.camera.Position(), s.activeRange)
		},
	}
}
