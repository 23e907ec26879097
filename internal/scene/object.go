// Package scene implements the hierarchical transform/visibility core:
// the drawable node tree, cameras, directional lights with shadow
// cascades and the per-frame two-phase render algorithm. Everything
// GPU-facing is reached through the resource interfaces so the whole
// package runs headless in tests.
package scene

import (
	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderParameters is the per-pass traversal context threaded through
// the node tree. One value per pass, never retained across frames.
type RenderParameters struct {
	Context        resource.Context
	Scene          *Scene
	Camera         *SceneCamera
	ViewportWidth  float32
	ViewportHeight float32
	// DepthMask is true during the opaque pass and false during the
	// transparent pass.
	DepthMask bool
	Dt        float32
}

// Drawable is the behavior half of a node: geometry, pass membership
// and uniform supply. The shared transform/visibility record lives on
// Node; a Drawable is always rendered through one.
type Drawable interface {
	// Size is the bounding radius in model space, before scaling.
	Size() float32

	// AlwaysInsideFrustum short-circuits culling for variants whose
	// draw cost is below the cost of the culling math itself.
	AlwaysInsideFrustum() bool

	// RendersWithDepthMask / RendersWithoutDepthMask select which of
	// the opaque/transparent passes may draw this object.
	RendersWithDepthMask() bool
	RendersWithoutDepthMask() bool

	// NeedsToBeRendered decides whether the object contributes geometry
	// to the current pass, and performs any per-frame selection (LOD)
	// it needs as a side effect. Called only after the frustum gate.
	NeedsToBeRendered(p *RenderParameters, n *Node) bool

	// Render draws the object and returns the number of triangles
	// contributed to the running scene count.
	Render(p *RenderParameters, n *Node) int

	// RenderShadowMap draws the depth-only contribution. Variants that
	// cast no shadow return immediately.
	RenderShadowMap(p *RenderParameters, n *Node)

	// ShouldBeRemoved reports whether the cleanup sweep should drop the
	// owning node this frame.
	ShouldBeRemoved() bool
}

// baseDrawable carries the state every variant shares. Variants embed
// it and override what they need.
type baseDrawable struct {
	shader           resource.Shader
	size             float32
	withDepthMask    bool
	withoutDepthMask bool
}

func (b *baseDrawable) Size() float32                 { return b.size }
func (b *baseDrawable) AlwaysInsideFrustum() bool     { return false }
func (b *baseDrawable) RendersWithDepthMask() bool    { return b.withDepthMask }
func (b *baseDrawable) RendersWithoutDepthMask() bool { return b.withoutDepthMask }
func (b *baseDrawable) ShouldBeRemoved() bool         { return false }

func (b *baseDrawable) RenderShadowMap(p *RenderParameters, n *Node) {}

// passMatches is the shared pass-membership check.
func passMatches(d Drawable, depthMask bool) bool {
	if depthMask {
		return d.RendersWithDepthMask()
	}
	return d.RendersWithoutDepthMask()
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
