package scene

import (
	"math"

	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

// neverStamp marks per-frame caches as not yet computed. Frame counters
// start at 1, so this can never collide.
const neverStamp = ^uint64(0)

// Node is a tree element owning a Drawable. It carries the local
// transform, the per-frame cached cascade (world) model matrix, the
// visibility record the culling and LOD steps write, and the ring of
// chase-camera views bound to it. A node is owned by its parent, or by
// the Scene for top-level nodes.
type Node struct {
	drawable Drawable

	parent   *Node
	subnodes []*Node
	scene    *Scene

	visible bool

	positionMatrix    mgl32.Mat4
	orientationMatrix mgl32.Mat4
	scalingMatrix     mgl32.Mat4

	// Cascade model matrix, valid only for the frame it is stamped
	// with. The frame stamp replaces per-frame dirty-flag resets.
	modelMatrix      mgl32.Mat4
	modelMatrixFrame uint64

	// Frustum record. lastInsideFrame is the most recent frame the node
	// was found inside, which doubles as the one-frame anti-flicker
	// grace at the cull boundary.
	frustumFrame    uint64
	insideFrustum   bool
	lastInsideFrame uint64
	visibleWidth    float32
	visibleHeight   float32

	// Whether the node's bounding sphere lies entirely within its
	// parent's; computed once on first use.
	insideParentKnown bool
	insideParent      bool

	renderedFrame uint64

	// If set, children are skipped while this node's apparent size (in
	// pixels) stays below the threshold.
	minimumSizeForChildren float32

	views     []*Camera
	viewIndex int

	markedForDeletion bool
}

func NewNode(drawable Drawable) *Node {
	return &Node{
		drawable:          drawable,
		visible:           true,
		positionMatrix:    mgl32.Ident4(),
		orientationMatrix: mgl32.Ident4(),
		scalingMatrix:     mgl32.Ident4(),
		modelMatrixFrame:  neverStamp,
		frustumFrame:      neverStamp,
		lastInsideFrame:   neverStamp,
		renderedFrame:     neverStamp,
	}
}

func (n *Node) Drawable() Drawable { return n.drawable }
func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) Subnodes() []*Node  { return n.subnodes }
func (n *Node) Scene() *Scene      { return n.scene }

func (n *Node) SetVisible(visible bool) { n.visible = visible }
func (n *Node) Visible() bool           { return n.visible }

// MarkForDeletion schedules the node for the next cleanup sweep. The
// node stays in place until then; traversal lists are never spliced
// mid-iteration.
func (n *Node) MarkForDeletion() { n.markedForDeletion = true }

// SetMinimumSizeForChildren sets the apparent-size threshold (pixels)
// below which the whole child subtree is skipped.
func (n *Node) SetMinimumSizeForChildren(size float32) { n.minimumSizeForChildren = size }

// Transform setters. The flight controller feeds position/orientation
// in through these; the rendering core never writes physics state back.

func (n *Node) SetPositionMatrix(m mgl32.Mat4)    { n.positionMatrix = m }
func (n *Node) SetOrientationMatrix(m mgl32.Mat4) { n.orientationMatrix = m }
func (n *Node) SetScalingMatrix(m mgl32.Mat4)     { n.scalingMatrix = m }

func (n *Node) SetPosition(v mgl32.Vec3) { n.positionMatrix = vmath.Translate4(v) }
func (n *Node) SetScale(s float32)       { n.scalingMatrix = mgl32.Scale3D(s, s, s) }

func (n *Node) PositionMatrix() mgl32.Mat4    { return n.positionMatrix }
func (n *Node) OrientationMatrix() mgl32.Mat4 { return n.orientationMatrix }
func (n *Node) ScalingMatrix() mgl32.Mat4     { return n.scalingMatrix }

// AddSubnode attaches child (removing it from any previous parent) and
// returns it for chaining.
func (n *Node) AddSubnode(child *Node) *Node {
	if child.parent != nil {
		child.parent.removeSubnode(child)
	}
	child.parent = n
	child.setScene(n.scene)
	n.subnodes = append(n.subnodes, child)
	return child
}

func (n *Node) removeSubnode(child *Node) {
	for i, c := range n.subnodes {
		if c == child {
			n.subnodes = append(n.subnodes[:i], n.subnodes[i+1:]...)
			child.parent = nil
			return
		}
	}
}

func (n *Node) setScene(s *Scene) {
	n.scene = s
	for _, c := range n.subnodes {
		c.setScene(s)
	}
}

// AddView binds a chase camera to the node; views form a ring cycled by
// NextView.
func (n *Node) AddView(c *Camera) { n.views = append(n.views, c) }

// NextView returns the next camera in the view ring, or nil when the
// node has none.
func (n *Node) NextView() *Camera {
	if len(n.views) == 0 {
		return nil
	}
	v := n.views[n.viewIndex]
	n.viewIndex = (n.viewIndex + 1) % len(n.views)
	return v
}

func (n *Node) HasViews() bool { return len(n.views) > 0 }

// resizeViews propagates a new viewport aspect to the chase views of
// this node and its subtree.
func (n *Node) resizeViews(aspect float32) {
	for _, v := range n.views {
		v.SetAspect(aspect)
	}
	for _, sub := range n.subnodes {
		sub.resizeViews(aspect)
	}
}

func (n *Node) currentFrame() uint64 {
	if n.scene == nil {
		return 0
	}
	return n.scene.frame
}

// LocalMatrix composes the node's own transform (translate, rotate,
// scale order).
func (n *Node) LocalMatrix() mgl32.Mat4 {
	return n.positionMatrix.Mul4(n.orientationMatrix).Mul4(n.scalingMatrix)
}

// CascadeModelMatrix returns the node's world transform, composing its
// local transform with the parent's cascade matrix. Memoized per frame:
// recomputed exactly once per node per frame, never stale across
// frames.
func (n *Node) CascadeModelMatrix() mgl32.Mat4 {
	frame := n.currentFrame()
	if n.modelMatrixFrame == frame {
		return n.modelMatrix
	}
	local := n.LocalMatrix()
	if n.parent != nil {
		n.modelMatrix = n.parent.CascadeModelMatrix().Mul4(local)
	} else {
		n.modelMatrix = local
	}
	n.modelMatrixFrame = frame
	return n.modelMatrix
}

// WorldPosition and WorldOrientation walk the parent chain directly;
// they serve camera following outside the stamped render traversal.
func (n *Node) WorldPosition() mgl32.Vec3 {
	p := vmath.TranslationOf(n.positionMatrix)
	if n.parent == nil {
		return p
	}
	parentRot := n.parent.WorldOrientation()
	return n.parent.WorldPosition().Add(parentRot.Mul4x1(p.Vec4(1)).Vec3())
}

func (n *Node) WorldOrientation() mgl32.Mat4 {
	if n.parent == nil {
		return n.orientationMatrix
	}
	return n.parent.WorldOrientation().Mul4(n.orientationMatrix)
}

// VisibleWidth and VisibleHeight are the node's last projected extents
// in normalized device coordinates (full width/height of the bounding
// sphere), written by InsideViewFrustum.
func (n *Node) VisibleWidth() float32  { return n.visibleWidth }
func (n *Node) VisibleHeight() float32 { return n.visibleHeight }

// VisibleSize converts the NDC extents to an apparent size in pixels
// (the larger of the two half-extents), the quantity LOD thresholds are
// expressed in.
func (n *Node) VisibleSize(viewportWidth, viewportHeight float32) float32 {
	w := n.visibleWidth * viewportWidth / 2
	h := n.visibleHeight * viewportHeight / 2
	if w > h {
		return w
	}
	return h
}

func (n *Node) WasRenderedThisFrame() bool {
	return n.renderedFrame == n.currentFrame()
}

// insideFrustumRecently reports whether the node was inside the view
// frustum this frame or the previous one. Rendering on last frame's
// membership avoids popping at the cull boundary.
func (n *Node) insideFrustumRecently() bool {
	frame := n.currentFrame()
	return n.lastInsideFrame == frame || (frame > 0 && n.lastInsideFrame == frame-1)
}

// checkInsideParent decides, once, whether this node's bounding sphere
// lies entirely within its parent's. Such nodes inherit the parent's
// projected size instead of reprojecting every frame.
func (n *Node) checkInsideParent() bool {
	if n.insideParentKnown {
		return n.insideParent
	}
	n.insideParentKnown = true
	n.insideParent = false
	if n.parent == nil || n.parent.drawable == nil || n.drawable == nil {
		return false
	}
	parentSize := n.parent.drawable.Size()
	if parentSize <= 0 {
		return false
	}
	offset := vmath.TranslationOf(n.positionMatrix).Len()
	ownSize := n.drawable.Size() * vmath.UniformScale(n.scalingMatrix)
	n.insideParent = offset+ownSize <= parentSize
	return n.insideParent
}

// InsideViewFrustum tests the node's bounding sphere against the
// camera's frustum and records the projected NDC extents. The test
// builds a translation-only matrix from the cascade position relative
// to the camera, re-applies cascade scaling (but not orientation) to
// keep the apparent size right, projects through the perspective
// matrix, and compares the depth and size-offset points against the
// [-1,1] clip cube. Results are cached per frame.
func (n *Node) InsideViewFrustum(cam *Camera) bool {
	frame := n.currentFrame()
	if n.frustumFrame == frame {
		return n.insideFrustum
	}
	n.frustumFrame = frame

	if n.drawable == nil {
		n.insideFrustum = false
		return false
	}

	if n.drawable.AlwaysInsideFrustum() {
		n.visibleWidth = 1
		n.visibleHeight = 1
		n.setInside(frame, true)
		return true
	}

	// A parent already found outside this frame takes the whole subtree
	// with it, no projection needed.
	if n.parent != nil && n.parent.frustumFrame == frame && !n.parent.insideFrustum {
		n.insideFrustum = false
		return false
	}

	// Entirely inside the parent's bounding sphere: inherit its
	// projected size.
	if n.parent != nil && n.parent.frustumFrame == frame && n.checkInsideParent() {
		n.visibleWidth = n.parent.visibleWidth
		n.visibleHeight = n.parent.visibleHeight
		n.setInside(frame, true)
		return true
	}

	model := n.CascadeModelMatrix()
	worldPos := vmath.TranslationOf(model)
	size := n.drawable.Size() * vmath.UniformScale(model)

	camSpace := cam.ViewMatrix().Mul4x1(worldPos.Vec4(1))
	proj := cam.ProjectionMatrix()

	centerClip := proj.Mul4x1(camSpace)
	w := float32(math.Abs(float64(centerClip.W())))
	if w < 1e-9 {
		w = 1e-9
	}

	// Depth: reject when the nearest point of the sphere is beyond the
	// far plane, or its farthest point is in front of the near plane.
	nearestZ := projectedDepth(proj, camSpace, size)
	farthestZ := projectedDepth(proj, camSpace, -size)
	if nearestZ > 1.0001 || farthestZ < -1.0001 {
		n.insideFrustum = false
		n.visibleWidth = 0
		n.visibleHeight = 0
		return false
	}

	// Projected full extents of the bounding sphere in NDC.
	n.visibleWidth = 2 * size * proj.At(0, 0) / w
	n.visibleHeight = 2 * size * proj.At(1, 1) / w

	ndcX := float32(math.Abs(float64(centerClip.X() / w)))
	ndcY := float32(math.Abs(float64(centerClip.Y() / w)))
	inside := ndcX-n.visibleWidth/2 <= 1 && ndcY-n.visibleHeight/2 <= 1
	n.setInside(frame, inside)
	return inside
}

func (n *Node) setInside(frame uint64, inside bool) {
	n.insideFrustum = inside
	if inside {
		n.lastInsideFrame = frame
	}
}

// projectedDepth projects the view-space point offset along Z by dz and
// returns its NDC depth, using |w| so points behind the camera map to
// values before the near plane.
func projectedDepth(proj mgl32.Mat4, camSpace mgl32.Vec4, dz float32) float32 {
	p := proj.Mul4x1(mgl32.Vec4{camSpace.X(), camSpace.Y(), camSpace.Z() + dz, 1})
	w := float32(math.Abs(float64(p.W())))
	if w < 1e-9 {
		w = 1e-9
	}
	return p.Z() / w
}

// CascadeRender is the traversal entry point for one color pass.
// Returns the number of triangles contributed by the subtree.
func (n *Node) CascadeRender(p *RenderParameters) int {
	if !n.visible {
		return 0
	}
	triangles := 0
	if n.drawable != nil {
		inside := n.InsideViewFrustum(&p.Camera.Camera)
		if passMatches(n.drawable, p.DepthMask) && (inside || n.insideFrustumRecently()) {
			if n.drawable.NeedsToBeRendered(p, n) {
				triangles += n.drawable.Render(p, n)
				n.renderedFrame = n.currentFrame()
			}
		}
	}
	if len(n.subnodes) == 0 {
		return triangles
	}
	if n.minimumSizeForChildren > 0 &&
		n.VisibleSize(p.ViewportWidth, p.ViewportHeight) < n.minimumSizeForChildren {
		return triangles
	}
	for _, sub := range n.subnodes {
		triangles += sub.CascadeRender(p)
	}
	return triangles
}

// CascadeRenderShadowMap renders the subtree's depth-only contribution.
// Shadow casters must not pop with main-view culling, so none of the
// frustum/LOD gating above applies here.
func (n *Node) CascadeRenderShadowMap(p *RenderParameters) {
	if !n.visible {
		return
	}
	if n.drawable != nil {
		n.drawable.RenderShadowMap(p, n)
	}
	for _, sub := range n.subnodes {
		sub.CascadeRenderShadowMap(p)
	}
}

// cleanup removes subnodes marked for deletion or whose drawable asked
// for removal, recursing into survivors. Run once per frame before any
// traversal.
func (n *Node) cleanup() {
	kept := n.subnodes[:0]
	for _, sub := range n.subnodes {
		if sub.shouldBeSwept() {
			sub.parent = nil
			continue
		}
		sub.cleanup()
		kept = append(kept, sub)
	}
	n.subnodes = kept
}

func (n *Node) shouldBeSwept() bool {
	if n.markedForDeletion {
		return true
	}
	return n.drawable != nil && n.drawable.ShouldBeRemoved()
}
