package scene

import (
	"fmt"
	"math"
	"testing"

	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

const testTolerance = 1e-4

func approxf(a, b float32) bool {
	return math.Abs(float64(a-b)) < testTolerance
}

func approxVec3(a, b mgl32.Vec3) bool {
	return approxf(a[0], b[0]) && approxf(a[1], b[1]) && approxf(a[2], b[2])
}

func approxMat4(a, b mgl32.Mat4) bool {
	for i := range a {
		if !approxf(a[i], b[i]) {
			return false
		}
	}
	return true
}

// fakeDrawable records the render calls the traversal makes, including
// which pass each call belonged to.
type fakeDrawable struct {
	baseDrawable
	alwaysInside bool
	triangles    int
	removed      bool

	renderCalls   int
	renderedMasks []bool
	shadowCalls   int
}

func newFakeDrawable(size float32, opaque, transparent bool) *fakeDrawable {
	return &fakeDrawable{
		baseDrawable: baseDrawable{
			size:             size,
			withDepthMask:    opaque,
			withoutDepthMask: transparent,
		},
		triangles: 10,
	}
}

func (f *fakeDrawable) AlwaysInsideFrustum() bool { return f.alwaysInside }

func (f *fakeDrawable) ShouldBeRemoved() bool { return f.removed }

func (f *fakeDrawable) NeedsToBeRendered(p *RenderParameters, n *Node) bool { return true }

func (f *fakeDrawable) Render(p *RenderParameters, n *Node) int {
	f.renderCalls++
	f.renderedMasks = append(f.renderedMasks, p.DepthMask)
	return f.triangles
}

func (f *fakeDrawable) RenderShadowMap(p *RenderParameters, n *Node) { f.shadowCalls++ }

type fakeMesh struct {
	size        float32
	opaque      int
	transparent int

	renderCalls int
	depthCalls  int
}

func (m *fakeMesh) Size() float32                 { return m.size }
func (m *fakeMesh) OpaqueTriangleCount() int      { return m.opaque }
func (m *fakeMesh) TransparentTriangleCount() int { return m.transparent }
func (m *fakeMesh) Render(wireframe bool)         { m.renderCalls++ }
func (m *fakeMesh) RenderDepth()                  { m.depthCalls++ }

// fakeShader resolves every uniform source immediately so tests can
// inspect the values that would reach the GPU.
type fakeShader struct {
	bindCalls int
	bound     map[string]interface{}
}

func (s *fakeShader) Bind() { s.bindCalls++ }

func (s *fakeShader) BindUniforms(uniforms map[string]resource.UniformSource) {
	if s.bound == nil {
		s.bound = map[string]interface{}{}
	}
	for name, src := range uniforms {
		s.bound[name] = src()
	}
}

type fakeContext struct {
	calls []string
}

func (c *fakeContext) record(s string) { c.calls = append(c.calls, s) }

func (c *fakeContext) SetDepthMask(e bool) { c.record(fmt.Sprintf("depthMask(%t)", e)) }
func (c *fakeContext) SetDepthTest(e bool) { c.record(fmt.Sprintf("depthTest(%t)", e)) }
func (c *fakeContext) SetBlending(e bool)  { c.record(fmt.Sprintf("blending(%t)", e)) }

func (c *fakeContext) SetViewport(x, y, w, h int32) { c.record("viewport") }
func (c *fakeContext) SetScissor(x, y, w, h int32)  { c.record("scissor") }
func (c *fakeContext) SetClearColor(r, g, b, a float32) {
	c.record("clearColor")
}
func (c *fakeContext) Clear(color, depth bool) {
	c.record(fmt.Sprintf("clear(%t,%t)", color, depth))
}
func (c *fakeContext) BindDefaultFramebuffer() { c.record("bindDefault") }

// assertCallOrder verifies that want appears as a subsequence of calls.
func assertCallOrder(t *testing.T, calls []string, want ...string) {
	t.Helper()
	i := 0
	for _, c := range calls {
		if i < len(want) && c == want[i] {
			i++
		}
	}
	if i != len(want) {
		t.Fatalf("calls %v do not contain %q in order (stuck at %q)", calls, want, want[i])
	}
}

type fakeFramebuffer struct {
	resolution int32
	bindCalls  int
	depthUnits []int32
}

func (f *fakeFramebuffer) Bind()             { f.bindCalls++ }
func (f *fakeFramebuffer) Resolution() int32 { return f.resolution }
func (f *fakeFramebuffer) BindDepthTexture(unit int32) {
	f.depthUnits = append(f.depthUnits, unit)
}

type fakeFramebufferFactory struct {
	created []*fakeFramebuffer
}

func (f *fakeFramebufferFactory) NewDepthFramebuffer(resolution int32) (resource.Framebuffer, error) {
	fb := &fakeFramebuffer{resolution: resolution}
	f.created = append(f.created, fb)
	return fb, nil
}

func newTestScene() *Scene {
	return NewScene(0, 0, 800, 600, [4]float32{0, 0, 0, 1}, DefaultLODConfiguration())
}
