package scene

import (
	"errors"
	"testing"
	"time"

	"Armada3D/internal/resource"
	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRenderPartitionsOpaqueAndTransparent(t *testing.T) {
	s := newTestScene()
	opaque := newFakeDrawable(1, true, false)
	s.AddObject(NewNode(opaque)).SetPosition(mgl32.Vec3{0, 0, -10})
	transparent := newFakeDrawable(1, false, true)
	s.AddObject(NewNode(transparent)).SetPosition(mgl32.Vec3{0, 0, -10})

	s.Render(&fakeContext{}, 0.016)

	if opaque.renderCalls != 1 || opaque.renderedMasks[0] != true {
		t.Fatalf("opaque drawable: calls=%d masks=%v, want one call in the depth-write pass",
			opaque.renderCalls, opaque.renderedMasks)
	}
	if transparent.renderCalls != 1 || transparent.renderedMasks[0] != false {
		t.Fatalf("transparent drawable: calls=%d masks=%v, want one call in the no-write pass",
			transparent.renderCalls, transparent.renderedMasks)
	}
	if s.TrianglesRendered() != 20 {
		t.Fatalf("TrianglesRendered = %d, want 20", s.TrianglesRendered())
	}
}

func TestRenderStateSequence(t *testing.T) {
	s := newTestScene()
	bg := newFakeDrawable(1, true, true)
	bg.alwaysInside = true
	s.AddBackgroundObject(NewNode(bg))
	s.AddObject(NewNode(newFakeDrawable(1, true, true))).SetPosition(mgl32.Vec3{0, 0, -10})

	ctx := &fakeContext{}
	s.Render(ctx, 0.016)

	assertCallOrder(t, ctx.calls,
		"bindDefault",
		"clear(true,true)",
		// Background: depth fully off, blending on.
		"depthTest(false)",
		"depthMask(false)",
		"blending(true)",
		// Opaque: depth writes on, blending off.
		"depthTest(true)",
		"depthMask(true)",
		"blending(false)",
		// Transparent: writes off again, blending back on.
		"depthMask(false)",
		"blending(true)",
	)

	// The background renders in both of its sub-passes.
	if bg.renderCalls != 2 || bg.renderedMasks[0] != true || bg.renderedMasks[1] != false {
		t.Fatalf("background calls=%d masks=%v", bg.renderCalls, bg.renderedMasks)
	}
}

func TestShadowPassIgnoresMainViewCulling(t *testing.T) {
	s := newTestScene()
	d := newFakeDrawable(1, true, false)
	// Behind the camera: culled from every color pass.
	s.AddObject(NewNode(d)).SetPosition(mgl32.Vec3{0, 0, 100})
	s.AddLightSource(NewLightSource(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1, 0}, true))

	factory := &fakeFramebufferFactory{}
	shadowShader := &fakeShader{}
	err := s.EnableShadowMapping(factory, ShadowMappingParams{
		Shader:           shadowShader,
		Ranges:           []float32{40, 150},
		Resolution:       64,
		FirstSamplerSlot: 4,
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Render(&fakeContext{}, 0.016)

	if d.renderCalls != 0 {
		t.Fatalf("culled drawable drawn %d times in color passes", d.renderCalls)
	}
	if d.shadowCalls != 2 {
		t.Fatalf("shadowCalls = %d, want one per cascade", d.shadowCalls)
	}
	if len(factory.created) != 2 {
		t.Fatalf("created %d depth targets, want 2", len(factory.created))
	}
	for i, fb := range factory.created {
		if fb.bindCalls != 1 {
			t.Fatalf("cascade %d framebuffer bound %d times, want 1", i, fb.bindCalls)
		}
		wantUnit := int32(4 + i)
		if len(fb.depthUnits) != 1 || fb.depthUnits[0] != wantUnit {
			t.Fatalf("cascade %d depth texture units = %v, want [%d]", i, fb.depthUnits, wantUnit)
		}
	}
}

func TestLightWithoutShadowsGetsNoDepthTargets(t *testing.T) {
	s := newTestScene()
	s.AddLightSource(NewLightSource(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1, 0}, false))

	factory := &fakeFramebufferFactory{}
	err := s.EnableShadowMapping(factory, DefaultShadowMappingParams(&fakeShader{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(factory.created) != 0 {
		t.Fatalf("allocated %d depth targets for a shadowless light", len(factory.created))
	}
}

func TestMarkedNodeSweptBeforeNextFrame(t *testing.T) {
	s := newTestScene()
	d := newFakeDrawable(1, true, false)
	n := s.AddObject(NewNode(d))
	n.SetPosition(mgl32.Vec3{0, 0, -10})

	s.Render(&fakeContext{}, 0.016)
	if d.renderCalls != 1 {
		t.Fatalf("renderCalls = %d before deletion, want 1", d.renderCalls)
	}

	n.MarkForDeletion()
	s.Render(&fakeContext{}, 0.016)
	if d.renderCalls != 1 {
		t.Fatal("marked node still rendered after the sweep")
	}
	if len(s.nodes) != 0 {
		t.Fatalf("node list still holds %d nodes", len(s.nodes))
	}
}

func TestExpiredParticleSwept(t *testing.T) {
	s := newTestScene()
	mesh := &fakeMesh{size: 1, transparent: 2}
	p := NewDynamicParticle(mesh, &fakeShader{}, mgl32.Vec4{1, 1, 1, 1}, 1, time.Second)
	p.born = time.Now().Add(-2 * time.Second)
	s.AddObject(NewNode(p))

	s.Render(&fakeContext{}, 0.016)

	if len(s.nodes) != 0 {
		t.Fatal("expired particle survived the cleanup sweep")
	}
	if mesh.renderCalls != 0 {
		t.Fatal("expired particle was rendered")
	}
}

func TestStaticParticleInvisibleBelowThreshold(t *testing.T) {
	s := newTestScene()
	mesh := &fakeMesh{size: 1, transparent: 2}
	p := NewStaticParticle(mesh, &fakeShader{}, mgl32.Vec4{1, 1, 1, 1}, 3)
	s.AddObject(NewNode(p))

	p.SetRelativeSize(0.001)
	s.Render(&fakeContext{}, 0.016)
	if mesh.renderCalls != 0 {
		t.Fatal("sub-threshold particle rendered")
	}

	p.SetRelativeSize(0.5)
	s.Render(&fakeContext{}, 0.016)
	if mesh.renderCalls != 1 {
		t.Fatalf("renderCalls = %d after size restored, want 1", mesh.renderCalls)
	}
}

func TestSceneCameraCannotBeRebound(t *testing.T) {
	s1 := newTestScene()
	s2 := newTestScene()

	err := s2.SetSceneCamera(s1.Camera())
	if !errors.Is(err, errSceneCameraRebound) {
		t.Fatalf("rebinding error = %v, want errSceneCameraRebound", err)
	}
	if s2.Camera() == s1.Camera() {
		t.Fatal("second scene adopted the foreign camera despite the error")
	}
}

func TestResizeViewportUpdatesCameraAspect(t *testing.T) {
	s := newTestScene()
	extra := NewCamera(float32(800)/600, 60)
	s.AddCamera(extra)

	before := s.Camera().ProjectionMatrix()
	extraBefore := extra.ProjectionMatrix()

	s.ResizeViewport(400, 400)

	if approxMat4(before, s.Camera().ProjectionMatrix()) {
		t.Fatal("scene camera projection unchanged after resize")
	}
	if approxMat4(extraBefore, extra.ProjectionMatrix()) {
		t.Fatal("registered camera projection unchanged after resize")
	}
}

func TestResizeViewportReachesNodeViewCameras(t *testing.T) {
	s := newTestScene()
	n := s.AddObject(NewNode(newFakeDrawable(1, true, false)))
	view := NewCamera(float32(800)/600, 60)
	view.FollowNode(n, vmath.Translate4(mgl32.Vec3{0, -10, 0}), mgl32.Ident4(), true)
	n.AddView(view)

	s.Camera().FollowObject(n, 0)
	s.Camera().Update(0.016)
	if s.Camera().Adapting() {
		t.Fatal("zero-duration follow did not settle")
	}

	s.ResizeViewport(400, 400)
	s.Camera().Update(0.016)

	// At 60 degrees FOV and square aspect the x scale is 1/tan(30deg).
	want := float32(1.7320508)
	if got := view.ProjectionMatrix().At(0, 0); !approxf(got, want) {
		t.Fatalf("view camera projection x scale = %v after resize, want %v", got, want)
	}
	if got := s.Camera().ProjectionMatrix().At(0, 0); !approxf(got, want) {
		t.Fatalf("settled projection x scale = %v after resize, want %v", got, want)
	}
}

func TestUniformSourcesExposeLights(t *testing.T) {
	s := newTestScene()
	s.AddLightSource(NewLightSource(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}, false))
	s.AddLightSource(NewLightSource(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, false))

	u := s.UniformSources()
	dirs := u[resource.UniformLightDirections]().([]mgl32.Vec3)
	if len(dirs) != 2 || !approxVec3(dirs[0], mgl32.Vec3{0, -1, 0}) {
		t.Fatalf("light directions = %v", dirs)
	}
	colors := u[resource.UniformLightColors]().([]mgl32.Vec3)
	if len(colors) != 2 || !approxVec3(colors[1], mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("light colors = %v", colors)
	}
	if n := u[resource.UniformNumLights]().(int32); n != 2 {
		t.Fatalf("num lights = %d, want 2", n)
	}
}

func TestBackgroundBindsInverseViewProjection(t *testing.T) {
	s := newTestScene()
	shader := &fakeShader{}
	mesh := &fakeMesh{size: 1, opaque: 2}
	s.AddBackgroundObject(NewNode(NewBackground(mesh, shader)))

	s.Render(&fakeContext{}, 0.016)

	bound, ok := shader.bound[resource.UniformInverseViewProjection].(mgl32.Mat4)
	if !ok {
		t.Fatal("inverse view-projection uniform not bound")
	}
	cam := &s.Camera().Camera
	vp := cam.ProjectionMatrix().Mul4(vmath.InvRotation(cam.OrientationMatrix()))
	if !approxMat4(vp.Mul4(bound), mgl32.Ident4()) {
		t.Fatal("bound matrix is not the inverse of the rotation-only view-projection")
	}
}

func TestPointCloudBindsStateAndParticlesDraw(t *testing.T) {
	s := newTestScene()
	shader := &fakeShader{}
	cloud := NewPointCloud(shader, mgl32.Vec4{1, 1, 1, 1}, 500)
	cloud.SetShift(mgl32.Vec3{1, 2, 3})
	cloudNode := s.AddObject(NewNode(cloud))

	mesh := &fakeMesh{size: 1, transparent: 1}
	cloudNode.AddSubnode(NewNode(NewPointParticle(mesh, cloud)))

	s.Render(&fakeContext{}, 0.016)

	if mesh.renderCalls != 1 {
		t.Fatalf("point particle renderCalls = %d, want 1", mesh.renderCalls)
	}
	shift, ok := shader.bound[resource.UniformShift].(mgl32.Vec3)
	if !ok || !approxVec3(shift, mgl32.Vec3{1, 2, 3}) {
		t.Fatalf("shift uniform = %v, want (1,2,3)", shader.bound[resource.UniformShift])
	}
	if s.TrianglesRendered() != 1 {
		t.Fatalf("TrianglesRendered = %d, want the particle's single triangle", s.TrianglesRendered())
	}
}
