package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestLightBasisOrthonormalWithForwardAlongDirection(t *testing.T) {
	directions := []mgl32.Vec3{
		{0, -1, 0},
		{1, 0, 0},
		{0.3, -0.8, 0.2},
		{-1, -1, -1},
	}
	for _, dir := range directions {
		l := NewLightSource(mgl32.Vec3{1, 1, 1}, dir, true)
		m := l.OrientationMatrix()

		forward := mgl32.Vec3{m[8], m[9], m[10]}
		if !approxVec3(forward, dir.Normalize()) {
			t.Fatalf("dir %v: forward column %v != normalized direction", dir, forward)
		}
		right := mgl32.Vec3{m[0], m[1], m[2]}
		up := mgl32.Vec3{m[4], m[5], m[6]}
		for i, v := range []mgl32.Vec3{right, up, forward} {
			if math.Abs(float64(v.Len())-1) > testTolerance {
				t.Fatalf("dir %v: column %d not unit length (%v)", dir, i, v.Len())
			}
		}
		if math.Abs(float64(right.Dot(up))) > testTolerance ||
			math.Abs(float64(right.Dot(forward))) > testTolerance ||
			math.Abs(float64(up.Dot(forward))) > testTolerance {
			t.Fatalf("dir %v: basis not orthogonal", dir)
		}
	}
}

func TestLightViewProjectionCentersOnCamera(t *testing.T) {
	l := NewLightSource(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1, 0}, true)
	camPos := mgl32.Vec3{10, 3, -40}

	center := l.ViewProjectionMatrix(camPos, 40).Mul4x1(camPos.Vec4(1))
	if !approxVec3(center.Vec3(), mgl32.Vec3{0, 0, 0}) {
		t.Fatalf("camera position maps to %v, want the clip origin", center.Vec3())
	}
}

func TestLightCascadeCoversItsRange(t *testing.T) {
	l := NewLightSource(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1, 0}, true)
	camPos := mgl32.Vec3{0, 0, 0}
	r := float32(40)
	vp := l.ViewProjectionMatrix(camPos, r)

	// Points at the cascade boundary land on the edge of the clip cube.
	for _, offset := range []mgl32.Vec3{{r, 0, 0}, {0, r, 0}, {0, 0, r}} {
		clip := vp.Mul4x1(camPos.Add(offset).Vec4(1))
		for axis := 0; axis < 3; axis++ {
			if math.Abs(float64(clip[axis])) > 1+testTolerance {
				t.Fatalf("offset %v maps outside the clip cube: %v", offset, clip)
			}
		}
	}
	// A point well beyond the range falls outside.
	clip := vp.Mul4x1(mgl32.Vec3{3 * r, 0, 0}.Vec4(1))
	inside := true
	for axis := 0; axis < 3; axis++ {
		if math.Abs(float64(clip[axis])) > 1+testTolerance {
			inside = false
		}
	}
	if inside {
		t.Fatalf("point beyond the cascade range still inside: %v", clip)
	}
}

func TestShadowMapIndexOutOfRangeIsNil(t *testing.T) {
	l := NewLightSource(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, -1, 0}, true)
	if l.ShadowMap(0) != nil || l.ShadowMap(-1) != nil {
		t.Fatal("expected nil shadow map before allocation")
	}

	factory := &fakeFramebufferFactory{}
	if err := l.createShadowMaps(factory, 3, 512); err != nil {
		t.Fatal(err)
	}
	if len(factory.created) != 3 {
		t.Fatalf("created %d framebuffers, want 3", len(factory.created))
	}
	if l.ShadowMap(2) == nil || l.ShadowMap(3) != nil {
		t.Fatal("shadow map indexing wrong after allocation")
	}
}
