package scene

import (
	"Armada3D/internal/resource"
	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

// LightSource is a directional light. Its orthonormal basis — derived
// once from the direction, seeded with the world axis least parallel to
// it — doubles as the orientation of the virtual camera used for shadow
// rendering. One depth framebuffer exists per configured shadow cascade
// range.
type LightSource struct {
	Color mgl32.Vec3

	direction   mgl32.Vec3
	orientation mgl32.Mat4

	castsShadows bool
	shadowMaps   []resource.Framebuffer
}

func NewLightSource(color, direction mgl32.Vec3, castsShadows bool) *LightSource {
	dir := direction.Normalize()
	return &LightSource{
		Color:        color,
		direction:    dir,
		orientation:  vmath.OrthonormalBasis(dir),
		castsShadows: castsShadows,
	}
}

func (l *LightSource) Direction() mgl32.Vec3         { return l.direction }
func (l *LightSource) OrientationMatrix() mgl32.Mat4 { return l.orientation }
func (l *LightSource) CastsShadows() bool            { return l.castsShadows }

// ShadowMap returns the depth target for one cascade; nil when shadow
// mapping was not set up for that range.
func (l *LightSource) ShadowMap(rangeIndex int) resource.Framebuffer {
	if rangeIndex < 0 || rangeIndex >= len(l.shadowMaps) {
		return nil
	}
	return l.shadowMaps[rangeIndex]
}

// createShadowMaps allocates one depth framebuffer per cascade range.
func (l *LightSource) createShadowMaps(factory resource.FramebufferFactory, numRanges int, resolution int32) error {
	l.shadowMaps = l.shadowMaps[:0]
	for i := 0; i < numRanges; i++ {
		fb, err := factory.NewDepthFramebuffer(resolution)
		if err != nil {
			return err
		}
		l.shadowMaps = append(l.shadowMaps, fb)
	}
	return nil
}

// ViewMatrix treats the light as a virtual camera positioned at the
// view camera's current position, oriented by the light's basis.
func (l *LightSource) ViewMatrix(cameraPosition mgl32.Vec3) mgl32.Mat4 {
	return vmath.InvRotation(l.orientation).
		Mul4(vmath.InvTranslation(vmath.Translate4(cameraPosition)))
}

// ProjectionMatrix is the orthographic projection for one cascade, with
// half-extent equal to the range's configured distance.
func (l *LightSource) ProjectionMatrix(rangeDistance float32) mgl32.Mat4 {
	return mgl32.Ortho(-rangeDistance, rangeDistance,
		-rangeDistance, rangeDistance,
		-rangeDistance, rangeDistance)
}

// ViewProjectionMatrix composes the virtual camera for one cascade.
func (l *LightSource) ViewProjectionMatrix(cameraPosition mgl32.Vec3, rangeDistance float32) mgl32.Mat4 {
	return l.ProjectionMatrix(rangeDistance).Mul4(l.ViewMatrix(cameraPosition))
}
