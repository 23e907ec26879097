package scene

import (
	"math"

	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	defaultMaxSpeed         = 250.0 // units/s
	defaultAccelerationStep = 25.0  // units/s per digital input tick
	defaultMaxTurnRate      = math.Pi / 2
	defaultTurnAcceleration = math.Pi / 12
	defaultMinFOV           = 5.0
	defaultMaxFOV           = 160.0
	defaultNear             = 0.5
	defaultFar              = 5000.0
	fovStep                 = 5.0
	// Incremental rotations between re-orthogonalizations of the
	// orientation matrix.
	rotationsBeforeCorrection = 32
)

// xCorrection aligns the camera's forward axis with a followed node's
// up/forward convention (models face +Y up, cameras look down -Z).
var xCorrection = vmath.Rotate4(mgl32.Vec3{1, 0, 0}, math.Pi/2)

// Camera is a positionable, orientable viewpoint with independent
// translation and angular velocity integration and an optional follow
// binding to a scene node.
//
// Digital inputs (no intensity argument) ramp the relevant velocity
// component toward its signed maximum by a fixed acceleration step;
// analog inputs snap it to the supplied intensity. The Stop* calls zero
// the component outright with no deceleration ramp — asymmetric with
// the acceleration curve, but dependent code (scene-camera velocity
// derivation) assumes instant stops.
type Camera struct {
	positionMatrix    mgl32.Mat4
	orientationMatrix mgl32.Mat4

	// velocity is in the camera's own frame: +Z backward, -Z forward.
	velocity        mgl32.Vec3
	angularVelocity mgl32.Vec3 // x: pitch rate, y: yaw rate (rad/s)

	MaxSpeed         float32
	AccelerationStep float32
	MaxTurnRate      float32
	TurnAcceleration float32

	fov          float32 // degrees
	MinFOV       float32
	MaxFOV       float32
	aspect       float32
	near, far    float32
	projection   mgl32.Mat4
	projectionOK bool

	followedNode            *Node
	followPositionMatrix    mgl32.Mat4
	followOrientationMatrix mgl32.Mat4
	rotationCenterIsNode    bool

	rotationsSinceCorrection int
}

func NewCamera(aspect, fov float32) *Camera {
	return &Camera{
		positionMatrix:          mgl32.Ident4(),
		orientationMatrix:       mgl32.Ident4(),
		followPositionMatrix:    mgl32.Ident4(),
		followOrientationMatrix: mgl32.Ident4(),
		MaxSpeed:                defaultMaxSpeed,
		AccelerationStep:        defaultAccelerationStep,
		MaxTurnRate:             defaultMaxTurnRate,
		TurnAcceleration:        defaultTurnAcceleration,
		fov:                     clampf(fov, defaultMinFOV, defaultMaxFOV),
		MinFOV:                  defaultMinFOV,
		MaxFOV:                  defaultMaxFOV,
		aspect:                  aspect,
		near:                    defaultNear,
		far:                     defaultFar,
	}
}

func (c *Camera) PositionMatrix() mgl32.Mat4    { return c.positionMatrix }
func (c *Camera) OrientationMatrix() mgl32.Mat4 { return c.orientationMatrix }
func (c *Camera) Position() mgl32.Vec3          { return vmath.TranslationOf(c.positionMatrix) }

func (c *Camera) SetPositionMatrix(m mgl32.Mat4)    { c.positionMatrix = m }
func (c *Camera) SetOrientationMatrix(m mgl32.Mat4) { c.orientationMatrix = m }
func (c *Camera) SetPosition(v mgl32.Vec3)          { c.positionMatrix = vmath.Translate4(v) }

func (c *Camera) FollowedNode() *Node { return c.followedNode }

// FollowNode binds the camera to a node with a relative offset and
// orientation. When rotationCenterIsNode is set, turn inputs orbit the
// camera around the node instead of rotating in place.
func (c *Camera) FollowNode(n *Node, positionMatrix, orientationMatrix mgl32.Mat4, rotationCenterIsNode bool) {
	c.followedNode = n
	c.followPositionMatrix = positionMatrix
	c.followOrientationMatrix = orientationMatrix
	c.rotationCenterIsNode = rotationCenterIsNode
}

// Projection handling: the perspective matrix is recomputed lazily
// whenever the FOV or aspect changed.

func (c *Camera) FOV() float32 { return c.fov }

func (c *Camera) SetFOV(fov float32) {
	c.fov = clampf(fov, c.MinFOV, c.MaxFOV)
	c.projectionOK = false
}

func (c *Camera) IncreaseFOV() { c.SetFOV(c.fov + fovStep) }
func (c *Camera) DecreaseFOV() { c.SetFOV(c.fov - fovStep) }

func (c *Camera) SetAspect(aspect float32) {
	c.aspect = aspect
	c.projectionOK = false
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	if !c.projectionOK {
		c.projection = mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
		c.projectionOK = true
	}
	return c.projection
}

// ViewMatrix is the inverse camera transform, using the structure-aware
// inverses (orientation is orthonormal, position pure translation).
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return vmath.InvRotation(c.orientationMatrix).Mul4(vmath.InvTranslation(c.positionMatrix))
}

func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// nudge moves a velocity component toward +max (digital) or snaps it to
// the clamped intensity (analog).
func nudge(component *float32, intensity []float32, step, max float32) {
	if len(intensity) > 0 {
		*component = clampf(intensity[0], 0, max)
		return
	}
	*component += step
	if *component > max {
		*component = max
	}
}

// Translation controls. Axes are the camera's own: forward is -Z.

func (c *Camera) MoveForward(intensity ...float32) {
	v := -c.velocity[2]
	nudge(&v, intensity, c.AccelerationStep, c.MaxSpeed)
	c.velocity[2] = -v
}

func (c *Camera) MoveBackward(intensity ...float32) {
	nudge(&c.velocity[2], intensity, c.AccelerationStep, c.MaxSpeed)
}

func (c *Camera) MoveLeft(intensity ...float32) {
	v := -c.velocity[0]
	nudge(&v, intensity, c.AccelerationStep, c.MaxSpeed)
	c.velocity[0] = -v
}

func (c *Camera) MoveRight(intensity ...float32) {
	nudge(&c.velocity[0], intensity, c.AccelerationStep, c.MaxSpeed)
}

func (c *Camera) MoveDown(intensity ...float32) {
	v := -c.velocity[1]
	nudge(&v, intensity, c.AccelerationStep, c.MaxSpeed)
	c.velocity[1] = -v
}

func (c *Camera) MoveUp(intensity ...float32) {
	nudge(&c.velocity[1], intensity, c.AccelerationStep, c.MaxSpeed)
}

func (c *Camera) StopForward() {
	if c.velocity[2] < 0 {
		c.velocity[2] = 0
	}
}

func (c *Camera) StopBackward() {
	if c.velocity[2] > 0 {
		c.velocity[2] = 0
	}
}

func (c *Camera) StopLeft() {
	if c.velocity[0] < 0 {
		c.velocity[0] = 0
	}
}

func (c *Camera) StopRight() {
	if c.velocity[0] > 0 {
		c.velocity[0] = 0
	}
}

func (c *Camera) StopUp() {
	if c.velocity[1] > 0 {
		c.velocity[1] = 0
	}
}

func (c *Camera) StopDown() {
	if c.velocity[1] < 0 {
		c.velocity[1] = 0
	}
}

// Rotation controls. Positive yaw turns left, positive pitch looks up.

func (c *Camera) TurnLeft(intensity ...float32) {
	nudge(&c.angularVelocity[1], intensity, c.TurnAcceleration, c.MaxTurnRate)
}

func (c *Camera) TurnRight(intensity ...float32) {
	v := -c.angularVelocity[1]
	nudge(&v, intensity, c.TurnAcceleration, c.MaxTurnRate)
	c.angularVelocity[1] = -v
}

func (c *Camera) PitchUp(intensity ...float32) {
	nudge(&c.angularVelocity[0], intensity, c.TurnAcceleration, c.MaxTurnRate)
}

func (c *Camera) PitchDown(intensity ...float32) {
	v := -c.angularVelocity[0]
	nudge(&v, intensity, c.TurnAcceleration, c.MaxTurnRate)
	c.angularVelocity[0] = -v
}

func (c *Camera) StopLeftTurn() {
	if c.angularVelocity[1] > 0 {
		c.angularVelocity[1] = 0
	}
}

func (c *Camera) StopRightTurn() {
	if c.angularVelocity[1] < 0 {
		c.angularVelocity[1] = 0
	}
}

func (c *Camera) StopPitchUp() {
	if c.angularVelocity[0] > 0 {
		c.angularVelocity[0] = 0
	}
}

func (c *Camera) StopPitchDown() {
	if c.angularVelocity[0] < 0 {
		c.angularVelocity[0] = 0
	}
}

// UpdateOrientation integrates the angular velocity over dt. While
// following, rotations are accumulated into the relative follow
// orientation and the world orientation is re-derived from the node
// each time, with the fixed +90 degree X correction.
func (c *Camera) UpdateOrientation(dt float32) {
	yaw := c.angularVelocity[1] * dt
	pitch := c.angularVelocity[0] * dt

	if c.followedNode == nil {
		if yaw != 0 {
			c.orientationMatrix = c.orientationMatrix.Mul4(vmath.Rotate4(mgl32.Vec3{0, 1, 0}, yaw))
			c.rotationsSinceCorrection++
		}
		if pitch != 0 {
			c.orientationMatrix = c.orientationMatrix.Mul4(vmath.Rotate4(mgl32.Vec3{1, 0, 0}, pitch))
			c.rotationsSinceCorrection++
		}
		c.correctDrift()
		return
	}

	if yaw != 0 || pitch != 0 {
		rot := mgl32.Ident4()
		if yaw != 0 {
			rot = rot.Mul4(vmath.Rotate4(mgl32.Vec3{0, 1, 0}, yaw))
		}
		if pitch != 0 {
			rot = rot.Mul4(vmath.Rotate4(mgl32.Vec3{1, 0, 0}, pitch))
		}
		if c.rotationCenterIsNode {
			// Orbit: rotate the offset vector around the node.
			offset := vmath.TranslationOf(c.followPositionMatrix)
			c.followPositionMatrix = vmath.Translate4(rot.Mul4x1(offset.Vec4(1)).Vec3())
		}
		c.followOrientationMatrix = rot.Mul4(c.followOrientationMatrix)
		c.rotationsSinceCorrection++
	}

	nodeOrientation := c.followedNode.WorldOrientation()
	c.orientationMatrix = nodeOrientation.Mul4(c.followOrientationMatrix).Mul4(xCorrection)
	c.correctDrift()
}

func (c *Camera) correctDrift() {
	if c.rotationsSinceCorrection < rotationsBeforeCorrection {
		return
	}
	c.orientationMatrix = vmath.CorrectedOrthogonal(c.orientationMatrix)
	c.followOrientationMatrix = vmath.CorrectedOrthogonal(c.followOrientationMatrix)
	c.rotationsSinceCorrection = 0
}

// UpdatePosition integrates the linear velocity over dt. Free flight
// translates in the camera's own frame; following accumulates the
// relative follow offset instead and re-derives the world position from
// the node.
func (c *Camera) UpdatePosition(dt float32) {
	if c.followedNode == nil {
		if c.velocity != (mgl32.Vec3{}) {
			delta := vmath.RotationOf(c.orientationMatrix).Mul4x1(c.velocity.Vec4(0)).Vec3().Mul(dt)
			c.positionMatrix = vmath.Translate4(c.Position().Add(delta))
		}
		return
	}

	if c.velocity != (mgl32.Vec3{}) {
		c.followPositionMatrix = c.followPositionMatrix.Mul4(vmath.Translate4(c.velocity.Mul(dt)))
	}
	nodePos := c.followedNode.WorldPosition()
	offset := c.followedNode.WorldOrientation().
		Mul4x1(vmath.TranslationOf(c.followPositionMatrix).Vec4(1)).Vec3()
	c.positionMatrix = vmath.Translate4(nodePos.Add(offset))
}

// Update advances both integrators; a convenience for free cameras.
func (c *Camera) Update(dt float32) {
	c.UpdateOrientation(dt)
	c.UpdatePosition(dt)
}
