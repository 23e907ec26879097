package scene

import (
	"Armada3D/internal/logger"
	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultAdaptationDuration is the blend time used by view cycling when
// the caller does not specify one.
const DefaultAdaptationDuration float32 = 1.0 // seconds

// SceneCamera is the single active viewpoint of a Scene. It never draws
// its own follow binding; instead it tracks a followed Camera, blending
// toward it after every re-target. The blend interpolates position and
// FOV linearly and the orientation by weighted matrix sum followed by
// re-orthogonalization — never per-axis angle interpolation, which
// produces gimbal artifacts.
type SceneCamera struct {
	Camera

	scene *Scene

	followedCamera *Camera

	// Blend state, valid while adapting.
	adapting           bool
	adaptationElapsed  float32
	adaptationDuration float32
	startPosition      mgl32.Mat4
	startOrientation   mgl32.Mat4
	startFOV           float32

	velocity        mgl32.Vec3
	lastNodePos     mgl32.Vec3
	lastNodePosSeen bool
}

func NewSceneCamera(aspect, fov float32) *SceneCamera {
	return &SceneCamera{Camera: *NewCamera(aspect, fov)}
}

// attachScene binds the camera to its scene. Binding one SceneCamera to
// two different Scenes is a lifecycle bug and the one error in this
// subsystem that is reported loudly instead of degrading.
func (sc *SceneCamera) attachScene(s *Scene) error {
	if sc.scene != nil && sc.scene != s {
		err := errSceneCameraRebound
		logger.Log.Error("scene camera is already bound to another scene",
			zap.Error(err))
		return err
	}
	sc.scene = s
	return nil
}

// Velocity is the camera's effective world velocity this frame, fed to
// dependent effects (motion blur, particle trails).
func (sc *SceneCamera) Velocity() mgl32.Vec3 { return sc.velocity }

func (sc *SceneCamera) FollowedCamera() *Camera { return sc.followedCamera }

// Adapting reports whether a blend toward the followed camera is still
// in progress.
func (sc *SceneCamera) Adapting() bool { return sc.adapting }

// FollowCamera re-targets the scene camera. The blend start is
// snapshotted from the CURRENT transform — mid-blend re-targets restart
// from the partially blended state, not from the previous target, so
// there is no visible pop.
func (sc *SceneCamera) FollowCamera(cam *Camera, duration float32) {
	sc.startPosition = sc.positionMatrix
	sc.startOrientation = sc.orientationMatrix
	sc.startFOV = sc.fov
	sc.adaptationElapsed = 0
	sc.adaptationDuration = duration
	sc.adapting = true
	sc.followedCamera = cam
	sc.lastNodePosSeen = false
}

// FollowObject targets the node's next chase-camera view. Nodes without
// views get a default one synthesized behind them.
func (sc *SceneCamera) FollowObject(n *Node, duration float32) {
	view := n.NextView()
	if view == nil {
		view = defaultChaseView(n, sc.aspect)
		n.AddView(view)
	}
	sc.FollowCamera(view, duration)
}

// ChangeToNextView cycles to the next view bound to the currently
// followed node. No-op when the camera is free or the view ring is
// empty.
func (sc *SceneCamera) ChangeToNextView(duration float32) {
	if sc.followedCamera == nil || sc.followedCamera.followedNode == nil {
		return
	}
	if next := sc.followedCamera.followedNode.NextView(); next != nil {
		sc.FollowCamera(next, duration)
	}
}

// FollowNextObject cycles to the next top-level scene node that has
// views bound.
func (sc *SceneCamera) FollowNextObject(duration float32) {
	if sc.scene == nil {
		return
	}
	candidates := sc.scene.nodesWithViews()
	if len(candidates) == 0 {
		return
	}
	current := -1
	if sc.followedCamera != nil && sc.followedCamera.followedNode != nil {
		for i, n := range candidates {
			if n == sc.followedCamera.followedNode {
				current = i
				break
			}
		}
	}
	sc.FollowObject(candidates[(current+1)%len(candidates)], duration)
}

// defaultChaseView builds a view camera sitting behind and above the
// node, scaled by its bounding size.
func defaultChaseView(n *Node, aspect float32) *Camera {
	dist := float32(10)
	if n.drawable != nil && n.drawable.Size() > 0 {
		dist = n.drawable.Size() * 3
	}
	cam := NewCamera(aspect, 60)
	cam.FollowNode(n, vmath.Translate4(mgl32.Vec3{0, -dist, dist * 0.25}), mgl32.Ident4(), true)
	return cam
}

// Update advances the scene camera by one frame. The followed camera's
// own integrators run first; then either the blend advances, the
// settled transform is copied, or — with no followed camera — the free
// flight integrators run.
func (sc *SceneCamera) Update(dt float32) {
	if sc.followedCamera == nil {
		prev := sc.Position()
		sc.Camera.Update(dt)
		sc.deriveVelocity(prev, dt)
		return
	}

	fc := sc.followedCamera
	fc.UpdateOrientation(dt)
	fc.UpdatePosition(dt)

	if sc.adapting {
		sc.updateAdapting(fc, dt)
		return
	}

	// Settled: copy the followed camera's transform and perspective
	// directly — no blending cost.
	sc.positionMatrix = fc.positionMatrix
	sc.orientationMatrix = fc.orientationMatrix
	sc.fov = fc.fov
	sc.projection = fc.ProjectionMatrix()
	sc.projectionOK = true

	// Velocity from the followed node's world-position delta: in the
	// settled state the camera rigidly tracks the node, so the node's
	// motion is the camera's.
	if node := fc.followedNode; node != nil {
		pos := node.WorldPosition()
		if sc.lastNodePosSeen && dt > 0 {
			sc.velocity = pos.Sub(sc.lastNodePos).Mul(1 / dt)
		}
		sc.lastNodePos = pos
		sc.lastNodePosSeen = true
	} else {
		sc.velocity = mgl32.Vec3{}
	}
}

func (sc *SceneCamera) updateAdapting(fc *Camera, dt float32) {
	sc.adaptationElapsed += dt
	progress := float32(1)
	if sc.adaptationDuration > 0 {
		progress = clampf(sc.adaptationElapsed/sc.adaptationDuration, 0, 1)
	}

	prev := sc.Position()
	pos := lerpVec3(vmath.TranslationOf(sc.startPosition), fc.Position(), progress)
	sc.positionMatrix = vmath.Translate4(pos)
	sc.orientationMatrix = vmath.CorrectedOrthogonal(
		vmath.Lerp4(sc.startOrientation, fc.orientationMatrix, progress))
	sc.SetFOV(sc.startFOV + (fc.fov-sc.startFOV)*progress)
	sc.deriveVelocity(prev, dt)

	if progress >= 1 {
		sc.adapting = false
	}
}

func (sc *SceneCamera) deriveVelocity(prev mgl32.Vec3, dt float32) {
	if dt > 0 {
		sc.velocity = sc.Position().Sub(prev).Mul(1 / dt)
	}
}
