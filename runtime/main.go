// Demo scene: a small convoy of LOD spheres under a shadow-casting sun,
// a starfield backdrop and a dust cloud drifting past the camera. Tab
// cycles the chase camera between ships, V cycles a ship's views.
package main

import (
	"math"
	"os"
	"time"

	"Armada3D/internal/engine"
	"Armada3D/internal/logger"
	"Armada3D/internal/opengl"
	"Armada3D/internal/scene"
	"Armada3D/internal/starfield"
	"Armada3D/internal/vmath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func main() {
	eng := engine.New(engine.Config{
		Title:  "Armada3D",
		Width:  1280,
		Height: 720,
	})
	if err := eng.Run(setup); err != nil {
		logger.Log.Error("Engine terminated", zap.Error(err))
		os.Exit(1)
	}
}

func setup(eng *engine.Engine) error {
	s := eng.Scene()

	objectShader, err := opengl.NewObjectShader()
	if err != nil {
		return err
	}
	backgroundShader, err := opengl.NewBackgroundShader()
	if err != nil {
		return err
	}
	billboardShader, err := opengl.NewBillboardShader()
	if err != nil {
		return err
	}
	pointShader, err := opengl.NewPointShader()
	if err != nil {
		return err
	}
	depthShader, err := opengl.NewDepthShader()
	if err != nil {
		return err
	}

	s.AddBackgroundObject(scene.NewNode(scene.NewBackground(opengl.NewQuadMesh(), backgroundShader)))

	sun := scene.NewLightSource(mgl32.Vec3{1, 0.97, 0.9}, mgl32.Vec3{-0.4, -1, -0.2}, true)
	s.AddLightSource(sun)

	ships := buildConvoy(s, objectShader, billboardShader)

	dust := addStarfield(s, pointShader)

	if err := s.EnableShadowMapping(opengl.FramebufferFactory{},
		scene.DefaultShadowMappingParams(depthShader)); err != nil {
		return err
	}

	s.Camera().FollowObject(ships[0], scene.DefaultAdaptationDuration)

	elapsed := float32(0)
	eng.SetOnFrame(func(dt float32) {
		elapsed += dt
		driveConvoy(ships, elapsed)
		// Drift the dust opposite the camera's motion so flying through
		// it reads as speed.
		dust.SetShift(dust.Shift().Sub(s.Camera().Velocity().Mul(dt)))
	})
	return nil
}

// buildConvoy creates three ships with three LOD levels each, a chase
// and a side view, and an engine-glow particle at the stern.
func buildConvoy(s *scene.Scene, objectShader, billboardShader *opengl.Shader) []*scene.Node {
	hull := mgl32.Vec4{0.55, 0.57, 0.62, 1}
	models := []scene.ModelWithLOD{
		{Model: opengl.NewSphereMesh(4, 6, hull), Level: 0},
		{Model: opengl.NewSphereMesh(4, 12, hull), Level: 2},
		{Model: opengl.NewSphereMesh(4, 24, hull), Level: 4},
	}

	glowMesh := opengl.NewQuadMesh()
	var ships []*scene.Node
	for i := 0; i < 3; i++ {
		mesh := scene.NewLODMesh(models, objectShader, false)
		ship := s.AddObject(scene.NewNode(mesh))
		ship.SetPosition(mgl32.Vec3{float32(i-1) * 25, 0, float32(i) * -15})
		ship.SetMinimumSizeForChildren(12)

		glow := scene.NewStaticParticle(glowMesh, billboardShader,
			mgl32.Vec4{0.4, 0.7, 1, 0.8}, 2)
		stern := ship.AddSubnode(scene.NewNode(glow))
		stern.SetPosition(mgl32.Vec3{0, -5, 0})

		chase := scene.NewCamera(1280.0/720.0, 60)
		chase.FollowNode(ship, vmath.Translate4(mgl32.Vec3{0, -18, 5}), mgl32.Ident4(), true)
		ship.AddView(chase)

		side := scene.NewCamera(1280.0/720.0, 50)
		side.FollowNode(ship, vmath.Translate4(mgl32.Vec3{20, 0, 3}), mgl32.Ident4(), true)
		ship.AddView(side)

		ships = append(ships, ship)
	}
	return ships
}

// driveConvoy flies the ships along a slow weave so the chase cameras
// and shadow cascades have motion to track.
func driveConvoy(ships []*scene.Node, elapsed float32) {
	for i, ship := range ships {
		phase := elapsed*0.2 + float32(i)*2.1
		x := float32(i-1)*25 + 10*float32(math.Sin(float64(phase)))
		ship.SetPosition(mgl32.Vec3{x, 8 * elapsed, float32(i) * -15})
		ship.SetOrientationMatrix(vmath.Rotate4(mgl32.Vec3{0, 1, 0},
			0.15*float32(math.Sin(float64(phase)))))
	}
}

func addStarfield(s *scene.Scene, pointShader *opengl.Shader) *scene.PointCloud {
	config := starfield.Config{Seed: time.Now().UnixNano()}
	stars := starfield.Stars(config)
	positions := make([]mgl32.Vec3, len(stars))
	for i, star := range stars {
		positions[i] = star.Position
	}
	starCloud := scene.NewPointCloud(pointShader, mgl32.Vec4{1, 1, 1, 1}, 5000)
	starNode := s.AddBackgroundObject(scene.NewNode(starCloud))
	starNode.AddSubnode(scene.NewNode(scene.NewPointParticle(opengl.NewPointMesh(positions), starCloud)))

	dust := scene.NewPointCloud(pointShader, mgl32.Vec4{0.6, 0.6, 0.7, 0.4}, 500)
	dustNode := s.AddObject(scene.NewNode(dust))
	dustNode.AddSubnode(scene.NewNode(scene.NewPointParticle(
		opengl.NewPointMesh(starfield.DustPositions(config)), dust)))
	return dust
}
