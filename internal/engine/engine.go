// Package engine owns the window, the GL context and the frame loop,
// and maps input onto the scene camera's digital controls. The
// rendering core below it never touches glfw.
package engine

import (
	"runtime"

	"Armada3D/internal/logger"
	"Armada3D/internal/opengl"
	"Armada3D/internal/scene"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Config is the window and scene setup. Zero values fall back to the
// defaults below.
type Config struct {
	Title         string
	Width, Height int32
	ClearColor    [4]float32
	LOD           scene.LODConfiguration
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Armada3D"
	}
	if c.Width == 0 {
		c.Width = 1280
	}
	if c.Height == 0 {
		c.Height = 720
	}
	if c.LOD.Thresholds == nil {
		c.LOD = scene.DefaultLODConfiguration()
	}
}

// Engine drives one window and one scene. Everything runs on the main
// OS thread; behaviors hook in through the frame callback.
type Engine struct {
	config  Config
	window  *glfw.Window
	context *opengl.Context
	scene   *scene.Scene

	// onFrame runs before each render with the frame's dt, for
	// simulation updates.
	onFrame func(dt float32)
}

func New(config Config) *Engine {
	logger.Init()
	config.applyDefaults()
	return &Engine{config: config}
}

func (e *Engine) Scene() *scene.Scene      { return e.scene }
func (e *Engine) Context() *opengl.Context { return e.context }
func (e *Engine) Window() *glfw.Window     { return e.window }

func (e *Engine) SetOnFrame(fn func(dt float32)) { e.onFrame = fn }

// Run opens the window, builds the scene and enters the frame loop.
// setup runs once with the GL context live, so it can create meshes and
// shaders. Run blocks until the window closes.
func (e *Engine) Run(setup func(*Engine) error) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		logger.Log.Error("Could not initialize glfw", zap.Error(err))
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(e.config.Width), int(e.config.Height), e.config.Title, nil, nil)
	if err != nil {
		logger.Log.Error("Could not create glfw window", zap.Error(err))
		return err
	}
	e.window = window
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	e.context, err = opengl.NewContext(e.config.Width, e.config.Height)
	if err != nil {
		return err
	}

	e.scene = scene.NewScene(0, 0, e.config.Width, e.config.Height,
		e.config.ClearColor, e.config.LOD)
	window.SetKeyCallback(e.keyCallback)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			return
		}
		e.context.Resize(int32(width), int32(height))
		e.scene.ResizeViewport(int32(width), int32(height))
	})

	if setup != nil {
		if err := setup(e); err != nil {
			return err
		}
	}

	logger.Log.Info("Engine running",
		zap.Int32("width", e.config.Width), zap.Int32("height", e.config.Height))
	e.loop()
	return nil
}

func (e *Engine) loop() {
	lastTime := glfw.GetTime()
	for !e.window.ShouldClose() {
		now := glfw.GetTime()
		dt := float32(now - lastTime)
		lastTime = now

		e.pollHeldKeys()
		if e.onFrame != nil {
			e.onFrame(dt)
		}
		e.scene.Render(e.context, dt)

		e.window.SwapBuffers()
		glfw.PollEvents()
	}
}

// pollHeldKeys feeds the digital movement controls every frame a key
// stays down, so velocities ramp along the acceleration curve.
func (e *Engine) pollHeldKeys() {
	cam := &e.scene.Camera().Camera
	held := func(key glfw.Key) bool { return e.window.GetKey(key) == glfw.Press }

	if held(glfw.KeyW) {
		cam.MoveForward()
	}
	if held(glfw.KeyS) {
		cam.MoveBackward()
	}
	if held(glfw.KeyA) {
		cam.MoveLeft()
	}
	if held(glfw.KeyD) {
		cam.MoveRight()
	}
	if held(glfw.KeyR) {
		cam.MoveUp()
	}
	if held(glfw.KeyF) {
		cam.MoveDown()
	}
	if held(glfw.KeyLeft) {
		cam.TurnLeft()
	}
	if held(glfw.KeyRight) {
		cam.TurnRight()
	}
	if held(glfw.KeyUp) {
		cam.PitchUp()
	}
	if held(glfw.KeyDown) {
		cam.PitchDown()
	}
}

func (e *Engine) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	cam := e.scene.Camera()
	if action == glfw.Release {
		switch key {
		case glfw.KeyW:
			cam.StopForward()
		case glfw.KeyS:
			cam.StopBackward()
		case glfw.KeyA:
			cam.StopLeft()
		case glfw.KeyD:
			cam.StopRight()
		case glfw.KeyR:
			cam.StopUp()
		case glfw.KeyF:
			cam.StopDown()
		case glfw.KeyLeft:
			cam.StopLeftTurn()
		case glfw.KeyRight:
			cam.StopRightTurn()
		case glfw.KeyUp:
			cam.StopPitchUp()
		case glfw.KeyDown:
			cam.StopPitchDown()
		}
		return
	}
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		e.window.SetShouldClose(true)
	case glfw.KeyTab:
		cam.FollowNextObject(scene.DefaultAdaptationDuration)
	case glfw.KeyV:
		cam.ChangeToNextView(scene.DefaultAdaptationDuration)
	case glfw.KeyQ:
		cam.DecreaseFOV()
	case glfw.KeyE:
		cam.IncreaseFOV()
	}
}
