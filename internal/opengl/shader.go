package opengl

import (
	"fmt"
	"strings"

	"Armada3D/internal/logger"
	"Armada3D/internal/resource"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Shader is a linked GL program. Uniform locations are resolved once
// and cached; names the program does not declare resolve to -1 and all
// binds against them are silently skipped, which is what lets the scene
// offer its full uniform set to every shader.
type Shader struct {
	program   uint32
	locations map[string]int32
}

// currentProgram avoids redundant glUseProgram calls; shader switches
// dominate draw call overhead in the color passes.
var currentProgram uint32 = ^uint32(0)

func NewShader(vertexSource, fragmentSource string) (*Shader, error) {
	vertex, err := compile(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	fragment, err := compile(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertex)
		return nil, fmt.Errorf("fragment shader: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)
	gl.DeleteShader(vertex)
	gl.DeleteShader(fragment)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		err := fmt.Errorf("link failed: %v", log)
		logger.Log.Error("Shader link failed", zap.Error(err))
		return nil, err
	}

	return &Shader{
		program:   program,
		locations: map[string]int32{},
	}, nil
}

func compile(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (s *Shader) Bind() {
	if currentProgram == s.program {
		return
	}
	gl.UseProgram(s.program)
	currentProgram = s.program
}

func (s *Shader) location(name string) int32 {
	if loc, ok := s.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.program, gl.Str(name+"\x00"))
	s.locations[name] = loc
	return loc
}

// BindUniforms resolves each named source and uploads its value. Names
// without a location in this program are skipped without evaluating the
// source.
func (s *Shader) BindUniforms(uniforms map[string]resource.UniformSource) {
	s.Bind()
	for name, source := range uniforms {
		loc := s.location(name)
		if loc < 0 {
			continue
		}
		switch v := source().(type) {
		case mgl32.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case mgl32.Mat3:
			gl.UniformMatrix3fv(loc, 1, false, &v[0])
		case mgl32.Vec4:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case mgl32.Vec3:
			gl.Uniform3f(loc, v[0], v[1], v[2])
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case int:
			gl.Uniform1i(loc, int32(v))
		case []mgl32.Mat4:
			if len(v) > 0 {
				gl.UniformMatrix4fv(loc, int32(len(v)), false, &v[0][0])
			}
		case []mgl32.Vec3:
			if len(v) > 0 {
				gl.Uniform3fv(loc, int32(len(v)), &v[0][0])
			}
		case []int32:
			if len(v) > 0 {
				gl.Uniform1iv(loc, int32(len(v)), &v[0])
			}
		default:
			logger.Log.Warn("Unsupported uniform type",
				zap.String("name", name))
		}
	}
}
