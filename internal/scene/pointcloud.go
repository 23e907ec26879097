package scene

import (
	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// PointCloud draws no geometry of its own. It binds the shared shader
// state (color, shift) once per pass; its PointParticle subnodes then
// render point meshes against that state. Attaching the particles as
// subnodes keeps them inside the cloud's transform cascade.
type PointCloud struct {
	baseDrawable
	color mgl32.Vec4

	// shift translates every point in the cloud, wrapped by the shader
	// modulo farthestZ. Used for the dust field drifting past the camera.
	shift     mgl32.Vec3
	farthestZ float32

	uniforms map[string]resource.UniformSource
}

func NewPointCloud(shader resource.Shader, color mgl32.Vec4, farthestZ float32) *PointCloud {
	c := &PointCloud{
		baseDrawable: baseDrawable{
			shader:           shader,
			size:             1,
			withoutDepthMask: true,
		},
		color:     color,
		farthestZ: farthestZ,
	}
	c.uniforms = map[string]resource.UniformSource{
		resource.UniformColor:     func() interface{} { return c.color },
		resource.UniformShift:     func() interface{} { return c.shift },
		resource.UniformFarthestZ: func() interface{} { return c.farthestZ },
	}
	return c
}

func (c *PointCloud) SetShift(shift mgl32.Vec3) { c.shift = shift }

func (c *PointCloud) Shift() mgl32.Vec3 { return c.shift }

func (c *PointCloud) Shader() resource.Shader { return c.shader }

func (c *PointCloud) AlwaysInsideFrustum() bool { return true }

func (c *PointCloud) NeedsToBeRendered(p *RenderParameters, n *Node) bool { return true }

// Render only binds state; the subnode particles contribute the
// geometry.
func (c *PointCloud) Render(p *RenderParameters, n *Node) int {
	c.shader.Bind()
	c.shader.BindUniforms(p.Scene.UniformSources())
	c.shader.BindUniforms(c.uniforms)
	return 0
}

// PointParticle renders a point mesh with the shader its parent
// PointCloud bound. It carries only its own model matrix; everything
// else was set by the cloud.
type PointParticle struct {
	baseDrawable
	mesh resource.Mesh

	node     *Node
	uniforms map[string]resource.UniformSource
}

func NewPointParticle(mesh resource.Mesh, cloud *PointCloud) *PointParticle {
	p := &PointParticle{
		baseDrawable: baseDrawable{
			shader:           cloud.Shader(),
			size:             mesh.Size(),
			withoutDepthMask: true,
		},
		mesh: mesh,
	}
	p.uniforms = map[string]resource.UniformSource{
		resource.UniformModelMatrix: func() interface{} { return p.node.CascadeModelMatrix() },
	}
	return p
}

func (p *PointParticle) AlwaysInsideFrustum() bool { return true }

func (p *PointParticle) NeedsToBeRendered(params *RenderParameters, n *Node) bool { return true }

func (p *PointParticle) Render(params *RenderParameters, n *Node) int {
	p.node = n
	p.shader.BindUniforms(p.uniforms)
	p.mesh.Render(false)
	return p.mesh.OpaqueTriangleCount() + p.mesh.TransparentTriangleCount()
}
