package scene

import (
	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// Billboard is a camera-facing textured quad. Two triangles are cheaper
// to draw than to cull, so billboards always count as inside the
// frustum. Billboards are transparent geometry and render only in the
// depth-write-off pass.
type Billboard struct {
	baseDrawable
	mesh resource.Mesh

	node     *Node
	uniforms map[string]resource.UniformSource
}

func NewBillboard(mesh resource.Mesh, shader resource.Shader, size float32) *Billboard {
	b := &Billboard{
		baseDrawable: baseDrawable{
			shader:           shader,
			size:             size,
			withoutDepthMask: true,
		},
		mesh: mesh,
	}
	b.uniforms = map[string]resource.UniformSource{
		resource.UniformModelMatrix:   func() interface{} { return b.node.CascadeModelMatrix() },
		resource.UniformBillboardSize: func() interface{} { return b.size },
	}
	return b
}

func (b *Billboard) AlwaysInsideFrustum() bool { return true }

func (b *Billboard) NeedsToBeRendered(p *RenderParameters, n *Node) bool { return true }

func (b *Billboard) Render(p *RenderParameters, n *Node) int {
	b.node = n
	b.shader.Bind()
	b.shader.BindUniforms(p.Scene.UniformSources())
	b.shader.BindUniforms(b.uniforms)
	b.mesh.Render(false)
	return b.mesh.OpaqueTriangleCount() + b.mesh.TransparentTriangleCount()
}

// billboardUniforms is shared by the particle variants, which extend
// the plain billboard with color and luminosity.
func particleUniforms(node **Node, size *float32, color *mgl32.Vec4, luminosity func() float32) map[string]resource.UniformSource {
	return map[string]resource.UniformSource{
		resource.UniformModelMatrix:   func() interface{} { return (*node).CascadeModelMatrix() },
		resource.UniformBillboardSize: func() interface{} { return *size },
		resource.UniformColor:         func() interface{} { return *color },
		resource.UniformLuminosityFactors: func() interface{} {
			return luminosity()
		},
	}
}
