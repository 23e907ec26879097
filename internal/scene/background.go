package scene

import (
	"Armada3D/internal/resource"
	"Armada3D/internal/vmath"
)

// Background fills the whole viewport with two triangles, sampling a
// sky/cubemap via the inverse view-projection. It is always considered
// inside the frustum and renders in the background phase with depth
// writes off, so it can never occlude anything.
type Background struct {
	baseDrawable
	mesh resource.Mesh

	params   *RenderParameters
	uniforms map[string]resource.UniformSource
}

func NewBackground(mesh resource.Mesh, shader resource.Shader) *Background {
	b := &Background{
		baseDrawable: baseDrawable{
			shader:           shader,
			size:             1,
			withoutDepthMask: true,
		},
		mesh: mesh,
	}
	b.uniforms = map[string]resource.UniformSource{
		resource.UniformInverseViewProjection: func() interface{} {
			// Rotation-only view: the background sits at infinity and
			// must not translate with the camera.
			cam := &b.params.Camera.Camera
			vp := cam.ProjectionMatrix().Mul4(vmath.InvRotation(cam.OrientationMatrix()))
			return vmath.InvMat4(vp)
		},
	}
	return b
}

func (b *Background) AlwaysInsideFrustum() bool { return true }

func (b *Background) NeedsToBeRendered(p *RenderParameters, n *Node) bool { return true }

func (b *Background) Render(p *RenderParameters, n *Node) int {
	b.params = p
	b.shader.Bind()
	b.shader.BindUniforms(b.uniforms)
	b.mesh.Render(false)
	return b.mesh.OpaqueTriangleCount() + b.mesh.TransparentTriangleCount()
}
