package scene

import (
	"time"

	"Armada3D/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// Particles below this relative size contribute nothing visible and are
// skipped.
const minVisibleRelativeSize = 0.01

// DynamicParticle is a short-lived billboard (explosion flash, thruster
// puff). Once its elapsed lifetime exceeds the configured duration it
// marks itself ready for removal; the next cleanup sweep drops its
// node. Its luminosity fades with the remaining fraction of its life.
type DynamicParticle struct {
	baseDrawable
	mesh  resource.Mesh
	color mgl32.Vec4

	born     time.Time
	duration time.Duration

	node     *Node
	uniforms map[string]resource.UniformSource
}

func NewDynamicParticle(mesh resource.Mesh, shader resource.Shader, color mgl32.Vec4, size float32, duration time.Duration) *DynamicParticle {
	p := &DynamicParticle{
		baseDrawable: baseDrawable{
			shader:           shader,
			size:             size,
			withoutDepthMask: true,
		},
		mesh:     mesh,
		color:    color,
		born:     time.Now(),
		duration: duration,
	}
	p.uniforms = particleUniforms(&p.node, &p.size, &p.color, p.remainingFraction)
	return p
}

func (p *DynamicParticle) remainingFraction() float32 {
	if p.duration <= 0 {
		return 0
	}
	f := 1 - float32(time.Since(p.born))/float32(p.duration)
	return clampf(f, 0, 1)
}

func (p *DynamicParticle) AlwaysInsideFrustum() bool { return true }

// ShouldBeRemoved answers the cleanup sweep directly from elapsed time;
// a particle never rendered again after expiring is still swept.
func (p *DynamicParticle) ShouldBeRemoved() bool {
	return time.Since(p.born) > p.duration
}

func (p *DynamicParticle) NeedsToBeRendered(params *RenderParameters, n *Node) bool {
	return p.remainingFraction() > 0
}

func (p *DynamicParticle) Render(params *RenderParameters, n *Node) int {
	p.node = n
	p.shader.Bind()
	p.shader.BindUniforms(params.Scene.UniformSources())
	p.shader.BindUniforms(p.uniforms)
	p.mesh.Render(false)
	return p.mesh.OpaqueTriangleCount() + p.mesh.TransparentTriangleCount()
}

// StaticParticle is a persistent billboard (engine glow) whose visible
// size is driven externally through SetRelativeSize. It never expires;
// it simply becomes invisible below the minimum relative size.
type StaticParticle struct {
	baseDrawable
	mesh  resource.Mesh
	color mgl32.Vec4

	relativeSize float32
	renderedSize float32

	node     *Node
	uniforms map[string]resource.UniformSource
}

func NewStaticParticle(mesh resource.Mesh, shader resource.Shader, color mgl32.Vec4, size float32) *StaticParticle {
	p := &StaticParticle{
		baseDrawable: baseDrawable{
			shader:           shader,
			size:             size,
			withoutDepthMask: true,
		},
		mesh:         mesh,
		color:        color,
		relativeSize: 1,
	}
	p.uniforms = particleUniforms(&p.node, &p.renderedSize, &p.color, func() float32 {
		return p.relativeSize
	})
	return p
}

// SetRelativeSize drives both the rendered size and the visibility of
// the particle (thruster intensity, for example).
func (p *StaticParticle) SetRelativeSize(v float32) { p.relativeSize = v }

func (p *StaticParticle) RelativeSize() float32 { return p.relativeSize }

func (p *StaticParticle) AlwaysInsideFrustum() bool { return true }

func (p *StaticParticle) NeedsToBeRendered(params *RenderParameters, n *Node) bool {
	return p.relativeSize >= minVisibleRelativeSize
}

func (p *StaticParticle) Render(params *RenderParameters, n *Node) int {
	p.node = n
	p.renderedSize = p.size * p.relativeSize
	p.shader.Bind()
	p.shader.BindUniforms(params.Scene.UniformSources())
	p.shader.BindUniforms(p.uniforms)
	p.mesh.Render(false)
	return p.mesh.OpaqueTriangleCount() + p.mesh.TransparentTriangleCount()
}
