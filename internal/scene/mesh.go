package scene

import (
	"sort"

	"Armada3D/internal/resource"
	"Armada3D/internal/vmath"
)

// ModelWithLOD pairs a mesh resource with the integer detail level it
// represents. Levels need not be contiguous.
type ModelWithLOD struct {
	Model resource.Mesh
	Level int
}

// LODMesh is a node drawable owning an ordered set of LOD models. Each
// frame the most appropriate level for the node's apparent size is
// selected; the mesh contributes to the opaque pass when the selected
// model has opaque triangles and to the transparent pass when it has
// transparent ones. Wireframe meshes render in both passes
// unconditionally.
type LODMesh struct {
	baseDrawable
	models    []ModelWithLOD // ascending by level
	maxLevel  int
	wireframe bool

	// CastsShadows controls participation in the depth-only shadow
	// passes. On by default.
	CastsShadows bool

	selected *ModelWithLOD

	node           *Node
	uniforms       map[string]resource.UniformSource
	shadowUniforms map[string]resource.UniformSource
}

func NewLODMesh(models []ModelWithLOD, shader resource.Shader, wireframe bool) *LODMesh {
	m := &LODMesh{
		models:       append([]ModelWithLOD(nil), models...),
		wireframe:    wireframe,
		CastsShadows: true,
	}
	sort.Slice(m.models, func(i, j int) bool { return m.models[i].Level < m.models[j].Level })
	if len(m.models) > 0 {
		m.maxLevel = m.models[len(m.models)-1].Level
	}

	m.shader = shader
	for _, mod := range m.models {
		if mod.Model.Size() > m.size {
			m.size = mod.Model.Size()
		}
		if mod.Model.OpaqueTriangleCount() > 0 {
			m.withDepthMask = true
		}
		if mod.Model.TransparentTriangleCount() > 0 {
			m.withoutDepthMask = true
		}
	}
	if wireframe {
		m.withDepthMask = true
		m.withoutDepthMask = true
	}

	modelMatrix := func() interface{} { return m.node.CascadeModelMatrix() }
	m.uniforms = map[string]resource.UniformSource{
		resource.UniformModelMatrix: modelMatrix,
		resource.UniformNormalMatrix: func() interface{} {
			return vmath.NormalMatrix(m.node.CascadeModelMatrix())
		},
		resource.UniformLODFactor: func() interface{} { return m.lodFactor() },
	}
	m.shadowUniforms = map[string]resource.UniformSource{
		resource.UniformModelMatrix: modelMatrix,
	}
	return m
}

// SetWireframe switches line rendering on or off and recomputes the
// pass membership, since wireframe geometry draws in both passes.
func (m *LODMesh) SetWireframe(enabled bool) {
	m.wireframe = enabled
	m.withDepthMask = enabled
	m.withoutDepthMask = enabled
	if enabled {
		return
	}
	for _, mod := range m.models {
		if mod.Model.OpaqueTriangleCount() > 0 {
			m.withDepthMask = true
		}
		if mod.Model.TransparentTriangleCount() > 0 {
			m.withoutDepthMask = true
		}
	}
}

func (m *LODMesh) Wireframe() bool { return m.wireframe }

// lodFactor is the fraction of the mesh's own detail range the current
// selection sits at, 1 at the highest level the mesh owns and 0 at the
// lowest. The lit shader scales specular highlights by it so far-away
// low-detail levels do not shimmer.
func (m *LODMesh) lodFactor() float32 {
	if m.selected == nil || m.maxLevel == 0 {
		return 1
	}
	return float32(m.selected.Level) / float32(m.maxLevel)
}

// SelectedLevel returns the level chosen by the last selection, or -1
// when none qualified.
func (m *LODMesh) SelectedLevel() int {
	if m.selected == nil {
		return -1
	}
	return m.selected.Level
}

// selectLOD keeps the model whose threshold is the closest bracketing
// value below visibleSize without exceeding the enabled-level cap; ties
// prefer the higher-detail level. Returns nil when no level satisfies
// the constraint — the mesh then contributes nothing this frame.
func (m *LODMesh) selectLOD(visibleSize float32, lod LODConfiguration) *ModelWithLOD {
	var best *ModelWithLOD
	var bestThreshold float32
	for i := range m.models {
		mod := &m.models[i]
		if mod.Level > lod.MaxEnabledLevel {
			continue
		}
		threshold := lod.Thresholds[mod.Level]
		if threshold > visibleSize {
			continue
		}
		if best == nil || threshold > bestThreshold ||
			(threshold == bestThreshold && mod.Level > best.Level) {
			best = mod
			bestThreshold = threshold
		}
	}
	return best
}

// shadowModel is the highest-detail enabled level; shadow casters are
// not LOD-gated by the main view's apparent size.
func (m *LODMesh) shadowModel(lod LODConfiguration) *ModelWithLOD {
	var best *ModelWithLOD
	for i := range m.models {
		mod := &m.models[i]
		if mod.Level > lod.MaxEnabledLevel {
			continue
		}
		if best == nil || mod.Level > best.Level {
			best = mod
		}
	}
	return best
}

func (m *LODMesh) NeedsToBeRendered(p *RenderParameters, n *Node) bool {
	visibleSize := n.VisibleSize(p.ViewportWidth, p.ViewportHeight)
	m.selected = m.selectLOD(visibleSize, p.Scene.lod)
	if m.selected == nil {
		return false
	}
	if m.wireframe {
		return true
	}
	if p.DepthMask {
		return m.selected.Model.OpaqueTriangleCount() > 0
	}
	return m.selected.Model.TransparentTriangleCount() > 0
}

func (m *LODMesh) Render(p *RenderParameters, n *Node) int {
	m.node = n
	m.shader.Bind()
	m.shader.BindUniforms(p.Scene.UniformSources())
	m.shader.BindUniforms(m.uniforms)
	m.selected.Model.Render(m.wireframe)
	if p.DepthMask {
		return m.selected.Model.OpaqueTriangleCount()
	}
	return m.selected.Model.TransparentTriangleCount()
}

func (m *LODMesh) RenderShadowMap(p *RenderParameters, n *Node) {
	if !m.CastsShadows {
		return
	}
	shader := p.Scene.ShadowShader()
	if shader == nil {
		return
	}
	model := m.shadowModel(p.Scene.lod)
	if model == nil {
		return
	}
	m.node = n
	shader.BindUniforms(m.shadowUniforms)
	model.Model.RenderDepth()
}
