package scene

import (
	"testing"

	"Armada3D/internal/resource"
)

func lodMeshForTest(levels ...int) *LODMesh {
	var models []ModelWithLOD
	for _, l := range levels {
		models = append(models, ModelWithLOD{
			Model: &fakeMesh{size: 2, opaque: 100 * (l + 1)},
			Level: l,
		})
	}
	return NewLODMesh(models, &fakeShader{}, false)
}

func TestLODSelectionPicksLargestQualifyingThreshold(t *testing.T) {
	m := lodMeshForTest(0, 1)
	lod := LODConfiguration{
		Thresholds:      map[int]float32{0: 0, 1: 60},
		MaxEnabledLevel: 1,
	}

	if got := m.selectLOD(80, lod); got == nil || got.Level != 1 {
		t.Fatalf("selectLOD(80) = %v, want level 1", got)
	}
	if got := m.selectLOD(10, lod); got == nil || got.Level != 0 {
		t.Fatalf("selectLOD(10) = %v, want level 0", got)
	}
}

func TestLODSelectionRespectsMaxEnabledLevel(t *testing.T) {
	m := lodMeshForTest(0, 1, 2)
	lod := LODConfiguration{
		Thresholds:      map[int]float32{0: 0, 1: 30, 2: 60},
		MaxEnabledLevel: 0,
	}
	if got := m.selectLOD(500, lod); got == nil || got.Level != 0 {
		t.Fatalf("selectLOD with cap 0 = %v, want level 0", got)
	}
}

func TestLODSelectionNoneQualifies(t *testing.T) {
	m := lodMeshForTest(2)
	lod := LODConfiguration{
		Thresholds:      map[int]float32{2: 50},
		MaxEnabledLevel: 4,
	}
	if got := m.selectLOD(10, lod); got != nil {
		t.Fatalf("selectLOD below every threshold = %v, want nil", got)
	}
	m.selected = nil
	if m.SelectedLevel() != -1 {
		t.Fatal("SelectedLevel without a selection should be -1")
	}
}

func TestLODSelectionMonotonic(t *testing.T) {
	m := lodMeshForTest(0, 1, 2, 3, 4)
	lod := DefaultLODConfiguration()

	last := -1
	for size := float32(0); size <= 500; size += 5 {
		sel := m.selectLOD(size, lod)
		if sel == nil {
			t.Fatalf("no level selected at size %v", size)
		}
		if sel.Level < last {
			t.Fatalf("level dropped from %d to %d as size grew to %v", last, sel.Level, size)
		}
		last = sel.Level
	}
	if last != 4 {
		t.Fatalf("largest size selected level %d, want 4", last)
	}
}

func TestLODMeshPassMembership(t *testing.T) {
	opaque := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 1, opaque: 10}, Level: 0},
	}, &fakeShader{}, false)
	if !opaque.RendersWithDepthMask() || opaque.RendersWithoutDepthMask() {
		t.Fatal("opaque-only mesh has wrong pass membership")
	}

	transparent := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 1, transparent: 10}, Level: 0},
	}, &fakeShader{}, false)
	if transparent.RendersWithDepthMask() || !transparent.RendersWithoutDepthMask() {
		t.Fatal("transparent-only mesh has wrong pass membership")
	}

	wireframe := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 1, opaque: 10}, Level: 0},
	}, &fakeShader{}, true)
	if !wireframe.RendersWithDepthMask() || !wireframe.RendersWithoutDepthMask() {
		t.Fatal("wireframe mesh must render in both passes")
	}
}

func TestSetWireframeRecomputesPassMembership(t *testing.T) {
	m := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 1, opaque: 10}, Level: 0},
	}, &fakeShader{}, false)

	m.SetWireframe(true)
	if !m.RendersWithDepthMask() || !m.RendersWithoutDepthMask() {
		t.Fatal("wireframe mesh must join both passes")
	}
	m.SetWireframe(false)
	if !m.RendersWithDepthMask() || m.RendersWithoutDepthMask() {
		t.Fatal("pass membership not restored after leaving wireframe")
	}
}

func TestRenderBindsDetailFactor(t *testing.T) {
	shader := &fakeShader{}
	m := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 2, opaque: 10}, Level: 0},
		{Model: &fakeMesh{size: 2, opaque: 10}, Level: 2},
		{Model: &fakeMesh{size: 2, opaque: 10}, Level: 4},
	}, shader, false)

	s := newTestScene()
	n := s.AddObject(NewNode(m))
	params := RenderParameters{
		Scene:          s,
		Camera:         s.camera,
		ViewportWidth:  800,
		ViewportHeight: 600,
		DepthMask:      true,
	}

	m.selected = &m.models[2]
	m.Render(&params, n)
	got, ok := shader.bound[resource.UniformLODFactor].(float32)
	if !ok || !approxf(got, 1) {
		t.Fatalf("detail factor at the highest level = %v, want 1",
			shader.bound[resource.UniformLODFactor])
	}

	m.selected = &m.models[1]
	m.Render(&params, n)
	if got := shader.bound[resource.UniformLODFactor].(float32); !approxf(got, 0.5) {
		t.Fatalf("detail factor at level 2 of 4 = %v, want 0.5", got)
	}
}

func TestLODMeshSizeIsLargestModel(t *testing.T) {
	m := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 2, opaque: 10}, Level: 0},
		{Model: &fakeMesh{size: 7, opaque: 10}, Level: 1},
	}, &fakeShader{}, false)
	if !approxf(m.Size(), 7) {
		t.Fatalf("Size = %v, want 7", m.Size())
	}
}

func TestShadowModelUsesHighestEnabledLevel(t *testing.T) {
	m := lodMeshForTest(0, 1, 2)
	lod := LODConfiguration{
		Thresholds:      map[int]float32{0: 0, 1: 30, 2: 60},
		MaxEnabledLevel: 1,
	}
	if got := m.shadowModel(lod); got == nil || got.Level != 1 {
		t.Fatalf("shadowModel = %v, want level 1", got)
	}
}

func TestLODMeshNeedsToBeRenderedPerPass(t *testing.T) {
	s := newTestScene()
	m := NewLODMesh([]ModelWithLOD{
		{Model: &fakeMesh{size: 1, opaque: 10}, Level: 0},
	}, &fakeShader{}, false)
	n := s.AddObject(NewNode(m))
	n.visibleWidth = 1
	n.visibleHeight = 1

	params := RenderParameters{
		Scene:          s,
		Camera:         s.camera,
		ViewportWidth:  800,
		ViewportHeight: 600,
	}

	params.DepthMask = true
	if !m.NeedsToBeRendered(&params, n) {
		t.Fatal("opaque mesh skipped in the opaque pass")
	}
	params.DepthMask = false
	if m.NeedsToBeRendered(&params, n) {
		t.Fatal("opaque mesh offered to the transparent pass")
	}
}
