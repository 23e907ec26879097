package opengl

import (
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex layout: position (3), normal (3), color (4), interleaved.
const floatsPerVertex = 10

// Vertex is one interleaved mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec4
}

// Mesh is GPU-resident indexed geometry. Faces must be ordered with the
// opaque triangles first so the triangle-count split lines up with the
// index buffer.
type Mesh struct {
	vao, vbo, ebo uint32
	mode          uint32

	indexCount       int32
	opaqueCount      int
	transparentCount int
	size             float32
}

// NewMesh uploads the vertex and index data. opaqueTriangles is the
// number of leading triangles in faces with fully opaque color.
func NewMesh(vertices []Vertex, faces []uint32, opaqueTriangles int) *Mesh {
	data := make([]float32, 0, len(vertices)*floatsPerVertex)
	size := float32(0)
	for _, v := range vertices {
		data = append(data,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.Color[0], v.Color[1], v.Color[2], v.Color[3])
		if l := v.Position.Len(); l > size {
			size = l
		}
	}

	m := &Mesh{
		mode:             gl.TRIANGLES,
		indexCount:       int32(len(faces)),
		opaqueCount:      opaqueTriangles,
		transparentCount: len(faces)/3 - opaqueTriangles,
		size:             size,
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(faces)*4, gl.Ptr(faces), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, gl.PtrOffset(6*4))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	return m
}

// NewPointMesh uploads positions rendered as GL points.
func NewPointMesh(positions []mgl32.Vec3) *Mesh {
	vertices := make([]Vertex, len(positions))
	faces := make([]uint32, len(positions))
	for i, p := range positions {
		vertices[i] = Vertex{Position: p, Color: mgl32.Vec4{1, 1, 1, 1}}
		faces[i] = uint32(i)
	}
	m := NewMesh(vertices, faces, 0)
	m.mode = gl.POINTS
	m.opaqueCount = 0
	m.transparentCount = len(positions)
	return m
}

// NewQuadMesh builds the unit quad used by the background (covering the
// whole viewport in clip space) and by billboards (expanded in the
// vertex shader).
func NewQuadMesh() *Mesh {
	vertices := []Vertex{
		{Position: mgl32.Vec3{-1, -1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{1, -1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{-1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Color: mgl32.Vec4{1, 1, 1, 1}},
	}
	faces := []uint32{0, 1, 2, 0, 2, 3}
	m := NewMesh(vertices, faces, 0)
	m.transparentCount = 2
	return m
}

func (m *Mesh) Size() float32                 { return m.size }
func (m *Mesh) OpaqueTriangleCount() int      { return m.opaqueCount }
func (m *Mesh) TransparentTriangleCount() int { return m.transparentCount }

func (m *Mesh) Render(wireframe bool) {
	if wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElements(m.mode, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (m *Mesh) RenderDepth() {
	gl.BindVertexArray(m.vao)
	gl.DrawElements(m.mode, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Delete releases the GPU buffers.
func (m *Mesh) Delete() {
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteVertexArrays(1, &m.vao)
}

// NewSphereMesh generates a lat/long sphere, the workhorse test body
// for LOD level authoring. Higher segment counts are higher levels.
func NewSphereMesh(radius float32, segments int, color mgl32.Vec4) *Mesh {
	var vertices []Vertex
	var faces []uint32

	for lat := 0; lat <= segments; lat++ {
		theta := float64(lat) / float64(segments) * math.Pi
		for lon := 0; lon <= segments; lon++ {
			phi := float64(lon) / float64(segments) * 2 * math.Pi
			normal := mgl32.Vec3{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Cos(theta)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			vertices = append(vertices, Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				Color:    color,
			})
		}
	}

	cols := uint32(segments + 1)
	for lat := 0; lat < segments; lat++ {
		for lon := 0; lon < segments; lon++ {
			a := uint32(lat)*cols + uint32(lon)
			b := a + cols
			faces = append(faces, a, b, a+1, a+1, b, b+1)
		}
	}

	opaque := len(faces) / 3
	if color[3] < 1 {
		opaque = 0
	}
	return NewMesh(vertices, faces, opaque)
}
