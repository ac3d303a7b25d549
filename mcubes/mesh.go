package mcubes

import (
	"github.com/soypat/glgl/math/ms3"
)

// Mesh holds the buffers produced by one tick. Vertices are never shared
// between triangles: triangle k is formed by vertices 3k, 3k+1 and 3k+2,
// and Indices[i] == i always.
type Mesh struct {
	Vertices []ms3.Vec
	Indices  []uint32
	Normals  []ms3.Vec
}

// Reset empties the mesh keeping the allocated buffers.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	m.Normals = m.Normals[:0]
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangles appends the mesh triangles to dst and returns the result.
func (m *Mesh) Triangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		dst = append(dst, ms3.Triangle{
			m.Vertices[m.Indices[i]],
			m.Vertices[m.Indices[i+1]],
			m.Vertices[m.Indices[i+2]],
		})
	}
	return dst
}

// Bounds returns the bounding box of the mesh vertices.
// The zero Box is returned for an empty mesh.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}

// CopyTo copies the contents of m into dst reusing dst's buffers.
func (m *Mesh) CopyTo(dst *Mesh) {
	dst.Vertices = append(dst.Vertices[:0], m.Vertices...)
	dst.Indices = append(dst.Indices[:0], m.Indices...)
	dst.Normals = append(dst.Normals[:0], m.Normals...)
}

// appendTriangle adds a split triangle with its vertex normals left for
// later estimation.
func (m *Mesh) appendTriangle(a, b, c ms3.Vec) {
	n := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, a, b, c)
	m.Indices = append(m.Indices, n, n+1, n+2)
}

// Sink receives the mesh buffers once per tick. The slices are only valid
// during the call: they are reused by the next tick, so a sink that keeps
// them must copy them.
type Sink interface {
	SetMesh(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error

// SetMesh calls f.
func (f SinkFunc) SetMesh(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error {
	return f(vertices, indices, normals)
}

// MeshCopy is a Sink that keeps an owned copy of the last mesh received.
type MeshCopy struct {
	Mesh
	// Ticks counts the meshes received.
	Ticks int
}

// SetMesh replaces the stored mesh with a copy of the arguments.
func (mc *MeshCopy) SetMesh(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error {
	src := Mesh{Vertices: vertices, Indices: indices, Normals: normals}
	src.CopyTo(&mc.Mesh)
	mc.Ticks++
	return nil
}
