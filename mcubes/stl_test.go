package mcubes

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
)

func TestSTLRoundTrip(t *testing.T) {
	m, err := NewMesher(Config{HalfExtent: 1.5, Step: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := m.Extract(metaball.Sphere{Center: ms3.Vec{X: 0.05}, Radius: 1.1})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := WriteBinarySTL(&buf, mesh)
	if err != nil {
		t.Fatal(err)
	}
	if want := stlHeaderSize + stlTriangleSize*mesh.TriangleCount(); n != want || buf.Len() != want {
		t.Fatalf("wrote %d bytes (buffer %d), want %d", n, buf.Len(), want)
	}
	tris, normals, err := ReadBinarySTL(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := mesh.Triangles(nil)
	if len(tris) != len(want) {
		t.Fatalf("read %d triangles, want %d", len(tris), len(want))
	}
	for i := range tris {
		if tris[i] != want[i] {
			t.Errorf("triangle %d: got %v, want %v", i, tris[i], want[i])
		}
		if math32.Abs(ms3.Norm(normals[i])-1) > 1e-5 {
			t.Errorf("facet normal %d is not unit: %v", i, normals[i])
		}
		// Right hand rule on the vertex order must agree with the facet normal.
		geom := ms3.Cross(ms3.Sub(tris[i][1], tris[i][0]), ms3.Sub(tris[i][2], tris[i][0]))
		if ms3.Norm(geom) > 1e-6 && ms3.Dot(geom, normals[i]) <= 0 {
			t.Errorf("triangle %d vertex order disagrees with facet normal %v", i, normals[i])
		}
	}
}

func TestSTLEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteBinarySTL(&buf, &Mesh{})
	if err != nil {
		t.Fatal(err)
	}
	if n != stlHeaderSize {
		t.Errorf("empty mesh wrote %d bytes, want %d", n, stlHeaderSize)
	}
	tris, _, err := ReadBinarySTL(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(tris) != 0 {
		t.Errorf("read %d triangles from empty file", len(tris))
	}
}

func TestSTLErrors(t *testing.T) {
	bad := &Mesh{
		Vertices: []ms3.Vec{{}, {X: 1}, {Y: 1}},
		Indices:  []uint32{0, 1, 2},
	}
	_, err := WriteBinarySTL(&bytes.Buffer{}, bad)
	if err == nil {
		t.Error("expected error for missing normals")
	}
	// Header claims one triangle that is not there.
	var header [stlHeaderSize]byte
	binary.LittleEndian.PutUint32(header[80:], 1)
	_, _, err = ReadBinarySTL(bytes.NewReader(header[:]))
	if err == nil {
		t.Error("expected error for truncated file")
	}
	_, _, err = ReadBinarySTL(bytes.NewReader(header[:10]))
	if err == nil {
		t.Error("expected error for truncated header")
	}
	var data [stlHeaderSize + stlTriangleSize]byte
	binary.LittleEndian.PutUint32(data[80:], 1)
	putVec(data[stlHeaderSize+12:], ms3.Vec{X: math32.NaN()})
	_, _, err = ReadBinarySTL(bytes.NewReader(data[:]))
	if err == nil {
		t.Error("expected error for NaN vertex")
	}
}
