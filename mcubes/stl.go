package mcubes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// WriteBinarySTL writes the mesh triangles to w in binary STL format. The facet
// normal is the normalized mean of the three vertex normals. An empty mesh
// produces a valid STL file with no facets.
func WriteBinarySTL(w io.Writer, m *Mesh) (int, error) {
	nt := int64(m.TriangleCount()) // int64 cast so that next line works correctly on 32bit machines.
	if nt > math.MaxUint32 {
		return 0, errors.New("amount of triangles in mesh exceeds STL design limits")
	} else if len(m.Normals) != len(m.Vertices) {
		return 0, errors.New("mesh normal and vertex count mismatch")
	}
	var buf [stlHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[80:], uint32(nt))
	n, err := w.Write(buf[:])
	if err != nil {
		return n, err
	} else if n != len(buf) {
		return n, io.ErrShortWrite
	}
	facet := buf[:stlTriangleSize]
	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		norm := ms3.Add(m.Normals[ia], ms3.Add(m.Normals[ib], m.Normals[ic]))
		putVec(facet, unitOrDefault(norm))
		putVec(facet[12:], m.Vertices[ia])
		putVec(facet[24:], m.Vertices[ib])
		putVec(facet[36:], m.Vertices[ic])
		binary.LittleEndian.PutUint16(facet[48:], 0) // Attribute byte count.
		ngot, err := w.Write(facet)
		n += ngot
		if err != nil {
			return n, err
		} else if ngot != stlTriangleSize {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// ReadBinarySTL reads triangles and their facet normals from a binary STL file.
func ReadBinarySTL(r io.Reader) (triangles []ms3.Triangle, normals []ms3.Vec, err error) {
	var buf [stlHeaderSize]byte
	_, err = io.ReadFull(r, buf[:])
	if err != nil {
		return nil, nil, fmt.Errorf("reading STL header: %w", err)
	}
	count := binary.LittleEndian.Uint32(buf[80:])
	facet := buf[:stlTriangleSize]
	for i := 0; i < int(count); i++ {
		_, err = io.ReadFull(r, facet)
		if err != nil {
			return nil, nil, fmt.Errorf("%d/%d STL triangles read: %w", i, count, err)
		}
		normal := getVec(facet)
		tri := ms3.Triangle{getVec(facet[12:]), getVec(facet[24:]), getVec(facet[36:])}
		if badVec(normal) || badVec(tri[0]) || badVec(tri[1]) || badVec(tri[2]) {
			return nil, nil, fmt.Errorf("STL triangle %d: inf/NaN component", i)
		}
		triangles = append(triangles, tri)
		normals = append(normals, normal)
	}
	return triangles, normals, nil
}

func putVec(b []byte, v ms3.Vec) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

func getVec(b []byte) ms3.Vec {
	_ = b[11] // early bounds check
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

func badVec(v ms3.Vec) bool {
	return math32.IsNaN(v.X) || math32.IsInf(v.X, 0) ||
		math32.IsNaN(v.Y) || math32.IsInf(v.Y, 0) ||
		math32.IsNaN(v.Z) || math32.IsInf(v.Z, 0)
}
