// Package inspect computes diagnostics over meshes produced by mcubes:
// watertightness after welding split vertices, distance statistics and
// deviation between two meshes.
package inspect

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/metaball/internal/d3"
	"github.com/soypat/metaball/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

// Indexed is a mesh with shared vertices.
type Indexed struct {
	Vertices  []r3.Vec
	Triangles [][3]int
	Bounds    d3.Box
	// Degenerate is the number of input triangles dropped because two of
	// their vertices welded into one.
	Degenerate int
	// directed edge use count, keyed by vertex indices in winding order.
	edges map[[2]int]int
}

// Weld merges mesh vertices that fall in the same cell of a grid of
// spacing tol. Crossings shared by neighbouring cubes are bit identical,
// so any small positive tol recovers the connectivity of the surface.
func Weld(m *mcubes.Mesh, tol float64) (*Indexed, error) {
	if !(tol > 0) || math.IsInf(tol, 0) {
		return nil, errors.New("weld tolerance must be positive and finite")
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d not a multiple of 3", len(m.Indices))
	}
	idx := &Indexed{
		Bounds: d3.EmptyBox(),
		edges:  make(map[[2]int]int),
	}
	for _, v := range m.Vertices {
		idx.Bounds = idx.Bounds.Include(d3.FromMS3(v))
	}
	if !idx.Bounds.Empty() {
		maxDim := math.Max(d3.Max(d3.AbsElem(idx.Bounds.Min)), d3.Max(d3.AbsElem(idx.Bounds.Max)))
		if maxDim/tol > math.MaxInt64/2 {
			return nil, errors.New("tolerance too small. overflowed int64")
		}
	}
	// vertex index cache
	cache := make(map[[3]int64]int)
	ri := 1 / tol
	for i := 0; i < len(m.Indices); i += 3 {
		var tri [3]int
		for j := range tri {
			vi := m.Indices[i+j]
			if int(vi) >= len(m.Vertices) {
				return nil, fmt.Errorf("triangle %d references vertex %d out of %d", i/3, vi, len(m.Vertices))
			}
			vert := d3.FromMS3(m.Vertices[vi])
			v := r3.Scale(ri, vert)
			key := [3]int64{int64(math.Round(v.X)), int64(math.Round(v.Y)), int64(math.Round(v.Z))}
			vertexIdx, ok := cache[key]
			if !ok {
				vertexIdx = len(idx.Vertices)
				cache[key] = vertexIdx
				idx.Vertices = append(idx.Vertices, vert)
			}
			tri[j] = vertexIdx
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[2] == tri[0] {
			idx.Degenerate++
			continue
		}
		idx.Triangles = append(idx.Triangles, tri)
		for j := range tri {
			idx.edges[[2]int{tri[j], tri[(j+1)%3]}]++
		}
	}
	return idx, nil
}

// edgeUses returns how many triangles use each undirected edge.
func (idx *Indexed) edgeUses() map[[2]int]int {
	uses := make(map[[2]int]int, len(idx.edges))
	for e, n := range idx.edges {
		if e[0] > e[1] {
			e[0], e[1] = e[1], e[0]
		}
		uses[e] += n
	}
	return uses
}

// OpenEdges returns the number of edges used by a single triangle.
// A closed surface has none.
func (idx *Indexed) OpenEdges() int {
	n := 0
	for _, uses := range idx.edgeUses() {
		if uses == 1 {
			n++
		}
	}
	return n
}

// NonManifoldEdges returns the number of edges shared by more than two triangles.
func (idx *Indexed) NonManifoldEdges() int {
	n := 0
	for _, uses := range idx.edgeUses() {
		if uses > 2 {
			n++
		}
	}
	return n
}

// InconsistentEdges returns the number of edges traversed twice in the
// same direction, which happens where neighbouring triangles disagree
// on winding.
func (idx *Indexed) InconsistentEdges() int {
	n := 0
	for _, uses := range idx.edges {
		if uses > 1 {
			n++
		}
	}
	return n
}

// Watertight reports whether every edge is shared by exactly two
// consistently wound triangles.
func (idx *Indexed) Watertight() bool {
	return len(idx.Triangles) > 0 && idx.OpenEdges() == 0 &&
		idx.NonManifoldEdges() == 0 && idx.InconsistentEdges() == 0
}

// EulerCharacteristic returns V - E + F. It is 2 for each closed
// genus zero component.
func (idx *Indexed) EulerCharacteristic() int {
	return len(idx.Vertices) - len(idx.edgeUses()) + len(idx.Triangles)
}
