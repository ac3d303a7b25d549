package inspect

import (
	"math"

	"github.com/soypat/metaball/internal/d3"
	"github.com/soypat/metaball/mcubes"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Deviation returns the largest distance from a vertex of a to the nearest
// vertex of b. It is zero when a is empty and +Inf when only b is empty.
// Comparing consecutive ticks measures how far the surface moved.
func Deviation(a, b *mcubes.Mesh) float64 {
	if len(a.Vertices) == 0 {
		return 0
	} else if len(b.Vertices) == 0 {
		return math.Inf(1)
	}
	tree := kdtree.New(pointsOf(b), false)
	var maxDist2 float64
	q := make(kdtree.Point, 3)
	for _, v := range a.Vertices {
		p := d3.FromMS3(v)
		q[0], q[1], q[2] = p.X, p.Y, p.Z
		_, dist2 := tree.Nearest(q)
		maxDist2 = math.Max(maxDist2, dist2)
	}
	return math.Sqrt(maxDist2)
}

func pointsOf(m *mcubes.Mesh) kdtree.Points {
	// Split vertices repeat; the tree only needs each position once.
	seen := make(map[[3]float32]bool, len(m.Vertices)/4)
	pts := make(kdtree.Points, 0, len(m.Vertices)/4)
	for _, v := range m.Vertices {
		key := [3]float32{v.X, v.Y, v.Z}
		if seen[key] {
			continue
		}
		seen[key] = true
		p := d3.FromMS3(v)
		pts = append(pts, kdtree.Point{p.X, p.Y, p.Z})
	}
	return pts
}
