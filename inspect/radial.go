package inspect

import (
	"github.com/soypat/metaball/internal/d3"
	"github.com/soypat/metaball/mcubes"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Summary holds statistics of vertex distances to a point.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Radial returns statistics of the distance from center to each mesh vertex.
// The zero Summary is returned for an empty mesh.
func Radial(m *mcubes.Mesh, center r3.Vec) Summary {
	if len(m.Vertices) == 0 {
		return Summary{}
	}
	dist := make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		dist[i] = r3.Norm(r3.Sub(d3.FromMS3(v), center))
	}
	mean, std := stat.MeanStdDev(dist, nil)
	if len(dist) == 1 {
		std = 0
	}
	return Summary{
		N:      len(dist),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(dist),
		Max:    floats.Max(dist),
	}
}
