package mcubes

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
)

// Cube is a single marching cube with its corner positions and the field
// values sampled at them. Corners follow the ordering documented on [Edge.Corners].
type Cube struct {
	Corners [8]ms3.Vec
	Values  [8]float32
}

// CubeCorners returns the corners of the axis aligned cube of side d whose
// minimum corner is min.
func CubeCorners(min ms3.Vec, d float32) [8]ms3.Vec {
	return [8]ms3.Vec{
		min,
		{X: min.X + d, Y: min.Y, Z: min.Z},
		{X: min.X + d, Y: min.Y + d, Z: min.Z},
		{X: min.X, Y: min.Y + d, Z: min.Z},
		{X: min.X, Y: min.Y, Z: min.Z + d},
		{X: min.X + d, Y: min.Y, Z: min.Z + d},
		{X: min.X + d, Y: min.Y + d, Z: min.Z + d},
		{X: min.X, Y: min.Y + d, Z: min.Z + d},
	}
}

// Sample evaluates the field at the corners and returns the sampled cube.
// Use [Cube.Config] to obtain the configuration byte.
func Sample(f metaball.Field, corners [8]ms3.Vec) (Cube, error) {
	c := Cube{Corners: corners}
	err := f.Evaluate(c.Corners[:], c.Values[:])
	if err != nil {
		return Cube{}, fmt.Errorf("sampling cube corners: %w", err)
	}
	return c, nil
}

// Config returns the configuration byte of the cube. Bit i is set when
// corner i is inside the surface (value > 0). A corner exactly on
// the surface is outside.
func (c *Cube) Config() uint8 {
	var config uint8
	for i, v := range c.Values {
		if v > 0 {
			config |= 1 << i
		}
	}
	return config
}

// Interpolate returns the point on edge e where the surface crosses it,
// weighting each endpoint by the absolute field value at the other one.
// The result does not depend on the edge direction. If both endpoint values
// are zero (or their sum is not finite) the midpoint is returned.
func Interpolate(c *Cube, e Edge) ms3.Vec {
	ia, ib := e.Corners()
	return interpolate(c.Corners[ia], c.Corners[ib], c.Values[ia], c.Values[ib])
}

// interpolate is symmetric in (a,fa) <-> (b,fb): the endpoints are put in
// a fixed order before computing a + t(b-a) with t = |fa|/(|fa|+|fb|).
func interpolate(a, b ms3.Vec, fa, fb float32) ms3.Vec {
	fa, fb = math32.Abs(fa), math32.Abs(fb)
	sum := fa + fb
	if sum == 0 || math32.IsInf(sum, 0) || math32.IsNaN(sum) {
		return ms3.Scale(0.5, ms3.Add(a, b))
	}
	if vecLess(b, a) {
		a, b = b, a
		fa, fb = fb, fa
	}
	t := fa / sum
	return ms3.Add(a, ms3.Scale(t, ms3.Sub(b, a)))
}

// vecLess orders vectors lexicographically by X, Y then Z.
func vecLess(a, b ms3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
