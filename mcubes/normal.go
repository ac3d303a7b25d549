package mcubes

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
)

// DefaultNormal is returned by the normal estimator where the field's
// gradient vanishes or is not finite.
var DefaultNormal = ms3.Vec{Y: 1}

// minGradient is the smallest gradient norm that is normalized.
const minGradient = 1e-12

// NormalEstimator approximates the outward surface normal as the negated
// field gradient using central differences. The zero value is not usable;
// Epsilon must be positive.
type NormalEstimator struct {
	// Epsilon is the finite difference probe distance. It should be a small
	// fraction of the cube side, see [Config.NormalEpsilon].
	Epsilon float32
	// BufferSize limits the amount of positions evaluated per call to
	// Field.Evaluate by EstimateAll. It is rounded down to a multiple of 6,
	// the probes of one point, with 6 as the minimum. Zero means 6*1024.
	BufferSize int

	posbuf  []ms3.Vec
	distbuf []float32
}

// Estimate returns the unit outward normal of the field at p.
func (ne *NormalEstimator) Estimate(f metaball.Field, p ms3.Vec) (ms3.Vec, error) {
	var n [1]ms3.Vec
	err := ne.EstimateAll(f, n[:], []ms3.Vec{p})
	return n[0], err
}

// EstimateAll stores the unit outward normal of every point of pts in dst.
// dst must be at least as long as pts.
func (ne *NormalEstimator) EstimateAll(f metaball.Field, dst, pts []ms3.Vec) error {
	if len(dst) < len(pts) {
		return errors.New("normal destination shorter than points")
	} else if !(ne.Epsilon > 0) || math32.IsInf(ne.Epsilon, 1) {
		return errors.New("normal estimator epsilon must be positive and finite")
	}
	ne.grow()
	batch := len(ne.posbuf) / 6
	for len(pts) > 0 {
		n := min(batch, len(pts))
		pos := ne.posbuf[:6*n]
		for i, p := range pts[:n] {
			ne.probes(pos[6*i:6*i+6], p)
		}
		dist := ne.distbuf[:6*n]
		if err := f.Evaluate(pos, dist); err != nil {
			return fmt.Errorf("estimating normals: %w", err)
		}
		for i := range pts[:n] {
			d := dist[6*i : 6*i+6]
			dst[i] = unitOrDefault(ms3.Vec{X: d[0] - d[1], Y: d[2] - d[3], Z: d[4] - d[5]})
		}
		pts = pts[n:]
		dst = dst[n:]
	}
	return nil
}

// probes writes the six finite difference positions around p, ordered as
// -x,+x,-y,+y,-z,+z.
func (ne *NormalEstimator) probes(dst []ms3.Vec, p ms3.Vec) {
	_ = dst[5] // early bounds check
	e := ne.Epsilon
	dst[0] = ms3.Vec{X: p.X - e, Y: p.Y, Z: p.Z}
	dst[1] = ms3.Vec{X: p.X + e, Y: p.Y, Z: p.Z}
	dst[2] = ms3.Vec{X: p.X, Y: p.Y - e, Z: p.Z}
	dst[3] = ms3.Vec{X: p.X, Y: p.Y + e, Z: p.Z}
	dst[4] = ms3.Vec{X: p.X, Y: p.Y, Z: p.Z - e}
	dst[5] = ms3.Vec{X: p.X, Y: p.Y, Z: p.Z + e}
}

func (ne *NormalEstimator) grow() {
	size := ne.BufferSize
	if size <= 0 {
		size = 6 * 1024
	}
	size = max(6, size-size%6)
	if len(ne.posbuf) != size {
		ne.posbuf = make([]ms3.Vec, size)
		ne.distbuf = make([]float32, size)
	}
}

func unitOrDefault(g ms3.Vec) ms3.Vec {
	norm := ms3.Norm(g)
	if !(norm >= minGradient) || math32.IsInf(norm, 1) {
		// Also catches NaN.
		return DefaultNormal
	}
	return ms3.Scale(1/norm, g)
}
