// Package metaball defines animated scalar fields whose positive region is
// the inside of a surface, metaballs among them.
package metaball

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is an animated scalar field. Positive values are inside the surface,
// zero and negative values are outside.
type Field interface {
	// Evaluate stores the field value at each of pos in dist. dist must be at
	// least as long as pos. Evaluate must not modify the field's state.
	Evaluate(pos []ms3.Vec, dist []float32) error
	// Update advances the field's animation by one tick.
	Update()
}

// ErrShortBuffer is returned by fields in this package when the distance
// buffer is shorter than the position buffer.
var ErrShortBuffer = errors.New("metaball: distance buffer shorter than position buffer")

// Func is a static field defined by a function.
type Func func(p ms3.Vec) float32

// Evaluate implements [Field].
func (f Func) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(dist) < len(pos) {
		return ErrShortBuffer
	}
	for i, p := range pos {
		dist[i] = f(p)
	}
	return nil
}

// Update is a no-op.
func (f Func) Update() {}

// Constant is a field with the same value everywhere.
type Constant float32

// Evaluate implements [Field].
func (c Constant) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(dist) < len(pos) {
		return ErrShortBuffer
	}
	for i := range pos {
		dist[i] = float32(c)
	}
	return nil
}

// Update is a no-op.
func (c Constant) Update() {}

// Sphere is a static field whose value is the radius minus the distance to
// the center, so it is positive inside the sphere.
type Sphere struct {
	Center ms3.Vec
	Radius float32
}

// Evaluate implements [Field].
func (s Sphere) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(dist) < len(pos) {
		return ErrShortBuffer
	}
	for i, p := range pos {
		dist[i] = s.Radius - ms3.Norm(ms3.Sub(p, s.Center))
	}
	return nil
}

// Update is a no-op.
func (s Sphere) Update() {}

// SDF3 is a float64 signed distance function which is negative inside the shape.
type SDF3 interface {
	Evaluate(p r3.Vec) float64
}

// FromSDF3 returns a static Field that is positive inside s.
func FromSDF3(s SDF3) Field {
	if s == nil {
		panic("nil SDF3 argument")
	}
	return sdfField{s: s}
}

type sdfField struct {
	s SDF3
}

func (f sdfField) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(dist) < len(pos) {
		return ErrShortBuffer
	}
	for i, p := range pos {
		d := f.s.Evaluate(r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)})
		dist[i] = -float32(d)
		if math32.IsNaN(dist[i]) {
			return errors.New("metaball: SDF3 evaluated to NaN")
		}
	}
	return nil
}

func (f sdfField) Update() {}
