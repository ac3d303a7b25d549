package metaball_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStaticFields(t *testing.T) {
	pos := []ms3.Vec{{}, {X: 1}, {Y: -2, Z: 2}}
	for _, test := range []struct {
		f    metaball.Field
		want []float32
	}{
		{f: metaball.Constant(-1), want: []float32{-1, -1, -1}},
		{f: metaball.Func(func(p ms3.Vec) float32 { return p.X + p.Y }), want: []float32{0, 1, -2}},
		{f: metaball.Sphere{Center: ms3.Vec{X: 1}, Radius: 1}, want: []float32{0, 1, 1 - 3}},
		{f: metaball.FromSDF3(unitSphere{}), want: []float32{1, 0, 1 - math32.Sqrt(8)}},
	} {
		dist := make([]float32, len(pos))
		err := test.f.Evaluate(pos, dist)
		if err != nil {
			t.Fatal(err)
		}
		for i := range dist {
			if math32.Abs(dist[i]-test.want[i]) > 1e-6 {
				t.Errorf("%T at %v: got %g, want %g", test.f, pos[i], dist[i], test.want[i])
			}
		}
		test.f.Update()
		err = test.f.Evaluate(pos, dist[:1])
		if !errors.Is(err, metaball.ErrShortBuffer) {
			t.Errorf("%T: expected short buffer error, got %v", test.f, err)
		}
	}
}

func TestFromSDF3NaN(t *testing.T) {
	f := metaball.FromSDF3(nanSDF{})
	err := f.Evaluate([]ms3.Vec{{}}, make([]float32, 1))
	if err == nil {
		t.Error("expected error for NaN distance")
	}
}

// unitSphere is a signed distance function, negative inside.
type unitSphere struct{}

func (unitSphere) Evaluate(p r3.Vec) float64 { return r3.Norm(p) - 1 }

type nanSDF struct{}

func (nanSDF) Evaluate(r3.Vec) float64 { return math.NaN() }
