package mcubes

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
)

func TestCubeConfig(t *testing.T) {
	for _, test := range []struct {
		values [8]float32
		want   uint8
	}{
		{values: [8]float32{-1, -1, -1, -1, -1, -1, -1, -1}, want: 0},
		{values: [8]float32{1, 1, 1, 1, 1, 1, 1, 1}, want: 255},
		{values: [8]float32{0, 0, 0, 0, 0, 0, 0, 0}, want: 0}, // zero is outside.
		{values: [8]float32{1, 0, -1, 0, 0, 0, 0, 2}, want: 1 | 1<<7},
		{values: [8]float32{0, 1e-30, 0, 0, 0, 0, 0, 0}, want: 1 << 1},
	} {
		c := Cube{Values: test.values}
		got := c.Config()
		if got != test.want {
			t.Errorf("values %v: got config %08b, want %08b", test.values, got, test.want)
		}
	}
}

func TestSample(t *testing.T) {
	field := metaball.Func(func(p ms3.Vec) float32 { return p.X - 0.5 })
	corners := CubeCorners(ms3.Vec{}, 1)
	c, err := Sample(field, corners)
	if err != nil {
		t.Fatal(err)
	}
	// Corners 1,2,5,6 have x == 1.
	const want = 1<<1 | 1<<2 | 1<<5 | 1<<6
	if got := c.Config(); got != want {
		t.Errorf("got config %08b, want %08b", got, want)
	}
	for i, corner := range c.Corners {
		if c.Values[i] != corner.X-0.5 {
			t.Errorf("corner %d: got value %g, want %g", i, c.Values[i], corner.X-0.5)
		}
	}

	errField := &failingField{Field: field, failAfter: 0}
	_, err = Sample(errField, corners)
	if !errors.Is(err, errFieldFailed) {
		t.Errorf("expected field failure to propagate, got %v", err)
	}
}

func TestCubeCornersMatchEdges(t *testing.T) {
	const d = 0.25
	corners := CubeCorners(ms3.Vec{X: 1, Y: 2, Z: 3}, d)
	for e := Edge(0); e < 12; e++ {
		a, b := e.Corners()
		length := ms3.Norm(ms3.Sub(corners[a], corners[b]))
		if math32.Abs(length-d) > 1e-6 {
			t.Errorf("edge %d joins corners %d and %d which are %g apart, want %g", e, a, b, length, d)
		}
	}
}

func TestInterpolate(t *testing.T) {
	c := Cube{
		Corners: CubeCorners(ms3.Vec{}, 1),
		Values:  [8]float32{-1, 3, 0, 0, 0, 0, 0, 0},
	}
	// Edge 0 joins corner 0 (x=0) with corner 1 (x=1). t = 1/(1+3).
	got := Interpolate(&c, 0)
	want := ms3.Vec{X: 0.25}
	if !equalElem(got, want, 1e-6) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInterpolateSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		a := ms3.Vec{X: rng.Float32()*10 - 5, Y: rng.Float32()*10 - 5, Z: rng.Float32()*10 - 5}
		b := ms3.Add(a, ms3.Vec{X: rng.Float32() * 0.1, Y: rng.Float32() * 0.1, Z: rng.Float32() * 0.1})
		fa := rng.Float32()*2 - 1
		fb := -fa * rng.Float32() * 3
		p1 := interpolate(a, b, fa, fb)
		p2 := interpolate(b, a, fb, fa)
		if p1 != p2 {
			t.Fatalf("interpolation depends on edge direction: %v != %v", p1, p2)
		}
		// Flipping both signs must not move the crossing.
		p3 := interpolate(b, a, -fb, -fa)
		if p1 != p3 {
			t.Fatalf("interpolation depends on field sign: %v != %v", p1, p3)
		}
	}
}

func TestInterpolateDegenerate(t *testing.T) {
	a, b := ms3.Vec{X: 1}, ms3.Vec{X: 2, Y: 2}
	mid := ms3.Vec{X: 1.5, Y: 1}
	inf := math32.Inf(1)
	for _, test := range []struct {
		fa, fb float32
	}{
		{0, 0},
		{inf, -1},
		{inf, -inf},
		{math32.NaN(), 1},
	} {
		got := interpolate(a, b, test.fa, test.fb)
		if got != mid {
			t.Errorf("values (%g,%g): got %v, want midpoint %v", test.fa, test.fb, got, mid)
		}
	}
	// One zero endpoint places the crossing on it.
	if got := interpolate(a, b, 0, 2); got != a {
		t.Errorf("got %v, want %v", got, a)
	}
}

var errFieldFailed = errors.New("field failed")

// failingField fails after failAfter successful Evaluate calls.
type failingField struct {
	metaball.Field
	failAfter int
	calls     int
}

func (f *failingField) Evaluate(pos []ms3.Vec, dist []float32) error {
	f.calls++
	if f.calls > f.failAfter {
		return errFieldFailed
	}
	return f.Field.Evaluate(pos, dist)
}

func TestInterpolateLargeValues(t *testing.T) {
	a, b := ms3.Vec{X: 4.9}, ms3.Vec{X: 5}
	for _, test := range []struct {
		fa, fb float32
		want   ms3.Vec
	}{
		{fa: 1e38, fb: -1e38, want: ms3.Vec{X: 4.95}},
		{fa: -2e38, fb: 1e38, want: ms3.Vec{X: 4.9666667}},
	} {
		got := interpolate(a, b, test.fa, test.fb)
		if !equalElem(got, test.want, 1e-5) {
			t.Errorf("values (%g,%g): got %v, want %v", test.fa, test.fb, got, test.want)
		}
		if got != interpolate(b, a, test.fb, test.fa) {
			t.Errorf("values (%g,%g): interpolation depends on edge direction", test.fa, test.fb)
		}
	}
}

func equalElem(a, b ms3.Vec, tol float32) bool {
	d := ms3.AbsElem(ms3.Sub(a, b))
	return d.X <= tol && d.Y <= tol && d.Z <= tol
}
