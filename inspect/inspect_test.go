package inspect_test

import (
	"math"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/inspect"
	"github.com/soypat/metaball/internal/d3"
	"github.com/soypat/metaball/mcubes"
	"gonum.org/v1/gonum/spatial/r3"
)

const weldTol = 1e-9

func TestSphereWatertight(t *testing.T) {
	const (
		radius = 0.97
		step   = 0.1
	)
	center := r3.Vec{X: 0.013, Y: -0.021, Z: 0.007}
	m, err := mcubes.NewMesher(mcubes.Config{HalfExtent: 1.5, Step: step})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := m.Extract(metaball.Sphere{
		Center: ms3.Vec{X: float32(center.X), Y: float32(center.Y), Z: float32(center.Z)},
		Radius: radius,
	})
	if err != nil {
		t.Fatal(err)
	}
	idx, err := inspect.Weld(mesh, weldTol)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Degenerate != 0 {
		t.Errorf("%d degenerate triangles", idx.Degenerate)
	}
	if !idx.Watertight() {
		t.Errorf("sphere not watertight: %d open, %d non-manifold, %d inconsistent edges",
			idx.OpenEdges(), idx.NonManifoldEdges(), idx.InconsistentEdges())
	}
	if chi := idx.EulerCharacteristic(); chi != 2 {
		t.Errorf("sphere Euler characteristic %d, want 2", chi)
	}
	if len(idx.Vertices) >= len(mesh.Vertices) {
		t.Errorf("welding did not merge vertices: %d from %d", len(idx.Vertices), len(mesh.Vertices))
	}
	if !d3.EqualWithin(idx.Bounds.Center(), center, step) {
		t.Errorf("mesh centered at %v, want %v", idx.Bounds.Center(), center)
	}

	sum := inspect.Radial(mesh, center)
	if sum.N != len(mesh.Vertices) {
		t.Errorf("summary over %d vertices, want %d", sum.N, len(mesh.Vertices))
	}
	if math.Abs(sum.Mean-radius) > step/4 {
		t.Errorf("mean radius %g, want %g", sum.Mean, radius)
	}
	if sum.Min < radius-step || sum.Max > radius+step {
		t.Errorf("radius range [%g, %g] outside %g±%g", sum.Min, sum.Max, radius, step)
	}
	if sum.StdDev <= 0 || sum.StdDev > step {
		t.Errorf("unexpected radius deviation %g", sum.StdDev)
	}
}

func TestMetaballsWatertight(t *testing.T) {
	field, err := metaball.NewMetaballs(1, 0.7, metaball.DefaultBalls()...)
	if err != nil {
		t.Fatal(err)
	}
	const halfExtent = 4
	m, err := mcubes.NewMesher(mcubes.Config{HalfExtent: halfExtent, Step: 0.15})
	if err != nil {
		t.Fatal(err)
	}
	domain := d3.Box{Min: d3.Elem(-halfExtent), Max: d3.Elem(halfExtent)}
	for tick := 0; tick < 4; tick++ {
		var sink mcubes.MeshCopy
		if err := m.Tick(field, &sink); err != nil {
			t.Fatal(err)
		}
		idx, err := inspect.Weld(&sink.Mesh, weldTol)
		if err != nil {
			t.Fatal(err)
		}
		if !idx.Watertight() {
			t.Errorf("tick %d: metaballs not watertight: %d open, %d non-manifold, %d inconsistent edges",
				tick, idx.OpenEdges(), idx.NonManifoldEdges(), idx.InconsistentEdges())
		}
		if !domain.Contains(idx.Bounds.Min) || !domain.Contains(idx.Bounds.Max) {
			t.Errorf("tick %d: mesh bounds %v outside domain", tick, idx.Bounds)
		}
	}
}

func TestWeldErrors(t *testing.T) {
	mesh := &mcubes.Mesh{
		Vertices: []ms3.Vec{{}, {X: 1}, {Y: 1}},
		Indices:  []uint32{0, 1, 2},
		Normals:  make([]ms3.Vec, 3),
	}
	for _, tol := range []float64{0, -1, math.NaN(), math.Inf(1), 1e-300} {
		_, err := inspect.Weld(mesh, tol)
		if err == nil {
			t.Errorf("tolerance %g: expected error", tol)
		}
	}
	mesh.Indices = []uint32{0, 1, 3}
	_, err := inspect.Weld(mesh, weldTol)
	if err == nil {
		t.Error("expected error for out of range index")
	}
	mesh.Indices = []uint32{0, 1}
	_, err = inspect.Weld(mesh, weldTol)
	if err == nil {
		t.Error("expected error for partial triangle")
	}
}

func TestWeldOpenAndDegenerate(t *testing.T) {
	// Two triangles sharing an edge, plus one collapsed by the tolerance.
	mesh := &mcubes.Mesh{
		Vertices: []ms3.Vec{
			{}, {X: 1}, {Y: 1},
			{X: 1}, {X: 1, Y: 1}, {Y: 1},
			{Z: 1}, {Z: 1, X: 1e-4}, {Z: 2},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	idx, err := inspect.Weld(mesh, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Degenerate != 1 {
		t.Errorf("got %d degenerate triangles, want 1", idx.Degenerate)
	}
	if len(idx.Triangles) != 2 {
		t.Errorf("got %d triangles, want 2", len(idx.Triangles))
	}
	if got := idx.OpenEdges(); got != 4 {
		t.Errorf("got %d open edges, want 4", got)
	}
	if idx.Watertight() {
		t.Error("open patch reported watertight")
	}
	if idx.InconsistentEdges() != 0 || idx.NonManifoldEdges() != 0 {
		t.Error("unexpected edge defects in consistent patch")
	}
}

func TestDeviation(t *testing.T) {
	field, err := metaball.NewMetaballs(1, 0.01, metaball.DefaultBalls()...)
	if err != nil {
		t.Fatal(err)
	}
	m, err := mcubes.NewMesher(mcubes.Config{HalfExtent: 4, Step: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	var prev, next mcubes.MeshCopy
	if err = m.Tick(field, &prev); err != nil {
		t.Fatal(err)
	}
	if err = m.Tick(field, &next); err != nil {
		t.Fatal(err)
	}
	if d := inspect.Deviation(&prev.Mesh, &prev.Mesh); d != 0 {
		t.Errorf("mesh deviates %g from itself", d)
	}
	d := inspect.Deviation(&next.Mesh, &prev.Mesh)
	if d <= 0 || d > 0.2 {
		t.Errorf("small time step moved surface by %g", d)
	}
	empty := &mcubes.Mesh{}
	if d := inspect.Deviation(empty, &prev.Mesh); d != 0 {
		t.Errorf("empty mesh deviation %g, want 0", d)
	}
	if d := inspect.Deviation(&prev.Mesh, empty); !math.IsInf(d, 1) {
		t.Errorf("deviation from empty mesh %g, want +Inf", d)
	}
}

func TestRadialEmpty(t *testing.T) {
	if sum := inspect.Radial(&mcubes.Mesh{}, r3.Vec{}); sum != (inspect.Summary{}) {
		t.Errorf("empty mesh summary %+v", sum)
	}
}
