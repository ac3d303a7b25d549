// Package mcubes polygonizes scalar fields with marching cubes, rebuilding
// a flat shaded mesh every tick.
package mcubes

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
)

const (
	// DefaultHalfExtent and DefaultStep are the domain parameters the
	// metaball scene was tuned with.
	DefaultHalfExtent = 5
	DefaultStep       = 0.1
	// DefaultEvalBufferSize is the default amount of positions evaluated
	// per call to Field.Evaluate.
	DefaultEvalBufferSize = 4096
	// maxCubesPerAxis bounds the slab buffer allocation.
	maxCubesPerAxis = 4096
	// cubeCountTol absorbs float32 rounding of 2L/D so that an integral
	// amount of steps does not add a spurious cube layer.
	cubeCountTol = 1e-3
)

// Config holds the domain parameters of a Mesher.
type Config struct {
	// HalfExtent is L. The domain [-L, L) is tiled on every axis.
	HalfExtent float32
	// Step is D, the side of each cube.
	Step float32
	// NormalEpsilon is the finite difference probe distance used for normals.
	// Zero selects Step/1000.
	NormalEpsilon float32
	// EvalBufferSize is the maximum amount of positions passed to a single
	// Field.Evaluate call, except that normal estimation always passes at
	// least the 6 probes of one point. Zero selects DefaultEvalBufferSize.
	EvalBufferSize int
}

// DefaultConfig returns the configuration the default scene runs with, L=5 and D=0.1.
func DefaultConfig() Config {
	return Config{HalfExtent: DefaultHalfExtent, Step: DefaultStep}
}

// Validate checks the configuration for errors.
func (cfg Config) Validate() error {
	switch {
	case !(cfg.HalfExtent > 0) || math32.IsInf(cfg.HalfExtent, 1):
		return errors.New("half extent must be positive and finite")
	case !(cfg.Step > 0) || math32.IsInf(cfg.Step, 1):
		return errors.New("step must be positive and finite")
	case cfg.Step > cfg.HalfExtent:
		return errors.New("step must not exceed half extent")
	case cfg.NormalEpsilon < 0 || math32.IsNaN(cfg.NormalEpsilon) || math32.IsInf(cfg.NormalEpsilon, 1):
		return errors.New("normal epsilon must be zero or positive and finite")
	case cfg.NormalEpsilon >= cfg.Step:
		return errors.New("normal epsilon must be smaller than step")
	case cfg.EvalBufferSize < 0:
		return errors.New("negative evaluation buffer size")
	case 2*cfg.HalfExtent/cfg.Step > maxCubesPerAxis:
		return fmt.Errorf("too many cubes per axis (%g), max is %d", math32.Ceil(2*cfg.HalfExtent/cfg.Step), maxCubesPerAxis)
	}
	return nil
}

// CubesPerAxis returns the amount of cubes tiling [-L, L) on one axis.
func (cfg Config) CubesPerAxis() int {
	return int(math32.Ceil(2*cfg.HalfExtent/cfg.Step - cubeCountTol))
}

// Stats describes the work done during the last extraction.
type Stats struct {
	// Cubes is the amount of cubes classified.
	Cubes int
	// SurfaceCubes is the amount of cubes that produced triangles.
	SurfaceCubes int
	// Evaluations is the amount of positions passed to Field.Evaluate.
	Evaluations int
}

// Mesher extracts isosurface meshes from a field over a fixed cubic domain.
// Its buffers are reused from tick to tick. A Mesher is not safe for
// concurrent use.
type Mesher struct {
	cfg Config
	n   int
	// coords are the grid coordinates along any axis: coords[i] = -L + i*D.
	coords []float32
	// slabs hold field values at grid points of two consecutive x planes,
	// indexed by j*(n+1)+k.
	slabA, slabB []float32
	posbuf       []ms3.Vec
	normals      NormalEstimator
	mesh         Mesh
	stats        Stats
}

// NewMesher returns a Mesher for the given configuration.
func NewMesher(cfg Config) (*Mesher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NormalEpsilon == 0 {
		cfg.NormalEpsilon = cfg.Step / 1000
	}
	if cfg.EvalBufferSize == 0 {
		cfg.EvalBufferSize = DefaultEvalBufferSize
	}
	n := cfg.CubesPerAxis()
	coords := make([]float32, n+1)
	for i := range coords {
		coords[i] = -cfg.HalfExtent + float32(i)*cfg.Step
	}
	np := (n + 1) * (n + 1)
	return &Mesher{
		cfg:     cfg,
		n:       n,
		coords:  coords,
		slabA:   make([]float32, np),
		slabB:   make([]float32, np),
		posbuf:  make([]ms3.Vec, min(cfg.EvalBufferSize, np)),
		normals: NormalEstimator{Epsilon: cfg.NormalEpsilon, BufferSize: cfg.EvalBufferSize},
	}, nil
}

// Config returns the configuration in use with defaults filled in.
func (m *Mesher) Config() Config { return m.cfg }

// Stats returns statistics of the last extraction.
func (m *Mesher) Stats() Stats { return m.stats }

// Tick advances the field once, rebuilds the mesh and hands it to sink.
// If the field fails to evaluate the tick is aborted, the error returned
// and sink is not called.
func (m *Mesher) Tick(f metaball.Field, sink Sink) error {
	if f == nil {
		panic("nil Field argument")
	} else if sink == nil {
		panic("nil Sink argument")
	}
	f.Update()
	mesh, err := m.Extract(f)
	if err != nil {
		return err
	}
	err = sink.SetMesh(mesh.Vertices, mesh.Indices, mesh.Normals)
	if err != nil {
		return fmt.Errorf("mesh sink: %w", err)
	}
	return nil
}

// Extract rebuilds the mesh from the field's current state without
// advancing it. The returned mesh is owned by m and is overwritten by
// the next call to Extract or Tick.
func (m *Mesher) Extract(f metaball.Field) (*Mesh, error) {
	if f == nil {
		panic("nil Field argument")
	}
	m.mesh.Reset()
	m.stats = Stats{}
	if err := m.march(f); err != nil {
		m.mesh.Reset()
		return nil, err
	}
	nv := len(m.mesh.Vertices)
	if cap(m.mesh.Normals) < nv {
		m.mesh.Normals = make([]ms3.Vec, nv)
	}
	m.mesh.Normals = m.mesh.Normals[:nv]
	err := m.normals.EstimateAll(m.counted(f), m.mesh.Normals, m.mesh.Vertices)
	if err != nil {
		m.mesh.Reset()
		return nil, err
	}
	return &m.mesh, nil
}

// mcCornerOffsets are the grid offsets of each cube corner, see [Edge.Corners].
var mcCornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// march walks all cubes x-major, then y, then z and appends their triangles.
func (m *Mesher) march(f metaball.Field) error {
	n := m.n
	stride := n + 1
	err := m.sampleSlab(f, m.slabA, 0)
	if err != nil {
		return err
	}
	var cube Cube
	for i := 0; i < n; i++ {
		err = m.sampleSlab(f, m.slabB, i+1)
		if err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				for c, off := range mcCornerOffsets {
					slab := m.slabA
					if off[0] == 1 {
						slab = m.slabB
					}
					cube.Values[c] = slab[(j+off[1])*stride+k+off[2]]
				}
				config := cube.Config()
				m.stats.Cubes++
				nt := TriangleCount(config)
				if nt == 0 {
					continue
				}
				m.stats.SurfaceCubes++
				for c, off := range mcCornerOffsets {
					cube.Corners[c] = ms3.Vec{
						X: m.coords[i+off[0]],
						Y: m.coords[j+off[1]],
						Z: m.coords[k+off[2]],
					}
				}
				for t := 0; t < nt; t++ {
					ea, eb, ec := Triangle(config, t)
					m.mesh.appendTriangle(
						Interpolate(&cube, ea),
						Interpolate(&cube, eb),
						Interpolate(&cube, ec),
					)
				}
			}
		}
		m.slabA, m.slabB = m.slabB, m.slabA
	}
	return nil
}

// sampleSlab evaluates the field over the grid points of the x plane i.
func (m *Mesher) sampleSlab(f metaball.Field, dst []float32, i int) error {
	x := m.coords[i]
	stride := m.n + 1
	total := stride * stride
	for start := 0; start < total; start += len(m.posbuf) {
		end := min(start+len(m.posbuf), total)
		pos := m.posbuf[:end-start]
		for idx := range pos {
			jk := start + idx
			pos[idx] = ms3.Vec{X: x, Y: m.coords[jk/stride], Z: m.coords[jk%stride]}
		}
		m.stats.Evaluations += len(pos)
		err := f.Evaluate(pos, dst[start:end])
		if err != nil {
			return fmt.Errorf("sampling x plane %d: %w", i, err)
		}
	}
	return nil
}

// counted wraps f so that evaluations add up in the mesher stats.
func (m *Mesher) counted(f metaball.Field) metaball.Field {
	return countingField{Field: f, count: &m.stats.Evaluations}
}

type countingField struct {
	metaball.Field
	count *int
}

func (cf countingField) Evaluate(pos []ms3.Vec, dist []float32) error {
	*cf.count += len(pos)
	return cf.Field.Evaluate(pos, dist)
}
