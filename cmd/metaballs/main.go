// Command metaballs animates a set of metaballs and polygonizes each tick
// with marching cubes. The last tick can be saved as STL and every tick
// as a PNG frame.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball"
	"github.com/soypat/metaball/inspect"
	"github.com/soypat/metaball/mcubes"
	"github.com/soypat/metaball/preview"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	var (
		cfg      = mcubes.DefaultConfig()
		ticks    = 10
		timeStep = 0.05
		radius   = 1.0
		stlName  = "metaballs.stl"
		frames   = ""
		width    = 800
		height   = 600
		check    = false
	)
	flag.Var(float32Value{&cfg.HalfExtent}, "L", "half extent of the cubic sampling domain")
	flag.Var(float32Value{&cfg.Step}, "D", "cube edge length")
	flag.IntVar(&cfg.EvalBufferSize, "buf", cfg.EvalBufferSize, "field evaluation buffer size")
	flag.IntVar(&ticks, "ticks", ticks, "number of ticks to run")
	flag.Float64Var(&timeStep, "dt", timeStep, "animation time advanced per tick")
	flag.Float64Var(&radius, "radius", radius, "metaball radius")
	flag.StringVar(&stlName, "stl", stlName, "STL output file for the last tick. Empty to disable")
	flag.StringVar(&frames, "png", frames, "PNG frame file pattern such as frame%03d.png. Empty to disable")
	flag.IntVar(&width, "width", width, "PNG frame width")
	flag.IntVar(&height, "height", height, "PNG frame height")
	flag.BoolVar(&check, "check", check, "weld each tick and report watertightness")
	flag.Parse()
	if ticks <= 0 {
		log.Fatal("ticks must be positive")
	}

	field, err := metaball.NewMetaballs(float32(radius), float32(timeStep), metaball.DefaultBalls()...)
	if err != nil {
		log.Fatal(err)
	}
	mesher, err := mcubes.NewMesher(cfg)
	if err != nil {
		log.Fatal(err)
	}
	var (
		last, prev mcubes.MeshCopy
		sinks      = multiSink{&last}
	)
	if frames != "" {
		view := preview.DefaultView()
		view.Width, view.Height = width, height
		view.Extent = float64(cfg.HalfExtent)
		sinks = append(sinks, &preview.FrameSink{Pattern: frames, View: view})
	}
	log.Printf("domain [-%g, %g]^3 with %d cubes per axis", cfg.HalfExtent, cfg.HalfExtent, cfg.CubesPerAxis())
	for tick := 0; tick < ticks; tick++ {
		start := time.Now()
		err = mesher.Tick(field, sinks)
		if err != nil {
			log.Fatalf("tick %d: %s", tick, err)
		}
		stats := mesher.Stats()
		log.Printf("tick %d t=%.3f: %d triangles, %d/%d surface cubes, %d evaluations in %s",
			tick, field.Time(), last.TriangleCount(), stats.SurfaceCubes, stats.Cubes, stats.Evaluations, time.Since(start))
		if check {
			report(tick, &last.Mesh, &prev.Mesh, cfg.Step)
		}
		last.CopyTo(&prev.Mesh)
	}

	if stlName == "" {
		return
	}
	err = writeSTL(stlName, &last.Mesh)
	if err != nil {
		log.Fatal("error writing STL: ", err)
	}
	log.Printf("wrote %d triangles to %s", last.TriangleCount(), stlName)
}

// writeSTL saves m to filename, closing the file before returning.
func writeSTL(filename string, m *mcubes.Mesh) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	_, err = mcubes.WriteBinarySTL(fp, m)
	closeErr := fp.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func report(tick int, m, prev *mcubes.Mesh, step float32) {
	idx, err := inspect.Weld(m, float64(step)*1e-6)
	if err != nil {
		log.Printf("tick %d: weld: %s", tick, err)
		return
	}
	bb := m.Bounds()
	center := ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	radial := inspect.Radial(m, r3.Vec{X: float64(center.X), Y: float64(center.Y), Z: float64(center.Z)})
	log.Printf("tick %d: %d welded vertices, watertight=%v open=%d nonmanifold=%d degenerate=%d, radius %.3f±%.3f",
		tick, len(idx.Vertices), idx.Watertight(), idx.OpenEdges(), idx.NonManifoldEdges(), idx.Degenerate,
		radial.Mean, radial.StdDev)
	if tick > 0 {
		log.Printf("tick %d: surface moved up to %.4f", tick, inspect.Deviation(m, prev))
	}
}

// multiSink forwards the mesh to every sink in order.
type multiSink []mcubes.Sink

func (ms multiSink) SetMesh(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error {
	for _, s := range ms {
		if err := s.SetMesh(vertices, indices, normals); err != nil {
			return err
		}
	}
	return nil
}
