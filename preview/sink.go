package preview

import (
	"fmt"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball/mcubes"
)

// FrameSink is a mesh sink that saves every tick as a numbered PNG file.
type FrameSink struct {
	// Pattern is a fmt format with a single integer verb for the frame number,
	// for example "frame%03d.png".
	Pattern string
	View    View
	frame   int
}

var _ mcubes.Sink = (*FrameSink)(nil)

// SetMesh implements [mcubes.Sink]. The buffers are rendered before
// returning so they need not outlive the call.
func (fs *FrameSink) SetMesh(vertices []ms3.Vec, indices []uint32, normals []ms3.Vec) error {
	m := mcubes.Mesh{Vertices: vertices, Indices: indices, Normals: normals}
	filename := fmt.Sprintf(fs.Pattern, fs.frame)
	fs.frame++
	return SavePNG(filename, &m, fs.View)
}

// Frames returns the number of frames written.
func (fs *FrameSink) Frames() int { return fs.frame }
