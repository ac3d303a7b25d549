// Package preview rasterizes metaball meshes to images on the CPU.
package preview

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/metaball/mcubes"
)

// View configures the camera and shading of a rendered image.
type View struct {
	Width, Height int // output width and height in pixels
	Supersample   int // optional supersampling
	FovY          float64
	Near, Far     float64
	Eye           ms3.Vec // camera position
	LookAt        ms3.Vec // view center position
	Up            ms3.Vec
	Light         ms3.Vec // light direction
	Color         string  // object color in hex
	Background    string
	// TwoSided disables back face culling. Outward wound meshes render
	// the same either way.
	TwoSided bool
	// Extent is the half size of the world region scaled into the
	// bi-unit cube. If zero the mesh is fit to the cube each frame.
	Extent float64
}

// DefaultView looks at a domain of half extent 5 from above and to the side.
func DefaultView() View {
	return View{
		Width:       800,
		Height:      600,
		Supersample: 2,
		FovY:        30,
		Near:        1,
		Far:         10,
		Eye:         ms3.Vec{X: 3, Y: 2, Z: 4},
		Up:          ms3.Vec{Y: 1},
		Light:       ms3.Vec{X: -0.75, Y: 1, Z: 0.25},
		Color:       "#468966",
		Background:  "#FFF8E3",
		Extent:      5,
	}
}

func (v View) validate() error {
	switch {
	case v.Width <= 0 || v.Height <= 0:
		return errors.New("preview: image size must be positive")
	case v.Supersample < 0:
		return errors.New("preview: negative supersampling")
	case v.Near <= 0 || v.Far <= v.Near:
		return errors.New("preview: invalid clipping planes")
	case v.FovY <= 0 || v.FovY >= 180:
		return errors.New("preview: field of view out of range")
	case v.Extent < 0:
		return errors.New("preview: negative extent")
	}
	return nil
}

// Render draws the mesh triangles shaded with their vertex normals. An empty
// mesh renders as the background color.
func Render(m *mcubes.Mesh, v View) (image.Image, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if len(m.Normals) != len(m.Vertices) {
		return nil, fmt.Errorf("preview: %d normals for %d vertices", len(m.Normals), len(m.Vertices))
	}
	scale := v.Supersample
	if scale == 0 {
		scale = 1
	}
	var (
		eye    = vec(v.Eye)
		center = vec(v.LookAt)
		up     = vec(v.Up)
		light  = vec(v.Light).Normalize()
	)
	context := fauxgl.NewContext(v.Width*scale, v.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(v.Background))
	context.Cull = fauxgl.CullBack
	if v.TwoSided {
		context.Cull = fauxgl.CullNone
	}
	if m.TriangleCount() > 0 {
		mesh, err := fauxglMesh(m)
		if err != nil {
			return nil, err
		}
		if v.Extent > 0 {
			s := 1 / v.Extent
			mesh.Transform(fauxgl.Scale(fauxgl.V(s, s, s)))
		} else {
			mesh.BiUnitCube()
		}
		aspect := float64(v.Width) / float64(v.Height)
		matrix := fauxgl.LookAt(eye, center, up).Perspective(v.FovY, aspect, v.Near, v.Far)
		shader := fauxgl.NewPhongShader(matrix, light, eye)
		shader.ObjectColor = fauxgl.HexColor(v.Color)
		context.Shader = shader
		context.DrawMesh(mesh)
	}
	img := context.Image()
	if scale > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(v.Width), uint(v.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders the mesh and writes it to a PNG file.
func SavePNG(filename string, m *mcubes.Mesh, v View) error {
	img, err := Render(m, v)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(filename, img)
}

func fauxglMesh(m *mcubes.Mesh) (*fauxgl.Mesh, error) {
	triangles := make([]*fauxgl.Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		var verts [3]fauxgl.Vertex
		for j := range verts {
			k := m.Indices[i+j]
			if int(k) >= len(m.Vertices) {
				return nil, fmt.Errorf("preview: index %d out of range", k)
			}
			verts[j] = fauxgl.Vertex{Position: vec(m.Vertices[k]), Normal: vec(m.Normals[k])}
		}
		triangles = append(triangles, fauxgl.NewTriangle(verts[0], verts[1], verts[2]))
	}
	return fauxgl.NewTriangleMesh(triangles), nil
}

func vec(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
