// Package wall defines the three projection surfaces of the installation
// and the stroke geometry primitives shared by the scene loader, the
// animation engine and the renderer.
package wall

import "fmt"

type Surface int

const (
	Left Surface = iota
	Center
	Right
)

// Surfaces lists all surfaces in render order.
var Surfaces = [3]Surface{Left, Center, Right}

// Texture dimensions are fixed per surface; they are rendering-quality
// constants of the physical installation, not runtime state.
const (
	sideWidth   = 4742
	centerWidth = 4542
	height      = 1200

	// SampleCount is the multisample hint passed to rasterizer backends.
	SampleCount = 4

	// ArcResolution is the number of line segments an arc is flattened to.
	ArcResolution = 25
)

func (s Surface) String() string {
	switch s {
	case Left:
		return "left"
	case Center:
		return "center"
	case Right:
		return "right"
	}
	return fmt.Sprintf("surface(%d)", int(s))
}

func (s Surface) Width() int {
	if s == Center {
		return centerWidth
	}
	return sideWidth
}

func (s Surface) Height() int {
	return height
}

type Point struct {
	X, Y float32
}

// Stroke is a polyline in surface pixel coordinates. Arcs are flattened to
// ArcResolution segments before they reach a Stroke.
type Stroke struct {
	Points []Point
}

// Clone returns a deep copy; the engine hands strokes across goroutine
// boundaries inside immutable ParameterFrames.
func (s Stroke) Clone() Stroke {
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	return Stroke{Points: pts}
}

func CloneStrokes(in []Stroke) []Stroke {
	out := make([]Stroke, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
