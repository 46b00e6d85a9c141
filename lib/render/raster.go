package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"glyphwall/lib/engine"
	"glyphwall/lib/wall"
)

// Rasterizer turns one tick's ParameterFrame into a texture for one
// surface. The returned image is owned by the rasterizer and valid only
// until its next Render call for the same surface.
type Rasterizer interface {
	Render(f engine.ParameterFrame, s wall.Surface) *image.RGBA
}

// Software rasterizes strokes on the CPU with x/image/vector. Coverage is
// computed analytically per pixel, so the multisample count is carried as
// a hint for GPU backends and needs no extra work here.
type Software struct {
	backbone engine.WallSet
	samples  int
	bufs     [3]*image.RGBA
}

func NewSoftware(backbone engine.WallSet, samples int) *Software {
	if samples < 1 {
		samples = wall.SampleCount
	}
	r := &Software{backbone: backbone, samples: samples}
	for _, s := range wall.Surfaces {
		r.bufs[s] = image.NewRGBA(image.Rect(0, 0, s.Width(), s.Height()))
	}
	return r
}

var (
	glyphColor    = color.NRGBA{R: 0xff, G: 0xf4, B: 0xd6, A: 0xff}
	backboneColor = color.NRGBA{R: 0x28, G: 0x2c, B: 0x34, A: 0xff}
)

func (r *Software) Render(f engine.ParameterFrame, s wall.Surface) *image.RGBA {
	dst := r.bufs[s]

	// Background: black, lifted to white by the flash envelope.
	bg := uint8(clamp01(f.FlashIntensity) * 0xff)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{bg, bg, bg, 0xff}), image.Point{}, draw.Src)

	if f.Opacity > 0 {
		r.strokes(dst, r.backbone[s], f.BackboneStrokeWeight, fade(backboneColor, f.Opacity))
		r.strokes(dst, f.Walls[s], f.StrokeWeight, fade(glyphColor, f.Opacity))
	}
	return dst
}

func fade(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(clamp01(opacity) * float64(c.A))
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// strokes fills every polyline as a sequence of quads of the given width.
// Joins are butt joins; at installation stroke weights the seams are below
// one projector pixel.
func (r *Software) strokes(dst *image.RGBA, strokes []wall.Stroke, width float32, c color.NRGBA) {
	if len(strokes) == 0 || width <= 0 || c.A == 0 {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	for _, s := range strokes {
		appendStroke(z, s, width)
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func appendStroke(z *vector.Rasterizer, s wall.Stroke, width float32) {
	half := width / 2
	for i := 0; i+1 < len(s.Points); i++ {
		p0, p1 := s.Points[i], s.Points[i+1]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		// Unit normal scaled to half the stroke width.
		nx, ny := -dy/l*half, dx/l*half
		z.MoveTo(p0.X+nx, p0.Y+ny)
		z.LineTo(p1.X+nx, p1.Y+ny)
		z.LineTo(p1.X-nx, p1.Y-ny)
		z.LineTo(p0.X-nx, p0.Y-ny)
		z.ClosePath()
	}
}
