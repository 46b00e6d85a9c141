package engine

import (
	"math/rand"

	"glyphwall/lib/wall"
)

// TransitionParams are the tunable knobs of a glyph transition.
type TransitionParams struct {
	Steps         int     // discrete steps per transition
	FrameDuration float64 // seconds between steps
	Wandering     float64 // 0..1, bounded random jitter magnitude
	Density       float64 // 0..1, spark probability per candidate point
}

// maxJitter is the largest per-axis offset (in surface pixels) a point can
// wander from its interpolated position at wandering = 1.
const maxJitter = 40.0

// sparkRadius is the half-length of the short tick stroke emitted for a
// density spark.
const sparkRadius = 3.0

// Generator produces transition plans. The random source is injected so
// transitions are reproducible under a fixed seed.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Plan holds the precomputed geometry for every step of one transition on
// one surface. Steps are computed up front at trigger time so a transition
// plays back identically however the scheduler paces it.
type Plan struct {
	steps [][]wall.Stroke
}

func (p *Plan) Len() int {
	return len(p.steps)
}

// Step returns the stroke set for step i, clamped to the plan's range. The
// returned slice is owned by the plan; callers render it within the tick
// and must not mutate it.
func (p *Plan) Step(i int) []wall.Stroke {
	if len(p.steps) == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	return p.steps[i]
}

// Generate builds the plan for a transition from one stroke set to another.
// The base geometry of step i is the linear interpolation at i/steps; each
// point is then perturbed by a bounded random offset scaled by wandering,
// and density gates how many extra spark points are emitted per step.
func (g *Generator) Generate(from, to []wall.Stroke, p TransitionParams) *Plan {
	if p.Steps < 1 {
		p.Steps = 1
	}
	f, t := matchStrokes(from, to)
	plan := &Plan{steps: make([][]wall.Stroke, p.Steps)}
	for i := range plan.steps {
		progress := float64(i) / float64(p.Steps)
		step := LerpStrokes(f, t, progress)
		g.jitter(step, p.Wandering)
		step = append(step, g.sparks(step, p.Density)...)
		plan.steps[i] = step
	}
	return plan
}

// LerpStrokes interpolates between two matched stroke sets at progress
// t in [0,1]. Both sets must have equal stroke and point counts, as
// produced by matchStrokes.
func LerpStrokes(from, to []wall.Stroke, t float64) []wall.Stroke {
	out := make([]wall.Stroke, len(from))
	for i := range from {
		pts := make([]wall.Point, len(from[i].Points))
		for j := range pts {
			a, b := from[i].Points[j], to[i].Points[j]
			pts[j] = wall.Point{
				X: a.X + (b.X-a.X)*float32(t),
				Y: a.Y + (b.Y-a.Y)*float32(t),
			}
		}
		out[i] = wall.Stroke{Points: pts}
	}
	return out
}

func (g *Generator) jitter(strokes []wall.Stroke, wandering float64) {
	if wandering <= 0 {
		return
	}
	for i := range strokes {
		for j := range strokes[i].Points {
			strokes[i].Points[j].X += g.offset(wandering)
			strokes[i].Points[j].Y += g.offset(wandering)
		}
	}
}

func (g *Generator) offset(wandering float64) float32 {
	return float32((g.rng.Float64()*2 - 1) * wandering * maxJitter)
}

func (g *Generator) sparks(strokes []wall.Stroke, density float64) []wall.Stroke {
	if density <= 0 {
		return nil
	}
	var out []wall.Stroke
	for _, s := range strokes {
		for _, pt := range s.Points {
			if g.rng.Float64() >= density {
				continue
			}
			out = append(out, wall.Stroke{Points: []wall.Point{
				{X: pt.X - sparkRadius, Y: pt.Y - sparkRadius},
				{X: pt.X + sparkRadius, Y: pt.Y + sparkRadius},
			}})
		}
	}
	return out
}

// matchStrokes pairs two stroke sets for interpolation: both sides are
// padded to the same stroke count (extra strokes collapse to their
// counterpart's centroid) and each pair is resampled to a common point
// count.
func matchStrokes(from, to []wall.Stroke) ([]wall.Stroke, []wall.Stroke) {
	n := max(len(from), len(to))
	f := make([]wall.Stroke, n)
	t := make([]wall.Stroke, n)
	for i := range n {
		switch {
		case i < len(from) && i < len(to):
			f[i], t[i] = from[i].Clone(), to[i].Clone()
		case i < len(from):
			f[i] = from[i].Clone()
			t[i] = collapsed(from[i])
		default:
			f[i] = collapsed(to[i])
			t[i] = to[i].Clone()
		}
		pts := max(len(f[i].Points), len(t[i].Points))
		f[i] = resample(f[i], pts)
		t[i] = resample(t[i], pts)
	}
	return f, t
}

// collapsed returns a stroke whose every point sits at s's centroid, so a
// missing counterpart appears to grow out of (or shrink into) its partner.
func collapsed(s wall.Stroke) wall.Stroke {
	var cx, cy float32
	for _, p := range s.Points {
		cx += p.X
		cy += p.Y
	}
	if len(s.Points) > 0 {
		cx /= float32(len(s.Points))
		cy /= float32(len(s.Points))
	}
	pts := make([]wall.Point, len(s.Points))
	for i := range pts {
		pts[i] = wall.Point{X: cx, Y: cy}
	}
	return wall.Stroke{Points: pts}
}

func resample(s wall.Stroke, n int) wall.Stroke {
	if len(s.Points) == n || len(s.Points) == 0 {
		return s
	}
	if n < 2 {
		n = 2
	}
	pts := make([]wall.Point, n)
	for i := range n {
		pos := float64(i) / float64(n-1) * float64(len(s.Points)-1)
		lo := int(pos)
		hi := lo
		if hi < len(s.Points)-1 {
			hi++
		}
		frac := float32(pos - float64(lo))
		a, b := s.Points[lo], s.Points[hi]
		pts[i] = wall.Point{
			X: a.X + (b.X-a.X)*frac,
			Y: a.Y + (b.Y-a.Y)*frac,
		}
	}
	return wall.Stroke{Points: pts}
}
