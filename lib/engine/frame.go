package engine

import "glyphwall/lib/wall"

// WallSet holds one stroke set per projection surface, indexed by
// wall.Surface.
type WallSet [3][]wall.Stroke

// ParameterFrame is the resolved set of visual parameters for one tick.
// Produced fresh by the state machine, consumed immediately by the render
// scheduler, never retained.
type ParameterFrame struct {
	Opacity            float64 // 0..1
	FlashIntensity     float64 // 0..1
	TransitionProgress float64 // 0..1

	StrokeWeight         float32
	BackboneStrokeWeight float32

	// Walls is the active glyph geometry per surface for this tick.
	Walls WallSet
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
