package engine

import (
	"fmt"
	"log/slog"

	"glyphwall/lib/wall"
)

type State int

const (
	StateIdle State = iota
	StatePoweringOn
	StateOn
	StatePoweringOff
	StateFlashing
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePoweringOn:
		return "powering_on"
	case StateOn:
		return "on"
	case StatePoweringOff:
		return "powering_off"
	case StateFlashing:
		return "flashing"
	case StateTransitioning:
		return "transitioning"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Params holds the animation timings loaded once at startup. Immutable;
// only the transition knobs can be overridden at runtime via ParamSet
// events, and those overrides live inside the Machine.
type Params struct {
	PowerOnFlashDuration float64
	PowerOnFadeDuration  float64
	PowerOffFadeDuration float64
	FlashFlashDuration   float64
	FlashFadeDuration    float64
	Transition           TransitionParams

	StrokeWeight         float32
	BackboneStrokeWeight float32
}

// Machine is the animation state machine. It owns the one ShowState of the
// installation; it is driven exclusively from the render scheduler's
// goroutine and performs no I/O, so (state, elapsed, params) → frame is a
// pure function and deterministic under test.
type Machine struct {
	params   Params
	override TransitionParams // live transition knobs, ParamSet-adjustable

	glyphs []WallSet // resolved geometry per glyph, per surface
	gen    *Generator
	log    *slog.Logger

	state     State
	elapsed   float64
	stepIndex int

	current, target int
	plans           [3]*Plan
	active          TransitionParams // snapshot taken at trigger time

	flashReturn  State
	pendingFlash bool

	resets uint64
}

func NewMachine(params Params, glyphs []WallSet, gen *Generator, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	if gen == nil {
		gen = NewGenerator(1)
	}
	return &Machine{
		params:   params,
		override: params.Transition,
		glyphs:   glyphs,
		gen:      gen,
		log:      log.With("component", "engine"),
		state:    StateIdle,
	}
}

func (m *Machine) State() State    { return m.state }
func (m *Machine) GlyphIndex() int { return m.current }
func (m *Machine) Resets() uint64  { return m.resets }

// Reset discards in-flight timers and returns to Idle. This is the
// recovery path for corrupted state; normal shutdown never needs it.
func (m *Machine) Reset() {
	m.state = StateIdle
	m.elapsed = 0
	m.stepIndex = 0
	m.pendingFlash = false
	m.resets++
}

func (m *Machine) setState(s State) {
	m.state = s
	m.elapsed = 0
	m.stepIndex = 0
}

// HandleEvent applies one control event. Events that make no sense in the
// current state are ignored (duplicate PowerOn while already on, PowerOff
// while idle, and so on).
func (m *Machine) HandleEvent(ev Event) {
	switch ev.Kind {
	case PowerOn:
		if m.state == StateIdle {
			m.setState(StatePoweringOn)
		}

	case PowerOff:
		if m.state == StateOn {
			m.setState(StatePoweringOff)
		}

	case BackgroundFlash:
		switch m.state {
		case StateOn, StateIdle:
			m.flashReturn = m.state
			m.setState(StateFlashing)
		case StateFlashing:
			// Last write wins: restart the timer, keep the return state.
			m.elapsed = 0
		case StateTransitioning:
			// Deferred until the transition hands back to On.
			m.pendingFlash = true
		}

	case TransitionTrigger:
		if m.state != StateOn || len(m.glyphs) == 0 {
			return
		}
		m.target = (m.current + 1) % len(m.glyphs)
		m.active = m.override
		for _, s := range wall.Surfaces {
			m.plans[s] = m.gen.Generate(m.glyphs[m.current][s], m.glyphs[m.target][s], m.active)
		}
		m.setState(StateTransitioning)

	case ParamSet:
		m.applyParam(ev)
	}
}

// applyParam handles /transition/config style events: (key, value) pairs
// adjusting the live transition knobs within sane bounds.
func (m *Machine) applyParam(ev Event) {
	if len(ev.Args) < 2 {
		return
	}
	key, ok := ev.Args[0].(string)
	if !ok {
		return
	}
	val, ok := numeric(ev.Args[1])
	if !ok {
		return
	}
	switch key {
	case "steps":
		m.override.Steps = clampInt(int(val), 1, 1000)
	case "frame_duration":
		m.override.FrameDuration = clampRange(val, 0.001, 10)
	case "wandering":
		m.override.Wandering = clamp01(val)
	case "density":
		m.override.Density = clamp01(val)
	default:
		m.log.Warn("unknown transition parameter", "key", key)
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tick advances the machine by the scheduler's fixed delta and returns the
// resolved parameters for this tick.
func (m *Machine) Tick(dt float64) ParameterFrame {
	if !m.validState() {
		m.log.Error("show state corrupted, forcing reset", "state", int(m.state))
		m.Reset()
	}
	m.elapsed += dt

	switch m.state {
	case StatePoweringOn:
		if m.elapsed >= m.params.PowerOnFlashDuration+m.params.PowerOnFadeDuration {
			m.setState(StateOn)
		}

	case StatePoweringOff:
		if m.elapsed >= m.params.PowerOffFadeDuration {
			m.setState(StateIdle)
		}

	case StateFlashing:
		if m.elapsed >= m.params.FlashFlashDuration+m.params.FlashFadeDuration {
			ret := m.flashReturn
			m.setState(ret)
		}

	case StateTransitioning:
		m.stepIndex = int(m.elapsed / m.active.FrameDuration)
		if m.stepIndex >= m.active.Steps {
			m.current = m.target
			m.setState(StateOn)
			if m.pendingFlash {
				m.pendingFlash = false
				m.flashReturn = StateOn
				m.setState(StateFlashing)
			}
		}
	}

	return m.frame()
}

func (m *Machine) validState() bool {
	return m.state >= StateIdle && m.state <= StateTransitioning &&
		m.stepIndex >= 0 && m.elapsed >= 0
}

func (m *Machine) frame() ParameterFrame {
	f := ParameterFrame{
		StrokeWeight:         m.params.StrokeWeight,
		BackboneStrokeWeight: m.params.BackboneStrokeWeight,
		Walls:                m.currentWalls(),
	}

	switch m.state {
	case StateIdle:
		// All zero.

	case StatePoweringOn:
		total := m.params.PowerOnFlashDuration + m.params.PowerOnFadeDuration
		if total <= 0 {
			f.Opacity = 1
		} else {
			f.Opacity = clamp01(m.elapsed / total)
		}
		f.FlashIntensity = flashCurve(m.elapsed, m.params.PowerOnFlashDuration, m.params.PowerOnFadeDuration)

	case StateOn:
		f.Opacity = 1

	case StatePoweringOff:
		if m.params.PowerOffFadeDuration <= 0 {
			f.Opacity = 0
		} else {
			f.Opacity = clamp01(1 - m.elapsed/m.params.PowerOffFadeDuration)
		}

	case StateFlashing:
		if m.flashReturn == StateOn {
			f.Opacity = 1
		}
		f.FlashIntensity = flashCurve(m.elapsed, m.params.FlashFlashDuration, m.params.FlashFadeDuration)

	case StateTransitioning:
		f.Opacity = 1
		f.TransitionProgress = clamp01(float64(m.stepIndex) / float64(m.active.Steps))
		for _, s := range wall.Surfaces {
			f.Walls[s] = m.plans[s].Step(m.stepIndex)
		}
	}

	return f
}

func (m *Machine) currentWalls() WallSet {
	var w WallSet
	if m.current < len(m.glyphs) {
		w = m.glyphs[m.current]
	}
	return w
}

// flashCurve is the flash-then-fade intensity envelope shared by power-on
// and background flashes: ramp to full over flash, decay to zero over fade.
func flashCurve(t, flash, fade float64) float64 {
	switch {
	case t < 0:
		return 0
	case flash > 0 && t < flash:
		return clamp01(t / flash)
	case fade > 0 && t < flash+fade:
		return clamp01(1 - (t-flash)/fade)
	default:
		return 0
	}
}
