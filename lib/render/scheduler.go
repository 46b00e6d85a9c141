package render

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"glyphwall/lib/engine"
	"glyphwall/lib/wall"
)

// FrameSink receives the three rendered wall textures each tick. The
// images are owned by the rasterizer: a sink that needs them beyond the
// call must copy inside HandleFrame.
type FrameSink interface {
	HandleFrame(seq uint64, walls [3]*image.RGBA, f engine.ParameterFrame)
}

// Scheduler is the fixed-rate tick source. Each tick it drains the event
// queue into the state machine, asks it for the current ParameterFrame,
// renders all three surfaces and fans the result out to the sinks. It is
// the only goroutine that touches the machine.
type Scheduler struct {
	interval time.Duration
	machine  *engine.Machine
	queue    *engine.Queue
	ras      Rasterizer
	sinks    []FrameSink
	log      *slog.Logger

	seq     uint64
	ticks   atomic.Uint64
	dropped atomic.Uint64
}

type SchedulerStats struct {
	Ticks         uint64
	DroppedFrames uint64
}

func NewScheduler(fps int, machine *engine.Machine, queue *engine.Queue, ras Rasterizer, log *slog.Logger, sinks ...FrameSink) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		interval: time.Second / time.Duration(fps),
		machine:  machine,
		queue:    queue,
		ras:      ras,
		sinks:    sinks,
		log:      log.With("component", "scheduler"),
	}
}

// Run ticks until ctx is cancelled. A tick whose rendering work exceeds
// the tick budget is logged and counted; the ticker then simply delivers
// the next tick, so there is no catch-up backlog.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	start := time.Now()

	for _, ev := range s.queue.Drain() {
		s.machine.HandleEvent(ev)
	}
	f := s.machine.Tick(s.interval.Seconds())

	var walls [3]*image.RGBA
	for _, surf := range wall.Surfaces {
		walls[surf] = s.ras.Render(f, surf)
	}
	for _, sink := range s.sinks {
		sink.HandleFrame(s.seq, walls, f)
	}
	s.seq++
	s.ticks.Add(1)

	if elapsed := time.Since(start); elapsed > s.interval {
		s.dropped.Add(1)
		s.log.Warn("tick exceeded budget, dropping frames",
			"elapsed", elapsed, "budget", s.interval)
	}
}

func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Ticks:         s.ticks.Load(),
		DroppedFrames: s.dropped.Load(),
	}
}
