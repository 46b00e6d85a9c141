// Package record persists rendered wall textures to the output directory
// as a bounded, sequence-ordered frame series for later video assembly.
package record

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/image/bmp"

	"glyphwall/lib/engine"
	"glyphwall/lib/wall"
)

// maxConsecutiveFailures is how many frame writes may fail in a row
// before recording halts for good.
const maxConsecutiveFailures = 3

// submitTimeout bounds how long a tick may wait on the writer before the
// frame is dropped; visual continuity outranks completeness.
const submitTimeout = 50 * time.Millisecond

const queueDepth = 30

type frame struct {
	seq       int
	walls     [3]*image.RGBA
	timestamp time.Duration
}

// Recorder accepts wall-texture triplets from the render tick and writes
// them on its own goroutine, so slow disk I/O never stalls rendering.
// After frameLimit frames (or three consecutive write failures) it stops
// persisting while the show keeps running.
type Recorder struct {
	dir     string
	limit   int
	format  string
	quality int
	fps     int
	log     *slog.Logger

	ch   chan frame
	done chan struct{}

	seq      int // next sequence number; touched only by HandleFrame's goroutine
	complete bool

	written  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
	halted   atomic.Bool
}

type Stats struct {
	Written  uint64
	Dropped  uint64
	Failures uint64
	Halted   bool
}

func New(dir string, limit int, format string, quality int, fps int, log *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		dir:     dir,
		limit:   limit,
		format:  format,
		quality: quality,
		fps:     fps,
		log:     log.With("component", "recorder"),
		ch:      make(chan frame, queueDepth),
		done:    make(chan struct{}),
	}
	go r.writeLoop()
	return r, nil
}

// HandleFrame implements render.FrameSink. The walls are copied here, on
// the scheduler's goroutine, because the rasterizer reuses its buffers;
// the recorder owns the copies until they are flushed to disk.
func (r *Recorder) HandleFrame(_ uint64, walls [3]*image.RGBA, _ engine.ParameterFrame) {
	if r.halted.Load() {
		return
	}
	if r.seq >= r.limit {
		if !r.complete {
			r.complete = true
			r.log.Info("frame limit reached, recording exhausted", "frames", r.limit)
		}
		return
	}

	f := frame{
		seq:       r.seq,
		timestamp: time.Duration(r.seq) * time.Second / time.Duration(r.fps),
	}
	for _, s := range wall.Surfaces {
		f.walls[s] = cloneImage(walls[s])
	}

	select {
	case r.ch <- f:
		r.seq++
	case <-time.After(submitTimeout):
		r.dropped.Add(1)
		r.log.Warn("writer backlogged, frame dropped", "seq", r.seq)
	}
}

func cloneImage(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// Close flushes pending frames and stops the writer. The scheduler must
// be stopped first; nothing may call HandleFrame afterwards.
func (r *Recorder) Close() {
	close(r.ch)
	<-r.done
}

func (r *Recorder) Stats() Stats {
	return Stats{
		Written:  r.written.Load(),
		Dropped:  r.dropped.Load(),
		Failures: r.failures.Load(),
		Halted:   r.halted.Load(),
	}
}

func (r *Recorder) writeLoop() {
	defer close(r.done)
	consecutive := 0
	for f := range r.ch {
		if r.halted.Load() {
			continue // drain without writing
		}
		if err := r.writeFrame(f); err != nil {
			consecutive++
			r.failures.Add(1)
			r.log.Error("frame write failed", "seq", f.seq, "error", err)
			if consecutive >= maxConsecutiveFailures {
				r.halted.Store(true)
				r.log.Error("recording halted after consecutive failures",
					"failures", consecutive)
			}
			continue
		}
		consecutive = 0
		r.written.Add(1)
	}
}

func (r *Recorder) writeFrame(f frame) error {
	for _, s := range wall.Surfaces {
		if err := r.writeTexture(f.seq, s, f.walls[s]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) writeTexture(seq int, s wall.Surface, img *image.RGBA) error {
	name := filepath.Join(r.dir, fmt.Sprintf("frame%04d_%s.%s", seq, s, ext(r.format)))
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	switch r.format {
	case "jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: r.quality})
	case "bmp":
		err = bmp.Encode(file, img)
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

func ext(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "bmp":
		return "bmp"
	default:
		return "png"
	}
}
