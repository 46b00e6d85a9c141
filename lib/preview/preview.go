// Package preview is the monitoring window: a passive sink that shows the
// three wall textures scaled side by side. No control flows back from it;
// closing the window never affects rendering or recording.
package preview

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"glyphwall/lib/engine"
	"glyphwall/lib/wall"
)

type Window struct {
	width, height int

	mu    sync.Mutex
	imgs  [3]*image.RGBA
	dirty [3]bool

	tex [3]*ebiten.Image
}

func New(width, height int) *Window {
	w := &Window{width: width, height: height}
	for _, s := range wall.Surfaces {
		w.imgs[s] = image.NewRGBA(image.Rect(0, 0, s.Width(), s.Height()))
	}
	return w
}

// HandleFrame implements render.FrameSink; it copies the latest textures
// under the lock and lets the draw loop pick them up at its own pace.
func (w *Window) HandleFrame(_ uint64, walls [3]*image.RGBA, _ engine.ParameterFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range wall.Surfaces {
		copy(w.imgs[s].Pix, walls[s].Pix)
		w.dirty[s] = true
	}
}

// Run opens the window and blocks until ctx is cancelled or the operator
// closes it. Must run on the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle("glyphwall")
	err := ebiten.RunGame(&game{win: w, ctx: ctx})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	win *Window
	ctx context.Context
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	w := g.win
	w.mu.Lock()
	for _, s := range wall.Surfaces {
		if !w.dirty[s] {
			continue
		}
		if w.tex[s] == nil {
			w.tex[s] = ebiten.NewImage(s.Width(), s.Height())
		}
		w.tex[s].WritePixels(w.imgs[s].Pix)
		w.dirty[s] = false
	}
	w.mu.Unlock()

	total := 0
	for _, s := range wall.Surfaces {
		total += s.Width()
	}
	scale := float64(w.width) / float64(total)
	x := 0.0
	for _, s := range wall.Surfaces {
		if w.tex[s] == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x, 0)
		screen.DrawImage(w.tex[s], op)
		x += float64(s.Width()) * scale
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.win.width, g.win.height
}
