package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"glyphwall/lib/config"
	"glyphwall/lib/engine"
	"glyphwall/lib/midiin"
	"glyphwall/lib/oscin"
	"glyphwall/lib/preview"
	"glyphwall/lib/record"
	"glyphwall/lib/render"
	"glyphwall/lib/scene"
	"glyphwall/lib/wall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	project, err := scene.Load(cfg.Paths.ProjectFile)
	if err != nil {
		return err
	}
	project.ArcResolution = cfg.Rendering.ArcResolution

	glyphs := make([]engine.WallSet, len(project.Glyphs))
	var backbone engine.WallSet
	for _, s := range wall.Surfaces {
		backbone[s] = project.Backbone(s)
		for i := range project.Glyphs {
			glyphs[i][s] = project.ResolveGlyph(i, s)
		}
	}
	log.Info("project loaded",
		"file", cfg.Paths.ProjectFile,
		"grid", fmt.Sprintf("%dx%d", project.GridX, project.GridY),
		"glyphs", len(project.Glyphs))

	gen := engine.NewGenerator(time.Now().UnixNano())
	machine := engine.NewMachine(engineParams(cfg), glyphs, gen, log)
	queue := engine.NewQueue(256)

	oscSrv, err := oscin.Listen(cfg.OSC.RxPort, queue, log)
	if err != nil {
		return err
	}

	if cfg.MIDI.Enabled {
		defer midi.CloseDriver()
		stop, err := midiin.Listen(cfg.MIDI.Port, queue, log)
		if err != nil {
			// The desk is a convenience; OSC control still works.
			log.Warn("midi input unavailable", "error", err)
		} else {
			defer stop()
		}
	}

	ras := render.NewSoftware(backbone, cfg.Rendering.TextureSamples)

	var sinks []render.FrameSink
	var recorder *record.Recorder
	if cfg.FrameRecorder.Enabled {
		recorder, err = record.New(cfg.Paths.OutputDirectory, cfg.FrameRecorder.FrameLimit,
			cfg.FrameRecorder.Format, cfg.FrameRecorder.JPEGQuality, cfg.Rendering.FPS, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, recorder)
	}

	var window *preview.Window
	if cfg.Window.Enabled {
		window = preview.New(cfg.Window.Width, cfg.Window.Height)
		sinks = append(sinks, window)
	}

	sched := render.NewScheduler(cfg.Rendering.FPS, machine, queue, ras, log, sinks...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		cancel()
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	if window != nil {
		// The monitoring window owns the main goroutine. Closing it stops
		// the preview only; the show runs headless until a signal arrives.
		if err := window.Run(ctx); err != nil {
			log.Error("preview window failed", "error", err)
		}
	}
	<-schedDone

	// Shutdown order: ingress stops first, then the recorder flushes.
	oscSrv.Close()
	if recorder != nil {
		recorder.Close()
		stats := recorder.Stats()
		log.Info("recorder stats",
			"written", stats.Written, "dropped", stats.Dropped,
			"failures", stats.Failures, "halted", stats.Halted)
	}
	stats := sched.Stats()
	log.Info("scheduler stats", "ticks", stats.Ticks, "dropped_frames", stats.DroppedFrames)
	return nil
}

func engineParams(cfg config.Config) engine.Params {
	return engine.Params{
		PowerOnFlashDuration: cfg.Animation.PowerOn.FlashDuration,
		PowerOnFadeDuration:  cfg.Animation.PowerOn.FadeDuration,
		PowerOffFadeDuration: cfg.Animation.PowerOff.FadeDuration,
		FlashFlashDuration:   cfg.Animation.BackgroundFlash.FlashDuration,
		FlashFadeDuration:    cfg.Animation.BackgroundFlash.FadeDuration,
		Transition: engine.TransitionParams{
			Steps:         cfg.Animation.Transition.Steps,
			FrameDuration: cfg.Animation.Transition.FrameDuration,
			Wandering:     cfg.Animation.Transition.Wandering,
			Density:       cfg.Animation.Transition.Density,
		},
		StrokeWeight:         float32(cfg.Style.DefaultStrokeWeight),
		BackboneStrokeWeight: float32(cfg.Style.BackboneStrokeWeight),
	}
}
