// Package config loads the controller's config.toml. Every key has a sane
// default; malformed values fail startup with an error naming the
// offending key.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Paths         Paths         `toml:"paths"`
	Rendering     Rendering     `toml:"rendering"`
	Window        Window        `toml:"window"`
	OSC           OSC           `toml:"osc"`
	MIDI          MIDI          `toml:"midi"`
	FrameRecorder FrameRecorder `toml:"frame_recorder"`
	Style         Style         `toml:"style"`
	Speed         Speed         `toml:"speed"`
	Animation     Animation     `toml:"animation"`
}

type Paths struct {
	ProjectFile     string `toml:"project_file"`
	OutputDirectory string `toml:"output_directory"`
}

type Rendering struct {
	FPS            int `toml:"fps"`
	TextureSamples int `toml:"texture_samples"`
	ArcResolution  int `toml:"arc_resolution"`
}

type Window struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
}

type OSC struct {
	RxPort int `toml:"rx_port"`
}

type MIDI struct {
	Enabled bool   `toml:"enabled"`
	Port    string `toml:"port"`
}

type FrameRecorder struct {
	Enabled     bool   `toml:"enabled"`
	FrameLimit  int    `toml:"frame_limit"`
	Format      string `toml:"format"`
	JPEGQuality int    `toml:"jpeg_quality"`
}

type Style struct {
	DefaultStrokeWeight  float64 `toml:"default_stroke_weight"`
	BackboneStrokeWeight float64 `toml:"backbone_stroke_weight"`
}

// Speed carries the nominal show tempo. Nothing in the engine is
// beat-synced; the key is accepted and ignored.
type Speed struct {
	BPM int `toml:"bpm"`
}

type Animation struct {
	PowerOn         PowerOn         `toml:"power_on"`
	PowerOff        PowerOff        `toml:"power_off"`
	BackgroundFlash BackgroundFlash `toml:"background_flash"`
	Transition      Transition      `toml:"transition"`
}

type PowerOn struct {
	FlashDuration float64 `toml:"flash_duration"`
	FadeDuration  float64 `toml:"fade_duration"`
}

type PowerOff struct {
	FadeDuration float64 `toml:"fade_duration"`
}

type BackgroundFlash struct {
	FlashDuration float64 `toml:"flash_duration"`
	FadeDuration  float64 `toml:"fade_duration"`
}

type Transition struct {
	Steps         int     `toml:"steps"`
	FrameDuration float64 `toml:"frame_duration"`
	Wandering     float64 `toml:"wandering"`
	Density       float64 `toml:"density"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			ProjectFile:     "project.json",
			OutputDirectory: "output",
		},
		Rendering: Rendering{
			FPS:            30,
			TextureSamples: 4,
			ArcResolution:  25,
		},
		Window: Window{
			Enabled: true,
			Width:   1600,
			Height:  400,
		},
		OSC: OSC{
			RxPort: 8000,
		},
		FrameRecorder: FrameRecorder{
			FrameLimit:  900,
			Format:      "png",
			JPEGQuality: 90,
		},
		Style: Style{
			DefaultStrokeWeight:  12,
			BackboneStrokeWeight: 6,
		},
		Speed: Speed{
			BPM: 120,
		},
		Animation: Animation{
			PowerOn:         PowerOn{FlashDuration: 0.35, FadeDuration: 1.4},
			PowerOff:        PowerOff{FadeDuration: 2.0},
			BackgroundFlash: BackgroundFlash{FlashDuration: 0.1, FadeDuration: 0.8},
			Transition: Transition{
				Steps:         50,
				FrameDuration: 0.1,
				Wandering:     0.6,
				Density:       0.00001,
			},
		},
	}
}

// Load reads path on top of the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.ProjectFile == "" {
		return fmt.Errorf("config: paths.project_file must not be empty")
	}
	if c.Paths.OutputDirectory == "" {
		return fmt.Errorf("config: paths.output_directory must not be empty")
	}
	if c.Rendering.FPS < 1 || c.Rendering.FPS > 240 {
		return fmt.Errorf("config: rendering.fps %d out of range 1..240", c.Rendering.FPS)
	}
	if c.Rendering.TextureSamples < 1 {
		return fmt.Errorf("config: rendering.texture_samples %d out of range", c.Rendering.TextureSamples)
	}
	if c.Rendering.ArcResolution < 2 {
		return fmt.Errorf("config: rendering.arc_resolution %d out of range", c.Rendering.ArcResolution)
	}
	if c.Window.Enabled && (c.Window.Width < 1 || c.Window.Height < 1) {
		return fmt.Errorf("config: window.width/window.height %dx%d out of range",
			c.Window.Width, c.Window.Height)
	}
	if c.OSC.RxPort < 1 || c.OSC.RxPort > 65535 {
		return fmt.Errorf("config: osc.rx_port %d out of range 1..65535", c.OSC.RxPort)
	}
	if c.FrameRecorder.FrameLimit < 0 {
		return fmt.Errorf("config: frame_recorder.frame_limit must not be negative")
	}
	switch c.FrameRecorder.Format {
	case "png", "jpeg", "bmp":
	default:
		return fmt.Errorf("config: frame_recorder.format: unknown format %q", c.FrameRecorder.Format)
	}
	if c.FrameRecorder.JPEGQuality < 1 || c.FrameRecorder.JPEGQuality > 100 {
		return fmt.Errorf("config: frame_recorder.jpeg_quality %d out of range 1..100",
			c.FrameRecorder.JPEGQuality)
	}
	if c.Style.DefaultStrokeWeight <= 0 {
		return fmt.Errorf("config: style.default_stroke_weight must be positive")
	}
	if c.Style.BackboneStrokeWeight <= 0 {
		return fmt.Errorf("config: style.backbone_stroke_weight must be positive")
	}
	if err := validateDuration("animation.power_on.flash_duration", c.Animation.PowerOn.FlashDuration); err != nil {
		return err
	}
	if err := validateDuration("animation.power_on.fade_duration", c.Animation.PowerOn.FadeDuration); err != nil {
		return err
	}
	if err := validateDuration("animation.power_off.fade_duration", c.Animation.PowerOff.FadeDuration); err != nil {
		return err
	}
	if err := validateDuration("animation.background_flash.flash_duration", c.Animation.BackgroundFlash.FlashDuration); err != nil {
		return err
	}
	if err := validateDuration("animation.background_flash.fade_duration", c.Animation.BackgroundFlash.FadeDuration); err != nil {
		return err
	}
	t := c.Animation.Transition
	if t.Steps < 1 {
		return fmt.Errorf("config: animation.transition.steps %d out of range", t.Steps)
	}
	if t.FrameDuration <= 0 {
		return fmt.Errorf("config: animation.transition.frame_duration must be positive")
	}
	if t.Wandering < 0 || t.Wandering > 1 {
		return fmt.Errorf("config: animation.transition.wandering %v out of range 0..1", t.Wandering)
	}
	if t.Density < 0 || t.Density > 1 {
		return fmt.Errorf("config: animation.transition.density %v out of range 0..1", t.Density)
	}
	return nil
}

func validateDuration(key string, v float64) error {
	if v < 0 {
		return fmt.Errorf("config: %s must not be negative", key)
	}
	return nil
}
