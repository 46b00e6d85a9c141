package record

import (
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"glyphwall/lib/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWalls() [3]*image.RGBA {
	var walls [3]*image.RGBA
	for i := range walls {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for p := range img.Pix {
			img.Pix[p] = byte(i + 1)
		}
		walls[i] = img
	}
	return walls
}

func listFrames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRecorderStopsAtFrameLimit(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, 3, "png", 90, 30, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	walls := testWalls()
	for seq := range uint64(5) {
		r.HandleFrame(seq, walls, engine.ParameterFrame{})
	}
	r.Close()

	names := listFrames(t, dir)
	if len(names) != 9 {
		t.Fatalf("wrote %d files, want 9 (3 frames x 3 surfaces): %v", len(names), names)
	}
	for _, want := range []string{
		"frame0000_left.png", "frame0000_center.png", "frame0000_right.png",
		"frame0002_left.png", "frame0002_center.png", "frame0002_right.png",
	} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}

	stats := r.Stats()
	if stats.Written != 3 {
		t.Errorf("written: got %d, want 3", stats.Written)
	}
	if stats.Halted {
		t.Error("recorder halted; frame limit is not a failure")
	}
}

func TestRecorderCopiesFrames(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, 1, "png", 90, 30, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	walls := testWalls()
	r.HandleFrame(0, walls, engine.ParameterFrame{})
	// The rasterizer reuses buffers; scribbling after submit must not
	// corrupt what lands on disk.
	for _, w := range walls {
		for p := range w.Pix {
			w.Pix[p] = 0xEE
		}
	}
	r.Close()

	if got := r.Stats().Written; got != 1 {
		t.Fatalf("written: got %d, want 1", got)
	}
}

func TestRecorderHaltsAfterConsecutiveFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r, err := New(dir, 100, "png", 90, 30, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	// Yank the output directory out from under the writer.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	walls := testWalls()
	for seq := range uint64(5) {
		r.HandleFrame(seq, walls, engine.ParameterFrame{})
	}
	r.Close()

	stats := r.Stats()
	if !stats.Halted {
		t.Error("recorder did not halt")
	}
	if stats.Failures != maxConsecutiveFailures {
		t.Errorf("failures: got %d, want %d", stats.Failures, maxConsecutiveFailures)
	}
	if stats.Written != 0 {
		t.Errorf("written: got %d, want 0", stats.Written)
	}
}

func TestRecorderFormats(t *testing.T) {
	cases := []struct {
		format string
		ext    string
	}{
		{"png", "png"},
		{"jpeg", "jpg"},
		{"bmp", "bmp"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			dir := t.TempDir()
			r, err := New(dir, 1, tc.format, 75, 30, discardLogger())
			if err != nil {
				t.Fatal(err)
			}
			r.HandleFrame(0, testWalls(), engine.ParameterFrame{})
			r.Close()

			want := "frame0000_left." + tc.ext
			if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
				t.Errorf("missing %s: %v", want, err)
			}
		})
	}
}

func TestRecorderZeroLimitWritesNothing(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, 0, "png", 90, 30, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	r.HandleFrame(0, testWalls(), engine.ParameterFrame{})
	r.Close()

	if names := listFrames(t, dir); len(names) != 0 {
		t.Errorf("wrote %d files, want none: %v", len(names), names)
	}
}
