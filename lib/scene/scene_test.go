package scene

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glyphwall/lib/wall"
)

const testProject = `{
  "grid_x": 4,
  "grid_y": 2,
  "glyphs": [
    {"name": "bar", "segments": ["1,0,h", "2,1,v"]},
    {"name": "bow", "segments": ["1,0,h", "0,0,ne"]}
  ]
}`

func parseTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := Parse([]byte(testProject))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-2
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, []byte(testProject), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Glyphs) != 2 {
		t.Errorf("glyphs: got %d, want 2", len(p.Glyphs))
	}
}

func TestResolveStraightSegments(t *testing.T) {
	p := parseTestProject(t)
	strokes := p.ResolveGlyph(0, wall.Left)
	if len(strokes) != 2 {
		t.Fatalf("strokes: got %d, want 2", len(strokes))
	}

	// Left is 4742x1200 on a 4x2 grid: cells are 1185.5 x 600.
	h := strokes[0]
	if len(h.Points) != 2 {
		t.Fatalf("h segment: %d points, want 2", len(h.Points))
	}
	if !near(h.Points[0].X, 1185.5) || !near(h.Points[0].Y, 300) ||
		!near(h.Points[1].X, 2371) || !near(h.Points[1].Y, 300) {
		t.Errorf("h segment: got %v -> %v", h.Points[0], h.Points[1])
	}

	v := strokes[1]
	if !near(v.Points[0].X, 2963.75) || !near(v.Points[0].Y, 600) ||
		!near(v.Points[1].X, 2963.75) || !near(v.Points[1].Y, 1200) {
		t.Errorf("v segment: got %v -> %v", v.Points[0], v.Points[1])
	}
}

func TestResolveScalesPerSurface(t *testing.T) {
	p := parseTestProject(t)
	left := p.ResolveGlyph(0, wall.Left)
	center := p.ResolveGlyph(0, wall.Center)

	// Center is 200px narrower, so the same segment lands further left.
	if left[0].Points[1].X <= center[0].Points[1].X {
		t.Errorf("center stroke not narrower: left %v, center %v",
			left[0].Points[1].X, center[0].Points[1].X)
	}
	if left[0].Points[1].Y != center[0].Points[1].Y {
		t.Errorf("heights differ: left %v, center %v",
			left[0].Points[1].Y, center[0].Points[1].Y)
	}
}

func TestResolveArcSegment(t *testing.T) {
	p := parseTestProject(t)
	strokes := p.ResolveGlyph(1, wall.Left)
	if len(strokes) != 2 {
		t.Fatalf("strokes: got %d, want 2", len(strokes))
	}

	arc := strokes[1]
	if len(arc.Points) != wall.ArcResolution+1 {
		t.Fatalf("arc points: got %d, want %d", len(arc.Points), wall.ArcResolution+1)
	}
	// An ne arc in cell (0,0) runs from the bottom-edge midpoint of the
	// cell's right side down to the top-edge midpoint.
	cw, ch := float32(4742)/4, float32(600)
	first, last := arc.Points[0], arc.Points[len(arc.Points)-1]
	if !near(first.X, cw) || !near(first.Y, ch/2) {
		t.Errorf("arc start: got %v, want (%v,%v)", first, cw, ch/2)
	}
	if !near(last.X, cw/2) || !near(last.Y, 0) {
		t.Errorf("arc end: got %v, want (%v,0)", last, cw/2)
	}
}

func TestArcResolutionOverride(t *testing.T) {
	p := parseTestProject(t)
	p.ArcResolution = 8
	strokes := p.ResolveGlyph(1, wall.Left)
	if got := len(strokes[1].Points); got != 9 {
		t.Errorf("arc points: got %d, want 9", got)
	}
}

func TestBackboneDeduplicatesSegments(t *testing.T) {
	p := parseTestProject(t)
	// "1,0,h" appears in both glyphs; the backbone carries it once.
	strokes := p.Backbone(wall.Right)
	if len(strokes) != 3 {
		t.Errorf("backbone strokes: got %d, want 3", len(strokes))
	}
}

func TestResolveOutOfRangeGlyph(t *testing.T) {
	p := parseTestProject(t)
	if got := p.ResolveGlyph(5, wall.Left); got != nil {
		t.Errorf("ResolveGlyph(5) returned %d strokes, want nil", len(got))
	}
	if got := p.ResolveGlyph(-1, wall.Left); got != nil {
		t.Errorf("ResolveGlyph(-1) returned %d strokes, want nil", len(got))
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "zero grid",
			body: `{"grid_x": 0, "grid_y": 2, "glyphs": [{"name": "a", "segments": []}]}`,
			want: "grid dimensions",
		},
		{
			name: "no glyphs",
			body: `{"grid_x": 4, "grid_y": 2, "glyphs": []}`,
			want: "no glyphs",
		},
		{
			name: "unnamed glyph",
			body: `{"grid_x": 4, "grid_y": 2, "glyphs": [{"name": "", "segments": []}]}`,
			want: "no name",
		},
		{
			name: "unknown segment type",
			body: `{"grid_x": 4, "grid_y": 2, "glyphs": [{"name": "a", "segments": ["0,0,zz"]}]}`,
			want: "unknown type",
		},
		{
			name: "malformed segment",
			body: `{"grid_x": 4, "grid_y": 2, "glyphs": [{"name": "a", "segments": ["0-0-h"]}]}`,
			want: "want col,row,type",
		},
		{
			name: "segment off grid",
			body: `{"grid_x": 4, "grid_y": 2, "glyphs": [{"name": "a", "segments": ["9,0,h"]}]}`,
			want: "outside",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
