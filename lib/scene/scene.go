// Package scene loads the project file describing the show: a glyph grid
// and the glyphs drawn on it. The controller resolves glyphs once at
// startup into per-surface stroke geometry; nothing else reads the schema.
package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"glyphwall/lib/wall"
)

type Project struct {
	GridX  int     `json:"grid_x"`
	GridY  int     `json:"grid_y"`
	Glyphs []Glyph `json:"glyphs"`

	// ArcResolution overrides wall.ArcResolution when positive; set from
	// the rendering config before resolving geometry.
	ArcResolution int `json:"-"`
}

type Glyph struct {
	Name     string   `json:"name"`
	Segments []string `json:"segments"`
}

// Segment is one cell-local stroke: a straight bar or a quarter arc.
type Segment struct {
	Col, Row int
	Type     string
}

var segmentTypes = map[string]bool{
	"h": true, "v": true,
	"ne": true, "nw": true, "se": true, "sw": true,
}

func Load(path string) (*Project, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Project) Validate() error {
	if p.GridX < 1 || p.GridY < 1 {
		return fmt.Errorf("scene: grid dimensions %dx%d out of range", p.GridX, p.GridY)
	}
	if len(p.Glyphs) == 0 {
		return fmt.Errorf("scene: project has no glyphs")
	}
	for i, g := range p.Glyphs {
		if g.Name == "" {
			return fmt.Errorf("scene: glyph %d has no name", i)
		}
		for _, s := range g.Segments {
			seg, err := parseSegment(s)
			if err != nil {
				return fmt.Errorf("scene: glyph %q: %w", g.Name, err)
			}
			if seg.Col < 0 || seg.Col >= p.GridX || seg.Row < 0 || seg.Row >= p.GridY {
				return fmt.Errorf("scene: glyph %q: segment %q outside %dx%d grid",
					g.Name, s, p.GridX, p.GridY)
			}
		}
	}
	return nil
}

func parseSegment(s string) (Segment, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Segment{}, fmt.Errorf("segment %q: want col,row,type", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q: bad column: %w", s, err)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q: bad row: %w", s, err)
	}
	typ := strings.TrimSpace(parts[2])
	if !segmentTypes[typ] {
		return Segment{}, fmt.Errorf("segment %q: unknown type %q", s, typ)
	}
	return Segment{Col: col, Row: row, Type: typ}, nil
}

// ResolveGlyph scales glyph i onto the given surface and returns its
// strokes in surface pixel coordinates.
func (p *Project) ResolveGlyph(i int, s wall.Surface) []wall.Stroke {
	if i < 0 || i >= len(p.Glyphs) {
		return nil
	}
	var strokes []wall.Stroke
	for _, raw := range p.Glyphs[i].Segments {
		seg, err := parseSegment(raw)
		if err != nil {
			continue // Validate rejected these at load time
		}
		strokes = append(strokes, p.segmentStroke(seg, s))
	}
	return strokes
}

// Backbone returns the union of every glyph's segments: the skeleton the
// renderer draws faintly behind the active glyph.
func (p *Project) Backbone(s wall.Surface) []wall.Stroke {
	seen := map[string]bool{}
	var strokes []wall.Stroke
	for _, g := range p.Glyphs {
		for _, raw := range g.Segments {
			if seen[raw] {
				continue
			}
			seen[raw] = true
			seg, err := parseSegment(raw)
			if err != nil {
				continue
			}
			strokes = append(strokes, p.segmentStroke(seg, s))
		}
	}
	return strokes
}

func (p *Project) segmentStroke(seg Segment, s wall.Surface) wall.Stroke {
	cw := float32(s.Width()) / float32(p.GridX)
	ch := float32(s.Height()) / float32(p.GridY)
	x0 := float32(seg.Col) * cw
	y0 := float32(seg.Row) * ch

	switch seg.Type {
	case "h":
		return wall.Stroke{Points: []wall.Point{
			{X: x0, Y: y0 + ch/2},
			{X: x0 + cw, Y: y0 + ch/2},
		}}
	case "v":
		return wall.Stroke{Points: []wall.Point{
			{X: x0 + cw/2, Y: y0},
			{X: x0 + cw/2, Y: y0 + ch},
		}}
	}

	// Quarter arcs run between the midpoints of two adjacent cell edges,
	// centered on the shared corner.
	var cx, cy float32
	var start float64
	switch seg.Type {
	case "ne":
		cx, cy, start = x0+cw, y0, math.Pi / 2
	case "nw":
		cx, cy, start = x0, y0, 0
	case "se":
		cx, cy, start = x0+cw, y0+ch, math.Pi
	case "sw":
		cx, cy, start = x0, y0+ch, 3 * math.Pi / 2
	}
	return arcStroke(cx, cy, cw/2, ch/2, start, start+math.Pi/2, p.arcResolution())
}

func (p *Project) arcResolution() int {
	if p.ArcResolution > 0 {
		return p.ArcResolution
	}
	return wall.ArcResolution
}

func arcStroke(cx, cy, rx, ry float32, a0, a1 float64, res int) wall.Stroke {
	pts := make([]wall.Point, 0, res+1)
	for i := 0; i <= res; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(res)
		pts = append(pts, wall.Point{
			X: cx + rx*float32(math.Cos(a)),
			Y: cy + ry*float32(math.Sin(a)),
		})
	}
	return wall.Stroke{Points: pts}
}
