package gcode

import (
	"math"
	"strings"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSettings returns settings with predictable output.
func newTestSettings() model.NestSettings {
	s := model.DefaultSettings()
	s.FeedRate = 1000
	s.PlungeRate = 300
	s.SpindleSpeed = 12000
	s.SafeZ = 5
	s.CutDepth = 6
	s.PassDepth = 6
	s.GCodeProfile = "Generic"
	return s
}

func newTestLayout() model.Layout {
	return model.Layout{
		Sheet: model.Sheet{Length: 300, Width: 500, Kerf: 4, Margin: 10},
		Sheets: []model.SheetLayout{
			{Index: 0, Shapes: []model.Shape{
				{Label: "Block", Outline: model.RectPolygon(100, 50).Translate(10, 10)},
			}},
			{Index: 1, Shapes: []model.Shape{
				{Label: "Wedge", Outline: model.Polygon{{X: 10, Y: 10}, {X: 110, Y: 10}, {X: 10, Y: 110}}, Rotation: 90},
			}},
		},
	}
}

func TestGenerateSheet_Structure(t *testing.T) {
	g := New(newTestSettings())
	layout := newTestLayout()
	code := g.GenerateSheet(layout, layout.Sheets[0])

	for _, want := range []string{"G90", "G21", "M3 S12000", "M5", "M2", "Part 1: Block", "sheet 1 of 2"} {
		assert.Contains(t, code, want)
	}
	assert.Less(t, strings.Index(code, "M5"), strings.Index(code, "M2"), "spindle stops before program end")

	moves := ParseGCode(code)
	var plunges, feeds int
	for _, m := range moves {
		switch m.Type {
		case MovePlunge:
			plunges++
			assert.Equal(t, -6.0, m.ToZ)
			assert.Equal(t, 300.0, m.FeedRate)
		case MoveFeed:
			feeds++
			assert.Equal(t, 1000.0, m.FeedRate)
		}
	}
	assert.Equal(t, 1, plunges)
	assert.Equal(t, 4, feeds, "rectangle perimeter including closing move")
}

func TestGenerateSheet_ToolOffset(t *testing.T) {
	g := New(newTestSettings())
	layout := newTestLayout()
	moves := ParseGCode(g.GenerateSheet(layout, layout.Sheets[0]))

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range moves {
		if m.Type != MoveFeed {
			continue
		}
		minX, maxX = math.Min(minX, m.ToX), math.Max(maxX, m.ToX)
		minY, maxY = math.Min(minY, m.ToY), math.Max(maxY, m.ToY)
	}
	// Kerf 4 puts the tool centre 2 mm outside the outline
	assert.InDelta(t, 8, minX, 1e-3)
	assert.InDelta(t, 112, maxX, 1e-3)
	assert.InDelta(t, 8, minY, 1e-3)
	assert.InDelta(t, 62, maxY, 1e-3)
}

func TestGenerateSheet_MultiPass(t *testing.T) {
	s := newTestSettings()
	s.CutDepth = 50
	s.PassDepth = 20
	g := New(s)
	layout := newTestLayout()
	code := g.GenerateSheet(layout, layout.Sheets[1])

	var depths []float64
	for _, m := range ParseGCode(code) {
		if m.Type == MovePlunge {
			depths = append(depths, m.ToZ)
		}
	}
	assert.Equal(t, []float64{-20, -40, -50}, depths)
	assert.Contains(t, code, "Pass 3/3")
	assert.Contains(t, code, "rotated 90")
}

func TestGenerateSheet_NoSpindle(t *testing.T) {
	s := newTestSettings()
	s.SpindleSpeed = 0
	layout := newTestLayout()
	code := New(s).GenerateSheet(layout, layout.Sheets[0])

	assert.NotContains(t, code, "M3")
	assert.NotContains(t, code, "M5")
}

func TestGenerateAll(t *testing.T) {
	codes := New(newTestSettings()).GenerateAll(newTestLayout())
	require.Len(t, codes, 2)
	assert.Contains(t, codes[1], "Wedge")
	assert.NotContains(t, codes[1], "Block")
}

func TestGenerate_Profiles(t *testing.T) {
	layout := newTestLayout()
	for _, name := range model.GetProfileNames() {
		t.Run(name, func(t *testing.T) {
			s := newTestSettings()
			s.GCodeProfile = name
			g := New(s)
			code := g.GenerateSheet(layout, layout.Sheets[0])

			p := g.Profile()
			assert.Equal(t, name, p.Name)
			assert.True(t, strings.HasPrefix(code, p.CommentPrefix))
			assert.NotContains(t, code, "[SafeZ]")

			plunges := 0
			for _, m := range ParseGCode(code) {
				if m.Type == MovePlunge {
					plunges++
				}
			}
			assert.Equal(t, 1, plunges)
		})
	}
}

func TestGenerate_GeneratedCodeStaysOnSheet(t *testing.T) {
	layout := newTestLayout()
	g := New(newTestSettings())
	for _, sl := range layout.Sheets {
		moves := ParseGCode(g.GenerateSheet(layout, sl))
		assert.Empty(t, CheckBounds(moves, layout.Sheet))
	}
}

func TestPasses(t *testing.T) {
	tests := []struct {
		cut, pass float64
		want      []float64
	}{
		{6, 6, []float64{6}},
		{10, 3, []float64{3, 6, 9, 10}},
		{10, 0, []float64{10}},
		{4, 10, []float64{4}},
		{0, 5, []float64{0}},
	}
	for _, tt := range tests {
		s := newTestSettings()
		s.CutDepth, s.PassDepth = tt.cut, tt.pass
		if got := New(s).passes(); !assert.Equal(t, tt.want, got) {
			t.Logf("cut=%v pass=%v", tt.cut, tt.pass)
		}
	}
}

func TestOffsetOutline_Winding(t *testing.T) {
	ccw := model.RectPolygon(10, 10)
	cw := model.Polygon{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}

	for _, poly := range []model.Polygon{ccw, cw} {
		out := OffsetOutline(poly, 1)
		b := out.BBox()
		assert.InDelta(t, -1, b.MinX, 1e-9)
		assert.InDelta(t, 11, b.MaxX, 1e-9)
		assert.InDelta(t, 144, out.Area(), 1e-9)
	}

	same := OffsetOutline(ccw, 0)
	assert.Equal(t, ccw, same)
	same[0].X = 99
	assert.Equal(t, 0.0, ccw[0].X, "zero offset returns a copy")
}

func TestFormat(t *testing.T) {
	g := New(newTestSettings())
	assert.Equal(t, "1.500", g.format(1.5))
	assert.Equal(t, "0.000", g.format(math.Copysign(0, -1)))

	s := newTestSettings()
	s.GCodeProfile = "Mach3"
	assert.Equal(t, "1.5000", New(s).format(1.5))
}

func TestNewWithProfile(t *testing.T) {
	custom := []model.GCodeProfile{{
		Name: "HotWire", RapidMove: "G0", FeedMove: "G1",
		StartCode: []string{"G90", "G21", "M64 P0"}, EndCode: []string{"M65 P0", "M2"},
		CommentPrefix: ";", DecimalPlaces: 1,
	}}
	s := newTestSettings()
	s.GCodeProfile = "HotWire"
	s.SpindleSpeed = 0

	layout := newTestLayout()
	g := NewWithProfile(s, model.ResolveProfile(s.GCodeProfile, custom))
	code := g.GenerateSheet(layout, layout.Sheets[0])

	assert.Contains(t, code, "M64 P0")
	assert.Contains(t, code, "G0 X8.0 Y8.0")
	assert.Contains(t, code, "Profile: HotWire")
}
