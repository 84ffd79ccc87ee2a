// Package gcode turns nesting layouts into per-sheet G-code and parses
// generated code back into moves for verification.
package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
)

// Generator produces G-code that cuts every placed outline of a layout.
type Generator struct {
	Settings model.NestSettings
	profile  model.GCodeProfile
}

func New(settings model.NestSettings) *Generator {
	return NewWithProfile(settings, model.GetProfile(settings.GCodeProfile))
}

// NewWithProfile uses the given controller profile instead of looking up
// settings.GCodeProfile among the built-ins.
func NewWithProfile(settings model.NestSettings, profile model.GCodeProfile) *Generator {
	return &Generator{Settings: settings, profile: profile}
}

// Profile returns the controller profile in use.
func (g *Generator) Profile() model.GCodeProfile {
	return g.profile
}

// GenerateSheet produces G-code for a single sheet of the layout.
func (g *Generator) GenerateSheet(layout model.Layout, sl model.SheetLayout) string {
	var b strings.Builder

	g.writeHeader(&b, layout, sl)
	toolR := layout.Sheet.Kerf / 2
	for i, sh := range sl.Shapes {
		g.writeShape(&b, sh, i+1, toolR)
	}
	g.writeFooter(&b)

	return b.String()
}

// GenerateAll produces one G-code program per sheet, in sheet order.
func (g *Generator) GenerateAll(layout model.Layout) []string {
	codes := make([]string, 0, len(layout.Sheets))
	for _, sl := range layout.Sheets {
		codes = append(codes, g.GenerateSheet(layout, sl))
	}
	return codes
}

// passes returns the number of depth passes and the depth of each.
func (g *Generator) passes() []float64 {
	total := g.Settings.CutDepth
	if total <= 0 {
		return []float64{0}
	}
	step := g.Settings.PassDepth
	if step <= 0 || step > total {
		step = total
	}
	n := int(math.Ceil(total/step - 1e-9))
	depths := make([]float64, n)
	for i := range depths {
		depths[i] = math.Min(float64(i+1)*step, total)
	}
	return depths
}

func (g *Generator) writeHeader(b *strings.Builder, layout model.Layout, sl model.SheetLayout) {
	p := g.profile
	s := g.Settings
	sheetArea := layout.Sheet.Width * layout.Sheet.Length

	b.WriteString(g.comment(fmt.Sprintf("FoamNest G-code, sheet %d of %d", sl.Index+1, len(layout.Sheets))))
	b.WriteString(g.comment(fmt.Sprintf("Sheet: %.1f x %.1f mm, kerf %.1f mm", layout.Sheet.Width, layout.Sheet.Length, layout.Sheet.Kerf)))
	if sheetArea > 0 {
		b.WriteString(g.comment(fmt.Sprintf("Parts: %d, utilization %.1f%%", len(sl.Shapes), 100*sl.UsedArea()/sheetArea)))
	}
	b.WriteString(g.comment(fmt.Sprintf("Feed: %.0f mm/min, plunge: %.0f mm/min", s.FeedRate, s.PlungeRate)))
	b.WriteString(g.comment(fmt.Sprintf("Depth: %.1f mm in %d passes", s.CutDepth, len(g.passes()))))
	b.WriteString(g.comment("Profile: " + p.Name))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}

	// Hot-wire and knife cutters run without a spindle
	if p.SpindleStart != "" && s.SpindleSpeed > 0 {
		b.WriteString(fmt.Sprintf(p.SpindleStart+"\n", s.SpindleSpeed))
	}

	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(s.SafeZ)))
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(0), g.format(0)))
	b.WriteString("\n")
}

func (g *Generator) writeFooter(b *strings.Builder) {
	p := g.profile

	b.WriteString("\n")
	b.WriteString(g.comment("Job complete"))

	if p.SpindleStop != "" && g.Settings.SpindleSpeed > 0 {
		b.WriteString(p.SpindleStop + "\n")
	}
	for _, code := range p.EndCode {
		b.WriteString(strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ)) + "\n")
	}
}

// writeShape cuts around the shape outline, offset outward by the tool
// radius, once per depth pass.
func (g *Generator) writeShape(b *strings.Builder, sh model.Shape, n int, toolR float64) {
	bb := sh.Outline.BBox()
	title := fmt.Sprintf("Part %d: %s (%.1f x %.1f)", n, sh.Label, bb.Width, bb.Height)
	if sh.Rotation != 0 {
		title += fmt.Sprintf(" rotated %d", sh.Rotation)
	}
	if sh.Flagged {
		title += " [does not fit sheet]"
	}
	b.WriteString(g.comment(title))

	if len(sh.Outline) < 3 {
		b.WriteString(g.comment("WARNING: outline has fewer than 3 points, skipping"))
		return
	}
	path := OffsetOutline(sh.Outline, toolR)

	p := g.profile
	depths := g.passes()
	for i, depth := range depths {
		b.WriteString(g.comment(fmt.Sprintf("Pass %d/%d, depth=%.2fmm", i+1, len(depths), depth)))

		b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(path[0].X), g.format(path[0].Y)))
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-depth), g.format(g.Settings.PlungeRate)))

		for _, pt := range path[1:] {
			b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove,
				g.format(pt.X), g.format(pt.Y), g.format(g.Settings.FeedRate)))
		}
		b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove,
			g.format(path[0].X), g.format(path[0].Y), g.format(g.Settings.FeedRate)))

		b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	}
	b.WriteString("\n")
}

// OffsetOutline moves every vertex outward by dist along the averaged
// normal of its two edges. Winding direction is detected, so the result
// grows the outline for both clockwise and counter-clockwise input.
func OffsetOutline(outline model.Polygon, dist float64) model.Polygon {
	n := len(outline)
	if n < 3 || dist == 0 {
		return outline.Clone()
	}

	// Left normals point outward on clockwise outlines
	sign := 1.0
	if signedArea(outline) > 0 {
		sign = -1
	}

	result := make(model.Polygon, n)
	for i := 0; i < n; i++ {
		prev := outline[(i-1+n)%n]
		curr := outline[i]
		next := outline[(i+1)%n]

		n1x, n1y := normalize(-(curr.Y - prev.Y), curr.X-prev.X)
		n2x, n2y := normalize(-(next.Y - curr.Y), next.X-curr.X)

		nx, ny := normalize(n1x+n2x, n1y+n2y)
		// Scale so both adjacent edges move by dist
		scale := 1.0
		if cos := nx*n1x + ny*n1y; cos > 0.1 {
			scale = 1 / cos
		}

		result[i] = model.Point2D{
			X: curr.X + sign*nx*dist*scale,
			Y: curr.Y + sign*ny*dist*scale,
		}
	}
	return result
}

func signedArea(p model.Polygon) float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// comment wraps text in the profile's comment syntax.
func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	if v == 0 {
		v = 0 // no "-0.000"
	}
	return strconv.FormatFloat(v, 'f', g.profile.DecimalPlaces, 64)
}

// normalize returns a unit vector in the given direction.
func normalize(x, y float64) (float64, float64) {
	length := math.Sqrt(x*x + y*y)
	if length < 1e-9 {
		return 0, 0
	}
	return x / length, y / length
}
