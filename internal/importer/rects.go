package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
)

var (
	lwPolylineStart = regexp.MustCompile(`(?m)^[ \t]*0[ \t]*\r?\n[ \t]*LWPOLYLINE[ \t]*\r?$`)
	entityStart     = regexp.MustCompile(`(?m)^[ \t]*0[ \t]*\r?\n[ \t]*[A-Z_]+[ \t]*\r?$`)
)

// ParseDXFRectangles is the quick DXF reader: every closed LWPOLYLINE with at
// least four vertices becomes the Part of its bounding box. Other entities
// are ignored. Parts whose dimensions agree to the nearest millimetre are
// merged into one line with the summed quantity.
func ParseDXFRectangles(content string, defaultHeight float64) []model.Part {
	var parts []model.Part
	index := make(map[[2]float64]int)

	for _, section := range strings.Split(content, "ENDSEC") {
		if !strings.Contains(section, "LWPOLYLINE") {
			continue
		}
		for _, body := range lwPolylineBodies(section) {
			pts, closed := polylineFromGroups(body)
			if !closed || len(pts) < 4 {
				continue
			}
			b := pts.BBox()
			if b.Width <= 0 || b.Height <= 0 {
				continue
			}
			key := [2]float64{model.RoundMM(b.Height), model.RoundMM(b.Width)}
			if i, ok := index[key]; ok {
				parts[i].Quantity++
				continue
			}
			index[key] = len(parts)
			label := fmt.Sprintf("Rect %gx%g", key[1], key[0])
			parts = append(parts, model.NewPart(label, b.Height, b.Width, defaultHeight, 1))
		}
	}
	return parts
}

// lwPolylineBodies returns the text of each LWPOLYLINE entity in a section,
// up to the start of the following entity.
func lwPolylineBodies(section string) []string {
	var bodies []string
	for _, loc := range lwPolylineStart.FindAllStringIndex(section, -1) {
		rest := section[loc[1]:]
		if next := entityStart.FindStringIndex(rest); next != nil {
			rest = rest[:next[0]]
		}
		bodies = append(bodies, rest)
	}
	return bodies
}

// polylineFromGroups walks the entity body two lines at a time, so a value
// line is never read as a group code. The walk stops at the first line that
// is not a group code or has no value.
func polylineFromGroups(body string) (model.Polygon, bool) {
	lines := strings.Split(strings.ReplaceAll(strings.TrimLeft(body, "\r\n"), "\r\n", "\n"), "\n")
	var pts model.Polygon
	closed := false
	for i := 0; i+1 < len(lines); i += 2 {
		code, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			break
		}
		g := groupPair{code: code, value: strings.TrimSpace(lines[i+1])}
		switch g.code {
		case 70:
			closed = g.asInt()&1 == 1
		case 10:
			pts = append(pts, model.Point2D{X: g.asFloat()})
		case 20:
			if n := len(pts); n > 0 {
				pts[n-1].Y = g.asFloat()
			}
		}
	}
	return pts, closed
}
