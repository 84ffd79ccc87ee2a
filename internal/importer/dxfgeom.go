package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/FoamNest/internal/model"
)

// maxInsertDepth bounds nested block references.
const maxInsertDepth = 8

// segment is a straight piece of an open entity, chained later into
// closed outlines.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// affine is a 2D transform: (x, y) -> (a*x + b*y + e, c*x + d*y + f).
type affine struct {
	a, b, c, d, e, f float64
}

var identity = affine{a: 1, d: 1}

func (t affine) apply(p model.Point2D) model.Point2D {
	return model.Point2D{
		X: t.a*p.X + t.b*p.Y + t.e,
		Y: t.c*p.X + t.d*p.Y + t.f,
	}
}

func (t affine) applyAll(pts []model.Point2D) []model.Point2D {
	out := make([]model.Point2D, len(pts))
	for i, p := range pts {
		out[i] = t.apply(p)
	}
	return out
}

// then returns the transform that applies inner first, then t.
func (t affine) then(inner affine) affine {
	return affine{
		a: t.a*inner.a + t.b*inner.c,
		b: t.a*inner.b + t.b*inner.d,
		c: t.c*inner.a + t.d*inner.c,
		d: t.c*inner.b + t.d*inner.d,
		e: t.a*inner.e + t.b*inner.f + t.e,
		f: t.c*inner.e + t.d*inner.f + t.f,
	}
}

// insertTransform maps block coordinates into the coordinates of the
// entity list containing the INSERT.
func insertTransform(ins *Insert, base model.Point2D) affine {
	rad := ins.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	sx, sy := ins.ScaleX, ins.ScaleY
	t := affine{
		a: cos * sx, b: -sin * sy,
		c: sin * sx, d: cos * sy,
	}
	// Block base point lands on the insertion point
	origin := t.apply(base)
	t.e = ins.Position.X - origin.X
	t.f = ins.Position.Y - origin.Y
	return t
}

// flattener turns a Document into drawing paths.
type flattener struct {
	settings model.NestSettings
	doc      *Document
	paths    []model.DrawingPath
	segments []segment
	warnings []string
}

func flattenDocument(doc *Document, settings model.NestSettings) ([]model.DrawingPath, []string) {
	fl := &flattener{settings: settings, doc: doc}
	fl.walk(doc.Entities, identity, 0)

	closed, open := chainSegments(fl.segments, settings.ChainTolerance)
	for _, o := range closed {
		fl.paths = append(fl.paths, model.DrawingPath{Points: o, Closed: true})
	}
	for _, o := range open {
		fl.paths = append(fl.paths, model.DrawingPath{Points: o})
	}

	kinds := make([]string, 0, len(doc.Skipped))
	for k := range doc.Skipped {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fl.warnings = append(fl.warnings, fmt.Sprintf("Skipped %d unsupported %s entities", doc.Skipped[k], k))
	}
	return fl.paths, fl.warnings
}

func (fl *flattener) addClosed(layer string, pts []model.Point2D) {
	fl.paths = append(fl.paths, model.DrawingPath{Layer: layer, Points: pts, Closed: true})
}

// addOpen queues an open point run for chaining, unless it already closes
// on itself.
func (fl *flattener) addOpen(layer string, pts []model.Point2D) {
	if len(pts) < 2 {
		return
	}
	if len(pts) >= 4 && pointsClose(pts[0], pts[len(pts)-1], fl.settings.ChainTolerance) {
		fl.addClosed(layer, pts[:len(pts)-1])
		return
	}
	fl.segments = append(fl.segments, pointsToSegments(pts)...)
}

func (fl *flattener) walk(entities []Entity, xf affine, depth int) {
	s := fl.settings
	for _, ent := range entities {
		layer := ent.EntityLayer()
		switch e := ent.(type) {
		case *Line:
			fl.segments = append(fl.segments, segment{start: xf.apply(e.Start), end: xf.apply(e.End)})

		case *LwPolyline:
			pts := xf.applyAll(polylinePoints(e, s.ArcSegments))
			if e.Closed {
				if len(pts) >= 3 {
					fl.addClosed(layer, pts)
				} else {
					fl.warnings = append(fl.warnings, "Skipped closed polyline with fewer than 3 vertices")
				}
			} else {
				fl.addOpen(layer, pts)
			}

		case *Circle:
			if e.Radius > 0 {
				fl.addClosed(layer, xf.applyAll(circlePoints(e, s.CircleSegments)))
			}

		case *Arc:
			fl.addOpen(layer, xf.applyAll(arcPoints(e, s.ArcSegments)))

		case *Ellipse:
			pts, full := ellipsePoints(e, s.CircleSegments, s.ArcSegments)
			if full {
				fl.addClosed(layer, xf.applyAll(pts))
			} else {
				fl.addOpen(layer, xf.applyAll(pts))
			}

		case *Spline:
			pts := xf.applyAll(splinePoints(e, s.SplineSegments))
			if e.Closed && len(pts) >= 3 {
				if pointsClose(pts[0], pts[len(pts)-1], s.ChainTolerance) {
					pts = pts[:len(pts)-1]
				}
				fl.addClosed(layer, pts)
			} else {
				fl.addOpen(layer, pts)
			}

		case *Insert:
			block, ok := fl.doc.Blocks[e.Block]
			if !ok {
				fl.warnings = append(fl.warnings, fmt.Sprintf("INSERT references unknown block %q", e.Block))
				continue
			}
			if depth >= maxInsertDepth {
				fl.warnings = append(fl.warnings, fmt.Sprintf("Block %q nested deeper than %d levels, skipped", e.Block, maxInsertDepth))
				continue
			}
			fl.walk(block.Entities, xf.then(insertTransform(e, block.Base)), depth+1)
		}
	}
}

// polylinePoints expands a polyline, interpolating bulged segments.
func polylinePoints(lw *LwPolyline, arcSegments int) []model.Point2D {
	var pts []model.Point2D
	n := len(lw.Vertices)
	for i := 0; i < n; i++ {
		current := lw.Vertices[i]

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		last := i == n-1
		if math.Abs(bulge) > 1e-9 && (!last || lw.Closed) {
			next := lw.Vertices[(i+1)%n]
			arcPts := bulgeArcPoints(current, next, bulge, arcSegments)
			// The next vertex is added by its own iteration
			pts = append(pts, arcPts[:len(arcPts)-1]...)
		} else {
			pts = append(pts, current)
		}
	}
	return pts
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 model.Point2D, bulge float64, numSegments int) []model.Point2D {
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chordLen := math.Hypot(dx, dy)
	if chordLen < 1e-9 {
		return []model.Point2D{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge < 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]model.Point2D, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, model.Point2D{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

// circlePoints approximates a circle as a regular polygon.
func circlePoints(c *Circle, numSegments int) []model.Point2D {
	pts := make([]model.Point2D, numSegments)
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		pts[i] = model.Point2D{
			X: c.Center.X + c.Radius*math.Cos(angle),
			Y: c.Center.Y + c.Radius*math.Sin(angle),
		}
	}
	return pts
}

// arcPoints samples an ARC from its start to its end angle.
func arcPoints(a *Arc, numSegments int) []model.Point2D {
	startRad := a.StartAngle * math.Pi / 180
	endRad := a.EndAngle * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]model.Point2D, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = model.Point2D{
			X: a.Center.X + a.Radius*math.Cos(angle),
			Y: a.Center.Y + a.Radius*math.Sin(angle),
		}
	}
	return pts
}

// ellipsePoints samples an ELLIPSE. full reports a complete ellipse, which
// uses fullSegments and omits the repeated end point.
func ellipsePoints(e *Ellipse, fullSegments, arcSegments int) (pts []model.Point2D, full bool) {
	major := math.Hypot(e.MajorAxis.X, e.MajorAxis.Y)
	if major == 0 {
		return nil, false
	}
	minor := major * e.Ratio
	rot := math.Atan2(e.MajorAxis.Y, e.MajorAxis.X)
	cos, sin := math.Cos(rot), math.Sin(rot)

	start, end := e.StartParam, e.EndParam
	if end <= start {
		end += 2 * math.Pi
	}
	full = math.Abs(end-start-2*math.Pi) < 1e-6

	n := arcSegments
	count := n + 1
	if full {
		n = fullSegments
		count = n
	}
	pts = make([]model.Point2D, count)
	for i := 0; i < count; i++ {
		t := start + (end-start)*float64(i)/float64(n)
		x := major * math.Cos(t)
		y := minor * math.Sin(t)
		pts[i] = model.Point2D{
			X: e.Center.X + x*cos - y*sin,
			Y: e.Center.Y + x*sin + y*cos,
		}
	}
	return pts, full
}

// splinePoints evaluates a B-spline with de Boor's algorithm when the knot
// vector is consistent, and falls back to the control polygon (or the fit
// points when there are no control points).
func splinePoints(s *Spline, numSegments int) []model.Point2D {
	p := s.Degree
	n := len(s.Control)
	if p < 1 || n <= p || len(s.Knots) != n+p+1 {
		if n >= 2 {
			return append([]model.Point2D(nil), s.Control...)
		}
		return append([]model.Point2D(nil), s.FitPoints...)
	}

	t0, t1 := s.Knots[p], s.Knots[n]
	if t1 <= t0 {
		return append([]model.Point2D(nil), s.Control...)
	}
	pts := make([]model.Point2D, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(numSegments)
		pts[i] = deBoor(t, p, s.Knots, s.Control)
	}
	return pts
}

func deBoor(t float64, p int, knots []float64, ctrl []model.Point2D) model.Point2D {
	n := len(ctrl)
	k := p
	for k < n-1 && t >= knots[k+1] {
		k++
	}

	d := make([]model.Point2D, p+1)
	for j := 0; j <= p; j++ {
		d[j] = ctrl[j+k-p]
	}
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			lo := knots[j+k-p]
			hi := knots[j+1+k-r]
			alpha := 0.0
			if hi > lo {
				alpha = (t - lo) / (hi - lo)
			}
			d[j] = model.Point2D{
				X: (1-alpha)*d[j-1].X + alpha*d[j].X,
				Y: (1-alpha)*d[j-1].Y + alpha*d[j].Y,
			}
		}
	}
	return d[p]
}

func pointsToSegments(pts []model.Point2D) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects loose segments end to end. Chains that return to
// their start within tolerance are closed outlines; the rest are open.
func chainSegments(segs []segment, tolerance float64) (closed, open [][]model.Point2D) {
	if len(segs) == 0 {
		return nil, nil
	}

	used := make([]bool, len(segs))
	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		chain := []model.Point2D{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			closed = append(closed, chain[:len(chain)-1])
		} else {
			open = append(open, chain)
		}
	}

	// Largest first for a stable part numbering
	sort.SliceStable(closed, func(i, j int) bool {
		return model.Polygon(closed[i]).Area() > model.Polygon(closed[j]).Area()
	})
	return closed, open
}

func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
