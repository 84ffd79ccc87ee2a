package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON accepts either an object {"x":..,"y":..} or a pair [x, y].
func (p *Point2D) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) < 2 {
			return fmt.Errorf("point needs 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Shift returns the box moved by dx, dy.
func (b BBox) Shift(dx, dy float64) BBox {
	return BBox{
		MinX: b.MinX + dx, MinY: b.MinY + dy,
		MaxX: b.MaxX + dx, MaxY: b.MaxY + dy,
		Width: b.Width, Height: b.Height,
	}
}

// Polygon represents a closed outline as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Polygon []Point2D

// RectPolygon returns the outline of a w x h rectangle anchored at the origin.
func RectPolygon(w, h float64) Polygon {
	return Polygon{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// Area computes the absolute enclosed area using the shoelace formula.
// Self-intersecting outlines are not detected.
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(sum) / 2
}

// Valid reports whether the polygon has at least 3 points and positive area.
func (p Polygon) Valid() bool {
	return len(p) >= 3 && p.Area() > 0
}

// BBox returns the bounding box. An empty polygon yields the zero box.
func (p Polygon) BBox() BBox {
	if len(p) == 0 {
		return BBox{}
	}
	b := BBox{MinX: p[0].X, MinY: p[0].Y, MaxX: p[0].X, MaxY: p[0].Y}
	for _, pt := range p[1:] {
		b.MinX = math.Min(b.MinX, pt.X)
		b.MinY = math.Min(b.MinY, pt.Y)
		b.MaxX = math.Max(b.MaxX, pt.X)
		b.MaxY = math.Max(b.MaxY, pt.Y)
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	return b
}

// Translate shifts all points by dx, dy.
func (p Polygon) Translate(dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point2D{X: pt.X + dx, Y: pt.Y + dy}
	}
	return out
}

// Normalize translates the polygon so its bounding box starts at (0, 0).
func (p Polygon) Normalize() Polygon {
	if len(p) == 0 {
		return Polygon{}
	}
	b := p.BBox()
	return p.Translate(-b.MinX, -b.MinY)
}

// Rotate turns the polygon by angleDeg degrees counter-clockwise around (cx, cy).
func (p Polygon) Rotate(angleDeg, cx, cy float64) Polygon {
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out := make(Polygon, len(p))
	for i, pt := range p {
		dx, dy := pt.X-cx, pt.Y-cy
		out[i] = Point2D{
			X: cx + dx*cos - dy*sin,
			Y: cy + dx*sin + dy*cos,
		}
	}
	return out
}

// RotateOrigin rotates around (0, 0).
func (p Polygon) RotateOrigin(angleDeg float64) Polygon {
	return p.Rotate(angleDeg, 0, 0)
}

// Clone returns an independent copy.
func (p Polygon) Clone() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}
