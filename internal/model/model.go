package model

import (
	"math"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.New().String()[:8]
}

// Part represents a rectangular foam piece to be cut.
type Part struct {
	ID         string  `json:"id"`
	Label      string  `json:"label,omitempty"`
	Length     float64 `json:"length"`   // mm, vertical (row) axis
	Width      float64 `json:"width"`    // mm, horizontal axis
	Height     float64 `json:"height"`   // mm, material thickness; not used for placement
	Quantity   int     `json:"quantity"` // number of identical pieces
	FoamTypeID string  `json:"foam_type_id,omitempty"`
}

func NewPart(label string, length, width, height float64, qty int) Part {
	return Part{
		ID:       newID(),
		Label:    label,
		Length:   length,
		Width:    width,
		Height:   height,
		Quantity: qty,
	}
}

// Area returns the footprint area of a single piece.
func (p Part) Area() float64 {
	return p.Length * p.Width
}

// Volume returns the volume of a single piece in mm³.
func (p Part) Volume() float64 {
	return p.Length * p.Width * p.Height
}

// Sheet describes the stock every sheet in a nesting run is cut from.
type Sheet struct {
	Length float64 `json:"length"` // mm
	Width  float64 `json:"width"`  // mm
	Kerf   float64 `json:"kerf"`   // blade width added between parts
	Margin float64 `json:"margin"` // unusable border on all four edges
}

// UsableWidth returns the width inside the margins.
func (s Sheet) UsableWidth() float64 {
	return s.Width - 2*s.Margin
}

// UsableLength returns the length inside the margins.
func (s Sheet) UsableLength() float64 {
	return s.Length - 2*s.Margin
}

// UsableArea returns the area inside the margins.
func (s Sheet) UsableArea() float64 {
	return s.UsableWidth() * s.UsableLength()
}

// PlacedPart is a single unit of a Part positioned on a sheet.
type PlacedPart struct {
	Part
	X          float64 `json:"x"`           // top-left corner, mm from left edge
	Y          float64 `json:"y"`           // top-left corner, mm from top edge
	SheetIndex int     `json:"sheet_index"` // 0-based
	Oversized  bool    `json:"oversized,omitempty"`
}

// NestResult is the output of the rectangle packer.
type NestResult struct {
	Placements  []PlacedPart `json:"placements"`
	SheetsUsed  int          `json:"sheets_used"`
	Utilization float64      `json:"utilization"` // 0..1
	Feasible    bool         `json:"feasible"`    // false when a part exceeded the sheet
}

// UsedArea returns the total un-kerfed area of all placements.
func (r NestResult) UsedArea() float64 {
	var total float64
	for _, p := range r.Placements {
		total += p.Area()
	}
	return total
}

// SheetPlacements returns the placements assigned to the given sheet.
func (r NestResult) SheetPlacements(sheetIndex int) []PlacedPart {
	var out []PlacedPart
	for _, p := range r.Placements {
		if p.SheetIndex == sheetIndex {
			out = append(out, p)
		}
	}
	return out
}

// PolygonPart is the polygon counterpart of Part.
type PolygonPart struct {
	ID         string  `json:"id"`
	Label      string  `json:"label,omitempty"`
	Polygon    Polygon `json:"polygon"`
	Quantity   int     `json:"quantity"`
	Height     float64 `json:"height"`
	FoamTypeID string  `json:"foam_type_id,omitempty"`
}

func NewPolygonPart(label string, polygon Polygon, height float64, qty int) PolygonPart {
	return PolygonPart{
		ID:       newID(),
		Label:    label,
		Polygon:  polygon,
		Quantity: qty,
		Height:   height,
	}
}

// BoundingPart returns the rectangular Part enclosing this polygon part.
func (p PolygonPart) BoundingPart() Part {
	b := p.Polygon.BBox()
	return Part{
		ID:         p.ID,
		Label:      p.Label,
		Length:     b.Height,
		Width:      b.Width,
		Height:     p.Height,
		Quantity:   p.Quantity,
		FoamTypeID: p.FoamTypeID,
	}
}

// PlacedPolygonPart is a single polygon unit positioned on a sheet. Polygon
// holds the final rotated and translated outline in sheet coordinates.
type PlacedPolygonPart struct {
	PolygonPart
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Rotation   int     `json:"rotation"` // degrees: 0, 90, 180 or 270
	SheetIndex int     `json:"sheet_index"`
	Forced     bool    `json:"forced,omitempty"` // placed on a fresh sheet it does not fit
}

// PolygonNestResult is the output of the polygon packer.
type PolygonNestResult struct {
	Placements  []PlacedPolygonPart `json:"placements"`
	SheetsUsed  int                 `json:"sheets_used"`
	Utilization float64             `json:"utilization"`
	TotalArea   float64             `json:"total_area"` // usable area of sheets that received parts
	UsedArea    float64             `json:"used_area"`  // sum of polygon areas
	Feasible    bool                `json:"feasible"`
}

// DrawingPath is a raw point sequence extracted from a drawing for display.
type DrawingPath struct {
	Layer  string    `json:"layer,omitempty"`
	Points []Point2D `json:"points"`
	Closed bool      `json:"closed"`
}

// ExpandQuantity returns the total number of unit pieces in parts.
func ExpandQuantity(parts []Part) int {
	n := 0
	for _, p := range parts {
		if p.Quantity > 0 {
			n += p.Quantity
		}
	}
	return n
}

// RoundMM rounds a dimension to the nearest millimetre.
func RoundMM(v float64) float64 {
	return math.Round(v)
}
