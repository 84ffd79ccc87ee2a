package model

import (
	"fmt"
	"sort"
)

// OrderLine is one production-order line derived from a nesting result:
// identical pieces of the same foam grouped together.
type OrderLine struct {
	FoamTypeID   string  `json:"foam_type_id,omitempty"`
	Label        string  `json:"label"`
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Quantity     int     `json:"quantity"`
	SheetIndexes []int   `json:"sheet_indexes"`
}

// Volume returns the total foam volume of the line in mm³.
func (l OrderLine) Volume() float64 {
	return l.Length * l.Width * l.Height * float64(l.Quantity)
}

type orderKey struct {
	foam                  string
	label                 string
	length, width, height float64
}

// BuildOrderLines groups placements by foam type, label and dimensions
// (rounded to the nearest mm). Lines are sorted by foam type then label.
func BuildOrderLines(placements []PlacedPart) []OrderLine {
	index := make(map[orderKey]int)
	var lines []OrderLine

	for _, p := range placements {
		key := orderKey{
			foam:   p.FoamTypeID,
			label:  p.Label,
			length: RoundMM(p.Length),
			width:  RoundMM(p.Width),
			height: RoundMM(p.Height),
		}
		i, ok := index[key]
		if !ok {
			i = len(lines)
			index[key] = i
			lines = append(lines, OrderLine{
				FoamTypeID: p.FoamTypeID,
				Label:      p.Label,
				Length:     key.length,
				Width:      key.width,
				Height:     key.height,
			})
		}
		lines[i].Quantity++
		lines[i].SheetIndexes = appendUnique(lines[i].SheetIndexes, p.SheetIndex)
	}

	sort.SliceStable(lines, func(a, b int) bool {
		if lines[a].FoamTypeID != lines[b].FoamTypeID {
			return lines[a].FoamTypeID < lines[b].FoamTypeID
		}
		return lines[a].Label < lines[b].Label
	})
	return lines
}

// BuildPolygonOrderLines does the same for polygon placements, using each
// part's bounding box as its dimensions.
func BuildPolygonOrderLines(placements []PlacedPolygonPart) []OrderLine {
	flat := make([]PlacedPart, len(placements))
	for i, p := range placements {
		part := p.BoundingPart()
		part.Quantity = 1
		flat[i] = PlacedPart{Part: part, X: p.X, Y: p.Y, SheetIndex: p.SheetIndex}
	}
	return BuildOrderLines(flat)
}

func appendUnique(xs []int, v int) []int {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

// CostLine is the material cost of one order line.
type CostLine struct {
	Line     OrderLine `json:"line"`
	FoamName string    `json:"foam_name"`
	VolumeM3 float64   `json:"volume_m3"`
	WeightKg float64   `json:"weight_kg"`
	Cost     float64   `json:"cost"`
}

// CostEstimate totals the material cost of a set of order lines.
type CostEstimate struct {
	Lines     []CostLine `json:"lines"`
	TotalCost float64    `json:"total_cost"`
	Warnings  []string   `json:"warnings,omitempty"`
}

const mm3PerM3 = 1e9

// EstimateCost prices order lines by foam volume. Lines whose foam type is
// unknown are costed at zero and reported as warnings.
func EstimateCost(lines []OrderLine, catalog FoamCatalog) CostEstimate {
	est := CostEstimate{}
	for _, l := range lines {
		cl := CostLine{Line: l, VolumeM3: l.Volume() / mm3PerM3}
		if ft := catalog.FindByID(l.FoamTypeID); ft != nil {
			cl.FoamName = ft.Name
			cl.WeightKg = cl.VolumeM3 * ft.Density
			cl.Cost = cl.VolumeM3 * ft.PricePerM3
		} else {
			est.Warnings = append(est.Warnings,
				fmt.Sprintf("%s: unknown foam type %q, costed at 0", l.Label, l.FoamTypeID))
		}
		est.TotalCost += cl.Cost
		est.Lines = append(est.Lines, cl)
	}
	return est
}
