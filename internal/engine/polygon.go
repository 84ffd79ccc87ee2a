package engine

import (
	"context"
	"math"
	"sort"

	"github.com/piwi3910/FoamNest/internal/model"
)

// Rotations tried for every polygon instance, in order.
var polygonRotations = [...]int{0, 90, 180, 270}

// minGridStep is the smallest candidate-position step of the polygon search.
const minGridStep = 10.0

type polygonUnit struct {
	part model.PolygonPart
	area float64
}

// PackPolygons places polygon parts with a greedy grid search. It is
// PackPolygonsContext without cancellation.
func PackPolygons(parts []model.PolygonPart, sheet model.Sheet) model.PolygonNestResult {
	r, _ := packPolygons(context.Background(), parts, sheet, minGridStep)
	return r
}

// PackPolygonsContext places polygon parts with a greedy grid search.
//
// Every instance tries the four quarter-turn rotations and scans candidate
// positions row by row across the current sheet. Collision against parts
// already on that sheet uses kerf-inflated bounding boxes. When nothing
// fits, the instance opens a new sheet at (Margin, Margin) unrotated without
// a further search; if it exceeds that sheet it is marked Forced.
// Packing then continues on the sheet the forced part opened, so later
// instances may share it. PackRectangles instead closes the sheet of an
// oversized part.
//
// The context is checked between instances; on cancellation the partial
// result is discarded and ctx.Err() returned.
func PackPolygonsContext(ctx context.Context, parts []model.PolygonPart, sheet model.Sheet) (model.PolygonNestResult, error) {
	return packPolygons(ctx, parts, sheet, minGridStep)
}

func packPolygons(ctx context.Context, parts []model.PolygonPart, sheet model.Sheet, stepFloor float64) (model.PolygonNestResult, error) {
	units := expandPolygonParts(parts)
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].area > units[j].area
	})

	result := model.PolygonNestResult{Feasible: true}
	if len(units) == 0 {
		return result, nil
	}

	if stepFloor <= 0 {
		stepFloor = minGridStep
	}
	gridStep := math.Max(stepFloor, sheet.Kerf*2)

	sheetIndex := 0
	var onSheet []model.Polygon // outlines on the current sheet
	counted := make(map[int]bool)

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return model.PolygonNestResult{}, err
		}

		placed, ok := findPosition(u.part.Polygon, onSheet, sheet, gridStep)
		forced := false
		if !ok {
			if len(result.Placements) > 0 {
				sheetIndex++
			}
			onSheet = onSheet[:0]
			outline := u.part.Polygon.Translate(sheet.Margin, sheet.Margin)
			placed = candidate{outline: outline, x: sheet.Margin, y: sheet.Margin}
			if !isPolygonInSheet(outline, sheet) {
				forced = true
				result.Feasible = false
			}
		}

		pp := u.part
		pp.Polygon = placed.outline
		result.Placements = append(result.Placements, model.PlacedPolygonPart{
			PolygonPart: pp,
			X:           placed.x,
			Y:           placed.y,
			Rotation:    placed.rotation,
			SheetIndex:  sheetIndex,
			Forced:      forced,
		})
		onSheet = append(onSheet, placed.outline)

		if !counted[sheetIndex] {
			counted[sheetIndex] = true
			result.TotalArea += sheet.UsableArea()
		}
		result.UsedArea += u.area
	}

	result.SheetsUsed = sheetIndex + 1
	if result.TotalArea > 0 {
		result.Utilization = result.UsedArea / result.TotalArea
	}
	return result, nil
}

func expandPolygonParts(parts []model.PolygonPart) []polygonUnit {
	var units []polygonUnit
	for _, p := range parts {
		norm := p.Polygon.Normalize()
		area := norm.Area()
		for i := 0; i < p.Quantity; i++ {
			u := p
			u.Quantity = 1
			u.Polygon = norm.Clone()
			units = append(units, polygonUnit{part: u, area: area})
		}
	}
	return units
}

type candidate struct {
	outline  model.Polygon
	x, y     float64
	rotation int
}

// findPosition returns the first in-bounds, non-colliding placement of poly
// on the current sheet, trying rotations in order and scanning y outer, x
// inner.
func findPosition(poly model.Polygon, onSheet []model.Polygon, sheet model.Sheet, step float64) (candidate, bool) {
	for _, rot := range polygonRotations {
		rotated := poly
		if rot != 0 {
			rotated = poly.RotateOrigin(float64(rot)).Normalize()
		}
		bb := rotated.BBox()
		maxX := sheet.Width - sheet.Margin - bb.Width
		maxY := sheet.Length - sheet.Margin - bb.Height

		for y := sheet.Margin; y <= maxY; y += step {
			for x := sheet.Margin; x <= maxX; x += step {
				moved := rotated.Translate(x, y)
				if !isPolygonInSheet(moved, sheet) {
					continue
				}
				if collides(moved, onSheet, sheet.Kerf) {
					continue
				}
				return candidate{outline: moved, x: x, y: y, rotation: rot}, true
			}
		}
	}
	return candidate{}, false
}

func collides(p model.Polygon, others []model.Polygon, kerf float64) bool {
	for _, o := range others {
		if polygonsOverlap(p, o, kerf) {
			return true
		}
	}
	return false
}
