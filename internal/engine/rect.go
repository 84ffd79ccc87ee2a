package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/FoamNest/internal/model"
)

// shelfCursor is the packing position inside PackRectangles. It never
// escapes the function.
type shelfCursor struct {
	sheetIndex int
	x, y       float64
	rowHeight  float64
	rowEmpty   bool
	sheetEmpty bool
	full       bool // holds an oversized part; nothing else goes here
}

func (c *shelfCursor) reset(margin float64) {
	c.x = margin
	c.y = margin
	c.rowHeight = 0
	c.rowEmpty = true
	c.sheetEmpty = true
	c.full = false
}

func (c *shelfCursor) nextSheet(margin float64) {
	c.sheetIndex++
	c.reset(margin)
}

// expandParts turns each part into Quantity unit instances.
func expandParts(parts []model.Part) []model.Part {
	var units []model.Part
	for _, p := range parts {
		for i := 0; i < p.Quantity; i++ {
			u := p
			u.Quantity = 1
			units = append(units, u)
		}
	}
	return units
}

// PackRectangles places rectangular parts onto identical sheets using a single
// pass shelf packer. Larger parts go first; each row grows to its tallest
// piece and a new sheet starts when the next row would not fit.
//
// A part that cannot fit even an empty sheet is still placed at the margin
// origin of its own sheet and marked Oversized; Feasible is false then.
func PackRectangles(parts []model.Part, sheet model.Sheet) model.NestResult {
	units := expandParts(parts)
	sort.SliceStable(units, func(i, j int) bool {
		return math.Max(units[i].Length, units[i].Width) > math.Max(units[j].Length, units[j].Width)
	})

	result := model.NestResult{Feasible: true}
	if len(units) == 0 {
		return result
	}

	maxX := sheet.Width - sheet.Margin
	maxY := sheet.Length - sheet.Margin

	var cur shelfCursor
	cur.reset(sheet.Margin)
	var used float64

	for _, u := range units {
		w := u.Width + sheet.Kerf
		h := u.Length + sheet.Kerf

		if cur.full {
			cur.nextSheet(sheet.Margin)
		}
		if cur.rowEmpty {
			cur.rowHeight = h
		}
		if cur.x+w > maxX && !cur.rowEmpty {
			cur.x = sheet.Margin
			cur.y += cur.rowHeight
			cur.rowHeight = h
			cur.rowEmpty = true
		}
		if cur.y+h > maxY && !cur.sheetEmpty {
			cur.nextSheet(sheet.Margin)
			cur.rowHeight = h
		}

		oversized := false
		if cur.x+w > maxX || cur.y+h > maxY {
			if !cur.sheetEmpty {
				cur.nextSheet(sheet.Margin)
				cur.rowHeight = h
			}
			oversized = true
			cur.full = true
			result.Feasible = false
		}

		result.Placements = append(result.Placements, model.PlacedPart{
			Part:       u,
			X:          cur.x,
			Y:          cur.y,
			SheetIndex: cur.sheetIndex,
			Oversized:  oversized,
		})
		used += u.Length * u.Width

		cur.x += w
		cur.rowHeight = math.Max(cur.rowHeight, h)
		cur.rowEmpty = false
		cur.sheetEmpty = false
	}

	result.SheetsUsed = cur.sheetIndex + 1
	denom := float64(result.SheetsUsed) * sheet.UsableArea()
	if denom > 0 {
		result.Utilization = math.Min(1, used/denom)
	}
	return result
}
