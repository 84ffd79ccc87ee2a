package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/FoamNest/internal/model"
)

// boundsTolerance absorbs coordinate rounding in generated code.
const boundsTolerance = 0.01

// BoundsViolation is a cutting move whose end point leaves the sheet.
type BoundsViolation struct {
	Line     int
	Type     MoveType
	X, Y     float64
	Distance float64 // mm outside the sheet edge
}

// CheckBounds reports feed and plunge moves that end outside the sheet
// rectangle [0, Width] x [0, Length]. Rapid and retract moves are above the
// material and are not checked.
func CheckBounds(moves []Move, sheet model.Sheet) []BoundsViolation {
	var out []BoundsViolation
	for _, m := range moves {
		if m.Type != MoveFeed && m.Type != MovePlunge {
			continue
		}
		if d := distanceOutside(m.ToX, m.ToY, sheet); d > boundsTolerance {
			out = append(out, BoundsViolation{Line: m.Line, Type: m.Type, X: m.ToX, Y: m.ToY, Distance: d})
		}
	}
	return out
}

// distanceOutside returns how far (px, py) lies outside the sheet, or 0
// when it is inside.
func distanceOutside(px, py float64, sheet model.Sheet) float64 {
	nearestX := math.Max(0, math.Min(px, sheet.Width))
	nearestY := math.Max(0, math.Min(py, sheet.Length))
	return math.Hypot(px-nearestX, py-nearestY)
}

// FormatBoundsWarnings produces one readable message per violation.
func FormatBoundsWarnings(violations []BoundsViolation) []string {
	warnings := make([]string, 0, len(violations))
	for _, v := range violations {
		warnings = append(warnings, fmt.Sprintf("line %d: %s move to (%.1f, %.1f) is %.1f mm outside the sheet",
			v.Line, v.Type, v.X, v.Y, v.Distance))
	}
	return warnings
}
