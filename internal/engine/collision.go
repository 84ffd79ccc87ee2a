package engine

import "github.com/piwi3910/FoamNest/internal/model"

// bboxOverlap reports whether two boxes come closer than clearance on both
// axes. Touching boxes with zero clearance do not overlap.
func bboxOverlap(a, b model.BBox, clearance float64) bool {
	return a.MinX < b.MaxX+clearance &&
		b.MinX < a.MaxX+clearance &&
		a.MinY < b.MaxY+clearance &&
		b.MinY < a.MaxY+clearance
}

// polygonsOverlap approximates polygon collision with kerf-inflated bounding
// boxes. Concave parts therefore never interlock.
func polygonsOverlap(a, b model.Polygon, kerf float64) bool {
	return bboxOverlap(a.BBox(), b.BBox(), kerf)
}

// isPolygonInSheet reports whether every vertex lies inside the
// margin-bounded interior of the sheet.
func isPolygonInSheet(p model.Polygon, sheet model.Sheet) bool {
	const tol = 1e-9
	minX, minY := sheet.Margin-tol, sheet.Margin-tol
	maxX := sheet.Width - sheet.Margin + tol
	maxY := sheet.Length - sheet.Margin + tol
	for _, pt := range p {
		if pt.X < minX || pt.X > maxX || pt.Y < minY || pt.Y > maxY {
			return false
		}
	}
	return true
}
