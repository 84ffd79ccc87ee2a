package model

// Shape is one placed part expressed as an absolute outline on its sheet.
type Shape struct {
	Label      string  `json:"label"`
	FoamTypeID string  `json:"foam_type_id,omitempty"`
	Outline    Polygon `json:"outline"`
	Rotation   int     `json:"rotation"`
	Flagged    bool    `json:"flagged,omitempty"` // oversized or forced placement
}

// SheetLayout collects the shapes placed on one physical sheet.
type SheetLayout struct {
	Index  int     `json:"index"`
	Shapes []Shape `json:"shapes"`
}

// UsedArea returns the summed outline area on this sheet.
func (sl SheetLayout) UsedArea() float64 {
	var total float64
	for _, s := range sl.Shapes {
		total += s.Outline.Area()
	}
	return total
}

// Layout is a renderer-neutral view of a nesting result, shared by the
// exporters and the G-code generator.
type Layout struct {
	Sheet       Sheet         `json:"sheet"`
	Sheets      []SheetLayout `json:"sheets"`
	Utilization float64       `json:"utilization"`
	Feasible    bool          `json:"feasible"`
}

// PartCount returns the number of shapes across all sheets.
func (l Layout) PartCount() int {
	n := 0
	for _, s := range l.Sheets {
		n += len(s.Shapes)
	}
	return n
}

// FlaggedCount returns how many shapes were placed without fitting.
func (l Layout) FlaggedCount() int {
	n := 0
	for _, s := range l.Sheets {
		for _, sh := range s.Shapes {
			if sh.Flagged {
				n++
			}
		}
	}
	return n
}

// Layout converts the rectangle result into per-sheet outlines.
func (r NestResult) Layout(sheet Sheet) Layout {
	l := Layout{
		Sheet:       sheet,
		Sheets:      make([]SheetLayout, r.SheetsUsed),
		Utilization: r.Utilization,
		Feasible:    r.Feasible,
	}
	for i := range l.Sheets {
		l.Sheets[i].Index = i
	}
	for _, p := range r.Placements {
		if p.SheetIndex < 0 || p.SheetIndex >= len(l.Sheets) {
			continue
		}
		sl := &l.Sheets[p.SheetIndex]
		sl.Shapes = append(sl.Shapes, Shape{
			Label:      p.Label,
			FoamTypeID: p.FoamTypeID,
			Outline:    RectPolygon(p.Width, p.Length).Translate(p.X, p.Y),
			Flagged:    p.Oversized,
		})
	}
	return l
}

// Layout converts the polygon result into per-sheet outlines.
func (r PolygonNestResult) Layout(sheet Sheet) Layout {
	l := Layout{
		Sheet:       sheet,
		Sheets:      make([]SheetLayout, r.SheetsUsed),
		Utilization: r.Utilization,
		Feasible:    r.Feasible,
	}
	for i := range l.Sheets {
		l.Sheets[i].Index = i
	}
	for _, p := range r.Placements {
		if p.SheetIndex < 0 || p.SheetIndex >= len(l.Sheets) {
			continue
		}
		sl := &l.Sheets[p.SheetIndex]
		sl.Shapes = append(sl.Shapes, Shape{
			Label:      p.Label,
			FoamTypeID: p.FoamTypeID,
			Outline:    p.Polygon,
			Rotation:   p.Rotation,
			Flagged:    p.Forced,
		})
	}
	return l
}
