package export

import (
	"fmt"
	"math"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// DXFOptions selects the optional content of a DXF export.
type DXFOptions struct {
	SheetBorders bool // sheet outline and margin rectangle on layer BORDER
	Labels       bool // part labels as TEXT on layer LABELS
}

// sheetGap is the minimum X spacing between consecutive sheets in a DXF.
const sheetGap = 50.0

// SheetOffset returns the X offset of sheet index i in an exported DXF.
func SheetOffset(sheet model.Sheet, i int) float64 {
	return float64(i) * (sheet.Width + math.Max(sheetGap, sheet.Width*0.05))
}

// ExportDXF writes every shape of the layout as a closed LWPOLYLINE. Each
// sheet gets its own layer SHEET_<n> and sheets are laid out side by side
// along X.
func ExportDXF(path string, layout model.Layout, opts DXFOptions) error {
	if layout.PartCount() == 0 {
		return fmt.Errorf("no parts placed to export")
	}

	d := dxf.NewDrawing()
	if opts.SheetBorders {
		if _, err := d.AddLayer("BORDER", color.ColorNumber(8), dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("adding border layer: %w", err)
		}
	}
	if opts.Labels {
		if _, err := d.AddLayer("LABELS", color.ColorNumber(7), dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("adding label layer: %w", err)
		}
	}

	for _, sl := range layout.Sheets {
		dx := SheetOffset(layout.Sheet, sl.Index)
		layer := fmt.Sprintf("SHEET_%d", sl.Index+1)
		if _, err := d.AddLayer(layer, color.ColorNumber(1+sl.Index%6), dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("adding layer %s: %w", layer, err)
		}

		for _, sh := range sl.Shapes {
			if len(sh.Outline) < 3 {
				continue
			}
			if _, err := d.LwPolyline(true, vertices(sh.Outline, dx)...); err != nil {
				return fmt.Errorf("writing %s: %w", sh.Label, err)
			}
		}

		if opts.SheetBorders {
			if err := d.ChangeLayer("BORDER"); err != nil {
				return err
			}
			for _, border := range borders(layout.Sheet) {
				if _, err := d.LwPolyline(true, vertices(border, dx)...); err != nil {
					return fmt.Errorf("writing sheet border: %w", err)
				}
			}
		}

		if opts.Labels {
			if err := d.ChangeLayer("LABELS"); err != nil {
				return err
			}
			for _, sh := range sl.Shapes {
				b := sh.Outline.BBox()
				h := math.Min(20, math.Min(b.Width, b.Height)/5)
				if h <= 0 {
					continue
				}
				if _, err := d.Text(sh.Label, dx+b.MinX+h/2, b.MinY+b.Height/2, 0, h); err != nil {
					return fmt.Errorf("writing label %s: %w", sh.Label, err)
				}
			}
		}
	}

	return d.SaveAs(path)
}

// borders returns the sheet outline and, when the sheet has a margin, the
// usable-area rectangle inside it.
func borders(sheet model.Sheet) []model.Polygon {
	out := []model.Polygon{model.RectPolygon(sheet.Width, sheet.Length)}
	if sheet.Margin > 0 && sheet.UsableWidth() > 0 && sheet.UsableLength() > 0 {
		inner := model.RectPolygon(sheet.UsableWidth(), sheet.UsableLength()).Translate(sheet.Margin, sheet.Margin)
		out = append(out, inner)
	}
	return out
}

func vertices(poly model.Polygon, dx float64) [][]float64 {
	out := make([][]float64, len(poly))
	for i, p := range poly {
		out[i] = []float64{p.X + dx, p.Y}
	}
	return out
}
