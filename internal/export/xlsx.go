package export

import (
	"fmt"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	cutListSheet    = "Cut List"
	orderLinesSheet = "Order Lines"
)

var (
	cutListHeader = []interface{}{"Sheet", "Label", "Foam", "X (mm)", "Y (mm)", "Width (mm)", "Length (mm)", "Rotation", "Flagged"}
	orderHeader   = []interface{}{"Foam", "Label", "Length (mm)", "Width (mm)", "Height (mm)", "Quantity", "Sheets", "Volume (m³)", "Weight (kg)", "Cost"}
)

// ExportXLSX writes a workbook with the per-shape cut list and the grouped
// order lines priced against the foam catalog.
func ExportXLSX(path string, layout model.Layout, lines []model.OrderLine, catalog model.FoamCatalog) error {
	if layout.PartCount() == 0 && len(lines) == 0 {
		return fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), cutListSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(orderLinesSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	if err := writeCutList(f, layout, bold); err != nil {
		return err
	}
	if err := writeOrderLines(f, lines, catalog, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	return f.SetColWidth(sheet, "A", lastCol, 14)
}

func writeCutList(f *excelize.File, layout model.Layout, bold int) error {
	if err := writeHeader(f, cutListSheet, cutListHeader, bold); err != nil {
		return err
	}
	row := 2
	for _, sl := range layout.Sheets {
		for _, sh := range sl.Shapes {
			b := sh.Outline.BBox()
			values := []interface{}{
				sl.Index + 1,
				sh.Label,
				sh.FoamTypeID,
				model.RoundMM(b.MinX),
				model.RoundMM(b.MinY),
				model.RoundMM(b.Width),
				model.RoundMM(b.Height),
				sh.Rotation,
				yesNo(sh.Flagged),
			}
			if err := writeRow(f, cutListSheet, row, values); err != nil {
				return fmt.Errorf("writing cut list row %d: %w", row, err)
			}
			row++
		}
	}
	return nil
}

func writeOrderLines(f *excelize.File, lines []model.OrderLine, catalog model.FoamCatalog, bold int) error {
	if err := writeHeader(f, orderLinesSheet, orderHeader, bold); err != nil {
		return err
	}
	est := model.EstimateCost(lines, catalog)
	row := 2
	for _, cl := range est.Lines {
		foam := cl.FoamName
		if foam == "" {
			foam = cl.Line.FoamTypeID
		}
		values := []interface{}{
			foam,
			cl.Line.Label,
			cl.Line.Length,
			cl.Line.Width,
			cl.Line.Height,
			cl.Line.Quantity,
			sheetList(cl.Line.SheetIndexes),
			cl.VolumeM3,
			cl.WeightKg,
			cl.Cost,
		}
		if err := writeRow(f, orderLinesSheet, row, values); err != nil {
			return fmt.Errorf("writing order line row %d: %w", row, err)
		}
		row++
	}

	total := make([]interface{}, len(orderHeader))
	total[0] = "Total"
	total[len(total)-1] = est.TotalCost
	if err := writeRow(f, orderLinesSheet, row, total); err != nil {
		return fmt.Errorf("writing total row: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(orderHeader), row)
	return f.SetCellStyle(orderLinesSheet, fmt.Sprintf("A%d", row), last, bold)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// sheetList renders zero-based sheet indexes as a 1-based list.
func sheetList(indexes []int) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = fmt.Sprint(idx + 1)
	}
	return strings.Join(parts, ", ")
}
