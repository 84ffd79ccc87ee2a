// Package export writes nesting layouts to PDF, label sheets, DXF and Excel.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/FoamNest/internal/model"
)

// partColor represents an RGB fill color for a placed shape.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// colorIndex assigns the same color to every shape with the same label.
type colorIndex map[string]int

func (c colorIndex) of(label string) partColor {
	i, ok := c[label]
	if !ok {
		i = len(c)
		c[label] = i
	}
	return partColors[i%len(partColors)]
}

// ExportPDF renders one page per sheet with the nested outlines, followed by
// a summary page.
func ExportPDF(path string, layout model.Layout, title string) error {
	if len(layout.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	if layout.Sheet.Width <= 0 || layout.Sheet.Length <= 0 {
		return fmt.Errorf("invalid sheet size %.0f x %.0f", layout.Sheet.Width, layout.Sheet.Length)
	}
	if title == "" {
		title = "Nesting Layout"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := colorIndex{}
	for _, sl := range layout.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, layout.Sheet, sl, len(layout.Sheets), colors)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, layout, title)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single sheet on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, sheet model.Sheet, sl model.SheetLayout, total int, colors colorIndex) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	heading := fmt.Sprintf("Sheet %d of %d (%.0f x %.0f mm)", sl.Index+1, total, sheet.Width, sheet.Length)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, heading, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	sheetArea := sheet.Width * sheet.Length
	stats := fmt.Sprintf("Parts: %d | Used area: %.0f mm² | Sheet area: %.0f mm² | Utilization: %.1f%%",
		len(sl.Shapes), sl.UsedArea(), sheetArea, 100*sl.UsedArea()/sheetArea)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, pdf.UnicodeTranslatorFromDescriptor("")(stats), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/sheet.Width, drawHeight/sheet.Length)

	canvasW := sheet.Width * scale
	canvasH := sheet.Length * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Foam sheet background
	pdf.SetFillColor(245, 235, 200)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Margin boundary
	if sheet.Margin > 0 {
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.15)
		pdf.SetDashPattern([]float64{1, 1}, 0)
		m := sheet.Margin * scale
		pdf.Rect(offsetX+m, offsetY+m, canvasW-2*m, canvasH-2*m, "D")
		pdf.SetDashPattern([]float64{}, 0)
	}

	for _, sh := range sl.Shapes {
		drawShape(pdf, sh, colors.of(sh.Label), scale, offsetX, offsetY)
	}

	drawDimensionAnnotations(pdf, sheet, offsetX, offsetY, canvasW, canvasH)
	drawPartsLegend(pdf, sl, colors, offsetY+canvasH+5)
}

// drawShape fills a shape outline and labels it at its bounding-box centre.
func drawShape(pdf *fpdf.Fpdf, sh model.Shape, col partColor, scale, offsetX, offsetY float64) {
	if len(sh.Outline) < 3 {
		return
	}
	pts := make([]fpdf.PointType, len(sh.Outline))
	for i, p := range sh.Outline {
		pts[i] = fpdf.PointType{X: offsetX + p.X*scale, Y: offsetY + p.Y*scale}
	}

	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	if sh.Flagged {
		pdf.SetDrawColor(220, 0, 0)
		pdf.SetLineWidth(0.8)
	}
	pdf.Polygon(pts, "FD")

	b := sh.Outline.BBox()
	pw := b.Width * scale
	ph := b.Height * scale
	if pw <= 15 || ph <= 8 {
		return
	}

	pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
	pdf.SetTextColor(0, 0, 0)
	cx := offsetX + (b.MinX+b.Width/2)*scale
	cy := offsetY + (b.MinY+b.Height/2)*scale

	label := sh.Label
	dims := fmt.Sprintf("%.0fx%.0f", b.Width, b.Height)
	if labelW := pdf.GetStringWidth(label); labelW < pw-2 {
		pdf.SetXY(cx-labelW/2, cy-4)
		pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
	}
	if dimsW := pdf.GetStringWidth(dims); ph > 14 && dimsW < pw-2 {
		pdf.SetXY(cx-dimsW/2, cy)
		pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
	}
}

// drawDimensionAnnotations adds width and length labels outside the sheet.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, sheet model.Sheet, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", sheet.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	lengthLabel := fmt.Sprintf("%.0f mm", sheet.Length)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	lLabelW := pdf.GetStringWidth(lengthLabel)
	pdf.SetXY(offsetX-3-lLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(lLabelW, 4, lengthLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPartsLegend lists the distinct labels on the sheet with their color.
func drawPartsLegend(pdf *fpdf.Fpdf, sl model.SheetLayout, colors colorIndex, startY float64) {
	if len(sl.Shapes) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Parts placed:", "", 0, "L", false, 0, "")

	counts := make(map[string]int)
	var order []string
	for _, sh := range sl.Shapes {
		if counts[sh.Label] == 0 {
			order = append(order, sh.Label)
		}
		counts[sh.Label]++
	}

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight
	for _, label := range order {
		col := colors.of(label)
		text := fmt.Sprintf("%s x%d", label, counts[label])
		textW := pdf.GetStringWidth(text) + 6

		if xPos+textW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(textW-4, 4, text, "", 0, "L", false, 0, "")

		xPos += textW + 2
	}
}

// renderSummaryPage draws overall statistics and a per-sheet table.
func renderSummaryPage(pdf *fpdf.Fpdf, layout model.Layout, title string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, title+" - Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	feasible := "Yes"
	if !layout.Feasible {
		feasible = "No"
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Sheets Used", fmt.Sprintf("%d", len(layout.Sheets))},
		{"Utilization", fmt.Sprintf("%.1f%%", layout.Utilization*100)},
		{"Parts Placed", fmt.Sprintf("%d", layout.PartCount())},
		{"Flagged Placements", fmt.Sprintf("%d", layout.FlaggedCount())},
		{"All Parts Fit", feasible},
		{"Sheet", fmt.Sprintf("%.0f x %.0f mm, kerf %.1f mm, margin %.1f mm",
			layout.Sheet.Width, layout.Sheet.Length, layout.Sheet.Kerf, layout.Sheet.Margin)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{25, 35, 45, 60, 50}
	headers := []string{"Sheet", "Parts", "Utilization", "Used Area", "Flagged"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	sheetArea := layout.Sheet.Width * layout.Sheet.Length
	pdf.SetFont("Helvetica", "", 9)
	for i, sl := range layout.Sheets {
		// Continue the table on a fresh page
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}

		flagged := 0
		for _, sh := range sl.Shapes {
			if sh.Flagged {
				flagged++
			}
		}
		rowData := []string{
			fmt.Sprintf("%d", sl.Index+1),
			fmt.Sprintf("%d", len(sl.Shapes)),
			fmt.Sprintf("%.1f%%", 100*sl.UsedArea()/sheetArea),
			tr(fmt.Sprintf("%.0f mm²", sl.UsedArea())),
			fmt.Sprintf("%d", flagged),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by FoamNest", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns a font size that fits the given box.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
