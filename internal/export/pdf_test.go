package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
)

// buildTestLayout creates a two-sheet layout with rectangles, a triangle
// and one flagged shape.
func buildTestLayout() model.Layout {
	return model.Layout{
		Sheet:       model.Sheet{Length: 2000, Width: 1000, Kerf: 2, Margin: 10},
		Utilization: 0.42,
		Feasible:    false,
		Sheets: []model.SheetLayout{
			{
				Index: 0,
				Shapes: []model.Shape{
					{Label: "Seat", FoamTypeID: "pu35", Outline: model.RectPolygon(600, 400).Translate(10, 10)},
					{Label: "Seat", FoamTypeID: "pu35", Outline: model.RectPolygon(600, 400).Translate(10, 412)},
					{Label: "Wedge", Outline: model.Polygon{{X: 620, Y: 10}, {X: 900, Y: 10}, {X: 620, Y: 300}}, Rotation: 90},
				},
			},
			{
				Index: 1,
				Shapes: []model.Shape{
					{Label: "Mattress", Outline: model.RectPolygon(1200, 2100).Translate(10, 10), Flagged: true},
				},
			},
		},
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.pdf")

	if err := ExportPDF(path, buildTestLayout(), "Sofa job"); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 1000 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportPDF_EmptyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	if err := ExportPDF(path, model.Layout{Sheet: model.Sheet{Length: 100, Width: 100}}, ""); err == nil {
		t.Fatal("expected error for empty layout, got nil")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written for an empty layout")
	}
}

func TestExportPDF_InvalidSheet(t *testing.T) {
	layout := buildTestLayout()
	layout.Sheet.Width = 0

	if err := ExportPDF(filepath.Join(t.TempDir(), "bad.pdf"), layout, ""); err == nil {
		t.Fatal("expected error for zero-width sheet")
	}
}

func TestExportPDF_ManySheets(t *testing.T) {
	layout := model.Layout{Sheet: model.Sheet{Length: 500, Width: 500}, Feasible: true}
	for i := 0; i < 40; i++ {
		sl := model.SheetLayout{Index: i}
		for j := 0; j < 12; j++ {
			sl.Shapes = append(sl.Shapes, model.Shape{
				Label:   fmt.Sprintf("P%d", j),
				Outline: model.RectPolygon(100, 100).Translate(float64(j%4)*120, float64(j/4)*120),
			})
		}
		layout.Sheets = append(layout.Sheets, sl)
	}

	path := filepath.Join(t.TempDir(), "many.pdf")
	if err := ExportPDF(path, layout, "Many"); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("PDF file missing or empty: %v", err)
	}
}

func TestColorIndex(t *testing.T) {
	c := colorIndex{}
	a := c.of("A")
	b := c.of("B")
	if a == b {
		t.Error("distinct labels should get distinct colors")
	}
	if c.of("A") != a {
		t.Error("same label should keep its color")
	}
}

func TestLabelFontSize(t *testing.T) {
	tests := []struct {
		w, h, want float64
	}{
		{100, 50, 8},
		{30, 100, 7},
		{10, 10, 6},
	}
	for _, tt := range tests {
		if got := labelFontSize(tt.w, tt.h); got != tt.want {
			t.Errorf("labelFontSize(%v, %v) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
