package export

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/FoamNest/internal/importer"
	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

func countLwPolylines(t *testing.T, path string) int {
	t.Helper()
	d, err := dxf.Open(path)
	require.NoError(t, err)
	n := 0
	for _, e := range d.Entities() {
		if lw, ok := e.(*entity.LwPolyline); ok {
			assert.True(t, lw.Closed)
			n++
		}
	}
	return n
}

func TestExportDXF_Outlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")
	require.NoError(t, ExportDXF(path, buildTestLayout(), DXFOptions{}))

	assert.Equal(t, 4, countLwPolylines(t, path))
}

func TestExportDXF_Borders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")
	require.NoError(t, ExportDXF(path, buildTestLayout(), DXFOptions{SheetBorders: true, Labels: true}))

	// Four shapes plus outline and margin rectangle for each of two sheets
	assert.Equal(t, 8, countLwPolylines(t, path))
}

func TestExportDXF_RoundTrip(t *testing.T) {
	layout := buildTestLayout()
	path := filepath.Join(t.TempDir(), "layout.dxf")
	require.NoError(t, ExportDXF(path, layout, DXFOptions{Labels: true}))

	res, err := importer.NewLoader(model.DefaultSettings()).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, res.PolygonParts, 4)

	var want, got float64
	for _, sl := range layout.Sheets {
		for _, sh := range sl.Shapes {
			want += sh.Outline.Area()
		}
	}
	for _, pp := range res.PolygonParts {
		got += pp.Polygon.Area()
	}
	assert.InDelta(t, want, got, 1e-6)

	// Two identical seats merge into one bounding-box part
	require.Len(t, res.Parts, 3)
	total := 0
	for _, p := range res.Parts {
		total += p.Quantity
	}
	assert.Equal(t, 4, total)
}

func TestExportDXF_Empty(t *testing.T) {
	err := ExportDXF(filepath.Join(t.TempDir(), "empty.dxf"), model.Layout{}, DXFOptions{})
	assert.Error(t, err)
}

func TestSheetOffset(t *testing.T) {
	sheet := model.Sheet{Length: 2000, Width: 1000}
	assert.Equal(t, 0.0, SheetOffset(sheet, 0))
	assert.Equal(t, 1050.0, SheetOffset(sheet, 1))

	wide := model.Sheet{Length: 2000, Width: 4000}
	assert.Equal(t, 8400.0, SheetOffset(wide, 2))
}
