package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	require.NoError(t, ExportLabels(path, buildTestLayout()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(500))
}

func TestExportLabels_NoPlacements(t *testing.T) {
	layout := model.Layout{Sheets: []model.SheetLayout{{Index: 0}}}
	err := ExportLabels(filepath.Join(t.TempDir(), "none.pdf"), layout)
	assert.Error(t, err)
}

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildTestLayout())
	require.Len(t, labels, 4)

	assert.Equal(t, LabelInfo{
		PartLabel: "Seat", FoamTypeID: "pu35",
		Width: 600, Length: 400, SheetIndex: 1, X: 10, Y: 412,
	}, labels[1])

	wedge := labels[2]
	assert.Equal(t, 90, wedge.Rotation)
	assert.Equal(t, 280.0, wedge.Width)
	assert.Equal(t, 290.0, wedge.Length)

	assert.Equal(t, 2, labels[3].SheetIndex)
}

func TestLabelInfo_JSON(t *testing.T) {
	info := CollectLabelInfos(buildTestLayout())[0]
	data, err := json.Marshal(info)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"label", "foam", "width_mm", "length_mm", "sheet", "rotation", "x_mm", "y_mm"} {
		assert.Contains(t, fields, key)
	}
}

func TestExportLabels_ManyParts(t *testing.T) {
	// More than one page of labels
	sl := model.SheetLayout{Index: 0}
	for i := 0; i < labelsPerPage+5; i++ {
		sl.Shapes = append(sl.Shapes, model.Shape{
			Label:   fmt.Sprintf("A very long part name number %d that needs truncating", i),
			Outline: model.RectPolygon(50, 50).Translate(float64(i)*60, 0),
		})
	}
	layout := model.Layout{Sheet: model.Sheet{Length: 5000, Width: 5000}, Sheets: []model.SheetLayout{sl}}

	path := filepath.Join(t.TempDir(), "many.pdf")
	require.NoError(t, ExportLabels(path, layout))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
