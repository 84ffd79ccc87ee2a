package engine

import (
	"context"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNester_UsesSettingsSheet(t *testing.T) {
	s := model.DefaultSettings()
	s.SheetLength = 500
	s.SheetWidth = 400
	s.Kerf = 0
	s.Margin = 0
	n := New(s)

	assert.Equal(t, model.Sheet{Length: 500, Width: 400}, n.Sheet())

	result := n.NestRectangles([]model.Part{model.NewPart("A", 250, 400, 20, 3)})
	assert.Equal(t, 2, result.SheetsUsed)
}

func TestNester_NestPolygonsUsesGridFloor(t *testing.T) {
	s := model.DefaultSettings()
	s.SheetLength = 1000
	s.SheetWidth = 1000
	s.Kerf = 0
	s.Margin = 0
	s.GridStepFloor = 25
	n := New(s)

	result, err := n.NestPolygons(context.Background(), []model.PolygonPart{squarePart("Sq", 110, 2)})
	require.NoError(t, err)
	require.Len(t, result.Placements, 2)
	// With a 25mm grid the second square snaps to x=125
	assert.Equal(t, 125.0, result.Placements[1].X)
}

func TestNester_NestPolygonsHonoursCallerContext(t *testing.T) {
	n := New(model.DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := n.NestPolygons(ctx, []model.PolygonPart{squarePart("Sq", 100, 1)})
	assert.ErrorIs(t, err, context.Canceled)
}
