package engine

import (
	"context"
	"time"

	"github.com/piwi3910/FoamNest/internal/model"
)

// Nester runs both packers against the sheet described by its settings.
type Nester struct {
	Settings model.NestSettings
}

func New(settings model.NestSettings) *Nester {
	return &Nester{Settings: settings}
}

// Sheet returns the stock sheet the nester packs onto.
func (n *Nester) Sheet() model.Sheet {
	return n.Settings.Sheet()
}

// NestRectangles packs rectangular parts. It never fails.
func (n *Nester) NestRectangles(parts []model.Part) model.NestResult {
	return PackRectangles(parts, n.Sheet())
}

// NestPolygons packs polygon parts, bounded by NestTimeoutSecs when set.
func (n *Nester) NestPolygons(ctx context.Context, parts []model.PolygonPart) (model.PolygonNestResult, error) {
	if n.Settings.NestTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(n.Settings.NestTimeoutSecs)*time.Second)
		defer cancel()
	}
	return packPolygons(ctx, parts, n.Sheet(), n.Settings.GridStepFloor)
}
