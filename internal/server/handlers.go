package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/piwi3910/FoamNest/internal/engine"
	"github.com/piwi3910/FoamNest/internal/importer"
	"github.com/piwi3910/FoamNest/internal/model"
)

type rectNestRequest struct {
	Parts []model.Part `json:"parts"`
	Sheet *model.Sheet `json:"sheet,omitempty"`
}

type polygonNestRequest struct {
	Parts []model.PolygonPart `json:"parts"`
	Sheet *model.Sheet        `json:"sheet,omitempty"`
}

type nestResponse struct {
	Result any               `json:"result"`
	Layout model.Layout      `json:"layout"`
	Orders []model.OrderLine `json:"orders"`
}

type compareRequest struct {
	Parts     []model.Part                `json:"parts"`
	Scenarios []engine.ComparisonScenario `json:"scenarios,omitempty"`
}

type ordersRequest struct {
	Placements        []model.PlacedPart        `json:"placements,omitempty"`
	PolygonPlacements []model.PlacedPolygonPart `json:"polygon_placements,omitempty"`
}

type ordersResponse struct {
	Lines    []model.OrderLine  `json:"lines"`
	Estimate model.CostEstimate `json:"estimate"`
}

// badRequest answers 400, or 413 when err comes from an oversized body.
func badRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("request body over %d bytes", tooLarge.Limit)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFoamTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Types)
}

func (s *Server) handleProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, model.GCodeProfiles)
}

// nesterFor returns the server's nester, or a copy packing onto sheet when
// the request overrides it.
func (s *Server) nesterFor(sheet *model.Sheet) (*engine.Nester, error) {
	if sheet == nil {
		return s.nester, nil
	}
	if sheet.UsableWidth() <= 0 || sheet.UsableLength() <= 0 {
		return nil, fmt.Errorf("sheet %gx%g has no usable area inside margin %g",
			sheet.Length, sheet.Width, sheet.Margin)
	}
	settings := s.nester.Settings
	settings.SheetLength = sheet.Length
	settings.SheetWidth = sheet.Width
	settings.Kerf = sheet.Kerf
	settings.Margin = sheet.Margin
	return engine.New(settings), nil
}

// checkInstances rejects requests whose quantities expand to more than
// maxPartInstances placements.
func checkInstances(total, qty int) (int, error) {
	if qty > maxPartInstances || total+qty > maxPartInstances {
		return 0, fmt.Errorf("parts expand to more than %d instances", maxPartInstances)
	}
	return total + qty, nil
}

func validateParts(parts []model.Part) error {
	if len(parts) == 0 {
		return errors.New("no parts given")
	}
	total := 0
	for i, p := range parts {
		if p.Length <= 0 || p.Width <= 0 || p.Quantity <= 0 {
			return fmt.Errorf("part %d (%s): length, width and quantity must be positive", i+1, p.Label)
		}
		var err error
		if total, err = checkInstances(total, p.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func validatePolygonParts(parts []model.PolygonPart) error {
	if len(parts) == 0 {
		return errors.New("no parts given")
	}
	total := 0
	for i, p := range parts {
		if !p.Polygon.Valid() {
			return fmt.Errorf("part %d (%s): outline needs at least 3 points and a non-zero area", i+1, p.Label)
		}
		if p.Quantity <= 0 {
			return fmt.Errorf("part %d (%s): quantity must be positive", i+1, p.Label)
		}
		var err error
		if total, err = checkInstances(total, p.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleNestRectangles(c *gin.Context) {
	var req rectNestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateParts(req.Parts); err != nil {
		badRequest(c, err)
		return
	}
	n, err := s.nesterFor(req.Sheet)
	if err != nil {
		badRequest(c, err)
		return
	}

	result := n.NestRectangles(req.Parts)
	if !result.Feasible {
		s.log.Warnf("rectangle nest placed %d oversized parts", countOversized(result))
	}
	c.JSON(http.StatusOK, nestResponse{
		Result: result,
		Layout: result.Layout(n.Sheet()),
		Orders: model.BuildOrderLines(result.Placements),
	})
}

func (s *Server) handleNestPolygons(c *gin.Context) {
	var req polygonNestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validatePolygonParts(req.Parts); err != nil {
		badRequest(c, err)
		return
	}
	n, err := s.nesterFor(req.Sheet)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := n.NestPolygons(c.Request.Context(), req.Parts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "nesting timed out"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !result.Feasible {
		s.log.Warn("polygon nest forced parts onto sheets they do not fit")
	}
	c.JSON(http.StatusOK, nestResponse{
		Result: result,
		Layout: result.Layout(n.Sheet()),
		Orders: model.BuildPolygonOrderLines(result.Placements),
	})
}

func (s *Server) handleCompare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateParts(req.Parts); err != nil {
		badRequest(c, err)
		return
	}
	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = engine.BuildDefaultScenarios(s.nester.Sheet())
	}
	c.JSON(http.StatusOK, engine.CompareScenarios(scenarios, req.Parts))
}

func (s *Server) handleImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("missing upload field \"file\": %w", err))
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	res, err := s.loader.LoadReader(header.Filename, f)
	if err != nil {
		if errors.Is(err, importer.ErrFileTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		if code := importer.CodeOf(err); code != "" {
			s.log.Warnf("import of %s failed: %v", header.Filename, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": code, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleOrders(c *gin.Context) {
	var req ordersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lines := model.BuildOrderLines(req.Placements)
	lines = append(lines, model.BuildPolygonOrderLines(req.PolygonPlacements)...)
	if len(lines) == 0 {
		badRequest(c, errors.New("no placements given"))
		return
	}
	c.JSON(http.StatusOK, ordersResponse{
		Lines:    lines,
		Estimate: model.EstimateCost(lines, *s.catalog),
	})
}

func countOversized(r model.NestResult) int {
	n := 0
	for _, p := range r.Placements {
		if p.Oversized {
			n++
		}
	}
	return n
}
