package importer

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groups renders alternating code/value arguments as DXF text.
func groups(kv ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "%3v\n%v\n", kv[i], kv[i+1])
	}
	return b.String()
}

func entitiesSection(body ...string) string {
	return groups(0, "SECTION", 2, "ENTITIES") + strings.Join(body, "") + groups(0, "ENDSEC", 0, "EOF")
}

func lwRect(x, y, w, h float64) string {
	return groups(0, "LWPOLYLINE", 8, "0", 90, 4, 70, 1,
		10, x, 20, y, 10, x+w, 20, y, 10, x+w, 20, y+h, 10, x, 20, y+h)
}

func testSettings() model.NestSettings {
	return model.DefaultSettings()
}

func TestTokenize(t *testing.T) {
	pairs, err := tokenize("  0\r\nSECTION\r\n  2\r\nENTITIES\r\n\r\n")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, groupPair{code: 0, value: "SECTION"}, pairs[0])
	assert.Equal(t, groupPair{code: 2, value: "ENTITIES"}, pairs[1])

	_, err = tokenize("0\nSECTION\nabc\nENTITIES\n")
	assert.Error(t, err)

	_, err = tokenize("0\nSECTION\n2\n")
	assert.Error(t, err, "dangling group code")
}

func TestIsBinaryDXF(t *testing.T) {
	assert.True(t, isBinaryDXF([]byte("AutoCAD Binary DXF\r\n\x1a\x00")))
	assert.True(t, isBinaryDXF([]byte{'0', '\n', 0x00, 0x01}))
	assert.False(t, isBinaryDXF([]byte(entitiesSection(lwRect(0, 0, 10, 10)))))
}

func TestParseDocument_EntityKinds(t *testing.T) {
	content := entitiesSection(
		groups(0, "LINE", 8, "CUT", 10, 0, 20, 0, 11, 100, 21, 0),
		lwRect(0, 0, 100, 50),
		groups(0, "CIRCLE", 10, 50, 20, 50, 40, 25),
		groups(0, "ARC", 10, 0, 20, 0, 40, 10, 50, 0, 51, 90),
		groups(0, "ELLIPSE", 10, 0, 20, 0, 11, 20, 21, 0, 40, 0.5, 41, 0, 42, 2*math.Pi),
		groups(0, "SPLINE", 70, 8, 71, 1, 10, 0, 20, 0, 10, 10, 20, 10),
		groups(0, "INSERT", 2, "B1", 10, 5, 20, 5),
		groups(0, "TEXT", 1, "hello"),
	)
	doc, err := ParseDocument(content)
	require.NoError(t, err)
	require.Len(t, doc.Entities, 7)

	line, ok := doc.Entities[0].(*Line)
	require.True(t, ok)
	assert.Equal(t, "CUT", line.EntityLayer())
	assert.Equal(t, model.Point2D{X: 100, Y: 0}, line.End)

	lw, ok := doc.Entities[1].(*LwPolyline)
	require.True(t, ok)
	assert.True(t, lw.Closed)
	assert.Len(t, lw.Vertices, 4)

	assert.IsType(t, &Circle{}, doc.Entities[2])
	assert.IsType(t, &Arc{}, doc.Entities[3])
	assert.IsType(t, &Ellipse{}, doc.Entities[4])
	assert.IsType(t, &Spline{}, doc.Entities[5])

	ins, ok := doc.Entities[6].(*Insert)
	require.True(t, ok)
	assert.Equal(t, "B1", ins.Block)
	assert.Equal(t, 1.0, ins.ScaleX)

	assert.Equal(t, 1, doc.Skipped["TEXT"])
}

func TestParseDocument_OldStylePolyline(t *testing.T) {
	content := entitiesSection(
		groups(0, "POLYLINE", 66, 1, 70, 1),
		groups(0, "VERTEX", 10, 0, 20, 0),
		groups(0, "VERTEX", 10, 40, 20, 0),
		groups(0, "VERTEX", 10, 40, 20, 30),
		groups(0, "SEQEND"),
		groups(0, "CIRCLE", 10, 0, 20, 0, 40, 5),
	)
	doc, err := ParseDocument(content)
	require.NoError(t, err)
	require.Len(t, doc.Entities, 2)

	pl := doc.Entities[0].(*LwPolyline)
	assert.True(t, pl.Closed)
	assert.Equal(t, []model.Point2D{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 30}}, pl.Vertices)
	assert.IsType(t, &Circle{}, doc.Entities[1])
}

func TestParseDocument_SkipsOtherSectionsAndKeepsLayers(t *testing.T) {
	content := groups(0, "SECTION", 2, "HEADER", 9, "$INSUNITS", 70, 4, 0, "ENDSEC") +
		groups(0, "SECTION", 2, "TABLES", 0, "TABLE", 2, "LAYER", 0, "ENDTAB", 0, "ENDSEC") +
		entitiesSection(
			groups(0, "POLYLINE", 8, "OUTLINE", 66, 1, 70, 1),
			groups(0, "VERTEX", 8, "OUTLINE", 10, 0, 20, 0),
			groups(0, "VERTEX", 8, "OUTLINE", 10, 40, 20, 0),
			groups(0, "VERTEX", 8, "OUTLINE", 10, 40, 20, 30),
			groups(0, "SEQEND"),
			groups(0, "CIRCLE", 8, "HOLES", 10, 20, 20, 15, 40, 5),
		)

	doc, err := ParseDocument(content)
	require.NoError(t, err)
	require.Len(t, doc.Entities, 2)
	assert.Equal(t, "OUTLINE", doc.Entities[0].EntityLayer())
	assert.Equal(t, "HOLES", doc.Entities[1].EntityLayer())
	assert.Empty(t, doc.Skipped)
}

func TestParseDocument_Blocks(t *testing.T) {
	content := groups(0, "SECTION", 2, "BLOCKS") +
		groups(0, "BLOCK", 2, "SQ", 10, 0, 20, 0) +
		lwRect(0, 0, 10, 10) +
		groups(0, "ENDBLK") +
		groups(0, "ENDSEC") +
		entitiesSection(groups(0, "INSERT", 2, "SQ", 10, 100, 20, 0))

	doc, err := ParseDocument(content)
	require.NoError(t, err)
	require.Contains(t, doc.Blocks, "SQ")
	assert.Len(t, doc.Blocks["SQ"].Entities, 1)
	assert.Len(t, doc.Entities, 1)
}

func TestFlatten_InsertTransform(t *testing.T) {
	content := groups(0, "SECTION", 2, "BLOCKS") +
		groups(0, "BLOCK", 2, "SQ", 10, 0, 20, 0) +
		lwRect(0, 0, 10, 20) +
		groups(0, "ENDBLK") +
		groups(0, "ENDSEC") +
		entitiesSection(groups(0, "INSERT", 2, "SQ", 10, 100, 20, 50, 41, 2, 42, 2, 50, 90))

	doc, err := ParseDocument(content)
	require.NoError(t, err)

	paths, _ := flattenDocument(doc, testSettings())
	require.Len(t, paths, 1)
	b := model.Polygon(paths[0].Points).BBox()
	// Scaled to 20x40, then turned a quarter: 40 wide, 20 tall, left of the insertion point
	assert.InDelta(t, 40.0, b.Width, 1e-9)
	assert.InDelta(t, 20.0, b.Height, 1e-9)
	assert.InDelta(t, 60.0, b.MinX, 1e-9)
	assert.InDelta(t, 50.0, b.MinY, 1e-9)
}

func TestFlatten_NestedInsertDepthLimit(t *testing.T) {
	// A block that inserts itself recurses until the depth limit
	content := groups(0, "SECTION", 2, "BLOCKS") +
		groups(0, "BLOCK", 2, "LOOP", 10, 0, 20, 0) +
		lwRect(0, 0, 5, 5) +
		groups(0, "INSERT", 2, "LOOP", 10, 10, 20, 0) +
		groups(0, "ENDBLK") +
		groups(0, "ENDSEC") +
		entitiesSection(groups(0, "INSERT", 2, "LOOP", 10, 0, 20, 0))

	doc, err := ParseDocument(content)
	require.NoError(t, err)

	paths, warnings := flattenDocument(doc, testSettings())
	assert.Len(t, paths, maxInsertDepth)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "nested deeper")
}

func TestFlatten_CircleAndEllipseSegments(t *testing.T) {
	content := entitiesSection(
		groups(0, "CIRCLE", 10, 0, 20, 0, 40, 10),
		groups(0, "ELLIPSE", 10, 0, 20, 0, 11, 20, 21, 0, 40, 0.5, 41, 0, 42, 2*math.Pi),
	)
	doc, err := ParseDocument(content)
	require.NoError(t, err)

	paths, _ := flattenDocument(doc, testSettings())
	require.Len(t, paths, 2)
	assert.True(t, paths[0].Closed)
	assert.Len(t, paths[0].Points, 64)
	assert.True(t, paths[1].Closed)
	assert.Len(t, paths[1].Points, 64)

	eb := model.Polygon(paths[1].Points).BBox()
	assert.InDelta(t, 40.0, eb.Width, 1e-6)
	assert.InDelta(t, 20.0, eb.Height, 1e-6)
}

func TestFlatten_ChainsLinesAndArcs(t *testing.T) {
	// A 100x50 slot with a rounded right end: three lines plus a half arc
	content := entitiesSection(
		groups(0, "LINE", 10, 0, 20, 0, 11, 100, 21, 0),
		groups(0, "ARC", 10, 100, 20, 25, 40, 25, 50, 270, 51, 90),
		groups(0, "LINE", 10, 100, 20, 50, 11, 0, 21, 50),
		groups(0, "LINE", 10, 0, 20, 50, 11, 0, 21, 0),
	)
	doc, err := ParseDocument(content)
	require.NoError(t, err)

	paths, _ := flattenDocument(doc, testSettings())
	require.Len(t, paths, 1)
	assert.True(t, paths[0].Closed)
	b := model.Polygon(paths[0].Points).BBox()
	assert.InDelta(t, 125.0, b.Width, 1e-6)
	assert.InDelta(t, 50.0, b.Height, 1e-6)
}

func TestFlatten_OpenChainStaysOpen(t *testing.T) {
	content := entitiesSection(
		groups(0, "LINE", 10, 0, 20, 0, 11, 100, 21, 0),
		groups(0, "LINE", 10, 100, 20, 0, 11, 100, 21, 50),
	)
	doc, err := ParseDocument(content)
	require.NoError(t, err)

	paths, _ := flattenDocument(doc, testSettings())
	require.Len(t, paths, 1)
	assert.False(t, paths[0].Closed)
	assert.Len(t, paths[0].Points, 3)
}

func TestBulgeArcPoints_Semicircle(t *testing.T) {
	// Bulge 1 from (10,0) to (-10,0) is a counter-clockwise half circle through (0,10)
	pts := bulgeArcPoints(model.Point2D{X: 10}, model.Point2D{X: -10}, 1, 32)
	require.Len(t, pts, 33)
	mid := pts[16]
	assert.InDelta(t, 0.0, mid.X, 1e-9)
	assert.InDelta(t, 10.0, mid.Y, 1e-9)

	pts = bulgeArcPoints(model.Point2D{X: 10}, model.Point2D{X: -10}, -1, 32)
	assert.InDelta(t, -10.0, pts[16].Y, 1e-9)
}

func TestSplinePoints(t *testing.T) {
	// Clamped quadratic B-spline: passes through the end control points
	s := &Spline{
		Degree:  2,
		Knots:   []float64{0, 0, 0, 1, 1, 1},
		Control: []model.Point2D{{X: 0, Y: 0}, {X: 50, Y: 100}, {X: 100, Y: 0}},
	}
	pts := splinePoints(s, 32)
	require.Len(t, pts, 33)
	assert.InDelta(t, 0.0, pts[0].X, 1e-9)
	assert.InDelta(t, 100.0, pts[32].X, 1e-9)
	assert.InDelta(t, 0.0, pts[32].Y, 1e-9)
	// Apex of the quadratic Bezier is half the control height
	assert.InDelta(t, 50.0, pts[16].X, 1e-9)
	assert.InDelta(t, 50.0, pts[16].Y, 1e-9)

	// Inconsistent knots fall back to the control polygon
	s.Knots = []float64{0, 1}
	assert.Equal(t, s.Control, splinePoints(s, 32))
}

func TestAffineThen(t *testing.T) {
	shift := affine{a: 1, d: 1, e: 10}
	double := affine{a: 2, d: 2}
	p := shift.then(double).apply(model.Point2D{X: 1, Y: 1})
	assert.Equal(t, model.Point2D{X: 12, Y: 2}, p)
}
