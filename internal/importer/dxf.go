package importer

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
)

const binaryDXFSentinel = "AutoCAD Binary DXF"

// isBinaryDXF reports whether data looks like a binary DXF file rather than
// the ASCII group-code format.
func isBinaryDXF(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.HasPrefix(head, []byte(binaryDXFSentinel)) {
		return true
	}
	for _, b := range head {
		if b == 0 || (b < 0x20 && b != '\n' && b != '\r' && b != '\t') {
			return true
		}
	}
	return false
}

// groupPair is one code/value line pair of an ASCII DXF file.
type groupPair struct {
	code  int
	value string
}

func (g groupPair) asFloat() float64 {
	v, err := strconv.ParseFloat(g.value, 64)
	if err != nil {
		return 0
	}
	return v
}

func (g groupPair) asInt() int {
	v, err := strconv.Atoi(g.value)
	if err != nil {
		return int(g.asFloat())
	}
	return v
}

// tokenize splits ASCII DXF text into group pairs. A non-numeric group code
// or a dangling code without a value is a syntax error.
func tokenize(content string) ([]groupPair, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("line %d: group code has no value", len(lines))
	}

	pairs := make([]groupPair, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		codeText := strings.TrimSpace(lines[i])
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group code %q", i+1, codeText)
		}
		pairs = append(pairs, groupPair{code: code, value: strings.TrimSpace(lines[i+1])})
	}
	return pairs, nil
}

// Entity is one supported DXF drawing entity. The concrete types are Line,
// LwPolyline, Circle, Arc, Ellipse, Spline and Insert.
type Entity interface {
	EntityLayer() string
}

type entityBase struct {
	Layer string
}

func (b entityBase) EntityLayer() string { return b.Layer }

type Line struct {
	entityBase
	Start, End model.Point2D
}

// LwPolyline also carries old-style POLYLINE/VERTEX sequences.
type LwPolyline struct {
	entityBase
	Vertices []model.Point2D
	Bulges   []float64 // one per vertex, bulge of the segment to the next vertex
	Closed   bool
}

type Circle struct {
	entityBase
	Center model.Point2D
	Radius float64
}

// Arc angles are in degrees, counter-clockwise from StartAngle to EndAngle.
type Arc struct {
	entityBase
	Center     model.Point2D
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// Ellipse parameters are in radians; MajorAxis is relative to Center.
type Ellipse struct {
	entityBase
	Center     model.Point2D
	MajorAxis  model.Point2D
	Ratio      float64
	StartParam float64
	EndParam   float64
}

type Spline struct {
	entityBase
	Degree    int
	Closed    bool
	Knots     []float64
	Control   []model.Point2D
	FitPoints []model.Point2D
}

// Insert places a copy of a BLOCKS definition.
type Insert struct {
	entityBase
	Block    string
	Position model.Point2D
	ScaleX   float64
	ScaleY   float64
	Rotation float64 // degrees
}

// Block is a named entity group from the BLOCKS section.
type Block struct {
	Name     string
	Base     model.Point2D
	Entities []Entity
}

// Document holds the parsed geometry of a DXF file.
type Document struct {
	Entities []Entity
	Blocks   map[string]*Block
	Skipped  map[string]int // unsupported entity types by count
}

// ParseDocument reads ASCII DXF text. The group pairs frame the sections,
// block definitions and INSERT references; every geometry record is decoded
// by dxf-go and mapped onto the Entity types.
func ParseDocument(content string) (*Document, error) {
	pairs, err := tokenize(content)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Blocks:  make(map[string]*Block),
		Skipped: make(map[string]int),
	}

	var section string
	var block *Block
	for i := 0; i < len(pairs); {
		p := pairs[i]
		if p.code != 0 {
			i++
			continue
		}
		switch p.value {
		case "SECTION":
			section = ""
			if i+1 < len(pairs) && pairs[i+1].code == 2 {
				section = pairs[i+1].value
				i++
			}
			i++
			continue
		case "ENDSEC":
			section = ""
			i++
			continue
		case "EOF":
			return doc, nil
		}

		// Group all pairs up to the next entity start. Fragments without a
		// SECTION header are read as entities.
		j := i + 1
		for j < len(pairs) && pairs[j].code != 0 {
			j++
		}

		if section == "BLOCKS" && p.value == "BLOCK" {
			block = parseBlockHeader(pairs[i+1 : j])
			i = j
			continue
		}
		if section == "BLOCKS" && p.value == "ENDBLK" {
			if block != nil && block.Name != "" {
				doc.Blocks[block.Name] = block
			}
			block = nil
			i = j
			continue
		}
		if section != "BLOCKS" && section != "ENTITIES" && section != "" {
			i = j
			continue
		}

		ent, next, err := readEntity(pairs, i, j)
		if err != nil {
			return nil, err
		}
		switch {
		case ent == nil:
			doc.Skipped[p.value]++
		case section == "BLOCKS":
			if block != nil {
				block.Entities = append(block.Entities, ent)
			}
		default:
			doc.Entities = append(doc.Entities, ent)
		}
		i = next
	}
	return doc, nil
}

func parseBlockHeader(body []groupPair) *Block {
	b := &Block{}
	for _, g := range body {
		switch g.code {
		case 2:
			b.Name = g.value
		case 10:
			b.Base.X = g.asFloat()
		case 20:
			b.Base.Y = g.asFloat()
		}
	}
	return b
}

func layerOf(body []groupPair) entityBase {
	for _, g := range body {
		if g.code == 8 {
			return entityBase{Layer: g.value}
		}
	}
	return entityBase{}
}

// geometryKinds are the record types handed to dxf-go.
var geometryKinds = map[string]bool{
	"LINE":       true,
	"LWPOLYLINE": true,
	"POLYLINE":   true,
	"CIRCLE":     true,
	"ARC":        true,
	"ELLIPSE":    true,
	"SPLINE":     true,
}

// readEntity reads the record starting at pairs[start], whose own group pairs
// end at next. POLYLINE also consumes its VERTEX and SEQEND records, so the
// returned index can lie past next. Unsupported types yield a nil entity.
func readEntity(pairs []groupPair, start, next int) (Entity, int, error) {
	kind := pairs[start].value
	base := layerOf(pairs[start+1 : next])
	if kind == "INSERT" {
		return parseInsert(base, pairs[start+1:next]), next, nil
	}
	if !geometryKinds[kind] {
		return nil, next, nil
	}

	end := next
	if kind == "POLYLINE" {
		end = polylineEnd(pairs, next)
	}
	ent, err := decodeRecord(pairs[start:end], base)
	if err != nil {
		return nil, end, fmt.Errorf("%s at group %d: %w", kind, start+1, err)
	}
	return ent, end, nil
}

// polylineEnd returns the index after the VERTEX records and the closing
// SEQEND that follow a POLYLINE header.
func polylineEnd(pairs []groupPair, next int) int {
	j := next
	for j < len(pairs) && pairs[j].code == 0 && pairs[j].value == "VERTEX" {
		j++
		for j < len(pairs) && pairs[j].code != 0 {
			j++
		}
	}
	if j < len(pairs) && pairs[j].code == 0 && pairs[j].value == "SEQEND" {
		j++
		for j < len(pairs) && pairs[j].code != 0 {
			j++
		}
	}
	return j
}

// decodeRecord wraps one entity record in an ENTITIES section and reads it
// with dxf-go.
func decodeRecord(record []groupPair, base entityBase) (Entity, error) {
	var b strings.Builder
	b.WriteString("  0\nSECTION\n  2\nENTITIES\n")
	for _, g := range record {
		fmt.Fprintf(&b, "%3d\n%s\n", g.code, g.value)
	}
	b.WriteString("  0\nENDSEC\n  0\nEOF\n")

	parsed, err := document.DxfDocumentFromStream(strings.NewReader(b.String()))
	if err != nil {
		return nil, err
	}
	for _, e := range parsed.Entities.Entities {
		if ent := fromLibrary(e, base); ent != nil {
			return ent, nil
		}
	}
	return nil, nil
}

func point2D(x, y float64) model.Point2D {
	return model.Point2D{X: x, Y: y}
}

// fromLibrary maps a dxf-go entity onto the package's Entity types.
func fromLibrary(e any, base entityBase) Entity {
	switch v := e.(type) {
	case *entities.Line:
		return &Line{
			entityBase: base,
			Start:      point2D(v.Start.X, v.Start.Y),
			End:        point2D(v.End.X, v.End.Y),
		}

	case *entities.LWPolyline:
		out := &LwPolyline{entityBase: base, Closed: v.Closed}
		for _, p := range v.Points {
			out.Vertices = append(out.Vertices, point2D(p.Point.X, p.Point.Y))
			out.Bulges = append(out.Bulges, p.Bulge)
		}
		return out

	case *entities.Polyline:
		out := &LwPolyline{entityBase: base, Closed: v.Closed}
		for _, vx := range v.Vertices {
			out.Vertices = append(out.Vertices, point2D(vx.Location.X, vx.Location.Y))
			out.Bulges = append(out.Bulges, vx.Bulge)
		}
		return out

	case *entities.Circle:
		return &Circle{entityBase: base, Center: point2D(v.Center.X, v.Center.Y), Radius: v.Radius}

	case *entities.Arc:
		return &Arc{
			entityBase: base,
			Center:     point2D(v.Center.X, v.Center.Y),
			Radius:     v.Radius,
			StartAngle: v.StartAngle,
			EndAngle:   v.EndAngle,
		}

	case *entities.Ellipse:
		out := &Ellipse{
			entityBase: base,
			Center:     point2D(v.Center.X, v.Center.Y),
			MajorAxis:  point2D(v.MajorAxisEnd.X, v.MajorAxisEnd.Y),
			Ratio:      v.MinorToMajorAxisRatio,
			StartParam: v.StartParameter,
			EndParam:   v.EndParameter,
		}
		if out.Ratio == 0 {
			out.Ratio = 1
		}
		if out.EndParam == out.StartParam {
			out.EndParam = out.StartParam + 2*math.Pi
		}
		return out

	case *entities.Spline:
		out := &Spline{entityBase: base, Degree: int(v.Degree), Closed: v.Closed, Knots: v.KnotValues}
		if out.Degree <= 0 {
			out.Degree = 3
		}
		for _, p := range v.ControlPoints {
			out.Control = append(out.Control, point2D(p.X, p.Y))
		}
		for _, p := range v.FitPoints {
			out.FitPoints = append(out.FitPoints, point2D(p.X, p.Y))
		}
		return out
	}
	return nil
}

func parseInsert(base entityBase, body []groupPair) *Insert {
	e := &Insert{entityBase: base, ScaleX: 1, ScaleY: 1}
	for _, g := range body {
		switch g.code {
		case 2:
			e.Block = g.value
		case 10:
			e.Position.X = g.asFloat()
		case 20:
			e.Position.Y = g.asFloat()
		case 41:
			e.ScaleX = g.asFloat()
		case 42:
			e.ScaleY = g.asFloat()
		case 50:
			e.Rotation = g.asFloat()
		}
	}
	return e
}
