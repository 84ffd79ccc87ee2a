package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
)

// LoadResult is everything extracted from one input file.
type LoadResult struct {
	Format       string              `json:"format"`
	Parts        []model.Part        `json:"parts"`
	PolygonParts []model.PolygonPart `json:"polygon_parts"`
	Paths        []model.DrawingPath `json:"paths,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// Loader reads part files. It holds no state between calls.
type Loader struct {
	Settings model.NestSettings
	// Catalog, when set, resolves foam names in imported files to IDs.
	Catalog *model.FoamCatalog
	// MaxBytes, when positive, caps what LoadReader reads. Longer input
	// fails with ErrFileTooLarge.
	MaxBytes int64
}

// ErrFileTooLarge is returned by LoadReader for input over Loader.MaxBytes.
var ErrFileTooLarge = errors.New("file too large")

func NewLoader(settings model.NestSettings) *Loader {
	return &Loader{Settings: settings}
}

// settings returns the loader settings with unset tessellation values
// replaced by their defaults.
func (l *Loader) settings() model.NestSettings {
	s := l.Settings
	d := model.DefaultSettings()
	if s.DefaultHeight <= 0 {
		s.DefaultHeight = d.DefaultHeight
	}
	if s.CircleSegments < 3 {
		s.CircleSegments = d.CircleSegments
	}
	if s.ArcSegments < 1 {
		s.ArcSegments = d.ArcSegments
	}
	if s.SplineSegments < 1 {
		s.SplineSegments = d.SplineSegments
	}
	if s.ChainTolerance <= 0 {
		s.ChainTolerance = d.ChainTolerance
	}
	return s
}

// LoadFile reads and loads the file at path.
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return l.Load(filepath.Base(path), data)
}

// LoadReader loads a file whose content is read from r. name selects the
// format by extension.
func (l *Loader) LoadReader(name string, r io.Reader) (*LoadResult, error) {
	if l.MaxBytes > 0 {
		r = io.LimitReader(r, l.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if l.MaxBytes > 0 && int64(len(data)) > l.MaxBytes {
		return nil, fmt.Errorf("reading %s: %w (limit %d bytes)", name, ErrFileTooLarge, l.MaxBytes)
	}
	return l.Load(name, data)
}

// Load parses data according to the extension of name. All failures are
// *FileLoaderError values.
func (l *Loader) Load(name string, data []byte) (*LoadResult, error) {
	ext := strings.ToLower(filepath.Ext(name))
	s := l.settings()

	var res *LoadResult
	var err error
	switch ext {
	case ".dxf":
		res, err = loadDXF(name, data, s)
	case ".json":
		res, err = loadJSON(data, s)
	case ".csv":
		res, err = loadTabular("csv", ParseCSV(data, s.DefaultHeight))
	case ".xlsx", ".xlsm":
		ir, xerr := ImportExcel(bytes.NewReader(data), s.DefaultHeight)
		if xerr != nil {
			return nil, loaderError(CodeParseError, xerr, "cannot read %s", name)
		}
		res, err = loadTabular("xlsx", ir)
	default:
		return nil, loaderError(CodeUnsupportedFormat, nil, "unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(res.Parts) == 0 {
		msg := fmt.Sprintf("no valid parts found in %s", name)
		if len(res.Warnings) > 0 {
			msg += ": " + res.Warnings[0]
		}
		return nil, loaderError(CodeNoData, nil, "%s", msg)
	}
	if l.Catalog != nil {
		resolveFoamTypes(res, l.Catalog)
	}
	return res, nil
}

func loadDXF(name string, data []byte, s model.NestSettings) (*LoadResult, error) {
	if isBinaryDXF(data) {
		return nil, loaderError(CodeBinaryDXF, nil, "%s is a binary DXF; save it as ASCII DXF", name)
	}
	doc, err := ParseDocument(string(data))
	if err != nil {
		return nil, loaderError(CodeParseError, err, "cannot parse %s", name)
	}

	paths, warnings := flattenDocument(doc, s)
	res := &LoadResult{Format: "dxf", Paths: paths, Warnings: warnings}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	index := make(map[[2]float64]int)
	n := 0
	for _, path := range paths {
		if !path.Closed {
			continue
		}
		poly := model.Polygon(path.Points)
		if !poly.Valid() {
			res.Warnings = append(res.Warnings, "Skipped degenerate outline")
			continue
		}
		n++
		pp := model.NewPolygonPart(fmt.Sprintf("%s #%d", base, n), poly.Normalize(), s.DefaultHeight, 1)
		res.PolygonParts = append(res.PolygonParts, pp)

		bp := pp.BoundingPart()
		key := [2]float64{model.RoundMM(bp.Length), model.RoundMM(bp.Width)}
		if i, ok := index[key]; ok {
			res.Parts[i].Quantity++
			continue
		}
		index[key] = len(res.Parts)
		res.Parts = append(res.Parts, bp)
	}
	return res, nil
}

func loadJSON(data []byte, s model.NestSettings) (*LoadResult, error) {
	entries, warnings, err := parseJSONEntries(string(data), s.DefaultHeight)
	if err != nil {
		return nil, loaderError(CodeParseError, err, "cannot parse JSON part list")
	}
	res := &LoadResult{Format: "json", Warnings: warnings}
	for _, e := range entries {
		res.Parts = append(res.Parts, e.part)
		poly := e.polygon
		if poly == nil {
			poly = model.RectPolygon(e.part.Width, e.part.Length)
		}
		res.PolygonParts = append(res.PolygonParts, polygonFromPart(e.part, poly))
	}
	return res, nil
}

func loadTabular(format string, ir ImportResult) (*LoadResult, error) {
	res := &LoadResult{Format: format}
	res.Warnings = append(res.Warnings, ir.Errors...)
	res.Warnings = append(res.Warnings, ir.Warnings...)
	for _, p := range ir.Parts {
		res.Parts = append(res.Parts, p)
		res.PolygonParts = append(res.PolygonParts, polygonFromPart(p, model.RectPolygon(p.Width, p.Length)))
	}
	return res, nil
}

// polygonFromPart builds the polygon counterpart of a part, sharing its ID.
func polygonFromPart(p model.Part, poly model.Polygon) model.PolygonPart {
	return model.PolygonPart{
		ID:         p.ID,
		Label:      p.Label,
		Polygon:    poly,
		Quantity:   p.Quantity,
		Height:     p.Height,
		FoamTypeID: p.FoamTypeID,
	}
}

// resolveFoamTypes replaces foam names with catalog IDs. Unknown references
// are kept as given and reported.
func resolveFoamTypes(res *LoadResult, catalog *model.FoamCatalog) {
	warned := make(map[string]bool)
	resolve := func(ref string) string {
		if ref == "" || catalog.FindByID(ref) != nil {
			return ref
		}
		if ft := catalog.FindByName(ref); ft != nil {
			return ft.ID
		}
		for _, ft := range catalog.Types {
			if strings.EqualFold(ft.Name, ref) {
				return ft.ID
			}
		}
		if !warned[ref] {
			warned[ref] = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("Unknown foam type %q", ref))
		}
		return ref
	}
	for i := range res.Parts {
		res.Parts[i].FoamTypeID = resolve(res.Parts[i].FoamTypeID)
	}
	for i := range res.PolygonParts {
		res.PolygonParts[i].FoamTypeID = resolve(res.PolygonParts[i].FoamTypeID)
	}
}
