package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/FoamNest/internal/model"
)

// defaultPartHeight is the thickness given to JSON parts without one.
const defaultPartHeight = 50.0

// jsonEntry is one decoded element of a JSON part list.
type jsonEntry struct {
	part    model.Part
	polygon model.Polygon
}

// ParseJSONParts reads a JSON array of part objects. length, width, height
// and quantity may be numbers or numeric strings; height defaults to 50 and
// quantity to 1. Entries with a non-positive length, width or quantity are
// dropped. A root value that is not an array is an error.
func ParseJSONParts(text string) ([]model.Part, error) {
	entries, _, err := parseJSONEntries(text, defaultPartHeight)
	if err != nil {
		return nil, err
	}
	parts := make([]model.Part, len(entries))
	for i, e := range entries {
		parts[i] = e.part
	}
	return parts, nil
}

// parseJSONEntries decodes the array and returns the valid entries plus one
// warning per dropped element. Entries carrying a "polygon" or "points"
// outline take missing length/width from its bounding box.
func parseJSONEntries(text string, defaultHeight float64) ([]jsonEntry, []string, error) {
	var root any
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	items, ok := root.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("JSON root must be an array of parts, got %s", jsonKind(root))
	}

	var entries []jsonEntry
	var warnings []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Item %d: not an object, skipped", i+1))
			continue
		}

		var poly model.Polygon
		if raw, ok := firstKey(obj, "polygon", "points"); ok {
			p, err := decodePolygon(raw)
			if err != nil || !p.Valid() {
				warnings = append(warnings, fmt.Sprintf("Item %d: invalid polygon, skipped", i+1))
				continue
			}
			poly = p.Normalize()
		}

		length, hasLength := numberField(obj, "length")
		width, hasWidth := numberField(obj, "width")
		if poly != nil {
			b := poly.BBox()
			if !hasLength {
				length = b.Height
			}
			if !hasWidth {
				width = b.Width
			}
		}

		height, ok := numberField(obj, "height", "thickness")
		if !ok || height <= 0 {
			height = defaultHeight
		}
		qty := 1
		if q, ok := numberField(obj, "quantity", "qty"); ok {
			qty = int(q)
		}

		if length <= 0 || width <= 0 || qty <= 0 {
			warnings = append(warnings, fmt.Sprintf("Item %d: length, width and quantity must be positive, skipped", i+1))
			continue
		}

		label := stringField(obj, "label", "name")
		if label == "" {
			label = fmt.Sprintf("Part %d", len(entries)+1)
		}
		part := model.NewPart(label, length, width, height, qty)
		part.FoamTypeID = stringField(obj, "foamTypeId", "foam_type_id", "foam")
		entries = append(entries, jsonEntry{part: part, polygon: poly})
	}
	return entries, warnings, nil
}

func firstKey(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// numberField coerces the first present key from a number or numeric string.
func numberField(obj map[string]any, keys ...string) (float64, bool) {
	v, ok := firstKey(obj, keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringField(obj map[string]any, keys ...string) string {
	v, ok := firstKey(obj, keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// decodePolygon re-decodes a generic value so Point2D accepts both the
// [x, y] and {x, y} forms.
func decodePolygon(v any) (model.Polygon, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p model.Polygon
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return "unknown"
}
