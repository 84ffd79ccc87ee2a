package engine

import (
	"fmt"

	"github.com/piwi3910/FoamNest/internal/model"
	"gonum.org/v1/gonum/stat"
)

// ComparisonScenario defines a named sheet variant to compare.
type ComparisonScenario struct {
	Name  string      `json:"name"`
	Sheet model.Sheet `json:"sheet"`
}

// ComparisonResult holds the packing result and computed statistics for a
// single scenario.
type ComparisonResult struct {
	Scenario        ComparisonScenario `json:"scenario"`
	Result          model.NestResult   `json:"result"`
	SheetsUsed      int                `json:"sheets_used"`
	WastePercent    float64            `json:"waste_percent"`
	MeanUtilization float64            `json:"mean_utilization"`
	StdUtilization  float64            `json:"std_utilization"`
}

// CompareScenarios runs the rectangle packer for each scenario and returns
// the results in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, parts []model.Part) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result := PackRectangles(parts, scenario.Sheet)
		perSheet := sheetUtilizations(result, scenario.Sheet)

		cr := ComparisonResult{
			Scenario:     scenario,
			Result:       result,
			SheetsUsed:   result.SheetsUsed,
			WastePercent: 100 * (1 - result.Utilization),
		}
		if len(perSheet) > 0 {
			cr.MeanUtilization = stat.Mean(perSheet, nil)
		}
		if len(perSheet) > 1 {
			cr.StdUtilization = stat.StdDev(perSheet, nil)
		}
		if result.SheetsUsed == 0 {
			cr.WastePercent = 0
		}
		results = append(results, cr)
	}

	return results
}

// sheetUtilizations returns the fraction of usable area covered on each sheet.
func sheetUtilizations(result model.NestResult, sheet model.Sheet) []float64 {
	usable := sheet.UsableArea()
	if result.SheetsUsed == 0 || usable <= 0 {
		return nil
	}
	used := make([]float64, result.SheetsUsed)
	for _, p := range result.Placements {
		used[p.SheetIndex] += p.Area()
	}
	for i := range used {
		used[i] /= usable
	}
	return used
}

// BuildDefaultScenarios derives what-if sheet variants from the current sheet.
func BuildDefaultScenarios(sheet model.Sheet) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Sheet: sheet},
	}

	// Thinner blade or wire
	if sheet.Kerf > 1.0 {
		half := sheet
		half.Kerf = sheet.Kerf * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:  fmt.Sprintf("Kerf %.1fmm (half)", half.Kerf),
			Sheet: half,
		})
	}

	if sheet.Margin > 0 {
		noMargin := sheet
		noMargin.Margin = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:  "No Margin",
			Sheet: noMargin,
		})
	}

	if sheet.Length != sheet.Width {
		rotated := sheet
		rotated.Length, rotated.Width = sheet.Width, sheet.Length
		scenarios = append(scenarios, ComparisonScenario{
			Name:  "Rotated Sheet",
			Sheet: rotated,
		})
	}

	return scenarios
}
