package model

import "math"

// PurchaseEstimate holds the results of a sheet purchasing calculation.
type PurchaseEstimate struct {
	TotalPartArea     float64 `json:"total_part_area"`     // Total footprint of all parts incl. kerf (sq mm)
	TotalVolumeM3     float64 `json:"total_volume_m3"`     // Foam volume of all parts
	SheetArea         float64 `json:"sheet_area"`          // Usable area of one sheet (sq mm)
	SheetsNeededExact float64 `json:"sheets_needed_exact"` // Exact fractional number of sheets
	SheetsNeededMin   int     `json:"sheets_needed_min"`   // Minimum sheets (ceiling of exact)
	SheetsWithWaste   int     `json:"sheets_with_waste"`   // Recommended sheets including waste factor
	WastePercent      float64 `json:"waste_percent"`       // Waste factor applied (e.g., 15 for 15%)
	EstimatedCost     float64 `json:"estimated_cost"`      // Total cost if pricing available
	PricePerSheet     float64 `json:"price_per_sheet"`     // Price used for estimation
}

// CalculatePurchaseEstimate computes how many sheets to buy for a given part
// list. Each part is grown by the sheet kerf and compared against the usable
// (margin-trimmed) sheet area, then a waste percentage is applied.
func CalculatePurchaseEstimate(parts []Part, sheet Sheet, wastePercent, pricePerSheet float64) PurchaseEstimate {
	var totalPartArea, totalVolume float64
	for _, p := range parts {
		partW := p.Width + sheet.Kerf
		partL := p.Length + sheet.Kerf
		totalPartArea += partW * partL * float64(p.Quantity)
		totalVolume += p.Volume() * float64(p.Quantity)
	}

	sheetArea := sheet.UsableArea()
	if sheet.UsableWidth() <= 0 || sheet.UsableLength() <= 0 {
		return PurchaseEstimate{
			TotalPartArea: totalPartArea,
			TotalVolumeM3: totalVolume / mm3PerM3,
			WastePercent:  wastePercent,
		}
	}

	exactSheets := totalPartArea / sheetArea
	minSheets := int(math.Ceil(exactSheets))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	sheetsWithWaste := int(math.Ceil(exactSheets * wasteFactor))
	if sheetsWithWaste < minSheets {
		sheetsWithWaste = minSheets
	}

	return PurchaseEstimate{
		TotalPartArea:     totalPartArea,
		TotalVolumeM3:     totalVolume / mm3PerM3,
		SheetArea:         sheetArea,
		SheetsNeededExact: exactSheets,
		SheetsNeededMin:   minSheets,
		SheetsWithWaste:   sheetsWithWaste,
		WastePercent:      wastePercent,
		EstimatedCost:     float64(sheetsWithWaste) * pricePerSheet,
		PricePerSheet:     pricePerSheet,
	}
}
