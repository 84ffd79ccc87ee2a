package model

import (
	"math"
	"testing"
)

func TestCalculatePurchaseEstimateBasic(t *testing.T) {
	parts := []Part{
		{Label: "Part1", Length: 300, Width: 500, Height: 50, Quantity: 4},
	}
	sheet := Sheet{Length: 1220, Width: 2440, Kerf: 3, Margin: 0}
	est := CalculatePurchaseEstimate(parts, sheet, 15.0, 45.00)

	// Each part with kerf: 503 x 303, x4
	expectedArea := 503.0 * 303.0 * 4
	if math.Abs(est.TotalPartArea-expectedArea) > 0.1 {
		t.Errorf("expected total area %.1f, got %.1f", expectedArea, est.TotalPartArea)
	}
	if est.TotalVolumeM3 <= 0 {
		t.Error("expected positive volume")
	}
	if est.SheetsNeededMin != 1 {
		t.Errorf("expected 1 sheet, got %d", est.SheetsNeededMin)
	}
	if est.SheetsWithWaste < est.SheetsNeededMin {
		t.Error("sheets with waste should be >= minimum sheets")
	}
	if est.EstimatedCost != 45.0 {
		t.Errorf("expected cost 45, got %.2f", est.EstimatedCost)
	}
}

func TestCalculatePurchaseEstimateUsesMargin(t *testing.T) {
	parts := []Part{{Length: 100, Width: 100, Quantity: 1}}
	sheet := Sheet{Length: 120, Width: 120, Margin: 10}
	est := CalculatePurchaseEstimate(parts, sheet, 0, 0)
	if est.SheetArea != 100*100 {
		t.Errorf("expected usable area 10000, got %.1f", est.SheetArea)
	}
	if est.SheetsNeededMin != 1 {
		t.Errorf("expected exactly 1 sheet, got %d", est.SheetsNeededMin)
	}
}

func TestCalculatePurchaseEstimateZeroSheetArea(t *testing.T) {
	parts := []Part{{Label: "P1", Length: 100, Width: 100, Quantity: 1}}
	est := CalculatePurchaseEstimate(parts, Sheet{}, 10, 0)
	if est.SheetsNeededMin != 0 {
		t.Errorf("expected 0 sheets for zero sheet area, got %d", est.SheetsNeededMin)
	}
	if est.TotalPartArea <= 0 {
		t.Error("expected positive total part area even with zero sheet")
	}
}

func TestCalculatePurchaseEstimateWasteRoundsUp(t *testing.T) {
	parts := []Part{{Length: 100, Width: 100, Quantity: 10}}
	sheet := Sheet{Length: 1000, Width: 100}
	est := CalculatePurchaseEstimate(parts, sheet, 5, 10)
	if est.SheetsNeededMin != 1 {
		t.Errorf("expected 1 minimum sheet, got %d", est.SheetsNeededMin)
	}
	if est.SheetsWithWaste != 2 {
		t.Errorf("expected 2 sheets with waste, got %d", est.SheetsWithWaste)
	}
}
