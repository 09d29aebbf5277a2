package packing

import (
	"math"
	"testing"

	"github.com/Simplici0/costdesk/internal/units"
)

func truckInputs() Inputs {
	return Inputs{
		Unit:              units.Centimeter,
		Vehicle:           units.Dimensions{Length: 1000, Width: 200, Height: 250},
		Bale:              units.Dimensions{Length: 100, Width: 100, Height: 100},
		EfficiencyPercent: 100,
	}
}

func TestCompute_AxisCountsAndEfficiency(t *testing.T) {
	tests := []struct {
		name       string
		efficiency float64
		wantCount  int
	}{
		{"full efficiency", 100, 40},
		{"eighty percent", 80, 32},
		{"zero efficiency", 0, 0},
		{"fractional result floors", 33, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := truckInputs()
			in.EfficiencyPercent = tt.efficiency

			est := Compute(in)

			if est.Axis != (AxisCounts{Length: 10, Width: 2, Height: 2}) {
				t.Fatalf("axis = %+v, want {10 2 2}", est.Axis)
			}
			if est.TotalSlots != 40 {
				t.Fatalf("totalSlots = %d, want 40", est.TotalSlots)
			}
			if est.EffectiveCount != tt.wantCount || est.Count != tt.wantCount {
				t.Fatalf("effective = %d count = %d, want %d", est.EffectiveCount, est.Count, tt.wantCount)
			}
		})
	}
}

func TestCompute_ConvertsUnitsBeforeDividing(t *testing.T) {
	in := Inputs{
		Unit:              units.Meter,
		Vehicle:           units.Dimensions{Length: 10, Width: 2, Height: 2.5},
		Bale:              units.Dimensions{Length: 1, Width: 1, Height: 1},
		EfficiencyPercent: 100,
	}

	est := Compute(in)
	if est.VehicleCm.Height != 250 || est.TotalSlots != 40 {
		t.Fatalf("unexpected estimate: %+v", est)
	}
}

func TestCompute_ZeroItemAxisCountsAsOne(t *testing.T) {
	in := truckInputs()
	in.Bale.Height = 0

	est := Compute(in)
	if est.Axis.Height != 1 {
		t.Fatalf("height count = %d, want 1", est.Axis.Height)
	}
	if est.TotalSlots != 20 {
		t.Fatalf("totalSlots = %d, want 20", est.TotalSlots)
	}
}

func TestCompute_OverrideReplacesEffectiveCount(t *testing.T) {
	in := truckInputs()
	in.EfficiencyPercent = 80
	in.CustomCountOverride = 25
	in.PalletCapacityKg = 500
	in.PieceWeightKg = 0.25
	in.FreightChargeInr = 25000

	est := Compute(in)

	if !est.Overridden || est.Count != 25 || est.EffectiveCount != 32 {
		t.Fatalf("override not applied: %+v", est)
	}
	if est.PiecesPerPallet != 2000 {
		t.Fatalf("piecesPerPallet = %d, want 2000", est.PiecesPerPallet)
	}
	if est.TotalPieces != 50000 {
		t.Fatalf("totalPieces = %d, want 50000", est.TotalPieces)
	}
	if math.Abs(est.FreightPerUnit-1000) > 1e-9 {
		t.Fatalf("freightPerUnit = %v, want 1000", est.FreightPerUnit)
	}
	if math.Abs(est.FreightPerPiece-0.5) > 1e-9 {
		t.Fatalf("freightPerPiece = %v, want 0.5", est.FreightPerPiece)
	}
}

func TestCompute_ZeroPieceWeightNeedsInput(t *testing.T) {
	in := truckInputs()
	in.PalletCapacityKg = 500
	in.FreightChargeInr = 10000

	est := Compute(in)

	if est.PalletState != PalletNeedsInput {
		t.Fatalf("palletState = %q, want %q", est.PalletState, PalletNeedsInput)
	}
	if est.PiecesPerPallet != 0 || est.TotalPieces != 0 || est.FreightPerPiece != 0 {
		t.Fatalf("expected zero piece figures, got %+v", est)
	}
	if est.FreightPerUnit != 250 {
		t.Fatalf("freightPerUnit = %v, want 250", est.FreightPerUnit)
	}
}

func TestCompute_Utilization(t *testing.T) {
	in := truckInputs()
	in.EfficiencyPercent = 80

	est := Compute(in)
	if math.Abs(est.UtilizationPercent-64) > 1e-9 {
		t.Fatalf("utilization = %v, want 64", est.UtilizationPercent)
	}
}

func TestCompute_IsIdempotent(t *testing.T) {
	in := truckInputs()
	in.PieceWeightKg = 0.12
	in.PalletCapacityKg = 480
	if Compute(in) != Compute(in) {
		t.Fatalf("expected identical estimates")
	}
}

func TestLayout_FillsDepthThenHeightThenWidth(t *testing.T) {
	est := Compute(truckInputs())
	positions := Layout(est)

	if len(positions) != 40 {
		t.Fatalf("len(positions) = %d, want 40", len(positions))
	}
	if positions[1] != (Position{X: 100}) {
		t.Fatalf("second position should advance along depth, got %+v", positions[1])
	}
	if positions[10] != (Position{Y: 100}) {
		t.Fatalf("eleventh position should advance height, got %+v", positions[10])
	}
	if positions[20] != (Position{Z: 100}) {
		t.Fatalf("twenty-first position should advance width, got %+v", positions[20])
	}
}

func TestLayout_CapsRenderedItemsOnly(t *testing.T) {
	in := Inputs{
		Unit:              units.Centimeter,
		Vehicle:           units.Dimensions{Length: 100, Width: 100, Height: 100},
		Bale:              units.Dimensions{Length: 5, Width: 5, Height: 5},
		EfficiencyPercent: 100,
	}

	est := Compute(in)
	if est.Count != 8000 {
		t.Fatalf("count = %d, want 8000", est.Count)
	}
	if got := len(Layout(est)); got != MaxRenderedItems {
		t.Fatalf("rendered = %d, want %d", got, MaxRenderedItems)
	}
	if est.Count != 8000 {
		t.Fatalf("layout must not change the count")
	}
}

func TestLayout_OverrideBeyondSlotsRendersSlots(t *testing.T) {
	in := truckInputs()
	in.CustomCountOverride = 55

	if got := len(Layout(Compute(in))); got != 40 {
		t.Fatalf("rendered = %d, want 40", got)
	}
}
