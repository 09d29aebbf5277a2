package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_TypicalBag(t *testing.T) {
	result := Calculate(Inputs{
		PPRateInrPerKg:          120,
		ConversionCostInrPerBag: 2.5,
		BagWeightGrams:          80,
		TransportInrPerBag:      0.5,
		ProfitMarginPercent:     15,
	})

	nearlyEqual(t, "bagWeightKg", result.Breakdown.BagWeightKg, 0.08)
	nearlyEqual(t, "materialCost", result.Breakdown.MaterialCost, 9.6)
	nearlyEqual(t, "effectiveConversion", result.Breakdown.EffectiveConversion, 3)
	nearlyEqual(t, "vendorCost", result.Breakdown.VendorCost, 12.6)
	nearlyEqual(t, "sellPrice", result.Breakdown.SellPrice, 14.49)
	nearlyEqual(t, "netProfit", result.Breakdown.NetProfit, 1.89)
	nearlyEqual(t, "pricePerKg", result.PerKg.Price, 181.125)
	nearlyEqual(t, "vendorCostPerKg", result.PerKg.VendorCost, 157.5)
}

func TestCalculate_CostIdentitiesHold(t *testing.T) {
	inputs := []Inputs{
		{},
		{PPRateInrPerKg: 95.5, BagWeightGrams: 45},
		{PPRateInrPerKg: 140, ConversionCostInrPerBag: 3.2, BagWeightGrams: 120, TransportInrPerBag: 1.1, ProfitMarginPercent: 22.5},
		{PPRateInrPerKg: 1e6, ConversionCostInrPerBag: 1e3, BagWeightGrams: 1e4, TransportInrPerBag: 17, ProfitMarginPercent: 300},
	}

	for _, in := range inputs {
		r := Calculate(in)
		b := r.Breakdown
		nearlyEqual(t, "vendorCost identity", b.VendorCost, b.MaterialCost+b.EffectiveConversion)
		nearlyEqual(t, "sellPrice identity", b.SellPrice, b.VendorCost*(1+in.ProfitMarginPercent/100))
		nearlyEqual(t, "netProfit identity", b.NetProfit, b.SellPrice-b.VendorCost)
	}
}

func TestCalculate_ZeroWeightHasNoPerKgFigures(t *testing.T) {
	result := Calculate(Inputs{PPRateInrPerKg: 120, ConversionCostInrPerBag: 2, TransportInrPerBag: 1, ProfitMarginPercent: 10})

	if result.PerKg.Price != 0 || result.PerKg.VendorCost != 0 || result.PerKg.Profit != 0 {
		t.Fatalf("expected zero per-kg figures, got %+v", result.PerKg)
	}
	nearlyEqual(t, "vendorCost", result.Breakdown.VendorCost, 3)
	nearlyEqual(t, "sellPrice", result.Breakdown.SellPrice, 3.3)
}

func TestCalculate_NonFiniteInputsReadAsZero(t *testing.T) {
	result := Calculate(Inputs{
		PPRateInrPerKg:      math.NaN(),
		BagWeightGrams:      100,
		TransportInrPerBag:  math.Inf(1),
		ProfitMarginPercent: 10,
	})

	if result.Breakdown.VendorCost != 0 || result.Breakdown.SellPrice != 0 {
		t.Fatalf("expected zero costs, got %+v", result.Breakdown)
	}
}

func TestCalculate_IsIdempotent(t *testing.T) {
	in := Inputs{PPRateInrPerKg: 133.3, ConversionCostInrPerBag: 1.7, BagWeightGrams: 63, TransportInrPerBag: 0.9, ProfitMarginPercent: 18}
	if Calculate(in) != Calculate(in) {
		t.Fatalf("expected identical results for identical inputs")
	}
}

func TestScale(t *testing.T) {
	r := Calculate(Inputs{PPRateInrPerKg: 100, BagWeightGrams: 50, ConversionCostInrPerBag: 1, ProfitMarginPercent: 20})
	totals := r.Scale(1000)

	nearlyEqual(t, "totalCost", totals.TotalCost, 6000)
	nearlyEqual(t, "revenue", totals.Revenue, 7200)
	nearlyEqual(t, "profit", totals.Profit, 1200)
	nearlyEqual(t, "tonnageKg", totals.TonnageKg, 50)

	if neg := r.Scale(-5); neg.Bags != 0 || neg.Revenue != 0 {
		t.Fatalf("negative order size should clamp to 0, got %+v", neg)
	}
}
