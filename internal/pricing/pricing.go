package pricing

import (
	"encoding/json"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// Inputs represents the per-bag inputs of the unit economics calculator.
type Inputs struct {
	PPRateInrPerKg          float64 `json:"ppRateInrPerKg"`
	ConversionCostInrPerBag float64 `json:"conversionCostInrPerBag"`
	BagWeightGrams          float64 `json:"bagWeightGrams"`
	TransportInrPerBag      float64 `json:"transportInrPerBag"`
	ProfitMarginPercent     float64 `json:"profitMarginPercent"`
}

// UnmarshalJSON accepts numbers sent as text. Unreadable values decode as 0.
func (in *Inputs) UnmarshalJSON(b []byte) error {
	var raw struct {
		PPRateInrPerKg          numeric.Value `json:"ppRateInrPerKg"`
		ConversionCostInrPerBag numeric.Value `json:"conversionCostInrPerBag"`
		BagWeightGrams          numeric.Value `json:"bagWeightGrams"`
		TransportInrPerBag      numeric.Value `json:"transportInrPerBag"`
		ProfitMarginPercent     numeric.Value `json:"profitMarginPercent"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = Inputs{
		PPRateInrPerKg:          raw.PPRateInrPerKg.Float(),
		ConversionCostInrPerBag: raw.ConversionCostInrPerBag.Float(),
		BagWeightGrams:          raw.BagWeightGrams.Float(),
		TransportInrPerBag:      raw.TransportInrPerBag.Float(),
		ProfitMarginPercent:     raw.ProfitMarginPercent.Float(),
	}
	return nil
}

// Breakdown contains all per-bag values of the pricing calculation.
type Breakdown struct {
	BagWeightKg         float64 `json:"bagWeightKg"`
	MaterialCost        float64 `json:"materialCost"`
	EffectiveConversion float64 `json:"effectiveConversion"`
	VendorCost          float64 `json:"vendorCost"`
	SellPrice           float64 `json:"sellPrice"`
	NetProfit           float64 `json:"netProfit"`
}

// PerKg contains the breakdown re-expressed per kilogram of bag weight.
type PerKg struct {
	VendorCost float64 `json:"vendorCostPerKg"`
	Price      float64 `json:"pricePerKg"`
	Profit     float64 `json:"profitPerKg"`
}

// Result groups the full pricing output.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	PerKg     PerKg     `json:"perKg"`
}

// Calculate computes the per-bag unit economics. Any non-finite input or intermediate is read
// as 0, and per-kg figures are 0 when the bag weight is 0.
func Calculate(in Inputs) Result {
	rate := numeric.Finite(in.PPRateInrPerKg)
	conversion := numeric.Finite(in.ConversionCostInrPerBag)
	grams := numeric.Finite(in.BagWeightGrams)
	transport := numeric.Finite(in.TransportInrPerBag)
	margin := numeric.Finite(in.ProfitMarginPercent)

	bagWeightKg := grams / 1000.0
	materialCost := numeric.Finite(rate * bagWeightKg)
	effectiveConversion := numeric.Finite(conversion + transport)
	vendorCost := numeric.Finite(materialCost + effectiveConversion)
	sellPrice := numeric.Finite(vendorCost * (1.0 + margin/100.0))
	netProfit := numeric.Finite(sellPrice - vendorCost)

	return Result{
		Breakdown: Breakdown{
			BagWeightKg:         bagWeightKg,
			MaterialCost:        materialCost,
			EffectiveConversion: effectiveConversion,
			VendorCost:          vendorCost,
			SellPrice:           sellPrice,
			NetProfit:           netProfit,
		},
		PerKg: PerKg{
			VendorCost: numeric.Div(vendorCost, bagWeightKg),
			Price:      numeric.Div(sellPrice, bagWeightKg),
			Profit:     numeric.Div(netProfit, bagWeightKg),
		},
	}
}

// OrderTotals scales a per-bag result to an order of Bags bags.
type OrderTotals struct {
	Bags      float64 `json:"bags"`
	TotalCost float64 `json:"totalCost"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	TonnageKg float64 `json:"tonnageKg"`
}

// Scale returns order-level totals for the given number of bags.
func (r Result) Scale(bags float64) OrderTotals {
	bags = numeric.Finite(bags)
	if bags < 0 {
		bags = 0
	}
	return OrderTotals{
		Bags:      bags,
		TotalCost: numeric.Finite(r.Breakdown.VendorCost * bags),
		Revenue:   numeric.Finite(r.Breakdown.SellPrice * bags),
		Profit:    numeric.Finite(r.Breakdown.NetProfit * bags),
		TonnageKg: numeric.Finite(r.Breakdown.BagWeightKg * bags),
	}
}
