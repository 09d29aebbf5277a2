// Package financing computes what a payment delay costs when the seller funds it at a simple
// annual interest rate, prorated daily over a 365-day year.
package financing

import (
	"encoding/json"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// DaysPerYear is the proration base for interest.
const DaysPerYear = 365.0

// Inputs are per-unit figures plus the funding terms of the delay.
type Inputs struct {
	UnitCost            float64 `json:"unitCost"`
	SellingPrice        float64 `json:"sellingPrice"`
	InterestRatePercent float64 `json:"interestRatePercent"`
	DelayDays           float64 `json:"delayDays"`
}

// UnmarshalJSON accepts numbers sent as text. Unreadable values decode as 0.
func (in *Inputs) UnmarshalJSON(b []byte) error {
	var raw struct {
		UnitCost            numeric.Value `json:"unitCost"`
		SellingPrice        numeric.Value `json:"sellingPrice"`
		InterestRatePercent numeric.Value `json:"interestRatePercent"`
		DelayDays           numeric.Value `json:"delayDays"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = Inputs{
		UnitCost:            raw.UnitCost.Float(),
		SellingPrice:        raw.SellingPrice.Float(),
		InterestRatePercent: raw.InterestRatePercent.Float(),
		DelayDays:           raw.DelayDays.Float(),
	}
	return nil
}

// Result is the financing impact of a single delay.
type Result struct {
	DelayDays          float64 `json:"delayDays"`
	GrossProfit        float64 `json:"grossProfit"`
	FinancingCost      float64 `json:"financingCost"`
	NetProfit          float64 `json:"netProfit"`
	ErosionPercent     float64 `json:"erosionPercent"`
	ErosionDefined     bool    `json:"erosionDefined"`
	GrossMarginPercent float64 `json:"grossMarginPercent"`
	NetMarginPercent   float64 `json:"netMarginPercent"`
	DailyCarryCost     float64 `json:"dailyCarryCost"`
	BreakEvenDays      float64 `json:"breakEvenDays"`
}

// Cost returns cost × days × (rate/100) / 365.
func Cost(cost, ratePercent, days float64) float64 {
	return numeric.Finite(cost * days * (ratePercent / 100) / DaysPerYear)
}

// Calculate computes gross and net profit for the delay. Erosion is the share of gross profit
// consumed by financing and is only defined while gross profit is positive.
func Calculate(in Inputs) Result {
	cost := numeric.Finite(in.UnitCost)
	price := numeric.Finite(in.SellingPrice)
	rate := numeric.Finite(in.InterestRatePercent)
	days := numeric.Finite(in.DelayDays)

	gross := numeric.Finite(price - cost)
	financing := Cost(cost, rate, days)
	net := numeric.Finite(gross - financing)
	daily := Cost(cost, rate, 1)

	r := Result{
		DelayDays:          days,
		GrossProfit:        gross,
		FinancingCost:      financing,
		NetProfit:          net,
		GrossMarginPercent: numeric.Finite(numeric.Div(gross, price) * 100),
		NetMarginPercent:   numeric.Finite(numeric.Div(net, price) * 100),
		DailyCarryCost:     daily,
	}
	if gross > 0 {
		r.ErosionPercent = numeric.Finite(numeric.Div(financing, gross) * 100)
		r.ErosionDefined = true
		r.BreakEvenDays = numeric.Div(gross, daily)
	}
	return r
}

// Project evaluates the same unit economics across several delays, in the given order.
func Project(in Inputs, days []float64) []Result {
	out := make([]Result, 0, len(days))
	for _, d := range days {
		step := in
		step.DelayDays = d
		out = append(out, Calculate(step))
	}
	return out
}

// StandardDelays are the delays shown in the comparison table when none are requested.
var StandardDelays = []float64{0, 30, 45, 60, 75, 90, 120, 180}
