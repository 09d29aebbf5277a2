package vendors

import (
	"github.com/Simplici0/costdesk/internal/financing"
	"github.com/Simplici0/costdesk/internal/numeric"
)

// NoPick names the placeholder returned when there is nothing to choose from.
const NoPick = "—"

// Trade is the buy/sell evaluation of one vendor against the customer's payment terms.
type Trade struct {
	Vendor             Vendor  `json:"vendor"`
	LandedCost         float64 `json:"landedCost"`
	CashGapDays        float64 `json:"cashGapDays"`
	GapFinancingCost   float64 `json:"gapFinancingCost"`
	UnitMargin         float64 `json:"unitMargin"`
	GrossMargin        float64 `json:"grossMargin"`
	RealizedMargin     float64 `json:"realizedMargin"`
	RealizedMarginUnit float64 `json:"realizedMarginPerUnit"`
}

// Pick identifies the winning vendor of a reduction. Found is false for an empty set, in
// which case Name is NoPick.
type Pick struct {
	Name  string  `json:"name"`
	ID    string  `json:"id,omitempty"`
	Value float64 `json:"value"`
	Found bool    `json:"found"`
}

// TradeSummary is the evaluated set plus the best-profit and lowest-cost picks.
type TradeSummary struct {
	Trades     []Trade `json:"trades"`
	BestProfit Pick    `json:"bestProfit"`
	LowestCost Pick    `json:"lowestCost"`
}

// EvaluateTrade computes the cash gap between customer and vendor credit and what funding it
// costs. A positive gap is self-funded and reduces margin; a negative gap is a benefit.
func EvaluateTrade(v Vendor) Trade {
	landed := LandedCost(v)
	qty := numeric.Finite(v.Quantity)
	gap := numeric.Finite(numeric.Finite(v.CustomerCreditDays) - numeric.Finite(v.CreditDays))
	gapCost := financing.Cost(landed, numeric.Finite(v.InterestRatePercent), gap)
	unitMargin := numeric.Finite(numeric.Finite(v.SellingPrice) - landed)

	return Trade{
		Vendor:             v,
		LandedCost:         landed,
		CashGapDays:        gap,
		GapFinancingCost:   gapCost,
		UnitMargin:         unitMargin,
		GrossMargin:        numeric.Finite(unitMargin * qty),
		RealizedMargin:     numeric.Finite(unitMargin*qty - gapCost*qty),
		RealizedMarginUnit: numeric.Finite(unitMargin - gapCost),
	}
}

// EvaluateTrades evaluates every vendor, keeping input order, and picks the vendor with the
// highest realized margin and the one with the lowest landed cost. Ties go to the earlier vendor.
func EvaluateTrades(list []Vendor) TradeSummary {
	summary := TradeSummary{
		Trades:     make([]Trade, 0, len(list)),
		BestProfit: Pick{Name: NoPick},
		LowestCost: Pick{Name: NoPick},
	}

	for _, v := range list {
		t := EvaluateTrade(v)
		summary.Trades = append(summary.Trades, t)

		if !summary.BestProfit.Found || t.RealizedMargin > summary.BestProfit.Value {
			summary.BestProfit = Pick{Name: v.Name, ID: v.ID, Value: t.RealizedMargin, Found: true}
		}
		if !summary.LowestCost.Found || t.LandedCost < summary.LowestCost.Value {
			summary.LowestCost = Pick{Name: v.Name, ID: v.ID, Value: t.LandedCost, Found: true}
		}
	}
	return summary
}
