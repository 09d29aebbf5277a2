// Package vendors compares supplier quotes by landed cost (true cost of ownership) and by a
// weighted value score, and evaluates buy/sell pairs for the cash gap they create.
package vendors

import (
	"fmt"
	"sort"

	"github.com/Simplici0/costdesk/internal/financing"
	"github.com/Simplici0/costdesk/internal/numeric"
)

// Score weights out of 100.
const (
	PriceWeight     = 40.0
	CreditWeight    = 20.0
	LogisticsWeight = 20.0
	QualityWeight   = 20.0

	// DefaultQuality applies when a vendor has no quality rating.
	DefaultQuality = 100.0
)

// Vendor is a single comparison or buying record.
type Vendor struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	BasePrice           float64  `json:"basePrice"`
	Freight             float64  `json:"freight"`
	CreditDays          float64  `json:"creditDays"`
	InterestRatePercent float64  `json:"interestRatePercent"`
	Quantity            float64  `json:"quantity"`
	SellingPrice        float64  `json:"sellingPrice"`
	CustomerCreditDays  float64  `json:"customerCreditDays"`
	Quality             *float64 `json:"quality,omitempty"`
}

// QualityOrDefault returns the vendor's quality rating, or DefaultQuality when unset.
func (v Vendor) QualityOrDefault() float64 {
	if v.Quality == nil {
		return DefaultQuality
	}
	return numeric.Finite(*v.Quality)
}

// CreditSavings is the interest the buyer keeps by paying CreditDays later.
func CreditSavings(v Vendor) float64 {
	return financing.Cost(numeric.Finite(v.BasePrice), numeric.Finite(v.InterestRatePercent), numeric.Finite(v.CreditDays))
}

// LandedCost is base price plus freight, net of credit savings.
func LandedCost(v Vendor) float64 {
	return numeric.Finite(numeric.Finite(v.BasePrice) + numeric.Finite(v.Freight) - CreditSavings(v))
}

// ScoreBreakdown is the weighted value score and its four parts.
type ScoreBreakdown struct {
	Price     float64 `json:"price"`
	Credit    float64 `json:"credit"`
	Logistics float64 `json:"logistics"`
	Quality   float64 `json:"quality"`
	Total     float64 `json:"total"`
}

// Ranked is a vendor with its computed cost figures and position.
type Ranked struct {
	Vendor        Vendor         `json:"vendor"`
	CreditSavings float64        `json:"creditSavings"`
	LandedCost    float64        `json:"landedCost"`
	OrderCost     float64        `json:"orderCost"`
	Rank          int            `json:"rank"`
	Label         string         `json:"label"`
	GapToL1       float64        `json:"gapToL1"`
	Score         ScoreBreakdown `json:"score"`
	Scored        bool           `json:"scored"`
}

// Comparison is the ranked view of a vendor set.
type Comparison struct {
	Vendors []Ranked `json:"vendors"`
	L1      *Ranked  `json:"l1,omitempty"`
}

// Rank computes landed costs and value scores and orders vendors by ascending landed cost.
// Equal landed costs keep their input order.
func Rank(list []Vendor) Comparison {
	refs := referenceValues(list)

	ranked := make([]Ranked, len(list))
	for i, v := range list {
		landed := LandedCost(v)
		ranked[i] = Ranked{
			Vendor:        v,
			CreditSavings: CreditSavings(v),
			LandedCost:    landed,
			OrderCost:     numeric.Finite(landed * numeric.Finite(v.Quantity)),
		}
		ranked[i].Score, ranked[i].Scored = score(v, refs)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].LandedCost < ranked[b].LandedCost
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Label = fmt.Sprintf("L%d", i+1)
		ranked[i].GapToL1 = numeric.Finite(ranked[i].LandedCost - ranked[0].LandedCost)
	}

	c := Comparison{Vendors: ranked}
	if len(ranked) > 0 {
		l1 := ranked[0]
		c.L1 = &l1
	}
	return c
}

type references struct {
	minPrice   float64
	maxDays    float64
	minFreight float64
}

// referenceValues finds the best price among priced vendors, the longest credit period and
// the cheapest freight.
func referenceValues(list []Vendor) references {
	var refs references
	pricedSeen, freightSeen := false, false
	for _, v := range list {
		price := numeric.Finite(v.BasePrice)
		if price > 0 && (!pricedSeen || price < refs.minPrice) {
			refs.minPrice = price
			pricedSeen = true
		}
		if days := numeric.Finite(v.CreditDays); days > refs.maxDays {
			refs.maxDays = days
		}
		freight := numeric.Finite(v.Freight)
		if !freightSeen || freight < refs.minFreight {
			refs.minFreight = freight
			freightSeen = true
		}
	}
	return refs
}

// score returns the weighted value score. Vendors without a base price are not scored.
func score(v Vendor, refs references) (ScoreBreakdown, bool) {
	price := numeric.Finite(v.BasePrice)
	if price <= 0 {
		return ScoreBreakdown{}, false
	}

	var s ScoreBreakdown
	s.Price = PriceWeight * numeric.Div(refs.minPrice, price)
	s.Credit = CreditWeight * numeric.Div(numeric.Finite(v.CreditDays), refs.maxDays)

	freight := numeric.Finite(v.Freight)
	if freight == 0 && refs.minFreight == 0 {
		s.Logistics = LogisticsWeight
	} else {
		s.Logistics = LogisticsWeight * numeric.Div(refs.minFreight, freight)
	}

	s.Quality = numeric.Finite(QualityWeight * v.QualityOrDefault() / 100)
	s.Total = numeric.Finite(s.Price + s.Credit + s.Logistics + s.Quality)
	return s, true
}
