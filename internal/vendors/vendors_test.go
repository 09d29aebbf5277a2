package vendors

import (
	"encoding/json"
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func quality(v float64) *float64 {
	return &v
}

func TestRank_LandedCostOrdersVendors(t *testing.T) {
	a := Vendor{ID: "a", Name: "A", BasePrice: 100, Freight: 10, CreditDays: 30, InterestRatePercent: 12}
	b := Vendor{ID: "b", Name: "B", BasePrice: 90, Freight: 20, CreditDays: 0, InterestRatePercent: 12}

	c := Rank([]Vendor{b, a})

	nearlyEqual(t, "A landed", LandedCost(a), 100+10-(100*30*0.12/365))
	nearlyEqual(t, "B landed", LandedCost(b), 110)
	if math.Abs(LandedCost(a)-108.86) > 0.005 {
		t.Fatalf("A landed = %v, want ≈108.86", LandedCost(a))
	}

	if c.Vendors[0].Vendor.ID != "a" || c.Vendors[0].Label != "L1" || c.Vendors[0].Rank != 1 {
		t.Fatalf("expected A as L1, got %+v", c.Vendors[0])
	}
	if c.Vendors[1].Vendor.ID != "b" || c.Vendors[1].Label != "L2" {
		t.Fatalf("expected B as L2, got %+v", c.Vendors[1])
	}
	if c.L1 == nil || c.L1.Vendor.ID != "a" {
		t.Fatalf("L1 pointer not set to A: %+v", c.L1)
	}
	nearlyEqual(t, "B gap to L1", c.Vendors[1].GapToL1, 110-LandedCost(a))
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	list := []Vendor{
		{ID: "first", BasePrice: 50, Freight: 5},
		{ID: "cheap", BasePrice: 40, Freight: 5},
		{ID: "second", BasePrice: 50, Freight: 5},
		{ID: "third", BasePrice: 45, Freight: 10},
	}

	c := Rank(list)
	got := []string{c.Vendors[0].Vendor.ID, c.Vendors[1].Vendor.ID, c.Vendors[2].Vendor.ID, c.Vendors[3].Vendor.ID}
	want := []string{"cheap", "first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRank_EmptySet(t *testing.T) {
	c := Rank(nil)
	if len(c.Vendors) != 0 || c.L1 != nil {
		t.Fatalf("expected empty comparison, got %+v", c)
	}
}

func TestRank_ValueScore(t *testing.T) {
	list := []Vendor{
		{ID: "a", BasePrice: 100, Freight: 10, CreditDays: 30, Quality: quality(90)},
		{ID: "b", BasePrice: 80, Freight: 20, CreditDays: 60},
	}

	c := Rank(list)
	byID := map[string]Ranked{}
	for _, r := range c.Vendors {
		byID[r.Vendor.ID] = r
	}

	a := byID["a"]
	if !a.Scored {
		t.Fatalf("vendor a should be scored")
	}
	nearlyEqual(t, "a price", a.Score.Price, 32)
	nearlyEqual(t, "a credit", a.Score.Credit, 10)
	nearlyEqual(t, "a logistics", a.Score.Logistics, 20)
	nearlyEqual(t, "a quality", a.Score.Quality, 18)
	nearlyEqual(t, "a total", a.Score.Total, 80)

	b := byID["b"]
	nearlyEqual(t, "b price", b.Score.Price, 40)
	nearlyEqual(t, "b credit", b.Score.Credit, 20)
	nearlyEqual(t, "b logistics", b.Score.Logistics, 10)
	nearlyEqual(t, "b quality (default)", b.Score.Quality, 20)
	nearlyEqual(t, "b total", b.Score.Total, 90)
}

func TestRank_ScoreEdgeCases(t *testing.T) {
	list := []Vendor{
		{ID: "free-freight", BasePrice: 100, Freight: 0},
		{ID: "paid-freight", BasePrice: 100, Freight: 15},
		{ID: "unpriced", BasePrice: 0, Freight: 5, CreditDays: 10},
	}

	c := Rank(list)
	byID := map[string]Ranked{}
	for _, r := range c.Vendors {
		byID[r.Vendor.ID] = r
	}

	nearlyEqual(t, "free freight logistics", byID["free-freight"].Score.Logistics, 20)
	nearlyEqual(t, "paid freight logistics", byID["paid-freight"].Score.Logistics, 0)
	nearlyEqual(t, "credit without credit days", byID["free-freight"].Score.Credit, 0)

	unpriced := byID["unpriced"]
	if unpriced.Scored || unpriced.Score.Total != 0 {
		t.Fatalf("unpriced vendor should be unscored, got %+v", unpriced)
	}
}

func TestRank_IsIdempotent(t *testing.T) {
	list := []Vendor{
		{ID: "a", BasePrice: 100, Freight: 10, CreditDays: 30, InterestRatePercent: 12},
		{ID: "b", BasePrice: 90, Freight: 20, InterestRatePercent: 12, Quality: quality(70)},
	}

	first, second := Rank(list), Rank(list)
	for i := range first.Vendors {
		if first.Vendors[i].LandedCost != second.Vendors[i].LandedCost || first.Vendors[i].Score != second.Vendors[i].Score {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestRank_OverflowReportsZero(t *testing.T) {
	cmp := Rank([]Vendor{{ID: "big", Name: "Bulk Mills", BasePrice: 1e300, Quantity: 1e300}})

	if got := cmp.Vendors[0]; got.LandedCost != 1e300 || got.OrderCost != 0 {
		t.Fatalf("overflowing order cost should read as 0: %+v", got)
	}
	if _, err := json.Marshal(cmp); err != nil {
		t.Fatalf("comparison should encode: %v", err)
	}

	trades := EvaluateTrades([]Vendor{{ID: "big", Name: "Bulk Mills", BasePrice: 1e300, Quantity: 1e300}})
	if got := trades.Trades[0]; got.GrossMargin != 0 || got.RealizedMargin != 0 {
		t.Fatalf("overflowing margins should read as 0: %+v", got)
	}
	if _, err := json.Marshal(trades); err != nil {
		t.Fatalf("trade summary should encode: %v", err)
	}
}
