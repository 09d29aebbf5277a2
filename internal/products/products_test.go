package products

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMarginPercent(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want float64
	}{
		{"markup", Product{VendorCost: 80, CustomerPrice: 100}, 25},
		{"loss", Product{VendorCost: 100, CustomerPrice: 90}, -10},
		{"no cost", Product{CustomerPrice: 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.MarginPercent(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MarginPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetMarginPercentBackSolvesPrice(t *testing.T) {
	p := Product{Name: "Woven sack 50kg", VendorCost: 12.6, CustomerPrice: 1}.SetMarginPercent(15)

	if math.Abs(p.CustomerPrice-14.49) > 1e-9 {
		t.Fatalf("customerPrice = %v, want 14.49", p.CustomerPrice)
	}
	if math.Abs(p.MarginPercent()-15) > 1e-9 {
		t.Fatalf("round-trip margin = %v, want 15", p.MarginPercent())
	}
}

func TestSummarize(t *testing.T) {
	d := Summarize([]Product{
		{ID: "1", Name: "Sack", Qty: 1000, VendorCost: 10, CustomerPrice: 12},
		{ID: "2", Name: "Liner", Qty: 500, VendorCost: 4, CustomerPrice: 5},
	})

	if len(d.Lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(d.Lines))
	}
	if d.Lines[0].TotalProfit != 2000 || d.Lines[1].TotalProfit != 500 {
		t.Fatalf("unexpected line profits: %+v", d.Lines)
	}
	if d.Totals.Qty != 1500 || d.Totals.Cost != 12000 || d.Totals.Revenue != 14500 || d.Totals.Profit != 2500 {
		t.Fatalf("unexpected totals: %+v", d.Totals)
	}
	if math.Abs(d.Totals.MarginPercent-2500.0/12000.0*100) > 1e-9 {
		t.Fatalf("blended margin = %v", d.Totals.MarginPercent)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	d := Summarize(nil)
	if len(d.Lines) != 0 || d.Totals != (Totals{}) {
		t.Fatalf("expected empty dashboard, got %+v", d)
	}
}

func TestSummarizeOverflowReportsZero(t *testing.T) {
	d := Summarize([]Product{{ID: "1", Name: "Bulk", Qty: 1e200, VendorCost: 1e200, CustomerPrice: 1e200}})

	line := d.Lines[0]
	if line.TotalCost != 0 || line.TotalRevenue != 0 || line.TotalProfit != 0 {
		t.Fatalf("overflowing line totals should read as 0: %+v", line)
	}
	if d.Totals.Qty != 1e200 || d.Totals.Cost != 0 || d.Totals.Revenue != 0 || d.Totals.Profit != 0 {
		t.Fatalf("unexpected totals: %+v", d.Totals)
	}
	if _, err := json.Marshal(d); err != nil {
		t.Fatalf("dashboard should encode: %v", err)
	}
}

func TestProductReadsNumbersSentAsText(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id": "p1", "name": "Liner", "qty": "12", "vendorCost": "", "customerPrice": "abc"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p != (Product{ID: "p1", Name: "Liner", Qty: 12}) {
		t.Fatalf("unexpected product: %+v", p)
	}
}
