// Package products tracks profitability across the products on the quantities dashboard.
package products

import (
	"encoding/json"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// Product is one dashboard line.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Qty           float64 `json:"qty"`
	VendorCost    float64 `json:"vendorCost"`
	CustomerPrice float64 `json:"customerPrice"`
}

// UnmarshalJSON accepts numbers sent as text. Unreadable values decode as 0.
func (p *Product) UnmarshalJSON(b []byte) error {
	type plain Product
	var raw struct {
		plain
		Qty           numeric.Value `json:"qty"`
		VendorCost    numeric.Value `json:"vendorCost"`
		CustomerPrice numeric.Value `json:"customerPrice"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Product(raw.plain)
	p.Qty = raw.Qty.Float()
	p.VendorCost = raw.VendorCost.Float()
	p.CustomerPrice = raw.CustomerPrice.Float()
	return nil
}

// MarginPercent is the markup of customer price over vendor cost, 0 without a vendor cost.
func (p Product) MarginPercent() float64 {
	cost := numeric.Finite(p.VendorCost)
	return numeric.Finite(numeric.Div(numeric.Finite(p.CustomerPrice)-cost, cost) * 100)
}

// SetMarginPercent back-solves CustomerPrice from VendorCost for the given markup.
func (p Product) SetMarginPercent(margin float64) Product {
	p.CustomerPrice = numeric.Finite(p.VendorCost) * (1 + numeric.Finite(margin)/100)
	return p
}

// Line is the computed view of a product.
type Line struct {
	Product       Product `json:"product"`
	UnitProfit    float64 `json:"unitProfit"`
	MarginPercent float64 `json:"marginPercent"`
	TotalCost     float64 `json:"totalCost"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalProfit   float64 `json:"totalProfit"`
}

// Totals aggregates all lines.
type Totals struct {
	Qty           float64 `json:"qty"`
	Cost          float64 `json:"cost"`
	Revenue       float64 `json:"revenue"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"marginPercent"`
}

// Dashboard is the full quantities dashboard.
type Dashboard struct {
	Lines  []Line `json:"lines"`
	Totals Totals `json:"totals"`
}

// Summarize computes per-line and blended figures. Blended margin is profit over cost.
func Summarize(list []Product) Dashboard {
	d := Dashboard{Lines: make([]Line, 0, len(list))}
	for _, p := range list {
		qty := numeric.Finite(p.Qty)
		cost := numeric.Finite(p.VendorCost)
		price := numeric.Finite(p.CustomerPrice)

		line := Line{
			Product:       p,
			UnitProfit:    numeric.Finite(price - cost),
			MarginPercent: p.MarginPercent(),
			TotalCost:     numeric.Finite(qty * cost),
			TotalRevenue:  numeric.Finite(qty * price),
		}
		line.TotalProfit = numeric.Finite(line.TotalRevenue - line.TotalCost)
		d.Lines = append(d.Lines, line)

		d.Totals.Qty += qty
		d.Totals.Cost += line.TotalCost
		d.Totals.Revenue += line.TotalRevenue
		d.Totals.Profit += line.TotalProfit
	}
	d.Totals.Qty = numeric.Finite(d.Totals.Qty)
	d.Totals.Cost = numeric.Finite(d.Totals.Cost)
	d.Totals.Revenue = numeric.Finite(d.Totals.Revenue)
	d.Totals.Profit = numeric.Finite(d.Totals.Profit)
	d.Totals.MarginPercent = numeric.Finite(numeric.Div(d.Totals.Profit, d.Totals.Cost) * 100)
	return d
}
