package main

import (
	"net/http"
	"strings"

	"github.com/Simplici0/costdesk/internal/financing"
	"github.com/Simplici0/costdesk/internal/numeric"
	"github.com/Simplici0/costdesk/internal/packing"
	"github.com/Simplici0/costdesk/internal/pricing"
	"github.com/Simplici0/costdesk/internal/products"
	"github.com/Simplici0/costdesk/internal/units"
	"github.com/Simplici0/costdesk/internal/vendors"
)

// Form fields arrive as numbers or free text. numeric.Value reads both and never fails, so
// calculators always receive finite inputs.

type pricingRequest struct {
	PPRateInrPerKg          numeric.Value `json:"ppRateInrPerKg"`
	ConversionCostInrPerBag numeric.Value `json:"conversionCostInrPerBag"`
	BagWeightGrams          numeric.Value `json:"bagWeightGrams"`
	TransportInrPerBag      numeric.Value `json:"transportInrPerBag"`
	ProfitMarginPercent     numeric.Value `json:"profitMarginPercent"`
	Bags                    numeric.Value `json:"bags"`
}

func (req pricingRequest) inputs() pricing.Inputs {
	return pricing.Inputs{
		PPRateInrPerKg:          req.PPRateInrPerKg.Float(),
		ConversionCostInrPerBag: req.ConversionCostInrPerBag.Float(),
		BagWeightGrams:          req.BagWeightGrams.Float(),
		TransportInrPerBag:      req.TransportInrPerBag.Float(),
		ProfitMarginPercent:     req.ProfitMarginPercent.Float(),
	}
}

type pricingResponse struct {
	pricing.Result
	Order *pricing.OrderTotals `json:"order,omitempty"`
}

func (s *server) handlePricing(w http.ResponseWriter, r *http.Request) {
	var req pricingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := pricingResponse{Result: pricing.Calculate(req.inputs())}
	if bags := req.Bags.Float(); bags > 0 {
		order := resp.Result.Scale(bags)
		resp.Order = &order
	}
	writeJSON(w, http.StatusOK, resp)
}

type dimensionsRequest struct {
	Length numeric.Value `json:"length"`
	Width  numeric.Value `json:"width"`
	Height numeric.Value `json:"height"`
}

func (d dimensionsRequest) dimensions() units.Dimensions {
	return units.Dimensions{Length: d.Length.Float(), Width: d.Width.Float(), Height: d.Height.Float()}
}

type freightRequest struct {
	LengthUnit          string            `json:"lengthUnit"`
	Vehicle             dimensionsRequest `json:"vehicle"`
	Bale                dimensionsRequest `json:"bale"`
	FreightChargeInr    numeric.Value     `json:"freightChargeInr"`
	EfficiencyPercent   numeric.Value     `json:"efficiencyPercent"`
	PalletCapacityKg    numeric.Value     `json:"palletCapacityKg"`
	PieceWeightKg       numeric.Value     `json:"pieceWeightKg"`
	CustomCountOverride numeric.Value     `json:"customCountOverride"`
	IncludeLayout       bool              `json:"includeLayout"`
}

func (req freightRequest) inputs() packing.Inputs {
	return packing.Inputs{
		Unit:                units.Parse(req.LengthUnit),
		Vehicle:             req.Vehicle.dimensions(),
		Bale:                req.Bale.dimensions(),
		FreightChargeInr:    req.FreightChargeInr.Float(),
		EfficiencyPercent:   req.EfficiencyPercent.Float(),
		PalletCapacityKg:    req.PalletCapacityKg.Float(),
		PieceWeightKg:       req.PieceWeightKg.Float(),
		CustomCountOverride: req.CustomCountOverride.Float(),
	}
}

type freightResponse struct {
	Estimate packing.Estimate   `json:"estimate"`
	Layout   []packing.Position `json:"layout,omitempty"`
}

func (s *server) handleFreight(w http.ResponseWriter, r *http.Request) {
	var req freightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := freightResponse{Estimate: packing.Compute(req.inputs())}
	if req.IncludeLayout {
		resp.Layout = packing.Layout(resp.Estimate)
	}
	writeJSON(w, http.StatusOK, resp)
}

type financingRequest struct {
	UnitCost            numeric.Value   `json:"unitCost"`
	SellingPrice        numeric.Value   `json:"sellingPrice"`
	InterestRatePercent numeric.Value   `json:"interestRatePercent"`
	DelayDays           numeric.Value   `json:"delayDays"`
	CompareDays         []numeric.Value `json:"compareDays"`
}

type financingResponse struct {
	Result     financing.Result   `json:"result"`
	Projection []financing.Result `json:"projection"`
}

// handleFinancing evaluates the chosen delay and a comparison table. The table covers
// financing.StandardDelays unless the request names its own days.
func (s *server) handleFinancing(w http.ResponseWriter, r *http.Request) {
	var req financingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := financing.Inputs{
		UnitCost:            req.UnitCost.Float(),
		SellingPrice:        req.SellingPrice.Float(),
		InterestRatePercent: req.InterestRatePercent.Float(),
		DelayDays:           req.DelayDays.Float(),
	}
	days := financing.StandardDelays
	if len(req.CompareDays) > 0 {
		days = make([]float64, len(req.CompareDays))
		for i, d := range req.CompareDays {
			days[i] = d.Float()
		}
	}

	writeJSON(w, http.StatusOK, financingResponse{
		Result:     financing.Calculate(in),
		Projection: financing.Project(in, days),
	})
}

type vendorRequest struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	BasePrice           numeric.Value  `json:"basePrice"`
	Freight             numeric.Value  `json:"freight"`
	CreditDays          numeric.Value  `json:"creditDays"`
	InterestRatePercent numeric.Value  `json:"interestRatePercent"`
	Quantity            numeric.Value  `json:"quantity"`
	SellingPrice        numeric.Value  `json:"sellingPrice"`
	CustomerCreditDays  numeric.Value  `json:"customerCreditDays"`
	Quality             *numeric.Value `json:"quality"`
}

type vendorsRequest struct {
	Vendors []vendorRequest `json:"vendors"`
}

func (req vendorsRequest) list() []vendors.Vendor {
	out := make([]vendors.Vendor, 0, len(req.Vendors))
	for _, v := range req.Vendors {
		vendor := vendors.Vendor{
			ID:                  v.ID,
			Name:                strings.TrimSpace(v.Name),
			BasePrice:           v.BasePrice.Float(),
			Freight:             v.Freight.Float(),
			CreditDays:          v.CreditDays.Float(),
			InterestRatePercent: v.InterestRatePercent.Float(),
			Quantity:            v.Quantity.Float(),
			SellingPrice:        v.SellingPrice.Float(),
			CustomerCreditDays:  v.CustomerCreditDays.Float(),
		}
		if v.Quality != nil {
			q := v.Quality.Float()
			vendor.Quality = &q
		}
		out = append(out, vendor)
	}
	return out
}

func (s *server) handleVendorRanking(w http.ResponseWriter, r *http.Request) {
	var req vendorsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors.Rank(req.list()))
}

func (s *server) handleVendorTrades(w http.ResponseWriter, r *http.Request) {
	var req vendorsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors.EvaluateTrades(req.list()))
}

type productRequest struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Qty           numeric.Value  `json:"qty"`
	VendorCost    numeric.Value  `json:"vendorCost"`
	CustomerPrice numeric.Value  `json:"customerPrice"`
	MarginPercent *numeric.Value `json:"marginPercent"`
}

type productsRequest struct {
	Products []productRequest `json:"products"`
}

func (req productsRequest) list() []products.Product {
	out := make([]products.Product, 0, len(req.Products))
	for _, p := range req.Products {
		product := products.Product{
			ID:            p.ID,
			Name:          strings.TrimSpace(p.Name),
			Qty:           p.Qty.Float(),
			VendorCost:    p.VendorCost.Float(),
			CustomerPrice: p.CustomerPrice.Float(),
		}
		// An edited margin wins over the stored price.
		if p.MarginPercent != nil {
			product = product.SetMarginPercent(p.MarginPercent.Float())
		}
		out = append(out, product)
	}
	return out
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	var req productsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products.Summarize(req.list()))
}

type convertResponse struct {
	Value  float64      `json:"value"`
	From   units.Length `json:"from"`
	To     units.Length `json:"to"`
	Result float64      `json:"result"`
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := units.Parse(q.Get("from")), units.Parse(q.Get("to"))
	value := numeric.Parse(q.Get("value"))

	writeJSON(w, http.StatusOK, convertResponse{
		Value:  value,
		From:   from,
		To:     to,
		Result: units.Convert(value, from, to),
	})
}
