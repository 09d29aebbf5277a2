// Package packing estimates how many bales fit in a vehicle and what the freight costs per piece.
package packing

import (
	"encoding/json"
	"math"

	"github.com/Simplici0/costdesk/internal/numeric"
	"github.com/Simplici0/costdesk/internal/units"
)

// MaxRenderedItems caps the number of positions produced for the load visualization.
const MaxRenderedItems = 1000

// Inputs holds the freight calculator inputs. Vehicle and bale dimensions are expressed in Unit.
type Inputs struct {
	Unit                units.Length     `json:"lengthUnit"`
	Vehicle             units.Dimensions `json:"vehicle"`
	Bale                units.Dimensions `json:"bale"`
	FreightChargeInr    float64          `json:"freightChargeInr"`
	EfficiencyPercent   float64          `json:"efficiencyPercent"`
	PalletCapacityKg    float64          `json:"palletCapacityKg"`
	PieceWeightKg       float64          `json:"pieceWeightKg"`
	CustomCountOverride float64          `json:"customCountOverride"`
}

// UnmarshalJSON accepts numbers sent as text. Unreadable values decode as 0.
func (in *Inputs) UnmarshalJSON(b []byte) error {
	type plain Inputs
	var raw struct {
		plain
		FreightChargeInr    numeric.Value `json:"freightChargeInr"`
		EfficiencyPercent   numeric.Value `json:"efficiencyPercent"`
		PalletCapacityKg    numeric.Value `json:"palletCapacityKg"`
		PieceWeightKg       numeric.Value `json:"pieceWeightKg"`
		CustomCountOverride numeric.Value `json:"customCountOverride"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = Inputs(raw.plain)
	in.FreightChargeInr = raw.FreightChargeInr.Float()
	in.EfficiencyPercent = raw.EfficiencyPercent.Float()
	in.PalletCapacityKg = raw.PalletCapacityKg.Float()
	in.PieceWeightKg = raw.PieceWeightKg.Float()
	in.CustomCountOverride = raw.CustomCountOverride.Float()
	return nil
}

// AxisCounts is how many bales fit along each vehicle axis.
type AxisCounts struct {
	Length int `json:"length"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Total returns the product of the three axis counts.
func (a AxisCounts) Total() int {
	return a.Length * a.Width * a.Height
}

// PalletState describes whether pieces-per-pallet could be computed.
type PalletState string

const (
	PalletReady      PalletState = "ready"
	PalletNeedsInput PalletState = "needs_input"
)

// Estimate is the packing estimator output.
type Estimate struct {
	VehicleCm          units.Dimensions `json:"vehicleCm"`
	BaleCm             units.Dimensions `json:"baleCm"`
	Axis               AxisCounts       `json:"axis"`
	TotalSlots         int              `json:"totalSlots"`
	EffectiveCount     int              `json:"effectiveCount"`
	Overridden         bool             `json:"overridden"`
	Count              int              `json:"count"`
	PiecesPerPallet    int              `json:"piecesPerPallet"`
	PalletState        PalletState      `json:"palletState"`
	TotalPieces        int              `json:"totalPieces"`
	FreightPerUnit     float64          `json:"freightPerUnit"`
	FreightPerPiece    float64          `json:"freightPerPiece"`
	UtilizationPercent float64          `json:"utilizationPercent"`
	LoadWeightKg       float64          `json:"loadWeightKg"`
}

// axisCount is floor(container/item). A zero item axis counts as a single slot so an
// unfilled dimension never yields an infinite count.
func axisCount(container, item float64) int {
	if item == 0 {
		return 1
	}
	n := math.Floor(numeric.Finite(container / item))
	if n < 0 {
		return 0
	}
	return int(n)
}

// Compute derives slot counts, the effective count and the freight figures that follow from it.
func Compute(in Inputs) Estimate {
	vehicle := in.Vehicle.ToCentimeters(in.Unit)
	bale := in.Bale.ToCentimeters(in.Unit)

	axis := AxisCounts{
		Length: axisCount(vehicle.Length, bale.Length),
		Width:  axisCount(vehicle.Width, bale.Width),
		Height: axisCount(vehicle.Height, bale.Height),
	}
	total := axis.Total()
	effective := int(math.Floor(float64(total) * numeric.Finite(in.EfficiencyPercent) / 100.0))
	if effective < 0 {
		effective = 0
	}

	est := Estimate{
		VehicleCm:      vehicle,
		BaleCm:         bale,
		Axis:           axis,
		TotalSlots:     total,
		EffectiveCount: effective,
		Count:          effective,
		PalletState:    PalletNeedsInput,
	}

	if override := math.Floor(numeric.Finite(in.CustomCountOverride)); override > 0 {
		est.Count = int(override)
		est.Overridden = true
	}

	if weight := numeric.Finite(in.PieceWeightKg); weight > 0 {
		est.PiecesPerPallet = int(math.Floor(numeric.Finite(in.PalletCapacityKg) / weight))
		if est.PiecesPerPallet < 0 {
			est.PiecesPerPallet = 0
		}
		est.PalletState = PalletReady
	}

	est.TotalPieces = est.Count * est.PiecesPerPallet
	freight := numeric.Finite(in.FreightChargeInr)
	est.FreightPerUnit = numeric.Div(freight, float64(est.Count))
	est.FreightPerPiece = numeric.Div(freight, float64(est.TotalPieces))
	est.UtilizationPercent = numeric.Finite(numeric.Div(float64(est.Count)*bale.Volume(), vehicle.Volume()) * 100)
	est.LoadWeightKg = numeric.Finite(float64(est.TotalPieces) * numeric.Finite(in.PieceWeightKg))

	return est
}

// Position is the origin corner of one rendered bale, in centimeters.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Layout returns bale positions for the visualization. Slots are filled along the vehicle
// length (depth) first, then height, then width, and never more than MaxRenderedItems or the
// number of physical slots are produced. The arithmetic counts in est are not affected.
func Layout(est Estimate) []Position {
	n := est.Count
	if n > est.TotalSlots {
		n = est.TotalSlots
	}
	if n > MaxRenderedItems {
		n = MaxRenderedItems
	}
	if n <= 0 {
		return []Position{}
	}

	positions := make([]Position, 0, n)
	for w := 0; w < est.Axis.Width; w++ {
		for h := 0; h < est.Axis.Height; h++ {
			for d := 0; d < est.Axis.Length; d++ {
				positions = append(positions, Position{
					X: float64(d) * est.BaleCm.Length,
					Y: float64(h) * est.BaleCm.Height,
					Z: float64(w) * est.BaleCm.Width,
				})
				if len(positions) == n {
					return positions
				}
			}
		}
	}
	return positions
}
