package units

import (
	"encoding/json"
	"strings"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// Length is a supported length unit.
type Length string

const (
	Meter      Length = "m"
	Foot       Length = "ft"
	Centimeter Length = "cm"
	Inch       Length = "in"
)

// centimetersPer holds the fixed factor from each unit to centimeters.
var centimetersPer = map[Length]float64{
	Meter:      100,
	Foot:       30.48,
	Centimeter: 1,
	Inch:       2.54,
}

// Parse maps a unit label to a Length. Unknown labels fall back to centimeters.
func Parse(raw string) Length {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "meter", "meters", "metre", "metres":
		return Meter
	case "ft", "foot", "feet":
		return Foot
	case "in", "inch", "inches":
		return Inch
	default:
		return Centimeter
	}
}

// Valid reports whether u is one of the supported units.
func (u Length) Valid() bool {
	_, ok := centimetersPer[u]
	return ok
}

// Factor returns how many centimeters one u is. Unsupported units count as centimeters.
func (u Length) Factor() float64 {
	if f, ok := centimetersPer[u]; ok {
		return f
	}
	return 1
}

// ToCentimeters converts v expressed in unit to centimeters.
func ToCentimeters(v float64, unit Length) float64 {
	return numeric.Finite(v * unit.Factor())
}

// Convert converts v from one length unit to another.
func Convert(v float64, from, to Length) float64 {
	if from.Factor() == to.Factor() {
		return v
	}
	return numeric.Finite(v * from.Factor() / to.Factor())
}

// Dimensions is a length × width × height triple.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UnmarshalJSON accepts sizes sent as text. Unreadable values decode as 0.
func (d *Dimensions) UnmarshalJSON(b []byte) error {
	var raw struct {
		Length numeric.Value `json:"length"`
		Width  numeric.Value `json:"width"`
		Height numeric.Value `json:"height"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Dimensions{Length: raw.Length.Float(), Width: raw.Width.Float(), Height: raw.Height.Float()}
	return nil
}

// ToCentimeters returns d converted from unit to centimeters.
func (d Dimensions) ToCentimeters(unit Length) Dimensions {
	return Dimensions{
		Length: ToCentimeters(d.Length, unit),
		Width:  ToCentimeters(d.Width, unit),
		Height: ToCentimeters(d.Height, unit),
	}
}

// Volume returns the product of the three axes.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}
