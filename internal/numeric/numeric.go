// Package numeric implements the advisory number policy shared by every calculator:
// input that cannot be read as a finite number is treated as 0 and never reported as an error.
package numeric

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Parse converts raw user input into a float64. Empty, malformed, NaN and infinite
// values all become 0.
func Parse(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return Finite(v)
}

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Div returns a/b, or 0 when b is zero or the quotient is not finite.
func Div(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Finite(a / b)
}

// Value is a float64 that decodes from a JSON number, a numeric string, null or anything
// else without failing. Unreadable input decodes to 0.
type Value float64

// Float returns the underlying float64.
func (v Value) Float() float64 {
	return float64(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = 0
			return nil
		}
		*v = Value(Parse(s))
		return nil
	}

	*v = Value(Parse(string(data)))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Finite(float64(v)), 'f', -1, 64)), nil
}
