// Package export renders schedules and vendor comparisons as PDF and XLSX documents.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/costdesk/internal/numeric"
	"github.com/Simplici0/costdesk/internal/schedule"
)

// FormatINR formats amount in Indian Rupee notation with two decimals, e.g. ₹1,23,45,678.90.
// Halves round away from zero. NaN and infinities print as ₹0.00.
func FormatINR(amount float64) string {
	d := decimal.NewFromFloat(numeric.Finite(amount)).Round(2)

	raw := d.Abs().StringFixed(2)
	intPart, decPart, _ := strings.Cut(raw, ".")

	out := "₹" + indianGrouping(intPart) + "." + decPart
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatQty drops the decimals of whole quantities and groups digits the Indian way.
// NaN and infinities print as 0.
func FormatQty(qty float64) string {
	d := decimal.NewFromFloat(numeric.Finite(qty)).Round(2)
	neg := d.IsNegative()
	d = d.Abs()

	var out string
	if d.Equal(d.Truncate(0)) {
		out = indianGrouping(d.StringFixed(0))
	} else {
		intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")
		out = indianGrouping(intPart) + "." + decPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// indianGrouping keeps the last three digits together and groups the rest in pairs.
func indianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	out := s[n-3:]
	rest := s[:n-3]
	for len(rest) > 2 {
		out = rest[len(rest)-2:] + "," + out
		rest = rest[:len(rest)-2]
	}
	if rest != "" {
		out = rest + "," + out
	}
	return out
}

// displayDate renders an ISO row date as "02 Jan 2006". Other values pass through.
func displayDate(iso string) string {
	t, err := time.Parse(schedule.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006")
}

// cellText stops spreadsheet apps from reading user text as a formula.
func cellText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
