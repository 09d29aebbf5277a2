// Package schedule plans supply deliveries against a purchase order. Rows are kept in date
// order at all times; rows without a date sit at the end.
package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// DateLayout is the wire and storage format of row dates.
const DateLayout = "2006-01-02"

// Status is the delivery state of a row.
type Status string

const (
	StatusPlanned   Status = "Planned"
	StatusInTransit Status = "In Transit"
	StatusPartial   Status = "Partial"
	StatusReceived  Status = "Received"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPlanned, StatusInTransit, StatusPartial, StatusReceived}

// ParseStatus reads a status label leniently. Unknown labels are Planned.
func ParseStatus(raw string) Status {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(raw))
	switch key {
	case "intransit":
		return StatusInTransit
	case "partial":
		return StatusPartial
	case "received":
		return StatusReceived
	default:
		return StatusPlanned
	}
}

// PODetails is the purchase order header of the schedule.
type PODetails struct {
	CompanyName      string  `json:"companyName"`
	PONumber         string  `json:"poNumber"`
	PODate           string  `json:"poDate"`
	Product          string  `json:"product"`
	TotalQuantity    float64 `json:"totalQuantity"`
	DeliveryLocation string  `json:"deliveryLocation"`
	Notes            string  `json:"notes"`
}

// UnmarshalJSON reads a quantity sent as text. Unreadable quantities decode as 0.
func (p *PODetails) UnmarshalJSON(b []byte) error {
	type plain PODetails
	var raw struct {
		plain
		TotalQuantity numeric.Value `json:"totalQuantity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = PODetails(raw.plain)
	p.TotalQuantity = raw.TotalQuantity.Float()
	return nil
}

// Allocation is the quantity assigned to a vendor. Rows refer to it by vendor name only.
type Allocation struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	AllocatedQty float64 `json:"allocatedQty"`
}

// UnmarshalJSON reads a quantity sent as text. Unreadable quantities decode as 0.
func (a *Allocation) UnmarshalJSON(b []byte) error {
	type plain Allocation
	var raw struct {
		plain
		AllocatedQty numeric.Value `json:"allocatedQty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = Allocation(raw.plain)
	a.AllocatedQty = raw.AllocatedQty.Float()
	return nil
}

// Row is one planned delivery.
type Row struct {
	ID          string  `json:"id"`
	Week        string  `json:"week"`
	Vendor      string  `json:"vendor"`
	PlannedQty  float64 `json:"plannedQty"`
	ReceivedQty float64 `json:"receivedQty"`
	Date        string  `json:"date"`
	Status      Status  `json:"status"`
}

// UnmarshalJSON reads quantities sent as text. Unreadable quantities decode as 0.
func (r *Row) UnmarshalJSON(b []byte) error {
	type plain Row
	var raw struct {
		plain
		PlannedQty  numeric.Value `json:"plannedQty"`
		ReceivedQty numeric.Value `json:"receivedQty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Row(raw.plain)
	r.PlannedQty = raw.PlannedQty.Float()
	r.ReceivedQty = raw.ReceivedQty.Float()
	return nil
}

// Time returns the parsed row date and whether the row has a usable one.
func (r Row) Time() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Received is the quantity counted as delivered for this row.
func (r Row) Received() float64 {
	switch r.Status {
	case StatusReceived:
		if r.ReceivedQty > 0 {
			return r.ReceivedQty
		}
		return r.PlannedQty
	case StatusPartial:
		return r.ReceivedQty
	default:
		return 0
	}
}

// State is everything the schedule screen persists.
type State struct {
	PO          PODetails    `json:"po"`
	Allocations []Allocation `json:"allocations"`
	Rows        []Row        `json:"rows"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{PO: s.PO}
	out.Allocations = append(make([]Allocation, 0, len(s.Allocations)), s.Allocations...)
	out.Rows = append(make([]Row, 0, len(s.Rows)), s.Rows...)
	return out
}

var ordinals = [...]string{"1st", "2nd", "3rd", "4th"}

// WeekLabel names the week of the month a date falls in, e.g. "2nd week of March".
// Days 29 to 31 are reported as the 4th week.
func WeekLabel(t time.Time) string {
	idx := (t.Day() + 6) / 7
	if idx > len(ordinals) {
		idx = len(ordinals)
	}
	return fmt.Sprintf("%s week of %s", ordinals[idx-1], t.Month())
}

// normalizeRow fills the derived fields of r and coerces its inputs.
func normalizeRow(r Row) Row {
	r.Vendor = strings.TrimSpace(r.Vendor)
	r.PlannedQty = numeric.Finite(r.PlannedQty)
	r.ReceivedQty = numeric.Finite(r.ReceivedQty)
	r.Status = ParseStatus(string(r.Status))

	if t, ok := r.Time(); ok {
		r.Date = t.Format(DateLayout)
		r.Week = WeekLabel(t)
	} else {
		r.Date = ""
		r.Week = ""
	}
	return r
}

// farFuture stands in for a missing date when ordering rows.
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// SortRows orders rows ascending by date in place. Undated rows go last and equal dates keep
// their relative order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i]).Before(sortKey(rows[j]))
	})
}

func sortKey(r Row) time.Time {
	if t, ok := r.Time(); ok {
		return t
	}
	return farFuture
}

// NextDate returns the date a new row should start with: one week after the last dated row,
// or today when no row has a date.
func NextDate(rows []Row, today time.Time) string {
	for i := len(rows) - 1; i >= 0; i-- {
		if t, ok := rows[i].Time(); ok {
			return t.AddDate(0, 0, 7).Format(DateLayout)
		}
	}
	return today.Format(DateLayout)
}
