package schedule

import (
	"strings"

	"github.com/Simplici0/costdesk/internal/numeric"
)

// VendorProgress compares what a vendor was allocated with what is scheduled and received.
type VendorProgress struct {
	Name       string  `json:"name"`
	Allocated  float64 `json:"allocated"`
	Planned    float64 `json:"planned"`
	Received   float64 `json:"received"`
	Registered bool    `json:"registered"`
}

// Summary is the roll-up shown under the schedule table.
type Summary struct {
	POQuantity     float64          `json:"poQuantity"`
	PlannedTotal   float64          `json:"plannedTotal"`
	ReceivedTotal  float64          `json:"receivedTotal"`
	Unscheduled    float64          `json:"unscheduled"`
	AllocatedTotal float64          `json:"allocatedTotal"`
	StatusCounts   map[Status]int   `json:"statusCounts"`
	Vendors        []VendorProgress `json:"vendors"`
}

// Summarize totals the schedule. Vendors follow allocation order; vendors that only appear on
// rows are appended in order of first appearance and flagged as not registered. Totals that
// overflow are reported as 0.
func Summarize(s State) Summary {
	sum := Summary{
		POQuantity:   s.PO.TotalQuantity,
		StatusCounts: make(map[Status]int, len(Statuses)),
	}
	for _, st := range Statuses {
		sum.StatusCounts[st] = 0
	}

	index := map[string]int{}
	for _, a := range s.Allocations {
		key := strings.ToLower(a.Name)
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = len(sum.Vendors)
		sum.Vendors = append(sum.Vendors, VendorProgress{Name: a.Name, Allocated: a.AllocatedQty, Registered: true})
		sum.AllocatedTotal += a.AllocatedQty
	}

	for _, r := range s.Rows {
		sum.PlannedTotal += r.PlannedQty
		sum.ReceivedTotal += r.Received()
		sum.StatusCounts[r.Status]++

		if r.Vendor == "" {
			continue
		}
		key := strings.ToLower(r.Vendor)
		i, ok := index[key]
		if !ok {
			i = len(sum.Vendors)
			index[key] = i
			sum.Vendors = append(sum.Vendors, VendorProgress{Name: r.Vendor})
		}
		sum.Vendors[i].Planned += r.PlannedQty
		sum.Vendors[i].Received += r.Received()
	}

	sum.PlannedTotal = numeric.Finite(sum.PlannedTotal)
	sum.ReceivedTotal = numeric.Finite(sum.ReceivedTotal)
	sum.AllocatedTotal = numeric.Finite(sum.AllocatedTotal)
	for i := range sum.Vendors {
		sum.Vendors[i].Planned = numeric.Finite(sum.Vendors[i].Planned)
		sum.Vendors[i].Received = numeric.Finite(sum.Vendors[i].Received)
	}
	sum.Unscheduled = numeric.Finite(sum.POQuantity - sum.PlannedTotal)
	if sum.Vendors == nil {
		sum.Vendors = []VendorProgress{}
	}
	return sum
}
