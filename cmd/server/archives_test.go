package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/Simplici0/costdesk/internal/archive"
	"github.com/Simplici0/costdesk/internal/schedule"
)

func TestArchiveLifecycle(t *testing.T) {
	s, mailer := newTestServer(t)
	h := s.routes()
	cookie := operatorSession(t, s, mailer)
	ctx := context.Background()

	if _, err := s.planner.SetPO(ctx, schedule.PODetails{CompanyName: "Acme Agro", PONumber: "PO-9", TotalQuantity: 800}); err != nil {
		t.Fatalf("set po: %v", err)
	}
	row, _, err := s.planner.AddRow(ctx, schedule.Row{Vendor: "Polyfab", PlannedQty: 300})
	if err != nil {
		t.Fatalf("add row: %v", err)
	}

	rr := do(t, h, http.MethodPost, "/api/archives", map[string]any{"type": "schedule"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("archive schedule status = %d, body %s", rr.Code, rr.Body.String())
	}
	var scheduled archive.Archive
	decodeBody(t, rr, &scheduled)
	if scheduled.ID == "" || scheduled.Kind() != archive.KindSchedule || scheduled.CompanyName != "Acme Agro" {
		t.Fatalf("unexpected schedule archive: %+v", scheduled)
	}

	rr = do(t, h, http.MethodPost, "/api/archives", map[string]any{
		"id":           "client-chosen",
		"type":         "calculator",
		"company_name": "Beta Packaging",
		"data": map[string]any{
			"pricing": map[string]any{"ppRateInrPerKg": 120, "bagWeightGrams": 85},
			"freight": map[string]any{"lengthUnit": "cm"},
		},
	}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("archive calculator status = %d, body %s", rr.Code, rr.Body.String())
	}
	var calc archive.Archive
	decodeBody(t, rr, &calc)
	if calc.ID == "client-chosen" {
		t.Fatalf("client ids must be replaced")
	}
	snap, ok := calc.Payload.(archive.CalculatorSnapshot)
	if !ok || snap.Pricing.PPRateInrPerKg != 120 {
		t.Fatalf("unexpected calculator payload: %+v", calc.Payload)
	}

	rr = do(t, h, http.MethodPost, "/api/archives", map[string]any{
		"id":      "legacy-1",
		"name":    "Gamma Sacks",
		"date":    "2024-11-02",
		"pricing": map[string]any{"ppRateInrPerKg": 98},
	}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("legacy import status = %d, body %s", rr.Code, rr.Body.String())
	}
	var legacy archive.Archive
	decodeBody(t, rr, &legacy)
	if legacy.Kind() != archive.KindCalculator || legacy.CompanyName != "Gamma Sacks" {
		t.Fatalf("unexpected legacy archive: %+v", legacy)
	}

	listTests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?type=calculator", 2},
		{"?type=Schedule", 1},
		{"?company=acme", 1},
		{"?type=schedule&company=beta", 0},
	}
	for _, tt := range listTests {
		rr := do(t, h, http.MethodGet, "/api/archives"+tt.query, nil, cookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("list %q status = %d", tt.query, rr.Code)
		}
		var list []archive.Archive
		decodeBody(t, rr, &list)
		if len(list) != tt.want {
			t.Fatalf("list %q returned %d archives, want %d", tt.query, len(list), tt.want)
		}
	}

	if _, err := s.planner.DeleteRow(ctx, row.ID); err != nil {
		t.Fatalf("delete row: %v", err)
	}

	rr = do(t, h, http.MethodPost, "/api/archives/"+scheduled.ID+"/load", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("load status = %d, body %s", rr.Code, rr.Body.String())
	}
	var loaded loadResponse
	decodeBody(t, rr, &loaded)
	if loaded.Schedule == nil || len(loaded.Schedule.State.Rows) != 1 || loaded.Schedule.State.Rows[0].Vendor != "Polyfab" {
		t.Fatalf("schedule should be restored: %+v", loaded.Schedule)
	}
	if got := s.planner.State(); len(got.Rows) != 1 || got.PO.PONumber != "PO-9" {
		t.Fatalf("planner should hold the restored schedule: %+v", got)
	}

	rr = do(t, h, http.MethodPost, "/api/archives/"+calc.ID+"/load", nil, cookie)
	var loadedCalc loadResponse
	decodeBody(t, rr, &loadedCalc)
	if loadedCalc.Schedule != nil || loadedCalc.Archive.Kind() != archive.KindCalculator {
		t.Fatalf("calculator load should only return the archive: %+v", loadedCalc)
	}

	if rr := do(t, h, http.MethodDelete, "/api/archives/"+calc.ID, nil, cookie); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/archives/"+calc.ID, nil, cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted archive should be 404, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/api/archives/"+calc.ID, nil, cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d", rr.Code)
	}
}

func TestCreateArchiveReadsNumbersSentAsText(t *testing.T) {
	s, mailer := newTestServer(t)
	h := s.routes()
	cookie := operatorSession(t, s, mailer)

	rr := do(t, h, http.MethodPost, "/api/archives", `{"name": "Acme", "pricing": {"bagWeightGrams": "50", "ppRateInrPerKg": ""}}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("legacy import status = %d, body %s", rr.Code, rr.Body.String())
	}
	var legacy archive.Archive
	decodeBody(t, rr, &legacy)
	if snap := legacy.Payload.(archive.CalculatorSnapshot); snap.Pricing.BagWeightGrams != 50 || snap.Pricing.PPRateInrPerKg != 0 {
		t.Fatalf("unexpected pricing: %+v", snap.Pricing)
	}

	rr = do(t, h, http.MethodPost, "/api/archives", `{"type": "schedule", "company_name": "Acme", "data": {"rows": [{"id": "r1", "plannedQty": "100"}]}}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("schedule archive status = %d, body %s", rr.Code, rr.Body.String())
	}
	var sched archive.Archive
	decodeBody(t, rr, &sched)
	if snap := sched.Payload.(archive.ScheduleSnapshot); len(snap.Rows) != 1 || snap.Rows[0].PlannedQty != 100 {
		t.Fatalf("unexpected rows: %+v", snap.Rows)
	}

	rr = do(t, h, http.MethodPost, "/api/archives", `{"type": "quantities", "data": {"products": [{"id": "p1", "qty": ""}]}}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("quantities archive status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestCreateArchiveRejectsBadInput(t *testing.T) {
	s, mailer := newTestServer(t)
	h := s.routes()
	cookie := operatorSession(t, s, mailer)

	tests := []struct {
		name string
		body any
	}{
		{"unknown type", map[string]any{"type": "invoice", "data": map[string]any{}}},
		{"untyped without calculator fields", map[string]any{"company_name": "Acme"}},
		{"not an object", "[1, 2]"},
		{"malformed", `{"type": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/archives", tt.body, cookie)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", rr.Code, rr.Body.String())
			}
		})
	}

	if rr := do(t, h, http.MethodGet, "/api/archives?type=invoice", nil, cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown type filter should be 400, got %d", rr.Code)
	}
}
