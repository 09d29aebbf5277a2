package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/costdesk/internal/export"
	"github.com/Simplici0/costdesk/internal/numeric"
	"github.com/Simplici0/costdesk/internal/schedule"
	"github.com/Simplici0/costdesk/internal/vendors"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type scheduleResponse struct {
	State   schedule.State   `json:"state"`
	Summary schedule.Summary `json:"summary"`
}

func newScheduleResponse(st schedule.State) scheduleResponse {
	return scheduleResponse{State: st, Summary: schedule.Summarize(st)}
}

func (s *server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newScheduleResponse(s.planner.State()))
}

type poRequest struct {
	CompanyName      string        `json:"companyName"`
	PONumber         string        `json:"poNumber"`
	PODate           string        `json:"poDate"`
	Product          string        `json:"product"`
	TotalQuantity    numeric.Value `json:"totalQuantity"`
	DeliveryLocation string        `json:"deliveryLocation"`
	Notes            string        `json:"notes"`
}

func (s *server) handleSetPO(w http.ResponseWriter, r *http.Request) {
	var req poRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	st, err := s.planner.SetPO(r.Context(), schedule.PODetails{
		CompanyName:      strings.TrimSpace(req.CompanyName),
		PONumber:         strings.TrimSpace(req.PONumber),
		PODate:           strings.TrimSpace(req.PODate),
		Product:          strings.TrimSpace(req.Product),
		TotalQuantity:    req.TotalQuantity.Float(),
		DeliveryLocation: strings.TrimSpace(req.DeliveryLocation),
		Notes:            req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(st))
}

type rowRequest struct {
	Vendor      string        `json:"vendor"`
	PlannedQty  numeric.Value `json:"plannedQty"`
	ReceivedQty numeric.Value `json:"receivedQty"`
	Date        string        `json:"date"`
	Status      string        `json:"status"`
}

type rowResponse struct {
	Row schedule.Row `json:"row"`
	scheduleResponse
}

// handleAddRow appends a delivery row. A blank body adds an empty row dated one week after
// the latest dated row.
func (s *server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeError(w, r, err)
		return
	}

	row, st, err := s.planner.AddRow(r.Context(), schedule.Row{
		Vendor:      strings.TrimSpace(req.Vendor),
		PlannedQty:  req.PlannedQty.Float(),
		ReceivedQty: req.ReceivedQty.Float(),
		Date:        strings.TrimSpace(req.Date),
		Status:      schedule.ParseStatus(req.Status),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rowResponse{Row: row, scheduleResponse: newScheduleResponse(st)})
}

type rowPatchRequest struct {
	Vendor      *string        `json:"vendor"`
	PlannedQty  *numeric.Value `json:"plannedQty"`
	ReceivedQty *numeric.Value `json:"receivedQty"`
	Date        *string        `json:"date"`
	Status      *string        `json:"status"`
}

func (req rowPatchRequest) patch() schedule.RowPatch {
	var p schedule.RowPatch
	if req.Vendor != nil {
		v := strings.TrimSpace(*req.Vendor)
		p.Vendor = &v
	}
	if req.PlannedQty != nil {
		v := req.PlannedQty.Float()
		p.PlannedQty = &v
	}
	if req.ReceivedQty != nil {
		v := req.ReceivedQty.Float()
		p.ReceivedQty = &v
	}
	if req.Date != nil {
		v := strings.TrimSpace(*req.Date)
		p.Date = &v
	}
	if req.Status != nil {
		v := schedule.ParseStatus(*req.Status)
		p.Status = &v
	}
	return p
}

func (s *server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var req rowPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	st, err := s.planner.UpdateRow(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(st))
}

func (s *server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.DeleteRow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(st))
}

type allocationRequest struct {
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	AllocatedQty numeric.Value `json:"allocatedQty"`
}

func (s *server) handlePutAllocation(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	st, err := s.planner.PutAllocation(r.Context(), schedule.Allocation{
		Name:         req.Name,
		Email:        strings.TrimSpace(req.Email),
		AllocatedQty: req.AllocatedQty.Float(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(st))
}

func (s *server) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	// chi hands back the escaped segment when the path carried escapes.
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	st, err := s.planner.DeleteAllocation(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(st))
}

func (s *server) handleSchedulePDF(w http.ResponseWriter, r *http.Request) {
	st := s.planner.State()
	data, err := export.SchedulePDF(st, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, pdfContentType, exportFilename(st.PO, "pdf"), data)
}

func (s *server) handleScheduleExcel(w http.ResponseWriter, r *http.Request) {
	st := s.planner.State()
	data, err := export.ScheduleExcel(st, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, exportFilename(st.PO, "xlsx"), data)
}

// handleVendorExcel exports a ranking and buy-sell sheet for the posted vendor list.
func (s *server) handleVendorExcel(w http.ResponseWriter, r *http.Request) {
	var req vendorsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	list := req.list()
	data, err := export.VendorComparisonExcel(vendors.Rank(list), vendors.EvaluateTrades(list))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, "vendor-comparison.xlsx", data)
}

// exportFilename builds "supply-schedule-<po>.<ext>" from the PO number, keeping only
// characters that are safe in a file name.
func exportFilename(po schedule.PODetails, ext string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(po.PONumber)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ' || r == '/':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		return "supply-schedule." + ext
	}
	return "supply-schedule-" + name + "." + ext
}
