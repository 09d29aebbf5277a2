package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/costdesk/internal/archive"
)

func (s *server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter archive.Filter
	if raw := q.Get("type"); raw != "" {
		kind, err := archive.ParseKind(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Kind = kind
	}
	filter.Company = strings.TrimSpace(q.Get("company"))

	list, err := s.archives.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []archive.Archive{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateArchive stores a snapshot. The body is an archive envelope; a schedule
// envelope without data captures the current schedule. Ids and timestamps sent by the
// client are ignored.
func (s *server) handleCreateArchive(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}

	var head struct {
		Type        string          `json:"type"`
		CompanyName string          `json:"company_name"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		s.writeError(w, r, badRequest("archive must be a JSON object"))
		return
	}

	var a archive.Archive
	if kind, err := archive.ParseKind(head.Type); err == nil && kind == archive.KindSchedule && len(head.Data) == 0 {
		st := s.planner.State()
		a = archive.Archive{
			CompanyName: head.CompanyName,
			Payload:     archive.ScheduleSnapshot{State: st},
		}
	} else if err := json.Unmarshal(raw, &a); err != nil {
		if !errors.Is(err, archive.ErrUnknownType) {
			err = badRequest("invalid archive: %v", err)
		}
		s.writeError(w, r, err)
		return
	}

	if snap, ok := a.Payload.(archive.ScheduleSnapshot); ok && strings.TrimSpace(a.CompanyName) == "" {
		a.CompanyName = snap.PO.CompanyName
	}
	a.ID = ""
	a.CreatedAt = time.Time{}

	saved, err := s.archives.Save(r.Context(), a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	a, err := s.archives.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleDeleteArchive(w http.ResponseWriter, r *http.Request) {
	if err := s.archives.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loadResponse struct {
	Archive  archive.Archive   `json:"archive"`
	Schedule *scheduleResponse `json:"schedule,omitempty"`
}

// handleLoadArchive restores a snapshot. Schedule archives replace the stored schedule;
// calculator and quantities archives are returned for the client to rehydrate its forms.
func (s *server) handleLoadArchive(w http.ResponseWriter, r *http.Request) {
	a, err := s.archives.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := loadResponse{Archive: a}
	if snap, ok := a.Payload.(archive.ScheduleSnapshot); ok {
		st, err := s.planner.Replace(r.Context(), snap.State)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		sr := newScheduleResponse(st)
		resp.Schedule = &sr
	}
	writeJSON(w, http.StatusOK, resp)
}
