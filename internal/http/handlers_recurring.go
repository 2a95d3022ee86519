package http

import (
	"net/http"

	"github.com/go-chi/chi"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
)

type applyResult struct {
	Records []core.Record `json:"records"`
	Error   string        `json:"error,omitempty"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Payload(s.records.ListRecurring()).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	re, err := recurringFromBody(body)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	saved, err := s.records.CreateRecurring(r.Context(), re)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(saved).Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	patch, err := recurringPatchFromBody(body)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.records.UpdateRecurring(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Payload(updated).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	s.records.DeleteRecurring(r.Context(), chi.URLParam(r, "id"))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// applyDate reads the optional target date from the body, defaulting to today.
func (s *Server) applyDate(r *http.Request) (core.Date, error) {
	body, err := parseBody(r)
	if err != nil {
		return core.Date{}, err
	}
	if v := body.Get("date"); v != "" {
		return dateField(v)
	}
	return s.today(), nil
}

func (s *Server) handleApplyRecurring(w http.ResponseWriter, r *http.Request) {
	target, err := s.applyDate(r)
	if err != nil {
		s.fail(w, r, log.OpApply, err)
		return
	}
	rec, err := s.applier.ApplyByID(r.Context(), chi.URLParam(r, "id"), target)
	if err != nil {
		s.fail(w, r, log.OpApply, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(rec).Write(w)
}

// handleApplyAllRecurring applies every template. Records created before a
// failure are reported alongside the error.
func (s *Server) handleApplyAllRecurring(w http.ResponseWriter, r *http.Request) {
	target, err := s.applyDate(r)
	if err != nil {
		s.fail(w, r, log.OpApply, err)
		return
	}
	created, err := s.applier.ApplyStored(r.Context(), target)
	if err != nil {
		status := StatusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Applying recurring expenses failed", log.FieldError, err)
			msg = internalErrorMessage
		}
		NewJSONResponse().Status(status).Payload(applyResult{Records: created, Error: msg}).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(applyResult{Records: created}).Write(w)
}
