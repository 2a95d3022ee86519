package http

import (
	"net/http"

	"github.com/go-chi/chi"

	"gagyebu/internal/log"
)

// fail writes the error response, logging internal failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, log.NewFields().WithComponent(log.ComponentHTTP))
	}
	ErrorFrom(err).Write(w)
}

// handleListRecords returns the view selected by the query string.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	p, err := ParseViewParams(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	view, err := s.records.View(p, s.today())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Payload(view).Write(w)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Payload(rec).Write(w)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	rec, err := recordFromBody(body, s.today())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	saved, err := s.records.Create(r.Context(), rec)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/records/"+saved.ID).
		Payload(saved).
		Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	patch, err := recordPatchFromBody(body)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.records.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Payload(updated).Write(w)
}

// handleDeleteRecord always answers 204; deleting a missing id is a no-op.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	s.records.Delete(r.Context(), chi.URLParam(r, "id"))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
