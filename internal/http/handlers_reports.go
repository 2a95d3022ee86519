package http

import (
	"net/http"
	"strings"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/query"
)

type categoriesResponse struct {
	Revision   string   `json:"revision"`
	Type       string   `json:"type,omitempty"`
	Categories []string `json:"categories"`
}

type exportResponse struct {
	RecordsRange  string `json:"records_range"`
	OverviewRange string `json:"overview_range"`
	Records       int    `json:"records"`
}

// handleStats returns the monthly overview for ?year=&month=.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Payload(s.records.Stats(mp.Year, mp.Month)).Write(w)
}

// handleCategories lists the selectable labels. type=income or type=expense
// narrows to one set; type=recurring returns the template vocabulary.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	reg := s.records.Registry()
	resp := categoriesResponse{Revision: reg.Revision}

	switch v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))); v {
	case "":
		resp.Categories = reg.All()
	case "recurring":
		resp.Type = v
		resp.Categories = append([]string(nil), core.RecurringCategories...)
	default:
		t, err := core.ParseRecordType(v)
		if err != nil {
			BadRequestError("type must be income, expense or recurring").Write(w)
			return
		}
		resp.Type = string(t)
		resp.Categories = reg.FilterOptions(t)
	}
	NewJSONResponse().Payload(resp).Write(w)
}

// handleExportSheets appends the year's records and the month's overview to
// the configured spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.fail(w, r, log.OpExport, errExportUnavailable)
		return
	}
	mp, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	records, err := s.records.List(query.Params{Mode: query.Year, Selected: core.NewDate(mp.Year, 1, 1)})
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	recordsRange, err := s.exporter.ExportRecords(r.Context(), mp.Year, records)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	overviewRange, err := s.exporter.ExportOverview(r.Context(), s.records.Stats(mp.Year, mp.Month))
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Exported ledger to sheets",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(records),
		"year", mp.Year,
		"month", mp.Month)
	NewJSONResponse().Payload(exportResponse{
		RecordsRange:  recordsRange,
		OverviewRange: overviewRange,
		Records:       len(records),
	}).Write(w)
}
