// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/citesnet/internal/dashboard"
	"github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/trade"
)

// recordsResponse is the body of the records endpoint.
type recordsResponse struct {
	Records   []trade.Record `json:"records"`
	Truncated bool           `json:"truncated"`
	Limit     int            `json:"limit"`
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// handlePage renders the dashboard. Controls arrive as the query string of
// the form's GET submission; scientific names are off unless ticked.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query(), s.dash.Config(), false)
	if err != nil {
		code, _ := statusFor(err)
		http.Error(w, err.Error(), code)
		return
	}

	data, err := s.dash.Page(r.Context(), req, s.site)
	if err != nil {
		code, _ := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().Err(err).Str(log.FieldEvent, "api.page_failed").Msg("dashboard page failed")
			http.Error(w, http.StatusText(code), code)
			return
		}
		http.Error(w, err.Error(), code)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, data); err != nil {
		s.logger.Error().Err(err).Str(log.FieldEvent, "api.render_failed").Msg("render dashboard page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dash.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleTaxa(w http.ResponseWriter, r *http.Request) {
	scientific, err := parseBool(r.URL.Query(), "scientific", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	taxa, err := s.dash.TaxonOptions(r.Context(), scientific)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(taxa))
}

// selection resolves the taxon and year range shared by the option endpoints.
// Missing years take the configured default range.
func (s *Server) selection(r *http.Request) (dashboard.Request, string, *trade.YearRange, error) {
	cfg := s.dash.Config()
	req, err := parseRequest(r.URL.Query(), cfg, true)
	if err != nil {
		return req, "", nil, err
	}
	taxon, err := s.dash.ResolveTaxon(r.Context(), req.Taxon, req.Scientific)
	if err != nil {
		return req, "", nil, err
	}
	years := req.Years
	if years == nil {
		years = &trade.YearRange{From: cfg.DefaultFrom, To: cfg.DefaultTo}
	}
	return req, taxon, years, nil
}

func (s *Server) handleTerms(w http.ResponseWriter, r *http.Request) {
	_, taxon, years, err := s.selection(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	terms, err := s.dash.TermOptions(r.Context(), taxon, years)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(terms))
}

func (s *Server) handlePurposes(w http.ResponseWriter, r *http.Request) {
	req, taxon, years, err := s.selection(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	purposes, err := s.dash.PurposeOptions(r.Context(), taxon, years, req.Term)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(purposes))
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	req, taxon, years, err := s.selection(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sources, err := s.dash.SourceOptions(r.Context(), taxon, years, req.Term, req.Purpose)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(sources))
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.dash.Countries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(countries))
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	c, err := s.dash.Country(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query(), s.dash.Config(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.dash.Query(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := s.dash.Config()
	req, err := parseRequest(q, cfg, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := parseLimit(q, cfg.RecordLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, truncated, err := s.dash.Records(r.Context(), req, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{
		Records:   orEmpty(records),
		Truncated: truncated,
		Limit:     limit,
	})
}

func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.site)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Stats())
}
