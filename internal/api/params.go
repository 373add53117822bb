// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/dashboard"
	"github.com/ManuGH/citesnet/internal/trade"
)

// parseBool accepts the usual strconv spellings plus "on", which HTML
// checkboxes submit. Missing values yield def.
func parseBool(q url.Values, name string, def bool) (bool, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	if strings.EqualFold(v, "on") {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", errBadParam, name, v)
	}
	return b, nil
}

func parseInt(q url.Values, name string) (int, bool, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %q", errBadParam, name, v)
	}
	return n, true, nil
}

// parseYears reads from and to. A missing bound takes its configured default;
// nil is returned when both are missing.
func parseYears(q url.Values, cfg config.DashboardConfig) (*trade.YearRange, error) {
	from, hasFrom, err := parseInt(q, "from")
	if err != nil {
		return nil, err
	}
	to, hasTo, err := parseInt(q, "to")
	if err != nil {
		return nil, err
	}
	if !hasFrom && !hasTo {
		return nil, nil
	}
	if !hasFrom {
		from = cfg.DefaultFrom
	}
	if !hasTo {
		to = cfg.DefaultTo
	}
	if from < cfg.MinYear || to > cfg.MaxYear {
		return nil, fmt.Errorf("%w: years %d-%d fall outside %d-%d", errBadParam, from, to, cfg.MinYear, cfg.MaxYear)
	}
	return &trade.YearRange{From: from, To: to}, nil
}

// parseRequest reads the dashboard controls from the query string.
// scientificDefault applies when the scientific parameter is absent.
func parseRequest(q url.Values, cfg config.DashboardConfig, scientificDefault bool) (dashboard.Request, error) {
	scientific, err := parseBool(q, "scientific", scientificDefault)
	if err != nil {
		return dashboard.Request{}, err
	}
	weighted, err := parseBool(q, "weighted", false)
	if err != nil {
		return dashboard.Request{}, err
	}
	years, err := parseYears(q, cfg)
	if err != nil {
		return dashboard.Request{}, err
	}
	return dashboard.Request{
		Taxon:      strings.TrimSpace(q.Get("taxon")),
		Scientific: scientific,
		Years:      years,
		Term:       q.Get("term"),
		Purpose:    q.Get("purpose"),
		Source:     q.Get("source"),
		Exporter:   q.Get("exporter"),
		Importer:   q.Get("importer"),
		Weighted:   weighted,
		Centrality: q.Get("centrality"),
	}, nil
}

// parseLimit reads the record limit, capped at ceiling.
func parseLimit(q url.Values, ceiling int) (int, error) {
	n, ok, err := parseInt(q, "limit")
	if err != nil {
		return 0, err
	}
	if !ok {
		return ceiling, nil
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: limit must be positive, got %d", errBadParam, n)
	}
	return min(n, ceiling), nil
}
