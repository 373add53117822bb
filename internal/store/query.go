// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ManuGH/citesnet/internal/telemetry"
	"github.com/ManuGH/citesnet/internal/trade"
)

// where builds the WHERE clause shared by the filter queries.
// requirePair restricts the match to rows naming both trade partners.
func where(f trade.Filter, requirePair bool) (string, []any) {
	clauses := []string{"taxon = ?"}
	args := []any{f.Taxon}
	if f.Years != nil {
		clauses = append(clauses, "year >= ?", "year <= ?")
		args = append(args, f.Years.From, f.Years.To)
	}
	if requirePair {
		clauses = append(clauses, "exporter IS NOT NULL", "importer IS NOT NULL")
	}
	if f.Term != "" {
		clauses = append(clauses, "term = ?")
		args = append(args, f.Term)
	}
	if f.Purpose != "" {
		clauses = append(clauses, "purpose = ?")
		args = append(args, f.Purpose)
	}
	if f.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, f.Source)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func prepareFilter(f trade.Filter) (trade.Filter, error) {
	f = f.Normalized()
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// UniqueTaxa lists every taxon present in the shipments table, sorted.
func (s *Store) UniqueTaxa(ctx context.Context) (taxa []string, err error) {
	ctx, done := s.observe(ctx, "unique_taxa")
	defer func() { done(err) }()
	return s.strings(ctx, `SELECT DISTINCT taxon FROM shipments ORDER BY taxon`)
}

// Summary counts records and the distinct taxa, exporters and importers.
func (s *Store) Summary(ctx context.Context) (sum trade.Summary, err error) {
	ctx, done := s.observe(ctx, "summary")
	defer func() { done(err) }()

	err = s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COUNT(DISTINCT taxon), COUNT(DISTINCT exporter), COUNT(DISTINCT importer)
	FROM shipments
	`).Scan(&sum.Records, &sum.Taxa, &sum.Exporters, &sum.Importers)
	return sum, err
}

// TermsForTaxon lists the distinct non-null terms traded for a taxon.
// A nil years matches every year.
func (s *Store) TermsForTaxon(ctx context.Context, taxon string, years *trade.YearRange) (terms []string, err error) {
	f, err := prepareFilter(trade.Filter{Taxon: taxon, Years: years})
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "terms", telemetry.FilterAttributes(f)...)
	defer func() { done(err) }()

	clause, args := where(f, false)
	return s.strings(ctx, `SELECT DISTINCT term FROM shipments`+clause+` AND term IS NOT NULL ORDER BY term`, args...)
}

// PurposesForTaxon lists the distinct purpose codes of shipments with both
// trade partners known. An empty or "ALL" term matches any term.
func (s *Store) PurposesForTaxon(ctx context.Context, taxon string, years *trade.YearRange, term string) (codes []string, err error) {
	f, err := prepareFilter(trade.Filter{Taxon: taxon, Years: years, Term: term})
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "purposes", telemetry.FilterAttributes(f)...)
	defer func() { done(err) }()

	clause, args := where(f, true)
	return s.strings(ctx, `SELECT DISTINCT purpose FROM shipments`+clause+` AND purpose IS NOT NULL ORDER BY purpose`, args...)
}

// SourcesForTaxon lists the distinct source codes, narrowed like PurposesForTaxon
// and additionally by purpose.
func (s *Store) SourcesForTaxon(ctx context.Context, taxon string, years *trade.YearRange, term, purpose string) (codes []string, err error) {
	f, err := prepareFilter(trade.Filter{Taxon: taxon, Years: years, Term: term, Purpose: purpose})
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "sources", telemetry.FilterAttributes(f)...)
	defer func() { done(err) }()

	clause, args := where(f, true)
	return s.strings(ctx, `SELECT DISTINCT source FROM shipments`+clause+` AND source IS NOT NULL ORDER BY source`, args...)
}

// Edges aggregates matching shipments into Exporter->Importer edges whose
// weight is the summed quantity. Quantities are rounded to whole units before
// summing. Rows missing either partner are excluded.
func (s *Store) Edges(ctx context.Context, filter trade.Filter) (edges []trade.Edge, err error) {
	f, err := prepareFilter(filter)
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "edges", telemetry.FilterAttributes(f)...)
	defer func() { done(err) }()

	clause, args := where(f, true)
	rows, err := s.db.QueryContext(ctx, `
	SELECT exporter, importer, COALESCE(SUM(CAST(ROUND(quantity) AS INTEGER)), 0) AS weight
	FROM shipments`+clause+`
	GROUP BY exporter, importer
	ORDER BY exporter, importer`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e trade.Edge
		if err = rows.Scan(&e.Exporter, &e.Importer, &e.Weight); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Records returns the raw shipments matching filter, oldest first. A limit of
// zero or less returns every row. Rows missing a partner are excluded when a
// year range is set.
func (s *Store) Records(ctx context.Context, filter trade.Filter, limit int) (records []trade.Record, err error) {
	f, err := prepareFilter(filter)
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "records", telemetry.FilterAttributes(f)...)
	defer func() { done(err) }()

	if limit <= 0 {
		limit = -1
	}
	clause, args := where(f, f.Years != nil)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
	SELECT source_id, year, appendix, taxon, class, order_name, family, genus, term,
	       quantity, unit, importer, exporter, origin, purpose, source, reporter_type
	FROM shipments`+clause+`
	ORDER BY year, row_id
	LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		r, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (trade.Record, error) {
	var r trade.Record
	var id, appendix, class, order, family, genus sql.NullString
	var term, unit, importer, exporter, origin sql.NullString
	var purpose, source, reporterType sql.NullString
	err := rows.Scan(&id, &r.Year, &appendix, &r.Taxon, &class, &order, &family, &genus, &term,
		&r.Quantity, &unit, &importer, &exporter, &origin, &purpose, &source, &reporterType)
	if err != nil {
		return r, err
	}
	r.ID = id.String
	r.Appendix = appendix.String
	r.Class = class.String
	r.Order = order.String
	r.Family = family.String
	r.Genus = genus.String
	r.Term = term.String
	r.Unit = unit.String
	r.Importer = importer.String
	r.Exporter = exporter.String
	r.Origin = origin.String
	r.Purpose = purpose.String
	r.Source = source.String
	r.ReporterType = reporterType.String
	return r, nil
}

// Countries returns the country reference table ordered by code.
func (s *Store) Countries(ctx context.Context) (countries []trade.Country, err error) {
	ctx, done := s.observe(ctx, "countries")
	defer func() { done(err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT code, name, latitude, longitude FROM countries ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c trade.Country
		if err = rows.Scan(&c.Code, &c.Name, &c.Latitude, &c.Longitude); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// Vernaculars returns every stored name pair.
func (s *Store) Vernaculars(ctx context.Context) (names []trade.Vernacular, err error) {
	ctx, done := s.observe(ctx, "vernaculars")
	defer func() { done(err) }()
	return s.vernaculars(ctx, `
	SELECT complete_name, vernacular_name FROM vernaculars
	ORDER BY complete_name, vernacular_name`)
}

// TaxonVernaculars returns the name pairs whose complete name is a traded taxon.
func (s *Store) TaxonVernaculars(ctx context.Context) (names []trade.Vernacular, err error) {
	ctx, done := s.observe(ctx, "taxon_vernaculars")
	defer func() { done(err) }()
	return s.vernaculars(ctx, `
	SELECT v.complete_name, v.vernacular_name
	FROM vernaculars v
	WHERE EXISTS (SELECT 1 FROM shipments s WHERE s.taxon = v.complete_name)
	ORDER BY v.complete_name, v.vernacular_name`)
}

func (s *Store) vernaculars(ctx context.Context, query string) ([]trade.Vernacular, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []trade.Vernacular
	for rows.Next() {
		var v trade.Vernacular
		if err := rows.Scan(&v.CompleteName, &v.VernacularName); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
