// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/ManuGH/citesnet/internal/trade"
)

// normalizeHeader folds a CSV column name to lower-case letters and digits, so
// "Reporter.type", "reporter_type" and "Reporter Type" all match.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(h, "\ufeff") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// columns maps normalized header names to field positions.
type columns map[string]int

func newColumns(header []string, required ...string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	var missing []string
	for _, r := range required {
		if _, ok := cols[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// get returns the trimmed field for key, or "" when the column is absent.
func (c columns) get(row []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(bufio.NewReaderSize(r, 64*1024))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// readRows calls fn for every data row. Rows the CSV parser rejects are
// counted as skipped; I/O errors abort.
func readRows(ctx context.Context, path string, required []string, fn func(columns, []string) bool) (rows, skipped int, err error) {
	// #nosec G304 -- input paths come from operator configuration
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	cr := newReader(f)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, 0, fmt.Errorf("%s: empty file", path)
		}
		return 0, 0, fmt.Errorf("%s: read header: %w", path, err)
	}
	cols, err := newColumns(header, required...)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return rows, skipped, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, skipped, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return rows, skipped, fmt.Errorf("%s: %w", path, err)
		}
		if fn(cols, row) {
			rows++
		} else {
			skipped++
		}
	}
}

var tradeRequired = []string{"taxon", "year", "importer", "exporter", "term", "quantity"}

// parseRecord converts one trade row. It reports false for rows that cannot
// be used: no taxon, or a year or quantity that does not parse.
func parseRecord(cols columns, row []string) (trade.Record, bool) {
	r := trade.Record{
		ID:           cols.get(row, "id"),
		Appendix:     cols.get(row, "appendix"),
		Taxon:        cols.get(row, "taxon"),
		Class:        cols.get(row, "class"),
		Order:        cols.get(row, "order"),
		Family:       cols.get(row, "family"),
		Genus:        cols.get(row, "genus"),
		Term:         cols.get(row, "term"),
		Unit:         cols.get(row, "unit"),
		Importer:     cols.get(row, "importer"),
		Exporter:     cols.get(row, "exporter"),
		Origin:       cols.get(row, "origin"),
		Purpose:      strings.ToUpper(cols.get(row, "purpose")),
		Source:       strings.ToUpper(cols.get(row, "source")),
		ReporterType: cols.get(row, "reportertype"),
	}
	if r.Taxon == "" {
		return r, false
	}

	year, ok := parseYear(cols.get(row, "year"))
	if !ok {
		return r, false
	}
	r.Year = year

	if q := cols.get(row, "quantity"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return r, false
		}
		r.Quantity = v
	}
	return r, true
}

// parseYear accepts "2001" and spreadsheet style "2001.0".
func parseYear(s string) (int, bool) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// readTradeFile streams the usable rows of one trade CSV into out.
func readTradeFile(ctx context.Context, path string, out chan<- trade.Record) (rows, skipped int, err error) {
	return readRows(ctx, path, tradeRequired, func(cols columns, row []string) bool {
		r, ok := parseRecord(cols, row)
		if !ok {
			return false
		}
		select {
		case out <- r:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// readCountries loads the country reference table: country, latitude,
// longitude, name. Codes are kept verbatim, so Namibia stays "NA".
func readCountries(ctx context.Context, path string) (countries []trade.Country, skipped int, err error) {
	_, skipped, err = readRows(ctx, path, []string{"country", "name"}, func(cols columns, row []string) bool {
		c := trade.Country{
			Code: cols.get(row, "country"),
			Name: cols.get(row, "name"),
		}
		if c.Code == "" {
			return false
		}
		var ok bool
		if c.Latitude, ok = parseCoord(cols.get(row, "latitude")); !ok {
			return false
		}
		if c.Longitude, ok = parseCoord(cols.get(row, "longitude")); !ok {
			return false
		}
		countries = append(countries, c)
		return true
	})
	return countries, skipped, err
}

func parseCoord(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// readVernaculars loads the ITIS vernacular table: complete_name, vernacular_name.
func readVernaculars(ctx context.Context, path string) (names []trade.Vernacular, skipped int, err error) {
	_, skipped, err = readRows(ctx, path, []string{"completename", "vernacularname"}, func(cols columns, row []string) bool {
		v := trade.Vernacular{
			CompleteName:   cols.get(row, "completename"),
			VernacularName: cols.get(row, "vernacularname"),
		}
		if v.CompleteName == "" || v.VernacularName == "" {
			return false
		}
		names = append(names, v)
		return true
	})
	return names, skipped, err
}
