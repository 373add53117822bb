// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package trade

import (
	"fmt"
	"strings"
)

// AllChoice is the selector value meaning "no constraint".
const AllChoice = "ALL"

// YearRange is an inclusive range of trade years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Valid reports whether the range is non-empty.
func (r YearRange) Valid() bool {
	return r.From <= r.To
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Filter selects shipments of one taxon. Empty Term, Purpose and Source
// apply no constraint. A nil Years matches every year.
type Filter struct {
	Taxon   string     `json:"taxon"`
	Years   *YearRange `json:"years,omitempty"`
	Term    string     `json:"term,omitempty"`
	Purpose string     `json:"purpose,omitempty"`
	Source  string     `json:"source,omitempty"`
}

// NormalizeChoice trims a selector value and maps AllChoice to "".
func NormalizeChoice(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, AllChoice) {
		return ""
	}
	return v
}

// Normalized returns a copy with every selector passed through NormalizeChoice.
func (f Filter) Normalized() Filter {
	out := f
	out.Taxon = strings.TrimSpace(f.Taxon)
	out.Term = NormalizeChoice(f.Term)
	out.Purpose = strings.ToUpper(NormalizeChoice(f.Purpose))
	out.Source = strings.ToUpper(NormalizeChoice(f.Source))
	if f.Years != nil {
		y := *f.Years
		out.Years = &y
	}
	return out
}

// Validate checks that the filter names a taxon and, if set, a valid year range.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Taxon) == "" {
		return fmt.Errorf("%w: taxon is required", ErrInvalidFilter)
	}
	if f.Years != nil && !f.Years.Valid() {
		return fmt.Errorf("%w: year range %s is inverted", ErrInvalidFilter, f.Years)
	}
	return nil
}

// Key is a stable representation used for cache keys and span attributes.
func (f Filter) Key() string {
	years := "*"
	if f.Years != nil {
		years = f.Years.String()
	}
	return strings.Join([]string{f.Taxon, years, f.Term, f.Purpose, f.Source}, "|")
}
