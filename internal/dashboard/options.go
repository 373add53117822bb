// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/citesnet/internal/trade"
)

// TaxonOptions lists the selectable taxa: traded taxa with a common name,
// by scientific or by common name. Without any common names loaded the
// scientific list falls back to every traded taxon.
func (s *Service) TaxonOptions(ctx context.Context, scientific bool) ([]string, error) {
	return cached(ctx, s, "taxa|"+boolKey(scientific), func(ctx context.Context) ([]string, error) {
		pairs, err := s.taxonVernaculars(ctx)
		if err != nil {
			return nil, err
		}
		if scientific && len(pairs) == 0 {
			taxa, err := s.store.UniqueTaxa(ctx)
			if err != nil {
				return nil, fmt.Errorf("taxa: %w", err)
			}
			return sortNames(taxa), nil
		}
		names := make([]string, 0, len(pairs))
		for _, p := range pairs {
			if scientific {
				names = append(names, p.CompleteName)
			} else {
				names = append(names, p.VernacularName)
			}
		}
		return sortNames(names), nil
	})
}

func (s *Service) taxonVernaculars(ctx context.Context) ([]trade.Vernacular, error) {
	return cached(ctx, s, "taxon-vernaculars", func(ctx context.Context) ([]trade.Vernacular, error) {
		pairs, err := s.store.TaxonVernaculars(ctx)
		if err != nil {
			return nil, fmt.Errorf("vernacular taxa: %w", err)
		}
		return pairs, nil
	})
}

// ResolveTaxon maps a selected name back to its scientific name. Common names
// shared by several taxa resolve to the first scientific name in sort order.
func (s *Service) ResolveTaxon(ctx context.Context, name string, scientific bool) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownTaxon)
	}
	if scientific {
		taxa, err := s.TaxonOptions(ctx, true)
		if err != nil {
			return "", err
		}
		for _, t := range taxa {
			if t == name {
				return t, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownTaxon, name)
	}

	pairs, err := s.taxonVernaculars(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, p := range pairs {
		if p.VernacularName == name {
			matches = append(matches, p.CompleteName)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownTaxon, name)
	}
	return sortNames(matches)[0], nil
}

// TermOptions lists the trade terms of taxon within years, led by "ALL".
func (s *Service) TermOptions(ctx context.Context, taxon string, years *trade.YearRange) ([]string, error) {
	key := strings.Join([]string{"terms", taxon, yearsKey(years)}, "|")
	return cached(ctx, s, key, func(ctx context.Context) ([]string, error) {
		terms, err := s.store.TermsForTaxon(ctx, taxon, years)
		if err != nil {
			return nil, fmt.Errorf("terms: %w", err)
		}
		return withAll(sortNames(terms)), nil
	})
}

// PurposeOptions lists purpose descriptions for the selection, led by "ALL".
// Codes without a known description are left out.
func (s *Service) PurposeOptions(ctx context.Context, taxon string, years *trade.YearRange, term string) ([]string, error) {
	term = trade.NormalizeChoice(term)
	key := strings.Join([]string{"purposes", taxon, yearsKey(years), term}, "|")
	return cached(ctx, s, key, func(ctx context.Context) ([]string, error) {
		codes, err := s.store.PurposesForTaxon(ctx, taxon, years, term)
		if err != nil {
			return nil, fmt.Errorf("purposes: %w", err)
		}
		return withAll(describe(codes, trade.Purposes)), nil
	})
}

// SourceOptions lists source descriptions for the selection, led by "ALL".
// purpose may be a code, a description or "ALL".
func (s *Service) SourceOptions(ctx context.Context, taxon string, years *trade.YearRange, term, purpose string) ([]string, error) {
	term = trade.NormalizeChoice(term)
	purpose, err := resolveCode(purpose, trade.Purposes, "purpose")
	if err != nil {
		return nil, err
	}
	key := strings.Join([]string{"sources", taxon, yearsKey(years), term, purpose}, "|")
	return cached(ctx, s, key, func(ctx context.Context) ([]string, error) {
		codes, err := s.store.SourcesForTaxon(ctx, taxon, years, term, purpose)
		if err != nil {
			return nil, fmt.Errorf("sources: %w", err)
		}
		return withAll(describe(codes, trade.Sources)), nil
	})
}

func describe(codes []string, table trade.CodeTable) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if d := table.Description(c); d != "" {
			out = append(out, d)
		}
	}
	return sortNames(out)
}

// resolveCode accepts a code, a description or "ALL" and returns the code,
// or "" for no constraint.
func resolveCode(v string, table trade.CodeTable, what string) (string, error) {
	v = trade.NormalizeChoice(v)
	if v == "" {
		return "", nil
	}
	code, ok := table.Resolve(v)
	if !ok {
		return "", fmt.Errorf("%w: unknown %s %q", trade.ErrInvalidFilter, what, v)
	}
	return code, nil
}
