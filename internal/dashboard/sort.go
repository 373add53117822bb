// SPDX-License-Identifier: MIT

package dashboard

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ManuGH/citesnet/internal/trade"
)

// sortNames orders display names with English collation and drops duplicates.
// A Collator is not safe for concurrent use, so each call builds its own.
func sortNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	collate.New(language.English).SortStrings(out)
	return out
}

// withAll prepends the "no constraint" choice.
func withAll(options []string) []string {
	return append([]string{trade.AllChoice}, options...)
}
