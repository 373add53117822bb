// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package trade

import (
	"sort"
	"strings"
)

// CodeTable maps single letter CITES codes to their descriptions.
type CodeTable struct {
	byCode map[string]string
	byDesc map[string]string
}

func newCodeTable(m map[string]string) CodeTable {
	t := CodeTable{byCode: m, byDesc: make(map[string]string, len(m))}
	for code, desc := range m {
		t.byDesc[desc] = code
	}
	return t
}

// Description returns the description of code, or "" if the code is unknown.
func (t CodeTable) Description(code string) string {
	return t.byCode[strings.ToUpper(strings.TrimSpace(code))]
}

// Code returns the code for an exact description, or "" if there is none.
func (t CodeTable) Code(description string) string {
	return t.byDesc[description]
}

// Resolve accepts either a code or a description and returns the code.
func (t CodeTable) Resolve(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if code := strings.ToUpper(v); t.byCode[code] != "" {
		return code, true
	}
	if code, ok := t.byDesc[v]; ok {
		return code, true
	}
	return "", false
}

// Codes returns every code in alphabetical order.
func (t CodeTable) Codes() []string {
	out := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Purposes is the CITES purpose-of-transaction code table.
var Purposes = newCodeTable(map[string]string{
	"B": "Breeding in captivity or artificial propagation",
	"E": "Educational",
	"G": "Botanical garden",
	"H": "Hunting trophy",
	"L": "Law enforcement/judicial/forensic",
	"M": "Medical (including biomedical research)",
	"N": "Reintroduction or introduction into the wild",
	"P": "Personal",
	"Q": "Circus or travelling exhibition",
	"S": "Scientific",
	"T": "Commercial",
	"Z": "Zoo",
})

// Sources is the CITES source-of-specimen code table.
var Sources = newCodeTable(map[string]string{
	"A": "Artificially propagated plants",
	"C": "Animals bred in captivity",
	"D": "Appendix-I specimens bred or propagated for commercial purposes",
	"F": "Animals born in captivity (F1 or subsequent generations)",
	"I": "Confiscated or seized specimens",
	"O": "Pre-Convention specimens",
	"R": "Ranched specimens",
	"U": "Source unknown",
	"W": "Specimens taken from the wild",
	"X": "Specimens taken in the marine environment not under the jurisdiction of any State",
	"Y": "Assisted production",
})

// PurposeDescription returns the description of a purpose code.
func PurposeDescription(code string) string { return Purposes.Description(code) }

// PurposeCode returns the purpose code for a description.
func PurposeCode(description string) string { return Purposes.Code(description) }

// SourceDescription returns the description of a source code.
func SourceDescription(code string) string { return Sources.Description(code) }

// SourceCode returns the source code for a description.
func SourceCode(description string) string { return Sources.Code(description) }
