// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package trade

// Record is one row of the CITES trade database. Empty strings stand for
// values missing in the export.
type Record struct {
	ID           string  `json:"id"`
	Year         int     `json:"year"`
	Appendix     string  `json:"appendix"`
	Taxon        string  `json:"taxon"`
	Class        string  `json:"class"`
	Order        string  `json:"order"`
	Family       string  `json:"family"`
	Genus        string  `json:"genus"`
	Term         string  `json:"term"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Importer     string  `json:"importer"`
	Exporter     string  `json:"exporter"`
	Origin       string  `json:"origin"`
	Purpose      string  `json:"purpose"`
	Source       string  `json:"source"`
	ReporterType string  `json:"reporterType"`
}

// Edge is the total quantity traded from Exporter to Importer.
type Edge struct {
	Exporter string  `json:"exporter"`
	Importer string  `json:"importer"`
	Weight   float64 `json:"weight"`
}

// Country maps an ISO-2 code to a display name and centroid.
type Country struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vernacular pairs a scientific name with one of its common names.
type Vernacular struct {
	CompleteName   string `json:"completeName"`
	VernacularName string `json:"vernacularName"`
}

// Summary holds dataset level counts.
type Summary struct {
	Records   int64 `json:"records"`
	Taxa      int64 `json:"taxa"`
	Exporters int64 `json:"exporters"`
	Importers int64 `json:"importers"`
}

// CountryIndex looks countries up by code and by name.
type CountryIndex struct {
	byCode map[string]Country
	byName map[string]Country
}

// NewCountryIndex indexes countries. Later duplicates win.
func NewCountryIndex(countries []Country) CountryIndex {
	idx := CountryIndex{
		byCode: make(map[string]Country, len(countries)),
		byName: make(map[string]Country, len(countries)),
	}
	for _, c := range countries {
		idx.byCode[c.Code] = c
		idx.byName[c.Name] = c
	}
	return idx
}

// ByCode returns the country with the given ISO code.
func (i CountryIndex) ByCode(code string) (Country, bool) {
	c, ok := i.byCode[code]
	return c, ok
}

// ByName returns the country with the given display name.
func (i CountryIndex) ByName(name string) (Country, bool) {
	c, ok := i.byName[name]
	return c, ok
}

// Len reports the number of indexed codes.
func (i CountryIndex) Len() int {
	return len(i.byCode)
}
