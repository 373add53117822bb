// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/trade"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

// Script sources loaded by the pages. The API security headers allow them.
const (
	VisNetworkScript = "https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"
	PlotlyScript     = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

// Metric is one cell of the dataset summary table.
type Metric struct {
	Label string
	Value string
}

// Form mirrors the dashboard controls and their current values.
type Form struct {
	Scientific   bool
	Taxa         []string
	Taxon        string
	MinYear      int
	MaxYear      int
	From         int
	To           int
	Terms        []string
	Term         string
	Purposes     []string
	Purpose      string
	Sources      []string
	Source       string
	Exporters    []string
	Exporter     string
	Importers    []string
	Importer     string
	Weighted     bool
	Centralities []string
	Centrality   string
}

// PageData feeds the dashboard template.
type PageData struct {
	Site    about.Attribution
	Summary []Metric
	Form    Form
	Message string
	Vis     *VisGraph
	Map     *Figure
	Edges   []trade.Edge
	Records []trade.Record
	// Truncated is set when Records holds only the first rows of the match.
	Truncated bool
}

// GraphData feeds the standalone export page.
type GraphData struct {
	Title string
	Site  about.Attribution
	Vis   VisGraph
	Map   *Figure
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates with the sprig helpers.
func NewRenderer() (*Renderer, error) {
	funcs := sprig.FuncMap()
	funcs["comma"] = humanize.Commaf
	funcs["visScript"] = func() string { return VisNetworkScript }
	funcs["plotlyScript"] = func() string { return PlotlyScript }

	tmpl, err := template.New("render").Funcs(funcs).ParseFS(templatesFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page writes the dashboard.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.tmpl.ExecuteTemplate(w, "page.html.tmpl", data)
}

// Graph writes a self-contained page with the network and, if set, the map.
func (r *Renderer) Graph(w io.Writer, data GraphData) error {
	return r.tmpl.ExecuteTemplate(w, "graph.html.tmpl", data)
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
