// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"math"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/trade"
)

// Map marker defaults for nodes without size or color.
const (
	DefaultMarkerSize  = 8
	DefaultMarkerColor = "grey"
	UnknownCountryName = "XX"
	traceOpacity       = 0.75
)

// GeoLine styles a line trace.
type GeoLine struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

// GeoMarker styles the node markers.
type GeoMarker struct {
	Size    []float64 `json:"size"`
	Color   []string  `json:"color"`
	Opacity float64   `json:"opacity"`
}

// GeoTrace is a Plotly scattergeo trace.
type GeoTrace struct {
	Type       string     `json:"type"`
	Lon        []float64  `json:"lon"`
	Lat        []float64  `json:"lat"`
	Mode       string     `json:"mode"`
	Line       *GeoLine   `json:"line,omitempty"`
	Marker     *GeoMarker `json:"marker,omitempty"`
	Text       []string   `json:"text,omitempty"`
	Opacity    float64    `json:"opacity,omitempty"`
	ShowLegend bool       `json:"showlegend"`
	HoverInfo  string     `json:"hoverinfo"`
}

// GeoAxis configures the map projection.
type GeoAxis struct {
	Scope          string `json:"scope"`
	ShowLand       bool   `json:"showland"`
	LandColor      string `json:"landcolor"`
	ShowCoastlines bool   `json:"showcoastlines"`
}

// GeoLayout is the Plotly layout.
type GeoLayout struct {
	Geo         GeoAxis `json:"geo"`
	PlotBGColor string  `json:"plot_bgcolor"`
}

// Figure is a Plotly figure: one line trace per link, then the node markers.
type Figure struct {
	Data   []GeoTrace `json:"data"`
	Layout GeoLayout  `json:"layout"`
}

// EdgeColor picks the color of the exporter->importer link src->dst given
// the selected pair.
func EdgeColor(src, dst, exporter, importer string, p config.Palette) string {
	switch {
	case src == exporter && dst == importer:
		return p.Pair
	case src == exporter:
		return p.Exporter
	case dst == importer:
		return p.Importer
	default:
		return p.Other
	}
}

// GeoMap places g on a world map. Countries missing from the index sit at
// (0,0) and are labelled UnknownCountryName.
func GeoMap(g *network.Graph, countries trade.CountryIndex, exporter, importer string, p config.Palette) Figure {
	nodes := g.Nodes()
	type pos struct{ lon, lat float64 }
	positions := make(map[string]pos, len(nodes))

	markers := GeoTrace{
		Type:      "scattergeo",
		Mode:      "markers",
		Lon:       make([]float64, 0, len(nodes)),
		Lat:       make([]float64, 0, len(nodes)),
		Text:      make([]string, 0, len(nodes)),
		Line:      &GeoLine{Width: 0, Color: "rgb(0,0,0)"},
		HoverInfo: "text",
		Marker: &GeoMarker{
			Size:    make([]float64, 0, len(nodes)),
			Color:   make([]string, 0, len(nodes)),
			Opacity: traceOpacity,
		},
	}
	for _, n := range nodes {
		var at pos
		name := UnknownCountryName
		if c, ok := countries.ByCode(n.ID); ok {
			at = pos{lon: c.Longitude, lat: c.Latitude}
			name = c.Name
		}
		positions[n.ID] = at

		size := float64(DefaultMarkerSize)
		if n.Sized {
			size = n.Size
		}
		color := DefaultMarkerColor
		if n.Color != "" {
			color = n.Color
		}
		markers.Lon = append(markers.Lon, at.lon)
		markers.Lat = append(markers.Lat, at.lat)
		markers.Text = append(markers.Text, name)
		markers.Marker.Size = append(markers.Marker.Size, size)
		markers.Marker.Color = append(markers.Marker.Color, color)
	}

	links := g.Links()
	fig := Figure{
		Data: make([]GeoTrace, 0, len(links)+1),
		Layout: GeoLayout{
			Geo: GeoAxis{
				Scope:          "world",
				ShowLand:       true,
				LandColor:      p.Land,
				ShowCoastlines: false,
			},
			PlotBGColor: "white",
		},
	}
	for _, l := range links {
		from, to := positions[l.From], positions[l.To]
		weight := 1.0
		if l.Weighted {
			weight = l.Weight
		}
		fig.Data = append(fig.Data, GeoTrace{
			Type:      "scattergeo",
			Mode:      "lines",
			Lon:       []float64{from.lon, to.lon},
			Lat:       []float64{from.lat, to.lat},
			Line:      &GeoLine{Width: math.Max(1, weight*0.01), Color: EdgeColor(l.From, l.To, exporter, importer, p)},
			Opacity:   traceOpacity,
			HoverInfo: "none",
		})
	}
	fig.Data = append(fig.Data, markers)
	return fig
}
