// SPDX-License-Identifier: MIT

// Package about carries the attribution shown on every page and served by
// the about endpoint.
package about

import (
	"net/url"
	"path"
	"strings"

	"github.com/ManuGH/citesnet/internal/config"
)

// StaticPrefix is the URL path under which the static directory is served.
const StaticPrefix = "/static/"

// Citation is one bibliography entry. URL may be empty.
type Citation struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Attribution describes the dataset sources and the people behind the site.
type Attribution struct {
	Title        string     `json:"title"`
	DashboardURL string     `json:"dashboardUrl,omitempty"`
	ImagePath    string     `json:"imagePath,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Maintainer   string     `json:"maintainer"`
	SourceURL    string     `json:"sourceUrl,omitempty"`
	Version      string     `json:"version,omitempty"`
	Citations    []Citation `json:"citations"`
	Note         string     `json:"note"`
}

// MapNote explains why only exporter-reported rows are mapped.
const MapNote = "Map generated with Exporter reported data to avoid duplication."

// DefaultCitations returns the trade database and party list references.
func DefaultCitations() []Citation {
	return []Citation{
		{
			Text: "Full CITES Trade Database Download. Version [2022.1]. " +
				"Compiled by UNEP-WCMC, Cambridge, UK for the CITES Secretariat, Geneva, Switzerland.",
			URL: "https://trade.cites.org",
		},
		{
			Text: "List of Contracting Parties with ISO codes",
			URL:  "https://cites.org/eng/disc/parties/chronolo.php",
		},
	}
}

// FromConfig builds the attribution from the site section of cfg.
func FromConfig(cfg config.AppConfig) Attribution {
	title := cfg.Site.Title
	if title == "" {
		title = "CITES Trade Network"
	}
	return Attribution{
		Title:        title,
		DashboardURL: cfg.Site.DashboardURL,
		ImagePath:    cfg.Site.ImagePath,
		ImageURL:     ImageURL(cfg.Site.ImagePath),
		Maintainer:   cfg.Site.Maintainer,
		SourceURL:    cfg.Site.SourceURL,
		Version:      cfg.Version,
		Citations:    DefaultCitations(),
		Note:         MapNote,
	}
}

// ImageURL returns the src of the site image. Absolute http(s) URLs are kept;
// anything else names a file below the static directory.
func ImageURL(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if ImageOrigin(p) != "" {
		return p
	}
	return StaticPrefix + strings.TrimPrefix(path.Clean("/"+p), "/")
}

// ImageOrigin returns scheme://host of an external image URL, or "" when the
// image is served locally.
func ImageOrigin(p string) string {
	u, err := url.Parse(strings.TrimSpace(p))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
