// SPDX-License-Identifier: MIT

package about

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Version = "v1.0.0"
	cfg.Site.DashboardURL = "https://example.org/cites"

	a := FromConfig(cfg)
	assert.Equal(t, "CITES Trade Network", a.Title)
	assert.Equal(t, "ydnadev", a.Maintainer)
	assert.Equal(t, "https://example.org/cites", a.DashboardURL)
	assert.Empty(t, a.ImagePath)
	assert.Equal(t, "v1.0.0", a.Version)
	assert.Equal(t, MapNote, a.Note)

	require.Len(t, a.Citations, 2)
	assert.Contains(t, a.Citations[0].Text, "Version [2022.1]")
	assert.Equal(t, "https://trade.cites.org", a.Citations[0].URL)
	assert.Equal(t, "https://cites.org/eng/disc/parties/chronolo.php", a.Citations[1].URL)
}

func TestFromConfig_EmptyTitle(t *testing.T) {
	cfg := config.Defaults()
	cfg.Site.Title = ""
	assert.Equal(t, "CITES Trade Network", FromConfig(cfg).Title)
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		url    string
		origin string
	}{
		{"unset", "", "", ""},
		{"static file", "images/cites_network.png", "/static/images/cites_network.png", ""},
		{"leading slash", "/images/cites_network.png", "/static/images/cites_network.png", ""},
		{"dot segments stay inside", "../../etc/passwd", "/static/etc/passwd", ""},
		{"external", "https://raw.githubusercontent.com/ydnadev/cites/main/cites_network.png",
			"https://raw.githubusercontent.com/ydnadev/cites/main/cites_network.png", "https://raw.githubusercontent.com"},
		{"unsupported scheme", "ftp://example.org/x.png", "/static/ftp:/example.org/x.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.url, ImageURL(tt.path))
			assert.Equal(t, tt.origin, ImageOrigin(tt.path))
		})
	}
}
