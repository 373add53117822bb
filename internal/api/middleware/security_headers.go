// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"
)

// DefaultCSP admits the vis-network and Plotly bundles the dashboard loads from
// their CDNs. Plotly compiles its map projections at runtime and needs 'unsafe-eval'.
const DefaultCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://unpkg.com https://cdn.plot.ly; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"img-src 'self' data: blob:; " +
	"font-src 'self' data:; " +
	"connect-src 'self' https://cdn.plot.ly; " +
	"frame-ancestors 'none'"

// CSPWithImageOrigins returns DefaultCSP with extra img-src origins.
func CSPWithImageOrigins(origins ...string) string {
	extra := ""
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			extra += " " + o
		}
	}
	if extra == "" {
		return DefaultCSP
	}
	return strings.Replace(DefaultCSP, "img-src 'self' data: blob:;", "img-src 'self' data: blob:"+extra+";", 1)
}

// SecurityHeaders returns a middleware that adds common security headers to all responses.
func SecurityHeaders(csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = DefaultCSP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				w.Header().Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}

			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}
