// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
)

// serveStatic serves files below the configured static directory. Directory
// listings and paths resolving outside the directory (including through
// symlinks) are refused.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	rel := strings.TrimPrefix(r.URL.Path, about.StaticPrefix)

	deny := func(status int, result, reason string) {
		logger.Debug().
			Str(log.FieldEvent, "static.denied").
			Str(log.FieldPath, r.URL.Path).
			Str("reason", reason).
			Msg("static request refused")
		metrics.RecordStaticRequest(result)
		http.Error(w, http.StatusText(status), status)
	}

	if s.staticDir == "" {
		deny(http.StatusNotFound, "not_found", "disabled")
		return
	}
	if rel == "" || strings.HasSuffix(rel, "/") {
		deny(http.StatusForbidden, "forbidden", "directory_listing")
		return
	}
	if strings.Contains(rel, "\x00") || strings.Contains(rel, "\\") {
		deny(http.StatusForbidden, "forbidden", "path_escape")
		return
	}

	root, err := filepath.EvalSymlinks(s.staticDir)
	if err != nil {
		deny(http.StatusNotFound, "not_found", "missing_dir")
		return
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+rel))))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			deny(http.StatusNotFound, "not_found", "missing")
			return
		}
		deny(http.StatusInternalServerError, "error", "resolve")
		return
	}
	if within, err := filepath.Rel(root, resolved); err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		deny(http.StatusForbidden, "forbidden", "path_escape")
		return
	}

	// #nosec G304 -- resolved is confined to the static directory above
	f, err := os.Open(resolved)
	if err != nil {
		deny(http.StatusInternalServerError, "error", "open")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		deny(http.StatusInternalServerError, "error", "stat")
		return
	}
	if info.IsDir() {
		deny(http.StatusForbidden, "forbidden", "directory_listing")
		return
	}

	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Header.Get("If-None-Match") == etag {
		metrics.RecordStaticRequest("not_modified")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	metrics.RecordStaticRequest("served")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
