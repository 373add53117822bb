// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/citesnet/internal/dashboard"
	"github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/trade"
)

// errBadParam marks query parameters that do not parse.
var errBadParam = errors.New("bad parameter")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes and error kinds.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadParam),
		errors.Is(err, trade.ErrInvalidFilter),
		errors.Is(err, network.ErrUnknownCentrality):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, dashboard.ErrUnknownTaxon),
		errors.Is(err, dashboard.ErrUnknownCountry):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError writes err as JSON. Server errors are logged and their detail is
// withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := statusFor(err)
	body := errorBody{
		Error:     kind,
		Detail:    err.Error(),
		RequestID: log.RequestIDFromContext(r.Context()),
	}
	if code >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.request_failed").
			Str(log.FieldPath, r.URL.Path).
			Msg("request failed")
		body.Detail = "An unexpected error occurred. Please try again later."
	}
	writeJSON(w, code, body)
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Error:     "not_found",
		Detail:    "no route for " + r.URL.Path,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}
