// SPDX-License-Identifier: MIT

package ingest

import "errors"

var (
	// ErrNoInputFiles is returned when the trade glob matches nothing.
	ErrNoInputFiles = errors.New("ingest: no trade files matched")
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("ingest: missing required column")
)
