// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package trade

import "errors"

var (
	// ErrInvalidFilter is returned by Filter.Validate for unusable filters.
	ErrInvalidFilter = errors.New("invalid trade filter")
)
