// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for citesnet.
//
// Values are resolved with the precedence ENV > YAML file > defaults. The YAML
// file is decoded strictly so that typos fail at startup instead of silently
// falling back to defaults. Environment variables use the CITESNET_ prefix.
package config
