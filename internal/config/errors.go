// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "errors"

// Sentinels returned by Loader.Load; match them with errors.Is.
var (
	// ErrConfigNotFound means an explicitly named config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrUnknownConfigField marks strict YAML failures caused by unknown keys,
	// e.g. settings of the old ImageMagick caption backend.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrInvalidConfig wraps the joined validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
