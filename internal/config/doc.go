// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for lipread.
//
// Configuration is an explicitly constructed AppConfig passed to the
// components at startup. Values resolve with precedence ENV > YAML file >
// variant defaults.
package config
