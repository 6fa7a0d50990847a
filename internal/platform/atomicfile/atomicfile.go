// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package atomicfile writes files so readers never observe partial content.
package atomicfile

import "io"

// FillFunc streams the file body into w.
type FillFunc func(w io.Writer) error

// Write creates or replaces path with the bytes produced by fill.
// If fill fails the destination is left untouched and no temp file remains.
func Write(path string, fill FillFunc) error {
	return write(path, fill)
}
