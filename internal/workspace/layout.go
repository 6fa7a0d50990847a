// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package workspace owns the on-disk layout and per-request file naming.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Working directory names under the data root.
const (
	DirStatic   = "static"
	DirUploads  = "uploads"
	DirOutputs  = "outputs"
	DirTemp     = "temp"
	DirPretrain = "pretrain"
	DirSamples  = "samples"
	DirLogs     = "logs"
)

// Dirs lists every directory created at startup.
var Dirs = []string{DirStatic, DirUploads, DirOutputs, DirTemp, DirPretrain, DirSamples, DirLogs}

// Layout resolves the working directories below Root.
type Layout struct {
	Root string
}

// NewLayout returns a layout rooted at root ("." when empty). A relative root is
// made absolute against the process working directory so that paths stay valid
// for collaborators started with a different working directory.
func NewLayout(root string) Layout {
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		return Layout{Root: abs}
	}
	return Layout{Root: filepath.Clean(root)}
}

// Ensure creates every working directory.
func (l Layout) Ensure() error {
	for _, d := range Dirs {
		if err := os.MkdirAll(l.Dir(d), 0o750); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// Dir returns the path of a named working directory.
func (l Layout) Dir(name string) string { return filepath.Join(l.Root, name) }

func (l Layout) Static() string  { return l.Dir(DirStatic) }
func (l Layout) Outputs() string { return l.Dir(DirOutputs) }
func (l Layout) Temp() string    { return l.Dir(DirTemp) }

// Resolve anchors a relative path (e.g. the weights file) at Root. Absolute paths pass through.
func (l Layout) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}
