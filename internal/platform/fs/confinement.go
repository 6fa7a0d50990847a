// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fs holds filesystem helpers shared by the HTTP layer and the pipeline.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesRoot is returned when a name resolves outside its root directory.
var ErrEscapesRoot = errors.New("path escapes root")

// ConfineName resolves a single path segment (a flat file name) inside root.
// Separators, "..", backslashes and symlinks that leave root are rejected.
func ConfineName(root, name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid name %q", ErrEscapesRoot, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: name %q contains a separator", ErrEscapesRoot, name)
	}
	return confine(root, name)
}

// ConfineRelPath ensures that joining root and relTarget stays physically
// underneath the resolved root. relTarget must be relative.
func ConfineRelPath(root, relTarget string) (string, error) {
	// Backslashes are ambiguous across platforms; refuse them outright.
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("%w: path contains backslash: %s", ErrEscapesRoot, relTarget)
	}
	cleanRel := filepath.Clean(relTarget)
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "/") {
		return "", fmt.Errorf("%w: target path must be relative: %s", ErrEscapesRoot, relTarget)
	}
	// Segment-based so names like "a..b" stay legal.
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal attempt: %s", ErrEscapesRoot, relTarget)
	}
	return confine(root, cleanRel)
}

func confine(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	fullPath := filepath.Join(realRoot, rel)

	var realPath string
	if _, err := os.Lstat(fullPath); err == nil {
		rp, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			// Existing entry that cannot be resolved: fail closed.
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = rp
	} else {
		dir := filepath.Dir(fullPath)
		rp, err := filepath.EvalSymlinks(dir)
		if err != nil {
			if _, statErr := os.Stat(dir); statErr == nil {
				return "", fmt.Errorf("failed to resolve parent path: %w", err)
			}
			realPath = fullPath
		} else {
			realPath = filepath.Join(rp, filepath.Base(fullPath))
		}
	}

	relOut, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if relOut == ".." || strings.HasPrefix(relOut, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, realPath)
	}
	return realPath, nil
}

// IsRegularFile checks if path exists and is a regular file (not directory, device, etc).
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	return IsRegularFile(path) == nil
}
