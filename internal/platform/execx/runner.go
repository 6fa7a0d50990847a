// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package execx runs collaborator subprocesses (inference, ffmpeg, ffprobe).
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/metrics"
)

const diagnosticLines = 50

// Runner runs a program to completion and returns its stdout.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// ExitError is returned when a subprocess fails. Stderr holds the last lines it printed.
type ExitError struct {
	Tool   string
	Err    error
	Stderr []string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if len(e.Stderr) > 0 {
		msg += " (stderr: " + strings.Join(e.Stderr, " | ") + ")"
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec is the os/exec backed Runner.
type Exec struct {
	// Dir is the working directory of the child; empty inherits the daemon's.
	Dir string
}

var _ Runner = (*Exec)(nil)

func (e *Exec) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	tool := ToolName(bin)
	logger := log.WithComponentFromContext(ctx, "execx")

	// #nosec G204 -- binaries come from operator config; args are built by this module
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = e.Dir

	var stdout bytes.Buffer
	ring := NewRingBuffer(diagnosticLines)
	cmd.Stdout = &stdout
	cmd.Stderr = ring

	start := time.Now()
	err := cmd.Run()
	metrics.RecordSubprocessExit(tool, err == nil)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		exitErr := &ExitError{Tool: tool, Err: err, Stderr: ring.GetAll()}
		logger.Debug().
			Err(err).
			Str("tool", tool).
			Strs("stderr", exitErr.Stderr).
			Dur("elapsed", time.Since(start)).
			Msg("subprocess failed")
		return stdout.Bytes(), exitErr
	}

	logger.Debug().
		Str("tool", tool).
		Dur("elapsed", time.Since(start)).
		Msg("subprocess finished")
	return stdout.Bytes(), nil
}

// ToolName is the metric/log label for a binary path.
func ToolName(bin string) string {
	return strings.TrimSuffix(filepath.Base(bin), ".exe")
}

// LookPath returns the first candidate found on PATH.
func LookPath(candidates ...string) (string, error) {
	var firstErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p, err := exec.LookPath(c)
		if err == nil {
			return p, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = exec.ErrNotFound
	}
	return "", firstErr
}
