// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cleanup

import (
	"context"
	"sync"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/metrics"
)

// Tracker collects the temp files of one request and removes them all at the end.
// Cleanup failures are logged and counted, never returned to the caller's response path.
type Tracker struct {
	remover *Remover

	mu    sync.Mutex
	paths []string
	done  bool
}

// Track starts a new Tracker.
func (r *Remover) Track() *Tracker {
	return &Tracker{remover: r}
}

// Add registers paths for removal. Duplicates are ignored.
func (t *Tracker) Add(paths ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range paths {
		if p == "" || t.contains(p) {
			continue
		}
		t.paths = append(t.paths, p)
	}
}

// Keep unregisters path so Cleanup leaves it in place, e.g. once an output is published.
func (t *Tracker) Keep(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.paths {
		if p == path {
			t.paths = append(t.paths[:i], t.paths[i+1:]...)
			return
		}
	}
}

func (t *Tracker) contains(path string) bool {
	for _, p := range t.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Cleanup removes every registered path and returns the ones left behind.
// It runs detached from ctx cancellation so a disconnected client still gets its files removed.
// Calling it more than once is a no-op.
func (t *Tracker) Cleanup(ctx context.Context) []string {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	logger := log.WithComponentFromContext(ctx, "cleanup")

	var leftover []string
	for _, p := range paths {
		if err := t.remover.Remove(ctx, p); err != nil {
			leftover = append(leftover, p)
			metrics.RecordCleanupFailure()
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "cleanup.failed").
				Str(log.FieldPath, p).
				Int("max_attempts", t.remover.policy.MaxAttempts).
				Msg("could not remove temp file")
		}
	}
	return leftover
}
