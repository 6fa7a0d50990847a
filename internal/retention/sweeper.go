// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package retention removes published outputs once they outlive their TTL.
package retention

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ManuGH/lipread/internal/cleanup"
	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/metrics"
)

// Sweeper periodically deletes expired prediction outputs.
// Only files named like pipeline outputs (audio_*.mp3, video_*.mp4) are touched.
type Sweeper struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	remover  *cleanup.Remover
	now      func() time.Time
	busy     atomic.Bool
}

// NewSweeper creates a sweeper over dir. A nil remover uses cleanup.DefaultPolicy.
func NewSweeper(dir string, ttl, interval time.Duration, remover *cleanup.Remover) *Sweeper {
	if remover == nil {
		remover = cleanup.NewRemover(cleanup.DefaultPolicy)
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{dir: dir, ttl: ttl, interval: interval, remover: remover, now: time.Now}
}

// Enabled reports whether a TTL is configured.
func (s *Sweeper) Enabled() bool { return s.ttl > 0 }

// Run sweeps on every tick until ctx is canceled. It returns nil on cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trySweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.trySweep(ctx)
		}
	}
}

func (s *Sweeper) trySweep(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)
	_, _ = s.SweepOnce(ctx)
}

// SweepOnce removes every expired output and returns how many were deleted.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	logger := log.WithComponentFromContext(ctx, "retention")
	if !s.Enabled() {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "retention.list_failed").Msg("cannot list outputs")
		return 0, err
	}

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if e.IsDir() || !IsOutputName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := s.remover.Remove(ctx, path); err != nil {
			logger.Warn().Err(err).
				Str(log.FieldEvent, "retention.remove_failed").
				Str(log.FieldFilename, e.Name()).
				Msg("failed to remove expired output")
			continue
		}
		removed++
	}

	metrics.RecordOutputsSwept(removed)
	if removed > 0 {
		logger.Info().
			Str(log.FieldEvent, "retention.swept").
			Int("removed", removed).
			Dur("ttl", s.ttl).
			Msg("expired outputs removed")
	}
	return removed, nil
}

// IsOutputName reports whether name follows the pipeline's output naming.
func IsOutputName(name string) bool {
	switch {
	case strings.HasPrefix(name, "audio_") && strings.HasSuffix(name, ".mp3"):
		return true
	case strings.HasPrefix(name, "video_") && strings.HasSuffix(name, ".mp4"):
		return true
	}
	return false
}
