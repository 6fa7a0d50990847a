// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package admission caps the number of predictions running at once.
package admission

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/lipread/internal/metrics"
)

// Reason explains an admission decision.
// All values are lowercase for stable PromQL queries.
type Reason string

const (
	ReasonAdmitted Reason = "admitted"
	ReasonPoolFull Reason = "pool_full"
)

// Gate is a non-blocking counting semaphore. A saturated gate rejects
// immediately instead of queueing, so callers can answer 503.
type Gate struct {
	sem    *semaphore.Weighted
	limit  int64
	active atomic.Int64
}

// NewGate returns a gate admitting at most limit predictions.
// limit <= 0 disables the cap.
func NewGate(limit int) *Gate {
	g := &Gate{limit: int64(limit)}
	if limit > 0 {
		g.sem = semaphore.NewWeighted(int64(limit))
	}
	return g
}

// TryAdmit reserves a slot. On success the returned release func must be
// called exactly once; extra calls are ignored.
func (g *Gate) TryAdmit() (release func(), reason Reason) {
	if g.sem != nil && !g.sem.TryAcquire(1) {
		metrics.RecordAdmissionReject()
		return nil, ReasonPoolFull
	}

	g.active.Add(1)
	metrics.IncInFlight()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.active.Add(-1)
			metrics.DecInFlight()
			if g.sem != nil {
				g.sem.Release(1)
			}
		})
	}, ReasonAdmitted
}

// Active returns the number of admitted predictions.
func (g *Gate) Active() int64 { return g.active.Load() }

// Limit returns the configured cap, 0 when unlimited.
func (g *Gate) Limit() int64 {
	if g.limit < 0 {
		return 0
	}
	return g.limit
}
