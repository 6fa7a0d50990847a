// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cleanup removes per-request temp files with a uniform retry policy.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/metrics"
)

// RetryPolicy bounds how hard a removal is retried.
// Files can stay locked briefly after a collaborator exits, hence the constant delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy matches the cleanup defaults of the cloud variant.
var DefaultPolicy = RetryPolicy{MaxAttempts: 5, Delay: 500 * time.Millisecond}

// Remover deletes files, retrying transient failures.
type Remover struct {
	policy RetryPolicy
	remove func(string) error
}

// Option customises a Remover.
type Option func(*Remover)

// WithRemoveFunc replaces os.Remove, e.g. to simulate a locked file.
func WithRemoveFunc(fn func(string) error) Option {
	return func(r *Remover) {
		if fn != nil {
			r.remove = fn
		}
	}
}

// NewRemover returns a Remover applying policy to every call.
func NewRemover(policy RetryPolicy, opts ...Option) *Remover {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	r := &Remover{policy: policy, remove: os.Remove}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective retry policy.
func (r *Remover) Policy() RetryPolicy { return r.policy }

// Remove deletes path. A missing file counts as removed.
func (r *Remover) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		if attempt > 1 {
			metrics.RecordCleanupRetry()
		}
		err := r.remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return struct{}{}, nil
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.policy.Delay)),
		backoff.WithMaxTries(uint(r.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger := log.WithComponentFromContext(ctx, "cleanup")
			logger.Debug().
				Err(err).
				Str(log.FieldPath, path).
				Int(log.FieldAttempt, attempt).
				Dur("retry_in", next).
				Msg("temp file removal failed, retrying")
		}),
	)
	return err
}
