// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a failed prediction. The API maps kinds to HTTP status codes.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindTooLarge      Kind = "too_large"
	KindConfiguration Kind = "configuration"
	KindInference     Kind = "inference"
	KindSynthesis     Kind = "synthesis"
	KindIO            Kind = "io"
	KindUnavailable   Kind = "unavailable"
	KindUnhandled     Kind = "unhandled"
)

var (
	// ErrNotVideo is returned for uploads whose content type is not video/*.
	ErrNotVideo = errors.New("only video files are accepted")
	// ErrMissingWeights is returned when the model checkpoint is absent.
	ErrMissingWeights = errors.New("model weights file not found")
	// ErrSaturated is returned when every admission slot is taken.
	ErrSaturated = errors.New("prediction capacity exhausted")
)

// Error is a failed prediction step.
type Error struct {
	Kind Kind
	// Op is the step that failed ("persist", "inference", ...).
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, KindUnhandled for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnhandled
}
