// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pipeline

// Status classifies how a step ended.
type Status int

const (
	// StatusSuccess means the step produced its normal result.
	StatusSuccess Status = iota
	// StatusDegraded means the step failed but the request continues with a substitute.
	StatusDegraded
	// StatusFatal means the request ends with an error.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDegraded:
		return "degraded"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the explicit result of a pipeline step.
type Outcome[T any] struct {
	Status Status
	Value  T
	// Reason names the degradation (e.g. "inference_fallback").
	Reason string
	// Err is the underlying failure for degraded and fatal outcomes.
	Err error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Value: v}
}

func Degraded[T any](v T, reason string, err error) Outcome[T] {
	return Outcome[T]{Status: StatusDegraded, Value: v, Reason: reason, Err: err}
}

func Fatal[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusFatal, Err: err}
}

// Usable reports whether Value can be consumed by the next step.
func (o Outcome[T]) Usable() bool { return o.Status != StatusFatal }
