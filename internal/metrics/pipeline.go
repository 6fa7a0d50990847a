// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus metrics for the lipread pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No request or prediction ids in labels.

var (
	// PredictionsTotal counts finished predictions by outcome (success, degraded, error).
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lipread_predictions_total",
		Help: "Total number of predictions, by outcome.",
	}, []string{"outcome"})

	// PredictionErrorsTotal counts failed predictions by error kind.
	PredictionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lipread_prediction_errors_total",
		Help: "Total number of failed predictions, by error kind.",
	}, []string{"kind"})

	// DegradedTotal counts degradations by reason.
	DegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lipread_degraded_total",
		Help: "Total number of degraded pipeline steps, by reason.",
	}, []string{"reason"})

	// StageDuration observes the wall time of each pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lipread_stage_duration_seconds",
		Help:    "Duration of pipeline stages.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage", "result"})

	// CleanupFailuresTotal counts temp files left behind after all retries.
	CleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lipread_cleanup_failures_total",
		Help: "Total number of temp files that could not be removed after retries.",
	})

	// CleanupRetriesTotal counts removal attempts beyond the first.
	CleanupRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lipread_cleanup_retries_total",
		Help: "Total number of retried temp file removals.",
	})

	// OutputsSweptTotal counts published outputs removed by retention.
	OutputsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lipread_outputs_swept_total",
		Help: "Total number of expired outputs removed by the retention sweeper.",
	})
)

// RecordPrediction increments the prediction counter.
func RecordPrediction(outcome string) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
}

// RecordPredictionError increments the error counter for a kind.
func RecordPredictionError(kind string) {
	PredictionErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordDegraded increments the degradation counter.
// reason: "inference_fallback", "compositing_failed" or "caption_dropped"
func RecordDegraded(reason string) {
	DegradedTotal.WithLabelValues(reason).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	StageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// RecordCleanupFailure increments the cleanup failure counter.
func RecordCleanupFailure() { CleanupFailuresTotal.Inc() }

// RecordCleanupRetry increments the cleanup retry counter.
func RecordCleanupRetry() { CleanupRetriesTotal.Inc() }

// RecordOutputsSwept adds n to the retention counter.
func RecordOutputsSwept(n int) {
	if n > 0 {
		OutputsSweptTotal.Add(float64(n))
	}
}
