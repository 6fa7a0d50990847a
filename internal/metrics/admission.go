// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// InFlightPredictions tracks pipelines currently holding an admission slot.
	InFlightPredictions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lipread_predictions_in_flight",
		Help: "Current number of running predictions.",
	})

	// AdmissionRejectTotal counts requests turned away because every slot was taken.
	AdmissionRejectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lipread_admission_reject_total",
		Help: "Total number of predictions rejected by admission control.",
	})
)

// IncInFlight increments the in-flight gauge.
func IncInFlight() { InFlightPredictions.Inc() }

// DecInFlight decrements the in-flight gauge.
func DecInFlight() { InFlightPredictions.Dec() }

// RecordAdmissionReject increments the rejection counter.
func RecordAdmissionReject() { AdmissionRejectTotal.Inc() }

// GetInFlight returns the current value of the gauge (for testing).
func GetInFlight() float64 {
	var m dto.Metric
	if err := InFlightPredictions.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
