// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SpeechRequestsTotal counts upstream TTS chunk requests by status.
	SpeechRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lipread_speech_requests_total",
		Help: "Total number of upstream speech synthesis requests, by status.",
	}, []string{"status"})

	// SubprocessExitTotal counts collaborator subprocess exits by tool and result.
	SubprocessExitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lipread_subprocess_exit_total",
		Help: "Total number of collaborator subprocess exits, by tool and result.",
	}, []string{"tool", "result"})
)

// RecordSpeechRequest increments the TTS request counter.
func RecordSpeechRequest(status string) {
	SpeechRequestsTotal.WithLabelValues(status).Inc()
}

// RecordSubprocessExit increments the subprocess exit counter.
// tool: "inference", "ffmpeg" or "ffprobe"
func RecordSubprocessExit(tool string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	SubprocessExitTotal.WithLabelValues(tool, result).Inc()
}
