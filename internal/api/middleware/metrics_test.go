// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func testutilCount(t *testing.T, method, path, status string) uint64 {
	t.Helper()
	obs, err := httpRequestDuration.GetMetricWithLabelValues(method, path, status)
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}
