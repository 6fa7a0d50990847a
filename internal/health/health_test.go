// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/workspace"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Ready_NoCheckers(t *testing.T) {
	resp := NewManager("v1.0.0").Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)
}

func TestManager_Ready_Aggregates(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "ok", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "meh", status: StatusDegraded})

	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready, "degraded components keep the service ready")
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)

	m.RegisterChecker(&mockChecker{name: "bad", status: StatusUnhealthy})
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "weights", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, StatusUnhealthy, body.Checks["weights"].Status)
}

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "model.pt")
	empty := filepath.Join(dir, "empty.pt")
	require.NoError(t, os.WriteFile(full, []byte("w"), 0o600))
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name string
		path string
		want Status
	}{
		{"present", full, StatusHealthy},
		{"empty", empty, StatusDegraded},
		{"missing", filepath.Join(dir, "nope.pt"), StatusUnhealthy},
		{"directory", dir, StatusUnhealthy},
		{"unset", "", StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFileChecker("weights", tt.path).Check(context.Background())
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestFileChecker_DoesNotLeakFullPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "secret", "model.pt")
	got := NewFileChecker("weights", missing).Check(context.Background())
	assert.Equal(t, "model.pt", got.Message)
}

func TestBinaryChecker(t *testing.T) {
	missing := "lipread-definitely-not-installed"

	assert.Equal(t, StatusUnhealthy, NewBinaryChecker("tool", missing, true).Check(context.Background()).Status)
	assert.Equal(t, StatusDegraded, NewBinaryChecker("tool", missing, false).Check(context.Background()).Status)

	self, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, NewBinaryChecker("self", self, true).Check(context.Background()).Status)
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewDirChecker("temp", dir).Check(context.Background()).Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")

	assert.Equal(t, StatusUnhealthy, NewDirChecker("temp", filepath.Join(dir, "missing")).Check(context.Background()).Status)
}

func TestPerformStartupChecks_CreatesLayout(t *testing.T) {
	layout := workspace.NewLayout(t.TempDir())
	cfg := config.Defaults(config.VariantSimple)

	require.NoError(t, PerformStartupChecks(context.Background(), cfg, layout, filepath.Join(layout.Root, "missing.pt")))
	for _, d := range workspace.Dirs {
		assert.DirExists(t, layout.Dir(d))
	}
}

func TestRegisterDefaultCheckers(t *testing.T) {
	layout := workspace.NewLayout(t.TempDir())
	require.NoError(t, layout.Ensure())

	m := NewManager("test")
	RegisterDefaultCheckers(m, config.Defaults(config.VariantSimple), layout, filepath.Join(layout.Root, "missing.pt"))

	resp := m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Contains(t, resp.Checks, "weights")
	assert.NotContains(t, resp.Checks, "ffmpeg", "compositing disabled in the simple variant")
}
