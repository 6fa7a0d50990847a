// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/lipread/internal/cleanup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

func TestSweepOnce_RemovesOnlyExpiredOutputs(t *testing.T) {
	dir := t.TempDir()
	oldAudio := writeAged(t, dir, "audio_a.mp3", 2*time.Hour)
	oldVideo := writeAged(t, dir, "video_a.mp4", 2*time.Hour)
	fresh := writeAged(t, dir, "audio_b.mp3", time.Minute)
	foreign := writeAged(t, dir, "notes.txt", 48*time.Hour)

	s := NewSweeper(dir, time.Hour, time.Minute, cleanup.NewRemover(cleanup.RetryPolicy{MaxAttempts: 1}))
	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.NoFileExists(t, oldAudio)
	assert.NoFileExists(t, oldVideo)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)
}

func TestSweepOnce_DisabledWithoutTTL(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "audio_a.mp3", 100*time.Hour)

	s := NewSweeper(dir, 0, time.Minute, nil)
	assert.False(t, s.Enabled())
	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, old)
	assert.NoError(t, s.Run(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "video_a.mp4", 2*time.Hour)

	s := NewSweeper(dir, time.Hour, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(old)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestIsOutputName(t *testing.T) {
	assert.True(t, IsOutputName("audio_123.mp3"))
	assert.True(t, IsOutputName("video_123.mp4"))
	assert.False(t, IsOutputName("audio_123.mp4"))
	assert.False(t, IsOutputName("input_123_clip.mp4"))
	assert.False(t, IsOutputName(".gitkeep"))
}
