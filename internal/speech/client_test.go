// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package speech

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ttsServer struct {
	mu      sync.Mutex
	queries []url.Values
	status  int
	ctype   string
}

func (s *ttsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.Query())
	idx := r.URL.Query().Get("idx")
	s.mu.Unlock()

	if s.ctype != "" {
		w.Header().Set("Content-Type", s.ctype)
	} else {
		w.Header().Set("Content-Type", "audio/mpeg")
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	_, _ = fmt.Fprintf(w, "MP3-%s;", idx)
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.Endpoint = srv.URL + "/translate_tts"
	c, err := NewClient(cfg, srv.Client())
	require.NoError(t, err)
	return c
}

func TestSynthesizeToFile_SingleChunk(t *testing.T) {
	h := &ttsServer{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audio_x.mp3")
	c := newTestClient(t, srv, Config{Language: "en"})
	require.NoError(t, c.SynthesizeToFile(context.Background(), "HELLO WORLD", path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MP3-0;", string(got))

	require.Len(t, h.queries, 1)
	q := h.queries[0]
	assert.Equal(t, "HELLO WORLD", q.Get("q"))
	assert.Equal(t, "en", q.Get("tl"))
	assert.Equal(t, "tw-ob", q.Get("client"))
	assert.Equal(t, "UTF-8", q.Get("ie"))
	assert.Equal(t, "1", q.Get("ttsspeed"))
	assert.Equal(t, "1", q.Get("total"))
}

func TestSynthesizeToFile_ConcatenatesChunksInOrder(t *testing.T) {
	h := &ttsServer{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	text := strings.Repeat("SET WHITE BY SEVEN AGAIN ", 10)
	want := Chunk(text, MaxChunkLen)
	require.Greater(t, len(want), 1)

	path := filepath.Join(t.TempDir(), "audio_x.mp3")
	c := newTestClient(t, srv, Config{Slow: true})
	require.NoError(t, c.SynthesizeToFile(context.Background(), text, path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	var expected strings.Builder
	for i := range want {
		fmt.Fprintf(&expected, "MP3-%d;", i)
	}
	assert.Equal(t, expected.String(), string(got))

	require.Len(t, h.queries, len(want))
	for i, q := range h.queries {
		assert.Equal(t, want[i], q.Get("q"))
		assert.Equal(t, "0.3", q.Get("ttsspeed"))
	}
}

func TestSynthesizeToFile_UpstreamErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(&ttsServer{status: http.StatusTooManyRequests})
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "audio_x.mp3")
	err := newTestClient(t, srv, Config{}).SynthesizeToFile(context.Background(), "HELLO", path)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesizeToFile_RejectsHTMLPage(t *testing.T) {
	srv := httptest.NewServer(&ttsServer{ctype: "text/html; charset=utf-8"})
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audio_x.mp3")
	err := newTestClient(t, srv, Config{}).SynthesizeToFile(context.Background(), "HELLO", path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestSynthesizeToFile_EmptyText(t *testing.T) {
	srv := httptest.NewServer(&ttsServer{})
	defer srv.Close()

	err := newTestClient(t, srv, Config{}).SynthesizeToFile(context.Background(), "  ", filepath.Join(t.TempDir(), "a.mp3"))
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestSynthesizeToFile_RateLimitHonoursDeadline(t *testing.T) {
	h := &ttsServer{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := newTestClient(t, srv, Config{RateLimit: 0.001, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	text := strings.Repeat("WORD ", 40) // two chunks
	err := c.SynthesizeToFile(ctx, text, filepath.Join(t.TempDir(), "a.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Len(t, h.queries, 1)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "ftp://example.com"}, nil)
	require.Error(t, err)

	_, err = NewClient(Config{Language: "not a tag!"}, nil)
	require.Error(t, err)

	c, err := NewClient(Config{Language: "pt-br"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", c.Language())
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, VerifyFile(filepath.Join(dir, "missing.mp3")))

	empty := filepath.Join(dir, "empty.mp3")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	assert.ErrorIs(t, VerifyFile(empty), ErrEmptyAudio)
}
