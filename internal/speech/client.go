// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package speech synthesizes MP3 speech through a gTTS-compatible translate_tts endpoint.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/metrics"
	"github.com/ManuGH/lipread/internal/platform/atomicfile"
	"github.com/ManuGH/lipread/internal/platform/httpx"
	platformnet "github.com/ManuGH/lipread/internal/platform/net"
)

// DefaultEndpoint is Google Translate's public TTS endpoint.
const DefaultEndpoint = "https://translate.google.com/translate_tts"

// maxChunkBytes caps one MP3 part; a 100 character chunk is a few dozen KiB.
const maxChunkBytes = 4 << 20

var (
	// ErrEmptyText is returned for blank input; the endpoint would reject it anyway.
	ErrEmptyText = errors.New("speech: empty text")
	// ErrEmptyAudio is returned when the endpoint answers 200 with no body.
	ErrEmptyAudio = errors.New("speech: endpoint returned no audio")
)

// StatusError is a non-200 answer from the endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("speech: endpoint returned %d %s", e.Code, http.StatusText(e.Code))
}

// Synthesizer writes spoken text to an audio file.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, path string) error
}

// Config configures Client.
type Config struct {
	Endpoint string
	Language string
	Slow     bool
	Timeout  time.Duration
	// RateLimit is requests per second towards the endpoint; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// Client is a gTTS-compatible Synthesizer.
type Client struct {
	endpoint *url.URL
	lang     string
	slow     bool
	http     *http.Client
	limiter  *rate.Limiter
}

var _ Synthesizer = (*Client)(nil)

// NewClient validates cfg. A nil httpClient gets the traced, hardened default.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	u, ok := platformnet.ParseDirectHTTPURL(cfg.Endpoint)
	if !ok {
		return nil, fmt.Errorf("speech: invalid endpoint %q", platformnet.SanitizeURL(cfg.Endpoint))
	}

	if cfg.Language == "" {
		cfg.Language = "en"
	}
	tag, err := language.Parse(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("speech: language %q: %w", cfg.Language, err)
	}

	if httpClient == nil {
		httpClient = httpx.NewTracedClient(cfg.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		endpoint: u,
		lang:     tag.String(),
		slow:     cfg.Slow,
		http:     httpClient,
		limiter:  limiter,
	}, nil
}

// Language returns the BCP 47 tag sent as tl.
func (c *Client) Language() string { return c.lang }

// SynthesizeToFile fetches one MP3 part per chunk and concatenates them into path.
// MP3 frames are self-delimiting, so byte concatenation yields a playable file.
// path is only created once every part has been received.
func (c *Client) SynthesizeToFile(ctx context.Context, text, path string) error {
	chunks := Chunk(text, MaxChunkLen)
	if len(chunks) == 0 {
		return ErrEmptyText
	}

	logger := log.WithComponentFromContext(ctx, "speech")
	start := time.Now()

	err := atomicfile.Write(path, func(w io.Writer) error {
		for i, chunk := range chunks {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("speech: rate limit: %w", err)
			}
			if err := c.fetch(ctx, w, chunk, i, len(chunks)); err != nil {
				return fmt.Errorf("speech: chunk %d/%d: %w", i+1, len(chunks), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("chunks", len(chunks)).
		Str("lang", c.lang).
		Dur("elapsed", time.Since(start)).
		Msg("speech synthesized")
	return nil
}

func (c *Client) fetch(ctx context.Context, w io.Writer, chunk string, idx, total int) error {
	speed := "1"
	if c.slow {
		speed = "0.3"
	}
	q := url.Values{
		"ie":       {"UTF-8"},
		"q":        {chunk},
		"tl":       {c.lang},
		"client":   {"tw-ob"},
		"ttsspeed": {speed},
		"total":    {strconv.Itoa(total)},
		"idx":      {strconv.Itoa(idx)},
		"textlen":  {strconv.Itoa(utf8.RuneCountInString(chunk))},
	}
	u := *c.endpoint
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lipread)")
	req.Header.Set("Accept", "audio/mpeg, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordSpeechRequest("transport_error")
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordSpeechRequest(strconv.Itoa(resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		// Captcha and consent pages come back as 200 text/html.
		return fmt.Errorf("unexpected content type %q", ct)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxChunkBytes))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmptyAudio
	}
	return nil
}

// VerifyFile reports whether path exists and is non-empty.
func VerifyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return ErrEmptyAudio
	}
	return nil
}
