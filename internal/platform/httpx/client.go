// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package httpx builds the outbound HTTP clients. The package-level net/http
// helpers (DefaultClient, Get, Post) are never used.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultUserAgent is sent by collaborator clients. Public TTS endpoints reject empty agents.
const DefaultUserAgent = "lipread/1.0 (+https://github.com/ManuGH/lipread)"

const (
	defaultTimeout       = 5 * time.Second
	maxDialTimeout       = 3 * time.Second
	maxHeaderTimeout     = 10 * time.Second
	idleConnTimeout      = 30 * time.Second
	maxIdleConnsPerHost  = 4
	expectContinueWindow = time.Second
)

// Options configures New.
type Options struct {
	// Timeout bounds a whole exchange including the body. 0 means 5s.
	Timeout time.Duration
	// Traced wraps the transport with otelhttp.
	Traced bool
	// UserAgent is set on requests that carry none.
	UserAgent string
}

// New returns a client whose dial and header waits never exceed the overall timeout.
func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: min(timeout, maxDialTimeout), KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   min(timeout, maxDialTimeout),
		ResponseHeaderTimeout: min(timeout, maxHeaderTimeout),
		ExpectContinueTimeout: expectContinueWindow,
	}
	if opts.UserAgent != "" {
		rt = userAgentTransport{next: rt, agent: opts.UserAgent}
	}
	if opts.Traced {
		rt = otelhttp.NewTransport(rt)
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

// NewClient is a plain client for probes and the CLI.
func NewClient(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout})
}

// NewTracedClient is the collaborator client: traced and identified.
func NewTracedClient(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout, Traced: true, UserAgent: DefaultUserAgent})
}

type userAgentTransport struct {
	next  http.RoundTripper
	agent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(clone)
}
