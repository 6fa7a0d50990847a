// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/log"
)

// TracingService names the server spans of the API.
const TracingService = "lipread.api"

// StackConfig selects the optional parts of the ingress chain.
// Request IDs, panic recovery, CORS, security headers and metrics are always on.
type StackConfig struct {
	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string
	CSP            string
	Tracing        bool
	Logging        bool
}

// StackFor derives the chain from the service configuration.
func StackFor(cfg config.AppConfig) StackConfig {
	return StackConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Tracing:        cfg.Telemetry.Enabled,
		Logging:        true,
	}
}

// Chain returns the middlewares outermost first.
// RequestID leads so even a recovered panic carries it; logging is innermost to time the handler alone.
func (c StackConfig) Chain() []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		RequestID,
		Recoverer,
		CORS(c.AllowedOrigins),
		SecurityHeaders(c.CSP),
		Metrics(),
	}
	if c.Tracing {
		chain = append(chain, Tracing(TracingService))
	}
	if c.Logging {
		chain = append(chain, log.Middleware())
	}
	return chain
}

// NewRouter constructs a chi router with the chain applied.
// Rate limiting is route-scoped and applied by the API itself.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cfg.Chain()...)
	return r
}
