// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api provides the HTTP surface of the lip-reading service.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/lipread/internal/admission"
	"github.com/ManuGH/lipread/internal/api/middleware"
	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/health"
	"github.com/ManuGH/lipread/internal/pipeline"
	"github.com/ManuGH/lipread/internal/workspace"
)

// Predictor runs one prediction for an uploaded video.
type Predictor interface {
	Predict(ctx context.Context, up pipeline.Upload) (*pipeline.Result, error)
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Config    config.AppConfig
	Layout    workspace.Layout
	Predictor Predictor
	// Gate caps concurrent predictions; nil admits everything.
	Gate *admission.Gate
	// Health serves /readyz; nil reports ready.
	Health  *health.Manager
	Version string
}

// Server represents the HTTP API server.
type Server struct {
	cfg       config.AppConfig
	layout    workspace.Layout
	predictor Predictor
	gate      *admission.Gate
	health    *health.Manager
	version   string
	startTime time.Time
	handler   http.Handler
}

var errNoPredictor = errors.New("api: predictor is required")

// New builds the server and its router.
func New(deps Deps) (*Server, error) {
	if deps.Predictor == nil {
		return nil, errNoPredictor
	}
	if deps.Gate == nil {
		deps.Gate = admission.NewGate(0)
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	s := &Server{
		cfg:       deps.Config,
		layout:    deps.Layout,
		predictor: deps.Predictor,
		gate:      deps.Gate,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler with the middleware stack applied.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackFor(s.cfg))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.health.ServeReady)

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit.Enabled {
			r.Use(middleware.PredictRateLimit(s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window))
		}
		r.Post("/predict", s.handlePredict)
	})

	r.Get("/outputs/{filename}", s.handleOutput)
	r.Head("/outputs/{filename}", s.handleOutput)
	r.Get("/static/*", s.handleStatic)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "not_found", "Resource not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	})
	return r
}
