// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"time"
)

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	BaseURL string `json:"base_url"`
}

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Port      int       `json:"port"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Lipreading API is running",
		Version: s.version,
		BaseURL: s.cfg.PublicBaseURL(),
	})
}

// handleHealthz is the liveness probe; it always answers 200.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthzResponse{
		Status:    "ok",
		Message:   "Server is running",
		Port:      s.cfg.Port,
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}
