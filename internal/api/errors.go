// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/pipeline"
)

// ErrorResponse is the JSON body of every failed request.
// Detail is a fixed message per code; collaborator errors are only logged.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Code:      code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// statusForKind maps a pipeline failure to its HTTP status.
func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInvalidInput:
		return http.StatusBadRequest
	case pipeline.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case pipeline.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var kindDetail = map[pipeline.Kind]string{
	pipeline.KindInvalidInput:  "Only video files are accepted.",
	pipeline.KindTooLarge:      "The uploaded file is too large.",
	pipeline.KindConfiguration: "The service is not configured to run predictions.",
	pipeline.KindInference:     "Lip reading failed for this video.",
	pipeline.KindSynthesis:     "Speech synthesis failed.",
	pipeline.KindIO:            "The upload could not be stored.",
	pipeline.KindUnavailable:   "The service is busy. Please try again later.",
	pipeline.KindUnhandled:     "An unexpected error occurred.",
}

// writePipelineError answers with the status and fixed detail for err's kind.
func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	kind := pipeline.KindOf(err)
	if errors.Is(err, pipeline.ErrSaturated) {
		kind = pipeline.KindUnavailable
	}
	detail, ok := kindDetail[kind]
	if !ok {
		kind = pipeline.KindUnhandled
		detail = kindDetail[kind]
	}
	writeProblem(w, r, statusForKind(kind), string(kind), detail)
}
