// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ManuGH/lipread/internal/admission"
	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/pipeline"
)

const uploadField = "file"

var errMissingFile = errors.New(`multipart field "file" is required`)

// handlePredict streams the uploaded video into the pipeline without buffering it.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	release, reason := s.gate.TryAdmit()
	if reason != admission.ReasonAdmitted {
		logger.Warn().
			Str(log.FieldEvent, "predict.rejected").
			Str("reason", string(reason)).
			Msg("prediction capacity exhausted")
		writePipelineError(w, r, pipeline.ErrSaturated)
		return
	}
	defer release()

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	part, err := uploadPart(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, r, http.StatusRequestEntityTooLarge, string(pipeline.KindTooLarge), kindDetail[pipeline.KindTooLarge])
			return
		}
		logger.Warn().Err(err).Str(log.FieldEvent, "predict.bad_request").Msg("invalid multipart upload")
		writeProblem(w, r, http.StatusBadRequest, string(pipeline.KindInvalidInput), "A multipart form with a video in the \"file\" field is required.")
		return
	}
	defer func() { _ = part.Close() }()

	res, err := s.predictor.Predict(r.Context(), pipeline.Upload{
		Filename:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Body:        part,
	})
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// uploadPart advances the multipart reader to the file field.
func uploadPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		_ = part.Close()
	}
}
