// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID    = "request_id"
	FieldPredictionID = "prediction_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldVariant   = "variant"
	FieldOutcome   = "outcome"
	FieldAttempt   = "attempt"

	// Media fields
	FieldDuration      = "duration_s"
	FieldAudioDuration = "audio_duration_s"
	FieldWidth         = "width"
	FieldHeight        = "height"
	FieldDevice        = "device"

	// Path / URL fields
	FieldPath        = "path"
	FieldBaseURL     = "base_url"
	FieldWeightsPath = "weights_path"
	FieldFilename    = "filename"
	FieldContentType = "content_type"
)
