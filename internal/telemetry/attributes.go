// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Prediction attributes
	PredictionIDKey       = "prediction.id"
	PredictionVariantKey  = "prediction.variant"
	PredictionOutcomeKey  = "prediction.outcome"
	PredictionDegradedKey = "prediction.degraded"

	// Upload attributes
	UploadContentTypeKey = "upload.content_type"
	UploadBytesKey       = "upload.bytes"

	// Media attributes
	MediaDurationKey = "media.duration_s"
	MediaWidthKey    = "media.width"
	MediaHeightKey   = "media.height"
	MediaLoopedKey   = "media.audio_looped"
	MediaCaptionKey  = "media.captioned"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// PredictionAttributes identifies a prediction span.
func PredictionAttributes(id, variant string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PredictionIDKey, id),
		attribute.String(PredictionVariantKey, variant),
	}
}

// MediaAttributes describes the probed source video and what the compositor did.
func MediaAttributes(duration float64, width, height int, looped, captioned bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64(MediaDurationKey, duration),
		attribute.Int(MediaWidthKey, width),
		attribute.Int(MediaHeightKey, height),
		attribute.Bool(MediaLoopedKey, looped),
		attribute.Bool(MediaCaptionKey, captioned),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// MarkError records err on span and flags it failed.
func MarkError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(ErrorAttributes(errorType)...)
	span.SetStatus(codes.Error, errorType)
}
