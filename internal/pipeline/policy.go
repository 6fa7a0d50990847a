// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pipeline

import (
	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/workspace"
)

// InferenceFailure decides what an inference error does to the request.
type InferenceFailure string

const (
	// FailOnInferenceError ends the request with KindInference.
	FailOnInferenceError InferenceFailure = config.InferenceFailureFail
	// FallbackOnInferenceError substitutes Policy.FallbackPrediction.
	FallbackOnInferenceError InferenceFailure = config.InferenceFailureFallback
)

// Policy captures the behaviour that differs between deployment variants.
type Policy struct {
	InferenceFailure   InferenceFailure
	FallbackPrediction string
	// Caption enables the drawtext overlay.
	Caption bool
	// Compositing enables the captioned video output.
	Compositing bool
	// Resolver turns published files into response URIs.
	Resolver workspace.Resolver
}

// PolicyFor derives the policy from the loaded configuration.
func PolicyFor(cfg config.AppConfig) Policy {
	p := Policy{
		InferenceFailure:   InferenceFailure(cfg.InferenceFailure),
		FallbackPrediction: cfg.FallbackPrediction,
		Caption:            cfg.CaptionBackendEnabled,
		Compositing:        cfg.Compositing,
	}
	if p.FallbackPrediction == "" {
		p.FallbackPrediction = config.DefaultFallbackPrediction
	}
	if cfg.URIMode == config.URIModeFile {
		p.Resolver = workspace.FileResolver{}
	} else {
		p.Resolver = workspace.HTTPResolver{BaseURL: cfg.PublicBaseURL()}
	}
	return p
}
