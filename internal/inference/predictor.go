// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package inference invokes the lip-reading model.
package inference

import (
	"context"
	"errors"
)

// ErrEmptyPrediction is returned when the model ran but printed no transcript.
var ErrEmptyPrediction = errors.New("inference produced no transcript")

// Request is the input of one model run.
type Request struct {
	VideoPath   string
	WeightsPath string
	Device      string
	// OutputDir is where the model may write intermediate artifacts.
	OutputDir string
}

// Predictor turns a video into a transcript.
type Predictor interface {
	Predict(ctx context.Context, req Request) (string, error)
}

// StaticPredictor returns a fixed transcript without running a model.
type StaticPredictor struct {
	Text string
}

func (p StaticPredictor) Predict(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Text == "" {
		return "", ErrEmptyPrediction
	}
	return p.Text, nil
}
