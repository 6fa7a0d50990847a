// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pipeline runs one prediction: persist the upload, read lips,
// speak the transcript, composite the captioned video, clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/lipread/internal/cleanup"
	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/inference"
	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/media"
	"github.com/ManuGH/lipread/internal/metrics"
	"github.com/ManuGH/lipread/internal/platform/atomicfile"
	"github.com/ManuGH/lipread/internal/platform/fs"
	"github.com/ManuGH/lipread/internal/speech"
	"github.com/ManuGH/lipread/internal/telemetry"
	"github.com/ManuGH/lipread/internal/workspace"
)

// Degradation reasons reported in Result.Degraded and metrics.
const (
	ReasonInferenceFallback = "inference_fallback"
	ReasonCompositingFailed = "compositing_failed"
	ReasonCaptionDropped    = "caption_dropped"
)

// Compositor renders the captioned, dubbed video.
type Compositor interface {
	Compose(ctx context.Context, job media.Job) (*media.Result, error)
}

// Result is a finished prediction.
type Result struct {
	ID         string   `json:"-"`
	Prediction string   `json:"prediction"`
	AudioURI   *string  `json:"audioUri"`
	VideoURI   *string  `json:"videoUri"`
	Success    bool     `json:"success"`
	Degraded   []string `json:"degraded,omitempty"`
}

// Deps wires the orchestrator to its collaborators.
type Deps struct {
	Layout      workspace.Layout
	Predictor   inference.Predictor
	Synthesizer speech.Synthesizer
	Compositor  Compositor
	Remover     *cleanup.Remover
	Policy      Policy

	// WeightsPath must name a regular file before inference runs.
	WeightsPath string
	Device      string
	Variant     string
	// CollaboratorTimeout bounds each collaborator call; 0 leaves them unbounded.
	CollaboratorTimeout time.Duration
}

// Orchestrator is safe for concurrent use; requests share nothing but the filesystem layout.
type Orchestrator struct {
	deps   Deps
	tracer trace.Tracer
}

func New(deps Deps) *Orchestrator {
	if deps.Remover == nil {
		deps.Remover = cleanup.NewRemover(cleanup.DefaultPolicy)
	}
	if deps.Policy.Resolver == nil {
		deps.Policy.Resolver = workspace.HTTPResolver{}
	}
	if deps.Policy.FallbackPrediction == "" {
		deps.Policy.FallbackPrediction = config.DefaultFallbackPrediction
	}
	return &Orchestrator{deps: deps, tracer: telemetry.Tracer("lipread.pipeline")}
}

// Predict runs the whole pipeline for one upload. Temp files are removed on every path.
func (o *Orchestrator) Predict(ctx context.Context, up Upload) (*Result, error) {
	logger := log.WithComponentFromContext(ctx, "pipeline")

	if !up.IsVideo() {
		logger.Warn().
			Str(log.FieldEvent, "pipeline.rejected").
			Str(log.FieldContentType, up.ContentType).
			Msg("invalid file type")
		err := newError(KindInvalidInput, "validate", ErrNotVideo)
		o.recordFailure(err)
		return nil, err
	}

	req := o.deps.Layout.NewRequest(up.Filename)
	ctx = log.ContextWithPredictionID(ctx, req.ID)
	logger = log.WithComponentFromContext(ctx, "pipeline")

	ctx, span := o.tracer.Start(ctx, "lipread.predict",
		trace.WithAttributes(telemetry.PredictionAttributes(req.ID, o.deps.Variant)...))
	defer span.End()

	tracker := o.deps.Remover.Track()
	tracker.Add(req.TempFiles()...)
	defer tracker.Cleanup(ctx)

	start := time.Now()
	res, err := o.run(ctx, logger, req, up, tracker)
	if err != nil {
		kind := KindOf(err)
		telemetry.MarkError(span, err, string(kind))
		o.recordFailure(err)
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "pipeline.failed").
			Str("kind", string(kind)).
			Dur("elapsed", time.Since(start)).
			Msg("prediction failed")
		return nil, err
	}

	outcome := StatusSuccess
	if len(res.Degraded) > 0 {
		outcome = StatusDegraded
	}
	span.SetAttributes(
		attribute.String(telemetry.PredictionOutcomeKey, outcome.String()),
		attribute.StringSlice(telemetry.PredictionDegradedKey, res.Degraded),
	)
	metrics.RecordPrediction(outcome.String())
	logger.Info().
		Str(log.FieldEvent, "pipeline.completed").
		Str(log.FieldOutcome, outcome.String()).
		Strs("degraded", res.Degraded).
		Bool("audio", res.AudioURI != nil).
		Bool("video", res.VideoURI != nil).
		Dur("elapsed", time.Since(start)).
		Msg("prediction completed")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, logger zerolog.Logger, req workspace.Request, up Upload, tracker *cleanup.Tracker) (*Result, error) {
	res := &Result{ID: req.ID}

	if err := o.stage(ctx, "persist", false, func(context.Context) error {
		return persist(req.Input, up.Body)
	}); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, newError(KindTooLarge, "persist", err)
		}
		return nil, newError(KindIO, "persist", err)
	}
	logger.Info().
		Str(log.FieldEvent, "pipeline.persisted").
		Str(log.FieldFilename, workspace.SanitizeName(up.Filename)).
		Msg("upload saved")

	if err := fs.IsRegularFile(o.deps.WeightsPath); err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "pipeline.weights_missing").
			Str(log.FieldWeightsPath, o.deps.WeightsPath).
			Msg("weights file not found")
		return nil, newError(KindConfiguration, "locate_weights", fmt.Errorf("%w: %w", ErrMissingWeights, err))
	}

	prediction := o.infer(ctx, logger, req)
	if !prediction.Usable() {
		return nil, newError(KindInference, "inference", prediction.Err)
	}
	res.Prediction = prediction.Value
	if prediction.Status == StatusDegraded {
		res.Degraded = append(res.Degraded, prediction.Reason)
	}

	tracker.Add(req.Audio)
	if err := o.stage(ctx, "speech", true, func(ctx context.Context) error {
		if err := o.deps.Synthesizer.SynthesizeToFile(ctx, res.Prediction, req.Audio); err != nil {
			return err
		}
		return speech.VerifyFile(req.Audio)
	}); err != nil {
		return nil, newError(KindSynthesis, "speech", err)
	}
	tracker.Keep(req.Audio)
	audioURI := o.deps.Policy.Resolver.URI(req.AudioName, req.Audio)
	res.AudioURI = &audioURI
	logger.Info().
		Str(log.FieldEvent, "pipeline.synthesized").
		Str(log.FieldPath, req.Audio).
		Msg("audio generated")

	if o.deps.Policy.Compositing {
		tracker.Add(req.Video)
		video := o.composite(ctx, logger, req, res.Prediction)
		if video.Status == StatusSuccess && fs.Exists(req.Video) {
			tracker.Keep(req.Video)
			videoURI := o.deps.Policy.Resolver.URI(req.VideoName, req.Video)
			res.VideoURI = &videoURI
			if video.Value.CaptionDropped {
				res.Degraded = append(res.Degraded, ReasonCaptionDropped)
			}
		} else {
			o.discard(ctx, logger, req.Video)
			reason := video.Reason
			if reason == "" {
				reason = ReasonCompositingFailed
			}
			res.Degraded = append(res.Degraded, reason)
		}
	}

	res.Success = true
	return res, nil
}

func (o *Orchestrator) infer(ctx context.Context, logger zerolog.Logger, req workspace.Request) Outcome[string] {
	var text string
	err := o.stage(ctx, "inference", true, func(ctx context.Context) error {
		var err error
		text, err = o.deps.Predictor.Predict(ctx, inference.Request{
			VideoPath:   req.Input,
			WeightsPath: o.deps.WeightsPath,
			Device:      o.deps.Device,
			OutputDir:   o.deps.Layout.Temp(),
		})
		return err
	})
	if err == nil {
		logger.Info().
			Str(log.FieldEvent, "pipeline.predicted").
			Str("prediction", text).
			Msg("prediction completed")
		return Success(text)
	}

	if o.deps.Policy.InferenceFailure == FallbackOnInferenceError {
		metrics.RecordDegraded(ReasonInferenceFallback)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "pipeline.inference_fallback").
			Str("prediction", o.deps.Policy.FallbackPrediction).
			Msg("prediction failed, using fallback")
		return Degraded(o.deps.Policy.FallbackPrediction, ReasonInferenceFallback, err)
	}
	return Fatal[string](err)
}

func (o *Orchestrator) composite(ctx context.Context, logger zerolog.Logger, req workspace.Request, prediction string) Outcome[media.Result] {
	job := media.Job{
		Source:    req.Input,
		Copy:      req.Copy,
		Audio:     req.Audio,
		TempAudio: req.TempAudio,
		Output:    req.Video,
	}
	if o.deps.Policy.Caption {
		job.Caption = prediction
	}

	var out *media.Result
	err := o.stage(ctx, "compositing", true, func(ctx context.Context) error {
		var err error
		out, err = o.deps.Compositor.Compose(ctx, job)
		return err
	})
	if err != nil {
		metrics.RecordDegraded(ReasonCompositingFailed)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "pipeline.compositing_failed").
			Msg("video generation failed")
		return Degraded(media.Result{}, ReasonCompositingFailed, err)
	}

	if out == nil {
		out = &media.Result{}
	}
	if out.CaptionDropped {
		metrics.RecordDegraded(ReasonCaptionDropped)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.MediaAttributes(out.Duration, out.Width, out.Height, out.Looped, out.Captioned)...)
	logger.Info().
		Str(log.FieldEvent, "pipeline.composited").
		Float64(log.FieldDuration, out.Duration).
		Bool("captioned", out.Captioned).
		Bool("looped", out.Looped).
		Msg("video generated")
	return Success(*out)
}

// discard removes a partial output now. A failed removal stays registered
// with the request tracker, which retries it when the request ends.
func (o *Orchestrator) discard(ctx context.Context, logger zerolog.Logger, path string) {
	if err := o.deps.Remover.Remove(context.WithoutCancel(ctx), path); err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "pipeline.discard_failed").
			Str(log.FieldPath, path).
			Msg("partial video not removed")
	}
}

// stage runs fn in a child span and times it. Collaborator stages are bounded
// by the collaborator timeout.
func (o *Orchestrator) stage(ctx context.Context, name string, collaborator bool, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "lipread."+name)
	defer span.End()

	if collaborator && o.deps.CollaboratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deps.CollaboratorTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(name, err == nil, time.Since(start))
	telemetry.MarkError(span, err, name)
	return err
}

func (o *Orchestrator) recordFailure(err error) {
	metrics.RecordPrediction("error")
	metrics.RecordPredictionError(string(KindOf(err)))
}

func persist(path string, body io.Reader) error {
	if body == nil {
		return fmt.Errorf("empty upload body")
	}
	return atomicfile.Write(path, func(w io.Writer) error {
		_, err := io.Copy(w, body)
		return err
	})
}
