// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/lipread/internal/admission"
	"github.com/ManuGH/lipread/internal/api"
	"github.com/ManuGH/lipread/internal/cleanup"
	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/health"
	"github.com/ManuGH/lipread/internal/inference"
	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/media"
	"github.com/ManuGH/lipread/internal/pipeline"
	"github.com/ManuGH/lipread/internal/platform/execx"
	"github.com/ManuGH/lipread/internal/retention"
	"github.com/ManuGH/lipread/internal/speech"
	"github.com/ManuGH/lipread/internal/telemetry"
	"github.com/ManuGH/lipread/internal/workspace"
)

// Runtime is the fully wired service.
type Runtime struct {
	Config    config.AppConfig
	Layout    workspace.Layout
	API       *api.Server
	Manager   Manager
	Sweeper   *retention.Sweeper
	Telemetry *telemetry.Provider
}

// Bootstrap builds every component from cfg. Telemetry is shut down by a manager hook.
func Bootstrap(ctx context.Context, cfg config.AppConfig, version string) (*Runtime, error) {
	logger := log.WithComponent("daemon")

	layout := workspace.NewLayout(cfg.DataDir)
	weights := layout.Resolve(cfg.WeightsPath)
	if err := health.PerformStartupChecks(ctx, cfg, layout, weights); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.FromAppConfig(cfg, version))
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		tp = nil
	}

	synth, err := speech.NewClient(speech.Config{
		Endpoint:  cfg.Speech.Endpoint,
		Language:  cfg.Speech.Language,
		Slow:      cfg.Speech.Slow,
		Timeout:   cfg.Speech.Timeout,
		RateLimit: cfg.Speech.RateLimit,
		Burst:     cfg.Speech.Burst,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	runner := &execx.Exec{Dir: layout.Root}
	remover := cleanup.NewRemover(cleanup.RetryPolicy{
		MaxAttempts: cfg.Cleanup.MaxAttempts,
		Delay:       cfg.Cleanup.Delay,
	})

	orch := pipeline.New(pipeline.Deps{
		Layout:      layout,
		Predictor:   newPredictor(cfg, layout, runner),
		Synthesizer: synth,
		Compositor: media.NewComposer(media.Config{
			FFmpegPath: cfg.Media.FFmpegPath,
			FontFile:   layout.Resolve(cfg.Media.FontFile),
			FPS:        cfg.Media.FPS,
			Preset:     cfg.Media.Preset,
			VideoCodec: cfg.Media.VideoCodec,
			AudioCodec: cfg.Media.AudioCodec,
		}, runner, media.NewProber(cfg.Media.FFprobePath, runner)),
		Remover:             remover,
		Policy:              pipeline.PolicyFor(cfg),
		WeightsPath:         weights,
		Device:              cfg.Inference.Device,
		Variant:             cfg.Variant,
		CollaboratorTimeout: cfg.CollaboratorTimeout,
	})

	hm := health.NewManager(version)
	health.RegisterDefaultCheckers(hm, cfg, layout, weights)

	apiServer, err := api.New(api.Deps{
		Config:    cfg,
		Layout:    layout,
		Predictor: orch,
		Gate:      admission.NewGate(cfg.MaxConcurrent),
		Health:    hm,
		Version:   version,
	})
	if err != nil {
		return nil, fmt.Errorf("api server: %w", err)
	}

	deps := Deps{
		Logger:     log.WithComponent("daemon"),
		APIHandler: apiServer.Handler(),
		ListenAddr: cfg.ListenAddr(),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = metricsHandler()
		deps.MetricsAddr = cfg.Metrics.Addr
	}
	mgr, err := NewManager(cfg.Server, deps)
	if err != nil {
		return nil, err
	}
	if tp.Enabled() {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}

	logger.Info().
		Str(log.FieldVariant, cfg.Variant).
		Str("base_url", cfg.PublicBaseURL()).
		Str("inference_mode", cfg.Inference.Mode).
		Bool("compositing", cfg.Compositing).
		Bool("captions", cfg.CaptionBackendEnabled).
		Int("max_concurrent", cfg.MaxConcurrent).
		Msg("service wired")

	return &Runtime{
		Config:    cfg,
		Layout:    layout,
		API:       apiServer,
		Manager:   mgr,
		Sweeper:   retention.NewSweeper(layout.Outputs(), cfg.OutputTTL, cfg.RetentionInterval, remover),
		Telemetry: tp,
	}, nil
}

func newPredictor(cfg config.AppConfig, layout workspace.Layout, runner execx.Runner) inference.Predictor {
	if cfg.Inference.Mode == config.InferenceModeStatic {
		return inference.StaticPredictor{Text: cfg.Inference.StaticPrediction}
	}
	return inference.NewSubprocessPredictor(cfg.Inference.Python, layout.Resolve(cfg.Inference.Script), runner)
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// WaitForShutdown returns a context cancelled on interrupt/termination signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
