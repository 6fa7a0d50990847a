// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"

	"github.com/ManuGH/lipread/internal/config"
	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/platform/execx"
	"github.com/ManuGH/lipread/internal/workspace"
)

// PerformStartupChecks validates the environment before the server starts.
// Unwritable working directories are fatal. A missing model or ffmpeg only
// warns: the service still starts and each prediction reports the problem.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig, layout workspace.Layout, weightsPath string) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := layout.Ensure(); err != nil {
		return fmt.Errorf("create working directories: %w", err)
	}
	for _, d := range []string{workspace.DirTemp, workspace.DirOutputs} {
		if err := checkWritable(layout.Dir(d)); err != nil {
			return fmt.Errorf("directory %s is not writable: %w", d, err)
		}
	}
	logger.Info().Str("path", layout.Root).Msg("working directories are writable")

	if res := NewFileChecker("weights", weightsPath).Check(context.Background()); res.Status == StatusUnhealthy {
		logger.Warn().
			Str(log.FieldWeightsPath, weightsPath).
			Str("reason", res.Error).
			Msg("model weights missing; predictions will fail until the file is provided")
	}

	if cfg.Compositing {
		for _, bin := range []string{cfg.Media.FFmpegPath, cfg.Media.FFprobePath} {
			if _, err := execx.LookPath(bin); err != nil {
				logger.Warn().
					Str("tool", execx.ToolName(bin)).
					Msg("compositing enabled but tool not found; videos will be skipped")
			}
		}
	}

	if cfg.Inference.Mode == config.InferenceModeSubprocess && cfg.Inference.Python == "" {
		if _, err := execx.LookPath("python3", "python"); err != nil {
			logger.Warn().Msg("no python interpreter on PATH; inference will fail")
		}
	}

	logger.Info().Msg("startup checks passed")
	return nil
}

// RegisterDefaultCheckers wires the readiness checks for the configured service.
func RegisterDefaultCheckers(m *Manager, cfg config.AppConfig, layout workspace.Layout, weightsPath string) {
	m.RegisterChecker(NewFileChecker("weights", weightsPath))
	m.RegisterChecker(NewDirChecker("temp_dir", layout.Temp()))
	m.RegisterChecker(NewDirChecker("outputs_dir", layout.Outputs()))
	if cfg.Compositing {
		m.RegisterChecker(NewBinaryChecker("ffmpeg", cfg.Media.FFmpegPath, false))
		m.RegisterChecker(NewBinaryChecker("ffprobe", cfg.Media.FFprobePath, false))
	}
}
