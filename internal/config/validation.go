// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	platformnet "github.com/ManuGH/lipread/internal/platform/net"
)

// Validate reports every invalid field at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch cfg.Variant {
	case VariantLocal, VariantCloud, VariantSimple:
	default:
		add("variant %q must be one of local, cloud, simple", cfg.Variant)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		add("port %d out of range", cfg.Port)
	}
	if cfg.BaseURL != "" {
		if _, ok := platformnet.ParseDirectHTTPURL(cfg.BaseURL); !ok {
			add("baseUrl %q must be an absolute http(s) URL without credentials", platformnet.SanitizeURL(cfg.BaseURL))
		}
	}
	if strings.TrimSpace(cfg.WeightsPath) == "" {
		add("weightsPath must not be empty")
	}
	switch cfg.InferenceFailure {
	case InferenceFailureFail, InferenceFailureFallback:
	default:
		add("inferenceFailure %q must be fail or fallback", cfg.InferenceFailure)
	}
	switch cfg.URIMode {
	case URIModeHTTP, URIModeFile:
	default:
		add("uriMode %q must be http or file", cfg.URIMode)
	}
	switch cfg.Inference.Mode {
	case InferenceModeSubprocess:
		if strings.TrimSpace(cfg.Inference.Script) == "" {
			add("inference.script must be set in subprocess mode")
		}
	case InferenceModeStatic:
	default:
		add("inference.mode %q must be subprocess or static", cfg.Inference.Mode)
	}
	if cfg.MaxConcurrent < 0 {
		add("maxConcurrent must be >= 0")
	}
	if cfg.MaxUploadBytes <= 0 {
		add("maxUploadBytes must be > 0")
	}
	if cfg.Cleanup.MaxAttempts < 1 {
		add("cleanup.maxAttempts must be >= 1")
	}
	if cfg.Cleanup.Delay < 0 {
		add("cleanup.delay must be >= 0")
	}
	if cfg.OutputTTL > 0 && cfg.RetentionInterval <= 0 {
		add("retentionInterval must be > 0 when outputTTL is set")
	}
	if _, err := language.Parse(cfg.Speech.Language); err != nil {
		add("speech.language %q: %v", cfg.Speech.Language, err)
	}
	if _, ok := platformnet.ParseDirectHTTPURL(cfg.Speech.Endpoint); !ok {
		add("speech.endpoint %q must be an absolute http(s) URL", platformnet.SanitizeURL(cfg.Speech.Endpoint))
	}
	if cfg.Speech.RateLimit < 0 {
		add("speech.rateLimit must be >= 0")
	}
	if cfg.Media.FPS <= 0 {
		add("media.fps must be > 0")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel %q: %v", cfg.LogLevel, err)
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q must be grpc or http", cfg.Telemetry.Exporter)
		}
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		add("rateLimit requires requests > 0 and window > 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
