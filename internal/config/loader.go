// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The variant is resolved first because it selects the defaults the file and ENV override.
func (l *Loader) Load() (AppConfig, error) {
	var data []byte
	if l.configPath != "" {
		// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
		b, err := os.ReadFile(l.configPath)
		if errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, l.configPath)
		}
		if err != nil {
			return AppConfig{}, fmt.Errorf("read file: %w", err)
		}
		data = b
	}

	variant, err := resolveVariant(data)
	if err != nil {
		return AppConfig{}, err
	}

	cfg := Defaults(variant)

	if len(data) > 0 {
		if err := decodeStrict(data, &cfg); err != nil {
			return AppConfig{}, err
		}
		// The variant key in the file was already applied via resolveVariant;
		// ENV may have overridden it.
		cfg.Variant = variant
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Defaults returns the preset for a deployment variant.
func Defaults(variant string) AppConfig {
	cfg := AppConfig{
		Variant:             variant,
		DataDir:             ".",
		Host:                "0.0.0.0",
		Port:                8080,
		WeightsPath:         DefaultWeightsPath,
		FallbackPrediction:  DefaultFallbackPrediction,
		MaxUploadBytes:      200 << 20,
		OutputTTL:           24 * time.Hour,
		RetentionInterval:   10 * time.Minute,
		LogLevel:            "info",
		LogService:          "lipread",
		AllowedOrigins:      []string{"*"},
		CollaboratorTimeout: 0,
		Inference: InferenceConfig{
			Mode:             InferenceModeSubprocess,
			Script:           "inference.py",
			Device:           "cpu",
			StaticPrediction: DefaultFallbackPrediction,
		},
		Speech: SpeechConfig{
			Endpoint: "https://translate.google.com/translate_tts",
			Language: "en",
			Timeout:  30 * time.Second,
		},
		Media: MediaConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			FPS:         24,
			Preset:      "ultrafast",
			VideoCodec:  "libx264",
			AudioCodec:  "aac",
		},
		Cleanup: CleanupConfig{
			MaxAttempts: 5,
			Delay:       500 * time.Millisecond,
		},
		Server: ServerConfig{
			ReadTimeout:     5 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
	}

	switch variant {
	case VariantLocal:
		cfg.InferenceFailure = InferenceFailureFail
		cfg.CaptionBackendEnabled = true
		cfg.Compositing = true
		cfg.URIMode = URIModeFile
		cfg.Cleanup.Delay = 2 * time.Second
		cfg.Telemetry.Environment = "development"
	case VariantSimple:
		cfg.InferenceFailure = InferenceFailureFallback
		cfg.CaptionBackendEnabled = false
		cfg.Compositing = false
		cfg.URIMode = URIModeHTTP
		cfg.Inference.Mode = InferenceModeStatic
	default:
		cfg.InferenceFailure = InferenceFailureFallback
		cfg.CaptionBackendEnabled = false
		cfg.Compositing = true
		cfg.URIMode = URIModeHTTP
	}
	return cfg
}

func resolveVariant(data []byte) (string, error) {
	variant := VariantCloud
	if len(data) > 0 {
		var probe struct {
			Variant string `yaml:"variant"`
		}
		// Non-strict: only the variant key matters here; decodeStrict reports unknown keys.
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return "", fmt.Errorf("strict config parse error: %w", err)
		}
		if probe.Variant != "" {
			variant = probe.Variant
		}
	}
	return strings.ToLower(ParseString("LIPREAD_VARIANT", variant)), nil
}

func decodeStrict(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.DataDir = ParseString("LIPREAD_DATA", cfg.DataDir)
	cfg.Host = ParseStringWithAlias("LIPREAD_HOST", "HOST", cfg.Host)
	if v, ok := os.LookupEnv("LIPREAD_PORT"); ok && v != "" {
		cfg.Port = ParseInt("LIPREAD_PORT", cfg.Port)
	} else {
		cfg.Port = ParseInt("PORT", cfg.Port)
	}
	cfg.BaseURL = normalizeBaseURL(ParseStringWithAlias("LIPREAD_BASE_URL", "RAILWAY_STATIC_URL", cfg.BaseURL))
	cfg.WeightsPath = ParseStringWithAlias("LIPREAD_WEIGHTS_PATH", "WEIGHTS_PATH", cfg.WeightsPath)

	// Disable flags invert onto CaptionBackendEnabled; the LIPREAD_ name wins.
	for _, key := range []string{"DISABLE_IMAGEMAGICK", "LIPREAD_DISABLE_CAPTIONS"} {
		if _, ok := os.LookupEnv(key); ok {
			cfg.CaptionBackendEnabled = !ParseBool(key, !cfg.CaptionBackendEnabled)
		}
	}

	cfg.InferenceFailure = strings.ToLower(ParseString("LIPREAD_INFERENCE_FAILURE", cfg.InferenceFailure))
	cfg.FallbackPrediction = ParseString("LIPREAD_FALLBACK_PREDICTION", cfg.FallbackPrediction)
	cfg.Compositing = ParseBool("LIPREAD_COMPOSITING", cfg.Compositing)
	cfg.URIMode = strings.ToLower(ParseString("LIPREAD_URI_MODE", cfg.URIMode))
	cfg.MaxConcurrent = ParseInt("LIPREAD_MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.MaxUploadBytes = ParseInt64("LIPREAD_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.CollaboratorTimeout = ParseDuration("LIPREAD_COLLABORATOR_TIMEOUT", cfg.CollaboratorTimeout)
	cfg.OutputTTL = ParseDuration("LIPREAD_OUTPUT_TTL", cfg.OutputTTL)
	cfg.RetentionInterval = ParseDuration("LIPREAD_RETENTION_INTERVAL", cfg.RetentionInterval)
	cfg.LogLevel = ParseString("LIPREAD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("LIPREAD_LOG_SERVICE", cfg.LogService)
	cfg.AllowedOrigins = ParseList("LIPREAD_ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.Inference.Mode = strings.ToLower(ParseString("LIPREAD_INFERENCE_MODE", cfg.Inference.Mode))
	cfg.Inference.Python = ParseString("LIPREAD_PYTHON", cfg.Inference.Python)
	cfg.Inference.Script = ParseString("LIPREAD_INFERENCE_SCRIPT", cfg.Inference.Script)
	cfg.Inference.Device = ParseString("LIPREAD_DEVICE", cfg.Inference.Device)
	cfg.Inference.StaticPrediction = ParseString("LIPREAD_STATIC_PREDICTION", cfg.Inference.StaticPrediction)

	cfg.Speech.Endpoint = ParseString("LIPREAD_TTS_ENDPOINT", cfg.Speech.Endpoint)
	cfg.Speech.Language = ParseString("LIPREAD_TTS_LANG", cfg.Speech.Language)
	cfg.Speech.Slow = ParseBool("LIPREAD_TTS_SLOW", cfg.Speech.Slow)
	cfg.Speech.Timeout = ParseDuration("LIPREAD_TTS_TIMEOUT", cfg.Speech.Timeout)
	cfg.Speech.RateLimit = ParseFloat("LIPREAD_TTS_RATE_LIMIT", cfg.Speech.RateLimit)
	cfg.Speech.Burst = ParseInt("LIPREAD_TTS_BURST", cfg.Speech.Burst)

	cfg.Media.FFmpegPath = ParseString("LIPREAD_FFMPEG", cfg.Media.FFmpegPath)
	cfg.Media.FFprobePath = ParseString("LIPREAD_FFPROBE", cfg.Media.FFprobePath)
	cfg.Media.FontFile = ParseString("LIPREAD_FONT_FILE", cfg.Media.FontFile)
	cfg.Media.FPS = ParseInt("LIPREAD_FPS", cfg.Media.FPS)
	cfg.Media.Preset = ParseString("LIPREAD_PRESET", cfg.Media.Preset)

	cfg.Cleanup.MaxAttempts = ParseInt("LIPREAD_CLEANUP_ATTEMPTS", cfg.Cleanup.MaxAttempts)
	cfg.Cleanup.Delay = ParseDuration("LIPREAD_CLEANUP_DELAY", cfg.Cleanup.Delay)

	cfg.Server.ReadTimeout = ParseDuration("LIPREAD_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration("LIPREAD_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = ParseDuration("LIPREAD_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = ParseDuration("LIPREAD_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Metrics.Enabled = ParseBool("LIPREAD_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = ParseString("LIPREAD_METRICS_ADDR", cfg.Metrics.Addr)

	cfg.Telemetry.Enabled = ParseBool("LIPREAD_TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString("LIPREAD_TRACING_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString("LIPREAD_TRACING_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat("LIPREAD_TRACING_SAMPLING", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = ParseString("LIPREAD_ENV", cfg.Telemetry.Environment)

	cfg.RateLimit.Enabled = ParseBool("LIPREAD_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = ParseInt("LIPREAD_RATELIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = ParseDuration("LIPREAD_RATELIMIT_WINDOW", cfg.RateLimit.Window)
}

// normalizeBaseURL trims trailing slashes and assumes https for bare hosts
// (platforms such as Railway export the public domain without a scheme).
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
