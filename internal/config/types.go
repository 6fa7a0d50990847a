// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"net"
	"strconv"
	"time"
)

// Deployment variants. Each one selects a preset of defaults for the pipeline policy.
const (
	VariantLocal  = "local"
	VariantCloud  = "cloud"
	VariantSimple = "simple"
)

// Inference failure policies.
const (
	InferenceFailureFail     = "fail"
	InferenceFailureFallback = "fallback"
)

// Inference modes.
const (
	InferenceModeSubprocess = "subprocess"
	InferenceModeStatic     = "static"
)

// URI modes select how published artifacts are addressed in responses.
const (
	URIModeHTTP = "http"
	URIModeFile = "file"
)

// DefaultWeightsPath is the checkpoint shipped with the model.
const DefaultWeightsPath = "pretrain/LipCoordNet_coords_loss_0.025581153109669685_wer_0.01746208431890914_cer_0.006488426950253695.pt"

// DefaultFallbackPrediction is substituted when inference fails under the fallback policy.
const DefaultFallbackPrediction = "HELLO WORLD"

// AppConfig is the explicitly constructed service configuration.
// It is built once by Loader and passed into the components at startup.
type AppConfig struct {
	// Variant selects the deployment preset ("local", "cloud", "simple").
	Variant string `yaml:"variant"`
	// DataDir is the root under which the working directories live.
	DataDir string `yaml:"dataDir"`

	// Host and Port form the API listen address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BaseURL is the public URL used to build download links.
	// Empty means http://localhost:{Port}.
	BaseURL string `yaml:"baseUrl"`

	// WeightsPath is the model checkpoint; its absence fails every prediction.
	WeightsPath string `yaml:"weightsPath"`
	// CaptionBackendEnabled toggles the caption overlay during compositing.
	CaptionBackendEnabled bool `yaml:"captionBackend"`
	// InferenceFailure is "fail" or "fallback".
	InferenceFailure string `yaml:"inferenceFailure"`
	// FallbackPrediction replaces the transcript under the fallback policy.
	FallbackPrediction string `yaml:"fallbackPrediction"`
	// Compositing toggles the captioned video output.
	Compositing bool `yaml:"compositing"`
	// URIMode is "http" (download links) or "file" (file:// URIs).
	URIMode string `yaml:"uriMode"`

	// MaxConcurrent caps in-flight predictions. 0 disables the cap.
	MaxConcurrent int `yaml:"maxConcurrent"`
	// MaxUploadBytes caps the request body of POST /predict.
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
	// CollaboratorTimeout bounds each collaborator call. 0 means no timeout.
	CollaboratorTimeout time.Duration `yaml:"collaboratorTimeout"`

	// OutputTTL is the age after which published outputs are swept. 0 disables the sweeper.
	OutputTTL time.Duration `yaml:"outputTTL"`
	// RetentionInterval is how often the sweeper runs.
	RetentionInterval time.Duration `yaml:"retentionInterval"`

	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	// AllowedOrigins configures CORS. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowedOrigins"`

	Inference InferenceConfig `yaml:"inference"`
	Speech    SpeechConfig    `yaml:"speech"`
	Media     MediaConfig     `yaml:"media"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// InferenceConfig describes how the lip-reading model is invoked.
type InferenceConfig struct {
	// Mode is "subprocess" or "static".
	Mode string `yaml:"mode"`
	// Python is the interpreter; empty resolves python3, then python.
	Python string `yaml:"python"`
	// Script is the inference entrypoint passed to the interpreter.
	Script string `yaml:"script"`
	// Device is forwarded to the model ("cpu", "cuda").
	Device string `yaml:"device"`
	// StaticPrediction is returned in static mode.
	StaticPrediction string `yaml:"staticPrediction"`
}

// SpeechConfig configures the text-to-speech client.
type SpeechConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Language  string        `yaml:"language"`
	Slow      bool          `yaml:"slow"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
}

// MediaConfig configures the ffmpeg-based compositor.
type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpegPath"`
	FFprobePath string `yaml:"ffprobePath"`
	FontFile    string `yaml:"fontFile"`
	FPS         int    `yaml:"fps"`
	Preset      string `yaml:"preset"`
	VideoCodec  string `yaml:"videoCodec"`
	AudioCodec  string `yaml:"audioCodec"`
}

// CleanupConfig is the retry policy applied to every temp file removal.
type CleanupConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	Delay       time.Duration `yaml:"delay"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `yaml:"readTimeout"`
	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Encoding runs inside the request, so 0 (no timeout) is the default.
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// MaxHeaderBytes limits request header size
	MaxHeaderBytes int `yaml:"maxHeaderBytes"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// RateLimitConfig controls the per-IP limit on the API.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// ListenAddr returns host:port for the API server.
func (c AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PublicBaseURL resolves the base URL used in download links.
func (c AppConfig) PublicBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "http://localhost:" + strconv.Itoa(c.Port)
}
