// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package media composites the captioned, dubbed output video with ffmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/platform/execx"
)

// Durations closer than this are treated as equal and the speech track is used as-is.
const durationTolerance = 0.001

// Config selects the ffmpeg binary and encoder settings.
type Config struct {
	FFmpegPath string
	FontFile   string
	FPS        int
	Preset     string
	VideoCodec string
	AudioCodec string
}

func (c Config) withDefaults() Config {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FPS <= 0 {
		c.FPS = 24
	}
	if c.Preset == "" {
		c.Preset = "ultrafast"
	}
	if c.VideoCodec == "" {
		c.VideoCodec = "libx264"
	}
	if c.AudioCodec == "" {
		c.AudioCodec = "aac"
	}
	return c
}

// Job names every file one composition touches.
type Job struct {
	// Source is the persisted upload; it is never modified.
	Source string
	// Copy is the scratch duplicate the compositor reads from.
	Copy string
	// Audio is the synthesized speech.
	Audio string
	// TempAudio receives the looped or truncated speech track.
	TempAudio string
	// Output is the published video.
	Output string
	// Caption is burnt into the frames; empty disables the overlay.
	Caption string
}

// Result reports what the composition produced.
type Result struct {
	Duration float64
	Width    int
	Height   int
	// Looped is set when the speech track was refitted to the video length.
	Looped bool
	// Captioned is false when no caption was requested or the caption pass failed.
	Captioned bool
	// CaptionDropped is set when rendering with the caption failed and the video was rendered without it.
	CaptionDropped bool
}

// Composer strips the source audio, overlays the caption and muxes the speech track.
type Composer struct {
	cfg    Config
	runner execx.Runner
	prober *Prober
	copy   func(src, dst string) error
}

func NewComposer(cfg Config, runner execx.Runner, prober *Prober) *Composer {
	if runner == nil {
		runner = &execx.Exec{}
	}
	if prober == nil {
		prober = NewProber("", runner)
	}
	return &Composer{cfg: cfg.withDefaults(), runner: runner, prober: prober, copy: copyFile}
}

// Compose renders job.Output. On error no partial output is left behind.
func (c *Composer) Compose(ctx context.Context, job Job) (*Result, error) {
	logger := log.WithComponentFromContext(ctx, "media")

	if err := c.copy(job.Source, job.Copy); err != nil {
		return nil, fmt.Errorf("duplicate source: %w", err)
	}

	video, err := c.prober.Probe(ctx, job.Copy)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	if !video.HasVideo {
		return nil, fmt.Errorf("probe video: %w", ErrNoStreams)
	}
	speech, err := c.prober.Probe(ctx, job.Audio)
	if err != nil {
		return nil, fmt.Errorf("probe audio: %w", err)
	}

	logger.Info().
		Float64(log.FieldDuration, video.Duration).
		Float64(log.FieldAudioDuration, speech.Duration).
		Int(log.FieldWidth, video.Width).
		Int(log.FieldHeight, video.Height).
		Msg("source probed")

	res := &Result{Duration: video.Duration, Width: video.Width, Height: video.Height}

	audioIn := job.Audio
	if video.Duration > 0 && math.Abs(speech.Duration-video.Duration) > durationTolerance {
		plan := LoopPlan(speech.Duration, video.Duration)
		if err := c.fitAudio(ctx, job, plan); err != nil {
			return nil, fmt.Errorf("fit audio: %w", err)
		}
		audioIn = job.TempAudio
		res.Looped = true
		logger.Info().
			Int("repeat", plan.Repeat).
			Float64(log.FieldDuration, plan.Duration).
			Msg("speech fitted to video duration")
	}

	if job.Caption != "" {
		err := c.mux(ctx, job.Copy, audioIn, job.Output, CaptionFilter(job.Caption, video.Width, c.cfg.FontFile))
		if err == nil {
			res.Captioned = true
			return res, nil
		}
		removeQuietly(job.Output)
		res.CaptionDropped = true
		logger.Warn().Err(err).Msg("caption overlay failed, rendering without caption")
	}

	if err := c.mux(ctx, job.Copy, audioIn, job.Output, ""); err != nil {
		removeQuietly(job.Output)
		return nil, fmt.Errorf("mux: %w", err)
	}
	return res, nil
}

func (c *Composer) fitAudio(ctx context.Context, job Job, plan Plan) error {
	args := []string{"-y", "-v", "error"}
	args = append(args, plan.Args()...)
	args = append(args,
		"-i", job.Audio,
		"-t", formatSeconds(plan.Duration),
		"-vn",
		"-c:a", c.cfg.AudioCodec,
		job.TempAudio,
	)
	_, err := c.runner.Run(ctx, c.cfg.FFmpegPath, args...)
	return err
}

// MuxArgs builds the final ffmpeg invocation. Only the first video stream of
// the source is mapped, which drops its original audio.
func (c *Composer) MuxArgs(video, audio, output, filter string) []string {
	args := []string{
		"-y", "-v", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args,
		"-c:v", c.cfg.VideoCodec,
		"-preset", c.cfg.Preset,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(c.cfg.FPS),
		"-c:a", c.cfg.AudioCodec,
		"-movflags", "+faststart",
		output,
	)
}

func (c *Composer) mux(ctx context.Context, video, audio, output, filter string) error {
	_, err := c.runner.Run(ctx, c.cfg.FFmpegPath, c.MuxArgs(video, audio, output, filter)...)
	return err
}

func copyFile(src, dst string) (err error) {
	// #nosec G304 -- paths are built by the workspace package
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G304
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger := log.WithComponent("media")
		logger.Debug().Err(err).Str(log.FieldPath, path).Msg("remove partial output")
	}
}
