// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ManuGH/lipread/internal/platform/execx"
)

// ErrNoStreams is returned when ffprobe reports no usable audio or video stream.
var ErrNoStreams = errors.New("ffprobe returned no playable streams")

// StreamInfo is the subset of ffprobe output the compositor needs.
type StreamInfo struct {
	// Duration in seconds; the video stream's when present, the container's otherwise.
	Duration float64
	Width    int
	Height   int
	HasVideo bool
	HasAudio bool
}

// Prober runs ffprobe.
type Prober struct {
	Bin    string
	Runner execx.Runner
}

func NewProber(bin string, runner execx.Runner) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	if runner == nil {
		runner = &execx.Exec{}
	}
	return &Prober{Bin: bin, Runner: runner}
}

// Probe executes ffprobe and returns stream info.
func (p *Prober) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := p.Runner.Run(ctx, p.Bin, args...)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*StreamInfo, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}

	info := &StreamInfo{}
	var audioDuration float64
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = s.Width
			info.Height = s.Height
			info.Duration = parseSeconds(s.Duration)
		case "audio":
			if !info.HasAudio {
				audioDuration = parseSeconds(s.Duration)
			}
			info.HasAudio = true
		}
	}
	if !info.HasVideo && !info.HasAudio {
		return nil, ErrNoStreams
	}

	if info.Duration == 0 && !info.HasVideo {
		info.Duration = audioDuration
	}
	if info.Duration == 0 {
		info.Duration = parseSeconds(data.Format.Duration)
	}
	return info, nil
}

func parseSeconds(s string) float64 {
	if s == "" || s == "N/A" {
		return 0
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

type probeData struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Duration  string `json:"duration,omitempty"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}
