// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Plan describes how a speech clip is fitted to the video length.
type Plan struct {
	// Repeat is how many back-to-back copies of the clip are played.
	Repeat int
	// Duration is the final audio length in seconds; it always equals the target.
	Duration float64
}

// LoopPlan fits a clip of clip seconds to target seconds.
// Shorter clips are repeated ceil(target/clip) times; the result is truncated to target.
func LoopPlan(clip, target float64) Plan {
	if clip <= 0 || target <= 0 || clip >= target {
		return Plan{Repeat: 1, Duration: target}
	}
	return Plan{Repeat: int(math.Ceil(target / clip)), Duration: target}
}

// Args returns the ffmpeg input options that realise the plan.
func (p Plan) Args() []string {
	var args []string
	if p.Repeat > 1 {
		args = append(args, "-stream_loop", strconv.Itoa(p.Repeat-1))
	}
	return args
}

// Caption font size bounds.
const (
	minFontSize = 24
	maxFontSize = 48
)

// FontSize scales the caption to the frame: width/20, clamped to [24, 48].
func FontSize(width int) int {
	return max(minFontSize, min(maxFontSize, width/20))
}

// CaptionFilter builds the drawtext filter: white text with a 1px black border,
// horizontally centred, top edge at 85% of the frame height.
func CaptionFilter(text string, width int, fontFile string) string {
	opts := []string{
		"expansion=none",
		"text=" + escapeFilterValue(strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))),
		"fontcolor=white",
		"fontsize=" + strconv.Itoa(FontSize(width)),
		"borderw=1",
		"bordercolor=black",
		"x=(w-text_w)/2",
		"y=h*0.85",
	}
	if fontFile != "" {
		opts = append([]string{"fontfile=" + escapeFilterValue(filepath.ToSlash(fontFile))}, opts...)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

var (
	// Option values are split on ':' and may be quoted.
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	// Filtergraph syntax characters.
	graphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `,`, `\,`, `;`, `\;`, `[`, `\[`, `]`, `\]`)
)

// escapeFilterValue escapes s for both levels ffmpeg parses a filter option at.
func escapeFilterValue(s string) string {
	return graphEscaper.Replace(optionEscaper.Replace(s))
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
