// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopPlan(t *testing.T) {
	tests := []struct {
		name         string
		clip, target float64
		want         Plan
	}{
		{"shorter clip loops", 3, 7, Plan{Repeat: 3, Duration: 7}},
		{"exact multiple", 2, 6, Plan{Repeat: 3, Duration: 6}},
		{"longer clip truncates", 9, 4, Plan{Repeat: 1, Duration: 4}},
		{"equal", 5, 5, Plan{Repeat: 1, Duration: 5}},
		{"zero clip", 0, 5, Plan{Repeat: 1, Duration: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoopPlan(tt.clip, tt.target))
		})
	}
}

func TestPlanArgs(t *testing.T) {
	assert.Equal(t, []string{"-stream_loop", "2"}, LoopPlan(3, 7).Args())
	assert.Empty(t, LoopPlan(9, 4).Args())
}

func TestFontSize(t *testing.T) {
	assert.Equal(t, 24, FontSize(0))
	assert.Equal(t, 24, FontSize(320))
	assert.Equal(t, 32, FontSize(640))
	assert.Equal(t, 48, FontSize(960))
	assert.Equal(t, 48, FontSize(3840))
}

func TestCaptionFilter(t *testing.T) {
	got := CaptionFilter("HELLO WORLD", 640, "")
	assert.Equal(t,
		"drawtext=expansion=none:text=HELLO WORLD:fontcolor=white:fontsize=32:borderw=1:bordercolor=black:x=(w-text_w)/2:y=h*0.85",
		got)
}

func TestCaptionFilter_EscapesSyntax(t *testing.T) {
	got := CaptionFilter("IT'S 10:30, OK", 100, "/fonts/a b.ttf")
	assert.Contains(t, got, `text=IT\\\'S 10\\:30\, OK`)
	assert.Contains(t, got, "fontfile=/fonts/a b.ttf:")
	assert.Contains(t, got, "fontsize=24")
}
