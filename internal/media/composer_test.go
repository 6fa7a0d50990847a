// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	videoJSON = `{"streams":[{"codec_type":"video","codec_name":"h264","width":640,"height":480,"duration":"7.000"},
{"codec_type":"audio","codec_name":"aac","duration":"7.000"}],"format":{"duration":"7.000","format_name":"mov,mp4"}}`
	speechJSON = `{"streams":[{"codec_type":"audio","codec_name":"mp3","duration":"3.000"}],"format":{"duration":"3.000","format_name":"mp3"}}`
)

// fakeRunner answers ffprobe from canned JSON and "renders" ffmpeg outputs by creating the last arg.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	probe   map[string]string
	failMux func(args []string) bool
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{bin}, args...))
	f.mu.Unlock()

	target := args[len(args)-1]
	if strings.Contains(bin, "ffprobe") {
		for suffix, out := range f.probe {
			if strings.HasSuffix(target, suffix) {
				return []byte(out), nil
			}
		}
		return nil, fmt.Errorf("no probe data for %s", target)
	}

	if err := os.WriteFile(target, []byte("rendered"), 0o600); err != nil {
		return nil, err
	}
	if f.failMux != nil && slices.Contains(args, "-map") && f.failMux(args) {
		return nil, errors.New("ffmpeg: render failed")
	}
	return nil, nil
}

func (f *fakeRunner) ffmpegCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.calls {
		if c[0] == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

func newJob(t *testing.T) Job {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "input_id_clip.mp4")
	audio := filepath.Join(dir, "audio_id.mp3")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o600))
	require.NoError(t, os.WriteFile(audio, []byte("speech"), 0o600))
	return Job{
		Source:    src,
		Copy:      filepath.Join(dir, "copy_id_clip.mp4"),
		Audio:     audio,
		TempAudio: filepath.Join(dir, "temp_audio_id.m4a"),
		Output:    filepath.Join(dir, "video_id.mp4"),
		Caption:   "HELLO WORLD",
	}
}

func newFake() *fakeRunner {
	return &fakeRunner{probe: map[string]string{"clip.mp4": videoJSON, ".mp3": speechJSON}}
}

func TestCompose_LoopsSpeechAndCaptions(t *testing.T) {
	job := newJob(t)
	fake := newFake()
	c := NewComposer(Config{}, fake, NewProber("ffprobe", fake))

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)

	assert.True(t, res.Looped)
	assert.True(t, res.Captioned)
	assert.False(t, res.CaptionDropped)
	assert.Equal(t, 640, res.Width)
	assert.FileExists(t, job.Copy)
	assert.FileExists(t, job.Output)

	calls := fake.ffmpegCalls()
	require.Len(t, calls, 2)

	loop := strings.Join(calls[0], " ")
	assert.Contains(t, loop, "-stream_loop 2 -i "+job.Audio)
	assert.Contains(t, loop, "-t 7.000")
	assert.True(t, strings.HasSuffix(loop, job.TempAudio))

	mux := strings.Join(calls[1], " ")
	assert.Contains(t, mux, "-i "+job.TempAudio)
	assert.Contains(t, mux, "-map 0:v:0 -map 1:a:0")
	assert.Contains(t, mux, "drawtext=")
	assert.Contains(t, mux, "-c:v libx264 -preset ultrafast")
	assert.Contains(t, mux, "-r 24 -c:a aac")
}

func TestCompose_CaptionFailureRetriesWithoutCaption(t *testing.T) {
	job := newJob(t)
	fake := newFake()
	fake.failMux = func(args []string) bool { return slices.Contains(args, "-vf") }
	c := NewComposer(Config{}, fake, nil)
	c.prober = NewProber("ffprobe", fake)

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, res.Captioned)
	assert.True(t, res.CaptionDropped)
	assert.FileExists(t, job.Output)

	calls := fake.ffmpegCalls()
	require.Len(t, calls, 3)
	assert.NotContains(t, calls[2], "-vf")
}

func TestCompose_FailureRemovesPartialOutput(t *testing.T) {
	job := newJob(t)
	fake := newFake()
	fake.failMux = func([]string) bool { return true }
	c := NewComposer(Config{}, fake, NewProber("ffprobe", fake))

	_, err := c.Compose(context.Background(), job)
	require.Error(t, err)
	assert.NoFileExists(t, job.Output)
}

func TestCompose_NoCaptionRequested(t *testing.T) {
	job := newJob(t)
	job.Caption = ""
	fake := newFake()
	c := NewComposer(Config{}, fake, NewProber("ffprobe", fake))

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, res.Captioned)
	assert.False(t, res.CaptionDropped)
	for _, call := range fake.ffmpegCalls() {
		assert.NotContains(t, call, "-vf")
	}
}

func TestCompose_MatchingDurationSkipsLoop(t *testing.T) {
	job := newJob(t)
	fake := newFake()
	fake.probe[".mp3"] = strings.ReplaceAll(speechJSON, "3.000", "7.000")
	c := NewComposer(Config{}, fake, NewProber("ffprobe", fake))

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, res.Looped)

	calls := fake.ffmpegCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, strings.Join(calls[0], " "), "-i "+job.Audio)
	assert.NoFileExists(t, job.TempAudio)
}

func TestCompose_ProbeFailure(t *testing.T) {
	job := newJob(t)
	fake := &fakeRunner{probe: map[string]string{}}
	c := NewComposer(Config{}, fake, NewProber("ffprobe", fake))

	_, err := c.Compose(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe video")
	assert.NoFileExists(t, job.Output)
}

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(videoJSON))
	require.NoError(t, err)
	assert.Equal(t, StreamInfo{Duration: 7, Width: 640, Height: 480, HasVideo: true, HasAudio: true}, *info)

	info, err = parseProbe([]byte(`{"streams":[{"codec_type":"audio","duration":"N/A"}],"format":{"duration":"2.5"}}`))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, info.Duration, 0.0001)
	assert.False(t, info.HasVideo)

	_, err = parseProbe([]byte(`{"streams":[],"format":{}}`))
	require.ErrorIs(t, err, ErrNoStreams)

	_, err = parseProbe([]byte("not json"))
	require.Error(t, err)
}
