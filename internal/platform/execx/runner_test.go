// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package execx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/lipread/internal/workspace"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
}

func TestRingBuffer_KeepsLastLines(t *testing.T) {
	r := NewRingBuffer(3)
	_, _ = r.Write([]byte("one\ntwo\nthr"))
	_, _ = r.Write([]byte("ee\nfour\nfive"))

	assert.Equal(t, []string{"three", "four", "five"}, r.GetAll())
}

func TestRingBuffer_NotFull(t *testing.T) {
	r := NewRingBuffer(10)
	r.Add("a")
	r.Add("b")
	assert.Equal(t, []string{"a", "b"}, r.GetAll())
}

func TestExec_ReturnsStdout(t *testing.T) {
	requireShell(t)

	out, err := (&Exec{}).Run(context.Background(), "sh", "-c", "echo hello; echo noise >&2")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExec_FailureCarriesStderr(t *testing.T) {
	requireShell(t)

	_, err := (&Exec{}).Run(context.Background(), "sh", "-c", "echo 'bad input' >&2; exit 3")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "sh", exitErr.Tool)
	assert.Equal(t, []string{"bad input"}, exitErr.Stderr)

	var osExit *exec.ExitError
	require.ErrorAs(t, err, &osExit)
	assert.Equal(t, 3, osExit.ExitCode())
}

func TestExec_DirWithRelativeDataRoot(t *testing.T) {
	requireShell(t)
	t.Chdir(t.TempDir())

	layout := workspace.NewLayout("data")
	require.NoError(t, layout.Ensure())
	req := layout.NewRequest("clip.mp4")
	require.NoError(t, os.WriteFile(req.Input, []byte("frames"), 0o600))

	out, err := (&Exec{Dir: layout.Root}).Run(context.Background(), "cat", req.Input)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(out))
}

func TestExec_ContextCancellation(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := (&Exec{}).Run(ctx, "sh", "-c", "sleep 5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLookPath(t *testing.T) {
	requireShell(t)

	p, err := LookPath("definitely-not-a-binary-xyz", "sh")
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	_, err = LookPath("definitely-not-a-binary-xyz")
	assert.Error(t, err)
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "ffmpeg", ToolName("/usr/bin/ffmpeg"))
	assert.Equal(t, "ffprobe", ToolName(`ffprobe.exe`))
}
