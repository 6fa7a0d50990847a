// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package inference

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/platform/execx"
)

// SubprocessPredictor runs the model script under a Python interpreter:
//
//	python3 <script> --video V --weights W --device D --output O
//
// The transcript is the last non-empty line the script writes to stdout.
type SubprocessPredictor struct {
	// Python is the interpreter; empty resolves python3, then python, from PATH.
	Python string
	Script string
	Runner execx.Runner
}

func NewSubprocessPredictor(python, script string, runner execx.Runner) *SubprocessPredictor {
	if runner == nil {
		runner = &execx.Exec{}
	}
	return &SubprocessPredictor{Python: python, Script: script, Runner: runner}
}

func (p *SubprocessPredictor) Predict(ctx context.Context, req Request) (string, error) {
	python, err := p.interpreter()
	if err != nil {
		return "", fmt.Errorf("resolve python interpreter: %w", err)
	}

	args := []string{
		p.Script,
		"--video", req.VideoPath,
		"--weights", req.WeightsPath,
		"--device", req.Device,
		"--output", req.OutputDir,
	}

	logger := log.WithComponentFromContext(ctx, "inference")
	logger.Debug().
		Str(log.FieldDevice, req.Device).
		Str(log.FieldWeightsPath, req.WeightsPath).
		Msg("running model")

	out, err := p.Runner.Run(ctx, python, args...)
	if err != nil {
		return "", fmt.Errorf("run model: %w", err)
	}

	text, err := lastLine(out)
	if err != nil {
		return "", fmt.Errorf("read model output: %w", err)
	}
	if text == "" {
		return "", ErrEmptyPrediction
	}
	return text, nil
}

func (p *SubprocessPredictor) interpreter() (string, error) {
	if p.Python != "" {
		return p.Python, nil
	}
	return execx.LookPath("python3", "python")
}

// lastLine returns the last non-empty line of out. The scanner may grow to the
// whole output, so long progress lines never hide the transcript.
func lastLine(out []byte) (string, error) {
	var last string
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), max(len(out)+1, bufio.MaxScanTokenSize))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return last, nil
}
