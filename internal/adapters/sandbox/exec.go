// Package sandbox provides a default, host-process implementation of C6's
// SandboxProvider contract, adapted from codenerd's
// internal/tactile/direct.go DirectExecutor (wall-clock timeout via
// context.WithTimeout, output byte-capping via a limitedWriter) but
// narrowed to the single Coding-action shape the core requires: run a
// script under a shell, capture stdout/stderr/exit code.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"

	deepagent "github.com/smhanov/deepagent"
)

// Exec runs code with "sh -c" under a wall-clock timeout, capping
// captured output the way DirectExecutor caps its stdout/stderr buffers.
// It is the reference SandboxProvider; production deployments are
// expected to swap in a real container/VM-backed sandbox, per spec.md 1's
// note that the code-sandbox executor is an external collaborator.
type Exec struct {
	Shell         string
	Timeout       time.Duration
	MaxOutputByte int64
	logger        *zap.Logger
}

func New(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{
		Shell:         "sh",
		Timeout:       20 * time.Second,
		MaxOutputByte: 64 * 1024,
		logger:        logger,
	}
}

func (e *Exec) Execute(ctx context.Context, code string) (deepagent.SandboxResult, error) {
	if code == "" {
		return deepagent.SandboxResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "sandbox.Execute", errors.New("empty code"))
	}

	execCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, e.Shell, "-c", code)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, max: e.MaxOutputByte}
	cmd.Stderr = &limitedWriter{w: &stderr, max: e.MaxOutputByte}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := deepagent.SandboxResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if execCtx.Err() == context.DeadlineExceeded {
		e.logger.Warn("sandbox execution timed out", zap.Duration("elapsed", elapsed), zap.Duration("limit", e.Timeout))
		return result, deepagent.NewStepError(deepagent.KindTransientExternal, "sandbox.Execute", context.DeadlineExceeded)
	}

	var exitErr *exec.ExitError
	if err != nil {
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, deepagent.NewStepError(deepagent.KindPermanentExternal, "sandbox.Execute", err)
	}

	result.ExitCode = 0
	e.logger.Debug("sandbox execution completed", zap.Duration("elapsed", elapsed), zap.Int("exit_code", result.ExitCode))
	return result, nil
}

// limitedWriter caps total bytes written, discarding the remainder while
// still reporting success to the writer's caller, matching codenerd's
// DirectExecutor output-truncation behavior.
type limitedWriter struct {
	w       *bytes.Buffer
	max     int64
	written int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		return n, nil
	}
	remaining := lw.max - lw.written
	if int64(n) > remaining {
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return n, err
}
