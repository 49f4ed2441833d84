package gen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"studyhall/internal/logging"
)

// Invocation describes one interpreter run. Credentials travel in Env, never
// in Args.
type Invocation struct {
	Binary  string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Invoker runs one external process per call and reports a structured outcome.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) InvocationResult
}

// ProcessInvoker is the real Invoker backed by os/exec. It spawns exactly one
// process per call, captures stdout and stderr into memory up to a cap, and
// enforces the wall-clock budget with a cooperative terminate followed by a
// forced kill after a grace window.
type ProcessInvoker struct {
	// MaxOutputBytes caps each captured stream. Zero means DefaultMaxOutputBytes.
	MaxOutputBytes int64

	// GraceDelay is how long a timed-out process gets between SIGTERM and
	// SIGKILL. Zero means DefaultGraceDelay.
	GraceDelay time.Duration

	// AllowedEnv lists host environment variables passed through to the
	// process, in addition to Invocation.Env.
	AllowedEnv []string
}

const (
	// DefaultMaxOutputBytes bounds captured interpreter output.
	DefaultMaxOutputBytes = 1 * 1024 * 1024

	// DefaultGraceDelay is the SIGTERM-to-SIGKILL window on timeout.
	DefaultGraceDelay = 2 * time.Second

	// DefaultTimeout applies when an invocation carries no budget.
	DefaultTimeout = 60 * time.Second
)

// NewProcessInvoker returns an invoker with default limits.
func NewProcessInvoker() *ProcessInvoker {
	return &ProcessInvoker{
		MaxOutputBytes: DefaultMaxOutputBytes,
		GraceDelay:     DefaultGraceDelay,
		AllowedEnv:     []string{"PATH", "HOME", "LANG", "LC_ALL", "TMPDIR", "PYTHONPATH"},
	}
}

// Invoke runs the process and classifies the outcome. It never returns a Go
// error: spawn failures, timeouts, and non-zero exits are all values in the
// result.
func (p *ProcessInvoker) Invoke(ctx context.Context, inv Invocation) InvocationResult {
	timer := logging.StartTimer(logging.CategoryInvoker, "interpreter invocation")
	defer timer.Stop()

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := p.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	grace := p.GraceDelay
	if grace <= 0 {
		grace = DefaultGraceDelay
	}

	logging.Invoker("Invoking %s with %d args (timeout=%s)", inv.Binary, len(inv.Args), timeout)

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, inv.Binary, inv.Args...)
	cmd.Env = p.buildEnvironment(inv.Env)

	// Cooperative terminate on deadline, forced kill after the grace window.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = grace

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: maxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := InvocationResult{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
		Duration:  elapsed,
		ExitCode:  -1,
	}

	if result.Truncated {
		logging.InvokerWarn("Output truncated: %d bytes discarded",
			stdoutLimited.discarded+stderrLimited.discarded)
	}

	switch {
	case err == nil:
		result.Outcome = OutcomeSuccess
		result.ExitCode = 0
		logging.InvokerDebug("%s exited 0 in %v (stdout=%d bytes)", inv.Binary, elapsed, len(result.Stdout))

	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		// Terminated process classifies as Timeout regardless of how the
		// kill was reported.
		result.Outcome = OutcomeTimeout
		logging.InvokerWarn("%s timed out after %s", inv.Binary, timeout)

	case isExitError(err, &result):
		result.Outcome = OutcomeNonZeroExit
		logging.InvokerDebug("%s exited %d: %s", inv.Binary, result.ExitCode, firstLine(result.Stderr))

	default:
		result.Outcome = OutcomeSpawnFailure
		result.Stderr = appendLine(result.Stderr, err.Error())
		logging.InvokerError("failed to spawn %s: %v", inv.Binary, err)
	}

	return result
}

// buildEnvironment merges the allow-listed host environment with
// invocation-specific variables. Invocation variables win.
func (p *ProcessInvoker) buildEnvironment(invEnv []string) []string {
	env := make([]string, 0, len(p.AllowedEnv)+len(invEnv))
	for _, key := range p.AllowedEnv {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}
	env = append(env, invEnv...)
	return env
}

func isExitError(err error, result *InvocationResult) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return true
	}
	return false
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		toWrite := p[:remaining]
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(toWrite)
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
