// Package execx runs the external toolchain binaries (python, cython, the
// native compilers, vcvars capture scripts) with captured output, bounded
// waits, and per-invocation environment overrides.
package execx

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"
)

// RunOptions controls how a toolchain process is invoked.
//
// Env entries are appended after the inherited environment, so they override
// inherited values of the same name for that single invocation. A nonzero
// Timeout bounds the wait; toolchain probes treat expiry as a detection
// failure, never as a fatal error.
type RunOptions struct {
	Dir     string
	Env     []string
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// stderrTailBytes caps how much compiler/generator output is quoted back in
// error messages.
const stderrTailBytes = 2048

// StderrTail returns the last portion of captured stderr, for error messages
// that quote compiler or generator output.
func (r RunResult) StderrTail() string {
	if len(r.Stderr) <= stderrTailBytes {
		return string(r.Stderr)
	}
	return "..." + string(r.Stderr[len(r.Stderr)-stderrTailBytes:])
}

// Runner abstracts toolchain-process execution so callers can inject fakes
// in tests instead of spawning real compiler binaries.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	return RunResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, err
}

var _ Runner = CmdRunner{}
