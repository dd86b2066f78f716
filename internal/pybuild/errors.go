package pybuild

import (
	"errors"
	"fmt"
)

var (
	// ErrNoModules is reported when discovery returns an empty batch.
	ErrNoModules = errors.New("no python modules found to compile")

	// ErrEnvironment covers missing Python development headers/libraries.
	ErrEnvironment = errors.New("python development files missing")

	// ErrCompilerUnavailable means no usable native compiler remained after
	// fallback and the one-shot auto-configuration attempt.
	ErrCompilerUnavailable = errors.New("no usable native compiler")

	// ErrBuildFailed wraps failures reported by the code generator or the
	// native build step.
	ErrBuildFailed = errors.New("build failed")
)

// PipelineError attaches diagnostic context to one of the sentinel kinds.
type PipelineError struct {
	Kind error
	Msg  string
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *PipelineError) Unwrap() error { return e.Kind }

func envErrorf(format string, args ...any) error {
	return &PipelineError{Kind: ErrEnvironment, Msg: fmt.Sprintf(format, args...)}
}

func unavailablef(format string, args ...any) error {
	return &PipelineError{Kind: ErrCompilerUnavailable, Msg: fmt.Sprintf(format, args...)}
}

func buildFailedf(format string, args ...any) error {
	return &PipelineError{Kind: ErrBuildFailed, Msg: fmt.Sprintf(format, args...)}
}
