package pybuild

import (
	"context"
	"fmt"
	"log"
	"os/exec"

	"py2pyd/internal/execx"
)

// Directives is the fixed instruction set handed to the code generator for
// every batch. Signature embedding on and bounds/wraparound checks off are
// deliberate, non-configurable trade-offs.
type Directives struct {
	LanguageLevel  int
	EmbedSignature bool
	BoundsCheck    bool
	Wraparound     bool
	Annotate       bool
	Force          bool
	Quiet          bool
}

// Generator turns Python sources into compilable C translation units. The
// concrete implementation shells out to Cython; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, sources []string, d Directives) error
}

// CythonGenerator drives the cython executable. Each source produces a .c
// file next to it; failures surface as generic build failures.
type CythonGenerator struct {
	Runner execx.Runner
	Logger *log.Logger
}

func (g CythonGenerator) Generate(ctx context.Context, sources []string, d Directives) error {
	if len(sources) == 0 {
		return nil
	}

	cython, err := exec.LookPath("cython")
	if err != nil {
		return buildFailedf("cython executable not found; install with: pip install cython")
	}

	args := []string{fmt.Sprintf("-%d", d.LanguageLevel)}
	args = append(args,
		"-X", directive("embedsignature", d.EmbedSignature),
		"-X", directive("boundscheck", d.BoundsCheck),
		"-X", directive("wraparound", d.Wraparound),
	)
	if d.Annotate {
		args = append(args, "--annotate")
	}
	if d.Force {
		args = append(args, "--force")
	}
	if d.Quiet {
		args = append(args, "--quiet")
	}
	args = append(args, sources...)

	if g.Logger != nil {
		g.Logger.Printf("generating C sources for %d module(s)", len(sources))
	}

	result, err := g.Runner.Run(ctx, cython, args, execx.RunOptions{})
	if err != nil {
		return buildFailedf("cython: %v\n%s", err, result.StderrTail())
	}
	return nil
}

func directive(name string, on bool) string {
	if on {
		return name + "=True"
	}
	return name + "=False"
}
