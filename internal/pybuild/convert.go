package pybuild

import (
	"context"
	"fmt"

	"py2pyd/internal/discover"
	"py2pyd/internal/paths"
)

// ConvertOptions mirrors the programmatic invocation contract. Zero values
// select the documented defaults (language level 3, cleanup on).
type ConvertOptions struct {
	InputPath          string
	OutputDir          string
	Annotate           bool
	LanguageLevel      int
	ExtraCompileArgs   []string
	ExtraLinkArgs      []string
	DefineMacros       []Macro
	ForceRebuild       bool
	UseMinGW           bool
	Cleanup            bool
	KeepGeneratedFiles bool
	BuildTempDir       string
}

// Convert compiles a .py file or package into binary extension modules and
// returns the absolute artifact paths.
func (s *Service) Convert(ctx context.Context, opts ConvertOptions) ([]string, error) {
	if opts.LanguageLevel == 0 {
		opts.LanguageLevel = 3
	}

	bp, err := paths.Resolve(opts.InputPath, opts.OutputDir, opts.BuildTempDir)
	if err != nil {
		return nil, err
	}

	modules, err := discover.Discover(bp.InputPath)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoModules, bp.InputPath)
	}

	if err := bp.EnsureDirs(); err != nil {
		return nil, err
	}

	s.logf("building %d module(s) from %s", len(modules), opts.InputPath)

	result, err := s.Build(ctx, modules, BuildConfig{
		LanguageLevel:    opts.LanguageLevel,
		Annotate:         opts.Annotate,
		ExtraCompileArgs: opts.ExtraCompileArgs,
		ExtraLinkArgs:    opts.ExtraLinkArgs,
		DefineMacros:     opts.DefineMacros,
		Force:            opts.ForceRebuild,
		UseMinGW:         opts.UseMinGW,
		OutputDir:        bp.OutputDir,
		BuildTempDir:     bp.BuildTempDir,
	})
	if err != nil {
		return nil, err
	}

	if opts.Cleanup {
		s.logf("cleaning up intermediate build files from source directory")
		// Annotations were requested deliberately; keep them on cleanup.
		removed, failures := CleanSourceTree(bp.InputPath, opts.KeepGeneratedFiles, opts.Annotate)
		s.debugf("removed %d intermediate file(s)", removed)
		for _, f := range failures {
			s.logf("cleanup: %v", f)
		}

		removed, failures = CleanTempBuildDir(bp.BuildTempDir)
		s.debugf("removed %d temp build file(s)", removed)
		for _, f := range failures {
			s.logf("cleanup: %v", f)
		}
	}

	return result.Artifacts, nil
}
