package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"py2pyd/internal/config"
	"py2pyd/internal/logx"
	"py2pyd/internal/pybuild"
)

func runConvert(cmd *cobra.Command, inputPath string) error {
	if languageLevel != 0 && languageLevel != 2 && languageLevel != 3 {
		return fmt.Errorf("--language-level must be 2 or 3, got %d", languageLevel)
	}

	logger := logx.New(verbose)
	opts, loadedFrom, err := buildOptions(cmd, inputPath)
	if err != nil {
		return err
	}
	if loadedFrom != "" {
		logger.Printf("loaded defaults from %s", loadedFrom)
	}

	service := pybuild.NewService(logger, verbose)

	artifacts, err := service.Convert(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "built %d artifact(s):\n", len(artifacts))
	for _, a := range artifacts {
		fmt.Fprintf(out, "  %s\n", a)
	}
	if !opts.Cleanup {
		fmt.Fprintln(out, "cleanup skipped; intermediate files remain in the source tree")
	}
	return nil
}

// buildOptions merges the optional defaults file with the command-line
// flags. A flag the user set explicitly always wins over the file value.
// The second return is the path of the defaults file, if one was loaded.
func buildOptions(cmd *cobra.Command, inputPath string) (pybuild.ConvertOptions, string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}
	defaults, found, err := config.Load(path)
	if err != nil {
		return pybuild.ConvertOptions{}, "", err
	}
	if !found {
		path = ""
	}

	opts := pybuild.ConvertOptions{
		InputPath:          inputPath,
		OutputDir:          outputDir,
		Annotate:           annotate,
		LanguageLevel:      languageLevel,
		ExtraCompileArgs:   strings.Fields(extraCompileArgs),
		ExtraLinkArgs:      strings.Fields(extraLinkArgs),
		ForceRebuild:       forceRebuild,
		UseMinGW:           useMinGW,
		Cleanup:            cleanup && !noCleanup,
		KeepGeneratedFiles: keepCFiles,
		BuildTempDir:       buildTempDir,
	}

	flags := cmd.Flags()
	if opts.OutputDir == "" {
		opts.OutputDir = defaults.OutputDir
	}
	if opts.LanguageLevel == 0 {
		opts.LanguageLevel = defaults.LanguageLevel
	}
	if len(opts.ExtraCompileArgs) == 0 {
		opts.ExtraCompileArgs = defaults.ExtraCompileArgs
	}
	if len(opts.ExtraLinkArgs) == 0 {
		opts.ExtraLinkArgs = defaults.ExtraLinkArgs
	}
	if !flags.Changed("use-mingw") && defaults.UseMinGW {
		opts.UseMinGW = true
	}
	if !flags.Changed("keep-c-files") && defaults.KeepCFiles {
		opts.KeepGeneratedFiles = true
	}
	if opts.BuildTempDir == "" {
		opts.BuildTempDir = defaults.BuildTempDir
	}

	macros := defineMacros
	if len(macros) == 0 {
		macros = defaults.DefineMacros
	}
	for _, m := range macros {
		name, value, _ := strings.Cut(m, "=")
		if strings.TrimSpace(name) == "" {
			return pybuild.ConvertOptions{}, "", fmt.Errorf("define %q has no name", m)
		}
		opts.DefineMacros = append(opts.DefineMacros, pybuild.Macro{Name: name, Value: value})
	}

	return opts, path, nil
}
