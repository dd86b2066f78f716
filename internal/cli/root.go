package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputDir        string
	annotate         bool
	forceRebuild     bool
	useMinGW         bool
	verbose          bool
	diagnose         bool
	cleanup          bool
	noCleanup        bool
	keepCFiles       bool
	extraCompileArgs string
	extraLinkArgs    string
	defineMacros     []string
	buildTempDir     string
	languageLevel    int
	configPath       string
	outputJSON       bool
)

// Execute runs the root cobra command. Build failures exit with code 2 and
// point the user at the diagnostics report.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "run 'py2pyd --diagnose' to inspect the build environment")
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "py2pyd [input]",
		Short: "Compile Python modules into binary extensions",
		Long: "py2pyd compiles a .py file or a directory of .py files into native\n" +
			"extension modules (.pyd on Windows, .so elsewhere) by driving Cython\n" +
			"and the platform's C compiler toolchain.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for built artifacts (default ./build_pyd)")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "Produce Cython annotation HTML alongside generated C")
	cmd.Flags().BoolVar(&forceRebuild, "force", false, "Regenerate C sources even when up to date")
	cmd.Flags().BoolVar(&useMinGW, "use-mingw", false, "Use MinGW gcc instead of MSVC on Windows")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.Flags().BoolVar(&diagnose, "diagnose", false, "Report toolchain availability and exit")
	cmd.Flags().BoolVar(&cleanup, "cleanup", true, "Remove intermediate files after the build")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Keep all intermediate files (overrides --cleanup)")
	cmd.Flags().BoolVar(&keepCFiles, "keep-c-files", false, "Keep generated C files during cleanup")
	cmd.Flags().StringVar(&extraCompileArgs, "extra-compile-args", "", "Extra compiler arguments (space-separated)")
	cmd.Flags().StringVar(&extraLinkArgs, "extra-link-args", "", "Extra linker arguments (space-separated)")
	cmd.Flags().StringArrayVarP(&defineMacros, "define", "D", nil, "Preprocessor define NAME or NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&buildTempDir, "build-temp-dir", "", "Directory for native build byproducts")
	cmd.Flags().IntVar(&languageLevel, "language-level", 0, "Python language level, 2 or 3 (default 3)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to defaults file (default ./py2pyd.yaml)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON (with --diagnose)")

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if diagnose {
		return runDiagnose(cmd)
	}
	if len(args) != 1 {
		return fmt.Errorf("an input .py file or directory is required")
	}
	return runConvert(cmd, args[0])
}
