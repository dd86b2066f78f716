package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"py2pyd/internal/pybuild"
	"py2pyd/internal/toolchain"
)

func parseRoot(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := newRootCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestRunRootRequiresInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for missing input path")
	}
}

func TestRunConvertRejectsBadLanguageLevel(t *testing.T) {
	cmd := parseRoot(t, "--language-level", "4")
	err := runConvert(cmd, "mod.py")
	if err == nil || !strings.Contains(err.Error(), "language-level") {
		t.Fatalf("expected language-level error, got %v", err)
	}
}

func TestBuildOptionsConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "py2pyd.yaml")
	content := "output_dir: dist\nlanguage_level: 2\nextra_compile_args: [\"-O3\"]\ndefine_macros: [\"VER=2\"]\nkeep_c_files: true\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := parseRoot(t, "--config", cfgFile)
	opts, _, err := buildOptions(cmd, "mod.py")
	if err != nil {
		t.Fatalf("buildOptions: %v", err)
	}
	if opts.OutputDir != "dist" || opts.LanguageLevel != 2 {
		t.Fatalf("config defaults not applied: %+v", opts)
	}
	if !opts.KeepGeneratedFiles {
		t.Fatalf("keep_c_files default not applied")
	}
	if len(opts.ExtraCompileArgs) != 1 || opts.ExtraCompileArgs[0] != "-O3" {
		t.Fatalf("extra compile args = %v", opts.ExtraCompileArgs)
	}
	if len(opts.DefineMacros) != 1 || opts.DefineMacros[0].Name != "VER" || opts.DefineMacros[0].Value != "2" {
		t.Fatalf("macros = %v", opts.DefineMacros)
	}
	if !opts.Cleanup {
		t.Fatalf("cleanup must default on")
	}
}

func TestBuildOptionsFlagsWinOverConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "py2pyd.yaml")
	if err := os.WriteFile(cfgFile, []byte("output_dir: dist\nlanguage_level: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := parseRoot(t,
		"--config", cfgFile,
		"--output", "out",
		"--language-level", "3",
		"--no-cleanup",
		"--extra-link-args", "-s -static",
	)
	opts, _, err := buildOptions(cmd, "mod.py")
	if err != nil {
		t.Fatalf("buildOptions: %v", err)
	}
	if opts.OutputDir != "out" || opts.LanguageLevel != 3 {
		t.Fatalf("flags must override config: %+v", opts)
	}
	if opts.Cleanup {
		t.Fatalf("--no-cleanup must disable cleanup")
	}
	if len(opts.ExtraLinkArgs) != 2 || opts.ExtraLinkArgs[1] != "-static" {
		t.Fatalf("extra link args = %v", opts.ExtraLinkArgs)
	}
}

func TestBuildOptionsMissingConfigIsFine(t *testing.T) {
	cmd := parseRoot(t, "--config", filepath.Join(t.TempDir(), "py2pyd.yaml"))
	opts, _, err := buildOptions(cmd, "mod.py")
	if err != nil {
		t.Fatalf("buildOptions: %v", err)
	}
	if opts.InputPath != "mod.py" {
		t.Fatalf("input path lost: %+v", opts)
	}
}

func TestBuildOptionsRejectsNamelessDefine(t *testing.T) {
	cmd := parseRoot(t, "-D", "=1")
	if _, _, err := buildOptions(cmd, "mod.py"); err == nil {
		t.Fatalf("expected error for nameless define")
	}
}

func TestWriteDiagnoseReport(t *testing.T) {
	report := pybuild.Report{
		Platform: "windows",
		HostArch: toolchain.ArchX86_64,
		Python: &pybuild.PythonLibraryInfo{
			Executable:  `C:\Python311\python.exe`,
			Version:     "3.11",
			IncludeDir:  `C:\Python311\include`,
			LibraryDir:  `C:\Python311\libs`,
			PointerBits: 64,
		},
		IncludeDirExists: true,
		LibraryDirExists: true,
		LibraryFiles:     []string{"python311.lib"},
		MSVC: toolchain.Detection{
			Installations: []toolchain.Installation{
				{InstallRoot: `C:\VS`, VcvarsPath: `C:\VS\VC\Auxiliary\Build\vcvarsall.bat`},
			},
		},
		MinGW:  toolchain.CompilerProfile{Kind: toolchain.KindMinGW, IncompatibilityReason: "gcc not found on PATH"},
		Cython: pybuild.ToolInfo{Name: "cython", Available: true, Path: `C:\Scripts\cython.exe`, Version: "3.0.11"},
	}

	var buf bytes.Buffer
	writeDiagnoseReport(&buf, report)
	out := buf.String()
	for _, want := range []string{"windows/x86_64", "python.exe", "python311.lib", `C:\VS`, "3.0.11"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
