package pybuild

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"py2pyd/internal/discover"
	"py2pyd/internal/execx"
	"py2pyd/internal/paths"
	"py2pyd/internal/toolchain"
)

// Macro is one preprocessor define. An empty Value emits a bare define.
type Macro struct {
	Name  string
	Value string
}

// BuildConfig is supplied once per invocation and immutable for the run.
type BuildConfig struct {
	LanguageLevel    int
	Annotate         bool
	ExtraCompileArgs []string
	ExtraLinkArgs    []string
	DefineMacros     []Macro
	Force            bool
	UseMinGW         bool
	OutputDir        string
	BuildTempDir     string
}

// BuildResult lists the artifacts that exist on disk after the native build.
// Units whose expected output is absent are dropped, not reported as errors.
type BuildResult struct {
	Artifacts []string
}

type compileUnit struct {
	module   discover.Module
	cSource  string
	artifact string
}

// Service drives the build pipeline. Zero-value seams default to the real
// toolchain; tests override platform, lookPath, Gen, and Runner.
type Service struct {
	Runner  execx.Runner
	Gen     Generator
	Logger  *log.Logger
	Verbose bool

	// Python, when non-nil, skips interpreter discovery. Still verified.
	Python *PythonLibraryInfo

	platform string
	lookPath func(file string) (string, error)
}

func NewService(logger *log.Logger, verbose bool) *Service {
	runner := execx.CmdRunner{}
	return &Service{
		Runner:  runner,
		Gen:     CythonGenerator{Runner: runner, Logger: logger},
		Logger:  logger,
		Verbose: verbose,
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func (s *Service) debugf(format string, args ...any) {
	if s.Verbose {
		s.logf(format, args...)
	}
}

func (s *Service) goos() string {
	if s.platform != "" {
		return s.platform
	}
	return runtime.GOOS
}

func (s *Service) look(file string) (string, error) {
	if s.lookPath != nil {
		return s.lookPath(file)
	}
	return exec.LookPath(file)
}

// ArtifactSuffix is the platform extension suffix for built modules.
func ArtifactSuffix(goos string) string {
	if goos == "windows" {
		return ".pyd"
	}
	return ".so"
}

// compilerChoice is the outcome of toolchain selection for one run.
type compilerChoice struct {
	kind      toolchain.CompilerKind
	exe       string
	overlay   toolchain.Overlay
	extraEnv  []string
	detection toolchain.Detection
	mingw     toolchain.CompilerProfile
}

// Build compiles the discovered modules into binary extension artifacts.
//
// Environment and compiler validation fail fast before the code generator
// runs; the native build step is the only stage that can fail after external
// resources were partially consumed, and it is not rolled back.
func (s *Service) Build(ctx context.Context, modules []discover.Module, cfg BuildConfig) (BuildResult, error) {
	info, err := s.resolvePython(ctx)
	if err != nil {
		return BuildResult{}, err
	}

	units := makeUnits(modules, cfg.OutputDir, ArtifactSuffix(s.goos()))

	choice, err := s.selectCompiler(ctx, info, cfg)
	if err != nil {
		return BuildResult{}, err
	}
	s.debugf("selected compiler: %s (%s)", choice.kind, choice.exe)

	sources := make([]string, len(units))
	for i, u := range units {
		sources[i] = u.module.SourcePath
	}
	err = s.Gen.Generate(ctx, sources, Directives{
		LanguageLevel:  cfg.LanguageLevel,
		EmbedSignature: true,
		BoundsCheck:    false,
		Wraparound:     false,
		Annotate:       cfg.Annotate,
		Force:          cfg.Force,
		Quiet:          !s.Verbose,
	})
	if err != nil {
		return BuildResult{}, err
	}

	for _, u := range units {
		if err := s.compileUnit(ctx, u, info, cfg, choice); err != nil {
			return BuildResult{}, s.enrichBuildError(err, info, choice)
		}
	}

	return collectArtifacts(units), nil
}

func (s *Service) resolvePython(ctx context.Context) (PythonLibraryInfo, error) {
	var info PythonLibraryInfo
	if s.Python != nil {
		info = *s.Python
	} else {
		located, err := LocateInterpreter(ctx, s.Runner, s.look)
		if err != nil {
			return PythonLibraryInfo{}, err
		}
		info = located
	}
	return VerifyDevEnv(info, s.logf)
}

func makeUnits(modules []discover.Module, outputDir, suffix string) []compileUnit {
	units := make([]compileUnit, 0, len(modules))
	for _, m := range modules {
		segments := strings.Split(m.Name, ".")
		last := segments[len(segments)-1]
		dir := filepath.Join(append([]string{outputDir}, segments[:len(segments)-1]...)...)
		units = append(units, compileUnit{
			module:   m,
			cSource:  strings.TrimSuffix(m.SourcePath, discover.SourceExt) + ".c",
			artifact: filepath.Join(dir, last+suffix),
		})
	}
	return units
}

// selectCompiler validates that a usable native compiler exists before any
// code generation happens, so misconfiguration fails fast.
func (s *Service) selectCompiler(ctx context.Context, info PythonLibraryInfo, cfg BuildConfig) (compilerChoice, error) {
	host := toolchain.ArchFromPointerBits(info.PointerBits)
	if host == toolchain.ArchUnknown {
		host = toolchain.HostArch()
	}

	if s.goos() != "windows" {
		for _, cc := range []string{"cc", "gcc", "clang"} {
			if path, err := s.look(cc); err == nil {
				return compilerChoice{kind: toolchain.KindUnixGCC, exe: path}, nil
			}
		}
		return compilerChoice{}, unavailablef("no C compiler found on PATH (tried cc, gcc, clang)")
	}

	if cfg.UseMinGW {
		gcc, err := s.look("gcc")
		if err != nil {
			return compilerChoice{}, unavailablef("MinGW requested but gcc not found on PATH")
		}
		profile := toolchain.DetectMinGW(ctx, host)
		if profile.Compatible {
			s.logf("using compatible MinGW compiler (target %s)", profile.TargetArch)
		} else {
			// Incompatible MinGW is used anyway, with a visible warning.
			s.logf("warning: using MinGW despite compatibility issues: %s", profile.IncompatibilityReason)
		}
		choice := compilerChoice{kind: toolchain.KindMinGW, exe: gcc, mingw: profile}
		if os.Getenv("CC") == "" {
			choice.extraEnv = append(choice.extraEnv, "CC=gcc")
		}
		if os.Getenv("CXX") == "" {
			choice.extraEnv = append(choice.extraEnv, "CXX=g++")
		}
		return choice, nil
	}

	selector := toolchain.NewSelector(s.Runner)
	selector.LookPath = s.lookPath
	if err := selector.Configure(ctx, host); err != nil {
		return compilerChoice{detection: selector.Detection()}, unavailablef("%v", err)
	}

	choice := compilerChoice{
		kind:      toolchain.KindMSVC,
		exe:       "cl",
		overlay:   selector.Overlay(),
		detection: selector.Detection(),
	}
	if resolved := choice.overlay.LookupExecutable("cl.exe"); resolved != "" {
		choice.exe = resolved
	} else if path, err := s.look("cl"); err == nil {
		choice.exe = path
	}
	return choice, nil
}

func (s *Service) compileUnit(ctx context.Context, u compileUnit, info PythonLibraryInfo, cfg BuildConfig, choice compilerChoice) error {
	if err := os.MkdirAll(filepath.Dir(u.artifact), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %v", err)
	}

	var args []string
	switch choice.kind {
	case toolchain.KindMSVC:
		args = msvcArgs(u, info, cfg)
	default:
		args = gccArgs(u, info, cfg)
	}

	env := append(choice.overlay.Environ(), choice.extraEnv...)
	s.debugf("compile %s -> %s", u.module.Name, u.artifact)

	result, err := s.Runner.Run(ctx, choice.exe, args, execx.RunOptions{Env: env})
	if err != nil {
		return fmt.Errorf("compile %s: %v\n%s", u.module.Name, err, result.StderrTail())
	}
	return nil
}

func msvcArgs(u compileUnit, info PythonLibraryInfo, cfg BuildConfig) []string {
	args := []string{"/nologo", "/LD", u.cSource, "/I", info.IncludeDir}
	for _, m := range cfg.DefineMacros {
		if m.Value == "" {
			args = append(args, "/D"+m.Name)
		} else {
			args = append(args, "/D"+m.Name+"="+m.Value)
		}
	}
	args = append(args, cfg.ExtraCompileArgs...)
	if cfg.BuildTempDir != "" {
		args = append(args, "/Fo:"+cfg.BuildTempDir+string(os.PathSeparator))
	}
	args = append(args, "/Fe:"+u.artifact)
	args = append(args, "/link", "/LIBPATH:"+info.LibraryDir, info.LinkName()+".lib")
	args = append(args, cfg.ExtraLinkArgs...)
	return args
}

func gccArgs(u compileUnit, info PythonLibraryInfo, cfg BuildConfig) []string {
	args := []string{"-shared", "-fPIC", u.cSource, "-I", info.IncludeDir}
	for _, m := range cfg.DefineMacros {
		if m.Value == "" {
			args = append(args, "-D"+m.Name)
		} else {
			args = append(args, "-D"+m.Name+"="+m.Value)
		}
	}
	args = append(args, cfg.ExtraCompileArgs...)
	args = append(args, "-o", u.artifact, "-L", info.LibraryDir, "-l"+info.LinkName())
	args = append(args, cfg.ExtraLinkArgs...)
	return args
}

// enrichBuildError adds the Windows diagnostics gathered during selection to
// a native build failure, so the user can self-diagnose without re-running
// detection.
func (s *Service) enrichBuildError(err error, info PythonLibraryInfo, choice compilerChoice) error {
	if s.goos() != "windows" {
		return buildFailedf("%v", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v\n\ndiagnostics:\n", err)
	fmt.Fprintf(&b, "- host arch: %s (pointer bits %d)\n", toolchain.ArchFromPointerBits(info.PointerBits), info.PointerBits)
	fmt.Fprintf(&b, "- compiler: %s (%s)\n", choice.kind, choice.exe)
	fmt.Fprintf(&b, "- python include: %s\n", info.IncludeDir)
	fmt.Fprintf(&b, "- python library dir: %s\n", info.LibraryDir)
	for _, c := range choice.detection.VcvarsCandidates() {
		fmt.Fprintf(&b, "- setup script: %s\n", c)
	}
	return buildFailedf("%s", b.String())
}

// collectArtifacts keeps only the expected outputs that exist on disk after
// the build. Best-effort by design: a unit that silently produced nothing is
// dropped, not an error.
func collectArtifacts(units []compileUnit) BuildResult {
	var result BuildResult
	for _, u := range units {
		if ok, _ := paths.FileExists(u.artifact); ok {
			if abs, err := filepath.Abs(u.artifact); err == nil {
				result.Artifacts = append(result.Artifacts, abs)
			} else {
				result.Artifacts = append(result.Artifacts, u.artifact)
			}
		}
	}
	sort.Strings(result.Artifacts)
	return result
}
