package pybuild

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"py2pyd/internal/execx"
	"py2pyd/internal/paths"
)

// probeTimeout bounds identity queries against auxiliary executables
// (the Python layout probe, cython --version).
const probeTimeout = 5 * time.Second

// interpreterProbe prints the installation facts needed for linking. Virtual
// environments are resolved through base_exec_prefix, which points at the
// real installation that carries the headers and import libraries.
const interpreterProbe = `import json, struct, sys, sysconfig
print(json.dumps({
    "executable": sys.executable,
    "version": "%d.%d" % sys.version_info[:2],
    "include": sysconfig.get_path("include"),
    "base_prefix": sys.base_exec_prefix,
    "libdir": sysconfig.get_config_var("LIBDIR") or "",
    "pointer_bits": struct.calcsize("P") * 8,
}))`

// PythonLibraryInfo holds the header/library facts needed to compile and
// link an extension against the target interpreter.
type PythonLibraryInfo struct {
	Executable  string `json:"executable"`
	Version     string `json:"version"`
	IncludeDir  string `json:"include_dir"`
	LibraryDir  string `json:"library_dir"`
	LibraryName string `json:"library_name"`
	BasePrefix  string `json:"base_prefix"`
	PointerBits int    `json:"pointer_bits"`
}

// LinkName returns the library reference with the platform suffix and the
// Unix lib prefix stripped, in the form linkers expect after -l or before
// .lib.
func (info PythonLibraryInfo) LinkName() string {
	name := strings.TrimSuffix(info.LibraryName, ".lib")
	name = strings.TrimSuffix(name, ".so")
	name = strings.TrimPrefix(name, "lib")
	return name
}

func libSuffix() string {
	if runtime.GOOS == "windows" {
		return ".lib"
	}
	return ".so"
}

func libPrefix() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "libpython"
}

type interpreterReport struct {
	Executable  string `json:"executable"`
	Version     string `json:"version"`
	Include     string `json:"include"`
	BasePrefix  string `json:"base_prefix"`
	LibDir      string `json:"libdir"`
	PointerBits int    `json:"pointer_bits"`
}

// LocateInterpreter asks the first python executable on the search path to
// report its installation layout.
func LocateInterpreter(ctx context.Context, r execx.Runner, lookPath func(string) (string, error)) (PythonLibraryInfo, error) {
	var lastErr error
	for _, name := range []string{"python3", "python"} {
		path, err := lookPath(name)
		if err != nil {
			lastErr = err
			continue
		}
		info, err := probeInterpreter(ctx, r, path)
		if err != nil {
			lastErr = err
			continue
		}
		return info, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("python not found on PATH")
	}
	return PythonLibraryInfo{}, envErrorf("locate python interpreter: %v", lastErr)
}

func probeInterpreter(ctx context.Context, r execx.Runner, exe string) (PythonLibraryInfo, error) {
	result, err := r.Run(ctx, exe, []string{"-c", interpreterProbe}, execx.RunOptions{Timeout: probeTimeout})
	if err != nil {
		return PythonLibraryInfo{}, fmt.Errorf("probe %s: %w", exe, err)
	}

	var report interpreterReport
	if err := json.Unmarshal(result.Stdout, &report); err != nil {
		return PythonLibraryInfo{}, fmt.Errorf("decode interpreter report from %s: %w", exe, err)
	}

	info := PythonLibraryInfo{
		Executable:  report.Executable,
		Version:     report.Version,
		IncludeDir:  report.Include,
		BasePrefix:  report.BasePrefix,
		PointerBits: report.PointerBits,
	}

	if runtime.GOOS == "windows" {
		info.LibraryDir = filepath.Join(report.BasePrefix, "libs")
		info.LibraryName = "python" + strings.ReplaceAll(report.Version, ".", "") + ".lib"
	} else {
		info.LibraryDir = report.LibDir
		info.LibraryName = "libpython" + report.Version + ".so"
	}

	return info, nil
}

// VerifyDevEnv checks that the headers and import libraries exist. When the
// exact expected library file is absent but another recognizable one is
// present, it falls back to the first match and reports the substitution
// through logf instead of failing.
func VerifyDevEnv(info PythonLibraryInfo, logf func(format string, args ...any)) (PythonLibraryInfo, error) {
	if ok, _ := paths.DirExists(info.IncludeDir); !ok {
		return info, envErrorf("include directory not found: %s", info.IncludeDir)
	}
	if ok, _ := paths.DirExists(info.LibraryDir); !ok {
		return info, envErrorf("library directory not found: %s", info.LibraryDir)
	}

	libs, err := listLibraries(info.LibraryDir)
	if err != nil {
		return info, envErrorf("read library directory %s: %v", info.LibraryDir, err)
	}
	if len(libs) == 0 {
		return info, envErrorf("no %s files found in: %s", libSuffix(), info.LibraryDir)
	}

	for _, lib := range libs {
		if lib == info.LibraryName {
			return info, nil
		}
	}

	for _, lib := range libs {
		if strings.HasPrefix(lib, libPrefix()) {
			if logf != nil {
				logf("expected library %s not found, using %s instead", info.LibraryName, lib)
			}
			info.LibraryName = lib
			return info, nil
		}
	}

	return info, envErrorf("expected library %s not found in %s (found: %s)",
		info.LibraryName, info.LibraryDir, strings.Join(libs, ", "))
}

func listLibraries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var libs []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), libSuffix()) {
			libs = append(libs, e.Name())
		}
	}
	return libs, nil
}
