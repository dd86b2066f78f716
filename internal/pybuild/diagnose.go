package pybuild

import (
	"context"
	"strings"

	"py2pyd/internal/execx"
	"py2pyd/internal/paths"
	"py2pyd/internal/toolchain"
)

// ToolInfo captures availability details for one auxiliary executable.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Report is the structured build-environment diagnostic. Producing it has no
// side effects; it is safe to request at any time.
type Report struct {
	Platform         string                    `json:"platform"`
	HostArch         toolchain.Arch            `json:"host_arch"`
	Python           *PythonLibraryInfo        `json:"python,omitempty"`
	PythonError      string                    `json:"python_error,omitempty"`
	IncludeDirExists bool                      `json:"include_dir_exists"`
	LibraryDirExists bool                      `json:"library_dir_exists"`
	LibraryFiles     []string                  `json:"library_files,omitempty"`
	MSVC             toolchain.Detection       `json:"msvc"`
	MinGW            toolchain.CompilerProfile `json:"mingw"`
	Cython           ToolInfo                  `json:"cython"`
}

// Diagnose gathers toolchain and interpreter facts for human display.
func (s *Service) Diagnose(ctx context.Context) Report {
	report := Report{
		Platform: s.goos(),
		HostArch: toolchain.HostArch(),
	}

	if info, err := LocateInterpreter(ctx, s.Runner, s.look); err != nil {
		report.PythonError = err.Error()
	} else {
		report.Python = &info
		if arch := toolchain.ArchFromPointerBits(info.PointerBits); arch != toolchain.ArchUnknown {
			report.HostArch = arch
		}
		report.IncludeDirExists, _ = paths.DirExists(info.IncludeDir)
		report.LibraryDirExists, _ = paths.DirExists(info.LibraryDir)
		if report.LibraryDirExists {
			report.LibraryFiles, _ = listLibraries(info.LibraryDir)
		}
	}

	report.MSVC = toolchain.DetectMSVC(ctx, nil)
	report.MinGW = toolchain.DetectMinGW(ctx, report.HostArch)
	report.Cython = s.probeCython(ctx)

	return report
}

func (s *Service) probeCython(ctx context.Context) ToolInfo {
	info := ToolInfo{Name: "cython"}
	path, err := s.look("cython")
	if err != nil {
		info.Error = "not found"
		return info
	}
	info.Path = path
	info.Available = true

	result, err := s.Runner.Run(ctx, path, []string{"--version"}, execx.RunOptions{Timeout: probeTimeout})
	if err != nil {
		info.Error = err.Error()
		return info
	}
	// "Cython version 3.0.11" on either stream depending on the release.
	line := strings.TrimSpace(string(result.Stdout))
	if line == "" {
		line = strings.TrimSpace(string(result.Stderr))
	}
	if fields := strings.Fields(line); len(fields) > 0 {
		info.Version = fields[len(fields)-1]
	}
	return info
}
