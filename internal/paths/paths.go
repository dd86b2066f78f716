package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultOutputDirName is created under the working directory when the user
// does not pass an explicit output directory.
const DefaultOutputDirName = "build_pyd"

// BuildPaths captures the canonical locations for one build invocation.
type BuildPaths struct {
	InputPath    string
	OutputDir    string
	BuildTempDir string // empty when the toolchain default applies
}

// Resolve absolutizes the input path and the optional output/build-temp
// overrides. An empty outputFlag selects ./build_pyd relative to the current
// working directory.
func Resolve(inputPath, outputFlag, buildTempFlag string) (BuildPaths, error) {
	input, err := filepath.Abs(inputPath)
	if err != nil {
		return BuildPaths{}, fmt.Errorf("resolve input path: %w", err)
	}

	var output string
	if outputFlag != "" {
		output, err = filepath.Abs(outputFlag)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		output = filepath.Join(cwd, DefaultOutputDirName)
	}
	if err != nil {
		return BuildPaths{}, fmt.Errorf("resolve output dir: %w", err)
	}

	bp := BuildPaths{InputPath: input, OutputDir: output}

	if buildTempFlag != "" {
		bp.BuildTempDir, err = filepath.Abs(buildTempFlag)
		if err != nil {
			return BuildPaths{}, fmt.Errorf("resolve build temp dir: %w", err)
		}
	}

	return bp, nil
}

// EnsureDirs creates the output directory and, when configured, the build
// temp directory.
func (p BuildPaths) EnsureDirs() error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if p.BuildTempDir != "" {
		if err := os.MkdirAll(p.BuildTempDir, 0o755); err != nil {
			return fmt.Errorf("create build temp dir: %w", err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
