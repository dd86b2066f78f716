package pybuild

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	generatedExts  = []string{".c"}
	annotationExts = []string{".html", ".css"}
	tempBuildExts  = []string{".obj", ".exp", ".lib", ".pdb", ".res"}
)

// CleanSourceTree removes intermediate files left in the source tree by the
// code generator: generated C files unless keepGenerated, and annotation
// reports unless keepAnnotations. A file input cleans its parent directory.
// Best-effort: per-file removal failures are collected, never propagated.
func CleanSourceTree(root string, keepGenerated, keepAnnotations bool) (int, []error) {
	var exts []string
	if !keepGenerated {
		exts = append(exts, generatedExts...)
	}
	if !keepAnnotations {
		exts = append(exts, annotationExts...)
	}
	if len(exts) == 0 {
		return 0, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return 0, nil
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	return removeByExt(root, exts)
}

// CleanTempBuildDir removes native-build byproducts (objects, export/import
// libraries, debug symbols, resource files). No-op when the directory does
// not exist.
func CleanTempBuildDir(tempDir string) (int, []error) {
	if tempDir == "" {
		return 0, nil
	}
	if info, err := os.Stat(tempDir); err != nil || !info.IsDir() {
		return 0, nil
	}
	return removeByExt(tempDir, tempBuildExts)
}

func removeByExt(root string, exts []string) (int, []error) {
	var removed int
	var failures []error

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !matchesExt(path, exts) {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			failures = append(failures, fmt.Errorf("remove %s: %w", path, rmErr))
			return nil
		}
		removed++
		return nil
	})

	return removed, failures
}

func matchesExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
