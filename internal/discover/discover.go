// Package discover resolves an input path into the list of Python modules to
// compile. A single .py file maps to one top-level module; a directory with an
// __init__.py is a package whose directory name prefixes every module; any
// other directory contributes top-level modules named by relative path.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"py2pyd/internal/paths"
)

const (
	// SourceExt is the only accepted source extension.
	SourceExt = ".py"
	// PackageMarker makes a directory a package root.
	PackageMarker = "__init__.py"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("input path does not exist")
)

// Module pairs a dotted import name with the absolute path of its source.
type Module struct {
	Name       string
	SourcePath string
}

// Discover returns the modules reachable from inputPath, ordered by source
// path. It is a pure filesystem read. An empty result for a directory input
// is legitimate; callers decide whether that is an error.
func Discover(inputPath string) ([]Module, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, inputPath)
		}
		return nil, fmt.Errorf("stat input path: %w", err)
	}

	if !info.IsDir() {
		if filepath.Ext(inputPath) != SourceExt {
			return nil, fmt.Errorf("%w: input file must be a %s file: %s", ErrInvalidInput, SourceExt, inputPath)
		}
		abs, err := filepath.Abs(inputPath)
		if err != nil {
			return nil, fmt.Errorf("resolve input file: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(abs), SourceExt)
		return []Module{{Name: name, SourcePath: abs}}, nil
	}

	root, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}

	marker, err := paths.FileExists(filepath.Join(root, PackageMarker))
	if err != nil {
		return nil, fmt.Errorf("stat package marker: %w", err)
	}

	var prefix []string
	if marker {
		prefix = []string{filepath.Base(root)}
	}

	modules, err := walkSources(root, prefix)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func walkSources(root string, prefix []string) ([]Module, error) {
	var modules []Module
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != SourceExt {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		segments := append(append([]string(nil), prefix...), splitSegments(rel)...)
		modules = append(modules, Module{
			Name:       strings.Join(segments, "."),
			SourcePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return modules, nil
}

func splitSegments(rel string) []string {
	rel = strings.TrimSuffix(rel, SourceExt)
	return strings.Split(filepath.ToSlash(rel), "/")
}

// checkUnique rejects batches where two files normalize to the same dotted
// name. Duplicate names would silently overwrite each other's artifacts.
func checkUnique(modules []Module) error {
	seen := make(map[string]string, len(modules))
	for _, m := range modules {
		if prev, ok := seen[m.Name]; ok {
			return fmt.Errorf("%w: modules %s and %s both normalize to %q",
				ErrInvalidInput, prev, m.SourcePath, m.Name)
		}
		seen[m.Name] = m.SourcePath
	}
	return nil
}
