package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("chdir back: %v", err)
		}
	})
}

func TestResolveDefaultOutput(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)

	bp, err := Resolve("mod.py", "", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !filepath.IsAbs(bp.InputPath) {
		t.Fatalf("input path not absolutized: %s", bp.InputPath)
	}
	if bp.OutputDir != filepath.Join(work, DefaultOutputDirName) {
		t.Fatalf("output dir = %s", bp.OutputDir)
	}
	if bp.BuildTempDir != "" {
		t.Fatalf("build temp dir should stay empty by default")
	}
}

func TestResolveExplicitDirs(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)

	bp, err := Resolve("mod.py", "out", "bt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if bp.OutputDir != filepath.Join(work, "out") {
		t.Fatalf("output dir = %s", bp.OutputDir)
	}
	if bp.BuildTempDir != filepath.Join(work, "bt") {
		t.Fatalf("build temp dir = %s", bp.BuildTempDir)
	}
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	bp := BuildPaths{
		OutputDir:    filepath.Join(base, "out", "nested"),
		BuildTempDir: filepath.Join(base, "bt"),
	}
	if err := bp.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{bp.OutputDir, bp.BuildTempDir} {
		if ok, _ := DirExists(dir); !ok {
			t.Fatalf("directory not created: %s", dir)
		}
	}
}

func TestExistsHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if ok, _ := FileExists(file); !ok {
		t.Fatalf("FileExists(%s) = false", file)
	}
	if ok, _ := FileExists(dir); ok {
		t.Fatalf("FileExists should reject a directory")
	}
	if ok, _ := DirExists(dir); !ok {
		t.Fatalf("DirExists(%s) = false", dir)
	}
	if ok, _ := DirExists(file); ok {
		t.Fatalf("DirExists should reject a file")
	}
	if ok, _ := FileExists(filepath.Join(dir, "nope")); ok {
		t.Fatalf("missing path must not exist")
	}
}
