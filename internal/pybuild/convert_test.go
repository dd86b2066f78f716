package pybuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"py2pyd/internal/paths"
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

func TestConvertSingleFileDefaults(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)

	srcDir := filepath.Join(work, "src")
	src := filepath.Join(srcDir, "mod.py")
	touch(t, src)

	runner := &fakeRunner{}
	gen := &fakeGenerator{}
	s := testService(t, runner, gen)

	artifacts, err := s.Convert(context.Background(), ConvertOptions{
		InputPath: src,
		Cleanup:   true,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	defaultOut := filepath.Join(work, paths.DefaultOutputDirName)
	if ok, _ := paths.DirExists(defaultOut); !ok {
		t.Fatalf("default output dir %s not created", defaultOut)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %v", artifacts)
	}
	want := filepath.Join(defaultOut, "mod.so")
	if artifacts[0] != want {
		t.Fatalf("artifact = %s, want %s", artifacts[0], want)
	}

	// Cleanup removed the generated C file but left the source alone.
	if exists(filepath.Join(srcDir, "mod.c")) {
		t.Fatalf("generated C file should be cleaned up")
	}
	if !exists(src) {
		t.Fatalf("source file must be untouched")
	}
}

func TestConvertNoCleanupKeepsGenerated(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)

	src := filepath.Join(work, "mod.py")
	touch(t, src)

	s := testService(t, &fakeRunner{}, &fakeGenerator{})
	if _, err := s.Convert(context.Background(), ConvertOptions{InputPath: src}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !exists(filepath.Join(work, "mod.c")) {
		t.Fatalf("generated C file should remain without cleanup")
	}
}

func TestConvertEmptyDirectory(t *testing.T) {
	s := testService(t, &fakeRunner{}, &fakeGenerator{})
	_, err := s.Convert(context.Background(), ConvertOptions{
		InputPath: t.TempDir(),
		OutputDir: t.TempDir(),
	})
	if !errors.Is(err, ErrNoModules) {
		t.Fatalf("expected ErrNoModules, got %v", err)
	}
}

func TestConvertCleansTempBuildDir(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)

	src := filepath.Join(work, "mod.py")
	touch(t, src)

	tempDir := filepath.Join(work, "bt")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	touch(t, filepath.Join(tempDir, "mod.obj"))

	s := testService(t, &fakeRunner{}, &fakeGenerator{})
	if _, err := s.Convert(context.Background(), ConvertOptions{
		InputPath:    src,
		OutputDir:    filepath.Join(work, "out"),
		BuildTempDir: tempDir,
		Cleanup:      true,
	}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if exists(filepath.Join(tempDir, "mod.obj")) {
		t.Fatalf("temp build byproducts should be cleaned up")
	}
}
