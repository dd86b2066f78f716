package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	d, found, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatalf("missing file reported as found")
	}
	if d.LanguageLevel != 0 || d.OutputDir != "" {
		t.Fatalf("expected zero defaults, got %+v", d)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
output_dir: dist
language_level: 3
extra_compile_args: ["-O3"]
extra_link_args: ["-s"]
define_macros: ["NDEBUG", "VER=2"]
use_mingw: true
keep_c_files: true
build_temp_dir: .tmp
`)
	d, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatalf("expected found")
	}
	if d.OutputDir != "dist" || d.LanguageLevel != 3 || !d.UseMinGW || !d.KeepCFiles {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	macros := d.Macros()
	if len(macros) != 2 || macros[0] != [2]string{"NDEBUG", ""} || macros[1] != [2]string{"VER", "2"} {
		t.Fatalf("unexpected macros: %v", macros)
	}
}

func TestLoadRejectsBadLanguageLevel(t *testing.T) {
	path := writeConfig(t, "language_level: 4\n")
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "output_dir: [\n")
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRejectsNamelessMacro(t *testing.T) {
	path := writeConfig(t, `define_macros: ["=3"]`)
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
