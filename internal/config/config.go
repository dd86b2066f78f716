// Package config loads the optional py2pyd.yaml defaults file. Flags given
// on the command line always win over file values; a missing file simply
// yields zero defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no explicit
// config path is given.
const DefaultFileName = "py2pyd.yaml"

// Defaults holds per-project default build settings.
type Defaults struct {
	OutputDir        string   `yaml:"output_dir"`
	LanguageLevel    int      `yaml:"language_level"`
	ExtraCompileArgs []string `yaml:"extra_compile_args"`
	ExtraLinkArgs    []string `yaml:"extra_link_args"`
	DefineMacros     []string `yaml:"define_macros"` // NAME or NAME=VALUE
	UseMinGW         bool     `yaml:"use_mingw"`
	KeepCFiles       bool     `yaml:"keep_c_files"`
	BuildTempDir     string   `yaml:"build_temp_dir"`
}

// Load reads the defaults file at path. found is false when the file does
// not exist, which is not an error.
func Load(path string) (Defaults, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults{}, false, nil
		}
		return Defaults{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := d.validate(); err != nil {
		return Defaults{}, true, fmt.Errorf("config %s: %w", path, err)
	}
	return d, true, nil
}

func (d Defaults) validate() error {
	if d.LanguageLevel != 0 && d.LanguageLevel != 2 && d.LanguageLevel != 3 {
		return fmt.Errorf("language_level must be 2 or 3, got %d", d.LanguageLevel)
	}
	for _, m := range d.DefineMacros {
		name, _, _ := strings.Cut(m, "=")
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("define_macros entry %q has no name", m)
		}
	}
	return nil
}

// Macros splits the NAME=VALUE entries into name/value pairs.
func (d Defaults) Macros() [][2]string {
	out := make([][2]string, 0, len(d.DefineMacros))
	for _, m := range d.DefineMacros {
		name, value, _ := strings.Cut(m, "=")
		out = append(out, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
	}
	return out
}
