package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"py2pyd/internal/execx"
)

// captureTimeout bounds the vcvars invocation. Timeout or nonzero exit is an
// activation failure, not a fatal error.
const captureTimeout = 30 * time.Second

// Overlay is the set of environment variables a toolchain needs. It is
// applied to individual compiler invocations instead of the process
// environment, so activation has no process-global side effects.
type Overlay map[string]string

// Environ renders the overlay as KEY=VALUE pairs in sorted order, suitable
// for execx.RunOptions.Env.
func (o Overlay) Environ() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+o[k])
	}
	return env
}

// LookupExecutable resolves name against the overlay's PATH-like variable by
// checking each directory for the file. Activation is verified by effect:
// the compiler front-end must actually be reachable through the captured
// environment.
func (o Overlay) LookupExecutable(name string) string {
	var searchPath string
	for k, v := range o {
		if strings.EqualFold(k, "Path") {
			searchPath = v
			break
		}
	}
	// vcvars emits Windows-format PATH entries.
	for _, dir := range strings.Split(searchPath, ";") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// CaptureEnvironment runs the installation's vcvarsall.bat for the target
// architecture inside a throwaway batch script that dumps the resulting
// environment, then parses the dump into an Overlay. Returns ok=false when
// the installation has no verified setup script, the script fails or times
// out, the dump is missing, or cl.exe is still unreachable afterwards.
//
// Both scratch files are removed on every exit path; removal errors are
// swallowed.
func CaptureEnvironment(ctx context.Context, r execx.Runner, inst Installation, target Arch) (Overlay, bool) {
	if inst.VcvarsPath == "" {
		return nil, false
	}

	archToken := "x64"
	if target == ArchI686 {
		archToken = "x86"
	}

	scratch, err := os.MkdirTemp("", "py2pyd-vcvars-")
	if err != nil {
		return nil, false
	}
	defer os.RemoveAll(scratch)

	batPath := filepath.Join(scratch, "capture.bat")
	dumpPath := filepath.Join(scratch, "env.txt")

	script := fmt.Sprintf("@echo off\r\ncall \"%s\" %s\r\nset > \"%s\"\r\n",
		inst.VcvarsPath, archToken, dumpPath)
	if err := os.WriteFile(batPath, []byte(script), 0o644); err != nil {
		return nil, false
	}

	if _, err := r.Run(ctx, "cmd", []string{"/C", batPath}, execx.RunOptions{Timeout: captureTimeout}); err != nil {
		return nil, false
	}

	data, err := os.ReadFile(dumpPath)
	if err != nil {
		return nil, false
	}

	overlay := ParseEnvDump(string(data))
	if len(overlay) == 0 {
		return nil, false
	}
	if overlay.LookupExecutable("cl.exe") == "" {
		return nil, false
	}
	return overlay, true
}

// ParseEnvDump parses `set` output into an Overlay. Lines without '=' and
// comment lines are skipped.
func ParseEnvDump(dump string) Overlay {
	overlay := Overlay{}
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, found := strings.Cut(line, "=")
		if !found || name == "" {
			continue
		}
		overlay[name] = value
	}
	return overlay
}
