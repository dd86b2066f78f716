package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// locatorTimeout bounds the vswhere invocation. A hung or broken locator
// must degrade to the fixed search table, never block the build.
const locatorTimeout = 10 * time.Second

// vsSearchEntry is one well-known Visual Studio installation location.
// programDir is the vendor program directory the edition installs under.
type vsSearchEntry struct {
	programDir string
	year       string
	edition    string
}

// vsSearchTable enumerates the candidate installation roots across editions
// and years. Iterated in order and existence-checked; missing entries are
// skipped silently.
var vsSearchTable = []vsSearchEntry{
	{`C:\Program Files`, "2022", "BuildTools"},
	{`C:\Program Files (x86)`, "2019", "BuildTools"},
	{`C:\Program Files (x86)`, "2017", "BuildTools"},
	{`C:\Program Files`, "2022", "Community"},
	{`C:\Program Files`, "2022", "Professional"},
	{`C:\Program Files`, "2022", "Enterprise"},
	{`C:\Program Files (x86)`, "2019", "Community"},
	{`C:\Program Files (x86)`, "2019", "Professional"},
	{`C:\Program Files (x86)`, "2019", "Enterprise"},
}

func (e vsSearchEntry) root() string {
	return filepath.Join(e.programDir, "Microsoft Visual Studio", e.year, e.edition)
}

// vcvarsRelPath is the fixed location of the environment-setup script under
// an installation root. Existence is checked, contents never parsed.
var vcvarsRelPath = filepath.Join("VC", "Auxiliary", "Build", "vcvarsall.bat")

// DetectMSVC probes for MSVC installations. It merges the fixed search table
// with the vswhere locator when present, deduplicates by resolved vcvars
// path, and independently resolves cl.exe on the search path. Read-only:
// never mutates process state and is safe to call repeatedly.
func DetectMSVC(ctx context.Context, lookup RootLookup) Detection {
	if lookup == nil {
		lookup = osRootLookup{}
	}

	det := Detection{}
	seenRoot := map[string]bool{}
	seenVcvars := map[string]bool{}

	add := func(root string) {
		root = filepath.Clean(root)
		if seenRoot[root] {
			return
		}
		seenRoot[root] = true
		inst := Installation{InstallRoot: root}
		vcvars := filepath.Join(root, vcvarsRelPath)
		if lookup.Exists(vcvars) {
			if seenVcvars[vcvars] {
				return
			}
			seenVcvars[vcvars] = true
			inst.VcvarsPath = vcvars
		}
		det.Installations = append(det.Installations, inst)
	}

	for _, entry := range vsSearchTable {
		if root := entry.root(); lookup.Exists(root) {
			add(root)
		}
	}

	for _, root := range lookup.Locate(ctx) {
		if root != "" {
			add(root)
		}
	}

	if path, err := exec.LookPath(clExecutable()); err == nil {
		det.ClPath = path
	}

	return det
}

// RootLookup abstracts the filesystem probe and the external locator so
// detection is testable off-Windows.
type RootLookup interface {
	Exists(path string) bool
	Locate(ctx context.Context) []string
}

type osRootLookup struct{}

func (osRootLookup) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Locate asks vswhere for the latest installation with C++ tools. The
// locator being absent or failing is fine; detection falls back to the
// fixed table alone.
func (osRootLookup) Locate(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, locatorTimeout)
	defer cancel()

	var roots []string
	for _, vswhere := range vswhereCandidates() {
		if vswhere == "" {
			continue
		}
		if _, err := os.Stat(vswhere); err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, vswhere,
			"-latest",
			"-products", "*",
			"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
			"-property", "installationPath",
		)
		out, err := cmd.Output()
		if err != nil {
			continue
		}
		if root := strings.TrimSpace(string(out)); root != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

func vswhereCandidates() []string {
	pf86 := os.Getenv("ProgramFiles(x86)")
	if pf86 == "" {
		pf86 = `C:\Program Files (x86)`
	}
	pf := os.Getenv("ProgramFiles")
	if pf == "" {
		pf = `C:\Program Files`
	}
	candidates := []string{
		filepath.Join(pf86, "Microsoft Visual Studio", "Installer", "vswhere.exe"),
		filepath.Join(pf, "Microsoft Visual Studio", "Installer", "vswhere.exe"),
	}
	if path, err := exec.LookPath("vswhere"); err == nil {
		candidates = append(candidates, path)
	}
	return candidates
}

func clExecutable() string {
	if runtime.GOOS == "windows" {
		return "cl.exe"
	}
	return "cl"
}
