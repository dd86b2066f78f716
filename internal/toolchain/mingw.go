package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// probeTimeout bounds compiler identity queries like gcc -dumpmachine.
const probeTimeout = 5 * time.Second

// DetectMinGW checks whether a MinGW gcc on the search path can target the
// given host architecture. Only meaningful on Windows; everywhere it fails
// closed with the reason recorded rather than guessing.
func DetectMinGW(ctx context.Context, host Arch) CompilerProfile {
	profile := CompilerProfile{Kind: KindMinGW, HostArch: host, TargetArch: ArchUnknown}

	if runtime.GOOS != "windows" {
		profile.IncompatibilityReason = "not windows"
		return profile
	}

	gcc, err := exec.LookPath("gcc")
	if err != nil {
		profile.IncompatibilityReason = "gcc not found on PATH"
		return profile
	}
	profile.ExecutablePath = gcc

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, gcc, "-dumpmachine").CombinedOutput()
	if err != nil {
		profile.IncompatibilityReason = fmt.Sprintf("failed to run gcc -dumpmachine: %v", err)
		return profile
	}

	triple := strings.ToLower(strings.TrimSpace(string(out)))
	return evaluateTriple(profile, triple, host)
}

// evaluateTriple applies the compatibility rules to a target triple. Split
// out so the full arch matrix is testable without a gcc binary.
func evaluateTriple(profile CompilerProfile, triple string, host Arch) CompilerProfile {
	profile.TargetArch = classifyTripleArch(triple)

	switch {
	case profile.TargetArch == ArchUnknown:
		profile.IncompatibilityReason = fmt.Sprintf(
			"gcc target %q has unknown arch; cannot verify compatibility", triple)
	case profile.TargetArch != host:
		profile.IncompatibilityReason = fmt.Sprintf(
			"architecture mismatch: gcc target %q (%s) != host (%s)", triple, profile.TargetArch, host)
	case !strings.Contains(triple, "mingw"):
		profile.IncompatibilityReason = fmt.Sprintf(
			"gcc target %q does not look like mingw", triple)
	default:
		profile.Compatible = true
	}
	return profile
}

// classifyTripleArch maps a target triple onto a normalized architecture.
// Recognizes the common 64-bit and 32-bit x86 spellings; anything else is
// unknown and never compatible.
func classifyTripleArch(triple string) Arch {
	for _, k := range []string{"x86_64", "x64", "amd64"} {
		if strings.Contains(triple, k) {
			return ArchX86_64
		}
	}
	for _, k := range []string{"i686", "i386", "i586"} {
		if strings.Contains(triple, k) {
			return ArchI686
		}
	}
	return ArchUnknown
}

// HostArch reports the architecture of this process, used when the target
// interpreter's pointer width is not yet known.
func HostArch() Arch {
	switch runtime.GOARCH {
	case "amd64":
		return ArchX86_64
	case "386":
		return ArchI686
	default:
		return ArchUnknown
	}
}

// ArchFromPointerBits maps an interpreter's pointer width to an Arch.
func ArchFromPointerBits(bits int) Arch {
	switch bits {
	case 64:
		return ArchX86_64
	case 32:
		return ArchI686
	default:
		return ArchUnknown
	}
}
