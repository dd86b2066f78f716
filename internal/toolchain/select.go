package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"py2pyd/internal/execx"
)

// SelectionState tracks MSVC selection through its one-shot auto
// configuration attempt.
type SelectionState string

const (
	StateUnconfigured           SelectionState = "unconfigured"
	StateProbeFailed            SelectionState = "probe-failed"
	StateAutoConfiguring        SelectionState = "auto-configuring"
	StateConfigured             SelectionState = "configured"
	StatePermanentlyUnavailable SelectionState = "permanently-unavailable"
)

func allowedTransition(from, to SelectionState) bool {
	switch from {
	case StateUnconfigured:
		return to == StateConfigured || to == StateProbeFailed
	case StateProbeFailed:
		return to == StateAutoConfiguring
	case StateAutoConfiguring:
		return to == StateConfigured || to == StatePermanentlyUnavailable
	default:
		return false
	}
}

// Selector owns the MSVC selection decision for one build run. The single
// permitted AutoConfiguring transition makes the one-shot retry explicit:
// once the selector lands in a terminal state it never probes again.
type Selector struct {
	Runner execx.Runner
	Lookup RootLookup

	// Test seams; nil selects the real implementations.
	LookPath func(file string) (string, error)
	Capture  func(ctx context.Context, r execx.Runner, inst Installation, target Arch) (Overlay, bool)

	state     SelectionState
	detection Detection
	overlay   Overlay
	failure   error
}

func NewSelector(r execx.Runner) *Selector {
	return &Selector{Runner: r, state: StateUnconfigured}
}

func (s *Selector) State() SelectionState {
	if s.state == "" {
		return StateUnconfigured
	}
	return s.state
}

// Overlay returns the captured environment overlay, nil when the compiler
// was already reachable without activation.
func (s *Selector) Overlay() Overlay { return s.overlay }

// Detection returns the probe results gathered during configuration.
func (s *Selector) Detection() Detection { return s.detection }

func (s *Selector) transition(to SelectionState) {
	from := s.State()
	if !allowedTransition(from, to) {
		panic(fmt.Sprintf("toolchain: invalid selection transition %s -> %s", from, to))
	}
	s.state = to
}

// Configure resolves a usable MSVC toolchain. If cl is already on the search
// path the selector configures immediately with no overlay. Otherwise it
// runs detection and attempts environment capture exactly once; failure is
// terminal for this selector.
func (s *Selector) Configure(ctx context.Context, target Arch) error {
	switch s.State() {
	case StateConfigured:
		return nil
	case StatePermanentlyUnavailable:
		return s.failure
	case StateUnconfigured:
	default:
		return fmt.Errorf("toolchain: selector in unexpected state %s", s.State())
	}

	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	capture := s.Capture
	if capture == nil {
		capture = CaptureEnvironment
	}

	if _, err := lookPath(clExecutable()); err == nil {
		s.transition(StateConfigured)
		return nil
	}

	s.transition(StateProbeFailed)
	s.transition(StateAutoConfiguring)

	s.detection = DetectMSVC(ctx, s.Lookup)

	// Exactly one activation attempt, against the first installation with a
	// verified setup script. The remaining candidates are surfaced in the
	// failure message for the user to try manually, not probed automatically.
	for _, inst := range s.detection.Installations {
		if inst.VcvarsPath == "" {
			continue
		}
		if overlay, ok := capture(ctx, s.Runner, inst, target); ok {
			s.overlay = overlay
			s.transition(StateConfigured)
			return nil
		}
		break
	}

	s.failure = unavailableError(s.detection, target)
	s.transition(StatePermanentlyUnavailable)
	return s.failure
}

// unavailableError enumerates every discovered setup script as a candidate
// manual command so the user can self-diagnose without re-running detection.
func unavailableError(det Detection, target Arch) error {
	archToken := "x64"
	if target == ArchI686 {
		archToken = "x86"
	}

	var b strings.Builder
	b.WriteString("MSVC compiler (cl.exe) not found and auto-configuration failed; try one of:\n")
	b.WriteString("  1. use an 'x64 Native Tools Command Prompt for VS' shell\n")
	if candidates := det.VcvarsCandidates(); len(candidates) > 0 {
		b.WriteString("  2. run the environment-setup script manually:\n")
		for _, c := range candidates {
			fmt.Fprintf(&b, "       \"%s\" %s\n", c, archToken)
		}
	} else {
		b.WriteString("  2. install Visual Studio Build Tools with the C++ workload\n")
	}
	b.WriteString("  3. pass --use-mingw to build with MinGW instead")
	return fmt.Errorf("%s", b.String())
}
