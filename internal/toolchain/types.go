package toolchain

// CompilerKind identifies a native compiler family.
type CompilerKind string

const (
	KindMSVC    CompilerKind = "msvc"
	KindMinGW   CompilerKind = "mingw"
	KindUnixGCC CompilerKind = "unix-gcc"
)

// Arch is a normalized processor architecture.
type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchI686    Arch = "i686"
	ArchUnknown Arch = "unknown"
)

// CompilerProfile captures the facts gathered about one compiler candidate.
// Produced fresh by each detection call and read-only afterwards.
type CompilerProfile struct {
	Kind                  CompilerKind `json:"kind"`
	ExecutablePath        string       `json:"executable_path,omitempty"`
	TargetArch            Arch         `json:"target_arch"`
	HostArch              Arch         `json:"host_arch"`
	Compatible            bool         `json:"compatible"`
	IncompatibilityReason string       `json:"incompatibility_reason,omitempty"`
}

// Installation is one candidate MSVC installation found on disk or reported
// by the locator utility. VcvarsPath is empty when the environment-setup
// script was not found under the install root.
type Installation struct {
	InstallRoot string `json:"install_root"`
	VcvarsPath  string `json:"vcvars_path,omitempty"`
}

// Detection aggregates the MSVC probe results. Installations are
// deduplicated by resolved vcvars path; ClPath is resolved independently
// from the executable search path.
type Detection struct {
	Installations []Installation `json:"installations"`
	ClPath        string         `json:"cl_path,omitempty"`
}

// VcvarsCandidates returns the verified environment-setup scripts, in
// discovery order. Used for remediation messages.
func (d Detection) VcvarsCandidates() []string {
	var out []string
	for _, inst := range d.Installations {
		if inst.VcvarsPath != "" {
			out = append(out, inst.VcvarsPath)
		}
	}
	return out
}
