package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"py2pyd/internal/logx"
	"py2pyd/internal/pybuild"
)

func runDiagnose(cmd *cobra.Command) error {
	service := pybuild.NewService(logx.New(verbose), verbose)
	report := service.Diagnose(cmd.Context())

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	writeDiagnoseReport(cmd.OutOrStdout(), report)
	return nil
}

func writeDiagnoseReport(out io.Writer, report pybuild.Report) {
	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	ok := green.Render("OK")
	warn := yellow.Render("WARN")
	bad := red.Render("MISSING")

	fmt.Fprintln(out, bold.Render("BUILD ENVIRONMENT:")+" "+report.Platform+"/"+string(report.HostArch))

	if report.Python != nil {
		p := report.Python
		fmt.Fprintf(out, "  %-12s %s    %s %s (%d-bit)\n", "Python:", ok, p.Executable, p.Version, p.PointerBits)
		fmt.Fprintf(out, "  %-12s %s    %s\n", "Headers:", status(report.IncludeDirExists, ok, bad), p.IncludeDir)
		fmt.Fprintf(out, "  %-12s %s    %s\n", "Libraries:", status(report.LibraryDirExists, ok, bad), p.LibraryDir)
		for _, lib := range report.LibraryFiles {
			fmt.Fprintf(out, "  %-12s       %s\n", "", lib)
		}
	} else {
		fmt.Fprintf(out, "  %-12s %s    %s\n", "Python:", bad, report.PythonError)
	}

	if len(report.MSVC.Installations) > 0 {
		fmt.Fprintf(out, "  %-12s %s    %d installation(s)\n", "MSVC:", ok, len(report.MSVC.Installations))
		for _, inst := range report.MSVC.Installations {
			fmt.Fprintf(out, "  %-12s       %s\n", "", inst.InstallRoot)
		}
		if report.MSVC.ClPath != "" {
			fmt.Fprintf(out, "  %-12s       cl at %s\n", "", report.MSVC.ClPath)
		}
	} else {
		fmt.Fprintf(out, "  %-12s %s    no installations found\n", "MSVC:", bad)
	}

	switch {
	case report.MinGW.ExecutablePath == "":
		fmt.Fprintf(out, "  %-12s %s    %s\n", "MinGW:", bad, report.MinGW.IncompatibilityReason)
	case report.MinGW.Compatible:
		fmt.Fprintf(out, "  %-12s %s    %s (target %s)\n", "MinGW:", ok, report.MinGW.ExecutablePath, report.MinGW.TargetArch)
	default:
		fmt.Fprintf(out, "  %-12s %s    %s\n", "MinGW:", warn, report.MinGW.IncompatibilityReason)
	}

	if report.Cython.Available {
		label := report.Cython.Path
		if report.Cython.Version != "" {
			label += " " + report.Cython.Version
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", "Cython:", ok, label)
	} else {
		fmt.Fprintf(out, "  %-12s %s    %s\n", "Cython:", bad, report.Cython.Error)
	}
}

func status(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
