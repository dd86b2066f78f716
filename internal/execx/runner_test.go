package execx

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestCmdRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to sh")
	}

	var echoed bytes.Buffer
	result, err := CmdRunner{}.Run(context.Background(),
		"sh", []string{"-c", "echo out; echo err 1>&2"},
		RunOptions{Stdout: &echoed})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "out" {
		t.Fatalf("stdout = %q", got)
	}
	if got := strings.TrimSpace(string(result.Stderr)); got != "err" {
		t.Fatalf("stderr = %q", got)
	}
	if got := strings.TrimSpace(echoed.String()); got != "out" {
		t.Fatalf("mirrored stdout = %q", got)
	}
}

func TestCmdRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to sh")
	}

	start := time.Now()
	_, err := CmdRunner{}.Run(context.Background(),
		"sh", []string{"-c", "sleep 5"},
		RunOptions{Timeout: 50 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected the bounded wait to fail")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout not applied, ran for %s", elapsed)
	}
}

func TestCmdRunnerEnvOverridesInherited(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to sh")
	}

	t.Setenv("PY2PYD_TEST_VAR", "inherited")
	result, err := CmdRunner{}.Run(context.Background(),
		"sh", []string{"-c", "echo $PY2PYD_TEST_VAR"},
		RunOptions{Env: []string{"PY2PYD_TEST_VAR=overlay"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "overlay" {
		t.Fatalf("env override not applied, got %q", got)
	}
}

func TestStderrTailTruncates(t *testing.T) {
	long := RunResult{Stderr: bytes.Repeat([]byte("x"), stderrTailBytes+100)}
	tail := long.StderrTail()
	if !strings.HasPrefix(tail, "...") {
		t.Fatalf("long output should be truncated with a marker")
	}
	if len(tail) != stderrTailBytes+3 {
		t.Fatalf("tail length = %d", len(tail))
	}

	short := RunResult{Stderr: []byte("two lines\nof output")}
	if short.StderrTail() != "two lines\nof output" {
		t.Fatalf("short output must pass through unchanged")
	}
}
