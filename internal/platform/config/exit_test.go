package config

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestWriteFailureTrimsTrailingNewlines(t *testing.T) {
	var buf bytes.Buffer
	if code := writeFailure(&buf, "dial %s: %v\n\n", "localhost:8095", "refused"); code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	if got := buf.String(); got != "dial localhost:8095: refused\n" {
		t.Fatalf("output = %q", got)
	}
}

// os.Exit cannot be intercepted in-process, so the exit path runs in a child.
func TestExitfExitsWithStatusOne(t *testing.T) {
	if os.Getenv("MLBB_FINDER_EXITF_CHILD") == "1" {
		Exitf("finderctl: %s", "server unavailable")
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfExitsWithStatusOne$")
	cmd.Env = append(os.Environ(), "MLBB_FINDER_EXITF_CHILD=1")
	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("err = %T %v, want *exec.ExitError", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "finderctl: server unavailable") {
		t.Fatalf("output = %q, want failure line", out)
	}
}
