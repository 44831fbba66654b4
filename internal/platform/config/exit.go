package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Exitf reports a fatal command error on stderr and exits with status 1.
func Exitf(format string, args ...any) {
	os.Exit(writeFailure(os.Stderr, format, args...))
}

// writeFailure prints one failure line and returns the exit status.
func writeFailure(w io.Writer, format string, args ...any) int {
	fmt.Fprintln(w, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
	return 1
}
