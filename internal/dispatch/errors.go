package dispatch

import (
	"fmt"
	"strings"
)

// UnsupportedLanguageError is returned for a tag outside the registry.
// No extractor is started.
type UnsupportedLanguageError struct {
	Tag string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Tag)
}

// ProcessExecutionError is returned when an external extractor cannot be
// started, exits non-zero, or is stopped by the timeout.
type ProcessExecutionError struct {
	Language Language
	Command  string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ProcessExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s extractor", e.Language)
	if e.Err != nil {
		fmt.Fprintf(&b, " failed: %v", e.Err)
	} else {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}
	return b.String()
}

func (e *ProcessExecutionError) Unwrap() error { return e.Err }
