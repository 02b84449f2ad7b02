package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for the output pipes to close once
// the extractor has been killed.
const waitDelay = 2 * time.Second

// Output is the captured result of an extractor process.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner starts an external extractor and waits for it to exit. A non-zero
// exit is reported through Output.ExitCode; the error is reserved for
// processes that could not be started or were interrupted.
type Runner interface {
	Run(ctx context.Context, cmd Command, dir string) (Output, error)
}

// ExecRunner runs extractors with os/exec, buffering stdout and stderr in
// full.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command, dir string) (Output, error) {
	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Path, cmd.Argv(dir)...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay
	killProcessGroup(c)

	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	out.ExitCode = -1
	return out, err
}
