// Package executil runs external commands with context-aware cancellation.
//
// The CLI-backed database and messaging managers shell out to vendor tools
// through the Runner interface, which keeps the subprocess plumbing in one
// place and lets tests substitute recorded fixture output for real binaries.
package executil

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Result carries the captured output of a finished command. A non-zero exit
// code is a regular result, not an error; errors are reserved for spawn
// failures and cancellation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a command and waits for it to complete.
type Runner interface {
	Run(ctx context.Context, stdin, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
//
// On context cancellation it sends an interrupt instead of a kill, which
// gives the vendor tool time to release its connection handles.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, stdin, name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	commandline := strings.Join(cmd.Args, " ")

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running command",
		"command", commandline,
		"dir", cmd.Dir,
	)

	err := cmd.Start()
	if err != nil {
		return Result{}, errors.Wrapf(err, "failed to start `%s`", commandline)
	}

	done := make(chan struct{}, 1)
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			slog.Debug("sending interrupt signal", "command", commandline)
			cmd.Process.Signal(syscall.SIGINT)
		case <-done:
			// Wait already returned; nothing to cancel.
		}
	}()

	waitErr := cmd.Wait()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil {
		return result, errors.Wrapf(ctx.Err(), "command `%s` cancelled", commandline)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if waitErr != nil {
		return result, errors.Wrapf(waitErr, "failed to run `%s`", commandline)
	}

	return result, nil
}
