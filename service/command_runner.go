package service

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
)

var (
	ErrCommandNameRequired = errors.New("command name is required")
	ErrCommandRunnerNil    = errors.New("command runner is nil")
)

// commandRunner abstracts the external detection CLI so services can be
// exercised in tests without a real binary on PATH.
type commandRunner interface {
	// Stream runs the command attached to the parent's stdout and stderr.
	Stream(name string, args []string) error
	// Capture runs the command and returns what it wrote to each stream,
	// even when the command exits non-zero.
	Capture(name string, args []string) (string, string, error)
}

type execCommandRunner struct{}

func newExecCommandRunner() *execCommandRunner {
	return &execCommandRunner{}
}

func (r *execCommandRunner) Stream(name string, args []string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrCommandNameRequired
	}

	cmd := exec.Command(trimmed, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (r *execCommandRunner) Capture(name string, args []string) (string, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", "", ErrCommandNameRequired
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(trimmed, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// exitCodeOf unwraps the process exit status, -1 when the command never ran.
func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
