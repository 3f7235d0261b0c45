// Package exec abstracts shelling out to external commands so callers
// (verifier checks, git queries) can be tested against a fake runner.
package exec

import (
	"context"
	"os/exec"
)

// Runner runs external commands and returns their combined output.
type Runner interface {
	// CombinedOutput executes a command with stdout and stderr merged.
	// The working directory is set to dir if non-empty.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)

	// Shell executes a command line through "sh -c".
	Shell(ctx context.Context, dir, command string) ([]byte, error)
}

// SystemRunner implements Runner with os/exec.
type SystemRunner struct{}

// NewRunner creates a SystemRunner.
func NewRunner() *SystemRunner {
	return &SystemRunner{}
}

// CombinedOutput executes a command and returns merged stdout/stderr.
func (r *SystemRunner) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd.CombinedOutput()
}

// Shell executes a command line through "sh -c".
func (r *SystemRunner) Shell(ctx context.Context, dir, command string) ([]byte, error) {
	return r.CombinedOutput(ctx, dir, "sh", "-c", command)
}

var _ Runner = (*SystemRunner)(nil)
