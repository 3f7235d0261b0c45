// Package verify runs the trust-but-verify checks after an agent claims a
// bead is complete. The agent's own success claim is never trusted; each
// configured check command runs and its output is interpreted per tool.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/axonhq/axon/internal/exec"
)

const defaultCheckTimeout = 5 * time.Minute

// Check is one verification command.
type Check struct {
	// Name identifies the check and selects its output interpreter
	// (typecheck, lint, tests). Unknown names use the default interpreter.
	Name string
	// Command is run through the shell in the project directory.
	Command string
	// Timeout bounds the check (default 5m).
	Timeout time.Duration
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name    string
	Command string
	Passed  bool
	Output  string
	Err     error
}

// Report aggregates all check outcomes for one bead.
type Report struct {
	// Passed is true only when every check passed.
	Passed bool
	Checks []CheckResult
}

// Summary renders a one-line-per-check account for failure reasons.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, c := range r.Checks {
		state := "passed"
		if !c.Passed {
			state = "failed"
		}
		fmt.Fprintf(&b, "%s: %s\n", c.Name, state)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Failures lists the names of failed checks.
func (r *Report) Failures() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// Verifier runs a fixed set of checks against a project directory.
type Verifier struct {
	runner exec.Runner
	dir    string
	checks []Check
}

// New builds a verifier for the given project directory.
func New(runner exec.Runner, dir string, checks []Check) *Verifier {
	return &Verifier{runner: runner, dir: dir, checks: checks}
}

// Run executes every configured check in order. All checks run even when an
// earlier one fails, so the report names every broken tool at once. A check
// that cannot execute at all counts as failed, not as an error; verification
// always yields a verdict.
func (v *Verifier) Run(ctx context.Context) *Report {
	report := &Report{Passed: true}

	for _, check := range v.checks {
		res := v.runOne(ctx, check)
		if !res.Passed {
			report.Passed = false
		}
		report.Checks = append(report.Checks, res)
	}
	return report
}

func (v *Verifier) runOne(ctx context.Context, check Check) CheckResult {
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := v.runner.Shell(checkCtx, v.dir, check.Command)
	output := string(out)

	res := CheckResult{Name: check.Name, Command: check.Command, Output: output, Err: err}

	if checkCtx.Err() == context.DeadlineExceeded {
		res.Err = fmt.Errorf("check %q timed out after %s", check.Name, timeout)
		return res
	}

	res.Passed = interpreterFor(check.Name).Interpret(output, err)
	return res
}
