package verify

import "strings"

// CheckInterpreter decides whether a check's raw output means pass. Exit
// codes alone are not trusted because some toolchains exit zero while
// printing errors, and some test runners exit non-zero on warnings.
type CheckInterpreter interface {
	// Interpret returns true when the output indicates a passing check.
	Interpret(output string, runErr error) bool
}

// interpreters maps check names to their output interpreter. Register adds
// or replaces an entry.
var interpreters = map[string]CheckInterpreter{
	"typecheck": typecheckInterpreter{},
	"lint":      lintInterpreter{},
	"tests":     testsInterpreter{},
}

// Register installs an interpreter for a check name, replacing any existing
// one.
func Register(name string, in CheckInterpreter) {
	interpreters[name] = in
}

func interpreterFor(name string) CheckInterpreter {
	if in, ok := interpreters[name]; ok {
		return in
	}
	return defaultInterpreter{}
}

// mentionsFailure is the baseline every interpreter applies: output that
// talks about failing is never a pass, whatever tool produced it.
func mentionsFailure(lower string) bool {
	return strings.Contains(lower, "fail")
}

// typecheckInterpreter fails on any mention of "error". Type checkers are
// quiet on success, so error text anywhere means a real problem.
type typecheckInterpreter struct{}

func (typecheckInterpreter) Interpret(output string, runErr error) bool {
	if runErr != nil {
		return false
	}
	lower := strings.ToLower(output)
	return !strings.Contains(lower, "error") && !mentionsFailure(lower)
}

// lintInterpreter fails on "error" or "fail" in the output.
type lintInterpreter struct{}

func (lintInterpreter) Interpret(output string, runErr error) bool {
	if runErr != nil {
		return false
	}
	lower := strings.ToLower(output)
	return !strings.Contains(lower, "error") && !mentionsFailure(lower)
}

// passMarkers are the phrases test runners print on success. A test run
// passes only on an explicit marker; silence or ambiguous output fails.
var passMarkers = []string{
	"pass",
	"passed",
	"passing",
	"ok",
	"success",
	"✓",
}

// failMarkers override pass markers: "2 passing, 3 failing" is a failure
// even though "passing" appears.
var failMarkers = []string{
	"fail",
	"failing",
	"failed",
	"error",
	"✗",
}

// testsInterpreter requires affirmative evidence of success.
type testsInterpreter struct{}

func (testsInterpreter) Interpret(output string, runErr error) bool {
	if runErr != nil {
		return false
	}
	lower := strings.ToLower(output)
	for _, m := range failMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	for _, m := range passMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	// No marker at all: an empty or unrecognized test run is not proof of
	// passing tests.
	return false
}

// defaultInterpreter covers unregistered check names: any failure word or a
// non-zero exit fails, everything else passes.
type defaultInterpreter struct{}

func (defaultInterpreter) Interpret(output string, runErr error) bool {
	if runErr != nil {
		return false
	}
	lower := strings.ToLower(output)
	return !strings.Contains(lower, "fail") && !strings.Contains(lower, "error")
}
