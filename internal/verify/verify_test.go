package verify

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedRunner returns canned output per command line.
type scriptedRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *scriptedRunner) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (r *scriptedRunner) Shell(ctx context.Context, dir, command string) ([]byte, error) {
	r.calls = append(r.calls, command)
	return []byte(r.outputs[command]), r.errs[command]
}

func TestVerifierAllPass(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"tsc --noEmit": "",
		"npm run lint": "clean",
		"npm test":     "12 passing",
	}}
	v := New(runner, "/proj", []Check{
		{Name: "typecheck", Command: "tsc --noEmit"},
		{Name: "lint", Command: "npm run lint"},
		{Name: "tests", Command: "npm test"},
	})

	report := v.Run(context.Background())
	if !report.Passed {
		t.Fatalf("expected pass, got %s", report.Summary())
	}
	if len(report.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(report.Checks))
	}
}

func TestVerifierRunsAllChecksOnFailure(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"tsc --noEmit": "src/a.ts(3,1): error TS2304",
		"npm test":     "12 passing",
	}}
	v := New(runner, "/proj", []Check{
		{Name: "typecheck", Command: "tsc --noEmit"},
		{Name: "tests", Command: "npm test"},
	})

	report := v.Run(context.Background())
	if report.Passed {
		t.Fatal("expected failure")
	}
	if len(runner.calls) != 2 {
		t.Errorf("later checks must still run, got calls %v", runner.calls)
	}
	if got := report.Failures(); len(got) != 1 || got[0] != "typecheck" {
		t.Errorf("expected only typecheck to fail, got %v", got)
	}
}

func TestTestsInterpreterRequiresExplicitPass(t *testing.T) {
	cases := []struct {
		output string
		err    error
		want   bool
	}{
		{"12 passing", nil, true},
		{"PASS src/app.test.ts", nil, true},
		{"ok  	github.com/x/y	0.01s", nil, true},
		{"2 passing, 3 failing", nil, false},
		{"", nil, false},
		{"done", nil, false},
		{"12 passing", errors.New("exit 1"), false},
	}
	in := testsInterpreter{}
	for _, c := range cases {
		if got := in.Interpret(c.output, c.err); got != c.want {
			t.Errorf("tests interpret %q (err=%v) = %v, want %v", c.output, c.err, got, c.want)
		}
	}
}

func TestFailingOutputFailsEveryInterpreter(t *testing.T) {
	names := []string{"typecheck", "lint", "tests", "custom-check"}
	for _, name := range names {
		if interpreterFor(name).Interpret("3 failing", nil) {
			t.Errorf("interpreter for %q passed output '3 failing'", name)
		}
	}
}

func TestLintAndTypecheckInterpreters(t *testing.T) {
	if (lintInterpreter{}).Interpret("3 problems (3 errors)", nil) {
		t.Error("lint output with errors must fail")
	}
	if (lintInterpreter{}).Interpret("check failed", nil) {
		t.Error("lint output with failed must fail")
	}
	if !(lintInterpreter{}).Interpret("all files clean", nil) {
		t.Error("clean lint output must pass")
	}
	if (typecheckInterpreter{}).Interpret("error TS2304: cannot find name", nil) {
		t.Error("typecheck output with error must fail")
	}
	if !(typecheckInterpreter{}).Interpret("", nil) {
		t.Error("silent typecheck must pass")
	}
}

func TestUnknownCheckUsesDefaultInterpreter(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"make build": "build complete",
	}}
	v := New(runner, "", []Check{{Name: "build", Command: "make build"}})
	if report := v.Run(context.Background()); !report.Passed {
		t.Fatalf("default interpreter should pass clean output: %s", report.Summary())
	}

	runner.outputs["make build"] = "compilation error"
	if report := v.Run(context.Background()); report.Passed {
		t.Fatal("default interpreter must fail on error text")
	}
}

// slowRunner blocks until its context is cancelled.
type slowRunner struct{}

func (slowRunner) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (slowRunner) Shell(ctx context.Context, dir, command string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCheckTimeoutFailsCheck(t *testing.T) {
	v := New(slowRunner{}, "", []Check{
		{Name: "tests", Command: "npm test", Timeout: 20 * time.Millisecond},
	})

	start := time.Now()
	report := v.Run(context.Background())
	if report.Passed {
		t.Fatal("timed-out check must fail")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
	if report.Checks[0].Err == nil {
		t.Error("expected a timeout error on the check result")
	}
}
