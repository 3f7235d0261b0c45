package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/axonhq/axon/internal/provider"
	"github.com/axonhq/axon/pkg/models"
)

func TestBuildPromptIncludesContract(t *testing.T) {
	bead := &models.Bead{
		ID:          "api",
		Title:       "HTTP endpoints",
		Description: "REST surface",
		Instruction: "add the handlers",
	}

	prompt := BuildPrompt(bead, "use chi routing")
	for _, want := range []string{
		"HTTP endpoints",
		"REST surface",
		"add the handlers",
		"use chi routing",
		CompletedSentinel,
		"[[AXON_STATUS:FAILED:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRunBeadSpawnFailureCascadesThroughSession(t *testing.T) {
	// The agent binary resolves on PATH but cannot actually be spawned.
	// The bridge must fall back to the session, whose cli one-shot client
	// also fails, and with no credentials anywhere the cascade exhausts
	// with the full diagnostic instead of hanging in cli mode.
	env := provider.Environment{
		Getenv: func(string) string { return "" },
		LookPath: func(string) (string, error) {
			return "/nonexistent/axon-agent", nil
		},
	}
	session, err := provider.NewSession(provider.Options{Env: env})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if session.Mode() != provider.ModeCLI {
		t.Fatalf("expected cli mode, got %s", session.Mode())
	}

	a := &Agent{Session: session, WorkDir: t.TempDir()}
	bead := &models.Bead{ID: "x", Title: "t", Instruction: "do x"}

	_, err = a.RunBead(context.Background(), bead, "")
	if !errors.Is(err, provider.ErrCascadeExhausted) {
		t.Fatalf("expected cascade exhaustion, got %v", err)
	}
	// The cli mode must be marked failed and the terminal diagnostic must
	// enumerate the credential sources that were checked.
	for _, envVar := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "AXON_PROXY_TOKEN"} {
		if !strings.Contains(err.Error(), envVar) {
			t.Errorf("diagnostic missing %s:\n%v", envVar, err)
		}
	}
	if !strings.Contains(err.Error(), "cli") {
		t.Errorf("diagnostic should record the failed cli mode:\n%v", err)
	}
}
