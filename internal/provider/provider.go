// Package provider resolves which backend invocation strategy can service a
// code-generation request and builds the matching client. Resolution walks
// three modes: an external coding-agent CLI, a structured provider config
// with resolvable credentials, and raw environment variables as a last
// resort. Call failures degrade to the next mode instead of failing the
// session outright.
package provider

import (
	"context"
	"os"
	"os/exec"
)

// Request is one code-generation call.
type Request struct {
	// System is the optional system prompt.
	System string
	// Prompt is the user-facing prompt text.
	Prompt string
	// Model overrides the provider's primary model when set.
	Model string
	// MaxTokens bounds the response length; 0 uses the client default.
	MaxTokens int64
	// WorkDir is the directory CLI-mode invocations run in.
	WorkDir string
}

// Response is the normalized result of a call, regardless of backend.
type Response struct {
	// Text is the model output.
	Text string
	// InputTokens and OutputTokens report usage when the backend supplies it.
	InputTokens  int64
	OutputTokens int64
	// CostUSD is the computed or backend-reported cost of the call.
	CostUSD float64
}

// Client services code-generation requests against one backend.
type Client interface {
	// Invoke performs a single call.
	Invoke(ctx context.Context, req Request) (*Response, error)
	// Describe names the backend for diagnostics.
	Describe() string
}

// Environment abstracts process environment lookups so resolution is
// testable without mutating the real environment.
type Environment struct {
	// Getenv returns the value of an environment variable.
	Getenv func(string) string
	// LookPath searches PATH for an executable.
	LookPath func(string) (string, error)
}

// SystemEnvironment returns the real process environment.
func SystemEnvironment() Environment {
	return Environment{
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
	}
}
