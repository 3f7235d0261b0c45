package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/axonhq/axon/pkg/models"
)

// ErrNoCredentials indicates no invocation strategy could be resolved at
// session construction.
var ErrNoCredentials = errors.New("no usable provider credentials")

// ErrCascadeExhausted indicates every invocation mode has failed this
// session.
var ErrCascadeExhausted = errors.New("all provider modes exhausted")

// sessionState is the small resolved state a session holds. It is replaced
// wholesale on cascade, never mutated field by field, so each cascade branch
// can be tested in isolation against Resolve.
type sessionState struct {
	mode   Mode
	client Client
	res    Resolution
}

// Session holds the active invocation strategy for one engine run. A call
// failure degrades to the next mode ("degrade, don't fail"); modes that
// failed are never revisited within the session.
type Session struct {
	opts  Options
	state sessionState
}

// newClientForResolution builds the client for a resolution. Package-level
// so cascade tests can substitute failing clients.
var newClientForResolution = func(res Resolution) (Client, error) {
	switch res.Mode {
	case ModeCLI:
		return newCLIClient(res.AgentPath), nil
	case ModeDirect, ModeFallback:
		switch res.Provider.Type {
		case models.ProviderAnthropic:
			return newAnthropicClient(res.Provider, res.Credential)
		case models.ProviderOpenAI, models.ProviderGoogle, models.ProviderProxy:
			return newOpenAIClient(res.Provider, res.Credential)
		default:
			return nil, fmt.Errorf("unknown provider type %q", res.Provider.Type)
		}
	default:
		return nil, fmt.Errorf("unresolvable mode %q", res.Mode)
	}
}

// NewSession resolves an invocation strategy and builds its client.
func NewSession(opts Options) (*Session, error) {
	if opts.Skip == nil {
		opts.Skip = make(map[Mode]bool)
	}

	s := &Session{opts: opts}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild re-resolves with the current skip set and replaces the session
// state. Modes whose clients cannot even be constructed are marked failed
// and resolution continues.
func (s *Session) rebuild() error {
	for {
		res := Resolve(s.opts)
		if !res.Usable() {
			return fmt.Errorf("%w\n%s", ErrNoCredentials, res.Diagnostic)
		}
		client, err := newClientForResolution(res)
		if err != nil {
			s.opts.Skip[res.Mode] = true
			continue
		}
		s.state = sessionState{mode: res.Mode, client: client, res: res}
		return nil
	}
}

// Mode returns the currently active invocation mode.
func (s *Session) Mode() Mode {
	return s.state.mode
}

// AgentPath returns the resolved coding-agent executable in cli mode, or
// empty otherwise.
func (s *Session) AgentPath() string {
	return s.state.res.AgentPath
}

// Describe names the active backend for diagnostics.
func (s *Session) Describe() string {
	return fmt.Sprintf("%s (%s mode)", s.state.client.Describe(), s.state.mode)
}

// Diagnostic returns the last-known resolution diagnostic with every
// credential source enumerated. Useful after ErrCascadeExhausted.
func (s *Session) Diagnostic() string {
	return buildDiagnostic(s.opts.env(), s.opts)
}

// Call invokes the active backend. On failure it marks the active mode as
// failed, degrades to the next resolvable mode, and retries once per mode.
// A failure with no modes left is terminal and carries the full diagnostic.
func (s *Session) Call(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.state.client.Invoke(ctx, req)
	if err == nil {
		return resp, nil
	}

	lastErr := err
	for {
		s.opts.Skip[s.state.mode] = true

		res := Resolve(s.opts)
		if !res.Usable() {
			return nil, fmt.Errorf("%w: last error: %v\n%s", ErrCascadeExhausted, lastErr, res.Diagnostic)
		}
		client, buildErr := newClientForResolution(res)
		if buildErr != nil {
			lastErr = buildErr
			s.state = sessionState{mode: res.Mode, res: res}
			continue
		}
		s.state = sessionState{mode: res.Mode, client: client, res: res}

		resp, err = client.Invoke(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
}
