package provider

import (
	"fmt"
	"strings"

	"github.com/axonhq/axon/pkg/models"
)

// Mode is a backend invocation strategy.
type Mode string

const (
	// ModeCLI invokes an external coding-agent executable found on PATH.
	// Selected first because it carries the richest capability set.
	ModeCLI Mode = "cli"
	// ModeDirect calls a configured provider's HTTP API.
	ModeDirect Mode = "direct"
	// ModeFallback builds a provider from raw environment variables.
	ModeFallback Mode = "fallback"
)

// typePriority orders provider types when nothing else disambiguates.
var typePriority = []models.ProviderType{
	models.ProviderAnthropic,
	models.ProviderOpenAI,
	models.ProviderGoogle,
	models.ProviderProxy,
}

// Options are the inputs to resolution. Resolve is a pure function of these;
// the caller holds the returned state and re-resolves on cascade instead of
// mutating a shared client.
type Options struct {
	// Env supplies environment lookups; defaults to SystemEnvironment.
	Env Environment
	// AgentBin is the coding-agent executable name (default "claude").
	AgentBin string
	// Config is the parsed provider config, or nil when absent.
	Config *Config
	// Skip marks modes that already failed this session; resolution never
	// revisits them.
	Skip map[Mode]bool
}

func (o *Options) env() Environment {
	if o.Env.Getenv == nil {
		return SystemEnvironment()
	}
	return o.Env
}

func (o *Options) agentBin() string {
	if o.AgentBin == "" {
		return "claude"
	}
	return o.AgentBin
}

// Resolution is the outcome of one resolution pass.
type Resolution struct {
	// Mode is the selected strategy, or empty when every path failed.
	Mode Mode
	// AgentPath is the resolved CLI executable path in cli mode.
	AgentPath string
	// Provider is the selected profile in direct/fallback mode.
	Provider *models.Provider
	// Credential is the resolved API key in direct/fallback mode.
	Credential string
	// CredentialSource names where the credential came from.
	CredentialSource string
	// Diagnostic explains, source by source, why resolution failed.
	// Set only when Mode is empty.
	Diagnostic string
}

// Usable returns true if a strategy was selected.
func (r Resolution) Usable() bool {
	return r.Mode != ""
}

// Resolve evaluates the three modes in order and returns the first usable
// strategy: cli when the agent executable is on PATH, direct when a
// configured provider's credential resolves, fallback from raw environment
// variables with the proxy token as a last resort. When nothing resolves the
// returned Resolution carries a diagnostic enumerating every source checked.
func Resolve(opts Options) Resolution {
	env := opts.env()

	if !opts.Skip[ModeCLI] {
		if path, err := env.LookPath(opts.agentBin()); err == nil {
			return Resolution{Mode: ModeCLI, AgentPath: path}
		}
	}

	if !opts.Skip[ModeDirect] && opts.Config != nil {
		if res, ok := resolveDirect(env, opts.Config); ok {
			return res
		}
	}

	if !opts.Skip[ModeFallback] {
		if res, ok := resolveFallback(env); ok {
			return res
		}
	}

	return Resolution{Diagnostic: buildDiagnostic(env, opts)}
}

// resolveDirect picks a primary among configured providers whose credentials
// resolve: the file-level default name first, then a provider marked default,
// then fallback chain order, then type priority, then first available.
func resolveDirect(env Environment, cfg *Config) (Resolution, bool) {
	type candidate struct {
		p      *models.Provider
		key    string
		source string
	}
	var usable []candidate
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if !needsCredential(p) {
			usable = append(usable, candidate{p: p})
			continue
		}
		if key, source, ok := resolveCredential(env, p); ok {
			usable = append(usable, candidate{p: p, key: key, source: source})
		}
	}
	if len(usable) == 0 {
		return Resolution{}, false
	}

	pick := func(name string) *candidate {
		for i := range usable {
			if usable[i].p.Name == name {
				return &usable[i]
			}
		}
		return nil
	}

	var chosen *candidate
	if cfg.DefaultName != "" {
		chosen = pick(cfg.DefaultName)
	}
	if chosen == nil {
		for i := range usable {
			if usable[i].p.Default {
				chosen = &usable[i]
				break
			}
		}
	}
	if chosen == nil {
		for _, name := range cfg.FallbackChain {
			if chosen = pick(name); chosen != nil {
				break
			}
		}
	}
	if chosen == nil {
		for _, t := range typePriority {
			for i := range usable {
				if usable[i].p.Type == t {
					chosen = &usable[i]
					break
				}
			}
			if chosen != nil {
				break
			}
		}
	}
	if chosen == nil {
		chosen = &usable[0]
	}

	return Resolution{
		Mode:             ModeDirect,
		Provider:         chosen.p,
		Credential:       chosen.key,
		CredentialSource: chosen.source,
	}, true
}

// resolveFallback checks raw environment variables in fixed priority order,
// then attempts a last-resort proxy-token client.
func resolveFallback(env Environment) (Resolution, bool) {
	for _, envVar := range fallbackEnvVars {
		if key := env.Getenv(envVar); key != "" {
			t := envProviderType(envVar)
			p := &models.Provider{
				Name:   "env-" + string(t),
				Type:   t,
				Models: []string{defaultModelFor(t)},
			}
			return Resolution{
				Mode:             ModeFallback,
				Provider:         p,
				Credential:       key,
				CredentialSource: envVar,
			}, true
		}
	}
	if token := env.Getenv(ProxyTokenEnv); token != "" {
		p := &models.Provider{
			Name:   "env-proxy",
			Type:   models.ProviderProxy,
			Models: []string{defaultModelFor(models.ProviderProxy)},
		}
		return Resolution{
			Mode:             ModeFallback,
			Provider:         p,
			Credential:       token,
			CredentialSource: ProxyTokenEnv,
		}, true
	}
	return Resolution{}, false
}

// defaultModelFor supplies a model name when the environment gives us only a
// key to work with.
func defaultModelFor(t models.ProviderType) string {
	switch t {
	case models.ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case models.ProviderOpenAI:
		return "gpt-4o"
	case models.ProviderGoogle:
		return "gemini-2.0-flash"
	default:
		return "anthropic/claude-sonnet-4-20250514"
	}
}

// buildDiagnostic enumerates every credential source checked so the operator
// can see why each path failed.
func buildDiagnostic(env Environment, opts Options) string {
	var b strings.Builder
	b.WriteString("no usable provider; sources checked:\n")

	fmt.Fprintf(&b, "  agent CLI %q: not found on PATH\n", opts.agentBin())

	if opts.Config == nil {
		b.WriteString("  provider config: not found\n")
	} else {
		fmt.Fprintf(&b, "  provider config %s: %d provider(s), none with resolvable credentials\n",
			opts.Config.Path, len(opts.Config.Providers))
	}

	for _, envVar := range fallbackEnvVars {
		fmt.Fprintf(&b, "  %s: %s\n", envVar, presence(env.Getenv(envVar)))
	}
	fmt.Fprintf(&b, "  %s: %s\n", ProxyTokenEnv, presence(env.Getenv(ProxyTokenEnv)))

	if len(opts.Skip) > 0 {
		var skipped []string
		for _, m := range []Mode{ModeCLI, ModeDirect, ModeFallback} {
			if opts.Skip[m] {
				skipped = append(skipped, string(m))
			}
		}
		fmt.Fprintf(&b, "  modes already failed this session: %s\n", strings.Join(skipped, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func presence(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}
