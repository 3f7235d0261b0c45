package provider

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axonhq/axon/pkg/models"
)

// Config is the normalized provider configuration from disk.
type Config struct {
	// Providers lists every configured backend profile.
	Providers []models.Provider
	// DefaultName is the explicitly configured primary, if any.
	DefaultName string
	// FallbackChain orders provider names to try after the primary.
	FallbackChain []string
	// Path is where the config was loaded from, for diagnostics.
	Path string
}

// Two file shapes are accepted. The current shape:
//
//	default: anthropic-main
//	fallback_chain: [anthropic-main, openai-backup]
//	providers:
//	  - name: anthropic-main
//	    type: anthropic
//	    models: [claude-sonnet-4-20250514]
//
// and the legacy single-provider shape:
//
//	provider:
//	  type: openai
//	  models: [gpt-4o]
//
// Each shape has its own parser returning normalized providers; Merge picks
// between them by explicit precedence instead of mutating one into the other.

type providerListFile struct {
	Default       string            `yaml:"default"`
	FallbackChain []string          `yaml:"fallback_chain"`
	Providers     []models.Provider `yaml:"providers"`
}

type legacySingleFile struct {
	Provider *models.Provider `yaml:"provider"`
}

// LoadConfig reads and parses the provider config file. A missing file is
// not an error; it returns (nil, nil) so resolution can fall through to
// environment variables.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read provider config: %w", err)
	}

	list, listErr := parseProviderList(data)
	legacy, legacyErr := parseLegacySingle(data)

	cfg := mergeParsed(list, legacy)
	if cfg == nil {
		if listErr != nil {
			return nil, fmt.Errorf("parse provider config %s: %w", path, listErr)
		}
		if legacyErr != nil {
			return nil, fmt.Errorf("parse provider config %s: %w", path, legacyErr)
		}
		return nil, fmt.Errorf("provider config %s contains no providers", path)
	}

	cfg.Path = path
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("%s-%d", p.Type, i)
		}
		if !p.Type.Valid() {
			return nil, fmt.Errorf("provider %q has unknown type %q", p.Name, p.Type)
		}
	}
	return cfg, nil
}

func parseProviderList(data []byte) (*Config, error) {
	var f providerListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Providers) == 0 {
		return nil, nil
	}
	return &Config{
		Providers:     f.Providers,
		DefaultName:   f.Default,
		FallbackChain: f.FallbackChain,
	}, nil
}

func parseLegacySingle(data []byte) (*Config, error) {
	var f legacySingleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Provider == nil {
		return nil, nil
	}
	return &Config{Providers: []models.Provider{*f.Provider}}, nil
}

// mergeParsed applies shape precedence: the provider-list shape wins over
// the legacy single-provider block when both parse.
func mergeParsed(list, legacy *Config) *Config {
	if list != nil {
		return list
	}
	return legacy
}
