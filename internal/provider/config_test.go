package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axonhq/axon/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigProviderList(t *testing.T) {
	path := writeConfig(t, `
default: main
fallback_chain: [main, backup]
providers:
  - name: main
    type: anthropic
    models: [claude-sonnet-4-20250514]
  - name: backup
    type: openai
    models: [gpt-4o]
    endpoint: https://example.com/v1
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.Providers))
	}
	if cfg.DefaultName != "main" {
		t.Errorf("expected default main, got %q", cfg.DefaultName)
	}
	if len(cfg.FallbackChain) != 2 {
		t.Errorf("expected fallback chain of 2, got %v", cfg.FallbackChain)
	}
	if cfg.Providers[1].Endpoint != "https://example.com/v1" {
		t.Errorf("endpoint not parsed: %q", cfg.Providers[1].Endpoint)
	}
	if cfg.Path != path {
		t.Errorf("path not recorded: %q", cfg.Path)
	}
}

func TestLoadConfigLegacySingleProvider(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: solo
  type: openai
  models: [gpt-4o-mini]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "solo" {
		t.Fatalf("legacy shape not normalized: %+v", cfg.Providers)
	}
}

func TestLoadConfigListShapeWinsOverLegacy(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: legacy
  type: openai
providers:
  - name: modern
    type: anthropic
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "modern" {
		t.Fatalf("expected list shape to take precedence, got %+v", cfg.Providers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config for missing file")
	}
}

func TestLoadConfigUnknownType(t *testing.T) {
	path := writeConfig(t, `
providers:
  - name: weird
    type: carrier-pigeon
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestLoadConfigNamesGenerated(t *testing.T) {
	path := writeConfig(t, `
providers:
  - type: openai
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers[0].Name == "" {
		t.Error("expected a generated name for unnamed provider")
	}
	if cfg.Providers[0].Type != models.ProviderOpenAI {
		t.Errorf("type not parsed: %q", cfg.Providers[0].Type)
	}
}
