// Package config handles configuration loading and management for Axon.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Axon.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Checks   ChecksConfig   `mapstructure:"checks"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
}

// PathsConfig locates the project state files.
type PathsConfig struct {
	// Graph is the bead graph JSON file.
	Graph string `mapstructure:"graph"`
	// Providers is the provider configuration YAML file.
	Providers string `mapstructure:"providers"`
	// Skills is the skills database file.
	Skills string `mapstructure:"skills"`
}

// AgentConfig holds coding-agent CLI settings.
type AgentConfig struct {
	// Bin is the agent executable to look up on PATH.
	Bin string `mapstructure:"bin"`
	// Args are extra arguments passed to the agent in cli mode.
	Args []string `mapstructure:"args"`
}

// ChecksConfig holds the verification check commands. An empty command
// disables that check.
type ChecksConfig struct {
	Typecheck string `mapstructure:"typecheck"`
	Lint      string `mapstructure:"lint"`
	Tests     string `mapstructure:"tests"`
}

// NamedCheck pairs a check name with its shell command.
type NamedCheck struct {
	Name    string
	Command string
}

// List returns the configured checks in a fixed order, skipping empty
// commands.
func (c ChecksConfig) List() []NamedCheck {
	all := []NamedCheck{
		{Name: "typecheck", Command: c.Typecheck},
		{Name: "lint", Command: c.Lint},
		{Name: "tests", Command: c.Tests},
	}
	var out []NamedCheck
	for _, chk := range all {
		if chk.Command != "" {
			out = append(out, chk)
		}
	}
	return out
}

// TimeoutsConfig bounds bead execution and verification.
type TimeoutsConfig struct {
	// Bead is the wall-clock limit per agent invocation.
	Bead time.Duration `mapstructure:"bead"`
	// Check is the limit per verification command.
	Check time.Duration `mapstructure:"check"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (AXON_ prefix)
// 2. Project config (.axon.yaml in current directory or parent)
// 3. User config (~/.config/axon/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("AXON")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("paths.graph", cfg.Paths.Graph)
	v.Set("paths.providers", cfg.Paths.Providers)
	v.Set("paths.skills", cfg.Paths.Skills)
	v.Set("agent.bin", cfg.Agent.Bin)
	v.Set("agent.args", cfg.Agent.Args)
	v.Set("checks.typecheck", cfg.Checks.Typecheck)
	v.Set("checks.lint", cfg.Checks.Lint)
	v.Set("checks.tests", cfg.Checks.Tests)
	v.Set("timeouts.bead", cfg.Timeouts.Bead.String())
	v.Set("timeouts.check", cfg.Timeouts.Check.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it
// exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.graph", ".axon/graph.json")
	v.SetDefault("paths.providers", ".axon/providers.yaml")
	v.SetDefault("paths.skills", ".axon/skills.db")

	v.SetDefault("agent.bin", "claude")
	v.SetDefault("agent.args", []string{})

	v.SetDefault("checks.typecheck", "")
	v.SetDefault("checks.lint", "")
	v.SetDefault("checks.tests", "")

	v.SetDefault("timeouts.bead", "30m")
	v.SetDefault("timeouts.check", "5m")
}

// getUserConfigDir returns the XDG config directory for Axon.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "axon")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "axon")
	}
	return filepath.Join(home, ".config", "axon")
}

// findProjectConfig searches for .axon.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".axon.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Graph:     ".axon/graph.json",
			Providers: ".axon/providers.yaml",
			Skills:    ".axon/skills.db",
		},
		Agent: AgentConfig{
			Bin: "claude",
		},
		Timeouts: TimeoutsConfig{
			Bead:  30 * time.Minute,
			Check: 5 * time.Minute,
		},
	}
}
