package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Display the effective configuration after merging defaults, the
user config, the project config, and environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("User config:    %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("Project config: %s\n", project)
	} else {
		fmt.Println("Project config: (none)")
	}
	fmt.Println()

	fmt.Printf("paths.graph:     %s\n", cfg.Paths.Graph)
	fmt.Printf("paths.providers: %s\n", cfg.Paths.Providers)
	fmt.Printf("paths.skills:    %s\n", cfg.Paths.Skills)
	fmt.Printf("agent.bin:       %s\n", cfg.Agent.Bin)
	fmt.Printf("agent.args:      %v\n", cfg.Agent.Args)
	fmt.Printf("checks.typecheck: %s\n", orNone(cfg.Checks.Typecheck))
	fmt.Printf("checks.lint:      %s\n", orNone(cfg.Checks.Lint))
	fmt.Printf("checks.tests:     %s\n", orNone(cfg.Checks.Tests))
	fmt.Printf("timeouts.bead:   %s\n", cfg.Timeouts.Bead)
	fmt.Printf("timeouts.check:  %s\n", cfg.Timeouts.Check)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
