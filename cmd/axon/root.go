package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "axon",
	Short: "AI-assisted development orchestrator",
	Long: `Axon executes a dependency graph of work items (beads) against an AI
coding agent, one bead at a time.

Each bead carries an instruction, dependencies, and required skills. Axon
picks the next executable bead, hands it to the agent, verifies the claimed
result with your own check commands, and persists every state change to the
graph file before moving on.

Typical flow:
  axon import plan.yaml   # load a planner-produced bead graph
  axon validate           # check the graph structure
  axon run                # execute beads until done or blocked
  axon watch              # live view while a run is in progress`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .axon.yaml discovery)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}
