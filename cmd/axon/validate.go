package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/graph"
	"github.com/axonhq/axon/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check graph structure",
	Long: `Validate the bead graph: duplicate IDs, dependencies on unknown
beads, and circular dependencies.

Defects are reported, never repaired. A graph that fails validation will not
execute.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Paths.Graph)
	g, err := st.Load()
	if err != nil {
		return err
	}

	result := graph.Validate(g)
	if result.Valid {
		color.New(color.FgGreen).Printf("✓ graph is valid (%d beads)\n", len(g.Beads))
		return nil
	}

	color.New(color.FgRed).Printf("✗ %d problem(s) found:\n", len(result.Errors))
	for _, ve := range result.Errors {
		fmt.Printf("  %s\n", ve.Message)
	}
	return fmt.Errorf("graph validation failed")
}
