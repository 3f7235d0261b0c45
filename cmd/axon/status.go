package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/graph"
	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show graph progress",
	Long: `Display the current state of the bead graph.

Shows per-status counts, total cost, every bead with its status, and a
diagnosis for each blocked bead.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Paths.Graph)
	if !st.Exists() {
		fmt.Printf("No graph at %s. Run 'axon import' to create one.\n", cfg.Paths.Graph)
		return nil
	}

	g, err := st.Load()
	if err != nil {
		return err
	}

	stats := graph.ComputeStats(g)
	fmt.Printf("Graph: %s\n", st.Path())
	fmt.Printf("  Beads: %d total, %d completed, %d pending, %d failed, %d paused\n",
		stats.Total, stats.Completed, stats.Pending, stats.Failed, stats.Paused)
	fmt.Printf("  Progress: %.0f%%\n", stats.PercentComplete)
	fmt.Printf("  Cost: $%.4f\n", g.Metadata.TotalCostUSD)
	fmt.Println()

	for _, b := range g.Beads {
		fmt.Printf("  %s %-14s %s\n", statusSymbol(b.Status), b.ID, b.Title)
		if b.Status == models.BeadStatusFailed && b.Error != "" {
			color.New(color.FgRed).Printf("      %s\n", b.Error)
		}
	}

	if blocked := graph.Blocked(g); len(blocked) > 0 {
		fmt.Println()
		color.New(color.FgYellow).Println("Blocked beads:")
		for _, bb := range blocked {
			fmt.Printf("  %s\n", bb.String())
		}
	}
	return nil
}

func statusSymbol(s models.BeadStatus) string {
	switch s {
	case models.BeadStatusCompleted:
		return color.New(color.FgGreen).Sprint("✓")
	case models.BeadStatusFailed:
		return color.New(color.FgRed).Sprint("✗")
	case models.BeadStatusRunning:
		return color.New(color.FgCyan).Sprint("▶")
	case models.BeadStatusPaused:
		return color.New(color.FgHiBlack).Sprint("⏸")
	default:
		return color.New(color.FgHiBlack).Sprint("·")
	}
}
