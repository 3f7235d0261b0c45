package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the bead graph",
	Long: `Watch the bead graph update in real time.

The view refreshes whenever the engine rewrites the graph file, so it can
run alongside 'axon run' in another terminal.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Paths.Graph)
	if !st.Exists() {
		return fmt.Errorf("no graph at %s; run 'axon import' first", cfg.Paths.Graph)
	}

	model, err := tui.NewWatchModel(st)
	if err != nil {
		return err
	}
	defer model.Close()

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
