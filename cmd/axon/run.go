package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axonhq/axon/internal/config"
	"github.com/axonhq/axon/internal/provider"
	"github.com/axonhq/axon/internal/scheduler"
	"github.com/axonhq/axon/internal/store"
)

var (
	runBeadID string
	runNext   bool
	runRetry  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute beads from the graph",
	Long: `Execute beads against the configured coding agent.

By default runs every executable bead in order until the graph is exhausted,
a bead fails, or the remaining beads are blocked. Each bead's result is
independently verified with the configured check commands before it counts
as completed.

Examples:
  axon run                      # run until done or blocked
  axon run --next               # run exactly one bead
  axon run --bead api-3         # run one specific bead
  axon run --bead api-3 --retry # reset a failed bead and run it again`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runBeadID, "bead", "", "Run a single bead by ID")
	runCmd.Flags().BoolVar(&runNext, "next", false, "Run only the next executable bead")
	runCmd.Flags().BoolVar(&runRetry, "retry", false, "Reset a failed bead to pending before running (requires --bead)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runRetry && runBeadID == "" {
		return fmt.Errorf("--retry requires --bead")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Paths.Graph)
	if !st.Exists() {
		return fmt.Errorf("no graph at %s; run 'axon import' first", cfg.Paths.Graph)
	}

	eng, cleanup, err := buildEngine(cfg, st)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case runBeadID != "":
		if runRetry {
			_, err = eng.RetryByID(ctx, runBeadID)
		} else {
			_, err = eng.ExecuteByID(ctx, runBeadID)
		}
	case runNext:
		_, err = eng.ExecuteNext(ctx)
	default:
		var n int
		n, err = eng.ExecuteAll(ctx)
		if n > 0 {
			fmt.Printf("\n%d bead(s) completed\n", n)
		}
	}

	return reportRunError(err)
}

// reportRunError renders expected halt conditions as readable output instead
// of raw errors.
func reportRunError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, scheduler.ErrNothingToDo) {
		fmt.Println("Nothing to do: no pending beads.")
		return nil
	}
	var blocked *scheduler.BlockedError
	if errors.As(err, &blocked) {
		color.New(color.FgYellow).Println("Execution stopped: remaining beads are blocked.")
		fmt.Println(blocked.Error())
		return errors.New("blocked beads remain")
	}
	return err
}

// buildEngine assembles the scheduler with all collaborators from config.
// The returned cleanup closes the skills store.
func buildEngine(cfg *config.Config, st *store.Store) (*scheduler.Engine, func(), error) {
	session, err := newProviderSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	fmt.Printf("Using %s\n", session.Describe())

	cleanup := func() {}
	var skillSource scheduler.SkillSource
	if cfg.Paths.Skills != "" {
		if skillsStore, err := openSkills(cfg.Paths.Skills); err == nil {
			skillSource = skillsStore
			cleanup = func() { skillsStore.Close() }
		}
	}

	eng := scheduler.New(
		st,
		newAgent(cfg, session),
		newChecker(cfg),
		skillSource,
		newArtifactCollector(),
	)
	eng.OnEvent = printEvent
	return eng, cleanup, nil
}

// newProviderSession resolves the invocation strategy from config and
// environment.
func newProviderSession(cfg *config.Config) (*provider.Session, error) {
	pcfg, err := provider.LoadConfig(cfg.Paths.Providers)
	if err != nil {
		return nil, err
	}
	return provider.NewSession(provider.Options{
		AgentBin: cfg.Agent.Bin,
		Config:   pcfg,
	})
}

func printEvent(ev scheduler.Event) {
	switch ev.Phase {
	case "started":
		fmt.Printf("%s %s  %s\n", color.New(color.FgCyan).Sprint("▶"), ev.BeadID, ev.Detail)
	case "verifying":
		fmt.Printf("%s %s  verifying\n", color.New(color.FgYellow).Sprint("…"), ev.BeadID)
	case "completed":
		fmt.Printf("%s %s  completed\n", color.New(color.FgGreen).Sprint("✓"), ev.BeadID)
	case "failed":
		fmt.Printf("%s %s  failed: %s\n", color.New(color.FgRed).Sprint("✗"), ev.BeadID, ev.Detail)
	}
}
