package main

import (
	"context"
	"os"

	"github.com/axonhq/axon/internal/bridge"
	"github.com/axonhq/axon/internal/config"
	"github.com/axonhq/axon/internal/exec"
	"github.com/axonhq/axon/internal/gitops"
	"github.com/axonhq/axon/internal/provider"
	"github.com/axonhq/axon/internal/skills"
	"github.com/axonhq/axon/internal/verify"
)

// newAgent builds the bridge agent from config.
func newAgent(cfg *config.Config, session *provider.Session) *bridge.Agent {
	workDir, _ := os.Getwd()
	return &bridge.Agent{
		Session:   session,
		ExtraArgs: cfg.Agent.Args,
		Timeout:   cfg.Timeouts.Bead,
		WorkDir:   workDir,
	}
}

// checkerAdapter bridges the verifier into the scheduler's Checker shape.
type checkerAdapter struct {
	verifier *verify.Verifier
}

func (c checkerAdapter) Verify(ctx context.Context) (bool, string) {
	report := c.verifier.Run(ctx)
	if report.Passed {
		return true, ""
	}
	return false, report.Summary()
}

// newChecker builds the verifier from the configured check commands. With no
// checks configured, every claimed completion is accepted as-is.
func newChecker(cfg *config.Config) checkerAdapter {
	var checks []verify.Check
	for _, c := range cfg.Checks.List() {
		checks = append(checks, verify.Check{
			Name:    c.Name,
			Command: c.Command,
			Timeout: cfg.Timeouts.Check,
		})
	}
	workDir, _ := os.Getwd()
	return checkerAdapter{verifier: verify.New(exec.NewRunner(), workDir, checks)}
}

func newArtifactCollector() *gitops.Collector {
	workDir, _ := os.Getwd()
	return gitops.NewCollector(exec.NewRunner(), workDir)
}

func openSkills(path string) (*skills.Store, error) {
	return skills.Open(path)
}
