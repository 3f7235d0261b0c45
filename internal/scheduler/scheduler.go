// Package scheduler drives bead execution: pick the next executable bead,
// run it through the agent bridge, verify the claimed result, and persist
// every status transition before touching the next bead.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/axonhq/axon/internal/bridge"
	"github.com/axonhq/axon/internal/graph"
	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/pkg/models"
)

// AgentRunner executes one bead and reports the agent's claimed outcome.
type AgentRunner interface {
	RunBead(ctx context.Context, bead *models.Bead, skillsContext string) (*bridge.RunResult, error)
}

// Checker independently verifies a claimed completion.
type Checker interface {
	// Verify returns ok=false with a human-readable detail when any check
	// fails.
	Verify(ctx context.Context) (ok bool, detail string)
}

// SkillSource supplies reference material for a bead's required tags.
type SkillSource interface {
	Context(ctx context.Context, tags []string) (string, error)
}

// ArtifactCollector records repository changes attributable to a bead.
type ArtifactCollector interface {
	Head(ctx context.Context) string
	Collect(ctx context.Context, sinceCommit string) *models.Artifacts
}

// Event is a progress notification for display layers.
type Event struct {
	BeadID string
	Phase  string // started, verifying, completed, failed
	Detail string
}

// Engine executes beads sequentially against a persisted graph.
type Engine struct {
	store     *store.Store
	agent     AgentRunner
	checker   Checker
	skills    SkillSource
	artifacts ArtifactCollector

	// OnEvent, when set, receives progress notifications.
	OnEvent func(Event)
}

// New assembles an engine. skills and artifacts may be nil; those
// collaborators are advisory.
func New(st *store.Store, agent AgentRunner, checker Checker, skills SkillSource, artifacts ArtifactCollector) *Engine {
	return &Engine{store: st, agent: agent, checker: checker, skills: skills, artifacts: artifacts}
}

// ErrNothingToDo indicates every bead is already terminal or paused.
var ErrNothingToDo = errors.New("no pending beads")

// BlockedError reports that pending beads exist but none can run.
type BlockedError struct {
	Blocked []graph.BlockedBead
}

func (e *BlockedError) Error() string {
	lines := make([]string, 0, len(e.Blocked)+1)
	lines = append(lines, "no executable beads; blocked:")
	for _, b := range e.Blocked {
		lines = append(lines, "  "+b.String())
	}
	return strings.Join(lines, "\n")
}

// BeadFailedError reports that a bead's execution or verification failed.
type BeadFailedError struct {
	BeadID string
	Reason string
}

func (e *BeadFailedError) Error() string {
	return fmt.Sprintf("bead %s failed: %s", e.BeadID, e.Reason)
}

// ExecuteNext loads the graph, validates it, and runs the first executable
// bead. Returns the bead that ran, ErrNothingToDo when the graph is
// exhausted, or a BlockedError when pending beads exist but cannot run.
func (e *Engine) ExecuteNext(ctx context.Context) (*models.Bead, error) {
	g, err := e.loadValidated()
	if err != nil {
		return nil, err
	}

	bead := graph.NextExecutable(g)
	if bead == nil {
		if graph.HasPending(g) {
			return nil, &BlockedError{Blocked: graph.Blocked(g)}
		}
		return nil, ErrNothingToDo
	}

	if err := e.executeBead(ctx, g, bead); err != nil {
		return bead, err
	}
	return bead, nil
}

// ExecuteByID runs one specific bead regardless of stored order. The bead
// must be pending with all dependencies completed.
func (e *Engine) ExecuteByID(ctx context.Context, id string) (*models.Bead, error) {
	return e.executeSpecific(ctx, id, false)
}

// RetryByID resets a failed bead to pending and executes it. The reset is
// persisted before execution so an interrupted retry recovers like any
// other run. Pending beads execute as with ExecuteByID.
func (e *Engine) RetryByID(ctx context.Context, id string) (*models.Bead, error) {
	return e.executeSpecific(ctx, id, true)
}

func (e *Engine) executeSpecific(ctx context.Context, id string, retry bool) (*models.Bead, error) {
	g, err := e.loadValidated()
	if err != nil {
		return nil, err
	}

	bead := g.Find(id)
	if bead == nil {
		return nil, fmt.Errorf("bead %q not found", id)
	}
	if retry && bead.Status == models.BeadStatusFailed {
		bead.Status = models.BeadStatusPending
		bead.Error = ""
		if err := e.store.Save(g); err != nil {
			return nil, fmt.Errorf("persist retry reset: %w", err)
		}
	}
	if bead.Status != models.BeadStatusPending {
		return nil, fmt.Errorf("bead %q is %s, not pending", id, bead.Status)
	}
	for _, depID := range bead.Dependencies {
		dep := g.Find(depID)
		if dep == nil || dep.Status != models.BeadStatusCompleted {
			status := "missing"
			if dep != nil {
				status = string(dep.Status)
			}
			return nil, fmt.Errorf("bead %q has unmet dependency %s(%s)", id, depID, status)
		}
	}

	if err := e.executeBead(ctx, g, bead); err != nil {
		return bead, err
	}
	return bead, nil
}

// ExecuteAll runs beads until the graph is exhausted, a bead fails, or no
// progress is possible. A single failure halts the batch; dependents of the
// failed bead surface in the returned BlockedError on the next run.
func (e *Engine) ExecuteAll(ctx context.Context) (int, error) {
	g, err := e.loadValidated()
	if err != nil {
		return 0, err
	}

	// Each iteration either completes or fails a bead, so the loop is
	// bounded by the bead count; the doubled budget guards against a
	// mutation bug looping forever.
	budget := 2 * len(g.Beads)
	executed := 0

	for i := 0; i < budget; i++ {
		bead := graph.NextExecutable(g)
		if bead == nil {
			if graph.HasPending(g) {
				return executed, &BlockedError{Blocked: graph.Blocked(g)}
			}
			return executed, nil
		}

		if err := e.executeBead(ctx, g, bead); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, fmt.Errorf("execution loop exceeded budget of %d iterations", budget)
}

// loadValidated loads the graph and refuses to run on a structurally invalid
// one. Defects are reported, never repaired.
func (e *Engine) loadValidated() (*models.Graph, error) {
	g, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	if res := graph.Validate(g); !res.Valid {
		lines := make([]string, 0, len(res.Errors))
		for _, ve := range res.Errors {
			lines = append(lines, "  "+ve.Message)
		}
		return nil, fmt.Errorf("graph validation failed:\n%s", strings.Join(lines, "\n"))
	}
	return g, nil
}

// executeBead runs the full lifecycle for one bead. The running status is on
// disk before the agent starts, and the terminal status is on disk before
// this returns.
func (e *Engine) executeBead(ctx context.Context, g *models.Graph, bead *models.Bead) error {
	e.emit(Event{BeadID: bead.ID, Phase: "started", Detail: bead.Title})

	bead.Status = models.BeadStatusRunning
	bead.Error = ""
	if err := e.store.Save(g); err != nil {
		return fmt.Errorf("persist running status: %w", err)
	}

	var baseline string
	if e.artifacts != nil {
		baseline = e.artifacts.Head(ctx)
	}

	skillsContext := ""
	if e.skills != nil && len(bead.SkillsRequired) > 0 {
		sc, err := e.skills.Context(ctx, bead.SkillsRequired)
		if err == nil {
			skillsContext = sc
		}
	}

	res, err := e.agent.RunBead(ctx, bead, skillsContext)
	if err != nil {
		return e.fail(g, bead, fmt.Sprintf("agent invocation error: %v", err))
	}

	switch {
	case res.TimedOut:
		return e.fail(g, bead, res.FailureReason)
	case !res.Completed:
		reason := res.FailureReason
		if reason == "" {
			reason = "agent did not signal completion"
		}
		return e.fail(g, bead, reason)
	}

	// The agent claims success; verify before trusting it.
	e.emit(Event{BeadID: bead.ID, Phase: "verifying"})
	if e.checker != nil {
		if ok, detail := e.checker.Verify(ctx); !ok {
			return e.fail(g, bead, "verification failed: "+detail)
		}
	}

	bead.Status = models.BeadStatusCompleted
	if e.artifacts != nil {
		if a := e.artifacts.Collect(ctx, baseline); a != nil {
			bead.Artifacts = a
		}
	}
	g.AddCost(res.CostUSD)
	if err := e.store.Save(g); err != nil {
		return fmt.Errorf("persist completed status: %w", err)
	}
	e.emit(Event{BeadID: bead.ID, Phase: "completed"})
	return nil
}

// fail records a terminal failure for the bead and persists it.
func (e *Engine) fail(g *models.Graph, bead *models.Bead, reason string) error {
	bead.Status = models.BeadStatusFailed
	bead.Error = reason
	if err := e.store.Save(g); err != nil {
		return fmt.Errorf("persist failed status: %w", err)
	}
	e.emit(Event{BeadID: bead.ID, Phase: "failed", Detail: reason})
	return &BeadFailedError{BeadID: bead.ID, Reason: reason}
}

func (e *Engine) emit(ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}
