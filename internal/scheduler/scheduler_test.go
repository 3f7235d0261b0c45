package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/axonhq/axon/internal/bridge"
	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/pkg/models"
)

// fakeAgent returns scripted results per bead ID.
type fakeAgent struct {
	results map[string]*bridge.RunResult
	errs    map[string]error
	ran     []string
	prompts map[string]string
}

func (f *fakeAgent) RunBead(ctx context.Context, bead *models.Bead, skillsContext string) (*bridge.RunResult, error) {
	f.ran = append(f.ran, bead.ID)
	if f.prompts == nil {
		f.prompts = make(map[string]string)
	}
	f.prompts[bead.ID] = skillsContext
	if err := f.errs[bead.ID]; err != nil {
		return nil, err
	}
	if r, ok := f.results[bead.ID]; ok {
		return r, nil
	}
	return &bridge.RunResult{Completed: true}, nil
}

// fakeChecker always returns a fixed verdict.
type fakeChecker struct {
	ok     bool
	detail string
	calls  int
}

func (f *fakeChecker) Verify(ctx context.Context) (bool, string) {
	f.calls++
	return f.ok, f.detail
}

func newTestStore(t *testing.T, g *models.Graph) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "graph.json"))
	if err := st.Save(g); err != nil {
		t.Fatalf("seed graph: %v", err)
	}
	return st
}

func twoBeadChain() *models.Graph {
	return &models.Graph{
		Beads: []*models.Bead{
			{ID: "a", Title: "first", Instruction: "do a", Status: models.BeadStatusPending},
			{ID: "b", Title: "second", Instruction: "do b", Dependencies: []string{"a"}, Status: models.BeadStatusPending},
		},
	}
}

func TestExecuteNextRunsFirstReadyBead(t *testing.T) {
	st := newTestStore(t, twoBeadChain())
	agent := &fakeAgent{}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	bead, err := eng.ExecuteNext(context.Background())
	if err != nil {
		t.Fatalf("execute next: %v", err)
	}
	if bead.ID != "a" {
		t.Fatalf("expected bead a, ran %s", bead.ID)
	}

	g, err := st.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if g.Find("a").Status != models.BeadStatusCompleted {
		t.Errorf("bead a not persisted as completed: %s", g.Find("a").Status)
	}
	if g.Find("b").Status != models.BeadStatusPending {
		t.Errorf("bead b should remain pending: %s", g.Find("b").Status)
	}

	// Second call unlocks b.
	bead, err = eng.ExecuteNext(context.Background())
	if err != nil {
		t.Fatalf("execute next: %v", err)
	}
	if bead.ID != "b" {
		t.Fatalf("expected bead b, ran %s", bead.ID)
	}

	// Third call: nothing left.
	if _, err := eng.ExecuteNext(context.Background()); !errors.Is(err, ErrNothingToDo) {
		t.Fatalf("expected ErrNothingToDo, got %v", err)
	}
}

func TestFailedDependencyBlocksDependent(t *testing.T) {
	st := newTestStore(t, twoBeadChain())
	agent := &fakeAgent{results: map[string]*bridge.RunResult{
		"a": {FailureReason: "could not compile"},
	}}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	_, err := eng.ExecuteNext(context.Background())
	var failed *BeadFailedError
	if !errors.As(err, &failed) || failed.BeadID != "a" {
		t.Fatalf("expected bead a failure, got %v", err)
	}

	// b is now permanently blocked; the report must name the failed root.
	_, err = eng.ExecuteNext(context.Background())
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if !strings.Contains(blocked.Error(), "a(failed)") {
		t.Errorf("blocked report must show failed dependency status: %s", blocked.Error())
	}

	g, _ := st.Load()
	if got := g.Find("a").Error; got != "could not compile" {
		t.Errorf("failure reason not persisted: %q", got)
	}
}

func TestVerificationFailureOverridesAgentClaim(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusPending},
	}})
	checker := &fakeChecker{ok: false, detail: "tests: failed"}
	eng := New(st, &fakeAgent{}, checker, nil, nil)

	_, err := eng.ExecuteNext(context.Background())
	var failed *BeadFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected BeadFailedError, got %v", err)
	}
	if !strings.Contains(failed.Reason, "tests: failed") {
		t.Errorf("verification detail missing from reason: %s", failed.Reason)
	}

	g, _ := st.Load()
	if g.Find("a").Status != models.BeadStatusFailed {
		t.Errorf("agent claim trusted despite failing checks: %s", g.Find("a").Status)
	}
	if checker.calls != 1 {
		t.Errorf("checker called %d times, want 1", checker.calls)
	}
}

func TestVerifierSkippedWhenAgentReportsFailure(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusPending},
	}})
	checker := &fakeChecker{ok: true}
	agent := &fakeAgent{results: map[string]*bridge.RunResult{
		"a": {FailureReason: "gave up"},
	}}
	eng := New(st, agent, checker, nil, nil)

	eng.ExecuteNext(context.Background())
	if checker.calls != 0 {
		t.Errorf("verifier must not run for a failed bead, ran %d times", checker.calls)
	}
}

func TestExecuteAllCompletesChainInOrder(t *testing.T) {
	g := &models.Graph{Beads: []*models.Bead{
		{ID: "c", Title: "t", Instruction: "i", Dependencies: []string{"b"}, Status: models.BeadStatusPending},
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusPending},
		{ID: "b", Title: "t", Instruction: "i", Dependencies: []string{"a"}, Status: models.BeadStatusPending},
	}}
	st := newTestStore(t, g)
	agent := &fakeAgent{}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	n, err := eng.ExecuteAll(context.Background())
	if err != nil {
		t.Fatalf("execute all: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 beads executed, got %d", n)
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if agent.ran[i] != id {
			t.Fatalf("execution order %v, want %v", agent.ran, want)
		}
	}
}

func TestExecuteAllHaltsOnFirstFailure(t *testing.T) {
	st := newTestStore(t, twoBeadChain())
	agent := &fakeAgent{errs: map[string]error{"a": errors.New("provider unreachable")}}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	n, err := eng.ExecuteAll(context.Background())
	if n != 0 {
		t.Errorf("expected 0 successful beads, got %d", n)
	}
	var failed *BeadFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected BeadFailedError, got %v", err)
	}
	if len(agent.ran) != 1 {
		t.Errorf("batch must halt after the failure, ran %v", agent.ran)
	}
}

func TestExecuteByID(t *testing.T) {
	st := newTestStore(t, twoBeadChain())
	eng := New(st, &fakeAgent{}, &fakeChecker{ok: true}, nil, nil)
	ctx := context.Background()

	if _, err := eng.ExecuteByID(ctx, "missing"); err == nil {
		t.Error("unknown bead must error")
	}
	if _, err := eng.ExecuteByID(ctx, "b"); err == nil || !strings.Contains(err.Error(), "a(pending)") {
		t.Errorf("unmet dependency must be named, got %v", err)
	}
	if _, err := eng.ExecuteByID(ctx, "a"); err != nil {
		t.Fatalf("execute a: %v", err)
	}
	if _, err := eng.ExecuteByID(ctx, "a"); err == nil {
		t.Error("re-running a completed bead must error")
	}
	if _, err := eng.ExecuteByID(ctx, "b"); err != nil {
		t.Fatalf("execute b after a: %v", err)
	}
}

func TestRetryByIDResetsFailedBead(t *testing.T) {
	st := newTestStore(t, twoBeadChain())
	agent := &fakeAgent{results: map[string]*bridge.RunResult{
		"a": {FailureReason: "flaky tool"},
	}}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)
	ctx := context.Background()

	eng.ExecuteNext(ctx)
	g, _ := st.Load()
	if g.Find("a").Status != models.BeadStatusFailed {
		t.Fatalf("setup: bead a should be failed, got %s", g.Find("a").Status)
	}

	// A plain ExecuteByID refuses a failed bead.
	if _, err := eng.ExecuteByID(ctx, "a"); err == nil {
		t.Error("ExecuteByID must not run a failed bead")
	}

	// Root cause fixed: the agent now succeeds on retry.
	delete(agent.results, "a")
	bead, err := eng.RetryByID(ctx, "a")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if bead.ID != "a" {
		t.Fatalf("retried bead %s, want a", bead.ID)
	}

	g, _ = st.Load()
	if g.Find("a").Status != models.BeadStatusCompleted {
		t.Errorf("retried bead not completed: %s", g.Find("a").Status)
	}
	if g.Find("a").Error != "" {
		t.Errorf("stale failure reason survived retry: %q", g.Find("a").Error)
	}

	// The dependent is unblocked again.
	if _, err := eng.ExecuteNext(ctx); err != nil {
		t.Fatalf("dependent should run after retry: %v", err)
	}
}

func TestRetryByIDRejectsCompletedBead(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusCompleted},
	}})
	eng := New(st, &fakeAgent{}, &fakeChecker{ok: true}, nil, nil)

	if _, err := eng.RetryByID(context.Background(), "a"); err == nil {
		t.Error("retry must not rerun a completed bead")
	}
}

func TestInvalidGraphRefusesExecution(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Dependencies: []string{"ghost"}, Status: models.BeadStatusPending},
	}})
	agent := &fakeAgent{}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	_, err := eng.ExecuteNext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation refusal, got %v", err)
	}
	if len(agent.ran) != 0 {
		t.Error("no bead may run on an invalid graph")
	}
}

// staticSkills returns a fixed context string.
type staticSkills struct{ out string }

func (s staticSkills) Context(ctx context.Context, tags []string) (string, error) {
	return s.out, nil
}

func TestSkillsContextReachesAgent(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", SkillsRequired: []string{"go"}, Status: models.BeadStatusPending},
	}})
	agent := &fakeAgent{}
	eng := New(st, agent, &fakeChecker{ok: true}, staticSkills{out: "use table tests"}, nil)

	if _, err := eng.ExecuteNext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if agent.prompts["a"] != "use table tests" {
		t.Errorf("skills context not passed to agent: %q", agent.prompts["a"])
	}
}

// fakeArtifacts records a canned artifact set.
type fakeArtifacts struct{ artifacts *models.Artifacts }

func (f fakeArtifacts) Head(ctx context.Context) string { return "abc123" }
func (f fakeArtifacts) Collect(ctx context.Context, sinceCommit string) *models.Artifacts {
	return f.artifacts
}

func TestArtifactsAndCostRecordedOnSuccess(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusPending},
	}})
	agent := &fakeAgent{results: map[string]*bridge.RunResult{
		"a": {Completed: true, CostUSD: 0.42},
	}}
	arts := fakeArtifacts{artifacts: &models.Artifacts{Commit: "def456", Files: []string{"main.go"}}}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, arts)

	if _, err := eng.ExecuteNext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	g, _ := st.Load()
	a := g.Find("a")
	if a.Artifacts == nil || a.Artifacts.Commit != "def456" {
		t.Errorf("artifacts not recorded: %+v", a.Artifacts)
	}
	if g.Metadata.TotalCostUSD != 0.42 {
		t.Errorf("cost not accumulated: %f", g.Metadata.TotalCostUSD)
	}
}

func TestRunningStatusPersistedBeforeAgentStarts(t *testing.T) {
	st := newTestStore(t, &models.Graph{Beads: []*models.Bead{
		{ID: "a", Title: "t", Instruction: "i", Status: models.BeadStatusPending},
	}})

	observed := make(chan models.BeadStatus, 1)
	agent := &checkingAgent{path: st.Path(), observed: observed}
	eng := New(st, agent, &fakeChecker{ok: true}, nil, nil)

	if _, err := eng.ExecuteNext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := <-observed; got != models.BeadStatusRunning {
		t.Errorf("on-disk status during execution = %s, want running", got)
	}
}

// checkingAgent reads the graph file mid-execution to observe the persisted
// status. Raw read, not Store.Load, so crash recovery does not kick in.
type checkingAgent struct {
	path     string
	observed chan models.BeadStatus
}

func (c *checkingAgent) RunBead(ctx context.Context, bead *models.Bead, skillsContext string) (*bridge.RunResult, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var g models.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	c.observed <- g.Find(bead.ID).Status
	return &bridge.RunResult{Completed: true}, nil
}
