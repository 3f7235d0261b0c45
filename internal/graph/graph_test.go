package graph

import (
	"testing"

	"github.com/axonhq/axon/pkg/models"
)

func pendingBead(id string, deps ...string) *models.Bead {
	return &models.Bead{ID: id, Title: id, Status: models.BeadStatusPending, Dependencies: deps}
}

func graphOf(beads ...*models.Bead) *models.Graph {
	return &models.Graph{Version: models.GraphVersion, Beads: beads}
}

func TestValidateCleanGraph(t *testing.T) {
	g := graphOf(
		pendingBead("a"),
		pendingBead("b", "a"),
		pendingBead("c", "a", "b"),
	)

	result := Validate(g)
	if !result.Valid {
		t.Fatalf("expected valid graph, got errors: %v", result.Errors)
	}
}

func TestValidateDuplicateID(t *testing.T) {
	g := graphOf(
		pendingBead("a"),
		pendingBead("a"),
	)

	result := Validate(g)
	if result.Valid {
		t.Fatal("expected invalid graph")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Kind != KindDuplicateID {
		t.Errorf("expected duplicate_id, got %s", result.Errors[0].Kind)
	}
	if result.Errors[0].BeadID != "a" {
		t.Errorf("expected bead a reported, got %q", result.Errors[0].BeadID)
	}
}

func TestValidateDanglingDependency(t *testing.T) {
	g := graphOf(
		pendingBead("a", "ghost"),
	)

	result := Validate(g)
	if result.Valid {
		t.Fatal("expected invalid graph")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	e := result.Errors[0]
	if e.Kind != KindDanglingDependency {
		t.Errorf("expected dangling_dependency, got %s", e.Kind)
	}
	if e.BeadID != "a" || e.DependencyID != "ghost" {
		t.Errorf("expected a -> ghost reported, got %q -> %q", e.BeadID, e.DependencyID)
	}
}

func TestValidateCycle(t *testing.T) {
	g := graphOf(
		pendingBead("a", "c"),
		pendingBead("b", "a"),
		pendingBead("c", "b"),
	)

	result := Validate(g)
	if result.Valid {
		t.Fatal("expected invalid graph")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Kind != KindCycle {
		t.Errorf("expected cycle, got %s", result.Errors[0].Kind)
	}
	if result.Errors[0].Message != "circular dependency detected" {
		t.Errorf("unexpected cycle message: %q", result.Errors[0].Message)
	}
}

func TestValidateSelfDependency(t *testing.T) {
	g := graphOf(pendingBead("a", "a"))

	result := Validate(g)
	if result.Valid {
		t.Fatal("expected self-dependency to be invalid")
	}
	if result.Errors[0].Kind != KindCycle {
		t.Errorf("expected cycle, got %s", result.Errors[0].Kind)
	}
}

func TestNextExecutableRespectsDependencies(t *testing.T) {
	g := graphOf(
		pendingBead("b", "a"),
		pendingBead("a"),
	)

	next := NextExecutable(g)
	if next == nil || next.ID != "a" {
		t.Fatalf("expected a first, got %v", next)
	}
}

func TestNextExecutableExhaustsInTopologicalOrder(t *testing.T) {
	g := graphOf(
		pendingBead("d", "b", "c"),
		pendingBead("b", "a"),
		pendingBead("c", "a"),
		pendingBead("a"),
	)

	completed := make(map[string]bool)
	var order []string
	for {
		next := NextExecutable(g)
		if next == nil {
			break
		}
		// No bead may run before all of its dependencies completed.
		for _, dep := range next.Dependencies {
			if !completed[dep] {
				t.Fatalf("bead %s returned before dependency %s completed", next.ID, dep)
			}
		}
		next.Status = models.BeadStatusCompleted
		completed[next.ID] = true
		order = append(order, next.ID)
	}

	if len(order) != 4 {
		t.Fatalf("expected all 4 beads executed, got %v", order)
	}
	if HasPending(g) {
		t.Error("expected no pending beads after exhaustion")
	}
}

func TestNextExecutableNilWhenBlocked(t *testing.T) {
	g := graphOf(
		pendingBead("b", "a"),
	)
	g.Beads = append(g.Beads, &models.Bead{ID: "a", Status: models.BeadStatusFailed})

	if next := NextExecutable(g); next != nil {
		t.Fatalf("expected no executable bead, got %s", next.ID)
	}
	if !HasPending(g) {
		t.Error("expected pending beads to remain")
	}
}

func TestBlockedReportsUnmetAndFailedRoots(t *testing.T) {
	g := graphOf(
		pendingBead("b", "a"),
	)
	g.Beads = append(g.Beads, &models.Bead{ID: "a", Status: models.BeadStatusFailed})

	blocked := Blocked(g)
	if len(blocked) != 1 {
		t.Fatalf("expected 1 blocked bead, got %d", len(blocked))
	}
	b := blocked[0]
	if b.Bead.ID != "b" {
		t.Errorf("expected b blocked, got %s", b.Bead.ID)
	}
	if len(b.UnmetDependencies) != 1 || b.UnmetDependencies[0] != "a(failed)" {
		t.Errorf("expected unmet dependency a(failed), got %v", b.UnmetDependencies)
	}
	if len(b.FailedRoots) != 1 || b.FailedRoots[0] != "a" {
		t.Errorf("expected failed root a, got %v", b.FailedRoots)
	}
}

func TestComputeStats(t *testing.T) {
	g := graphOf(
		pendingBead("a"),
		&models.Bead{ID: "b", Status: models.BeadStatusCompleted},
		&models.Bead{ID: "c", Status: models.BeadStatusCompleted},
		&models.Bead{ID: "d", Status: models.BeadStatusFailed},
	)

	s := ComputeStats(g)
	if s.Total != 4 || s.Pending != 1 || s.Completed != 2 || s.Failed != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.PercentComplete != 50 {
		t.Errorf("expected 50%% complete, got %f", s.PercentComplete)
	}
}
