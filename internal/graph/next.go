package graph

import (
	"fmt"
	"strings"

	"github.com/axonhq/axon/pkg/models"
)

// NextExecutable scans beads in their stored order and returns the first
// whose status is pending and whose every dependency resolves to a completed
// bead. Returns nil if no such bead exists; use HasPending to distinguish
// "all done" from "blocked".
func NextExecutable(g *models.Graph) *models.Bead {
	for _, b := range g.Beads {
		if b.Status != models.BeadStatusPending {
			continue
		}
		if depsCompleted(g, b) {
			return b
		}
	}
	return nil
}

// HasPending returns true if any bead is still pending.
func HasPending(g *models.Graph) bool {
	for _, b := range g.Beads {
		if b.Status == models.BeadStatusPending {
			return true
		}
	}
	return false
}

func depsCompleted(g *models.Graph, b *models.Bead) bool {
	for _, depID := range b.Dependencies {
		dep := g.Find(depID)
		if dep == nil || dep.Status != models.BeadStatusCompleted {
			return false
		}
	}
	return true
}

// BlockedBead describes a pending bead that cannot run and why.
type BlockedBead struct {
	// Bead is the blocked bead.
	Bead *models.Bead
	// UnmetDependencies lists each unmet dependency as "id(status)";
	// unknown references appear as "id(missing)".
	UnmetDependencies []string
	// FailedRoots lists the failed dependencies, the likely root cause.
	FailedRoots []string
}

// String renders a one-line diagnosis for the blocked bead.
func (b BlockedBead) String() string {
	return fmt.Sprintf("%s blocked by %s", b.Bead.ID, strings.Join(b.UnmetDependencies, ", "))
}

// Blocked reports every pending bead with at least one unmet dependency.
// Used by the scheduler to explain why a batch stopped making progress.
func Blocked(g *models.Graph) []BlockedBead {
	var blocked []BlockedBead
	for _, b := range g.Beads {
		if b.Status != models.BeadStatusPending {
			continue
		}
		var unmet, failed []string
		for _, depID := range b.Dependencies {
			dep := g.Find(depID)
			if dep == nil {
				unmet = append(unmet, depID+"(missing)")
				continue
			}
			if dep.Status != models.BeadStatusCompleted {
				unmet = append(unmet, fmt.Sprintf("%s(%s)", dep.ID, dep.Status))
				if dep.Status == models.BeadStatusFailed {
					failed = append(failed, dep.ID)
				}
			}
		}
		if len(unmet) > 0 {
			blocked = append(blocked, BlockedBead{Bead: b, UnmetDependencies: unmet, FailedRoots: failed})
		}
	}
	return blocked
}

// Stats summarizes graph progress by status.
type Stats struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Paused    int
	// PercentComplete is completed beads over total, 0-100.
	PercentComplete float64
}

// ComputeStats counts beads by status and derives percent complete.
func ComputeStats(g *models.Graph) Stats {
	var s Stats
	s.Total = len(g.Beads)
	for _, b := range g.Beads {
		switch b.Status {
		case models.BeadStatusPending:
			s.Pending++
		case models.BeadStatusRunning:
			s.Running++
		case models.BeadStatusCompleted:
			s.Completed++
		case models.BeadStatusFailed:
			s.Failed++
		case models.BeadStatusPaused:
			s.Paused++
		}
	}
	if s.Total > 0 {
		s.PercentComplete = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}
