// Package graph implements the in-memory dependency graph over beads:
// structural validation, next-executable selection, and progress stats.
package graph

import (
	"errors"
	"fmt"

	"github.com/axonhq/axon/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrorKind classifies a structural validation failure.
type ErrorKind string

const (
	// KindDuplicateID means two beads share the same ID.
	KindDuplicateID ErrorKind = "duplicate_id"
	// KindDanglingDependency means a dependency references an absent bead.
	KindDanglingDependency ErrorKind = "dangling_dependency"
	// KindCycle means the dependency relation contains a cycle.
	KindCycle ErrorKind = "cycle"
)

// ValidationError describes one structural defect in a graph.
type ValidationError struct {
	// Kind classifies the defect.
	Kind ErrorKind
	// BeadID is the offending bead, when applicable.
	BeadID string
	// DependencyID is the missing dependency for dangling references.
	DependencyID string
	// Message is the human-readable description.
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult is the outcome of validating a graph.
type ValidationResult struct {
	// Valid is true when no defects were found.
	Valid bool
	// Errors lists every defect found, in check order.
	Errors []ValidationError
}

// Validate checks a graph for duplicate IDs, dangling dependencies, and
// cycles, in that order. Validation is advisory: it is not enforced at
// mutation time, and the scheduler calls it to explain why nothing is
// runnable.
func Validate(g *models.Graph) ValidationResult {
	var result ValidationResult

	seen := make(map[string]bool, len(g.Beads))
	for _, b := range g.Beads {
		if seen[b.ID] {
			result.Errors = append(result.Errors, ValidationError{
				Kind:    KindDuplicateID,
				BeadID:  b.ID,
				Message: fmt.Sprintf("duplicate bead ID %q", b.ID),
			})
			continue
		}
		seen[b.ID] = true
	}

	for _, b := range g.Beads {
		for _, depID := range b.Dependencies {
			if !seen[depID] {
				result.Errors = append(result.Errors, ValidationError{
					Kind:         KindDanglingDependency,
					BeadID:       b.ID,
					DependencyID: depID,
					Message:      fmt.Sprintf("bead %q depends on unknown bead %q", b.ID, depID),
				})
			}
		}
	}

	if hasCycle(g) {
		result.Errors = append(result.Errors, ValidationError{
			Kind:    KindCycle,
			Message: ErrCycleDetected.Error(),
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// hasCycle returns true if the dependency relation contains a cycle.
// Depth-first search with coloring; a back edge into a gray node is a cycle.
// Dangling edges are skipped here; they are reported separately.
func hasCycle(g *models.Graph) bool {
	// Color states: 0 = white (unvisited), 1 = gray (on stack), 2 = black (done).
	colors := make(map[string]int, len(g.Beads))
	edges := make(map[string][]string, len(g.Beads))
	for _, b := range g.Beads {
		if _, dup := edges[b.ID]; !dup {
			edges[b.ID] = b.Dependencies
		}
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1

		for _, depID := range edges[id] {
			if _, exists := edges[depID]; !exists {
				continue
			}
			switch colors[depID] {
			case 1:
				// Back edge into a node still on the stack.
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}

		colors[id] = 2
		return false
	}

	for id := range edges {
		if colors[id] == 0 {
			if visit(id) {
				return true
			}
		}
	}

	return false
}
