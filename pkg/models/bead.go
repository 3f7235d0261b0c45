package models

import "time"

// BeadStatus represents the current state of a bead.
type BeadStatus string

const (
	// BeadStatusPending indicates the bead has not started.
	BeadStatusPending BeadStatus = "pending"
	// BeadStatusRunning indicates the bead is being executed.
	BeadStatusRunning BeadStatus = "running"
	// BeadStatusCompleted indicates the bead finished and was verified.
	BeadStatusCompleted BeadStatus = "completed"
	// BeadStatusFailed indicates execution or verification failed.
	BeadStatusFailed BeadStatus = "failed"
	// BeadStatusPaused indicates the bead is excluded from scheduling.
	BeadStatusPaused BeadStatus = "paused"
)

// Valid returns true if the status is a known value.
func (s BeadStatus) Valid() bool {
	switch s {
	case BeadStatusPending, BeadStatusRunning, BeadStatusCompleted, BeadStatusFailed, BeadStatusPaused:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s BeadStatus) Terminal() bool {
	return s == BeadStatusCompleted || s == BeadStatusFailed
}

// Artifacts records what a completed bead produced.
type Artifacts struct {
	// Files lists paths changed while the bead ran.
	Files []string `json:"files,omitempty"`
	// Commit is the git commit hash recorded after completion.
	Commit string `json:"commit,omitempty"`
}

// Bead represents one atomic, independently verifiable unit of work.
type Bead struct {
	// ID is the unique identifier for this bead within its graph.
	ID string `json:"id"`
	// Title is the short description of the bead.
	Title string `json:"title"`
	// Description provides detailed information about the bead.
	Description string `json:"description,omitempty"`
	// Instruction is the text handed to the coding agent.
	Instruction string `json:"instruction"`
	// Dependencies lists bead IDs that must complete before this bead.
	Dependencies []string `json:"dependencies,omitempty"`
	// Status is the current state of the bead.
	Status BeadStatus `json:"status"`
	// SkillsRequired tags the reference material to fetch for the prompt.
	SkillsRequired []string `json:"skills_required,omitempty"`
	// EstimatedTokens is the planner's token estimate for this bead.
	EstimatedTokens int64 `json:"estimated_tokens,omitempty"`
	// Priority orders beads with equal readiness (higher first is advisory).
	Priority int `json:"priority,omitempty"`
	// Agent selects a backend profile by name, if set.
	Agent string `json:"agent,omitempty"`
	// ParallelGroup is a planner hint that the engine does not consume;
	// execution is strictly sequential. Kept so planner output round-trips.
	ParallelGroup string `json:"parallel_group,omitempty"`
	// Artifacts records produced files and commit, set only on success.
	Artifacts *Artifacts `json:"artifacts,omitempty"`
	// Error contains the last failure reason, set only on failure.
	Error string `json:"error,omitempty"`
}

// GraphMetadata holds aggregate information about a graph.
type GraphMetadata struct {
	// TotalEstimatedTokens sums the planner estimates across all beads.
	TotalEstimatedTokens int64 `json:"total_estimated_tokens"`
	// TotalCostUSD accumulates provider spend across the graph's life.
	TotalCostUSD float64 `json:"total_cost_usd"`
	// CreatedAt is when the graph was first written.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the graph was last persisted.
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphVersion is the persisted file format version.
const GraphVersion = 1

// Graph owns all beads plus aggregate metadata. It is the unit of
// persistence: the file it serializes to is the single source of truth.
type Graph struct {
	Version  int           `json:"version"`
	Beads    []*Bead       `json:"beads"`
	Metadata GraphMetadata `json:"metadata"`
}

// Find returns the bead with the given ID, or nil if absent.
func (g *Graph) Find(id string) *Bead {
	for _, b := range g.Beads {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AddCost accumulates provider spend into the graph metadata.
func (g *Graph) AddCost(usd float64) {
	g.Metadata.TotalCostUSD += usd
}
