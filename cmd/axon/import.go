package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/axonhq/axon/internal/graph"
	"github.com/axonhq/axon/internal/store"
	"github.com/axonhq/axon/pkg/models"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import <plan-file>",
	Short: "Import a planner-produced bead list into a new graph",
	Long: `Import beads from a planner output file (YAML or JSON) and write
the graph file.

Beads without an ID get a generated one. All beads start pending. The graph
is validated before writing; a plan with structural defects is rejected.

Plan file shape:
  beads:
    - id: setup
      title: Project scaffolding
      instruction: ...
    - title: HTTP endpoints
      dependencies: [setup]
      instruction: ...`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Overwrite an existing graph file")
}

// plannerBead is the file shape for one bead; looser than the graph model so
// planner output stays simple.
type plannerBead struct {
	ID              string   `yaml:"id" json:"id"`
	Title           string   `yaml:"title" json:"title"`
	Description     string   `yaml:"description" json:"description"`
	Instruction     string   `yaml:"instruction" json:"instruction"`
	Dependencies    []string `yaml:"dependencies" json:"dependencies"`
	SkillsRequired  []string `yaml:"skills_required" json:"skills_required"`
	EstimatedTokens int64    `yaml:"estimated_tokens" json:"estimated_tokens"`
	Priority        int      `yaml:"priority" json:"priority"`
	Agent           string   `yaml:"agent" json:"agent"`
	ParallelGroup   string   `yaml:"parallel_group" json:"parallel_group"`
}

type plannerFile struct {
	Beads []plannerBead `yaml:"beads" json:"beads"`
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(cfg.Paths.Graph)
	if st.Exists() && !importForce {
		return fmt.Errorf("graph already exists at %s (use --force to overwrite)", cfg.Paths.Graph)
	}

	plan, err := readPlan(args[0])
	if err != nil {
		return err
	}
	if len(plan.Beads) == 0 {
		return fmt.Errorf("plan file %s contains no beads", args[0])
	}

	g := &models.Graph{Version: models.GraphVersion}
	for _, pb := range plan.Beads {
		if pb.Instruction == "" {
			return fmt.Errorf("bead %q has no instruction", firstNonEmpty(pb.ID, pb.Title))
		}
		id := pb.ID
		if id == "" {
			id = "bead-" + uuid.New().String()[:8]
		}
		g.Beads = append(g.Beads, &models.Bead{
			ID:              id,
			Title:           pb.Title,
			Description:     pb.Description,
			Instruction:     pb.Instruction,
			Dependencies:    pb.Dependencies,
			Status:          models.BeadStatusPending,
			SkillsRequired:  pb.SkillsRequired,
			EstimatedTokens: pb.EstimatedTokens,
			Priority:        pb.Priority,
			Agent:           pb.Agent,
			ParallelGroup:   pb.ParallelGroup,
		})
		g.Metadata.TotalEstimatedTokens += pb.EstimatedTokens
	}

	if result := graph.Validate(g); !result.Valid {
		color.New(color.FgRed).Printf("plan has %d structural problem(s):\n", len(result.Errors))
		for _, ve := range result.Errors {
			fmt.Printf("  %s\n", ve.Message)
		}
		return fmt.Errorf("refusing to import an invalid plan")
	}

	if err := st.Save(g); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("✓ imported %d bead(s) into %s\n", len(g.Beads), cfg.Paths.Graph)
	return nil
}

// readPlan parses a plan file as YAML or JSON depending on extension, with a
// YAML fallback since JSON is a YAML subset.
func readPlan(path string) (*plannerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	var plan plannerFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parse plan file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parse plan file %s: %w", path, err)
		}
	}
	return &plan, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "(unnamed)"
}
