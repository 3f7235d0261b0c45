// Package gitops captures bead artifacts from the working repository:
// the HEAD commit and the files changed while a bead ran.
package gitops

import (
	"context"
	"fmt"
	"strings"

	"github.com/axonhq/axon/internal/exec"
	"github.com/axonhq/axon/pkg/models"
)

// Collector records artifacts produced between two points in repo history.
type Collector struct {
	runner   exec.Runner
	repoPath string
}

// NewCollector creates a Collector for the repository at repoPath.
func NewCollector(runner exec.Runner, repoPath string) *Collector {
	return &Collector{runner: runner, repoPath: repoPath}
}

// Head returns the current HEAD commit hash, or empty if the directory is
// not a git repository.
func (c *Collector) Head(ctx context.Context) string {
	out, err := c.runner.CombinedOutput(ctx, c.repoPath, "git", "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Collect returns the artifacts produced since the given commit: the new
// HEAD and the files changed between the two, plus anything uncommitted.
// A nil result with no error means the repo state could not be read;
// artifacts are best-effort and never fail a bead.
func (c *Collector) Collect(ctx context.Context, sinceCommit string) *models.Artifacts {
	head := c.Head(ctx)
	if head == "" {
		return nil
	}

	files := make(map[string]bool)
	if sinceCommit != "" && sinceCommit != head {
		out, err := c.runner.CombinedOutput(ctx, c.repoPath, "git", "diff", "--name-only", fmt.Sprintf("%s..%s", sinceCommit, head))
		if err == nil {
			addLines(files, string(out))
		}
	}
	// Uncommitted changes count as artifacts too; the agent may not commit.
	out, err := c.runner.CombinedOutput(ctx, c.repoPath, "git", "status", "--porcelain")
	if err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 3 {
				files[strings.TrimSpace(line[2:])] = true
			}
		}
	}

	a := &models.Artifacts{Commit: head}
	for f := range files {
		a.Files = append(a.Files, f)
	}
	return a
}

func addLines(set map[string]bool, out string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = true
		}
	}
}
