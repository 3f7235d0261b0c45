package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/axonhq/axon/internal/provider"
	"github.com/axonhq/axon/pkg/models"
)

// Agent executes one bead against whatever backend the provider session
// resolved. In cli mode the sentinel subprocess protocol applies; in
// direct/fallback mode the prompt goes through the provider client and the
// returned text is scanned for the same sentinels.
type Agent struct {
	// Session supplies the active invocation strategy.
	Session *provider.Session
	// ExtraArgs are appended to the agent CLI invocation in cli mode.
	ExtraArgs []string
	// Timeout bounds each bead invocation.
	Timeout time.Duration
	// WorkDir is where the agent operates.
	WorkDir string
}

// RunResult is the bridge's verdict for one bead.
type RunResult struct {
	// Completed is true when the agent signaled success.
	Completed bool
	// Output is the agent's transcript with sentinels stripped.
	Output string
	// FailureReason explains a non-completed result.
	FailureReason string
	// TimedOut is true when the invocation hit its wall-clock bound.
	TimedOut bool
	// CostUSD is the provider-reported or computed spend for this call.
	CostUSD float64
}

// RunBead invokes the agent for a bead with the given reference material.
func (a *Agent) RunBead(ctx context.Context, bead *models.Bead, skillsContext string) (*RunResult, error) {
	prompt := BuildPrompt(bead, skillsContext)

	if a.Session.Mode() == provider.ModeCLI {
		return a.runSubprocess(ctx, bead, prompt)
	}
	return a.runProvider(ctx, bead, prompt)
}

// runSubprocess speaks the sentinel protocol over the agent CLI with the
// prompt on stdin.
func (a *Agent) runSubprocess(ctx context.Context, bead *models.Bead, prompt string) (*RunResult, error) {
	proc := &Process{
		Path:    a.Session.AgentPath(),
		Args:    a.ExtraArgs,
		Timeout: a.Timeout,
	}
	res, err := proc.Run(ctx, prompt, a.WorkDir)
	if err != nil {
		// Spawn failure. Degrade to the provider session: in cli mode its
		// client is the agent's one-shot print invocation, and a failure
		// there marks cli failed and cascades to direct/fallback.
		return a.runProvider(ctx, bead, prompt)
	}
	return &RunResult{
		Completed:     res.Completed,
		Output:        res.Output,
		FailureReason: res.FailureReason,
		TimedOut:      res.TimedOut,
	}, nil
}

// runProvider sends the prompt through the resolved LLM client and applies
// the sentinel grammar to the response text.
func (a *Agent) runProvider(ctx context.Context, bead *models.Bead, prompt string) (*RunResult, error) {
	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	req := provider.Request{
		Prompt:  prompt,
		Model:   bead.Agent,
		WorkDir: a.WorkDir,
	}
	resp, err := a.Session.Call(callCtx, req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return &RunResult{
				TimedOut:      true,
				FailureReason: fmt.Sprintf("provider call timed out after %s", a.Timeout),
			}, nil
		}
		return nil, err
	}

	if reason, failed := FindFailure(resp.Text); failed {
		return &RunResult{
			Output:        StripSentinels(resp.Text),
			FailureReason: reason,
			CostUSD:       resp.CostUSD,
		}, nil
	}
	return &RunResult{
		Completed: true,
		Output:    StripSentinels(resp.Text),
		CostUSD:   resp.CostUSD,
	}, nil
}
