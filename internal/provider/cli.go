package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"
)

// cliClient invokes the external coding-agent executable in one-shot print
// mode and parses its JSON result envelope. This is the richest backend: the
// agent runs with its own tool access in the working directory.
type cliClient struct {
	path string
}

func newCLIClient(path string) *cliClient {
	return &cliClient{path: path}
}

func (c *cliClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	args := []string{"-p", req.Prompt, "--output-format", "json"}
	if req.System != "" {
		args = append(args, "--system-prompt", req.System)
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	}
	cmd.Env = scrubAgentEnv(os.Environ())

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("agent CLI failed: %w\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("agent CLI produced malformed JSON: %s", truncate(out, 500))
	}
	parsed := gjson.Parse(out)
	if parsed.Get("is_error").Bool() {
		return nil, fmt.Errorf("agent CLI returned error: %s", parsed.Get("result").String())
	}

	return &Response{
		Text:         parsed.Get("result").String(),
		InputTokens:  parsed.Get("usage.input_tokens").Int(),
		OutputTokens: parsed.Get("usage.output_tokens").Int(),
		CostUSD:      parsed.Get("total_cost_usd").Float(),
	}, nil
}

func (c *cliClient) Describe() string {
	return "cli:" + c.path
}

// scrubAgentEnv removes the agent's own nesting guard so the orchestrator
// can run inside an agent session.
func scrubAgentEnv(base []string) []string {
	env := make([]string, 0, len(base))
	for _, e := range base {
		if strings.HasPrefix(e, "CLAUDECODE=") {
			continue
		}
		env = append(env, e)
	}
	return env
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
