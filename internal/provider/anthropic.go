package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/axonhq/axon/pkg/models"
)

const defaultMaxTokens = 8192

// anthropicClient calls the Anthropic Messages API, directly or via Bedrock.
type anthropicClient struct {
	inner   anthropic.Client
	model   string
	bedrock bool
	name    string
}

// newAnthropicClient builds an SDK client from a resolved provider profile.
func newAnthropicClient(p *models.Provider, credential string) (*anthropicClient, error) {
	var opts []option.RequestOption

	if p.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if p.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(p.AWSRegion))
		}
		if p.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(p.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		if credential == "" {
			return nil, fmt.Errorf("anthropic provider %q has no resolvable credential", p.Name)
		}
		opts = append(opts, option.WithAPIKey(credential))
		if p.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(p.Endpoint))
		}
	}

	model := CleanModelName(p.PrimaryModel(), false)
	if model == "" {
		model = defaultModelFor(models.ProviderAnthropic)
	}
	if p.UseBedrock {
		model = translateModelForBedrock(model)
	}

	return &anthropicClient{
		inner:   anthropic.NewClient(opts...),
		model:   model,
		bedrock: p.UseBedrock,
		name:    p.Name,
	}, nil
}

// translateModelForBedrock converts standard model names to Bedrock
// cross-region inference profiles (us.anthropic.{model}-v1:0).
func translateModelForBedrock(model string) string {
	if strings.HasPrefix(model, "us.anthropic.") {
		return model
	}
	known := map[string]string{
		"claude-sonnet-4-20250514":   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		"claude-sonnet-4-5-20250929": "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		"claude-haiku-4-5-20251001":  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		"claude-opus-4-1-20250805":   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		"claude-opus-4-5-20251101":   "us.anthropic.claude-opus-4-5-20251101-v1:0",
		"claude-3-5-haiku-20241022":  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if b, ok := known[model]; ok {
		return b
	}
	return model
}

func (c *anthropicClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = CleanModelName(req.Model, false)
		if c.bedrock {
			model = translateModelForBedrock(model)
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	return &Response{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      CostUSD(model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}, nil
}

func (c *anthropicClient) Describe() string {
	if c.bedrock {
		return fmt.Sprintf("anthropic/%s (bedrock, %s)", c.model, c.name)
	}
	return fmt.Sprintf("anthropic/%s (%s)", c.model, c.name)
}
