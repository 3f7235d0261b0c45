package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/axonhq/axon/pkg/models"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// openAIClient speaks the chat-completions wire shape. It serves the openai
// and google provider types (bare model names) and the proxy type (full
// prefixed model names forwarded unchanged).
type openAIClient struct {
	endpoint string
	key      string
	model    string
	proxy    bool
	name     string
	httpc    *http.Client
}

func newOpenAIClient(p *models.Provider, credential string) (*openAIClient, error) {
	if credential == "" {
		return nil, fmt.Errorf("provider %q has no resolvable credential", p.Name)
	}

	endpoint := p.Endpoint
	proxy := p.Type == models.ProviderProxy
	if endpoint == "" {
		switch p.Type {
		case models.ProviderOpenAI:
			endpoint = openAIBaseURL
		case models.ProviderGoogle:
			endpoint = googleBaseURL
		default:
			return nil, fmt.Errorf("proxy provider %q requires an endpoint", p.Name)
		}
	}

	model := CleanModelName(p.PrimaryModel(), proxy)
	if model == "" {
		model = defaultModelFor(p.Type)
	}

	return &openAIClient{
		endpoint: endpoint,
		key:      credential,
		model:    model,
		proxy:    proxy,
		name:     p.Name,
		httpc:    &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int64         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = CleanModelName(req.Model, c.proxy)
	}

	body := chatRequest{Model: model, MaxTokens: req.MaxTokens}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.key)

	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completions call failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", httpResp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("provider %s returned error: %s", c.name, parsed.Error.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider %s returned status %d: %s", c.name, httpResp.StatusCode, string(raw))
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider %s returned no choices", c.name)
	}

	in, out := parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens
	return &Response{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      CostUSD(model, in, out),
	}, nil
}

func (c *openAIClient) Describe() string {
	return fmt.Sprintf("%s/%s (%s)", map[bool]string{true: "proxy", false: "openai"}[c.proxy], c.model, c.name)
}
