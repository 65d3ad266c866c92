package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ledgersmith-dev/ledgersmith/internal/secrets"
)

// ClaudeModel is the Claude model used for program synthesis.
const ClaudeModel = "claude-sonnet-4-5-20250929"

// claudeDefaultMaxTokens bounds responses when the request does not say.
// Candidate parsers run well under this.
const claudeDefaultMaxTokens = 4096

// ClaudeProvider implements Provider for Anthropic models.
type ClaudeProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeProvider creates a provider using the anthropic_api_key secret
// (ANTHROPIC_API_KEY or config.toml). Returns *AuthError if it is not set.
func NewClaudeProvider() (*ClaudeProvider, error) {
	apiKey, err := secrets.Get("anthropic_api_key")
	if err != nil {
		return nil, &AuthError{Provider: "claude", EnvVar: "ANTHROPIC_API_KEY", Err: err}
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(ClaudeModel),
	}, nil
}

// Name returns the provider identifier.
func (p *ClaudeProvider) Name() string {
	return "claude"
}

// Complete sends one prompt to Claude and returns the text response.
func (p *ClaudeProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &UnavailableError{Provider: "claude", Err: err}
	}

	result := &CompletionResponse{
		StopReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.Content += text.Text
		}
	}

	return result, nil
}
