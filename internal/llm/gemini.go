package llm

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ledgersmith-dev/ledgersmith/internal/secrets"
)

// GeminiModel is the Gemini model used for program synthesis.
const GeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Provider using the Google AI API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider using the google_api_key secret
// (GOOGLE_API_KEY, GEMINI_API_KEY, or config.toml). Returns *AuthError if it
// is not set.
func NewGeminiProvider(ctx context.Context) (*GeminiProvider, error) {
	apiKey, err := secrets.Get("google_api_key")
	if err != nil {
		return nil, &AuthError{Provider: "gemini", EnvVar: "GOOGLE_API_KEY", Err: err}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &AuthError{Provider: "gemini", EnvVar: "GOOGLE_API_KEY", Err: err}
	}

	return &GeminiProvider{
		client: client,
		model:  GeminiModel,
	}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Complete sends one prompt to Gemini and returns the text response.
func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := p.client.GenerativeModel(p.model)

	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.MaxTokens > 0 {
		model.MaxOutputTokens = int32Ptr(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, &UnavailableError{Provider: "gemini", Err: err}
	}

	return p.convertResponse(resp), nil
}

// Close releases the Gemini client resources.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// convertResponse converts a Gemini response to the common format.
func (p *GeminiProvider) convertResponse(resp *genai.GenerateContentResponse) *CompletionResponse {
	result := &CompletionResponse{}

	if resp == nil || len(resp.Candidates) == 0 {
		return result
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.Content += string(text)
			}
		}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonMaxTokens:
		result.StopReason = "max_tokens"
	default:
		result.StopReason = "end_turn"
	}

	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return result
}

// int32Ptr returns a pointer to the given int32 value.
func int32Ptr(v int32) *int32 {
	return &v
}
