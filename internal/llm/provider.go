// Package llm is the generation-service boundary: one blocking completion
// call per attempt. Provider implementations (Claude, Gemini) convert between
// the common request/response types and their SDK formats. Retry policy does
// not live here; the synthesis loop owns it.
package llm

import "context"

// Provider is a single-turn text completion backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "claude", "gemini").
	Name() string

	// Complete sends one prompt and returns one response. The provider is
	// stateless; conversation context is folded into the prompt by the
	// composer. Transport, quota, and server errors are returned as
	// *UnavailableError so the caller can tell them apart from permanent
	// configuration problems.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is the input for one generation call.
type CompletionRequest struct {
	// SystemPrompt carries the fixed code-generation instructions.
	SystemPrompt string

	// Prompt is the composed task message, including any failure evidence
	// from earlier attempts.
	Prompt string

	// MaxTokens limits the response length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the raw result of one generation call. The content
// is opaque text; imposing structure on it is the extractor's job.
type CompletionResponse struct {
	// Content is the model's text output.
	Content string

	// StopReason indicates why generation stopped, in the provider's own
	// vocabulary ("end_turn", "max_tokens", ...).
	StopReason string

	// Usage tracks token consumption for this call.
	Usage Usage
}
