package llm

import "fmt"

// AuthError indicates a provider cannot be used at all: missing or rejected
// credentials. This is permanent and surfaced before the synthesis loop
// starts, without consuming attempt budget.
type AuthError struct {
	Provider string // provider name (e.g. "claude", "gemini")
	EnvVar   string // environment variable holding the API key
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed", e.Provider)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Suggestion returns actionable steps for the user.
func (e *AuthError) Suggestion() string {
	return fmt.Sprintf("Set %s and re-run.", e.EnvVar)
}

// UnavailableError indicates a generation call failed for transient reasons:
// network errors, rate limits, server errors. The attempt is lost but the
// loop may retry with remaining budget.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
