package synth

import "fmt"

// ExhaustedError reports that the attempt budget ran out without a passing
// candidate.
type ExhaustedError struct {
	Task           string
	Attempts       int
	LastFailure    FailureKind
	TranscriptPath string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("synthesis of %s failed after %d attempts (last failure: %s)",
		e.Task, e.Attempts, e.LastFailure)
}

// Suggestion returns actionable steps for the user.
func (e *ExhaustedError) Suggestion() string {
	s := "Raise the budget with --max-attempts, or refine the task's rules."
	if e.TranscriptPath != "" {
		s = fmt.Sprintf("Inspect the attempt transcript at %s.\n%s", e.TranscriptPath, s)
	}
	return s
}
