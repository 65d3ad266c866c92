package synth

import (
	"github.com/ledgersmith-dev/ledgersmith/internal/llm"
	"github.com/ledgersmith-dev/ledgersmith/internal/validate"
)

// FailureKind classifies why an attempt did not produce a passing program.
type FailureKind string

const (
	// FailureGeneration: the generation service call failed (network,
	// quota, server error). Transient; the attempt is consumed.
	FailureGeneration FailureKind = "generation_unavailable"

	// FailureExtraction: the response contained no identifiable code.
	FailureExtraction FailureKind = "extraction_failure"

	// FailureTimeout: the candidate exceeded its execution budget.
	FailureTimeout FailureKind = "timed_out"

	// FailureRuntime: the candidate exited non-zero or wrote no parsable
	// artifact.
	FailureRuntime FailureKind = "runtime_failure"

	// FailureValidation: the artifact was produced but differs from the
	// reference.
	FailureValidation FailureKind = "validation_failure"
)

// Attempt is the immutable record of one loop iteration. It is finalized
// when the iteration ends and appended to the history; nothing mutates it
// afterwards.
type Attempt struct {
	// Index is 1-based.
	Index int `json:"index"`

	// Provider is the generation backend that served this attempt.
	Provider string `json:"provider,omitempty"`

	// RawResponse is the unprocessed generator output.
	RawResponse string `json:"raw_response,omitempty"`

	// Usage is this attempt's token consumption, priced under Provider.
	Usage llm.Usage `json:"usage"`

	// Program is the extracted candidate, empty when extraction failed.
	Program string `json:"program,omitempty"`

	// Execution outcome, present once the candidate ran.
	ExitCode int    `json:"exit_code,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`

	// Verdict is present when validation ran.
	Verdict *validate.Verdict `json:"verdict,omitempty"`

	// Passed marks the winning attempt.
	Passed bool `json:"passed"`

	// Failure and Evidence describe what went wrong; both empty when
	// Passed.
	Failure  FailureKind `json:"failure,omitempty"`
	Evidence string      `json:"evidence,omitempty"`
}
