// Package synth drives the generate → execute → validate → repair loop.
// The controller owns the loop state machine and the append-only attempt
// history; every other component is invoked once per attempt and holds no
// state across attempts.
package synth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgersmith-dev/ledgersmith/internal/extract"
	"github.com/ledgersmith-dev/ledgersmith/internal/llm"
	"github.com/ledgersmith-dev/ledgersmith/internal/log"
	"github.com/ledgersmith-dev/ledgersmith/internal/prompt"
	"github.com/ledgersmith-dev/ledgersmith/internal/sandbox"
	"github.com/ledgersmith-dev/ledgersmith/internal/task"
	"github.com/ledgersmith-dev/ledgersmith/internal/validate"
)

// State is the loop's position in one attempt. Terminal states are
// StateSuccess and StateAborted.
type State int

const (
	StateComposing State = iota
	StateGenerating
	StateExtracting
	StateExecuting
	StateValidating
	StateSuccess
	StateRetrying
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateComposing:
		return "composing"
	case StateGenerating:
		return "generating"
	case StateExtracting:
		return "extracting"
	case StateExecuting:
		return "executing"
	case StateValidating:
		return "validating"
	case StateSuccess:
		return "success"
	case StateRetrying:
		return "retrying"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// DefaultMaxAttempts is the attempt budget when none is configured.
const DefaultMaxAttempts = 3

// Controller runs the synthesis loop for one task.
type Controller struct {
	factory     *llm.Factory
	executor    *sandbox.Executor
	logger      log.Logger
	maxAttempts int
	maxTokens   int
	workDir     string
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the loop's logger.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithWorkDir sets the run workspace root; each attempt gets a
// subdirectory under it.
func WithWorkDir(dir string) Option {
	return func(c *Controller) { c.workDir = dir }
}

// WithMaxTokens caps generation response length.
func WithMaxTokens(n int) Option {
	return func(c *Controller) { c.maxTokens = n }
}

// New creates a Controller. The factory supplies generation providers; the
// executor runs candidates.
func New(factory *llm.Factory, executor *sandbox.Executor, opts ...Option) *Controller {
	c := &Controller{
		factory:     factory,
		executor:    executor,
		logger:      log.NewNoop(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome is the result of one full loop run.
type Outcome struct {
	// Task is the bundle name.
	Task string `json:"task"`

	// State is StateSuccess or StateAborted.
	State State `json:"-"`

	// Success mirrors State for serialization.
	Success bool `json:"success"`

	// History holds one record per consumed attempt, in order.
	History []*Attempt `json:"history"`

	// Program is the winning candidate; empty on exhaustion.
	Program string `json:"program,omitempty"`

	// Provider served the winning attempt.
	Provider string `json:"provider,omitempty"`

	// Usage is token consumption per provider across all attempts. Keyed by
	// provider so each provider's tokens are priced under its own rates.
	Usage map[string]llm.Usage `json:"usage"`
}

// Attempts returns the number of consumed attempts.
func (o *Outcome) Attempts() int {
	return len(o.History)
}

// Run executes the loop until success or budget exhaustion. A non-nil error
// means the loop could not run at all (cancelled context, broken sandbox);
// ordinary failures end with an Outcome in StateAborted.
func (c *Controller) Run(ctx context.Context, b *task.Bundle) (*Outcome, error) {
	if c.workDir == "" {
		dir, err := os.MkdirTemp("", "ledgersmith-run-")
		if err != nil {
			return nil, fmt.Errorf("failed to create run workspace: %w", err)
		}
		c.workDir = dir
	}

	outcome := &Outcome{Task: b.Name, Usage: make(map[string]llm.Usage)}
	logger := c.logger.With("task", b.Name)

	var feedback *prompt.Feedback
	system := prompt.System(b)

	for index := 1; index <= c.maxAttempts; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt := &Attempt{Index: index}
		alog := logger.With("attempt", index)

		c.runAttempt(ctx, b, system, feedback, attempt, outcome, alog)
		outcome.History = append(outcome.History, attempt)

		if attempt.Passed {
			outcome.State = StateSuccess
			outcome.Success = true
			outcome.Program = attempt.Program
			outcome.Provider = attempt.Provider
			logger.Info("synthesis succeeded", "attempts", index)
			return outcome, nil
		}

		alog.Info("attempt failed", "failure", attempt.Failure)
		if index < c.maxAttempts {
			alog.Debug("state transition", "state", StateRetrying)
			feedback = &prompt.Feedback{
				Attempt:  index,
				Code:     attempt.Program,
				Evidence: attempt.Evidence,
			}
		}
	}

	outcome.State = StateAborted
	logger.Warn("attempt budget exhausted", "attempts", c.maxAttempts)
	return outcome, nil
}

// runAttempt walks one attempt through the component pipeline, finalizing
// the record with either Passed or a failure kind and its evidence.
func (c *Controller) runAttempt(
	ctx context.Context,
	b *task.Bundle,
	system string,
	feedback *prompt.Feedback,
	attempt *Attempt,
	outcome *Outcome,
	logger log.Logger,
) {
	logger.Debug("state transition", "state", StateComposing)
	userPrompt := prompt.Compose(b, feedback)

	logger.Debug("state transition", "state", StateGenerating)
	provider, err := c.factory.GetProvider()
	if err != nil {
		attempt.Failure = FailureGeneration
		attempt.Evidence = err.Error()
		return
	}
	attempt.Provider = provider.Name()

	resp, err := provider.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: system,
		Prompt:       userPrompt,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		c.factory.ReportFailure(provider.Name())
		attempt.Failure = FailureGeneration
		attempt.Evidence = err.Error()
		return
	}
	c.factory.ReportSuccess(provider.Name())
	attempt.Usage = resp.Usage
	accumulated := outcome.Usage[provider.Name()]
	accumulated.Add(resp.Usage)
	outcome.Usage[provider.Name()] = accumulated
	attempt.RawResponse = resp.Content

	logger.Debug("state transition", "state", StateExtracting)
	program, err := extract.Extract(resp.Content)
	if err != nil {
		attempt.Failure = FailureExtraction
		attempt.Evidence = "the response contained no code block; no valid code was produced"
		return
	}
	attempt.Program = program

	logger.Debug("state transition", "state", StateExecuting)
	result, err := c.executor.Execute(ctx, &sandbox.Request{
		Dir:         filepath.Join(c.workDir, fmt.Sprintf("attempt-%d", attempt.Index)),
		Interpreter: b.Interpreter,
		ProgramFile: b.ProgramFile,
		Program:     program,
		InputPath:   b.InputPath,
	})
	if err != nil {
		// The sandbox itself is broken (interpreter missing, workspace
		// unwritable). Retrying other candidates cannot help, but the
		// attempt still records what happened.
		attempt.Failure = FailureRuntime
		attempt.Evidence = err.Error()
		return
	}

	attempt.ExitCode = result.ExitCode
	attempt.Stdout = result.Stdout
	attempt.Stderr = result.Stderr

	switch result.Status {
	case sandbox.StatusTimedOut:
		attempt.TimedOut = true
		attempt.Failure = FailureTimeout
		attempt.Evidence = result.Reason
		return
	case sandbox.StatusRuntimeFailure:
		attempt.Failure = FailureRuntime
		attempt.Evidence = result.Reason
		return
	}

	logger.Debug("state transition", "state", StateValidating)
	verdict := validate.Compare(result.Artifact, b.Reference, b.Schema)
	attempt.Verdict = verdict
	if !verdict.OK {
		attempt.Failure = FailureValidation
		attempt.Evidence = verdict.Summary
		return
	}

	attempt.Passed = true
}
