// Package sandbox runs untrusted candidate programs in isolated child
// processes. Each attempt gets a fresh workspace directory holding the
// program source and its output artifact; the process boundary means a
// crashing or looping candidate can at worst burn its timeout, never corrupt
// the loop's state. The execution mechanism is deliberately contained behind
// this package so a stricter backend (container, jailed interpreter) can
// replace the child process without touching the loop.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ledgersmith-dev/ledgersmith/internal/log"
	"github.com/ledgersmith-dev/ledgersmith/internal/table"
)

// ArtifactFile is the output file name the candidate is told to write
// inside its workspace.
const ArtifactFile = "output.csv"

// outputCap bounds captured stdout/stderr. Tracebacks end with the error,
// so the tail is kept.
const outputCap = 16 * 1024

// Status classifies one candidate execution.
type Status int

const (
	// StatusOK: exited zero and wrote a parsable artifact.
	StatusOK Status = iota
	// StatusTimedOut: exceeded the wall-clock budget and was killed.
	StatusTimedOut
	// StatusRuntimeFailure: non-zero exit, or no parsable artifact.
	StatusRuntimeFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimedOut:
		return "timed out"
	case StatusRuntimeFailure:
		return "runtime failure"
	default:
		return "unknown"
	}
}

// Request describes one candidate execution.
type Request struct {
	// Dir is the fresh attempt workspace. The program source and artifact
	// are written here and nowhere else.
	Dir string

	// Interpreter runs the program (e.g. "python3").
	Interpreter string

	// ProgramFile is the source file name inside Dir (e.g. "parser.py").
	ProgramFile string

	// Program is the candidate source text.
	Program string

	// InputPath is the source document handed to the candidate as argv[1].
	InputPath string
}

// Result captures everything observable about one execution.
type Result struct {
	Status   Status
	ExitCode int
	Stdout   string
	Stderr   string

	// Artifact is the parsed output table, nil unless Status is StatusOK.
	Artifact *table.Table

	// ProgramPath and ArtifactPath are kept for inspection after the run.
	ProgramPath  string
	ArtifactPath string

	// Reason is the failure evidence for the next prompt: stderr, a
	// timeout notice, or the artifact parse error.
	Reason string
}

// Executor runs candidate programs with a wall-clock timeout.
type Executor struct {
	timeout time.Duration
	logger  log.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout sets the per-execution wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithLogger sets a logger for execution diagnostics.
func WithLogger(l log.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an Executor. The default timeout is 30 seconds.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		timeout: 30 * time.Second,
		logger:  log.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute writes the candidate into its workspace and runs it as
//
//	interpreter programPath inputPath artifactPath
//
// blocking until exit or timeout. A non-nil error means the sandbox itself
// failed (could not write the workspace); candidate failures are reported in
// the Result, not as errors.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attempt workspace: %w", err)
	}

	programPath := filepath.Join(req.Dir, req.ProgramFile)
	if err := os.WriteFile(programPath, []byte(req.Program), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write candidate program: %w", err)
	}
	artifactPath := filepath.Join(req.Dir, ArtifactFile)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.Interpreter, programPath, req.InputPath, artifactPath)
	cmd.Dir = req.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// The candidate runs in its own process group so a timeout kills any
	// subprocesses it spawned, not just the interpreter.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	// Give the process a moment to die after the kill signal before
	// abandoning the wait.
	cmd.WaitDelay = 2 * time.Second

	e.logger.Debug("running candidate",
		"interpreter", req.Interpreter,
		"program", programPath,
		"timeout", e.timeout)

	runErr := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	result := &Result{
		ExitCode:     exitCode,
		Stdout:       capTail(stdout.String()),
		Stderr:       capTail(stderr.String()),
		ProgramPath:  programPath,
		ArtifactPath: artifactPath,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.Status = StatusTimedOut
		result.Reason = fmt.Sprintf("program exceeded the %v time budget and was killed", e.timeout)
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Interpreter missing or not executable: the sandbox cannot
			// run anything, so retrying other candidates is pointless.
			return nil, fmt.Errorf("failed to start candidate: %w", runErr)
		}
		result.Status = StatusRuntimeFailure
		result.Reason = failureEvidence(result)
		return result, nil
	}

	artifact, err := table.Load(artifactPath)
	if err != nil {
		result.Status = StatusRuntimeFailure
		result.Reason = fmt.Sprintf("program exited 0 but produced no usable artifact: %v", err)
		return result, nil
	}

	result.Status = StatusOK
	result.Artifact = artifact
	return result, nil
}

// failureEvidence picks the most useful text to feed back: stderr first,
// stdout if that is all there is.
func failureEvidence(r *Result) string {
	evidence := r.Stderr
	if evidence == "" {
		evidence = r.Stdout
	}
	if evidence == "" {
		return fmt.Sprintf("program exited with code %d and no output", r.ExitCode)
	}
	return fmt.Sprintf("program exited with code %d:\n%s", r.ExitCode, evidence)
}

// capTail truncates captured output to outputCap bytes, keeping the tail.
func capTail(s string) string {
	if len(s) <= outputCap {
		return s
	}
	return "...(truncated)...\n" + s[len(s)-outputCap:]
}
