package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersmith-dev/ledgersmith/internal/llm"
	"github.com/ledgersmith-dev/ledgersmith/internal/sandbox"
	"github.com/ledgersmith-dev/ledgersmith/internal/table"
	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

// scriptedProvider replays canned responses and records every prompt it is
// sent, so tests can assert what feedback the next attempt saw.
type scriptedResponse struct {
	content string
	err     error
}

type scriptedProvider struct {
	responses []scriptedResponse
	prompts   []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "stub" }

func (p *scriptedProvider) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.prompts = append(p.prompts, req.Prompt)
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	r := p.responses[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{
		Content:    r.content,
		StopReason: "end_turn",
		Usage:      llm.Usage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

func testFactory(p *scriptedProvider) *llm.Factory {
	return llm.NewFactoryWithProviders(
		map[string]llm.Provider{"stub": p},
		llm.WithPrimaryProvider("stub"),
	)
}

// testBundle builds an in-memory bundle whose candidates run under sh, so
// the loop exercises a real sandbox without an interpreter stack.
func testBundle(t *testing.T) *task.Bundle {
	t.Helper()
	dir := t.TempDir()
	input := "Date,Amount\n2024-08-01,100\n"
	inputPath := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	ref, err := table.Parse(strings.NewReader("Date,Amount\n2024-08-01,100\n"))
	require.NoError(t, err)

	return &task.Bundle{
		Name:        "demo",
		Interpreter: "sh",
		ProgramFile: "candidate.sh",
		InputPath:   inputPath,
		InputSample: input,
		Schema: task.Schema{Columns: []task.Column{
			{Name: "Date", Type: task.TypeDate},
			{Name: "Amount", Type: task.TypeNumber},
		}},
		Reference: ref,
	}
}

func fenced(script string) string {
	return "```sh\n" + script + "\n```"
}

const goodScript = `cat "$1" > "$2"`

func newTestController(t *testing.T, p *scriptedProvider, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithWorkDir(t.TempDir())}, opts...)
	return New(testFactory(p), sandbox.NewExecutor(), opts...)
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: "Here you go.\n" + fenced(goodScript)},
	}}

	outcome, err := newTestController(t, p).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, outcome.State)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts())
	assert.Equal(t, goodScript, outcome.Program)
	assert.Equal(t, "stub", outcome.Provider)
	assert.Equal(t, 10, outcome.Usage["stub"].InputTokens)
	assert.Equal(t, 20, outcome.Usage["stub"].OutputTokens)
	assert.Equal(t, 10, outcome.History[0].Usage.InputTokens)

	record := outcome.History[0]
	assert.True(t, record.Passed)
	assert.Empty(t, record.Failure)
	require.NotNil(t, record.Verdict)
	assert.True(t, record.Verdict.OK)
}

func TestRunProseOnlyResponseConsumesAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: "Sure! First open the file, then iterate over its lines."},
		{content: fenced(goodScript)},
	}}

	outcome, err := newTestController(t, p).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	require.Equal(t, 2, outcome.Attempts())
	assert.Equal(t, FailureExtraction, outcome.History[0].Failure)
	assert.Empty(t, outcome.History[0].Program)
	assert.True(t, outcome.History[1].Passed)

	// The repair prompt tells the generator its response had no code.
	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "Attempt 1 failed")
	assert.Contains(t, p.prompts[1], "contained no valid code")
}

func TestRunValidationFailureFeedsEvidence(t *testing.T) {
	wrong := `printf 'Date,Amount\n2024-08-01,999\n' > "$2"`
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: fenced(wrong)},
		{content: fenced(goodScript)},
	}}

	outcome, err := newTestController(t, p).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	require.Equal(t, 2, outcome.Attempts())
	first := outcome.History[0]
	assert.Equal(t, FailureValidation, first.Failure)
	require.NotNil(t, first.Verdict)
	assert.False(t, first.Verdict.OK)

	// The second prompt carries the failing code and the diff evidence.
	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], wrong)
	assert.Contains(t, p.prompts[1], "Amount")
	assert.Contains(t, p.prompts[1], "999")
}

func TestRunExhaustsBudget(t *testing.T) {
	wrong := `printf 'Date,Amount\n2024-08-01,999\n' > "$2"`
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: fenced(wrong)},
	}}

	outcome, err := newTestController(t, p, WithMaxAttempts(3)).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	assert.Equal(t, StateAborted, outcome.State)
	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Program)
	require.Equal(t, 3, outcome.Attempts())
	for _, record := range outcome.History {
		assert.Equal(t, FailureValidation, record.Failure)
		assert.False(t, record.Passed)
	}
	assert.Len(t, p.prompts, 3)
}

func TestRunTimeoutConsumesAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: fenced(`sleep 30`)},
		{content: fenced(goodScript)},
	}}

	controller := New(
		testFactory(p),
		sandbox.NewExecutor(sandbox.WithTimeout(300*time.Millisecond)),
		WithWorkDir(t.TempDir()),
	)

	outcome, err := controller.Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	require.Equal(t, 2, outcome.Attempts())
	first := outcome.History[0]
	assert.Equal(t, FailureTimeout, first.Failure)
	assert.True(t, first.TimedOut)
	assert.True(t, outcome.Success)

	// The timeout evidence reaches the next prompt.
	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "time budget")
}

func TestRunRuntimeFailureFeedsStderr(t *testing.T) {
	crashing := `echo "KeyError: Amount" >&2; exit 1`
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: fenced(crashing)},
		{content: fenced(goodScript)},
	}}

	outcome, err := newTestController(t, p).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	require.Equal(t, 2, outcome.Attempts())
	first := outcome.History[0]
	assert.Equal(t, FailureRuntime, first.Failure)
	assert.Equal(t, 1, first.ExitCode)
	assert.Contains(t, first.Evidence, "KeyError")
	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "KeyError")
}

func TestRunGenerationErrorConsumesAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{err: errors.New("api error 529: overloaded")},
		{content: fenced(goodScript)},
	}}

	outcome, err := newTestController(t, p).Run(context.Background(), testBundle(t))
	require.NoError(t, err)

	require.Equal(t, 2, outcome.Attempts())
	assert.Equal(t, FailureGeneration, outcome.History[0].Failure)
	assert.Contains(t, outcome.History[0].Evidence, "529")
	assert.True(t, outcome.Success)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{responses: []scriptedResponse{{content: fenced(goodScript)}}}
	_, err := newTestController(t, p).Run(ctx, testBundle(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteTranscript(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{content: "no code here, just prose"},
	}}

	outcome, err := newTestController(t, p, WithMaxAttempts(1)).Run(context.Background(), testBundle(t))
	require.NoError(t, err)
	require.Equal(t, StateAborted, outcome.State)

	dir := t.TempDir()
	path, err := outcome.WriteTranscript(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TranscriptFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"task": "demo"`)
	assert.Contains(t, string(data), `"success": false`)
	assert.Contains(t, string(data), string(FailureExtraction))
}

func TestExhaustedErrorSuggestion(t *testing.T) {
	err := &ExhaustedError{
		Task:           "demo",
		Attempts:       3,
		LastFailure:    FailureValidation,
		TranscriptPath: "/tmp/run/transcript.json",
	}
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "validation_failure")
	assert.Contains(t, err.Suggestion(), "/tmp/run/transcript.json")
	assert.Contains(t, err.Suggestion(), "--max-attempts")
}
