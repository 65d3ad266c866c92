package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelWarn)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("levels below WARN should be suppressed, got:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("WARN and ERROR should be emitted, got:\n%s", out)
	}
}

func TestWithCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo)

	logger.With("task", "icici", "attempt", 2).Info("validation failed")

	out := buf.String()
	if !strings.Contains(out, "task=icici") || !strings.Contains(out, "attempt=2") {
		t.Errorf("expected contextual attributes in output, got:\n%s", out)
	}
}

func TestDefaultIsNoopUntilSet(t *testing.T) {
	// Must not panic and must discard output.
	Default().Info("goes nowhere")

	var buf bytes.Buffer
	SetDefault(NewText(&buf, slog.LevelInfo))
	t.Cleanup(func() { SetDefault(NewNoop()) })

	Default().Info("captured")
	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("expected default logger to capture output, got:\n%s", buf.String())
	}
}
