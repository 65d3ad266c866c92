package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TranscriptFile is the file name the attempt transcript is written under.
const TranscriptFile = "transcript.json"

// WriteTranscript persists the full outcome, every attempt record with its
// failure evidence, as indented JSON under dir. It returns the transcript
// path. The transcript is the diagnosis artifact for exhausted runs and the
// provenance record for successful ones.
func (o *Outcome) WriteTranscript(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize transcript: %w", err)
	}

	path := filepath.Join(dir, TranscriptFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
