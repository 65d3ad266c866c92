package llm

import "testing"

func TestUsageCost(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		usage    Usage
		want     float64
	}{
		{"zero usage", "claude", Usage{}, 0},
		{"claude input only", "claude", Usage{InputTokens: 1_000_000}, 3.0},
		{"claude output only", "claude", Usage{OutputTokens: 1_000_000}, 15.0},
		{"gemini mixed", "gemini", Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, 0.5},
		{"unknown provider is free", "mock", Usage{InputTokens: 1_000_000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.usage.Cost(tt.provider)
			tolerance := 0.0001
			if got < tt.want-tolerance || got > tt.want+tolerance {
				t.Errorf("Cost(%q) = %v, want %v", tt.provider, got, tt.want)
			}
		})
	}
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 100, OutputTokens: 50}
	u.Add(Usage{InputTokens: 200, OutputTokens: 100})

	if u.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", u.InputTokens)
	}
	if u.OutputTokens != 150 {
		t.Errorf("OutputTokens = %d, want 150", u.OutputTokens)
	}
}

func TestUsageSummary(t *testing.T) {
	u := Usage{InputTokens: 3500, OutputTokens: 500}
	got := u.Summary("claude")
	want := "tokens: 3500 in / 500 out, cost: $0.0180"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestSummarizeByProvider(t *testing.T) {
	// A run that failed over between providers prices each provider's
	// tokens under its own rates, not the winner's.
	usage := map[string]Usage{
		"claude": {InputTokens: 1_000_000},
		"gemini": {OutputTokens: 1_000_000},
	}
	got := SummarizeByProvider(usage)
	want := "tokens: 1000000 in / 1000000 out, cost: $3.4000"
	if got != want {
		t.Errorf("SummarizeByProvider() = %q, want %q", got, want)
	}
}
