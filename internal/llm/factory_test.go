package llm

import (
	"context"
	"testing"
)

// stubProvider returns a canned response or error.
type stubProvider struct {
	name string
	resp *CompletionResponse
	err  error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(context.Context, *CompletionRequest) (*CompletionResponse, error) {
	return s.resp, s.err
}

func TestFactoryPrefersPrimary(t *testing.T) {
	f := NewFactoryWithProviders(map[string]Provider{
		"claude": &stubProvider{name: "claude"},
		"gemini": &stubProvider{name: "gemini"},
	}, WithPrimaryProvider("gemini"))

	p, err := f.GetProvider()
	if err != nil {
		t.Fatalf("GetProvider() error: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("GetProvider() = %s, want primary gemini", p.Name())
	}
}

func TestFactoryFallsBackWhenPrimaryBreakerOpen(t *testing.T) {
	f := NewFactoryWithProviders(map[string]Provider{
		"claude": &stubProvider{name: "claude"},
		"gemini": &stubProvider{name: "gemini"},
	})

	for i := 0; i < 3; i++ {
		f.ReportFailure("claude")
	}

	p, err := f.GetProvider()
	if err != nil {
		t.Fatalf("GetProvider() error: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("GetProvider() = %s, want fallback gemini", p.Name())
	}
}

func TestFactoryErrorsWhenAllBreakersOpen(t *testing.T) {
	f := NewFactoryWithProviders(map[string]Provider{
		"claude": &stubProvider{name: "claude"},
	})

	for i := 0; i < 3; i++ {
		f.ReportFailure("claude")
	}

	if _, err := f.GetProvider(); err == nil {
		t.Error("GetProvider() expected error with all breakers open")
	}
}

func TestFactorySuccessClosesBreaker(t *testing.T) {
	f := NewFactoryWithProviders(map[string]Provider{
		"claude": &stubProvider{name: "claude"},
	})

	for i := 0; i < 3; i++ {
		f.ReportFailure("claude")
	}
	f.ReportSuccess("claude")

	if _, err := f.GetProvider(); err != nil {
		t.Errorf("GetProvider() after success error: %v", err)
	}
}

// closableProvider tracks whether its client was released.
type closableProvider struct {
	stubProvider
	closed bool
}

func (p *closableProvider) Close() error {
	p.closed = true
	return nil
}

func TestFactoryCloseReleasesProviders(t *testing.T) {
	p := &closableProvider{stubProvider: stubProvider{name: "gemini"}}
	f := NewFactoryWithProviders(map[string]Provider{
		"gemini": p,
		"claude": &stubProvider{name: "claude"},
	})

	f.Close()
	if !p.closed {
		t.Error("Close() did not release the closable provider")
	}
}

func TestAvailableProvidersSorted(t *testing.T) {
	f := NewFactoryWithProviders(map[string]Provider{
		"gemini": &stubProvider{name: "gemini"},
		"claude": &stubProvider{name: "claude"},
	})

	got := f.AvailableProviders()
	if len(got) != 2 || got[0] != "claude" || got[1] != "gemini" {
		t.Errorf("AvailableProviders() = %v, want [claude gemini]", got)
	}
}
