package llm

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ledgersmith-dev/ledgersmith/internal/secrets"
)

// Factory holds the available providers and their circuit breakers.
// Providers are auto-detected from environment variables at startup and the
// factory hands out an available one per attempt, preferring the primary.
type Factory struct {
	providers map[string]Provider
	breakers  map[string]*CircuitBreaker
	primary   string
}

// factoryOptions holds configuration for creating a factory.
type factoryOptions struct {
	primary string
}

// FactoryOption configures a Factory.
type FactoryOption func(*factoryOptions)

// WithPrimaryProvider sets the preferred provider name. If the primary is
// unavailable the factory falls back to any other provider whose breaker
// allows calls.
func WithPrimaryProvider(name string) FactoryOption {
	return func(o *factoryOptions) {
		if name != "" {
			o.primary = name
		}
	}
}

// NewFactory creates a factory with the providers whose credentials resolve
// through the secrets package:
//   - claude: anthropic_api_key (ANTHROPIC_API_KEY)
//   - gemini: google_api_key (GOOGLE_API_KEY or GEMINI_API_KEY)
//
// Returns an error if no provider is available, or if the requested primary
// provider exists in principle but failed to initialize (bad credentials are
// a configuration problem, not something retries can fix).
func NewFactory(ctx context.Context, opts ...FactoryOption) (*Factory, error) {
	o := &factoryOptions{primary: "claude"}
	for _, opt := range opts {
		opt(o)
	}

	f := &Factory{
		providers: make(map[string]Provider),
		breakers:  make(map[string]*CircuitBreaker),
		primary:   o.primary,
	}

	if secrets.IsSet("anthropic_api_key") {
		provider, err := NewClaudeProvider()
		if err != nil {
			if o.primary == "claude" {
				return nil, err
			}
		} else {
			f.register("claude", provider)
		}
	}

	if secrets.IsSet("google_api_key") {
		provider, err := NewGeminiProvider(ctx)
		if err != nil {
			if o.primary == "gemini" {
				return nil, err
			}
		} else {
			f.register("gemini", provider)
		}
	}

	if len(f.providers) == 0 {
		return nil, fmt.Errorf("no generation providers available: set ANTHROPIC_API_KEY or GOOGLE_API_KEY")
	}
	if _, ok := f.providers[f.primary]; !ok {
		// Requested primary has no credentials; fall back to whatever is
		// configured rather than failing the run.
		f.primary = f.AvailableProviders()[0]
	}

	return f, nil
}

// NewFactoryWithProviders creates a factory from explicit providers.
// Used by tests with mock providers.
func NewFactoryWithProviders(providers map[string]Provider, opts ...FactoryOption) *Factory {
	o := &factoryOptions{primary: "claude"}
	for _, opt := range opts {
		opt(o)
	}

	f := &Factory{
		providers: make(map[string]Provider),
		breakers:  make(map[string]*CircuitBreaker),
		primary:   o.primary,
	}
	for name, provider := range providers {
		f.register(name, provider)
	}
	return f
}

func (f *Factory) register(name string, p Provider) {
	f.providers[name] = p
	f.breakers[name] = NewCircuitBreaker(name)
}

// GetProvider returns an available provider, primary first, respecting
// breaker state. Returns an error when every breaker is open.
func (f *Factory) GetProvider() (Provider, error) {
	if provider, ok := f.providers[f.primary]; ok {
		if breaker := f.breakers[f.primary]; breaker != nil && breaker.Allow() {
			return provider, nil
		}
	}

	for _, name := range f.providerNames() {
		if name == f.primary {
			continue
		}
		if breaker := f.breakers[name]; breaker != nil && breaker.Allow() {
			return f.providers[name], nil
		}
	}

	return nil, fmt.Errorf("no generation providers available: all circuit breakers are open")
}

// Close releases providers holding network resources (the Gemini client
// keeps a connection open). Safe to call once the factory is done serving.
func (f *Factory) Close() {
	for _, p := range f.providers {
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// ReportSuccess records a successful call, closing the provider's breaker.
func (f *Factory) ReportSuccess(providerName string) {
	if breaker, ok := f.breakers[providerName]; ok {
		breaker.RecordSuccess()
	}
}

// ReportFailure records a failed call, possibly opening the breaker.
func (f *Factory) ReportFailure(providerName string) {
	if breaker, ok := f.breakers[providerName]; ok {
		breaker.RecordFailure()
	}
}

// AvailableProviders returns the names of providers currently allowing
// calls, sorted for determinism.
func (f *Factory) AvailableProviders() []string {
	var available []string
	for name, breaker := range f.breakers {
		if breaker.Allow() {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// providerNames returns all registered provider names, sorted.
func (f *Factory) providerNames() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
