package llm

import "fmt"

// Usage tracks token consumption across generation calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// pricing is USD per 1M tokens, keyed by provider name. Unknown providers
// (mocks in tests) cost nothing.
var pricing = map[string]struct{ in, out float64 }{
	"claude": {in: 3.0, out: 15.0},
	"gemini": {in: 0.10, out: 0.40},
}

// Add accumulates usage from another Usage into this one.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Cost returns the estimated cost in USD under the named provider's pricing.
func (u Usage) Cost(provider string) float64 {
	p, ok := pricing[provider]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)*p.in/1_000_000 + float64(u.OutputTokens)*p.out/1_000_000
}

// Summary returns a human-readable usage and cost line.
func (u Usage) Summary(provider string) string {
	return fmt.Sprintf("tokens: %d in / %d out, cost: $%.4f",
		u.InputTokens, u.OutputTokens, u.Cost(provider))
}

// SummarizeByProvider renders one usage and cost line for usage accumulated
// per provider. Each provider's tokens are priced under its own rates, so a
// run that failed over between providers still reports an honest total.
func SummarizeByProvider(usage map[string]Usage) string {
	var total Usage
	var cost float64
	for provider, u := range usage {
		total.Add(u)
		cost += u.Cost(provider)
	}
	return fmt.Sprintf("tokens: %d in / %d out, cost: $%.4f",
		total.InputTokens, total.OutputTokens, cost)
}
