package provider

import "strings"

// Rate is USD per million tokens.
type Rate struct {
	Input  float64
	Output float64
}

// DefaultRate applies to models absent from the pricing table.
var DefaultRate = Rate{Input: 3.0, Output: 15.0}

// rates is the static per-model pricing table, keyed by bare model name.
var rates = map[string]Rate{
	"claude-opus-4-5-20251101":   {Input: 5.0, Output: 25.0},
	"claude-opus-4-1-20250805":   {Input: 15.0, Output: 75.0},
	"claude-sonnet-4-5-20250929": {Input: 3.0, Output: 15.0},
	"claude-sonnet-4-20250514":   {Input: 3.0, Output: 15.0},
	"claude-haiku-4-5-20251001":  {Input: 1.0, Output: 5.0},
	"claude-3-5-haiku-20241022":  {Input: 0.8, Output: 4.0},
	"gpt-4o":                     {Input: 2.5, Output: 10.0},
	"gpt-4o-mini":                {Input: 0.15, Output: 0.6},
	"gpt-4.1":                    {Input: 2.0, Output: 8.0},
	"o3-mini":                    {Input: 1.1, Output: 4.4},
	"gemini-2.0-flash":           {Input: 0.1, Output: 0.4},
	"gemini-2.5-pro":             {Input: 1.25, Output: 10.0},
}

// RateFor returns the pricing for a model, stripping any namespace prefix
// before lookup. Unknown models get the default rate.
func RateFor(model string) Rate {
	bare := model
	if i := strings.Index(bare, "/"); i >= 0 {
		bare = bare[i+1:]
	}
	if r, ok := rates[bare]; ok {
		return r
	}
	return DefaultRate
}

// CostUSD computes the cost of a call from token usage.
func CostUSD(model string, inputTokens, outputTokens int64) float64 {
	r := RateFor(model)
	return float64(inputTokens)/1_000_000*r.Input + float64(outputTokens)/1_000_000*r.Output
}

// CleanModelName strips a leading "namespace/" prefix before sending the
// model string to providers that expect bare names. Proxy-routed providers
// forward the full prefixed string unchanged.
func CleanModelName(model string, proxyRouted bool) string {
	if proxyRouted {
		return model
	}
	if i := strings.Index(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
