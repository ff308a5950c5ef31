package llm

// CostForTokens returns the estimated cost in USD of tokens at a flat rate
// of perMillion USD per million tokens.
func CostForTokens(perMillion float64, tokens int) float64 {
	if tokens <= 0 || perMillion <= 0 {
		return 0
	}
	return float64(tokens) / 1_000_000.0 * perMillion
}

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// EstimateMessageTokens sums EstimateTokens over every message.
func EstimateMessageTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content)
	}
	return total
}

// UsageTokens returns the total tokens reported by resp, falling back to an
// estimate when the provider did not report usage.
func UsageTokens(messages []Message, resp *CompletionResponse) int {
	if resp == nil {
		return 0
	}
	if n := resp.InputTokens + resp.OutputTokens; n > 0 {
		return n
	}
	return EstimateMessageTokens(messages) + EstimateTokens(resp.Content)
}
