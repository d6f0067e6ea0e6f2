// Package tokens provides token-count estimation for context budgeting.
//
// The window manager only needs counts good enough for threshold decisions,
// so the default estimator is a fast heuristic. The Estimator interface keeps
// it swappable for an exact per-model tokenizer without touching window or
// summarization logic.
package tokens

// Estimator estimates the token count of a text blob.
type Estimator interface {
	// Estimate returns the estimated token count for text. It must be
	// deterministic and return 0 for empty input.
	Estimate(text string) int
}
