package tokens

import "strings"

// Heuristic estimates tokens from word and character counts. It takes the
// larger of words/0.75 and chars/4 (both rounded up), deliberately
// over-estimating so budgeting decisions err on the safe side. Not
// billing-accurate.
type Heuristic struct{}

// NewHeuristic returns the default heuristic estimator.
func NewHeuristic() Heuristic {
	return Heuristic{}
}

// Estimate implements Estimator.
func (Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}

	words := len(strings.Fields(text))
	chars := len(text)

	// ceil(words / 0.75) == ceil(words * 4 / 3)
	byWords := (words*4 + 2) / 3
	byChars := (chars + 3) / 4

	if byWords > byChars {
		return byWords
	}
	return byChars
}
