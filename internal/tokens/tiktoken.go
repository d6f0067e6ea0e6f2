package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is configured. It
// matches the GPT-4 generation of OpenAI models.
const DefaultEncoding = "cl100k_base"

// Tiktoken is an exact BPE estimator. It costs more per call than the
// heuristic and may need to fetch the encoding on first use, so it is opt-in.
type Tiktoken struct {
	encoder *tiktoken.Tiktoken
}

// NewTiktoken loads the named BPE encoding (DefaultEncoding when empty).
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: failed to load encoding %q: %w", encoding, err)
	}
	return &Tiktoken{encoder: encoder}, nil
}

// Estimate implements Estimator.
func (t *Tiktoken) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoder.Encode(text, nil, nil))
}
