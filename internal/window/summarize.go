package window

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/pluralchat/mnemo/pkg/types"
)

const (
	// keepNum/keepDen is the share of recent messages preserved verbatim
	// when a window is summarized (30%). Kept as a rational so the keep
	// count stays exact integer arithmetic.
	keepNum = 3
	keepDen = 10

	// excerptMessages is how many of the newest collapsed messages
	// contribute an excerpt to the summary text.
	excerptMessages = 3

	// excerptMaxLen caps each excerpt.
	excerptMaxLen = 80
)

// summarizeLocked collapses the oldest 70% of messages into a single
// system-role summary and recomputes the window's token total. Callers hold
// m.mu. Windows with fewer than two messages are left alone.
func (m *Manager) summarizeLocked(w *types.ContextWindow) {
	n := len(w.Messages)
	if n < 2 {
		return
	}

	// keep = ceil(n * keepNum/keepDen).
	keep := (n*keepNum + keepDen - 1) / keepDen
	if keep < 1 {
		keep = 1
	}
	if keep >= n {
		return
	}
	head := w.Messages[:n-keep]
	tail := w.Messages[n-keep:]

	summary := types.ContextMessage{
		Role:      types.RoleSystem,
		Content:   digestOf(head),
		CreatedAt: head[len(head)-1].CreatedAt,
	}
	summary.TokenCost = m.estimator.Estimate(summary.Content)

	msgs := make([]types.ContextMessage, 0, keep+1)
	msgs = append(msgs, summary)
	msgs = append(msgs, tail...)

	total := 0
	for _, msg := range msgs {
		total += msg.TokenCost
	}

	before := w.TotalTokens
	w.Messages = msgs
	w.TotalTokens = total

	log.Printf("window: summarized session=%s agent=%s collapsed=%d tokens %d -> %d",
		w.SessionID, w.AgentID, len(head), before, total)
}

// digestOf renders the collapsed head of a window as one summary string,
// recording how much was folded away plus short excerpts of the newest
// collapsed exchanges.
func digestOf(head []types.ContextMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Summary of %d earlier messages]", len(head))

	start := len(head) - excerptMessages
	if start < 0 {
		start = 0
	}
	for _, msg := range head[start:] {
		b.WriteString("\n")
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(truncate(msg.Content, excerptMaxLen))
	}
	return b.String()
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
