package types

import "time"

// ContextWindow is the bounded, token-budgeted rolling message history for
// one (session, agent) pair. Windows are process-local: they are created on
// first access and live until cleared or until the owning session ends.
//
// Invariant: TotalTokens always equals the sum of TokenCost over Messages.
// The window manager maintains this on every append and compaction.
type ContextWindow struct {
	// SessionID identifies the owning chat session.
	SessionID string `json:"session_id"`

	// AgentID identifies the agent this window belongs to.
	AgentID string `json:"agent_id"`

	// AgentName is the agent's display name, used in summaries and handoffs.
	AgentName string `json:"agent_name"`

	// Messages is the ordered message sequence. Append-only except for
	// summarization compaction, which replaces a prefix with one synthetic
	// system message.
	Messages []ContextMessage `json:"messages"`

	// TotalTokens is the running token total across Messages.
	TotalTokens int `json:"total_tokens"`

	// MaxTokens is the configured token budget for this window.
	MaxTokens int `json:"max_tokens"`

	// SystemPrompt is the optional prompt associated with this window. It is
	// stored alongside the window rather than as a message so compaction
	// never touches it.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// LastActive is updated on every append.
	LastActive time.Time `json:"last_active"`
}

// Stats returns a read-only diagnostic snapshot of the window.
func (w *ContextWindow) Stats() WindowStats {
	usage := 0.0
	if w.MaxTokens > 0 {
		usage = float64(w.TotalTokens) / float64(w.MaxTokens) * 100
	}
	return WindowStats{
		MessageCount: len(w.Messages),
		TotalTokens:  w.TotalTokens,
		MaxTokens:    w.MaxTokens,
		UsagePercent: usage,
		LastActive:   w.LastActive,
	}
}

// WindowStats is a point-in-time snapshot of a window's occupancy. A zero
// value is returned for windows that do not exist.
type WindowStats struct {
	MessageCount int       `json:"message_count"`
	TotalTokens  int       `json:"total_tokens"`
	MaxTokens    int       `json:"max_tokens"`
	UsagePercent float64   `json:"usage_percent"`
	LastActive   time.Time `json:"last_active"`
}
