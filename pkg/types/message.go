// Package types defines the core data structures for the mnemo agent memory
// subsystem: context messages and windows, per-user agent knowledge, and
// handoff packages exchanged between agents mid-conversation.
package types

import "time"

// Role identifies who produced a context message.
type Role string

// Message role constants
const (
	// RoleUser marks an inbound end-user turn
	RoleUser Role = "user"

	// RoleAssistant marks an agent completion
	RoleAssistant Role = "assistant"

	// RoleSystem marks a system prompt or synthetic summary message
	RoleSystem Role = "system"

	// RoleHandoff marks a context-transfer message injected by the
	// handoff coordinator
	RoleHandoff Role = "handoff"
)

// ValidRoles is a slice of all valid message roles for validation.
var ValidRoles = []Role{RoleUser, RoleAssistant, RoleSystem, RoleHandoff}

// IsValidRole checks if the given role is a valid message role.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles {
		if role == r {
			return true
		}
	}
	return false
}

// HandoffMeta carries handoff provenance on a context message. It is only
// present on messages with RoleHandoff.
type HandoffMeta struct {
	// FromAgent is the agent ID that initiated the handoff.
	FromAgent string `json:"from_agent"`

	// ToAgent is the agent ID receiving the handoff.
	ToAgent string `json:"to_agent"`

	// Kind describes the handoff flavor (e.g. "delegation", "escalation").
	Kind string `json:"kind,omitempty"`
}

// ContextMessage is one entry in a context window. Messages are immutable
// once appended; the only mutation a window ever performs is replacing a
// prefix of messages with a synthetic summary message during compaction.
type ContextMessage struct {
	// Role identifies the message producer.
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is when the message was appended.
	CreatedAt time.Time `json:"created_at"`

	// TokenCost is the estimated token count of Content, computed once at
	// append time and cached here so window totals stay cheap to maintain.
	TokenCost int `json:"token_cost"`

	// Handoff is set only on RoleHandoff messages.
	Handoff *HandoffMeta `json:"handoff,omitempty"`
}
