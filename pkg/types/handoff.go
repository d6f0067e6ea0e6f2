package types

import "time"

// HandoffStatus tracks the lifecycle of a handoff package.
type HandoffStatus string

// Handoff status constants
const (
	// HandoffPending indicates the package was created and injected but the
	// receiving agent has not acknowledged it
	HandoffPending HandoffStatus = "pending"

	// HandoffAccepted indicates the receiving agent acknowledged the handoff
	HandoffAccepted HandoffStatus = "accepted"

	// HandoffCompleted indicates the receiving agent finished the handed-off work
	HandoffCompleted HandoffStatus = "completed"
)

// ValidHandoffStatuses contains all valid status values.
var ValidHandoffStatuses = []HandoffStatus{HandoffPending, HandoffAccepted, HandoffCompleted}

// IsValidHandoffStatus checks if the given status is a valid handoff status.
func IsValidHandoffStatus(status HandoffStatus) bool {
	for _, s := range ValidHandoffStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// IsValidHandoffTransition validates status transitions. The machine only
// moves forward and never skips a state:
//
//	pending -> accepted
//	accepted -> completed
//	completed -> (terminal, no transitions out)
//
// In particular, completing a still-pending package is rejected.
func IsValidHandoffTransition(current, next HandoffStatus) bool {
	switch current {
	case HandoffPending:
		return next == HandoffAccepted

	case HandoffAccepted:
		return next == HandoffCompleted

	case HandoffCompleted:
		return false // Terminal state, no transitions out

	default:
		return false // Unknown current state
	}
}

// HandoffContext is the structured context block transferred with a handoff.
type HandoffContext struct {
	// Summary is a short description of the conversation so far.
	Summary string `json:"summary"`

	// KeyPoints are the facts the receiving agent should know.
	KeyPoints []string `json:"key_points,omitempty"`

	// OriginalRequest is the user's request that started the work.
	OriginalRequest string `json:"original_request"`

	// WorkCompleted lists what the source agent already did.
	WorkCompleted []string `json:"work_completed,omitempty"`

	// PendingTasks lists what remains for the receiving agent.
	PendingTasks []string `json:"pending_tasks,omitempty"`
}

// HandoffPackage is the tracked record of one agent-to-agent context
// transfer. The package itself is process-local bookkeeping; the transferred
// context reaches the receiving agent as an injected window message.
type HandoffPackage struct {
	// ID is a generated unique identifier.
	ID string `json:"id"`

	// FromAgentID and FromAgentName identify the source agent.
	FromAgentID   string `json:"from_agent_id"`
	FromAgentName string `json:"from_agent_name"`

	// ToAgentID and ToAgentName identify the destination agent.
	ToAgentID   string `json:"to_agent_id"`
	ToAgentName string `json:"to_agent_name"`

	// SessionID and UserID scope the handoff.
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	// Context is the structured context block.
	Context HandoffContext `json:"context"`

	// Data is an opaque payload interpreted by the receiving agent's logic.
	Data map[string]any `json:"data,omitempty"`

	// Instructions are optional directions for the receiving agent.
	Instructions string `json:"instructions,omitempty"`

	// Status only advances forward: pending -> accepted -> completed.
	Status HandoffStatus `json:"status"`

	// CreatedAt is when the package was built.
	CreatedAt time.Time `json:"created_at"`

	// AcceptedAt and CompletedAt record when each transition happened.
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
