package types

import (
	"fmt"
	"time"
)

// KnowledgeCategory classifies a knowledge entry.
type KnowledgeCategory string

// Knowledge category constants
const (
	// CategoryPersonal holds facts about the user (name, role, timezone)
	CategoryPersonal KnowledgeCategory = "personal"

	// CategoryPreferences holds stated or inferred user preferences
	CategoryPreferences KnowledgeCategory = "preferences"

	// CategoryHistory holds notable past interactions
	CategoryHistory KnowledgeCategory = "history"

	// CategoryGoals holds the user's stated objectives
	CategoryGoals KnowledgeCategory = "goals"

	// CategoryNotes holds free-form agent observations
	CategoryNotes KnowledgeCategory = "notes"
)

// KnowledgeCategories is a slice of all valid categories for validation and
// for stable iteration order when rendering digests.
var KnowledgeCategories = []KnowledgeCategory{
	CategoryPersonal,
	CategoryPreferences,
	CategoryHistory,
	CategoryGoals,
	CategoryNotes,
}

// IsValidKnowledgeCategory checks if the given category is a valid knowledge category.
func IsValidKnowledgeCategory(category KnowledgeCategory) bool {
	for _, c := range KnowledgeCategories {
		if category == c {
			return true
		}
	}
	return false
}

// KnowledgeSource records how a knowledge entry was obtained.
type KnowledgeSource string

// Knowledge provenance constants
const (
	// SourceUserStated means the user said it directly
	SourceUserStated KnowledgeSource = "user-stated"

	// SourceInferred means the agent derived it from conversation
	SourceInferred KnowledgeSource = "inferred"

	// SourceHandoff means it arrived with a handoff from another agent
	SourceHandoff KnowledgeSource = "handoff"
)

// ValidKnowledgeSources is a slice of all valid provenance tags.
var ValidKnowledgeSources = []KnowledgeSource{SourceUserStated, SourceInferred, SourceHandoff}

// IsValidKnowledgeSource checks if the given source is a valid provenance tag.
func IsValidKnowledgeSource(source KnowledgeSource) bool {
	for _, s := range ValidKnowledgeSources {
		if source == s {
			return true
		}
	}
	return false
}

// KnowledgeEntry is one categorized fact in an agent's memory of a user.
//
// Invariant: an AgentMemory holds at most one entry per (Category, Key);
// a second write with the same pair updates the existing entry in place.
type KnowledgeEntry struct {
	// ID is a generated unique identifier.
	ID string `json:"id"`

	// Category classifies the entry (personal, preferences, history, goals, notes).
	Category KnowledgeCategory `json:"category"`

	// Key is the fact name, unique within the category.
	Key string `json:"key"`

	// Value is the fact content.
	Value string `json:"value"`

	// Confidence is how certain the writer was, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Source records provenance (user-stated, inferred, handoff).
	Source KnowledgeSource `json:"source"`

	// CreatedAt is when the entry was first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is bumped on every merge into this entry.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the entry's closed-set fields and confidence range.
func (e *KnowledgeEntry) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("knowledge entry key is required")
	}
	if !IsValidKnowledgeCategory(e.Category) {
		return fmt.Errorf("invalid knowledge category %q", e.Category)
	}
	if !IsValidKnowledgeSource(e.Source) {
		return fmt.Errorf("invalid knowledge source %q", e.Source)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %f outside [0, 1]", e.Confidence)
	}
	return nil
}

// AgentMemory is the persistent, per (user, agent) fact store. It is loaded
// lazily from durable storage on first access, cached in-process, and written
// through on every mutation.
type AgentMemory struct {
	// UserID identifies the end user this memory is about.
	UserID string `json:"user_id"`

	// AgentID identifies the agent that owns this memory.
	AgentID string `json:"agent_id"`

	// Entries is the ordered collection of knowledge entries.
	Entries []KnowledgeEntry `json:"entries"`

	// Preferences is a free-form preference map, separate from categorized
	// knowledge (e.g. "tone": "concise").
	Preferences map[string]string `json:"preferences,omitempty"`

	// LastInteraction is updated on every mutation.
	LastInteraction time.Time `json:"last_interaction"`

	// InteractionCount increases monotonically with each mutation.
	InteractionCount int `json:"interaction_count"`
}

// FindEntry returns a pointer to the entry matching (category, key), or nil.
// The pointer aliases the Entries slice so callers can update in place.
func (m *AgentMemory) FindEntry(category KnowledgeCategory, key string) *KnowledgeEntry {
	for i := range m.Entries {
		if m.Entries[i].Category == category && m.Entries[i].Key == key {
			return &m.Entries[i]
		}
	}
	return nil
}

// Touch records one interaction: it bumps the counter and the timestamp.
func (m *AgentMemory) Touch() {
	m.InteractionCount++
	m.LastInteraction = time.Now()
}
