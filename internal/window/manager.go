// Package window manages per-agent conversation context windows: token
// accounting on append, automatic summarization under budget pressure, and
// token-bounded retrieval for model calls.
package window

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pluralchat/mnemo/internal/tokens"
	"github.com/pluralchat/mnemo/pkg/types"
)

// ErrWindowNotFound is returned when no window exists for a session/agent pair.
var ErrWindowNotFound = fmt.Errorf("window not found")

const (
	// summarizeThreshold is the usage fraction that triggers summarization
	// on append.
	summarizeThreshold = 0.80

	// retrieveThreshold is the usage fraction above which ForModelCall
	// returns a token-bounded suffix instead of the full window.
	retrieveThreshold = 0.90
)

// Options configures a Manager.
type Options struct {
	// DefaultMaxTokens is the budget for windows created without an
	// explicit one. Zero means 128000.
	DefaultMaxTokens int

	// AutoCreate makes Append create a missing window with defaults
	// instead of dropping the message.
	AutoCreate bool
}

// Manager owns all context windows, keyed by session then agent. All methods
// are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]map[string]*types.ContextWindow
	estimator tokens.Estimator
	opts      Options
}

// NewManager creates a window manager using est for token accounting.
func NewManager(est tokens.Estimator, opts Options) *Manager {
	if opts.DefaultMaxTokens <= 0 {
		opts.DefaultMaxTokens = 128000
	}
	return &Manager{
		sessions:  make(map[string]map[string]*types.ContextWindow),
		estimator: est,
		opts:      opts,
	}
}

// GetOrCreate returns the window for the session/agent pair, creating it if
// absent. systemPrompt may be empty; maxTokens <= 0 uses the manager
// default. Calling it again for an existing pair returns the same window
// untouched.
func (m *Manager) GetOrCreate(sessionID, agentID, agentName, systemPrompt string, maxTokens int) *types.ContextWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(sessionID, agentID, agentName, systemPrompt, maxTokens)
}

func (m *Manager) getOrCreateLocked(sessionID, agentID, agentName, systemPrompt string, maxTokens int) *types.ContextWindow {
	agents, ok := m.sessions[sessionID]
	if !ok {
		agents = make(map[string]*types.ContextWindow)
		m.sessions[sessionID] = agents
	}
	if w, ok := agents[agentID]; ok {
		return w
	}
	if maxTokens <= 0 {
		maxTokens = m.opts.DefaultMaxTokens
	}
	w := &types.ContextWindow{
		SessionID:    sessionID,
		AgentID:      agentID,
		AgentName:    agentName,
		Messages:     []types.ContextMessage{},
		MaxTokens:    maxTokens,
		SystemPrompt: systemPrompt,
		LastActive:   time.Now(),
	}
	agents[agentID] = w
	return w
}

// SetSystemPrompt records the system prompt on an existing window.
func (m *Manager) SetSystemPrompt(sessionID, agentID, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.lookupLocked(sessionID, agentID)
	if w == nil {
		return ErrWindowNotFound
	}
	w.SystemPrompt = prompt
	return nil
}

// Append adds a message to the window for the session/agent pair. The token
// cost is estimated from the content, window totals and LastActive are
// updated, and if usage then exceeds 80% of the budget the oldest 70% of
// messages are collapsed into a single summary. Summarization runs at most
// once per call.
//
// When no window exists the behavior depends on AutoCreate: with it on, a
// window is created with defaults first; with it off, the message is dropped
// with a warning and ErrWindowNotFound is returned.
func (m *Manager) Append(sessionID, agentID string, msg types.ContextMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.lookupLocked(sessionID, agentID)
	if w == nil {
		if !m.opts.AutoCreate {
			log.Printf("window: dropping message for unknown window session=%s agent=%s", sessionID, agentID)
			return ErrWindowNotFound
		}
		w = m.getOrCreateLocked(sessionID, agentID, "", "", 0)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.TokenCost = m.estimator.Estimate(msg.Content)

	w.Messages = append(w.Messages, msg)
	w.TotalTokens += msg.TokenCost
	w.LastActive = time.Now()

	if float64(w.TotalTokens) > summarizeThreshold*float64(w.MaxTokens) {
		m.summarizeLocked(w)
	}
	return nil
}

// ForModelCall returns the messages to send to the model, in chronological
// order. At or below 90% usage that is the whole window; above it, the most
// recent suffix whose token cost fits in 90% of the budget. The returned
// slice is a copy.
func (m *Manager) ForModelCall(sessionID, agentID string) ([]types.ContextMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := m.lookupLocked(sessionID, agentID)
	if w == nil {
		return nil, ErrWindowNotFound
	}

	limit := int(retrieveThreshold * float64(w.MaxTokens))
	if w.TotalTokens <= limit {
		out := make([]types.ContextMessage, len(w.Messages))
		copy(out, w.Messages)
		return out, nil
	}

	// Walk backwards collecting the newest messages that fit the budget,
	// then return them oldest-first.
	start := len(w.Messages)
	budget := limit
	for i := len(w.Messages) - 1; i >= 0; i-- {
		cost := w.Messages[i].TokenCost
		if cost > budget {
			break
		}
		budget -= cost
		start = i
	}
	out := make([]types.ContextMessage, len(w.Messages)-start)
	copy(out, w.Messages[start:])
	return out, nil
}

// Stats returns usage statistics for the window, or a zero-valued snapshot
// when the window does not exist.
func (m *Manager) Stats(sessionID, agentID string) types.WindowStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := m.lookupLocked(sessionID, agentID)
	if w == nil {
		return types.WindowStats{}
	}
	return w.Stats()
}

// Clear removes a single window. Clearing a missing window is a no-op.
func (m *Manager) Clear(sessionID, agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(agents, agentID)
	if len(agents) == 0 {
		delete(m.sessions, sessionID)
	}
}

// ClearSession removes every window belonging to the session.
func (m *Manager) ClearSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Sessions returns the IDs of all sessions with at least one window.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}

// WindowCount returns the total number of live windows across all sessions.
func (m *Manager) WindowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, agents := range m.sessions {
		n += len(agents)
	}
	return n
}

// lookupLocked returns the window or nil. Callers hold m.mu.
func (m *Manager) lookupLocked(sessionID, agentID string) *types.ContextWindow {
	if agents, ok := m.sessions[sessionID]; ok {
		return agents[agentID]
	}
	return nil
}
