// Package handoff coordinates transfers of a conversation from one agent to
// another: packaging the context the receiving agent needs, delivering it
// into the receiver's context window, and tracking each transfer through its
// lifecycle.
package handoff

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pluralchat/mnemo/internal/window"
	"github.com/pluralchat/mnemo/pkg/types"
)

// ErrHandoffNotFound is returned when no handoff exists with the given ID.
var ErrHandoffNotFound = fmt.Errorf("handoff not found")

// Coordinator tracks handoff packages and delivers them into context
// windows. All methods are safe for concurrent use.
type Coordinator struct {
	mu       sync.RWMutex
	handoffs map[string]*types.HandoffPackage
	windows  *window.Manager
}

// NewCoordinator creates a coordinator delivering into windows.
func NewCoordinator(windows *window.Manager) *Coordinator {
	return &Coordinator{
		handoffs: make(map[string]*types.HandoffPackage),
		windows:  windows,
	}
}

// CreateParams describes a handoff to create.
type CreateParams struct {
	FromAgentID   string
	FromAgentName string
	ToAgentID     string
	ToAgentName   string
	SessionID     string
	UserID        string
	Context       types.HandoffContext
	Data          map[string]any
	Instructions  string
}

// Create registers a new pending handoff and appends its rendered briefing
// to the receiving agent's context window in the session. Delivery failure
// (no such window) is logged; the handoff is still created and can be
// accepted.
func (c *Coordinator) Create(p CreateParams) *types.HandoffPackage {
	pkg := &types.HandoffPackage{
		ID:            uuid.New().String(),
		FromAgentID:   p.FromAgentID,
		FromAgentName: p.FromAgentName,
		ToAgentID:     p.ToAgentID,
		ToAgentName:   p.ToAgentName,
		SessionID:     p.SessionID,
		UserID:        p.UserID,
		Context:       p.Context,
		Data:          p.Data,
		Instructions:  p.Instructions,
		Status:        types.HandoffPending,
		CreatedAt:     time.Now(),
	}

	c.mu.Lock()
	c.handoffs[pkg.ID] = pkg
	c.mu.Unlock()

	msg := types.ContextMessage{
		Role:    types.RoleHandoff,
		Content: renderBriefing(pkg),
		Handoff: &types.HandoffMeta{
			FromAgent: p.FromAgentID,
			ToAgent:   p.ToAgentID,
			Kind:      "delegation",
		},
	}
	if err := c.windows.Append(p.SessionID, p.ToAgentID, msg); err != nil {
		log.Printf("handoff: briefing not delivered for %s (session=%s to=%s): %v",
			pkg.ID, p.SessionID, p.ToAgentID, err)
	}
	return pkg
}

// Accept moves a pending handoff to accepted and stamps AcceptedAt. Any
// other starting status is rejected.
func (c *Coordinator) Accept(id string) (*types.HandoffPackage, error) {
	return c.transition(id, types.HandoffAccepted)
}

// Complete moves an accepted handoff to completed and stamps CompletedAt. A
// handoff that was never accepted cannot be completed.
func (c *Coordinator) Complete(id string) (*types.HandoffPackage, error) {
	return c.transition(id, types.HandoffCompleted)
}

func (c *Coordinator) transition(id string, next types.HandoffStatus) (*types.HandoffPackage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pkg, ok := c.handoffs[id]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	if !types.IsValidHandoffTransition(pkg.Status, next) {
		return nil, fmt.Errorf("invalid handoff transition %s -> %s for %s", pkg.Status, next, id)
	}

	now := time.Now()
	pkg.Status = next
	switch next {
	case types.HandoffAccepted:
		pkg.AcceptedAt = &now
	case types.HandoffCompleted:
		pkg.CompletedAt = &now
	}
	return pkg, nil
}

// Get returns the handoff with the given ID.
func (c *Coordinator) Get(id string) (*types.HandoffPackage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pkg, ok := c.handoffs[id]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	return pkg, nil
}

// PendingFor returns the pending handoffs addressed to the agent, oldest
// first.
func (c *Coordinator) PendingFor(agentID string) []*types.HandoffPackage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*types.HandoffPackage
	for _, pkg := range c.handoffs {
		if pkg.ToAgentID == agentID && pkg.Status == types.HandoffPending {
			out = append(out, pkg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ForSession returns every handoff in the session, oldest first.
func (c *Coordinator) ForSession(sessionID string) []*types.HandoffPackage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*types.HandoffPackage
	for _, pkg := range c.handoffs {
		if pkg.SessionID == sessionID {
			out = append(out, pkg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// renderBriefing formats a handoff package as the message the receiving
// agent reads.
func renderBriefing(pkg *types.HandoffPackage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Handoff from %s.\n", pkg.FromAgentName)

	if pkg.Context.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", pkg.Context.Summary)
	}
	if pkg.Context.OriginalRequest != "" {
		fmt.Fprintf(&b, "\nOriginal request: %s\n", pkg.Context.OriginalRequest)
	}
	if len(pkg.Context.WorkCompleted) > 0 {
		b.WriteString("\nWork completed:\n")
		for _, done := range pkg.Context.WorkCompleted {
			fmt.Fprintf(&b, "- %s\n", done)
		}
	}
	if len(pkg.Context.KeyPoints) > 0 {
		b.WriteString("\nKey points:\n")
		for _, kp := range pkg.Context.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
	}
	if len(pkg.Context.PendingTasks) > 0 {
		b.WriteString("\nPending tasks:\n")
		for _, task := range pkg.Context.PendingTasks {
			fmt.Fprintf(&b, "- %s\n", task)
		}
	}
	if pkg.Instructions != "" {
		fmt.Fprintf(&b, "\nInstructions: %s\n", pkg.Instructions)
	}
	if len(pkg.Data) > 0 {
		if data, err := json.Marshal(pkg.Data); err == nil {
			fmt.Fprintf(&b, "\nAttached data: %s\n", data)
		}
	}
	return b.String()
}
