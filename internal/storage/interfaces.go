// Package storage defines the persistence port for agent memories.
//
// The core keeps its authoritative state in memory; durable storage is a
// best-effort write-through behind this small interface so backends can be
// swapped (sqlite, postgres) or disabled entirely.
package storage

import (
	"context"
	"errors"

	"github.com/pluralchat/mnemo/pkg/types"
)

var (
	// ErrNotFound indicates that no persisted record exists for the key.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// AgentMemoryPort loads and persists agent memories keyed by (userID,
// agentID). Implementations carry their own timeout/retry policy; the core
// treats read failures as not-found and swallows write failures with a log.
type AgentMemoryPort interface {
	// Load retrieves the memory for (userID, agentID).
	// Returns ErrNotFound if no record exists.
	Load(ctx context.Context, userID, agentID string) (*types.AgentMemory, error)

	// Upsert creates or replaces the memory record (upsert by (userID, agentID)).
	Upsert(ctx context.Context, memory *types.AgentMemory) error

	// Close releases any resources held by the port.
	Close() error
}
