// Package sqlite provides a SQLite implementation of the agent memory
// persistence port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pluralchat/mnemo/internal/storage"
	"github.com/pluralchat/mnemo/pkg/types"
)

// Store implements storage.AgentMemoryPort using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at the given DSN (a file path or
// ":memory:"), configures WAL mode, and applies the schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Connections live for the lifetime of the store.

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Wait instead of returning an immediate SQLITE_BUSY when the connection
	// is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load retrieves the memory for (userID, agentID).
func (s *Store) Load(ctx context.Context, userID, agentID string) (*types.AgentMemory, error) {
	if userID == "" || agentID == "" {
		return nil, fmt.Errorf("%w: user and agent IDs are required", storage.ErrInvalidInput)
	}

	var (
		entriesJSON, preferencesJSON sql.NullString
		interactionCount             int
		lastInteraction              sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT entries, preferences, interaction_count, last_interaction
		FROM agent_memories
		WHERE user_id = ? AND agent_id = ?
	`, userID, agentID).Scan(&entriesJSON, &preferencesJSON, &interactionCount, &lastInteraction)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load agent memory: %w", err)
	}

	memory := &types.AgentMemory{
		UserID:           userID,
		AgentID:          agentID,
		InteractionCount: interactionCount,
	}
	if lastInteraction.Valid {
		memory.LastInteraction = lastInteraction.Time
	}

	if entriesJSON.Valid && entriesJSON.String != "" {
		if err := json.Unmarshal([]byte(entriesJSON.String), &memory.Entries); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal entries: %w", err)
		}
	}
	if preferencesJSON.Valid && preferencesJSON.String != "" {
		if err := json.Unmarshal([]byte(preferencesJSON.String), &memory.Preferences); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal preferences: %w", err)
		}
	}

	return memory, nil
}

// Upsert creates or replaces the memory record for (memory.UserID, memory.AgentID).
func (s *Store) Upsert(ctx context.Context, memory *types.AgentMemory) error {
	if memory == nil {
		return storage.ErrInvalidInput
	}
	if memory.UserID == "" || memory.AgentID == "" {
		return fmt.Errorf("%w: user and agent IDs are required", storage.ErrInvalidInput)
	}

	entriesJSON, err := json.Marshal(memory.Entries)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal entries: %w", err)
	}

	var preferencesJSON []byte
	if memory.Preferences != nil {
		preferencesJSON, err = json.Marshal(memory.Preferences)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal preferences: %w", err)
		}
	}

	lastInteraction := memory.LastInteraction
	if lastInteraction.IsZero() {
		lastInteraction = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_memories (
			user_id, agent_id, entries, preferences,
			interaction_count, last_interaction, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, agent_id) DO UPDATE SET
			entries = excluded.entries,
			preferences = excluded.preferences,
			interaction_count = excluded.interaction_count,
			last_interaction = excluded.last_interaction,
			updated_at = CURRENT_TIMESTAMP
	`, memory.UserID, memory.AgentID, string(entriesJSON), nullableString(preferencesJSON),
		memory.InteractionCount, lastInteraction)
	if err != nil {
		return fmt.Errorf("sqlite: failed to upsert agent memory: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
