package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pluralchat/mnemo/internal/storage"
	"github.com/pluralchat/mnemo/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestUpsertAndLoadRoundTrip verifies that entries, preferences, and
// interaction metadata survive a write/read cycle.
func TestUpsertAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	mem := &types.AgentMemory{
		UserID:  "user-1",
		AgentID: "agent-eng",
		Entries: []types.KnowledgeEntry{
			{
				ID:         "k1",
				Category:   types.CategoryPersonal,
				Key:        "name",
				Value:      "Ada",
				Confidence: 0.95,
				Source:     types.SourceUserStated,
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			{
				ID:         "k2",
				Category:   types.CategoryGoals,
				Key:        "project",
				Value:      "migrate billing to v2",
				Confidence: 0.8,
				Source:     types.SourceInferred,
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		},
		Preferences:      map[string]string{"tone": "concise"},
		LastInteraction:  now,
		InteractionCount: 7,
	}

	if err := store.Upsert(ctx, mem); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := store.Load(ctx, "user-1", "agent-eng")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(got.Entries) != 2 {
		t.Fatalf("Entries: got %d, want 2", len(got.Entries))
	}
	if got.Entries[0].Key != "name" || got.Entries[0].Value != "Ada" {
		t.Errorf("first entry: got (%q, %q)", got.Entries[0].Key, got.Entries[0].Value)
	}
	if got.Entries[1].Category != types.CategoryGoals {
		t.Errorf("second entry category: got %q, want %q", got.Entries[1].Category, types.CategoryGoals)
	}
	if got.Entries[0].Confidence != 0.95 {
		t.Errorf("confidence: got %f, want 0.95", got.Entries[0].Confidence)
	}
	if got.Preferences["tone"] != "concise" {
		t.Errorf("preferences[tone]: got %q, want %q", got.Preferences["tone"], "concise")
	}
	if got.InteractionCount != 7 {
		t.Errorf("InteractionCount: got %d, want 7", got.InteractionCount)
	}
	if got.LastInteraction.IsZero() {
		t.Error("LastInteraction: got zero value")
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "nobody", "no-agent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() error: got %v, want ErrNotFound", err)
	}
}

// TestUpsertReplaces verifies upsert-by-key semantics: a second write for the
// same (user, agent) replaces the record instead of duplicating it.
func TestUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &types.AgentMemory{
		UserID:  "user-1",
		AgentID: "agent-eng",
		Entries: []types.KnowledgeEntry{
			{ID: "k1", Category: types.CategoryNotes, Key: "style", Value: "terse", Source: types.SourceInferred},
		},
		InteractionCount: 1,
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() failed: %v", err)
	}

	second := &types.AgentMemory{
		UserID:  "user-1",
		AgentID: "agent-eng",
		Entries: []types.KnowledgeEntry{
			{ID: "k1", Category: types.CategoryNotes, Key: "style", Value: "verbose", Source: types.SourceUserStated},
			{ID: "k2", Category: types.CategoryHistory, Key: "last-topic", Value: "billing", Source: types.SourceInferred},
		},
		InteractionCount: 2,
	}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() failed: %v", err)
	}

	got, err := store.Load(ctx, "user-1", "agent-eng")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("Entries after replace: got %d, want 2", len(got.Entries))
	}
	if got.Entries[0].Value != "verbose" {
		t.Errorf("replaced entry value: got %q, want %q", got.Entries[0].Value, "verbose")
	}
	if got.InteractionCount != 2 {
		t.Errorf("InteractionCount: got %d, want 2", got.InteractionCount)
	}
}

func TestUpsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Upsert(nil): got %v, want ErrInvalidInput", err)
	}
	if err := store.Upsert(ctx, &types.AgentMemory{AgentID: "a"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Upsert(missing user): got %v, want ErrInvalidInput", err)
	}
	if _, err := store.Load(ctx, "", "a"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Load(empty user): got %v, want ErrInvalidInput", err)
	}
}

// TestKeysAreIndependent verifies that different (user, agent) pairs do not
// collide even when their concatenations would.
func TestKeysAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := &types.AgentMemory{UserID: "u1", AgentID: "x::y", InteractionCount: 1}
	b := &types.AgentMemory{UserID: "u1::x", AgentID: "y", InteractionCount: 2}

	if err := store.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert(a) failed: %v", err)
	}
	if err := store.Upsert(ctx, b); err != nil {
		t.Fatalf("Upsert(b) failed: %v", err)
	}

	gotA, err := store.Load(ctx, "u1", "x::y")
	if err != nil {
		t.Fatalf("Load(a) failed: %v", err)
	}
	gotB, err := store.Load(ctx, "u1::x", "y")
	if err != nil {
		t.Fatalf("Load(b) failed: %v", err)
	}
	if gotA.InteractionCount != 1 || gotB.InteractionCount != 2 {
		t.Errorf("records collided: got %d and %d, want 1 and 2",
			gotA.InteractionCount, gotB.InteractionCount)
	}
}
