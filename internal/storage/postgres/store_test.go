package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/pluralchat/mnemo/internal/storage"
	"github.com/pluralchat/mnemo/pkg/types"
)

// newTestStore connects to the PostgreSQL instance named by
// POSTGRES_TEST_DSN. If the variable is not set, tests are skipped.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	store, err := NewStore(dsn)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mem := &types.AgentMemory{
		UserID:  "pgtest-user",
		AgentID: "pgtest-agent",
		Entries: []types.KnowledgeEntry{
			{ID: "k1", Category: types.CategoryPreferences, Key: "language", Value: "Go", Confidence: 1, Source: types.SourceUserStated},
		},
		Preferences:      map[string]string{"tone": "direct"},
		InteractionCount: 3,
	}

	if err := store.Upsert(ctx, mem); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := store.Load(ctx, "pgtest-user", "pgtest-agent")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Value != "Go" {
		t.Errorf("entries did not round-trip: %+v", got.Entries)
	}
	if got.Preferences["tone"] != "direct" {
		t.Errorf("preferences[tone]: got %q, want %q", got.Preferences["tone"], "direct")
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "pgtest-nobody", "pgtest-none")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() error: got %v, want ErrNotFound", err)
	}
}
