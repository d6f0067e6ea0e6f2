// Package knowledge maintains long-lived per-user, per-agent memories:
// structured knowledge entries deduplicated by category and key, free-form
// preferences, and a digest renderer for system prompts. Memories live in an
// LRU cache backed by a persistence port; storage failures degrade the store
// to cache-only operation instead of failing callers.
package knowledge

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pluralchat/mnemo/internal/storage"
	"github.com/pluralchat/mnemo/pkg/types"
)

// defaultCacheSize bounds resident memories when Options leaves it zero.
const defaultCacheSize = 256

// memKey identifies one agent's memory of one user.
type memKey struct {
	UserID  string
	AgentID string
}

// Options configures a Store.
type Options struct {
	// CacheSize bounds how many memories stay resident. Zero means 256.
	CacheSize int
}

// Store manages agent memories. All methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	port  storage.AgentMemoryPort
	cache *lru.Cache[memKey, *types.AgentMemory]
}

// NewStore creates a knowledge store persisting through port. A nil port
// keeps memories in cache only.
func NewStore(port storage.AgentMemoryPort, opts Options) (*Store, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[memKey, *types.AgentMemory](size)
	if err != nil {
		return nil, fmt.Errorf("knowledge: failed to create cache: %w", err)
	}
	return &Store{port: port, cache: cache}, nil
}

// GetOrCreate returns the memory for the user/agent pair, loading it from
// storage on a cache miss and starting an empty one when storage has no
// record. Storage errors are logged and treated as a missing record.
func (s *Store) GetOrCreate(ctx context.Context, userID, agentID string) *types.AgentMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(ctx, userID, agentID)
}

func (s *Store) getOrCreateLocked(ctx context.Context, userID, agentID string) *types.AgentMemory {
	key := memKey{UserID: userID, AgentID: agentID}
	if mem, ok := s.cache.Get(key); ok {
		return mem
	}

	if s.port != nil {
		mem, err := s.port.Load(ctx, userID, agentID)
		if err == nil {
			s.cache.Add(key, mem)
			return mem
		}
		if err != storage.ErrNotFound {
			log.Printf("knowledge: load failed for user=%s agent=%s: %v", userID, agentID, err)
		}
	}

	mem := &types.AgentMemory{
		UserID:          userID,
		AgentID:         agentID,
		Entries:         []types.KnowledgeEntry{},
		Preferences:     make(map[string]string),
		LastInteraction: time.Now(),
	}
	s.cache.Add(key, mem)
	return mem
}

// AddKnowledge records an entry in the agent's memory of the user. An entry
// with the same category and key is updated in place; otherwise the entry is
// appended with a fresh ID and timestamps. The memory's interaction counter
// advances once per call, and the updated memory is written through to
// storage best-effort.
func (s *Store) AddKnowledge(ctx context.Context, userID, agentID string, entry types.KnowledgeEntry) (*types.KnowledgeEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	now := time.Now()

	var stored *types.KnowledgeEntry
	if existing := mem.FindEntry(entry.Category, entry.Key); existing != nil {
		existing.Value = entry.Value
		existing.Confidence = entry.Confidence
		existing.Source = entry.Source
		existing.UpdatedAt = now
		stored = existing
	} else {
		entry.ID = uuid.New().String()
		entry.CreatedAt = now
		entry.UpdatedAt = now
		mem.Entries = append(mem.Entries, entry)
		stored = &mem.Entries[len(mem.Entries)-1]
	}

	mem.Touch()
	s.persistLocked(mem)

	out := *stored
	return &out, nil
}

// GetByCategory returns a copy of the entries in one category.
func (s *Store) GetByCategory(ctx context.Context, userID, agentID string, category types.KnowledgeCategory) []types.KnowledgeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	var out []types.KnowledgeEntry
	for _, e := range mem.Entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// GetAll returns a copy of every entry in the agent's memory of the user.
func (s *Store) GetAll(ctx context.Context, userID, agentID string) []types.KnowledgeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	out := make([]types.KnowledgeEntry, len(mem.Entries))
	copy(out, mem.Entries)
	return out
}

// Forget removes the entry with the given category and key, reporting
// whether anything was removed. Removal is written through like AddKnowledge.
func (s *Store) Forget(ctx context.Context, userID, agentID string, category types.KnowledgeCategory, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	for i, e := range mem.Entries {
		if e.Category == category && e.Key == key {
			mem.Entries = append(mem.Entries[:i], mem.Entries[i+1:]...)
			mem.Touch()
			s.persistLocked(mem)
			return true
		}
	}
	return false
}

// SetPreference records a free-form preference on the memory.
func (s *Store) SetPreference(ctx context.Context, userID, agentID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	if mem.Preferences == nil {
		mem.Preferences = make(map[string]string)
	}
	mem.Preferences[key] = value
	mem.Touch()
	s.persistLocked(mem)
}

// Preferences returns a copy of the memory's preference map.
func (s *Store) Preferences(ctx context.Context, userID, agentID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	out := make(map[string]string, len(mem.Preferences))
	for k, v := range mem.Preferences {
		out[k] = v
	}
	return out
}

// Flush synchronously persists the memory for the pair, returning the
// storage error if any. It is for shutdown paths; normal mutation already
// writes through.
func (s *Store) Flush(ctx context.Context, userID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	key := memKey{UserID: userID, AgentID: agentID}
	mem, ok := s.cache.Get(key)
	if !ok {
		return nil
	}
	return s.port.Upsert(ctx, mem)
}

// persistLocked writes the memory through to storage. Failures are logged,
// never propagated: the cached copy stays authoritative. Callers hold s.mu.
func (s *Store) persistLocked(mem *types.AgentMemory) {
	if s.port == nil {
		return
	}
	if err := s.port.Upsert(context.Background(), mem); err != nil {
		log.Printf("knowledge: persist failed for user=%s agent=%s: %v", mem.UserID, mem.AgentID, err)
	}
}
