package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pluralchat/mnemo/pkg/types"
)

// historyDigestLimit caps how many history entries a digest carries.
const historyDigestLimit = 5

// BuildDigest renders the agent's memory of the user as prompt-ready text,
// grouped by category. History is capped at the five most recently updated
// entries; every other category appears in full. An empty memory renders as
// the empty string.
func (s *Store) BuildDigest(ctx context.Context, userID, agentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getOrCreateLocked(ctx, userID, agentID)
	if len(mem.Entries) == 0 && len(mem.Preferences) == 0 {
		return ""
	}

	byCategory := make(map[types.KnowledgeCategory][]types.KnowledgeEntry)
	for _, e := range mem.Entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	var b strings.Builder
	for _, cat := range types.KnowledgeCategories {
		entries := byCategory[cat]
		if cat == types.CategoryHistory && len(entries) > historyDigestLimit {
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
			})
			entries = entries[:historyDigestLimit]
		}
		if len(entries) == 0 && !(cat == types.CategoryPreferences && len(mem.Preferences) > 0) {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", cat)
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Value)
		}
		if cat == types.CategoryPreferences {
			keys := make([]string, 0, len(mem.Preferences))
			for k := range mem.Preferences {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "- %s: %s\n", k, mem.Preferences[k])
			}
		}
	}
	return b.String()
}
