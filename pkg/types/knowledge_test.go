package types_test

import (
	"testing"

	"github.com/pluralchat/mnemo/pkg/types"
)

func TestKnowledgeEntryValidate(t *testing.T) {
	valid := types.KnowledgeEntry{
		Category:   types.CategoryPersonal,
		Key:        "name",
		Value:      "Ada",
		Confidence: 0.9,
		Source:     types.SourceUserStated,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid entry, got error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*types.KnowledgeEntry)
	}{
		{"missing key", func(e *types.KnowledgeEntry) { e.Key = "" }},
		{"bad category", func(e *types.KnowledgeEntry) { e.Category = "secrets" }},
		{"bad source", func(e *types.KnowledgeEntry) { e.Source = "telepathy" }},
		{"confidence below range", func(e *types.KnowledgeEntry) { e.Confidence = -0.1 }},
		{"confidence above range", func(e *types.KnowledgeEntry) { e.Confidence = 1.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

// TestFindEntryAliasesSlice verifies that FindEntry returns a pointer into
// the Entries slice so in-place updates stick.
func TestFindEntryAliasesSlice(t *testing.T) {
	m := types.AgentMemory{
		UserID:  "u1",
		AgentID: "a1",
		Entries: []types.KnowledgeEntry{
			{ID: "k1", Category: types.CategoryGoals, Key: "project", Value: "ship v1"},
			{ID: "k2", Category: types.CategoryNotes, Key: "style", Value: "terse"},
		},
	}

	e := m.FindEntry(types.CategoryNotes, "style")
	if e == nil {
		t.Fatal("expected to find entry (notes, style)")
	}
	e.Value = "verbose"

	if m.Entries[1].Value != "verbose" {
		t.Errorf("in-place update did not stick: got %q", m.Entries[1].Value)
	}

	if m.FindEntry(types.CategoryGoals, "style") != nil {
		t.Error("category must participate in the match key")
	}
	if m.FindEntry(types.CategoryNotes, "missing") != nil {
		t.Error("expected nil for unknown key")
	}
}

func TestAgentMemoryTouch(t *testing.T) {
	m := types.AgentMemory{UserID: "u1", AgentID: "a1"}

	m.Touch()
	m.Touch()

	if m.InteractionCount != 2 {
		t.Errorf("InteractionCount: got %d, want 2", m.InteractionCount)
	}
	if m.LastInteraction.IsZero() {
		t.Error("LastInteraction not set")
	}
}
