package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/pluralchat/mnemo/internal/config"
	"github.com/pluralchat/mnemo/internal/handoff"
	"github.com/pluralchat/mnemo/pkg/types"
)

func newMemoryEngine(t *testing.T, maxTokens int) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Engine = "none"
	cfg.Window.DefaultMaxTokens = maxTokens
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Engine = "redis"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown storage engine")
	}

	cfg = config.Default()
	cfg.Tokens.Estimator = "vibes"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown estimator")
	}
}

func TestNilConfigUsesDefaults(t *testing.T) {
	// Defaults want sqlite; steer to cache-only via env.
	t.Setenv("MNEMO_STORAGE_ENGINE", "none")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if e.Windows() == nil || e.Knowledge() == nil || e.Handoffs() == nil || e.Estimator() == nil {
		t.Fatal("expected all subsystems wired")
	}
}

func TestSQLiteEngineRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataPath = t.TempDir()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	_, err = e.Knowledge().AddKnowledge(ctx, "u1", "a1", types.KnowledgeEntry{
		Category:   types.CategoryPersonal,
		Key:        "name",
		Value:      "Ada",
		Confidence: 1,
		Source:     types.SourceUserStated,
	})
	if err != nil {
		t.Fatalf("AddKnowledge: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh engine over the same data dir sees the persisted memory.
	e2, err := New(cfg)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	defer e2.Close()

	all := e2.Knowledge().GetAll(ctx, "u1", "a1")
	if len(all) != 1 || all[0].Value != "Ada" {
		t.Fatalf("expected persisted entry to survive restart, got %+v", all)
	}
}

func TestConversationLifecycle(t *testing.T) {
	e := newMemoryEngine(t, 200)
	w := e.Windows()
	w.GetOrCreate("s1", "writer", "Writer", "", 0)

	// 80 chars of unbroken text estimates to 20 tokens, so the window
	// crosses the 80% threshold on the ninth append.
	content := strings.Repeat("x", 80)
	for i := 0; i < 9; i++ {
		if err := w.Append("s1", "writer", types.ContextMessage{Role: types.RoleUser, Content: content}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	stats := w.Stats("s1", "writer")
	if stats.MessageCount != 4 {
		t.Errorf("expected summary plus three recent messages, got %d", stats.MessageCount)
	}
	if stats.TotalTokens <= 0 || stats.TotalTokens >= 180 {
		t.Errorf("expected recomputed total under the budget, got %d", stats.TotalTokens)
	}

	msgs, err := w.ForModelCall("s1", "writer")
	if err != nil {
		t.Fatalf("ForModelCall: %v", err)
	}
	if msgs[0].Role != types.RoleSystem {
		t.Errorf("expected the summary to lead the window, got %q", msgs[0].Role)
	}

	// Hand the session to a second agent and check delivery end to end.
	w.GetOrCreate("s1", "reviewer", "Reviewer", "", 0)
	pkg := e.Handoffs().Create(handoff.CreateParams{
		FromAgentID:   "writer",
		FromAgentName: "Writer",
		ToAgentID:     "reviewer",
		ToAgentName:   "Reviewer",
		SessionID:     "s1",
		UserID:        "u1",
		Context:       types.HandoffContext{Summary: "Draft ready for review"},
	})
	if _, err := e.Handoffs().Accept(pkg.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := e.Handoffs().Complete(pkg.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	delivered, err := w.ForModelCall("s1", "reviewer")
	if err != nil {
		t.Fatalf("ForModelCall (reviewer): %v", err)
	}
	if len(delivered) != 1 || delivered[0].Role != types.RoleHandoff {
		t.Fatalf("expected one handoff briefing in the reviewer window, got %d", len(delivered))
	}
}
