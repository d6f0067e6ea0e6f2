// Package engine wires the memory core together: token estimation, context
// windows, agent knowledge, and handoff coordination behind one facade.
package engine

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pluralchat/mnemo/internal/config"
	"github.com/pluralchat/mnemo/internal/handoff"
	"github.com/pluralchat/mnemo/internal/knowledge"
	"github.com/pluralchat/mnemo/internal/storage"
	"github.com/pluralchat/mnemo/internal/storage/postgres"
	"github.com/pluralchat/mnemo/internal/storage/sqlite"
	"github.com/pluralchat/mnemo/internal/tokens"
	"github.com/pluralchat/mnemo/internal/window"
)

// Engine is the top-level entry point for the memory core.
type Engine struct {
	cfg       *config.Config
	estimator tokens.Estimator
	windows   *window.Manager
	knowledge *knowledge.Store
	handoffs  *handoff.Coordinator
	port      storage.AgentMemoryPort
}

// New builds an engine from configuration: it opens the persistence backend,
// optionally wraps it in a circuit breaker, and constructs the window
// manager, knowledge store, and handoff coordinator on top.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := openPort(cfg)
	if err != nil {
		return nil, err
	}
	if port != nil && cfg.Breaker.Enabled {
		port = storage.NewBreakerPort(port, storage.BreakerConfig{
			MaxFailures: uint32(cfg.Breaker.MaxFailures),
			Timeout:     time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		})
	}

	est, err := newEstimator(cfg)
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, err
	}

	store, err := knowledge.NewStore(port, knowledge.Options{})
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, err
	}

	windows := window.NewManager(est, window.Options{
		DefaultMaxTokens: cfg.Window.DefaultMaxTokens,
		AutoCreate:       cfg.Window.AutoCreate,
	})

	return &Engine{
		cfg:       cfg,
		estimator: est,
		windows:   windows,
		knowledge: store,
		handoffs:  handoff.NewCoordinator(windows),
		port:      port,
	}, nil
}

// openPort creates the persistence backend named by the configuration.
// Engine "none" runs cache-only and returns a nil port.
func openPort(cfg *config.Config) (storage.AgentMemoryPort, error) {
	switch cfg.Storage.Engine {
	case "none":
		log.Println("engine: persistence disabled, memories are cache-only")
		return nil, nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("engine: failed to create data dir: %w", err)
		}
		return sqlite.NewStore(cfg.SQLitePath())
	case "postgres":
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("engine: unknown storage engine %q", cfg.Storage.Engine)
	}
}

// newEstimator creates the token estimator named by the configuration. When
// the tiktoken encoding cannot be loaded the heuristic is used instead, with
// a warning.
func newEstimator(cfg *config.Config) (tokens.Estimator, error) {
	switch cfg.Tokens.Estimator {
	case "heuristic":
		return tokens.NewHeuristic(), nil
	case "tiktoken":
		est, err := tokens.NewTiktoken(cfg.Tokens.Encoding)
		if err != nil {
			log.Printf("engine: tiktoken unavailable (%v), falling back to heuristic", err)
			return tokens.NewHeuristic(), nil
		}
		return est, nil
	default:
		return nil, fmt.Errorf("engine: unknown token estimator %q", cfg.Tokens.Estimator)
	}
}

// Windows returns the context window manager.
func (e *Engine) Windows() *window.Manager { return e.windows }

// Knowledge returns the agent knowledge store.
func (e *Engine) Knowledge() *knowledge.Store { return e.knowledge }

// Handoffs returns the handoff coordinator.
func (e *Engine) Handoffs() *handoff.Coordinator { return e.handoffs }

// Estimator returns the token estimator the engine was built with.
func (e *Engine) Estimator() tokens.Estimator { return e.estimator }

// Close releases the persistence backend.
func (e *Engine) Close() error {
	if e.port == nil {
		return nil
	}
	return e.port.Close()
}
