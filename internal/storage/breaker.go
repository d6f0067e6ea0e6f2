package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pluralchat/mnemo/pkg/types"
)

// ErrCircuitOpen is returned when the breaker is open and rejects calls to
// the underlying port without attempting them.
var ErrCircuitOpen = errors.New("storage circuit breaker is open")

// BreakerConfig holds the configuration for the storage circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip the circuit.
	// Default: 3
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning to half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of successes required in half-open
	// state to close the circuit again.
	// Default: 2
	HalfOpenMaxSuccesses uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	}
}

// BreakerPort decorates an AgentMemoryPort with a circuit breaker so a dead
// or struggling backend stops adding latency to every mutation. Loads and
// upserts share one breaker: both hit the same backend.
//
// When the circuit is open, calls fail fast with ErrCircuitOpen. Callers
// already treat port failures as degraded-but-non-fatal, so an open circuit
// just means the store runs in-memory-only until the backend recovers.
type BreakerPort struct {
	port    AgentMemoryPort
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerPort wraps port with a circuit breaker using the given config.
// Zero-valued config fields fall back to defaults.
func NewBreakerPort(port AgentMemoryPort, config BreakerConfig) *BreakerPort {
	def := DefaultBreakerConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = def.HalfOpenMaxSuccesses
	}

	settings := gobreaker.Settings{
		Name:        "AgentMemoryStorage",
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // Don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("storage: circuit breaker %s -> %s", from, to)
		},
		IsSuccessful: func(err error) bool {
			// A missing record is a normal outcome, not a backend failure.
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}

	return &BreakerPort{
		port:    port,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Load passes through to the wrapped port unless the circuit is open.
func (b *BreakerPort) Load(ctx context.Context, userID, agentID string) (*types.AgentMemory, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.port.Load(ctx, userID, agentID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result.(*types.AgentMemory), nil
}

// Upsert passes through to the wrapped port unless the circuit is open.
func (b *BreakerPort) Upsert(ctx context.Context, memory *types.AgentMemory) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.port.Upsert(ctx, memory)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// Close closes the wrapped port directly; shutdown should not be gated on
// breaker state.
func (b *BreakerPort) Close() error {
	return b.port.Close()
}

// State returns the current breaker state ("closed", "open", "half-open").
func (b *BreakerPort) State() string {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
