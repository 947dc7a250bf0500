package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// EventSink receives events after the transaction that emitted them commits
type EventSink interface {
	Publish(ctx context.Context, events []model.Event)
}

// StoreConfig holds the dependencies of a Store
type StoreConfig struct {
	Backend Backend
	Sinks   []EventSink
	Clock   func() time.Time
	Logger  *slog.Logger
}

// Store serialises every state change through one writer. Each Update runs
// against a staged transaction that is committed only when the callback
// returns nil; otherwise nothing is written and nothing is published.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	sinks   []EventSink
	clock   func() time.Time
	logger  *slog.Logger
}

// NewStore creates a new store
func NewStore(cfg StoreConfig) *Store {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		backend: cfg.Backend,
		sinks:   cfg.Sinks,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

// AddSink registers a sink for subsequently committed events
func (s *Store) AddSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Now returns the store clock's current time in UTC
func (s *Store) Now() time.Time {
	return s.clock().UTC()
}

// Update runs fn in a read-write transaction
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(ctx, s.backend, s.Now(), false)
	if err := fn(tx); err != nil {
		return err
	}

	events, err := tx.seal()
	if err != nil {
		return err
	}

	writes := tx.writes()
	if len(writes) > 0 {
		if err := s.backend.Commit(ctx, writes); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	s.logger.Debug("ledger commit",
		slog.Int("writes", len(writes)),
		slog.Int("events", len(events)),
	)

	// Published under the writer lock so observers see commit order.
	if len(events) > 0 {
		for _, sink := range s.sinks {
			sink.Publish(ctx, events)
		}
	}
	return nil
}

// View runs fn in a read-only transaction
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newTx(ctx, s.backend, s.Now(), true))
}
