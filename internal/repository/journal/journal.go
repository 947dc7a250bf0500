package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Journal appends committed events to a SQLite database. Writes happen on a
// single background goroutine so publishers never wait on disk.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger

	ch     chan request
	wg     sync.WaitGroup
	once   sync.Once

	// mu orders sends on ch against Close
	mu     sync.RWMutex
	closed bool
}

type request struct {
	events []model.Event
	flush  chan struct{}
}

// Open opens (or creates) the journal at path and applies migrations
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applyMigrations(db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db:     db,
		logger: logger,
		ch:     make(chan request, 4096),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

// Publish queues events for writing. Events are dropped with a warning if the
// writer falls behind.
func (j *Journal) Publish(ctx context.Context, events []model.Event) {
	if j == nil {
		return
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.ch <- request{events: events}:
	default:
		j.logger.Warn("journal queue full, dropping events", slog.Int("count", len(events)))
	}
}

// Flush blocks until every event queued before the call is written
func (j *Journal) Flush(ctx context.Context) error {
	done := make(chan struct{})
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return nil
	}
	select {
	case j.ch <- request{flush: done}:
		j.mu.RUnlock()
	case <-ctx.Done():
		j.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) loop() {
	for req := range j.ch {
		if req.flush != nil {
			close(req.flush)
			continue
		}
		if err := j.write(req.events); err != nil {
			j.logger.Error("journal write failed", slog.String("error", err.Error()))
		}
	}
}

func (j *Journal) write(events []model.Event) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO events (sequence, id, type, actor, topic, data_json, occurred_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		data := string(e.Data)
		if data == "" {
			data = "null"
		}
		if _, err := stmt.Exec(e.Sequence, e.ID, string(e.Type), e.Actor.String(), e.Topic, data, e.OccurredAt.UTC().Format(time.RFC3339Nano)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert event %d: %w", e.Sequence, err)
		}
	}
	return tx.Commit()
}

// Query filters journaled events
type Query struct {
	AfterSequence uint64
	Topic         string
	Actor         model.Address
	Limit         int
}

// List returns events in sequence order
func (j *Journal) List(ctx context.Context, q Query) ([]model.Event, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}

	query := `SELECT sequence, id, type, actor, topic, data_json, occurred_at FROM events WHERE sequence > ?`
	args := []interface{}{q.AfterSequence}
	if q.Topic != "" {
		query += ` AND topic = ?`
		args = append(args, q.Topic)
	}
	if !q.Actor.IsZero() {
		query += ` AND actor = ?`
		args = append(args, q.Actor.String())
	}
	query += ` ORDER BY sequence LIMIT ?`
	args = append(args, q.Limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			e          model.Event
			typ, actor string
			data, at   string
		)
		if err := rows.Scan(&e.Sequence, &e.ID, &typ, &actor, &e.Topic, &data, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = model.EventType(typ)
		e.Actor = model.Address(actor)
		e.Data = []byte(data)
		e.OccurredAt, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the queue and closes the database
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.ch)
		j.mu.Unlock()
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}
