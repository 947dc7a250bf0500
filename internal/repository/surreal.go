package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/xeonarno/Alyra-blockquest/internal/database"
)

// SurrealBackend stores each record as a JSON document string in a SurrealDB
// table of the same name.
type SurrealBackend struct {
	db database.Database
}

// NewSurrealBackend creates a backend on an open connection
func NewSurrealBackend(db database.Database) *SurrealBackend {
	return &SurrealBackend{db: db}
}

// EnsureSchema defines the ledger tables
func (b *SurrealBackend) EnsureSchema(ctx context.Context) error {
	batch := database.NewAtomicBatch()
	for _, table := range Tables {
		batch.Add(fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table), nil)
	}
	if err := batch.Execute(ctx, b.db); err != nil {
		return fmt.Errorf("define tables: %w", err)
	}
	return nil
}

func (b *SurrealBackend) Get(ctx context.Context, table Table, key string) ([]byte, error) {
	result, err := b.db.QueryOne(ctx, `SELECT VALUE data FROM type::thing($tb, $id)`, map[string]interface{}{
		"tb": string(table),
		"id": key,
	})
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%s:%s: unexpected document type %T", table, key, result)
	}
	return []byte(doc), nil
}

func (b *SurrealBackend) List(ctx context.Context, table Table) ([][]byte, error) {
	results, err := b.db.Query(ctx, `SELECT VALUE data FROM type::table($tb)`, map[string]interface{}{
		"tb": string(table),
	})
	if err != nil {
		return nil, err
	}
	rows := database.ResultRows(results, 0)
	out := make([][]byte, 0, len(rows))
	for _, row := range rows {
		doc, ok := row.(string)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected document type %T", table, row)
		}
		out = append(out, []byte(doc))
	}
	return out, nil
}

// Commit sends all writes as one SurrealDB transaction
func (b *SurrealBackend) Commit(ctx context.Context, writes []Write) error {
	batch := database.NewAtomicBatch()
	for _, w := range writes {
		batch.Add(`UPSERT type::thing($tb, $id) CONTENT { data: $data }`, map[string]interface{}{
			"tb":   string(w.Table),
			"id":   w.Key,
			"data": string(w.Data),
		})
	}
	return batch.Execute(ctx, b.db)
}
