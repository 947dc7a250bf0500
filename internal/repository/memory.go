package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// MemoryBackend keeps committed records in maps. It can be persisted as a
// zstd-compressed JSON snapshot.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[Table]map[string][]byte
	dirty  bool
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[Table]map[string][]byte)}
}

func (m *MemoryBackend) Get(ctx context.Context, table Table, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.tables[table][key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *MemoryBackend) List(ctx context.Context, table Table) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]byte, 0, len(m.tables[table]))
	for _, data := range m.tables[table] {
		out = append(out, data)
	}
	return out, nil
}

// Commit applies all writes under one lock; it cannot fail halfway.
func (m *MemoryBackend) Commit(ctx context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range writes {
		t, ok := m.tables[w.Table]
		if !ok {
			t = make(map[string][]byte)
			m.tables[w.Table] = t
		}
		t[w.Key] = w.Data
	}
	m.dirty = true
	return nil
}

type snapshotHeader struct {
	Version int `json:"version"`
}

type snapshotV1 struct {
	Header snapshotHeader                        `json:"header"`
	Tables map[Table]map[string]json.RawMessage `json:"tables"`
}

// Dirty reports whether anything was committed since the last snapshot
func (m *MemoryBackend) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// WriteSnapshot saves every table to path. The file is written next to path
// and renamed into place.
func (m *MemoryBackend) WriteSnapshot(path string) error {
	m.mu.Lock()
	snap := snapshotV1{
		Header: snapshotHeader{Version: 1},
		Tables: make(map[Table]map[string]json.RawMessage, len(m.tables)),
	}
	for table, rows := range m.tables {
		copied := make(map[string]json.RawMessage, len(rows))
		for k, v := range rows {
			copied[k] = v
		}
		snap.Tables[table] = copied
	}
	m.dirty = false
	m.mu.Unlock()

	if err := writeSnapshotFile(path, snap); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}
	return nil
}

func writeSnapshotFile(path string, snap snapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot replaces the backend contents with the snapshot at path
func (m *MemoryBackend) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	var snap snapshotV1
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Header.Version != 1 {
		return fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}

	tables := make(map[Table]map[string][]byte, len(snap.Tables))
	for table, rows := range snap.Tables {
		t := make(map[string][]byte, len(rows))
		for k, v := range rows {
			t[k] = []byte(v)
		}
		tables[table] = t
	}

	m.mu.Lock()
	m.tables = tables
	m.dirty = false
	m.mu.Unlock()
	return nil
}
