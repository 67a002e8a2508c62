package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Store.
//
// Records are kept in their encoded form so callers never share maps or
// slices with the store, and values read back exactly as they would from a
// database-backed store.
//
// MemStore is thread-safe. Data is lost when the process terminates.
type MemStore struct {
	mu     sync.RWMutex
	runs   map[string]memEntry
	graphs map[string][]byte
	seq    int64
}

type memEntry struct {
	data []byte
	seq  int64 // insertion order, ties in CreatedAt
	at   int64
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:   make(map[string]memEntry),
		graphs: make(map[string][]byte),
	}
}

// SaveRun stores rec, replacing any record with the same ID.
func (m *MemStore) SaveRun(_ context.Context, rec RunRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.runs[rec.ID] = memEntry{data: data, seq: m.seq, at: rec.CreatedAt.UnixNano()}
	return nil
}

// GetRun returns the record for id.
func (m *MemStore) GetRun(_ context.Context, id string) (RunRecord, error) {
	m.mu.RLock()
	entry, ok := m.runs[id]
	m.mu.RUnlock()

	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return decode[RunRecord](entry.data)
}

// ListRuns returns records newest first.
func (m *MemStore) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	entries := make([]memEntry, 0, len(m.runs))
	for _, e := range m.runs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at > entries[j].at
		}
		return entries[i].seq > entries[j].seq
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]RunRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := decode[RunRecord](e.data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SaveGraph stores rec, replacing any definition with the same ID.
func (m *MemStore) SaveGraph(_ context.Context, rec GraphRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[rec.ID] = data
	return nil
}

// GetGraph returns the definition for id.
func (m *MemStore) GetGraph(_ context.Context, id string) (GraphRecord, error) {
	m.mu.RLock()
	data, ok := m.graphs[id]
	m.mu.RUnlock()

	if !ok {
		return GraphRecord{}, ErrNotFound
	}
	return decode[GraphRecord](data)
}

// Close is a no-op.
func (m *MemStore) Close() error {
	return nil
}
