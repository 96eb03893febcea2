package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryHistory is a process-lifetime HistoryStore used when no database is
// configured.
type MemoryHistory struct {
	mu      sync.RWMutex
	records []EstimateRecord
	nextID  int64
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{nextID: 1}
}

// Append implements HistoryStore
func (m *MemoryHistory) Append(_ context.Context, rec EstimateRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextID
	m.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records = append(m.records, rec)
	return rec.ID, nil
}

// List implements HistoryStore
func (m *MemoryHistory) List(_ context.Context, limit int) ([]EstimateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}

	// Newest first
	out := make([]EstimateRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryHistory) Close() error {
	return nil
}
