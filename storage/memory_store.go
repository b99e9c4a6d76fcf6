package storage

import (
	"context"
	"sync"
	"time"

	"listing-parser/models"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.ListingRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, rec *models.ListingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = int64(len(m.records) + 1)
	rec.CreatedAt = m.now().UTC()

	stored := *rec
	m.records = append(m.records, &stored)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*models.ListingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id < 1 || id > int64(len(m.records)) {
		return nil, ErrNotFound
	}
	rec := *m.records[id-1]
	return &rec, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*models.ListingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ListingRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := *m.records[i]
		out = append(out, &rec)
	}
	return out, nil
}

func (m *MemoryStore) All(_ context.Context) ([]*models.ListingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ListingRecord, 0, len(m.records))
	for _, r := range m.records {
		rec := *r
		out = append(out, &rec)
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
