package store

import (
	"context"
	"sync"
	"time"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

// MemoryStore is a process-local LocalStore. Nothing survives Close.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.LocalProductRecord
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, rec *domain.LocalProductRecord) error {
	if rec == nil {
		return domainerrors.Storage("store: Create called with nil record", nil)
	}
	if err := ctx.Err(); err != nil {
		return domainerrors.Storage("store: Create canceled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = s.now().UTC()

	stored := *rec
	if rec.Image != nil {
		stored.Image = append([]byte(nil), rec.Image...)
	}
	if rec.ProductID != nil {
		pid := *rec.ProductID
		stored.ProductID = &pid
	}
	s.records = append(s.records, stored)
	return nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.LocalProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll canceled", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LocalProductRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Storage("store: Delete canceled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}
