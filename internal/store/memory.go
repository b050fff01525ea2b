package store

import (
	"context"
	"time"

	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/pkg/models"
)

// MemoryStore keeps reports in process. Entries expire after the TTL.
type MemoryStore struct {
	cache *infra.Cache[models.ComparativeReport]
}

// NewMemoryStore creates a store. A zero TTL keeps reports until restart.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: infra.NewCache[models.ComparativeReport](ttlOrForever(ttl))}
}

// Get returns a deep copy of the stored report; callers may modify it.
func (s *MemoryStore) Get(_ context.Context, company string) (*models.ComparativeReport, error) {
	key, err := Key(company)
	if err != nil {
		return nil, err
	}
	rep, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return rep.Clone(), nil
}

// Put stores a deep copy of report under report.Subject, replacing any
// previous one.
func (s *MemoryStore) Put(_ context.Context, report *models.ComparativeReport) error {
	key, err := Key(report.Subject)
	if err != nil {
		return err
	}
	s.cache.Set(key, *report.Clone())
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.cache.Cleanup()
	return s.cache.Keys(), nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
