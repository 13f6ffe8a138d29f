package cache

import (
	"context"
	"time"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/storage"
)

const familyKey = "family"

// FamilyStore keeps the last loaded or saved family in memory so that read
// endpoints do not hit the database on every request.
type FamilyStore struct {
	next  storage.FamilyStore
	cache Cache[core.Family]
}

var _ storage.FamilyStore = (*FamilyStore)(nil)

func NewFamilyStore(next storage.FamilyStore, ttl time.Duration) (*FamilyStore, error) {
	c, err := NewLRUCache[core.Family](1, ttl)
	if err != nil {
		return nil, err
	}
	return &FamilyStore{next: next, cache: c}, nil
}

// Cleaner exposes the underlying cache for a Manager.
func (s *FamilyStore) Cleaner() Cleaner {
	return s.cache.(Cleaner)
}

func (s *FamilyStore) LoadFamily(ctx context.Context) (*core.Family, error) {
	if f, ok := s.cache.Get(familyKey); ok {
		return &f, nil
	}
	f, err := s.next.LoadFamily(ctx)
	if err != nil || f == nil {
		return f, err
	}
	s.cache.Set(familyKey, *f)
	return f, nil
}

func (s *FamilyStore) SaveFamily(ctx context.Context, f core.Family) error {
	if err := s.next.SaveFamily(ctx, f); err != nil {
		s.cache.Delete(familyKey)
		return err
	}
	s.cache.Set(familyKey, f)
	return nil
}
