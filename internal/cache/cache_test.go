package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wealthwarriors/internal/core"
)

func TestLRUCacheEviction(t *testing.T) {
	c, err := NewLRUCache[int](2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewLRUCache[string](10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return now }

	c.Set("x", "old")
	c.Set("y", "old")
	now = now.Add(30 * time.Second)
	c.Set("z", "new")
	now = now.Add(45 * time.Second)

	if _, ok := c.Get("x"); ok {
		t.Error("x should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if v, ok := c.Get("z"); !ok || v != "new" {
		t.Errorf("Get(z) = %q, %v", v, ok)
	}
}

func TestNewLRUCacheRejectsZeroSize(t *testing.T) {
	if _, err := NewLRUCache[int](0, time.Minute); err == nil {
		t.Error("expected error for size 0")
	}
}

type countingStore struct {
	family  *core.Family
	loads   int
	saveErr error
}

func (s *countingStore) LoadFamily(context.Context) (*core.Family, error) {
	s.loads++
	return s.family, nil
}

func (s *countingStore) SaveFamily(_ context.Context, f core.Family) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.family = &f
	return nil
}

func TestFamilyStore(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{}
	s, err := NewFamilyStore(next, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := s.LoadFamily(ctx); err != nil || f != nil {
		t.Fatalf("LoadFamily() on empty = %v, %v", f, err)
	}

	if err := s.SaveFamily(ctx, core.Family{ID: "f1", Name: "Lannister"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		f, err := s.LoadFamily(ctx)
		if err != nil || f == nil || f.Name != "Lannister" {
			t.Fatalf("LoadFamily() = %v, %v", f, err)
		}
	}
	if next.loads != 1 {
		t.Errorf("backing loads = %d, want 1", next.loads)
	}

	next.saveErr = errors.New("disk full")
	if err := s.SaveFamily(ctx, core.Family{ID: "f1", Name: "Tyrell"}); err == nil {
		t.Fatal("expected save error")
	}
	f, _ := s.LoadFamily(ctx)
	if f == nil || f.Name != "Lannister" {
		t.Errorf("after failed save LoadFamily() = %+v, want backing copy", f)
	}
	if next.loads != 2 {
		t.Errorf("failed save should drop the cached copy, loads = %d", next.loads)
	}
}
