package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/walkies/internal/core/domain"
)

func newSession(id string, now time.Time) *domain.Session {
	return domain.NewSession(id, nil, 5, now)
}

func TestSessionStore_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(time.Hour)

	if err := s.Create(ctx, newSession("a", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, newSession("a", time.Now())); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict on duplicate, got %v", err)
	}

	err := s.Update(ctx, "a", func(sess *domain.Session) error {
		sess.Filters[domain.FacilityBins] = true
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = s.Update(ctx, "a", func(sess *domain.Session) error {
		if !sess.Filters[domain.FacilityBins] {
			t.Error("update not persisted")
		}
		return nil
	})

	if err := s.Update(ctx, "missing", func(*domain.Session) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestSessionStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(30 * time.Minute)
	s.now = func() time.Time { return now }

	var evicted []string
	s.OnEvict(func(id string) { evicted = append(evicted, id) })

	_ = s.Create(ctx, newSession("old", now))
	now = now.Add(20 * time.Minute)
	_ = s.Create(ctx, newSession("fresh", now))
	now = now.Add(15 * time.Minute)

	ids := s.Sweep()
	if len(ids) != 1 || ids[0] != "old" {
		t.Fatalf("expected old evicted, got %v", ids)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("eviction callback got %v", evicted)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", s.Len())
	}

	// touching a session keeps it alive
	_ = s.Update(ctx, "fresh", func(*domain.Session) error { return nil })
	now = now.Add(20 * time.Minute)
	if ids := s.Sweep(); len(ids) != 0 {
		t.Errorf("recently used session evicted: %v", ids)
	}
}

func TestSessionStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(time.Hour)
	_ = s.Create(ctx, newSession("a", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "a", func(sess *domain.Session) error {
				sess.NextToken()
				return nil
			})
		}()
	}
	wg.Wait()

	_ = s.Update(ctx, "a", func(sess *domain.Session) error {
		if !sess.IsCurrent(50) {
			t.Error("expected 50 serialised updates")
		}
		return nil
	})
}
