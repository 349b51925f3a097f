package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

const msgSessionNotFound = "Session not found or expired."

type entry struct {
	mu      sync.Mutex
	sess    *domain.Session
	deleted bool
}

// SessionStore keeps sessions in process memory and evicts idle ones.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	onEvict  func(id string)
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnEvict sets a callback run after a session is evicted.
func (s *SessionStore) OnEvict(fn func(id string)) {
	s.onEvict = fn
}

// Create adds a new session.
func (s *SessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return domain.NewUserError(domain.ErrConflict, "Session already exists.")
	}
	sess.LastSeen = s.now()
	s.sessions[sess.ID] = &entry{sess: sess}
	return nil
}

// Update runs fn with exclusive access to the session and marks it active.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(sess *domain.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domain.NewUserError(domain.ErrNotFound, msgSessionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.NewUserError(domain.ErrNotFound, msgSessionNotFound)
	}
	e.sess.LastSeen = s.now()
	return fn(e.sess)
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.NewUserError(domain.ErrNotFound, msgSessionNotFound)
	}
	e.mu.Lock()
	e.deleted = true
	e.sess.Surface.Unmount()
	e.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns their IDs.
func (s *SessionStore) Sweep() []string {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []string
	for id, e := range s.sessions {
		e.mu.Lock()
		if e.sess.LastSeen.Before(cutoff) {
			e.deleted = true
			e.sess.Surface.Unmount()
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range evicted {
		metrics.SessionsEvicted.Inc()
		if s.onEvict != nil {
			s.onEvict(id)
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := s.Sweep(); len(ids) > 0 {
				slog.Info("evicted idle sessions", "count", len(ids), "remaining", s.Len())
			}
		}
	}
}
