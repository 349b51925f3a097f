package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// DefaultFirstFixTimeout is how long a new position watch waits for its first fix.
const DefaultFirstFixTimeout = 10 * time.Second

type positionWatch struct {
	timer   *time.Timer
	fixed   bool
	started time.Time
}

// NavigationService manages live position watches used while following a
// route. A session has at most one watch.
type NavigationService struct {
	sessions *SessionService
	timeout  time.Duration

	mu      sync.Mutex
	watches map[string]*positionWatch
}

// NewNavigationService creates a NavigationService and hooks it into the
// session lifecycle so watches are released with their session or map.
func NewNavigationService(sessions *SessionService, firstFixTimeout time.Duration) *NavigationService {
	if firstFixTimeout <= 0 {
		firstFixTimeout = DefaultFirstFixTimeout
	}
	n := &NavigationService{
		sessions: sessions,
		timeout:  firstFixTimeout,
		watches:  make(map[string]*positionWatch),
	}
	sessions.OnRelease(n.Release)
	return n
}

// Start opens a position watch, replacing any existing one.
func (n *NavigationService) Start(ctx context.Context, id string) error {
	if err := n.sessions.setNavigating(ctx, id, true); err != nil {
		return err
	}

	w := &positionWatch{started: time.Now()}
	n.mu.Lock()
	if old, ok := n.watches[id]; ok {
		old.timer.Stop()
	} else {
		metrics.ActiveWatches.Inc()
	}
	n.watches[id] = w
	w.timer = time.AfterFunc(n.timeout, func() { n.expire(id, w) })
	n.mu.Unlock()

	slog.DebugContext(ctx, "position watch started", "session_id", id, "timeout", n.timeout)
	return nil
}

// ReportPosition feeds a device fix into the active watch.
func (n *NavigationService) ReportPosition(ctx context.Context, id string, p domain.GeoPoint) error {
	n.mu.Lock()
	w, ok := n.watches[id]
	if ok && !w.fixed {
		w.fixed = true
		w.timer.Stop()
	}
	n.mu.Unlock()
	if !ok {
		return domain.NewUserError(domain.ErrNotFound, "Navigation is not running.")
	}
	return n.sessions.SetLocation(ctx, id, p, domain.SourceDevice)
}

// Stop closes the watch and leaves navigation.
func (n *NavigationService) Stop(ctx context.Context, id string) error {
	n.Release(id)
	return n.sessions.setNavigating(ctx, id, false)
}

// Active reports whether id has an open watch.
func (n *NavigationService) Active(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.watches[id]
	return ok
}

// Release drops the watch for id, if any.
func (n *NavigationService) Release(id string) {
	n.mu.Lock()
	w, ok := n.watches[id]
	if ok {
		w.timer.Stop()
		delete(n.watches, id)
		metrics.ActiveWatches.Dec()
	}
	n.mu.Unlock()
	if ok {
		// the session may already be gone
		_ = n.sessions.setNavigating(context.Background(), id, false)
	}
}

// Close releases every watch.
func (n *NavigationService) Close() {
	n.mu.Lock()
	ids := make([]string, 0, len(n.watches))
	for id := range n.watches {
		ids = append(ids, id)
	}
	n.mu.Unlock()
	for _, id := range ids {
		n.Release(id)
	}
}

func (n *NavigationService) expire(id string, w *positionWatch) {
	n.mu.Lock()
	if n.watches[id] != w || w.fixed {
		n.mu.Unlock()
		return
	}
	delete(n.watches, id)
	metrics.ActiveWatches.Dec()
	n.mu.Unlock()

	ctx := context.Background()
	slog.Info("position watch timed out", "session_id", id, "waited", time.Since(w.started).Round(time.Millisecond))
	_ = n.sessions.setNavigating(ctx, id, false)
	_ = n.sessions.notify(ctx, id, &domain.Notice{Kind: string(LocationTimeout), Message: domain.MsgLocationFailed})
}
