package ports

import (
	"context"
	"time"

	"github.com/samirrijal/walkies/internal/core/domain"
)

// SessionEvent is pushed to a session's subscribers after a state change.
type SessionEvent struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	At        time.Time           `json:"at"`
	Type      string              `json:"type"`
	Diff      *domain.SurfaceDiff `json:"diff,omitempty"`
	Notice    *domain.Notice      `json:"notice,omitempty"`
}

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *SessionEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder turns free text into candidate coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

// DirectionsProvider computes a route between two points.
type DirectionsProvider interface {
	Route(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error)
}
