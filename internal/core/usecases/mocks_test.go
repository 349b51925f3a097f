package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	mu       sync.Mutex
	calls    []string
	searchFn func(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockGeocoder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock DirectionsProvider ---

type mockDirections struct {
	mu      sync.Mutex
	calls   int
	routeFn func(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error)
}

func (m *mockDirections) Route(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.routeFn != nil {
		return m.routeFn(ctx, mode, from, to)
	}
	return straightRoute(mode, from, to), nil
}

func straightRoute(mode domain.TravelMode, from, to domain.GeoPoint) *domain.RouteData {
	return &domain.RouteData{
		Mode:            mode,
		DistanceMeters:  2400,
		DurationSeconds: 1800,
		Geometry:        domain.GeoLineString{Coordinates: []domain.GeoPoint{from, to}},
		Steps:           []domain.RouteStep{{Instruction: "Walk straight there", DistanceMeters: 2400, DurationSeconds: 1800}},
	}
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []ports.SessionEvent
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, event *ports.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *mockPublisher) ofType(t string) []ports.SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ports.SessionEvent
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockPublisher) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// --- Fixtures ---

var (
	dulwich   = domain.GeoPoint{Lat: 51.4429, Lng: -0.0869}
	peckham   = domain.GeoPoint{Lat: 51.45972456481489, Lng: -0.0643467561865794}
	greenwich = domain.GeoPoint{Lat: 51.5007, Lng: 0.0056}
)

func referenceSpaces() []domain.Space {
	return []domain.Space{
		{ID: "dulwich", Name: "Dulwich Park – enclosed field", Location: dulwich, Fencing: domain.FencingFenced, Bins: true, Coffee: true},
		{ID: "peckham", Name: "Peckham Rye – dog exercise area", Location: peckham, Fencing: domain.FencingUnfenced, Bins: true, Toilets: true, Parking: true},
		{ID: "greenwich", Name: "Greenwich Peninsula – riverside green", Location: greenwich, Fencing: domain.FencingUnfenced, Toilets: true, Coffee: true, Parking: true},
	}
}
