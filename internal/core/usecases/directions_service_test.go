package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/usecases"
)

func TestCachedDirections(t *testing.T) {
	ctx := context.Background()
	provider := &mockDirections{}
	d := usecases.NewCachedDirections(provider, newMockCache())

	for i := 0; i < 2; i++ {
		rd, err := d.Route(ctx, domain.ModeWalking, dulwich, peckham)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if rd.DistanceMeters != 2400 || len(rd.Geometry.Coordinates) != 2 {
			t.Errorf("call %d: unexpected route %+v", i, rd)
		}
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}

	if _, err := d.Route(ctx, domain.ModeDriving, dulwich, peckham); err != nil {
		t.Fatalf("driving: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("mode should be part of the cache key, got %d calls", provider.calls)
	}
}

func TestCachedDirections_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	fail := true
	provider := &mockDirections{
		routeFn: func(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error) {
			if fail {
				return nil, domain.ErrNoRoute
			}
			return straightRoute(mode, from, to), nil
		},
	}
	d := usecases.NewCachedDirections(provider, newMockCache())

	if _, err := d.Route(ctx, domain.ModeWalking, dulwich, greenwich); !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	fail = false
	if _, err := d.Route(ctx, domain.ModeWalking, dulwich, greenwich); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.calls)
	}
}

func TestCachedDirections_NoCache(t *testing.T) {
	provider := &mockDirections{}
	d := usecases.NewCachedDirections(provider, nil)
	for i := 0; i < 2; i++ {
		if _, err := d.Route(context.Background(), domain.ModeTransit, dulwich, peckham); err != nil {
			t.Fatal(err)
		}
	}
	if provider.calls != 2 {
		t.Errorf("expected every call to reach the provider, got %d", provider.calls)
	}
}
