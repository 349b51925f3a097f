package domain_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/walkies/internal/core/domain"
)

func viewWith(markers ...domain.Marker) domain.MapView {
	return domain.MapView{
		Camera:  domain.Camera{Center: domain.GeoPoint{Lat: 51.5072, Lng: -0.1276}, Zoom: 12},
		Markers: markers,
	}
}

func marker(id string, style domain.MarkerStyle) domain.Marker {
	return domain.Marker{ID: id, Kind: domain.MarkerSpace, Style: style, Label: id}
}

func TestSurface_Lifecycle(t *testing.T) {
	s := domain.NewSurface()
	if s.State() != domain.SurfaceUnmounted {
		t.Fatalf("expected unmounted, got %s", s.State())
	}
	if _, err := s.Loaded(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("loaded before mount should fail, got %v", err)
	}

	if d := s.Apply(viewWith(marker("a", domain.StyleDefault))); !d.Empty() {
		t.Errorf("unmounted surface should ignore views, got %+v", d)
	}

	if err := s.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := s.Mount(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("double mount should fail, got %v", err)
	}

	if d := s.Apply(viewWith(marker("a", domain.StyleDefault), marker("b", domain.StyleDefault))); !d.Empty() {
		t.Errorf("loading surface must not attach markers, got %+v", d)
	}
	if len(s.Markers()) != 0 {
		t.Errorf("markers attached while loading")
	}

	d, err := s.Loaded()
	if err != nil {
		t.Fatalf("loaded: %v", err)
	}
	if len(d.Added) != 2 || d.Camera == nil {
		t.Errorf("expected pending view on load, got %+v", d)
	}

	if n := s.Unmount(); n != 2 {
		t.Errorf("expected 2 released, got %d", n)
	}
	if s.State() != domain.SurfaceUnmounted || len(s.Markers()) != 0 {
		t.Error("unmount did not release")
	}
}

func TestSurface_DiffByID(t *testing.T) {
	s := domain.NewSurface()
	_ = s.Mount()
	_, _ = s.Loaded()

	d := s.Apply(viewWith(marker("a", domain.StyleDefault), marker("b", domain.StyleDefault)))
	if len(d.Added) != 2 || len(d.Updated) != 0 || len(d.Removed) != 0 {
		t.Fatalf("unexpected first diff: %+v", d)
	}

	d = s.Apply(viewWith(marker("a", domain.StyleDefault), marker("b", domain.StyleDefault)))
	if !d.Empty() {
		t.Errorf("identical view should produce empty diff, got %+v", d)
	}

	d = s.Apply(viewWith(marker("b", domain.StyleFocused), marker("c", domain.StyleDefault)))
	if len(d.Added) != 1 || d.Added[0].ID != "c" {
		t.Errorf("expected c added, got %+v", d.Added)
	}
	if len(d.Updated) != 1 || d.Updated[0].ID != "b" {
		t.Errorf("expected b updated, got %+v", d.Updated)
	}
	if len(d.Removed) != 1 || d.Removed[0] != "a" {
		t.Errorf("expected a removed, got %+v", d.Removed)
	}
	if d.Camera != nil {
		t.Error("camera unchanged, should not be in diff")
	}
}

func TestSurface_Route(t *testing.T) {
	s := domain.NewSurface()
	_ = s.Mount()
	_, _ = s.Loaded()
	_ = s.Apply(viewWith())

	v := viewWith()
	v.Route = &domain.RouteOverlay{Mode: domain.ModeWalking, Color: "#006947", Geometry: domain.GeoLineString{
		Coordinates: []domain.GeoPoint{{Lat: 51.5, Lng: 0}, {Lat: 51.4, Lng: -0.1}},
	}}
	if d := s.Apply(v); d.Route == nil {
		t.Error("expected route in diff")
	}
	if d := s.Apply(v); d.Route != nil {
		t.Error("unchanged route should not be resent")
	}
	if d := s.Apply(viewWith()); !d.RouteRemoved {
		t.Error("expected route removal")
	}
}

func TestGeoLineString_Bounds(t *testing.T) {
	l := domain.GeoLineString{Coordinates: []domain.GeoPoint{
		{Lat: 51.50, Lng: -0.10},
		{Lat: 51.45, Lng: 0.01},
		{Lat: 51.48, Lng: -0.05},
	}}
	b := l.Bounds()
	want := domain.Bounds{MinLat: 51.45, MinLng: -0.10, MaxLat: 51.50, MaxLng: 0.01}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
	if (domain.GeoLineString{}).Bounds() != (domain.Bounds{}) {
		t.Error("empty path should give zero bounds")
	}
}
