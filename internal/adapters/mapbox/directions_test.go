package mapbox_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/walkies/internal/adapters/mapbox"
	"github.com/samirrijal/walkies/internal/core/domain"
)

const okBody = `{
  "code": "Ok",
  "routes": [{
    "duration": 900.4,
    "distance": 1234.5,
    "geometry": {"type": "LineString", "coordinates": [[-0.0869, 51.4429], [-0.08, 51.45], [-0.0643, 51.4597]]},
    "legs": [{"steps": [
      {"distance": 600, "duration": 420, "maneuver": {"instruction": "Head north on Court Lane"}},
      {"distance": 634.5, "duration": 480.4, "maneuver": {"instruction": "Arrive at your destination"}}
    ]}]
  }]
}`

var (
	dulwich = domain.GeoPoint{Lat: 51.4429, Lng: -0.0869}
	peckham = domain.GeoPoint{Lat: 51.4597, Lng: -0.0643}
)

func TestDirections_Route(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	d := mapbox.NewDirections(srv.URL, "tok", 2*time.Second)
	rd, err := d.Route(context.Background(), domain.ModeWalking, dulwich, peckham)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(gotPath, "/directions/v5/mapbox/walking/-0.086900,51.442900;") {
		t.Errorf("unexpected path %s", gotPath)
	}
	for _, want := range []string{"geometries=geojson", "steps=true", "access_token=tok"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %s", gotQuery, want)
		}
	}

	if rd.DistanceMeters != 1234.5 || rd.DurationSeconds != 900.4 {
		t.Errorf("unexpected totals: %+v", rd)
	}
	if len(rd.Geometry.Coordinates) != 3 || rd.Geometry.Coordinates[0] != dulwich {
		t.Errorf("unexpected geometry: %+v", rd.Geometry.Coordinates)
	}
	if len(rd.Steps) != 2 || rd.Steps[0].Instruction != "Head north on Court Lane" {
		t.Errorf("unexpected steps: %+v", rd.Steps)
	}
}

func TestDirections_TransitUsesDrivingProfile(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	d := mapbox.NewDirections(srv.URL, "tok", time.Second)
	rd, err := d.Route(context.Background(), domain.ModeTransit, dulwich, peckham)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotPath, "/mapbox/driving/") {
		t.Errorf("expected driving profile, got %s", gotPath)
	}
	if rd.Mode != domain.ModeTransit {
		t.Errorf("expected transit mode preserved, got %s", rd.Mode)
	}
}

func TestDirections_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	d := mapbox.NewDirections(srv.URL, "tok", time.Second)
	_, err := d.Route(context.Background(), domain.ModeDriving, dulwich, peckham)
	if !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestDirections_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := mapbox.NewDirections(srv.URL, "tok", time.Second)
	_, err := d.Route(context.Background(), domain.ModeWalking, dulwich, peckham)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
