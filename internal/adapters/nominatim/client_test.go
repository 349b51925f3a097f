package nominatim_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/walkies/internal/adapters/nominatim"
	"github.com/samirrijal/walkies/internal/core/domain"
)

func TestClient_Search(t *testing.T) {
	var gotQuery, gotUA, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name":"Peckham Rye Park, London","lat":"51.4597","lon":"-0.0643"},
			{"display_name":"bad","lat":"north","lon":"-0.1"},
			{"display_name":"Numeric mirror","lat":51.5,"lon":0.01}
		]`))
	}))
	defer srv.Close()

	c := nominatim.New(srv.URL, "walkies-test/1.0", 2*time.Second)
	results, err := c.Search(context.Background(), "Peckham Rye, London, UK", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "Peckham Rye, London, UK" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotLimit != "3" {
		t.Errorf("limit = %q", gotLimit)
	}
	if gotUA != "walkies-test/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 parsable results, got %d", len(results))
	}
	if results[0].Point != (domain.GeoPoint{Lat: 51.4597, Lng: -0.0643}) {
		t.Errorf("unexpected point %+v", results[0].Point)
	}
	if results[1].DisplayName != "Numeric mirror" {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func TestClient_Search_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := nominatim.New(srv.URL, "test", time.Second)
	_, err := c.Search(context.Background(), "anywhere", 1)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClient_Search_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := nominatim.New(srv.URL, "test", time.Second)
	results, err := c.Search(context.Background(), "nowhere at all", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
