//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/walkies/internal/adapters/http"
	"github.com/samirrijal/walkies/internal/adapters/memory"
	"github.com/samirrijal/walkies/internal/adapters/postgres"
	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/usecases"
	"github.com/samirrijal/walkies/internal/pkg/config"
)

// setupTestDB connects to the test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("walkies-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// seedReferenceSpaces stores spaces and removes them afterwards.
func seedReferenceSpaces(t *testing.T, db *postgres.DB, spaces []domain.Space) {
	ctx := context.Background()
	if err := postgres.NewReferenceSpaceRepo(db).UpsertBatch(ctx, spaces); err != nil {
		t.Fatalf("seed spaces: %v", err)
	}
	t.Cleanup(func() {
		ids := make([]string, len(spaces))
		for i, s := range spaces {
			ids[i] = s.ID
		}
		if _, err := db.Pool.Exec(ctx, `DELETE FROM reference_spaces WHERE id = ANY($1)`, ids); err != nil {
			t.Logf("cleanup: %v", err)
		}
	})
}

// setupTestDeps loads the default spaces from the database, no cache or broker.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	defaults := usecases.LoadDefaultSpaces(context.Background(), postgres.NewReferenceSpaceRepo(db), nil)
	sessions := usecases.NewSessionService(
		memory.NewSessionStore(time.Hour),
		defaults,
		usecases.NewLocationResolver(nil, nil, ""),
		nil,
		usecases.NewMapSynchronizer(usecases.DefaultMapOptions()),
		nil,
		domain.DefaultMaxChecked,
	)
	return &http.Dependencies{Sessions: sessions, DB: db}
}

func TestIntegration_SessionSeededFromDatabase(t *testing.T) {
	db := setupTestDB(t)
	ladywell, hilly := uuid.NewString(), uuid.NewString()
	seedReferenceSpaces(t, db, []domain.Space{
		{ID: ladywell, Name: "Ladywell Fields test", Location: domain.GeoPoint{Lat: 51.4561, Lng: -0.0194}, Fencing: domain.FencingPartFenced, Bins: true, OSM: &domain.OSMRef{Type: "way", ID: 4242}},
		{ID: hilly, Name: "Hilly Fields test", Location: domain.GeoPoint{Lat: 51.4587, Lng: -0.0235}, Toilets: true},
	})

	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var v struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&v)

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+v.ID+"/spaces?filters=part_fenced&limit=200", nil), -1)
	var page spacesPage
	json.NewDecoder(resp.Body).Decode(&page)

	found := false
	for _, s := range page.Data {
		if s.ID == ladywell {
			found = true
		}
		if s.ID == hilly {
			t.Error("filter should exclude unfenced-unknown space")
		}
	}
	if !found {
		t.Errorf("expected seeded space in session catalog, got %+v", page.Data)
	}
}

func TestIntegration_ReadyWithDB(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %v", result.Checks)
	}
}
