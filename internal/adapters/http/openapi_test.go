package http_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/walkies/api"
)

func loadOpenAPISpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI document and checks it covers the routes.
func TestOpenAPISpec(t *testing.T) {
	spec := loadOpenAPISpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/resolve",
		"/v1/preferences/legend",
		"/v1/sessions",
		"/v1/sessions/{sid}",
		"/v1/sessions/{sid}/spaces",
		"/v1/sessions/{sid}/spaces/{spaceId}",
		"/v1/sessions/{sid}/filters",
		"/v1/sessions/{sid}/location",
		"/v1/sessions/{sid}/location/error",
		"/v1/sessions/{sid}/selection/checked/{spaceId}",
		"/v1/sessions/{sid}/selection/focus",
		"/v1/sessions/{sid}/directions",
		"/v1/sessions/{sid}/map",
		"/v1/sessions/{sid}/map/mount",
		"/v1/sessions/{sid}/map/loaded",
		"/v1/sessions/{sid}/map/recentre",
		"/v1/sessions/{sid}/navigation",
		"/v1/sessions/{sid}/navigation/position",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{
		"Space",
		"Session",
		"Selection",
		"Resolution",
		"Route",
		"MapView",
		"SurfaceDiff",
		"Legend",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadOpenAPISpec(t)

	if spec.Info.Title != "Walkies API" {
		t.Errorf("expected title 'Walkies API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", spec.Info.Title, spec.Info.Version, spec.Servers[0].URL)
}

func TestDocs_ServesOpenAPI(t *testing.T) {
	app := setupApp(makeDeps())

	yaml := do(t, app, "GET", "/docs/openapi.yaml", nil)
	if yaml.Status != 200 || len(yaml.Body) == 0 {
		t.Fatalf("expected yaml document, got %d", yaml.Status)
	}

	resp := do(t, app, "GET", "/docs/openapi.json", nil)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Info.Title != "Walkies API" {
		t.Errorf("unexpected title %q", doc.Info.Title)
	}
}
