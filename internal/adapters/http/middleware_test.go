package http

import "testing"

func TestSessionIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/sessions/abc", "abc"},
		{"/v1/sessions/abc/spaces/dulwich", "abc"},
		{"/v1/sessions", ""},
		{"/v1/sessions/", ""},
		{"/v1/resolve", ""},
	}
	for _, tt := range tests {
		if got := sessionIDFromPath(tt.path); got != tt.want {
			t.Errorf("sessionIDFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestETagMatches(t *testing.T) {
	const etag = `W/"0123456789abcdef"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{etag, true},
		{`"0123456789abcdef"`, true},
		{`W/"other", ` + etag, true},
		{"*", true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestCacheControlFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/health", "public, max-age=10"},
		{"/v1/sessions", "no-store"},
		{"/v1/sessions/abc/spaces", "no-store"},
		{"/v1/resolve", "public, max-age=300"},
		{"/v1/preferences/legend", "private, no-cache"},
		{"/docs/openapi.json", "public, max-age=3600"},
		{"/ws", ""},
	}
	for _, tt := range tests {
		if got := cacheControlFor(tt.path); got != tt.want {
			t.Errorf("cacheControlFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
