package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// result is one entry of a /search response. Coordinates arrive as strings
// from the public API and as numbers from some mirrors.
type result struct {
	DisplayName string      `json:"display_name"`
	Lat         json.Number `json:"lat"`
	Lon         json.Number `json:"lon"`
}

// Client implements ports.Geocoder against a Nominatim server.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates a Nominatim client.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Search geocodes query and returns up to limit candidates in rank order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	ctx, span := otel.Tracer("walkies/nominatim").Start(ctx, "nominatim.search")
	defer span.End()
	span.SetAttributes(attribute.String("geocode.query", query), attribute.Int("geocode.limit", limit))

	start := time.Now()
	results, err := c.search(ctx, query, limit)
	metrics.ObserveUpstream("geocoder", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("geocode.results", len(results)))
	return results, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	if limit <= 0 {
		limit = 1
	}
	apiURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d", c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nominatim request failed: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nominatim returned status %d", domain.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nominatim response: %w", err)
	}

	var raw []result
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	out := make([]domain.GeocodeResult, 0, len(raw))
	for _, r := range raw {
		lat, err := strconv.ParseFloat(r.Lat.String(), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon.String(), 64)
		if err != nil {
			continue
		}
		p := domain.GeoPoint{Lat: lat, Lng: lon}
		if !p.Valid() {
			continue
		}
		out = append(out, domain.GeocodeResult{Point: p, DisplayName: r.DisplayName})
	}
	return out, nil
}
