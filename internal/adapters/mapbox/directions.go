package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// DefaultBaseURL is the Mapbox API host.
const DefaultBaseURL = "https://api.mapbox.com"

type directionsResponse struct {
	Code   string  `json:"code"`
	Routes []route `json:"routes"`
}

type route struct {
	Duration float64           `json:"duration"`
	Distance float64           `json:"distance"`
	Geometry *geojson.Geometry `json:"geometry"`
	Legs     []struct {
		Steps []step `json:"steps"`
	} `json:"legs"`
}

type step struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Maneuver struct {
		Instruction string `json:"instruction"`
	} `json:"maneuver"`
}

// Directions implements ports.DirectionsProvider with the Mapbox Directions API.
type Directions struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewDirections creates a directions client.
func NewDirections(baseURL, accessToken string, timeout time.Duration) *Directions {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Directions{
		baseURL: baseURL,
		token:   accessToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// Route fetches the first route between from and to.
func (d *Directions) Route(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error) {
	ctx, span := otel.Tracer("walkies/mapbox").Start(ctx, "mapbox.directions")
	defer span.End()
	span.SetAttributes(attribute.String("directions.mode", string(mode)))

	start := time.Now()
	rd, err := d.route(ctx, mode, from, to)
	metrics.ObserveUpstream("directions", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rd, nil
}

func (d *Directions) route(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error) {
	apiURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%f,%f;%f,%f?geometries=geojson&steps=true&access_token=%s",
		d.baseURL, mode.Profile(), from.Lng, from.Lat, to.Lng, to.Lat, url.QueryEscape(d.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: directions request failed: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read directions response: %w", err)
	}

	var dr directionsResponse
	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, &dr); err != nil {
			return nil, fmt.Errorf("%w: decode directions response: %v", domain.ErrUpstream, err)
		}
	} else {
		return nil, fmt.Errorf("%w: directions returned status %d", domain.ErrUpstream, resp.StatusCode)
	}

	if dr.Code == "NoRoute" || dr.Code == "NoSegment" || len(dr.Routes) == 0 {
		return nil, fmt.Errorf("%w: code %q", domain.ErrNoRoute, dr.Code)
	}

	r := dr.Routes[0]
	var line orb.LineString
	if r.Geometry != nil {
		line, _ = r.Geometry.Geometry().(orb.LineString)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: route has no geometry", domain.ErrNoRoute)
	}

	rd := &domain.RouteData{
		Mode:            mode,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Origin:          from,
		Destination:     to,
		Steps:           []domain.RouteStep{},
	}
	rd.Geometry.Coordinates = make([]domain.GeoPoint, 0, len(line))
	for _, pt := range line {
		rd.Geometry.Coordinates = append(rd.Geometry.Coordinates, domain.GeoPointFromOrb(pt))
	}
	if len(r.Legs) > 0 {
		for _, s := range r.Legs[0].Steps {
			rd.Steps = append(rd.Steps, domain.RouteStep{
				Instruction:     s.Maneuver.Instruction,
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
			})
		}
	}
	return rd, nil
}
