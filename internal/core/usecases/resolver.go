package usecases

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

const geocodeCacheTTL = 24 * 60 * 60

var (
	coordPart = `([-+]?\d{1,3}(?:\.\d+)?)`

	// .../@51.5007,0.0056,15z
	atPairRe = regexp.MustCompile(`@` + coordPart + `,\s*` + coordPart)
	// ...?q=51.5,-0.1 and ll=/query= variants, comma may be %2C
	queryPairRe = regexp.MustCompile(`(?i)[?&](?:q|ll|query)=` + coordPart + `(?:,|%2C)(?:\s|\+|%20)*` + coordPart)
	// ...#map=15/51.5/-0.1
	fragmentRe = regexp.MustCompile(`#map=\d+(?:\.\d+)?/` + coordPart + `/` + coordPart)
)

// LocationResolver turns free text (map links, place names, postcodes)
// into a coordinate.
type LocationResolver struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	suffix   string
}

// NewLocationResolver creates a resolver. suffix is appended to geocoder
// queries to bias them towards the service area.
func NewLocationResolver(geocoder ports.Geocoder, cache ports.CacheService, suffix string) *LocationResolver {
	return &LocationResolver{geocoder: geocoder, cache: cache, suffix: suffix}
}

// ParseCoordinateLink extracts a coordinate from a map share link without
// any I/O. Matches with out-of-range numbers are skipped.
func ParseCoordinateLink(text string) (domain.Resolution, bool) {
	rules := []struct {
		re     *regexp.Regexp
		source domain.LocationSource
	}{
		{atPairRe, domain.SourceLinkAt},
		{queryPairRe, domain.SourceLinkQuery},
		{fragmentRe, domain.SourceLinkFragment},
	}
	for _, rule := range rules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p, ok := parsePair(m[1], m[2]); ok {
			return domain.Resolution{Point: p, Source: rule.source}, true
		}
	}
	return domain.Resolution{}, false
}

// Resolve tries the link patterns first and falls back to one geocoder
// lookup. Every failure is reported as not found.
func (r *LocationResolver) Resolve(ctx context.Context, text string) (domain.Resolution, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Resolution{}, false
	}

	if res, ok := ParseCoordinateLink(text); ok {
		metrics.LocationResolutions.WithLabelValues(string(res.Source)).Inc()
		return res, true
	}

	if r.geocoder == nil {
		metrics.LocationResolutions.WithLabelValues("not_found").Inc()
		return domain.Resolution{}, false
	}

	query := text + r.suffix
	cacheKey := "geocode:" + strings.ToLower(query)
	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			var res domain.Resolution
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				metrics.LocationResolutions.WithLabelValues(string(res.Source)).Inc()
				return res, true
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	results, err := r.geocoder.Search(ctx, query, 1)
	if err != nil {
		slog.WarnContext(ctx, "geocode lookup failed", "query", query, "error", err)
		metrics.LocationResolutions.WithLabelValues("not_found").Inc()
		return domain.Resolution{}, false
	}
	if len(results) == 0 || !results[0].Point.Valid() {
		metrics.LocationResolutions.WithLabelValues("not_found").Inc()
		return domain.Resolution{}, false
	}

	res := domain.Resolution{
		Point:       results[0].Point,
		Source:      domain.SourceGeocoder,
		DisplayName: results[0].DisplayName,
	}

	if r.cache != nil {
		if data, err := json.Marshal(res); err == nil {
			_ = r.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}

	metrics.LocationResolutions.WithLabelValues(string(res.Source)).Inc()
	return res, true
}

func parsePair(latText, lngText string) (domain.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	lng, err := strconv.ParseFloat(lngText, 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return domain.GeoPoint{}, false
	}
	return p, true
}
