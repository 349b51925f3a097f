package domain

import (
	"fmt"
	"strings"
)

// TravelMode selects how directions are computed.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

// ParseTravelMode validates a mode name; empty means walking.
func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeWalking:
		return ModeWalking, nil
	case ModeDriving:
		return ModeDriving, nil
	case ModeTransit:
		return ModeTransit, nil
	}
	return "", NewUserError(ErrValidation, fmt.Sprintf("Unknown travel mode %q.", s))
}

// Profile maps a mode to the routing profile. There is no transit
// profile, so transit is served by driving directions.
func (m TravelMode) Profile() string {
	switch m {
	case ModeDriving, ModeTransit:
		return "driving"
	default:
		return "walking"
	}
}

// RouteStep is one manoeuvre of a route.
type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance_m"`
	DurationSeconds float64 `json:"duration_s"`
}

// RouteData is a computed route from the user to a destination space.
type RouteData struct {
	Mode            TravelMode    `json:"mode"`
	DistanceMeters  float64       `json:"distance_m"`
	DurationSeconds float64       `json:"duration_s"`
	Geometry        GeoLineString `json:"geometry"`
	Steps           []RouteStep   `json:"steps"`
	Origin          GeoPoint      `json:"origin"`
	Destination     GeoPoint      `json:"destination"`
	DestinationID   string        `json:"destination_id"`
	DestinationName string        `json:"destination_name"`
}

// Summary renders distance and duration, e.g. "1.2 km · 15 min".
func (r RouteData) Summary() string {
	mins := int(r.DurationSeconds/60 + 0.5)
	return fmt.Sprintf("%.1f km · %d min", r.DistanceMeters/1000, mins)
}

// LocationSource says which rule produced a resolution.
type LocationSource string

const (
	SourceLinkAt       LocationSource = "link_at"
	SourceLinkQuery    LocationSource = "link_query"
	SourceLinkFragment LocationSource = "link_fragment"
	SourceGeocoder     LocationSource = "geocoder"
	SourceDevice       LocationSource = "device"
	SourceManual       LocationSource = "manual"
)

// Resolution is a coordinate derived from free text.
type Resolution struct {
	Point       GeoPoint       `json:"point"`
	Source      LocationSource `json:"source"`
	DisplayName string         `json:"display_name,omitempty"`
}

// GeocodeResult is one candidate from a geocoding service.
type GeocodeResult struct {
	Point       GeoPoint `json:"point"`
	DisplayName string   `json:"display_name"`
}
