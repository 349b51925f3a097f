package domain

import (
	"fmt"
	"strings"
)

// Fencing describes how a space is enclosed. Exactly one value applies.
type Fencing string

const (
	FencingUnknown    Fencing = "unknown"
	FencingFenced     Fencing = "fenced"
	FencingUnfenced   Fencing = "unfenced"
	FencingPartFenced Fencing = "part_fenced"
)

// ParseFencing accepts the variant names; empty means unknown.
func ParseFencing(s string) (Fencing, error) {
	switch Fencing(strings.ToLower(strings.TrimSpace(s))) {
	case "", FencingUnknown:
		return FencingUnknown, nil
	case FencingFenced:
		return FencingFenced, nil
	case FencingUnfenced:
		return FencingUnfenced, nil
	case FencingPartFenced, "partfenced", "part-fenced":
		return FencingPartFenced, nil
	}
	return "", NewUserError(ErrValidation, fmt.Sprintf("Unknown fencing %q.", s))
}

// Space is a place suitable for walking or exercising dogs.
type Space struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Fencing  Fencing  `json:"fencing"`
	Bins     bool     `json:"bins"`
	Toilets  bool     `json:"toilets"`
	Coffee   bool     `json:"coffee"`
	Parking  bool     `json:"parking"`

	// OSM is set for spaces imported from OpenStreetMap.
	OSM *OSMRef `json:"-"`

	DistanceKm *float64 `json:"distance_km,omitempty"` // computed field
}

// OSMRef identifies an OpenStreetMap element.
type OSMRef struct {
	Type string
	ID   int64
}

// Has reports whether the space offers the facility.
func (s Space) Has(f Facility) bool {
	switch f {
	case FacilityFenced:
		return s.Fencing == FencingFenced
	case FacilityUnfenced:
		return s.Fencing == FencingUnfenced
	case FacilityPartFenced:
		return s.Fencing == FencingPartFenced
	case FacilityBins:
		return s.Bins
	case FacilityToilets:
		return s.Toilets
	case FacilityCoffee:
		return s.Coffee
	case FacilityParking:
		return s.Parking
	}
	return false
}

// DistanceText renders the computed distance, e.g. "2.4 km".
func (s Space) DistanceText() string {
	if s.DistanceKm == nil {
		return ""
	}
	return fmt.Sprintf("%.1f km", *s.DistanceKm)
}

// SpacePatch carries optional field updates for a space.
type SpacePatch struct {
	Name     *string
	Location *GeoPoint
	Fencing  *Fencing
	Bins     *bool
	Toilets  *bool
	Coffee   *bool
	Parking  *bool
}

func (p SpacePatch) apply(s Space) Space {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Location != nil {
		s.Location = *p.Location
	}
	if p.Fencing != nil {
		s.Fencing = *p.Fencing
	}
	if p.Bins != nil {
		s.Bins = *p.Bins
	}
	if p.Toilets != nil {
		s.Toilets = *p.Toilets
	}
	if p.Coffee != nil {
		s.Coffee = *p.Coffee
	}
	if p.Parking != nil {
		s.Parking = *p.Parking
	}
	return s
}

// Facility is a filterable amenity.
type Facility string

const (
	FacilityFenced     Facility = "fenced"
	FacilityUnfenced   Facility = "unfenced"
	FacilityPartFenced Facility = "part_fenced"
	FacilityBins       Facility = "bins"
	FacilityToilets    Facility = "toilets"
	FacilityCoffee     Facility = "coffee"
	FacilityParking    Facility = "parking"
)

// Facilities lists every facility in display order.
var Facilities = []Facility{
	FacilityFenced,
	FacilityUnfenced,
	FacilityPartFenced,
	FacilityBins,
	FacilityToilets,
	FacilityCoffee,
	FacilityParking,
}

// ParseFacility validates a facility name.
func ParseFacility(s string) (Facility, error) {
	name := Facility(strings.ToLower(strings.TrimSpace(s)))
	if name == "partfenced" || name == "part-fenced" {
		name = FacilityPartFenced
	}
	for _, f := range Facilities {
		if f == name {
			return f, nil
		}
	}
	return "", NewUserError(ErrValidation, fmt.Sprintf("Unknown filter %q.", s))
}

// FilterSet maps facility to whether it is required. Active flags combine
// with AND; an empty set matches everything.
type FilterSet map[Facility]bool

// ParseFilterSet builds a set with every named facility required.
func ParseFilterSet(names []string) (FilterSet, error) {
	fs := FilterSet{}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := ParseFacility(n)
		if err != nil {
			return nil, err
		}
		fs[f] = true
	}
	return fs, nil
}

// Active returns required facilities in display order.
func (fs FilterSet) Active() []Facility {
	var out []Facility
	for _, f := range Facilities {
		if fs[f] {
			out = append(out, f)
		}
	}
	return out
}

// Matches reports whether s has every required facility.
func (fs FilterSet) Matches(s Space) bool {
	for f, required := range fs {
		if required && !s.Has(f) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (fs FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}
