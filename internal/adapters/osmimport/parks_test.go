package osmimport

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/osm"

	"github.com/samirrijal/walkies/internal/core/domain"
)

func TestIsDogPark(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{"dog park", osm.Tags{{Key: "leisure", Value: "dog_park"}}, true},
		{"park", osm.Tags{{Key: "leisure", Value: "park"}}, false},
		{"untagged", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDogPark(tt.tags); got != tt.want {
				t.Errorf("IsDogPark = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFencingFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want domain.Fencing
	}{
		{"fenced yes", osm.Tags{{Key: "fenced", Value: "yes"}}, domain.FencingFenced},
		{"fenced no", osm.Tags{{Key: "fenced", Value: "no"}}, domain.FencingUnfenced},
		{"partial", osm.Tags{{Key: "fenced", Value: "partial"}}, domain.FencingPartFenced},
		{"barrier fence", osm.Tags{{Key: "barrier", Value: "fence"}}, domain.FencingFenced},
		{"nothing", osm.Tags{{Key: "name", Value: "X"}}, domain.FencingUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fencingFromTags(tt.tags); got != tt.want {
				t.Errorf("fencingFromTags = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSpaceFromTags(t *testing.T) {
	loc := domain.GeoPoint{Lat: 51.4429, Lng: -0.0869}
	tags := osm.Tags{
		{Key: "leisure", Value: "dog_park"},
		{Key: "name", Value: " Dulwich Park dog area "},
		{Key: "fenced", Value: "yes"},
		{Key: "vending", Value: "excrement_bags"},
		{Key: "cafe", Value: "yes"},
	}

	sp, ok := SpaceFromTags("way", 42, tags, loc)
	if !ok {
		t.Fatal("expected a space")
	}
	if sp.Name != "Dulwich Park dog area" {
		t.Errorf("unexpected name %q", sp.Name)
	}
	if _, err := uuid.Parse(sp.ID); err != nil {
		t.Errorf("id %q is not a UUID: %v", sp.ID, err)
	}
	if sp.ID != SpaceID("way", 42) || sp.ID == SpaceID("node", 42) {
		t.Errorf("id %q not derived from the element", sp.ID)
	}
	if sp.OSM == nil || sp.OSM.Type != "way" || sp.OSM.ID != 42 {
		t.Errorf("unexpected osm ref %+v", sp.OSM)
	}
	if sp.Fencing != domain.FencingFenced || !sp.Bins || !sp.Coffee || sp.Toilets || sp.Parking {
		t.Errorf("unexpected attributes %+v", sp)
	}

	if _, ok := SpaceFromTags("node", 1, osm.Tags{{Key: "leisure", Value: "dog_park"}}, loc); ok {
		t.Error("unnamed element should be skipped")
	}
	if _, ok := SpaceFromTags("node", 1, tags, domain.GeoPoint{Lat: 95}); ok {
		t.Error("invalid location should be skipped")
	}
}

func TestCentroid(t *testing.T) {
	square := []domain.GeoPoint{
		{Lat: 51.0, Lng: 0.0},
		{Lat: 51.0, Lng: 0.2},
		{Lat: 51.2, Lng: 0.2},
		{Lat: 51.2, Lng: 0.0},
		{Lat: 51.0, Lng: 0.0},
	}
	c, ok := Centroid(square)
	if !ok {
		t.Fatal("expected a centroid")
	}
	if math.Abs(c.Lat-51.1) > 1e-9 || math.Abs(c.Lng-0.1) > 1e-9 {
		t.Errorf("centroid = %+v, want 51.1,0.1", c)
	}

	line := []domain.GeoPoint{{Lat: 51.0, Lng: 0.0}, {Lat: 51.0, Lng: 0.4}}
	c, _ = Centroid(line)
	if math.Abs(c.Lat-51.0) > 1e-9 || math.Abs(c.Lng-0.2) > 1e-9 {
		t.Errorf("line centroid = %+v, want 51.0,0.2", c)
	}

	if _, ok := Centroid(nil); ok {
		t.Error("empty outline should not have a centroid")
	}
}

func TestDedupe(t *testing.T) {
	in := []domain.Space{
		{ID: "a", Name: "Hilly Fields"},
		{ID: "b", Name: "hilly fields"},
		{ID: "c", Name: "Nunhead"},
	}
	out := Dedupe(in)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("unexpected dedupe result %+v", out)
	}
}

func TestBBox(t *testing.T) {
	b := BBox{MinLat: 51.3, MaxLat: 51.7, MinLng: -0.5, MaxLng: 0.3}
	if !b.Contains(domain.GeoPoint{Lat: 51.5, Lng: -0.1}) {
		t.Error("london should be inside")
	}
	if b.Contains(domain.GeoPoint{Lat: 53.4, Lng: -2.2}) {
		t.Error("manchester should be outside")
	}
	if !(BBox{}).IsZero() {
		t.Error("zero bbox should report IsZero")
	}
}
