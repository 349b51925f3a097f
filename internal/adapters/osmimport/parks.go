// Package osmimport extracts dog parks from OpenStreetMap PBF extracts.
package osmimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/samirrijal/walkies/internal/core/domain"
)

// BBox limits the import to a geographic area. The zero value keeps everything.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if p is inside the bounding box.
func (b BBox) Contains(p domain.GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// IsDogPark reports whether an element is tagged as a dog park.
func IsDogPark(tags osm.Tags) bool {
	return tags.Find("leisure") == "dog_park"
}

func yes(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// fencingFromTags maps the fence and barrier tags onto a fencing variant.
func fencingFromTags(tags osm.Tags) domain.Fencing {
	switch strings.ToLower(tags.Find("fenced")) {
	case "yes", "true":
		return domain.FencingFenced
	case "no", "false":
		return domain.FencingUnfenced
	case "partial":
		return domain.FencingPartFenced
	}
	if tags.Find("barrier") == "fence" {
		return domain.FencingFenced
	}
	return domain.FencingUnknown
}

// SpaceID derives a stable space ID from an OSM element, so re-imports
// upsert the same rows.
func SpaceID(elemType string, id int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("https://www.openstreetmap.org/%s/%d", elemType, id))).String()
}

// SpaceFromTags builds a space for an OSM element at loc. Unnamed elements
// are skipped.
func SpaceFromTags(elemType string, id int64, tags osm.Tags, loc domain.GeoPoint) (domain.Space, bool) {
	name := strings.TrimSpace(tags.Find("name"))
	if name == "" || !loc.Valid() {
		return domain.Space{}, false
	}
	return domain.Space{
		ID:       SpaceID(elemType, id),
		OSM:      &domain.OSMRef{Type: elemType, ID: id},
		Name:     name,
		Location: loc,
		Fencing:  fencingFromTags(tags),
		Bins:     yes(tags.Find("waste_basket")) || tags.Find("vending") == "excrement_bags",
		Toilets:  yes(tags.Find("toilets")),
		Coffee:   yes(tags.Find("cafe")) || yes(tags.Find("refreshments")),
		Parking:  yes(tags.Find("parking")),
	}, true
}

// Centroid returns the centre of an outline. Closed outlines use the area
// centroid, open ones the length-weighted centre.
func Centroid(outline []domain.GeoPoint) (domain.GeoPoint, bool) {
	if len(outline) == 0 {
		return domain.GeoPoint{}, false
	}
	if len(outline) == 1 {
		return outline[0], true
	}
	ls := domain.GeoLineString{Coordinates: outline}.LineString()
	var g orb.Geometry = ls
	if len(ls) >= 4 && orb.Ring(ls).Closed() {
		g = orb.Polygon{orb.Ring(ls)}
	}
	c, _ := planar.CentroidArea(g)
	return domain.GeoPointFromOrb(c), true
}

type wayInfo struct {
	id    osm.WayID
	tags  osm.Tags
	nodes []osm.NodeID
}

// Parse reads an OSM PBF extract and returns the named dog parks in it.
// The reader is consumed twice, so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, bbox BBox) ([]domain.Space, error) {
	var spaces []domain.Space
	var ways []wayInfo
	referenced := make(map[osm.NodeID]struct{})

	// Pass 1: dog-park nodes directly, dog-park ways by reference.
	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			if !IsDogPark(obj.Tags) {
				continue
			}
			if sp, ok := SpaceFromTags("node", int64(obj.ID), obj.Tags, domain.GeoPoint{Lat: obj.Lat, Lng: obj.Lon}); ok {
				spaces = append(spaces, sp)
			}
		case *osm.Way:
			if !IsDogPark(obj.Tags) || len(obj.Nodes) == 0 {
				continue
			}
			w := wayInfo{id: obj.ID, tags: obj.Tags, nodes: make([]osm.NodeID, len(obj.Nodes))}
			for i, wn := range obj.Nodes {
				w.nodes[i] = wn.ID
				referenced[wn.ID] = struct{}{}
			}
			ways = append(ways, w)
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (tagged elements): %w", err)
	}
	scanner.Close()

	slog.Info("osm pass 1 complete", "nodes", len(spaces), "ways", len(ways), "referenced_nodes", len(referenced))

	if len(ways) > 0 {
		// Pass 2: coordinates for way outlines.
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek for pass 2: %w", err)
		}
		coords := make(map[osm.NodeID]domain.GeoPoint, len(referenced))
		scanner = osmpbf.New(ctx, rs, 1)
		scanner.SkipWays = true
		scanner.SkipRelations = true
		for scanner.Scan() {
			n, ok := scanner.Object().(*osm.Node)
			if !ok {
				continue
			}
			if _, needed := referenced[n.ID]; needed {
				coords[n.ID] = domain.GeoPoint{Lat: n.Lat, Lng: n.Lon}
			}
		}
		if err := scanner.Err(); err != nil {
			scanner.Close()
			return nil, fmt.Errorf("pass 2 (nodes): %w", err)
		}
		scanner.Close()

		skipped := 0
		for _, w := range ways {
			outline := make([]domain.GeoPoint, 0, len(w.nodes))
			for _, id := range w.nodes {
				if p, ok := coords[id]; ok {
					outline = append(outline, p)
				}
			}
			if len(outline) != len(w.nodes) {
				skipped++
				continue
			}
			c, ok := Centroid(outline)
			if !ok {
				continue
			}
			if sp, ok := SpaceFromTags("way", int64(w.id), w.tags, c); ok {
				spaces = append(spaces, sp)
			}
		}
		if skipped > 0 {
			slog.Warn("skipped ways with missing node coordinates", "count", skipped)
		}
	}

	if !bbox.IsZero() {
		kept := spaces[:0]
		for _, sp := range spaces {
			if bbox.Contains(sp.Location) {
				kept = append(kept, sp)
			}
		}
		spaces = kept
	}
	return Dedupe(spaces), nil
}

// Dedupe drops spaces whose name repeats an earlier one, ignoring case.
func Dedupe(spaces []domain.Space) []domain.Space {
	seen := make(map[string]struct{}, len(spaces))
	out := spaces[:0]
	for _, sp := range spaces {
		key := strings.ToLower(sp.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sp)
	}
	return out
}
