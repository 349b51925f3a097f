package usecases

import (
	"context"
	"log/slog"
	"math"

	"github.com/tidwall/rtree"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
	"github.com/samirrijal/walkies/internal/pkg/geospatial"
)

// nearestCandidates is how many index hits are re-ranked by great-circle distance.
const nearestCandidates = 8

// DefaultSpaces is the read-only set of reference spaces new sessions start
// with, indexed for nearest lookups.
type DefaultSpaces struct {
	spaces []domain.Space
	tree   rtree.RTreeG[int]
}

// NewDefaultSpaces indexes the given spaces. Invalid entries are skipped.
func NewDefaultSpaces(spaces []domain.Space) *DefaultSpaces {
	d := &DefaultSpaces{}
	for _, s := range spaces {
		if s.Name == "" || !s.Location.Valid() {
			continue
		}
		s.DistanceKm = nil
		pt := [2]float64{s.Location.Lng, s.Location.Lat}
		d.tree.Insert(pt, pt, len(d.spaces))
		d.spaces = append(d.spaces, s)
	}
	return d
}

// LoadDefaultSpaces reads reference spaces from repo, falling back to
// fallback when the repository is unavailable or empty.
func LoadDefaultSpaces(ctx context.Context, repo ports.ReferenceSpaceRepository, fallback []domain.Space) *DefaultSpaces {
	if repo != nil {
		spaces, err := repo.List(ctx)
		switch {
		case err != nil:
			slog.Warn("reference spaces unavailable, using built-in defaults", "error", err)
		case len(spaces) == 0:
			slog.Info("no reference spaces stored, using built-in defaults")
		default:
			slog.Info("loaded reference spaces", "count", len(spaces))
			return NewDefaultSpaces(spaces)
		}
	}
	return NewDefaultSpaces(fallback)
}

// Len returns the number of reference spaces.
func (d *DefaultSpaces) Len() int { return len(d.spaces) }

// All returns copies of every reference space.
func (d *DefaultSpaces) All() []domain.Space {
	out := make([]domain.Space, len(d.spaces))
	copy(out, d.spaces)
	return out
}

// Nearest returns the reference space closest to p.
func (d *DefaultSpaces) Nearest(p domain.GeoPoint) (domain.Space, bool) {
	if len(d.spaces) == 0 {
		return domain.Space{}, false
	}

	// box distance orders the walk, haversine picks the winner
	box := geospatial.BoxDistance(p.Lat, p.Lng)
	planar := func(min, max [2]float64, _ int, _ bool) float64 { return box(min, max) }

	best, bestKm := -1, math.Inf(1)
	seen := 0
	d.tree.Nearby(planar, func(_, _ [2]float64, idx int, _ float64) bool {
		s := d.spaces[idx]
		km := geospatial.DistanceKm(p.Lat, p.Lng, s.Location.Lat, s.Location.Lng)
		if km < bestKm {
			best, bestKm = idx, km
		}
		seen++
		return seen < nearestCandidates
	})
	if best < 0 {
		return domain.Space{}, false
	}
	return d.spaces[best], true
}
