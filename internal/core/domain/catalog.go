package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/samirrijal/walkies/internal/pkg/geospatial"
)

// Catalog is an ordered collection of spaces with unique names.
// It is not safe for concurrent use; the owning session serialises access.
type Catalog struct {
	spaces []Space
}

// NewCatalog returns a catalog holding copies of the given spaces.
// Spaces without an ID are assigned one.
func NewCatalog(spaces ...Space) *Catalog {
	c := &Catalog{spaces: make([]Space, 0, len(spaces))}
	for _, s := range spaces {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		s.DistanceKm = nil
		c.spaces = append(c.spaces, s)
	}
	return c
}

// Len returns the number of spaces.
func (c *Catalog) Len() int { return len(c.spaces) }

// List returns a copy of all spaces in insertion order.
func (c *Catalog) List() []Space {
	out := make([]Space, len(c.spaces))
	copy(out, c.spaces)
	return out
}

// Get returns the space with the given ID.
func (c *Catalog) Get(id string) (Space, bool) {
	if i := c.index(id); i >= 0 {
		return c.spaces[i], true
	}
	return Space{}, false
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool { return c.index(id) >= 0 }

// GetByName looks a space up by name, ignoring case and surrounding space.
func (c *Catalog) GetByName(name string) (Space, bool) {
	key := nameKey(name)
	for _, s := range c.spaces {
		if nameKey(s.Name) == key {
			return s, true
		}
	}
	return Space{}, false
}

// Add validates and appends a space, assigning an ID if it has none.
func (c *Catalog) Add(s Space) (Space, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Fencing == "" {
		s.Fencing = FencingUnknown
	}
	if err := c.validate(s, ""); err != nil {
		return Space{}, err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	} else if c.Has(s.ID) {
		return Space{}, NewUserError(ErrConflict, MsgDuplicateName)
	}
	s.DistanceKm = nil
	c.spaces = append(c.spaces, s)
	return s, nil
}

// Update applies patch to the space with the given ID.
func (c *Catalog) Update(id string, patch SpacePatch) (Space, error) {
	i := c.index(id)
	if i < 0 {
		return Space{}, NewUserError(ErrNotFound, MsgSpaceNotFound)
	}
	s := patch.apply(c.spaces[i])
	s.Name = strings.TrimSpace(s.Name)
	if err := c.validate(s, id); err != nil {
		return Space{}, err
	}
	c.spaces[i] = s
	return s, nil
}

// Remove deletes the space with the given ID.
func (c *Catalog) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return NewUserError(ErrNotFound, MsgSpaceNotFound)
	}
	c.spaces = append(c.spaces[:i], c.spaces[i+1:]...)
	return nil
}

// RemoveMany deletes every listed space that exists and returns how many went.
func (c *Catalog) RemoveMany(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := c.spaces[:0]
	removed := 0
	for _, s := range c.spaces {
		if _, ok := drop[s.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	c.spaces = kept
	return removed
}

// Filter returns the spaces matching every active flag, in catalog order.
func (c *Catalog) Filter(fs FilterSet) []Space {
	out := make([]Space, 0, len(c.spaces))
	for _, s := range c.spaces {
		if fs.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) index(id string) int {
	for i, s := range c.spaces {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) validate(s Space, selfID string) error {
	if s.Name == "" {
		return NewUserError(ErrValidation, MsgNameRequired)
	}
	if !s.Location.Valid() {
		return NewUserError(ErrValidation, MsgInvalidCoordinates)
	}
	if _, err := ParseFencing(string(s.Fencing)); err != nil {
		return err
	}
	if other, ok := c.GetByName(s.Name); ok && other.ID != selfID {
		return NewUserError(ErrConflict, MsgDuplicateName)
	}
	return nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Annotate sets DistanceKm on each space relative to from. A nil origin
// clears the distances.
func Annotate(spaces []Space, from *GeoPoint) {
	for i := range spaces {
		if from == nil {
			spaces[i].DistanceKm = nil
			continue
		}
		d := geospatial.DistanceKm(from.Lat, from.Lng, spaces[i].Location.Lat, spaces[i].Location.Lng)
		spaces[i].DistanceKm = &d
	}
}

// SortByDistance orders spaces nearest first. The sort is stable and spaces
// without a distance keep their relative order after those with one.
func SortByDistance(spaces []Space) {
	sort.SliceStable(spaces, func(i, j int) bool {
		a, b := spaces[i].DistanceKm, spaces[j].DistanceKm
		if a == nil {
			return false
		}
		return b == nil || *a < *b
	})
}
