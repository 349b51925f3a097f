package seed_test

import (
	"testing"

	"github.com/samirrijal/walkies/internal/adapters/seed"
	"github.com/samirrijal/walkies/internal/core/domain"
)

func TestSpaces(t *testing.T) {
	spaces, err := seed.Spaces()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spaces) != 3 {
		t.Fatalf("expected 3 seed spaces, got %d", len(spaces))
	}

	// every seed must be accepted by a catalog
	c := domain.NewCatalog()
	for _, s := range spaces {
		if _, err := c.Add(s); err != nil {
			t.Errorf("seed %q rejected: %v", s.Name, err)
		}
	}

	if spaces[0].Fencing != domain.FencingFenced || !spaces[0].Bins || !spaces[0].Coffee {
		t.Errorf("unexpected first seed: %+v", spaces[0])
	}
}

func TestSpaces_UnfencedFilter(t *testing.T) {
	spaces, err := seed.Spaces()
	if err != nil {
		t.Fatal(err)
	}
	c := domain.NewCatalog(spaces...)

	unfenced := c.Filter(domain.FilterSet{domain.FacilityUnfenced: true})
	if len(unfenced) != 2 {
		t.Fatalf("expected 2 unfenced seeds, got %d", len(unfenced))
	}

	got := c.Filter(domain.FilterSet{domain.FacilityUnfenced: true, domain.FacilityBins: true})
	if len(got) != 1 || got[0].Name != "Peckham Rye – dog exercise area" {
		t.Errorf("expected Peckham Rye only, got %+v", got)
	}
}
