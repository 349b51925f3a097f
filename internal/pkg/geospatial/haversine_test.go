package geospatial

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantKm           float64
		tolerancePercent float64
	}{
		{
			name: "Same point",
			lat1: 51.4429, lon1: -0.0869,
			lat2: 51.4429, lon2: -0.0869,
			wantKm: 0,
		},
		{
			name: "London to Paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantKm:           343.5,
			tolerancePercent: 1,
		},
		{
			name: "Dulwich Park to Peckham Rye",
			lat1: 51.4429, lon1: -0.0869,
			lat2: 51.45972456481489, lon2: -0.0643467561865794,
			wantKm:           2.44,
			tolerancePercent: 3,
		},
		{
			name: "Across the antimeridian",
			lat1: 0, lon1: 179.5,
			lat2: 0, lon2: -179.5,
			wantKm:           111.2,
			tolerancePercent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantKm == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantKm) / tt.wantKm * 100
			if diff > tt.tolerancePercent {
				t.Errorf("DistanceKm = %f km, want ~%f km (diff %.1f%%)", got, tt.wantKm, diff)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(51.5007, 0.0056, 51.4429, -0.0869)
	b := DistanceKm(51.4429, -0.0869, 51.5007, 0.0056)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric: %f vs %f", a, b)
	}
	if a <= 0 {
		t.Errorf("expected positive distance, got %f", a)
	}
}

func TestBoxDistance(t *testing.T) {
	dist := BoxDistance(51.4429, -0.0869)

	inside := dist([2]float64{-0.1, 51.4}, [2]float64{-0.05, 51.5})
	if inside != 0 {
		t.Errorf("point inside box: got %f, want 0", inside)
	}

	near := dist([2]float64{-0.08, 51.44}, [2]float64{-0.08, 51.44})
	far := dist([2]float64{0.0056, 51.5007}, [2]float64{0.0056, 51.5007})
	if !(near < far) {
		t.Errorf("expected near (%f) < far (%f)", near, far)
	}
}

func TestBoxDistance_ScalesLongitude(t *testing.T) {
	// one degree of longitude is shorter than one of latitude away from the equator
	dist := BoxDistance(51.5, 0)
	east := dist([2]float64{1, 51.5}, [2]float64{1, 51.5})
	north := dist([2]float64{0, 52.5}, [2]float64{0, 52.5})
	if !(east < north) {
		t.Errorf("expected east (%f) < north (%f)", east, north)
	}
}

func BenchmarkDistanceKm(b *testing.B) {
	for b.Loop() {
		DistanceKm(51.4429, -0.0869, 51.5007, 0.0056)
	}
}
