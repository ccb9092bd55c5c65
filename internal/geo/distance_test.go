package geo

import (
	"math"
	"testing"
)

func TestDistance_SamePoint(t *testing.T) {
	if d := Distance(52.52, 13.40, 52.52, 13.40); d != 0 {
		t.Fatalf("expected 0 for identical coordinates, got %f", d)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{52.52, 13.40, 48.85, 2.35},
		{-33.86, 151.20, 40.71, -74.00},
		{0, 0, 0.001, 0.001},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
		}
	}
}

func TestDistance_KnownValues(t *testing.T) {
	// один градус широты на экваторе ~ 111.19 км
	d := Distance(0, 0, 1, 0)
	if math.Abs(d-111194.9) > 10 {
		t.Fatalf("1 degree of latitude: expected ~111194.9m, got %f", d)
	}

	// сценарий смежных точек в Берлине: ~60м
	d = Distance(52.52, 13.40, 52.5205, 13.4005)
	if d < 50 || d > 75 {
		t.Fatalf("Berlin pair: expected ~60m, got %f", d)
	}
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	half := math.Pi * 6371000
	if math.Abs(d-half) > 1 {
		t.Fatalf("antipodal distance: expected %f, got %f", half, d)
	}
	if math.IsNaN(d) {
		t.Fatal("antipodal distance is NaN")
	}
}
