package starfield

import (
	"math"
	"testing"
)

func TestStarsDeterministicForSeed(t *testing.T) {
	config := Config{Seed: 42, StarCount: 200}
	a := Stars(config)
	b := Stars(config)
	if len(a) != 200 || len(b) != 200 {
		t.Fatalf("star counts = %d, %d, want 200", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("star %d differs between runs with the same seed", i)
		}
	}
}

func TestStarsSitOnShell(t *testing.T) {
	config := Config{Seed: 7, StarCount: 100, Radius: 4000}
	for _, s := range Stars(config) {
		if math.Abs(float64(s.Position.Len())-4000) > 1 {
			t.Fatalf("star at distance %v, want the 4000 shell", s.Position.Len())
		}
		if s.Brightness <= 0 || s.Brightness > 1 {
			t.Fatalf("brightness %v outside (0,1]", s.Brightness)
		}
	}
}

func TestDustStaysInsideExtent(t *testing.T) {
	config := Config{Seed: 7, DustCount: 300, DustExtent: 500}
	points := DustPositions(config)
	if len(points) != 300 {
		t.Fatalf("dust count = %d, want 300", len(points))
	}
	for _, p := range points {
		for axis := 0; axis < 3; axis++ {
			if float64(math.Abs(float64(p[axis]))) > 500 {
				t.Fatalf("dust point %v escapes the extent", p)
			}
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := Stars(Config{Seed: 1, StarCount: 50})
	b := Stars(Config{Seed: 2, StarCount: 50})
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical skies")
	}
}
