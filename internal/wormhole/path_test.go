package wormhole

import (
	"errors"
	"math"
	"testing"

	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/similarity"
)

// ringCatalog spreads tracks along the unit circle so interpolated points
// have distinct nearest neighbors.
func ringCatalog(t *testing.T, n int) *catalog.Store {
	t.Helper()
	tracks := make([]catalog.Track, n)
	for i := range tracks {
		angle := float64(i) / float64(n) * math.Pi // quarter-to-half circle
		tracks[i] = catalog.Track{
			ID:     string(rune('a' + i)),
			Vector: []float64{math.Cos(angle), math.Sin(angle)},
		}
	}
	s := catalog.NewStore()
	if err := s.Replace(tracks); err != nil {
		t.Fatal(err)
	}
	return s
}

func newGenerator(t *testing.T, store *catalog.Store) *Generator {
	t.Helper()
	return NewGenerator(similarity.NewEngine(store))
}

func TestGeneratePath(t *testing.T) {
	store := ringCatalog(t, 12)
	g := newGenerator(t, store)

	path, err := g.GeneratePath("a", "l", 8)
	if err != nil {
		t.Fatal(err)
	}

	if len(path) != 8 {
		t.Fatalf("path length = %d, want 8", len(path))
	}
	if path[0] != "a" {
		t.Errorf("path[0] = %s, want a", path[0])
	}
	if path[len(path)-1] != "l" {
		t.Errorf("path[last] = %s, want l", path[len(path)-1])
	}

	seen := make(map[string]bool)
	for _, id := range path[1 : len(path)-1] {
		if id == "a" || id == "l" {
			t.Errorf("endpoint %s reused as intermediate", id)
		}
		if seen[id] {
			t.Errorf("duplicate intermediate %s", id)
		}
		seen[id] = true
	}
}

func TestGeneratePathSameEndpoints(t *testing.T) {
	store := ringCatalog(t, 8)
	g := newGenerator(t, store)

	path, err := g.GeneratePath("a", "a", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5", len(path))
	}
	if path[0] != "a" || path[4] != "a" {
		t.Errorf("endpoints = %s, %s, want a, a", path[0], path[4])
	}
	seen := make(map[string]bool)
	for _, id := range path[1:4] {
		if id == "a" || seen[id] {
			t.Errorf("bad intermediate %s in %v", id, path)
		}
		seen[id] = true
	}
}

func TestGeneratePathTwoSteps(t *testing.T) {
	store := ringCatalog(t, 4)
	g := newGenerator(t, store)

	path, err := g.GeneratePath("a", "b", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 2 || path[0] != "a" || path[1] != "b" {
		t.Errorf("path = %v, want [a b]", path)
	}
}

func TestGeneratePathInvalidSteps(t *testing.T) {
	store := ringCatalog(t, 4)
	g := newGenerator(t, store)

	for _, steps := range []int{1, 0, -3} {
		if _, err := g.GeneratePath("a", "b", steps); !errors.Is(err, ErrInvalidStepCount) {
			t.Errorf("steps=%d error = %v, want ErrInvalidStepCount", steps, err)
		}
	}
}

func TestGeneratePathUnknownEndpoint(t *testing.T) {
	store := ringCatalog(t, 4)
	g := newGenerator(t, store)

	if _, err := g.GeneratePath("a", "missing", 4); !errors.Is(err, catalog.ErrUnknownTrack) {
		t.Errorf("error = %v, want ErrUnknownTrack", err)
	}
	if _, err := g.GeneratePath("missing", "a", 4); !errors.Is(err, catalog.ErrUnknownTrack) {
		t.Errorf("error = %v, want ErrUnknownTrack", err)
	}
}

func TestGeneratePathZeroVector(t *testing.T) {
	s := catalog.NewStore()
	err := s.Replace([]catalog.Track{
		{ID: "zero", Vector: []float64{0, 0}},
		{ID: "ok", Vector: []float64{1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := newGenerator(t, s)

	if _, err := g.GeneratePath("zero", "ok", 4); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("error = %v, want ErrDegenerateVector", err)
	}
}

func TestGeneratePathOppositeVectors(t *testing.T) {
	// Antipodal endpoints: omega is pi, sin(omega) is ~0, so the linear
	// fallback kicks in without a domain error.
	s := catalog.NewStore()
	err := s.Replace([]catalog.Track{
		{ID: "east", Vector: []float64{1, 0}},
		{ID: "west", Vector: []float64{-1, 0}},
		{ID: "n1", Vector: []float64{0.5, 0.8}},
		{ID: "n2", Vector: []float64{-0.5, 0.8}},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := newGenerator(t, s)

	path, err := g.GeneratePath("east", "west", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 4 || path[0] != "east" || path[3] != "west" {
		t.Errorf("path = %v", path)
	}
}

func TestGeneratePathExhaustedCatalog(t *testing.T) {
	// Two tracks cannot supply three distinct intermediates.
	s := catalog.NewStore()
	err := s.Replace([]catalog.Track{
		{ID: "a", Vector: []float64{1, 0}},
		{ID: "b", Vector: []float64{0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := newGenerator(t, s)

	if _, err := g.GeneratePath("a", "b", 5); !errors.Is(err, similarity.ErrNoCandidates) {
		t.Errorf("error = %v, want ErrNoCandidates", err)
	}
}
