package recommend

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/similarity"
)

func diversityStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	err := s.Replace([]catalog.Track{
		{ID: "r1", Vector: []float64{1, 0}, Genre: "rock"},
		{ID: "r2", Vector: []float64{1, 0.1}, Genre: "rock"},
		{ID: "p1", Vector: []float64{0.9, 0.2}, Genre: "pop"},
		{ID: "p2", Vector: []float64{0.8, 0.3}, Genre: "pop"},
		{ID: "j1", Vector: []float64{0.7, 0.4}, Genre: "jazz"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func matches(ids ...string) []similarity.Match {
	out := make([]similarity.Match, len(ids))
	for i, id := range ids {
		out[i] = similarity.Match{TrackID: id, Score: 1 - float64(i)*0.1}
	}
	return out
}

func TestApplyExcludesRecentlyPlayed(t *testing.T) {
	f := NewDiversityFilter(diversityStore(t), DefaultDiversityConfig(), rand.New(rand.NewSource(1)))

	recent := []string{"r1", "p1"}
	got, err := f.Apply(matches("r1", "r2", "p1", "p2", "j1"), recent, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range got {
		for _, r := range recent {
			if m.TrackID == r {
				t.Errorf("recently played %s returned", r)
			}
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d candidates, want 3", len(got))
	}
}

func TestApplyEmptyPool(t *testing.T) {
	f := NewDiversityFilter(diversityStore(t), DefaultDiversityConfig(), rand.New(rand.NewSource(1)))

	if _, err := f.Apply(nil, nil, nil); !errors.Is(err, similarity.ErrNoCandidates) {
		t.Errorf("error = %v, want ErrNoCandidates", err)
	}
}

func TestApplyColdPoolFallsBack(t *testing.T) {
	f := NewDiversityFilter(diversityStore(t), DefaultDiversityConfig(), rand.New(rand.NewSource(1)))

	// Every candidate was recently played: recency loses.
	cands := matches("r1", "p1")
	got, err := f.Apply(cands, []string{"r1", "p1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].TrackID != "r1" || got[1].TrackID != "p1" {
		t.Errorf("cold pool fallback = %v, want unfiltered order", got)
	}
}

func TestApplyExploitKeepsSimilarityOrder(t *testing.T) {
	// ExploreProbability 0 forces the exploit branch on every draw.
	cfg := DiversityConfig{RecentLimit: 20, ExploreProbability: 0}
	f := NewDiversityFilter(diversityStore(t), cfg, rand.New(rand.NewSource(1)))

	got, err := f.Apply(matches("r1", "p1", "j1"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"r1", "p1", "j1"}
	for i, id := range want {
		if got[i].TrackID != id {
			t.Fatalf("exploit order = %v, want %v", got, want)
		}
	}
}

func TestApplyExploreIsPermutation(t *testing.T) {
	cfg := DiversityConfig{RecentLimit: 20, ExploreProbability: 1}
	f := NewDiversityFilter(diversityStore(t), cfg, rand.New(rand.NewSource(42)))

	in := matches("r1", "r2", "p1", "p2", "j1")
	got, err := f.Apply(in, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, m := range got {
		if seen[m.TrackID] {
			t.Fatalf("duplicate %s in output", m.TrackID)
		}
		seen[m.TrackID] = true
	}
	if len(got) != len(in) {
		t.Errorf("got %d candidates, want %d", len(got), len(in))
	}
}

func TestApplyDeterministicWithSeed(t *testing.T) {
	cfg := DefaultDiversityConfig()
	in := matches("r1", "r2", "p1", "p2", "j1")
	recent := []string{"j1"}

	run := func() []string {
		f := NewDiversityFilter(diversityStore(t), cfg, rand.New(rand.NewSource(7)))
		got, err := f.Apply(in, recent, map[string]float64{"rock": 0.5})
		if err != nil {
			t.Fatal(err)
		}
		ids := make([]string, len(got))
		for i, m := range got {
			ids[i] = m.TrackID
		}
		return ids
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}
}

func TestApplyBoundedRecencyWindow(t *testing.T) {
	cfg := DiversityConfig{RecentLimit: 2, ExploreProbability: 0}
	f := NewDiversityFilter(diversityStore(t), cfg, rand.New(rand.NewSource(1)))

	// r1 fell out of the 2-track window; only p1 and p2 are excluded.
	got, err := f.Apply(matches("r1", "p1", "p2"), []string{"r1", "p1", "p2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TrackID != "r1" {
		t.Errorf("got %v, want only r1", got)
	}
}
