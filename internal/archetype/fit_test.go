package archetype

import (
	"testing"

	"github.com/soniq-labs/soniq-core/internal/listening"
)

// fitPopulation synthesizes four well-separated behavioral groups.
func fitPopulation() []listening.FeatureVector {
	var out []listening.FeatureVector
	for i := 0; i < 10; i++ {
		jitter := float64(i) * 0.01
		// Casual: few plays, short durations.
		out = append(out, listening.FeatureVector{
			TotalPlays: 3 + jitter, AvgDuration: 25, SessionFrequency: 0.2,
		})
		// Explorer: diverse, skip-happy.
		out = append(out, listening.FeatureVector{
			TotalPlays: 60 + jitter, AvgDuration: 90, SkipRatio: 0.6,
			GenreDiversity: 2.8, SessionFrequency: 2,
		})
		// Enthusiast: long sessions, many likes.
		out = append(out, listening.FeatureVector{
			TotalPlays: 120 + jitter, AvgDuration: 280, LikeRatio: 0.5,
			GenreDiversity: 1.5, SessionFrequency: 4,
		})
		// Niche: focused on one genre.
		out = append(out, listening.FeatureVector{
			TotalPlays: 80 + jitter, AvgDuration: 200, LikeRatio: 0.2,
			GenreDiversity: 0.1, SessionFrequency: 1,
		})
	}
	return out
}

func TestFit(t *testing.T) {
	model, err := Fit(fitPopulation())
	if err != nil {
		t.Fatal(err)
	}

	if len(model.Centroids) != len(Labels) {
		t.Fatalf("got %d centroids, want %d", len(model.Centroids), len(Labels))
	}

	// Every archetype label appears exactly once.
	seen := make(map[string]int)
	for _, l := range model.Labels {
		seen[l]++
	}
	for _, want := range Labels {
		if seen[want] != 1 {
			t.Errorf("label %q assigned %d times, want 1", want, seen[want])
		}
	}

	if err := model.Validate(); err != nil {
		t.Errorf("fitted model invalid: %v", err)
	}
}

func TestFitTooFewUsers(t *testing.T) {
	few := []listening.FeatureVector{
		{TotalPlays: 1}, {TotalPlays: 2},
	}
	if _, err := Fit(few); err == nil {
		t.Error("Fit() with fewer users than archetypes succeeded")
	}
}

func TestFitClassifiesPopulation(t *testing.T) {
	model, err := Fit(fitPopulation())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClassifier(model)

	// A strongly enthusiast-shaped user lands in the enthusiast cluster.
	got, err := c.Classify(listening.FeatureVector{
		TotalPlays: 115, AvgDuration: 270, LikeRatio: 0.45,
		GenreDiversity: 1.4, SessionFrequency: 3.8,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != LabelEnthusiast {
		t.Errorf("label = %s, want %s", got.Label, LabelEnthusiast)
	}
}
