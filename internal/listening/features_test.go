package listening

import (
	"math"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func play(track string, duration float64, at time.Time) Event {
	return Event{UserID: "u", TrackID: track, Type: EventPlay, ListenedDuration: duration, Timestamp: at}
}

func genreLookup(genres map[string]string) func(string) string {
	return func(id string) string {
		if g, ok := genres[id]; ok {
			return g
		}
		return "unknown"
	}
}

func TestExtractNoEvents(t *testing.T) {
	e := NewExtractor(0)

	v := e.Extract(nil, nil)
	if v != (FeatureVector{}) {
		t.Errorf("Extract(nil) = %+v, want zero vector", v)
	}
	if !v.Insufficient() {
		t.Error("zero vector should be insufficient")
	}
}

func TestExtractNoPlays(t *testing.T) {
	e := NewExtractor(0)

	events := []Event{
		{Type: EventLike, Timestamp: base},
		{Type: EventSeek, Timestamp: base.Add(time.Minute)},
	}
	v := e.Extract(events, nil)
	if v != (FeatureVector{}) {
		t.Errorf("Extract without plays = %+v, want zero vector", v)
	}
}

func TestExtractRatios(t *testing.T) {
	e := NewExtractor(0)

	events := []Event{
		play("t1", 100, base),
		play("t2", 200, base.Add(time.Minute)),
		play("t3", 300, base.Add(2*time.Minute)),
		play("t4", 400, base.Add(3*time.Minute)),
		{Type: EventLike, Timestamp: base.Add(4 * time.Minute)},
		{Type: EventSkip, Timestamp: base.Add(5 * time.Minute)},
		{Type: EventSkip, Timestamp: base.Add(6 * time.Minute)},
	}
	v := e.Extract(events, nil)

	if v.TotalPlays != 4 {
		t.Errorf("TotalPlays = %v, want 4", v.TotalPlays)
	}
	if v.AvgDuration != 250 {
		t.Errorf("AvgDuration = %v, want 250", v.AvgDuration)
	}
	if v.LikeRatio != 0.25 {
		t.Errorf("LikeRatio = %v, want 0.25", v.LikeRatio)
	}
	if v.SkipRatio != 0.5 {
		t.Errorf("SkipRatio = %v, want 0.5", v.SkipRatio)
	}
}

func TestExtractGenreDiversity(t *testing.T) {
	e := NewExtractor(0)
	genres := genreLookup(map[string]string{
		"r1": "rock", "r2": "rock", "p1": "pop", "p2": "pop",
	})

	// 10 plays split evenly across two genres: entropy of a uniform
	// binary distribution is exactly 1 bit.
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events,
			play("r1", 100, base.Add(time.Duration(2*i)*time.Minute)),
			play("p1", 100, base.Add(time.Duration(2*i+1)*time.Minute)),
		)
	}

	v := e.Extract(events, genres)
	if math.Abs(v.GenreDiversity-1.0) > 1e-12 {
		t.Errorf("GenreDiversity = %v, want 1.0", v.GenreDiversity)
	}
}

func TestExtractSingleGenreZeroDiversity(t *testing.T) {
	e := NewExtractor(0)
	genres := genreLookup(map[string]string{"r1": "rock"})

	events := []Event{
		play("r1", 100, base),
		play("r1", 100, base.Add(time.Minute)),
	}
	if v := e.Extract(events, genres); v.GenreDiversity != 0 {
		t.Errorf("GenreDiversity = %v, want 0 for a single genre", v.GenreDiversity)
	}
}

func TestExtractSessionFrequency(t *testing.T) {
	e := NewExtractor(30 * time.Minute)

	// Every gap above 30 minutes opens a new session.
	events := []Event{
		play("t1", 100, base),
		play("t2", 100, base.Add(10*time.Minute)),
		play("t3", 100, base.Add(2*time.Hour+10*time.Minute)),
		play("t4", 100, base.Add(24*time.Hour)),
		play("t5", 100, base.Add(48*time.Hour)),
	}
	v := e.Extract(events, nil)

	// 4 sessions across exactly 2 days.
	if math.Abs(v.SessionFrequency-2.0) > 1e-12 {
		t.Errorf("SessionFrequency = %v, want 2.0", v.SessionFrequency)
	}
}

func TestExtractSessionFrequencyMinimumSpan(t *testing.T) {
	e := NewExtractor(30 * time.Minute)

	// A brand-new user: one session within an hour, denominator floors at
	// one day.
	events := []Event{
		play("t1", 100, base),
		play("t2", 100, base.Add(5*time.Minute)),
	}
	v := e.Extract(events, nil)
	if v.SessionFrequency != 1 {
		t.Errorf("SessionFrequency = %v, want 1", v.SessionFrequency)
	}
}

func TestFeatureOrderMatchesValues(t *testing.T) {
	v := FeatureVector{
		TotalPlays:       1,
		AvgDuration:      2,
		LikeRatio:        3,
		SkipRatio:        4,
		GenreDiversity:   5,
		SessionFrequency: 6,
	}

	values := v.Values()
	names := FeatureNames()
	if len(values) != len(names) {
		t.Fatalf("len(Values)=%d, len(FeatureNames)=%d", len(values), len(names))
	}
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if values[i] != want {
			t.Errorf("Values()[%d] = %v, want %v (feature %s)", i, values[i], want, names[i])
		}
	}
}
