package listening

import (
	"math"
	"time"
)

// DefaultSessionGap is the inactivity gap that delimits listening
// sessions when computing session frequency.
const DefaultSessionGap = 30 * time.Minute

// featureNames is the contractual feature order. The archetype cluster
// model stores features in this exact order; it is validated at model
// load time.
var featureNames = []string{
	"total_plays",
	"avg_duration",
	"like_ratio",
	"skip_ratio",
	"genre_diversity",
	"session_frequency",
}

// FeatureNames returns the fixed feature order of FeatureVector values.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// NumFeatures is the dimensionality of a FeatureVector.
func NumFeatures() int {
	return len(featureNames)
}

// FeatureVector is a user's listening behavior reduced to a fixed numeric
// schema. Derived per request from the event history; never persisted.
type FeatureVector struct {
	TotalPlays       float64 `json:"total_plays"`
	AvgDuration      float64 `json:"avg_duration"`
	LikeRatio        float64 `json:"like_ratio"`
	SkipRatio        float64 `json:"skip_ratio"`
	GenreDiversity   float64 `json:"genre_diversity"`
	SessionFrequency float64 `json:"session_frequency"`
}

// Values returns the features in the order given by FeatureNames.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.TotalPlays,
		v.AvgDuration,
		v.LikeRatio,
		v.SkipRatio,
		v.GenreDiversity,
		v.SessionFrequency,
	}
}

// Insufficient reports whether the vector carries too little signal to
// classify: a user with zero plays has no behavior to speak of.
func (v FeatureVector) Insufficient() bool {
	return v.TotalPlays == 0
}

// Extractor derives feature vectors from event histories.
type Extractor struct {
	sessionGap time.Duration
}

// NewExtractor creates an extractor. A non-positive gap falls back to
// DefaultSessionGap.
func NewExtractor(sessionGap time.Duration) *Extractor {
	if sessionGap <= 0 {
		sessionGap = DefaultSessionGap
	}
	return &Extractor{sessionGap: sessionGap}
}

// Extract reduces a user's ordered event history to a FeatureVector.
// genreOf resolves a track id to its genre label for the diversity term.
// A user with no play events yields the zero vector; callers check
// Insufficient before classifying.
func (e *Extractor) Extract(events []Event, genreOf func(trackID string) string) FeatureVector {
	var v FeatureVector
	if len(events) == 0 {
		return v
	}

	var plays, likes, skips int
	var durationSum float64
	genreCounts := make(map[string]int)
	for _, ev := range events {
		switch ev.Type {
		case EventPlay:
			plays++
			durationSum += ev.ListenedDuration
			if genreOf != nil {
				genreCounts[genreOf(ev.TrackID)]++
			}
		case EventLike:
			likes++
		case EventSkip:
			skips++
		}
	}

	if plays == 0 {
		return v
	}

	v.TotalPlays = float64(plays)
	v.AvgDuration = durationSum / float64(plays)
	v.LikeRatio = float64(likes) / float64(plays)
	v.SkipRatio = float64(skips) / float64(plays)
	v.GenreDiversity = shannonEntropy(genreCounts, plays)
	v.SessionFrequency = e.sessionFrequency(events)
	return v
}

// shannonEntropy computes -sum(p*log2(p)) over genre play proportions.
// Fewer than two distinct genres carries zero diversity.
func shannonEntropy(genreCounts map[string]int, totalPlays int) float64 {
	if len(genreCounts) < 2 || totalPlays == 0 {
		return 0
	}

	var entropy float64
	for _, count := range genreCounts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(totalPlays)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// sessionFrequency counts gap-delimited sessions per day of history. The
// denominator is floored at one day so brand-new users are not inflated.
func (e *Extractor) sessionFrequency(events []Event) float64 {
	sessions := 1
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Sub(events[i-1].Timestamp) > e.sessionGap {
			sessions++
		}
	}

	span := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
	days := span.Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(sessions) / days
}
