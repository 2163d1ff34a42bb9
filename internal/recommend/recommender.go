package recommend

import (
	"fmt"

	"github.com/soniq-labs/soniq-core/internal/similarity"
)

// DefaultCandidateLimit is how many nearest neighbors are fetched before
// diversity filtering.
const DefaultCandidateLimit = 50

// RecommenderConfig holds next-track recommendation parameters.
type RecommenderConfig struct {
	CandidateLimit int // neighbor pool size (default: 50)
}

// DefaultRecommenderConfig returns the recommended default configuration.
func DefaultRecommenderConfig() RecommenderConfig {
	return RecommenderConfig{CandidateLimit: DefaultCandidateLimit}
}

// Recommender decides what plays next: nearest neighbors of the current
// track, reshaped by the diversity filter and the session's skip
// penalties. It only reads shared state and is safe for concurrent use.
type Recommender struct {
	engine *similarity.Engine
	filter *DiversityFilter
	cfg    RecommenderConfig
}

// NewRecommender creates a recommender from its collaborators.
func NewRecommender(engine *similarity.Engine, filter *DiversityFilter, cfg RecommenderConfig) *Recommender {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}
	return &Recommender{engine: engine, filter: filter, cfg: cfg}
}

// RecommendNext returns the next track to play after currentTrackID.
// recentlyPlayed is the session's play history, oldest first. skips may be
// nil for sessions without skip state.
//
// Returns catalog.ErrUnknownTrack for an unknown current track and
// similarity.ErrNoCandidates when filtering exhausts the pool; both are
// recoverable by the caller.
func (r *Recommender) RecommendNext(currentTrackID string, recentlyPlayed []string, skips *SkipPenaltyTracker) (string, error) {
	candidates, err := r.engine.NearestNeighbors(currentTrackID, nil, r.cfg.CandidateLimit)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", similarity.ErrNoCandidates
	}

	var weights map[string]float64
	if skips != nil {
		weights = skips.Weights()
	}

	ranked, err := r.filter.Apply(candidates, recentlyPlayed, weights)
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "", similarity.ErrNoCandidates
	}
	return ranked[0].TrackID, nil
}

// GeneratePlaylist builds a playlist around the mean embedding of the seed
// tracks, excluding the seeds themselves and any id in exclude. Unknown
// seed ids are skipped; if none remain the call fails with
// catalog.ErrUnknownTrack via the underlying vector lookups.
func (r *Recommender) GeneratePlaylist(seedIDs []string, length int, exclude []string) ([]string, error) {
	if length <= 0 {
		return nil, fmt.Errorf("playlist length must be positive, got %d", length)
	}

	excluded := make(map[string]struct{}, len(seedIDs)+len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var center []float64
	var firstErr error
	seeds := 0
	for _, id := range seedIDs {
		vec, err := r.engine.Vector(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		excluded[id] = struct{}{}
		if center == nil {
			center = make([]float64, len(vec))
		}
		for i, v := range vec {
			center[i] += v
		}
		seeds++
	}
	if seeds == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, similarity.ErrNoCandidates
	}
	for i := range center {
		center[i] /= float64(seeds)
	}

	matches := r.engine.NearestToVector(center, excluded, length)
	if len(matches) == 0 {
		return nil, similarity.ErrNoCandidates
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.TrackID
	}
	return out, nil
}
