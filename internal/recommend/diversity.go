package recommend

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/similarity"
)

// Diversity defaults.
const (
	// DefaultRecentLimit bounds the recently-played exclusion window.
	DefaultRecentLimit = 20
	// DefaultExploreProbability is the chance of sampling from a
	// genre bucket instead of taking the top-similarity candidate.
	DefaultExploreProbability = 0.20
)

// DiversityConfig holds diversity filter parameters.
type DiversityConfig struct {
	RecentLimit        int     // exclusion window size (default: 20)
	ExploreProbability float64 // chance of the exploration branch (default: 0.20)
}

// DefaultDiversityConfig returns the recommended default configuration.
func DefaultDiversityConfig() DiversityConfig {
	return DiversityConfig{
		RecentLimit:        DefaultRecentLimit,
		ExploreProbability: DefaultExploreProbability,
	}
}

// DiversityFilter reorders a raw neighbor list to avoid echo-chamber
// collapse: recently played tracks are excluded outright, and with a
// configured probability the next pick is drawn from a genre that has not
// been heard in a while.
type DiversityFilter struct {
	store *catalog.Store
	cfg   DiversityConfig

	// rngMu serializes draws; *rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewDiversityFilter creates a filter over the given catalog. rng may be
// nil, in which case a time-seeded source is used; tests inject a seeded
// generator to force the explore or exploit branch.
func NewDiversityFilter(store *catalog.Store, cfg DiversityConfig, rng *rand.Rand) *DiversityFilter {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.ExploreProbability < 0 || cfg.ExploreProbability > 1 {
		cfg.ExploreProbability = DefaultExploreProbability
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DiversityFilter{store: store, cfg: cfg, rng: rng}
}

// Apply filters and reorders candidates. recentlyPlayed is ordered oldest
// to newest; only the last RecentLimit entries are excluded. genreWeights
// are the session's skip-penalty weights (absent genres weigh 1.0).
//
// If the exclusion window eats every candidate, the unfiltered list is
// returned as-is so playback can continue. An empty candidate pool is
// reported as similarity.ErrNoCandidates.
func (f *DiversityFilter) Apply(candidates []similarity.Match, recentlyPlayed []string, genreWeights map[string]float64) ([]similarity.Match, error) {
	if len(candidates) == 0 {
		return nil, similarity.ErrNoCandidates
	}

	recent := boundedRecent(recentlyPlayed, f.cfg.RecentLimit)
	excluded := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		excluded[id] = struct{}{}
	}

	filtered := make([]similarity.Match, 0, len(candidates))
	for _, m := range candidates {
		if _, skip := excluded[m.TrackID]; skip {
			continue
		}
		filtered = append(filtered, m)
	}

	// Cold pool: everything was played recently. Recency loses to having
	// something to play at all.
	if len(filtered) == 0 {
		out := make([]similarity.Match, len(candidates))
		copy(out, candidates)
		return out, nil
	}

	genreOf := make(map[string]string, len(filtered))
	for _, m := range filtered {
		genreOf[m.TrackID] = f.store.Genre(m.TrackID)
	}
	recency := genreRecencyWeights(recent, f.store)

	out := make([]similarity.Match, 0, len(filtered))
	taken := make([]bool, len(filtered))
	for len(out) < len(filtered) {
		idx := -1
		if f.draw() < f.cfg.ExploreProbability {
			idx = f.exploreIndex(filtered, taken, genreOf, recency, genreWeights)
		}
		if idx < 0 {
			// Exploit: next highest-similarity candidate regardless of genre.
			for i := range filtered {
				if !taken[i] {
					idx = i
					break
				}
			}
		}
		taken[idx] = true
		out = append(out, filtered[idx])
	}
	return out, nil
}

// exploreIndex samples a genre bucket weighted by staleness and skip
// penalty, then returns that bucket's best remaining candidate. Returns -1
// when no weighted choice can be made.
func (f *DiversityFilter) exploreIndex(candidates []similarity.Match, taken []bool, genreOf map[string]string, recency, penalties map[string]float64) int {
	// Best remaining candidate per genre, preserving similarity-rank order
	// within each bucket.
	head := make(map[string]int)
	for i, m := range candidates {
		if taken[i] {
			continue
		}
		g := genreOf[m.TrackID]
		if _, ok := head[g]; !ok {
			head[g] = i
		}
	}
	if len(head) == 0 {
		return -1
	}

	genres := make([]string, 0, len(head))
	for g := range head {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	var total float64
	weights := make([]float64, len(genres))
	for i, g := range genres {
		w := 1.0
		if r, ok := recency[g]; ok {
			w = r
		}
		if p, ok := penalties[g]; ok {
			w *= p
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return -1
	}

	r := f.draw() * total
	for i, g := range genres {
		r -= weights[i]
		if r < 0 {
			return head[g]
		}
	}
	return head[genres[len(genres)-1]]
}

// genreRecencyWeights maps each recently heard genre to a weight in (0,1]
// that shrinks the more recently it was played. Genres not heard within
// the window carry implicit weight 1.0.
func genreRecencyWeights(recent []string, store *catalog.Store) map[string]float64 {
	n := len(recent)
	weights := make(map[string]float64, n)
	// Walk newest to oldest; the first occurrence of a genre is its most
	// recent play.
	for back := 0; back < n; back++ {
		g := store.Genre(recent[n-1-back])
		if _, seen := weights[g]; !seen {
			weights[g] = float64(back+1) / float64(n+1)
		}
	}
	return weights
}

// boundedRecent returns the newest limit entries of history.
func boundedRecent(history []string, limit int) []string {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// draw returns a uniform sample in [0,1) under the rng lock.
func (f *DiversityFilter) draw() float64 {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return f.rng.Float64()
}
