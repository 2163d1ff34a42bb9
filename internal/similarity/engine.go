// Package similarity computes cosine-similarity nearest-neighbor queries
// over the track embedding catalog.
package similarity

import (
	"errors"
	"math"
	"sort"

	"github.com/soniq-labs/soniq-core/internal/catalog"
)

// ErrNoCandidates is returned when a candidate pool is empty, either
// because the catalog is empty or because filtering excluded everything.
var ErrNoCandidates = errors.New("no candidate tracks available")

// Match pairs a track id with its similarity to the query.
type Match struct {
	TrackID string
	Score   float64
}

// Engine answers nearest-neighbor queries over a catalog store. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	store *catalog.Store
}

// NewEngine creates an engine over the given catalog.
func NewEngine(store *catalog.Store) *Engine {
	return &Engine{store: store}
}

// Vector returns the embedding vector for a catalog track, or
// catalog.ErrUnknownTrack.
func (e *Engine) Vector(id string) ([]float64, error) {
	return e.store.Vector(id)
}

// Similarity returns the cosine similarity of two catalog tracks.
// Returns catalog.ErrUnknownTrack if either id is absent.
func (e *Engine) Similarity(idA, idB string) (float64, error) {
	va, err := e.store.Vector(idA)
	if err != nil {
		return 0, err
	}
	vb, err := e.store.Vector(idB)
	if err != nil {
		return 0, err
	}
	return Cosine(va, vb), nil
}

// NearestNeighbors returns up to k catalog tracks most similar to the
// given track, excluding the track itself and any id in exclude.
// Returns catalog.ErrUnknownTrack if id is absent.
func (e *Engine) NearestNeighbors(id string, exclude map[string]struct{}, k int) ([]Match, error) {
	query, err := e.store.Vector(id)
	if err != nil {
		return nil, err
	}

	// The query track is never its own neighbor.
	merged := make(map[string]struct{}, len(exclude)+1)
	for x := range exclude {
		merged[x] = struct{}{}
	}
	merged[id] = struct{}{}

	return e.NearestToVector(query, merged, k), nil
}

// NearestToVector returns up to k catalog tracks most similar to an
// arbitrary query vector, excluding any id in exclude. Results are in
// strictly descending similarity order; ties break by ascending track id.
func (e *Engine) NearestToVector(query []float64, exclude map[string]struct{}, k int) []Match {
	if k <= 0 {
		return nil
	}

	ids := e.store.IDs()
	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		if _, skip := exclude[id]; skip {
			continue
		}
		vec, err := e.store.Vector(id)
		if err != nil {
			continue
		}
		matches = append(matches, Match{TrackID: id, Score: Cosine(query, vec)})
	}

	// Ids are already ascending, so a stable sort on score preserves the
	// id tie-break.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// A zero vector has similarity 0 to everything.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Rounding can push the ratio just outside [-1, 1].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}
