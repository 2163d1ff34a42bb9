// Package recommend composes similarity search with diversity and
// skip-penalty policies into next-track decisions.
package recommend

import "sync"

// Skip penalty defaults.
const (
	// DefaultPenaltyFactor multiplies a genre's weight on each early skip.
	DefaultPenaltyFactor = 0.5
	// DefaultPenaltyFloor is the minimum weight a genre can decay to.
	DefaultPenaltyFloor = 0.05
	// earlySkipWindowSec is the position threshold for a skip to count as
	// an early rejection of the track.
	earlySkipWindowSec = 30.0
)

// SkipPenaltyTracker holds per-session genre down-weights driven by early
// skips. It is single-writer per session; the mutex serializes concurrent
// requests on the same session.
type SkipPenaltyTracker struct {
	mu      sync.Mutex
	factor  float64
	floor   float64
	weights map[string]float64
}

// NewSkipPenaltyTracker creates a tracker with the given penalty factor
// and floor. Out-of-range values fall back to the defaults.
func NewSkipPenaltyTracker(factor, floor float64) *SkipPenaltyTracker {
	if factor <= 0 || factor >= 1 {
		factor = DefaultPenaltyFactor
	}
	if floor <= 0 || floor > 1 {
		floor = DefaultPenaltyFloor
	}
	return &SkipPenaltyTracker{
		factor:  factor,
		floor:   floor,
		weights: make(map[string]float64),
	}
}

// RecordSkip applies the genre penalty when a track was skipped within the
// first 30 seconds. Skips late in a track, or of tracks shorter than the
// early-skip window, carry no signal and are ignored.
func (t *SkipPenaltyTracker) RecordSkip(genre string, positionSec, trackDurationSec float64) {
	if positionSec >= earlySkipWindowSec || trackDurationSec <= earlySkipWindowSec {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.weights[genre]
	if !ok {
		w = 1.0
	}
	w *= t.factor
	if w < t.floor {
		w = t.floor
	}
	t.weights[genre] = w
}

// Weights returns a copy of the current genre weights. Genres absent from
// the map carry full weight 1.0.
func (t *SkipPenaltyTracker) Weights() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]float64, len(t.weights))
	for g, w := range t.weights {
		out[g] = w
	}
	return out
}

// Reset clears all accumulated penalties.
func (t *SkipPenaltyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.weights = make(map[string]float64)
}
