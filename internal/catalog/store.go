// Package catalog provides the in-memory track embedding index.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
)

// Common errors.
var (
	// ErrUnknownTrack is returned when a referenced track id is not in the catalog.
	ErrUnknownTrack = errors.New("unknown track")
)

// UnknownGenre is the genre assigned to tracks loaded without a genre label.
const UnknownGenre = "unknown"

// Track holds one catalog entry: a fixed-length audio embedding plus metadata.
// Tracks are immutable after load.
type Track struct {
	ID          string
	Vector      []float64
	Genre       string
	Title       string
	Artist      string
	DurationSec float64
}

// snapshot is an immutable view of the catalog. The store swaps whole
// snapshots on reload so readers never observe a partial catalog.
type snapshot struct {
	tracks  map[string]*Track
	ids     []string // ascending
	dim     int
	version uint64
}

// Store indexes track embeddings by id. Reads are lock-free; Replace
// publishes a fresh snapshot atomically.
type Store struct {
	snap    atomic.Pointer[snapshot]
	version atomic.Uint64
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	s := &Store{}
	s.snap.Store(&snapshot{tracks: map[string]*Track{}})
	return s
}

// Replace loads a new set of tracks, replacing the current catalog.
// All embedding vectors must share the same nonzero dimensionality.
func (s *Store) Replace(tracks []Track) error {
	snap := &snapshot{
		tracks: make(map[string]*Track, len(tracks)),
		ids:    make([]string, 0, len(tracks)),
	}

	for i := range tracks {
		t := tracks[i]
		if t.ID == "" {
			return fmt.Errorf("track at index %d: missing id", i)
		}
		if len(t.Vector) == 0 {
			return fmt.Errorf("track %s: empty embedding vector", t.ID)
		}
		if snap.dim == 0 {
			snap.dim = len(t.Vector)
		} else if len(t.Vector) != snap.dim {
			return fmt.Errorf("track %s: embedding dimension %d does not match catalog dimension %d",
				t.ID, len(t.Vector), snap.dim)
		}
		if t.Genre == "" {
			t.Genre = UnknownGenre
		}
		if _, exists := snap.tracks[t.ID]; exists {
			return fmt.Errorf("track %s: duplicate id", t.ID)
		}
		snap.tracks[t.ID] = &t
		snap.ids = append(snap.ids, t.ID)
	}

	sort.Strings(snap.ids)
	snap.version = s.version.Add(1)
	s.snap.Store(snap)
	return nil
}

// Track returns the track for the given id.
func (s *Store) Track(id string) (*Track, bool) {
	t, ok := s.snap.Load().tracks[id]
	return t, ok
}

// Vector returns the embedding vector for the given id, or ErrUnknownTrack.
func (s *Store) Vector(id string) ([]float64, error) {
	t, ok := s.Track(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	return t.Vector, nil
}

// Genre returns the genre label for the given id, or UnknownGenre if the
// track is not in the catalog.
func (s *Store) Genre(id string) string {
	t, ok := s.Track(id)
	if !ok {
		return UnknownGenre
	}
	return t.Genre
}

// IDs returns all track ids in ascending order. The returned slice is
// shared and must not be modified.
func (s *Store) IDs() []string {
	return s.snap.Load().ids
}

// All returns every track in ascending id order.
func (s *Store) All() []*Track {
	snap := s.snap.Load()
	out := make([]*Track, 0, len(snap.ids))
	for _, id := range snap.ids {
		out = append(out, snap.tracks[id])
	}
	return out
}

// Len returns the number of tracks in the catalog.
func (s *Store) Len() int {
	return len(s.snap.Load().ids)
}

// Dim returns the embedding dimensionality, or 0 for an empty catalog.
func (s *Store) Dim() int {
	return s.snap.Load().dim
}

// Version returns a counter that increments on every Replace. Consumers
// caching derived data (such as the 2D projection) key their caches on it.
func (s *Store) Version() uint64 {
	return s.snap.Load().version
}
