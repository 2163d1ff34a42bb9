// Package projection reduces the embedding catalog to stable 2D
// coordinates for the track-universe visualization.
package projection

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/soniq-labs/soniq-core/internal/catalog"
)

// Point is a 2D coordinate for one track.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// layout is an immutable projection of one catalog snapshot.
type layout struct {
	version uint64
	points  map[string]Point
}

// Service computes and caches the principal-component projection of the
// whole catalog. The cached layout is recomputed only when the catalog
// version changes and is published atomically, so concurrent readers
// never see a partially built projection.
type Service struct {
	store *catalog.Store

	mu     sync.Mutex // serializes recomputes
	cached atomic.Pointer[layout]
}

// NewService creates a projection service over the given catalog.
func NewService(store *catalog.Store) *Service {
	return &Service{store: store}
}

// Project returns 2D coordinates for every catalog track. Deterministic
// for an unchanged catalog; the same call after a reload recomputes.
func (s *Service) Project() map[string]Point {
	version := s.store.Version()
	if l := s.cached.Load(); l != nil && l.version == version {
		return l.points
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have recomputed while we waited on the lock.
	if l := s.cached.Load(); l != nil && l.version == version {
		return l.points
	}

	l := &layout{version: version, points: s.compute()}
	s.cached.Store(l)
	return l.points
}

// compute runs PCA over the catalog embeddings. Degenerate catalogs
// (fewer than two tracks, or no variance at all) collapse to the origin.
func (s *Service) compute() map[string]Point {
	tracks := s.store.All()
	points := make(map[string]Point, len(tracks))
	for _, t := range tracks {
		points[t.ID] = Point{}
	}
	if len(tracks) < 2 {
		return points
	}

	n := len(tracks)
	dim := len(tracks[0].Vector)

	// Mean-center the data matrix.
	means := make([]float64, dim)
	for _, t := range tracks {
		for j, v := range t.Vector {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	data := make([]float64, n*dim)
	variance := 0.0
	for i, t := range tracks {
		for j, v := range t.Vector {
			c := v - means[j]
			data[i*dim+j] = c
			variance += c * c
		}
	}
	if variance == 0 {
		// All embeddings identical.
		return points
	}

	x := mat.NewDense(n, dim, data)
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return points
	}

	var vt mat.Dense
	svd.VTo(&vt)

	axes := 2
	if dim < 2 {
		axes = dim
	}

	// Principal axes as columns, each oriented so its largest-magnitude
	// component is positive. SVD sign is otherwise arbitrary and would
	// make the layout flip between recomputes.
	pc := mat.NewDense(dim, axes, nil)
	for a := 0; a < axes; a++ {
		axis := make([]float64, dim)
		for j := 0; j < dim; j++ {
			axis[j] = vt.At(j, a)
		}
		orientAxis(axis)
		for j := 0; j < dim; j++ {
			pc.Set(j, a, axis[j])
		}
	}

	var projected mat.Dense
	projected.Mul(x, pc)

	for i, t := range tracks {
		p := Point{X: projected.At(i, 0)}
		if axes > 1 {
			p.Y = projected.At(i, 1)
		}
		points[t.ID] = p
	}
	return points
}

// orientAxis flips the axis in place if its largest-magnitude component
// is negative. A zero axis is left alone.
func orientAxis(axis []float64) {
	maxIdx := 0
	maxAbs := 0.0
	for j, v := range axis {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
			maxIdx = j
		}
	}
	if maxAbs == 0 || axis[maxIdx] > 0 {
		return
	}
	for j := range axis {
		axis[j] = -axis[j]
	}
}
