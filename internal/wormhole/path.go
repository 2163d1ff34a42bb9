// Package wormhole generates interpolated track paths through embedding
// space: an ordered sequence of catalog tracks approximating the
// great-circle arc between two endpoints.
package wormhole

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniq-labs/soniq-core/internal/similarity"
)

// Sentinel errors.
var (
	// ErrInvalidStepCount is returned for paths of fewer than 2 steps.
	ErrInvalidStepCount = errors.New("path requires at least 2 steps")
	// ErrDegenerateVector is returned when an endpoint embedding has zero
	// length and cannot be normalized.
	ErrDegenerateVector = errors.New("endpoint embedding is a zero vector")
)

// parallelEpsilon is the sin(omega) threshold below which endpoints are
// treated as parallel and slerp degrades to linear interpolation.
const parallelEpsilon = 1e-9

// Generator produces wormhole paths over a catalog. Stateless and safe
// for concurrent use.
type Generator struct {
	engine *similarity.Engine
}

// NewGenerator creates a path generator backed by the given engine.
func NewGenerator(engine *similarity.Engine) *Generator {
	return &Generator{engine: engine}
}

// GeneratePath returns an ordered list of exactly steps track ids whose
// first element is startID and last is endID. Intermediate tracks are the
// nearest catalog neighbors of spherically interpolated points between
// the endpoint embeddings, with no repeats.
func (g *Generator) GeneratePath(startID, endID string, steps int) ([]string, error) {
	if steps < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStepCount, steps)
	}

	p0, err := g.unitVector(startID)
	if err != nil {
		return nil, err
	}
	p1, err := g.unitVector(endID)
	if err != nil {
		return nil, err
	}

	dot := 0.0
	for i := range p0 {
		dot += p0[i] * p1[i]
	}
	// Clamp before acos; accumulated rounding can leave the dot product
	// just outside its domain.
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	omega := math.Acos(dot)
	sinOmega := math.Sin(omega)

	path := make([]string, 0, steps)
	path = append(path, startID)

	// The endpoints are fixed; only interior points get substituted by
	// their nearest catalog neighbor.
	exclude := map[string]struct{}{startID: {}, endID: {}}
	for i := 1; i < steps-1; i++ {
		t := float64(i) / float64(steps-1)

		var point []float64
		if sinOmega < parallelEpsilon {
			point = lerp(p0, p1, t)
		} else {
			point = slerp(p0, p1, t, omega, sinOmega)
		}

		nearest := g.engine.NearestToVector(point, exclude, 1)
		if len(nearest) == 0 {
			return nil, fmt.Errorf("interpolation step %d: %w", i, similarity.ErrNoCandidates)
		}
		id := nearest[0].TrackID
		exclude[id] = struct{}{}
		path = append(path, id)
	}

	path = append(path, endID)
	return path, nil
}

// unitVector returns the track's embedding normalized to unit length.
func (g *Generator) unitVector(id string) ([]float64, error) {
	vec, err := g.engine.Vector(id)
	if err != nil {
		return nil, err
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDegenerateVector, id)
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out, nil
}

// slerp computes spherical linear interpolation between unit vectors.
func slerp(p0, p1 []float64, t, omega, sinOmega float64) []float64 {
	c0 := math.Sin((1-t)*omega) / sinOmega
	c1 := math.Sin(t*omega) / sinOmega

	out := make([]float64, len(p0))
	for i := range p0 {
		out[i] = c0*p0[i] + c1*p1[i]
	}
	return out
}

// lerp computes linear interpolation, used when the endpoints are near
// parallel and sin(omega) would blow up the slerp coefficients.
func lerp(p0, p1 []float64, t float64) []float64 {
	out := make([]float64, len(p0))
	for i := range p0 {
		out[i] = (1-t)*p0[i] + t*p1[i]
	}
	return out
}
