// Package archetype classifies users into behavioral listening archetypes
// with Z-score attribution, using a cluster model fitted offline.
package archetype

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/soniq-labs/soniq-core/internal/listening"
)

// ErrInsufficientData is returned when classification is requested for a
// user with no listening history to speak of.
var ErrInsufficientData = errors.New("insufficient listening data")

// Archetype labels, in centroid index order of a freshly fitted model.
const (
	LabelCasual     = "Casual Listener"
	LabelExplorer   = "Explorer"
	LabelEnthusiast = "Enthusiast"
	LabelNiche      = "Niche Fan"
)

// Labels enumerates the fixed archetype set.
var Labels = []string{LabelCasual, LabelExplorer, LabelEnthusiast, LabelNiche}

// Descriptions maps each archetype label to its one-line description.
var Descriptions = map[string]string{
	LabelCasual:     "Relaxed listening habits with occasional engagement",
	LabelExplorer:   "Frequently discovers new music across diverse genres",
	LabelEnthusiast: "Deeply engaged with long listening sessions and favorites",
	LabelNiche:      "Focused preferences with consistent genre choices",
}

// Model is an offline-fitted cluster model: centroids in Z-score space,
// one label per centroid, and the population statistics used for
// normalization. Loaded once and treated as immutable.
type Model struct {
	FeatureNames []string    `json:"feature_names"`
	Labels       []string    `json:"labels"`
	Centroids    [][]float64 `json:"centroids"`
	Means        []float64   `json:"means"`
	Stds         []float64   `json:"stds"`
}

// LoadModel reads and validates a cluster model from a JSON file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the model as indented JSON, the format LoadModel reads.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return nil
}

// Validate checks the model's structural invariants, in particular that
// its feature order matches the extractor's output order exactly. This
// runs once at load time, never per request.
func (m *Model) Validate() error {
	want := listening.FeatureNames()
	if len(m.FeatureNames) != len(want) {
		return fmt.Errorf("model has %d features, extractor produces %d", len(m.FeatureNames), len(want))
	}
	for i, name := range want {
		if m.FeatureNames[i] != name {
			return fmt.Errorf("feature order mismatch at index %d: model %q, extractor %q",
				i, m.FeatureNames[i], name)
		}
	}

	if len(m.Centroids) == 0 {
		return errors.New("model has no centroids")
	}
	if len(m.Labels) != len(m.Centroids) {
		return fmt.Errorf("%d labels for %d centroids", len(m.Labels), len(m.Centroids))
	}
	for i, c := range m.Centroids {
		if len(c) != len(want) {
			return fmt.Errorf("centroid %d has %d dimensions, want %d", i, len(c), len(want))
		}
	}
	if len(m.Means) != len(want) || len(m.Stds) != len(want) {
		return fmt.Errorf("population statistics have %d/%d entries, want %d",
			len(m.Means), len(m.Stds), len(want))
	}
	for i, s := range m.Stds {
		if s < 0 {
			return fmt.Errorf("negative standard deviation for feature %s", want[i])
		}
	}
	return nil
}

// zscores normalizes raw feature values against the population
// statistics. A zero standard deviation yields a zero score.
func (m *Model) zscores(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		if m.Stds[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (x - m.Means[i]) / m.Stds[i]
	}
	return out
}
