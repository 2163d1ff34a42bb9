package archetype

import (
	"math"
	"sort"

	"github.com/soniq-labs/soniq-core/internal/listening"
)

// DefaultTopAttributions is how many features are reported as the reasons
// for a classification.
const DefaultTopAttributions = 3

// Attribution direction strings.
const (
	DirectionAbove = "above average"
	DirectionBelow = "below average"
)

// Attribution explains one feature's contribution to a classification:
// how many standard deviations the user sits from the population mean.
type Attribution struct {
	Feature   string  `json:"feature"`
	ZScore    float64 `json:"z_score"`
	Direction string  `json:"direction"`
}

// Result is a classification outcome.
type Result struct {
	Label        string                  `json:"label"`
	Description  string                  `json:"description"`
	Features     listening.FeatureVector `json:"features"`
	Attributions []Attribution           `json:"attributions"`
}

// Classifier maps feature vectors to archetypes. When constructed without
// a fitted model it falls back to rule-based classification so the
// archetype surface still answers. Read-only after construction.
type Classifier struct {
	model *Model
	topM  int
}

// NewClassifier creates a classifier. model may be nil, selecting the
// heuristic fallback.
func NewClassifier(model *Model) *Classifier {
	return &Classifier{model: model, topM: DefaultTopAttributions}
}

// Classify assigns the feature vector to an archetype and explains the
// decision with the top deviating features. Returns ErrInsufficientData
// for users with zero plays; callers fall back to a neutral archetype.
func (c *Classifier) Classify(features listening.FeatureVector) (Result, error) {
	if features.Insufficient() {
		return Result{}, ErrInsufficientData
	}

	model := c.model
	var label string
	if model == nil {
		// No fitted model configured: rule-based label, attribution
		// against reference population statistics.
		label = heuristicLabel(features)
		model = heuristicModel()
	} else {
		label = model.Labels[nearestCentroid(model, features)]
	}

	return Result{
		Label:        label,
		Description:  Descriptions[label],
		Features:     features,
		Attributions: c.attributions(model, features),
	}, nil
}

// nearestCentroid returns the index of the closest centroid by Euclidean
// distance in Z-score space. Ties break toward the lowest index.
func nearestCentroid(m *Model, features listening.FeatureVector) int {
	z := m.zscores(features.Values())

	best := 0
	bestDist := math.Inf(1)
	for i, centroid := range m.Centroids {
		var d float64
		for j, c := range centroid {
			diff := z[j] - c
			d += diff * diff
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// attributions reports the topM features by absolute Z-score, each tagged
// with its direction relative to the population mean. Equal magnitudes
// keep feature order for determinism.
func (c *Classifier) attributions(m *Model, features listening.FeatureVector) []Attribution {
	names := listening.FeatureNames()
	z := m.zscores(features.Values())

	order := make([]int, len(z))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(z[order[a]]) > math.Abs(z[order[b]])
	})

	top := c.topM
	if top > len(order) {
		top = len(order)
	}

	out := make([]Attribution, 0, top)
	for _, i := range order[:top] {
		direction := DirectionBelow
		if z[i] > 0 {
			direction = DirectionAbove
		}
		out = append(out, Attribution{
			Feature:   names[i],
			ZScore:    z[i],
			Direction: direction,
		})
	}
	return out
}
