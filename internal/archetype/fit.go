package archetype

import (
	"fmt"
	"math"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/soniq-labs/soniq-core/internal/listening"
)

// userObservation wraps a feature vector in Z-score space to implement
// the clusters.Observation interface.
type userObservation struct {
	coords clusters.Coordinates
}

func (o userObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o userObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Fit builds a cluster model from a population of user feature vectors
// using k-means with one cluster per archetype label. This runs offline;
// the service only loads the resulting model.
func Fit(vectors []listening.FeatureVector) (*Model, error) {
	k := len(Labels)
	if len(vectors) < k {
		return nil, fmt.Errorf("need at least %d users to fit %d archetypes, got %d", k, k, len(vectors))
	}

	dim := listening.NumFeatures()
	means, stds := populationStats(vectors, dim)

	model := &Model{
		FeatureNames: listening.FeatureNames(),
		Means:        means,
		Stds:         stds,
	}

	var obs clusters.Observations
	for _, v := range vectors {
		obs = append(obs, userObservation{coords: model.zscores(v.Values())})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("partitioning %d users into %d clusters: %w", len(vectors), k, err)
	}
	if len(result) != k {
		return nil, fmt.Errorf("k-means produced %d clusters, want %d", len(result), k)
	}

	centroids := make([][]float64, k)
	for i, cluster := range result {
		centroid := make([]float64, dim)
		copy(centroid, cluster.Center)
		centroids[i] = centroid
	}

	model.Centroids = centroids
	model.Labels = assignLabels(centroids)

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("fitted model failed validation: %w", err)
	}
	return model, nil
}

// populationStats computes the per-feature mean and population standard
// deviation used for Z-score normalization.
func populationStats(vectors []listening.FeatureVector, dim int) (means, stds []float64) {
	means = make([]float64, dim)
	stds = make([]float64, dim)
	n := float64(len(vectors))

	for _, v := range vectors {
		for i, x := range v.Values() {
			means[i] += x
		}
	}
	for i := range means {
		means[i] /= n
	}

	for _, v := range vectors {
		for i, x := range v.Values() {
			diff := x - means[i]
			stds[i] += diff * diff
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
	}
	return means, stds
}

// Feature indices used for centroid labeling.
const (
	featAvgDuration    = 1
	featGenreDiversity = 4
)

// assignLabels names each centroid by its dominant trait: the most
// genre-diverse cluster is the Explorer, the longest-listening of the
// rest is the Enthusiast, the least diverse remaining is the Niche Fan,
// and the last is the Casual Listener. Deterministic given the centroids.
func assignLabels(centroids [][]float64) []string {
	labels := make([]string, len(centroids))
	unassigned := make(map[int]struct{}, len(centroids))
	for i := range centroids {
		unassigned[i] = struct{}{}
	}

	pick := func(better func(a, b []float64) bool) int {
		best := -1
		for i := range centroids {
			if _, open := unassigned[i]; !open {
				continue
			}
			if best == -1 || better(centroids[i], centroids[best]) {
				best = i
			}
		}
		delete(unassigned, best)
		return best
	}

	labels[pick(func(a, b []float64) bool {
		return a[featGenreDiversity] > b[featGenreDiversity]
	})] = LabelExplorer

	labels[pick(func(a, b []float64) bool {
		return a[featAvgDuration] > b[featAvgDuration]
	})] = LabelEnthusiast

	labels[pick(func(a, b []float64) bool {
		return a[featGenreDiversity] < b[featGenreDiversity]
	})] = LabelNiche

	labels[pick(func(a, b []float64) bool { return false })] = LabelCasual
	return labels
}
