package archetype

import "github.com/soniq-labs/soniq-core/internal/listening"

// Reference population statistics used for attribution when no fitted
// model is configured, in feature order: plays, avg duration, like ratio,
// skip ratio, genre diversity, session frequency.
var (
	referenceMeans = []float64{50.0, 180.0, 0.1, 0.3, 1.5, 1.0}
	referenceStds  = []float64{30.0, 60.0, 0.15, 0.2, 0.8, 2.0}
)

// heuristicModel wraps the reference statistics in a Model so attribution
// shares one code path with the fitted case. It carries no centroids and
// must not be used for nearest-centroid assignment.
func heuristicModel() *Model {
	return &Model{
		FeatureNames: listening.FeatureNames(),
		Means:        referenceMeans,
		Stds:         referenceStds,
	}
}

// heuristicLabel applies rule-based classification for deployments
// without a fitted cluster model. Thresholds mirror the behavioral
// sketches behind each archetype: low engagement reads casual, high skip
// plus high diversity reads explorer, and so on.
func heuristicLabel(v listening.FeatureVector) string {
	switch {
	case v.TotalPlays < 5 || v.AvgDuration < 30:
		return LabelCasual
	case v.SkipRatio > 0.4 && v.GenreDiversity > 1.5:
		return LabelExplorer
	case v.LikeRatio > 0.3 && v.AvgDuration > 120:
		return LabelEnthusiast
	case v.GenreDiversity <= 1.0 && v.TotalPlays > 10:
		return LabelNiche
	case v.SessionFrequency > 5:
		return LabelEnthusiast
	default:
		return LabelCasual
	}
}
