// Package classify trains and evaluates the high-risk incident classifier.
// Incidents become fixed-order feature vectors, a random forest is fitted on
// a stratified split, and the fitted model persists to JSON with a schema
// version so stale artifacts are rejected on load.
package classify

import (
	"math"

	"github.com/tfalade/campuswatch/internal/model"
)

// FeatureNames returns the feature vector layout in fixed order. Persisted
// models record this list and are rejected when it no longer matches.
func FeatureNames() []string {
	return []string{
		"hour",
		"hour_sin",
		"hour_cos",
		"day_of_week",
		"is_weekend",
		"is_night",
		"victim_age",
		"category",
	}
}

// Matrix converts incidents into the training matrix and binary labels.
// Rows without time features are dropped: the model is a time-of-risk model
// and an unparsable timestamp leaves nothing to learn from.
func Matrix(incidents []model.Incident, highRisk map[model.RiskCategory]bool) (X [][]float64, y []int) {
	catIndex := make(map[model.RiskCategory]int, len(model.Categories()))
	for i, c := range model.Categories() {
		catIndex[c] = i
	}

	for _, inc := range incidents {
		if !inc.HasTimeFeatures() {
			continue
		}
		X = append(X, Vector(inc, catIndex))
		if highRisk[inc.Category] {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return X, y
}

// Vector encodes one incident as a feature vector matching FeatureNames.
func Vector(inc model.Incident, catIndex map[model.RiskCategory]int) []float64 {
	angle := 2 * math.Pi * float64(inc.Hour) / 24
	return []float64{
		float64(inc.Hour),
		math.Sin(angle),
		math.Cos(angle),
		float64(inc.Weekday),
		boolFeature(inc.IsWeekend),
		boolFeature(inc.IsNight),
		float64(inc.VictimAge),
		float64(catIndex[inc.Category]),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
