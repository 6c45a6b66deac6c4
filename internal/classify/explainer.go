// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package classify

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// heuristicImportance stands in for model weights when no model is trained.
// Negative weight means the feature drags productivity down.
var heuristicImportance = map[string]float64{
	"productive_time":      0.25,
	"distraction_time":     -0.20,
	"focus_ratio":          0.20,
	"focus_sessions":       0.12,
	"consistency_score":    0.10,
	"avg_session_duration": 0.08,
	"completion_rate":      0.08,
	"tasks_completed":      0.05,
}

// FeatureContribution is one feature's share of a prediction.
type FeatureContribution struct {
	Feature    string  `json:"feature"`
	RawFeature string  `json:"raw_feature"`
	Value      float64 `json:"value"`
	ShapValue  float64 `json:"shap_value"`
	Impact     float64 `json:"impact"`
	Direction  string  `json:"direction"`
}

// Explanation is a classified productivity level with per-feature
// attributions and a readable summary.
type Explanation struct {
	Prediction           string                `json:"prediction"`
	Probabilities        map[string]float64    `json:"probabilities"`
	FeatureContributions []FeatureContribution `json:"feature_contributions"`
	TopPositive          []FeatureContribution `json:"top_positive"`
	TopNegative          []FeatureContribution `json:"top_negative"`
	ExplanationText      string                `json:"explanation_text"`
	ModelBased           bool                  `json:"model_based"`
	BaseValue            float64               `json:"base_value"`
}

// Explain attributes the classifier's prediction to individual features.
// With a trained model the contributions are the exact linear terms of the
// predicted class; otherwise a fixed importance table approximates them.
func Explain(c *Classifier, f Features) *Explanation {
	if c != nil && c.IsTrained() {
		return modelExplanation(c, f)
	}
	return heuristicExplanation(f)
}

func modelExplanation(c *Classifier, f Features) *Explanation {
	class, probs, contrib := c.contributions(f)
	values := f.Vector()

	contributions := make([]FeatureContribution, len(featureNames))
	for j, name := range featureNames {
		direction := "negative"
		if contrib[j] > 0 {
			direction = "positive"
		}
		contributions[j] = FeatureContribution{
			Feature:    featureLabels[name],
			RawFeature: name,
			Value:      math.Round(values[j]*100) / 100,
			ShapValue:  math.Round(contrib[j]*10000) / 10000,
			Impact:     math.Round(math.Abs(contrib[j])*10000) / 10000,
			Direction:  direction,
		}
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Impact > contributions[j].Impact
	})

	probabilities := make(map[string]float64, len(classLabels))
	for k, label := range classLabels {
		probabilities[label] = math.Round(probs[k]*1000) / 1000
	}

	positive, negative := splitByDirection(contributions)
	prediction := classLabels[class]

	return &Explanation{
		Prediction:           prediction,
		Probabilities:        probabilities,
		FeatureContributions: contributions,
		TopPositive:          positive,
		TopNegative:          negative,
		ExplanationText:      explanationText(prediction, positive, negative),
		ModelBased:           true,
		BaseValue:            math.Round(c.baseValue(class)*10000) / 10000,
	}
}

func heuristicExplanation(f Features) *Explanation {
	prediction := scoreClass(Score(f))
	values := f.Vector()

	contributions := make([]FeatureContribution, len(featureNames))
	for j, name := range featureNames {
		w := heuristicImportance[name]
		val := values[j]
		impact := math.Abs(w) * (val / math.Max(val, 1))

		direction := "negative"
		if w > 0 {
			direction = "positive"
		}
		contributions[j] = FeatureContribution{
			Feature:    featureLabels[name],
			RawFeature: name,
			Value:      math.Round(val*100) / 100,
			ShapValue:  math.Round(w*val/100*10000) / 10000,
			Impact:     math.Round(math.Abs(impact)*10000) / 10000,
			Direction:  direction,
		}
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Impact > contributions[j].Impact
	})

	var probabilities map[string]float64
	switch prediction {
	case "High":
		probabilities = map[string]float64{"Low": 0.15, "Medium": 0.35, "High": 0.50}
	case "Medium":
		probabilities = map[string]float64{"Low": 0.20, "Medium": 0.55, "High": 0.25}
	default:
		probabilities = map[string]float64{"Low": 0.60, "Medium": 0.30, "High": 0.10}
	}

	positive, negative := splitByDirection(contributions)

	return &Explanation{
		Prediction:           prediction,
		Probabilities:        probabilities,
		FeatureContributions: contributions,
		TopPositive:          positive,
		TopNegative:          negative,
		ExplanationText:      explanationText(prediction, positive, negative),
		ModelBased:           false,
		BaseValue:            0.33,
	}
}

// splitByDirection picks the top three contributions of each sign,
// preserving impact order.
func splitByDirection(contributions []FeatureContribution) (positive, negative []FeatureContribution) {
	positive = []FeatureContribution{}
	negative = []FeatureContribution{}
	for _, c := range contributions {
		if c.Direction == "positive" && len(positive) < 3 {
			positive = append(positive, c)
		}
		if c.Direction == "negative" && len(negative) < 3 {
			negative = append(negative, c)
		}
	}
	return positive, negative
}

func explanationText(prediction string, positive, negative []FeatureContribution) string {
	parts := []string{fmt.Sprintf("Your productivity is classified as **%s**.", prediction)}

	if len(positive) > 0 {
		boosters := make([]string, len(positive))
		for i, p := range positive {
			boosters[i] = fmt.Sprintf("%s (%v)", p.Feature, p.Value)
		}
		parts = append(parts, fmt.Sprintf("Key boosters: %s.", strings.Join(boosters, ", ")))
	}
	if len(negative) > 0 {
		drags := make([]string, len(negative))
		for i, n := range negative {
			drags[i] = fmt.Sprintf("%s (%v)", n.Feature, n.Value)
		}
		parts = append(parts, fmt.Sprintf("Factors dragging you down: %s.", strings.Join(drags, ", ")))
	}

	switch prediction {
	case "Low":
		parts = append(parts, "Try increasing focus sessions and reducing distraction time.")
	case "Medium":
		parts = append(parts, "You're on track - focus on consistency to reach High.")
	}

	return strings.Join(parts, " ")
}
