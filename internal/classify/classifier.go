// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package classify

import (
	"errors"
	"math"
	"sync"
)

// Training hyperparameters for the multinomial logistic model.
const (
	trainEpochs       = 300
	trainLearningRate = 0.1
)

// Classifier predicts a productivity level. Untrained it classifies with
// the rule-based score; after Train it applies a multinomial logistic model
// over standardized features.
//
// Fit and prediction may be called from different goroutines.
type Classifier struct {
	mu      sync.RWMutex
	trained bool

	// weights[class][feature], biases[class]; features standardized with
	// means and stddevs captured at training time.
	weights [][]float64
	biases  []float64
	means   []float64
	stddevs []float64
}

// NewClassifier returns an untrained classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsTrained reports whether a model has been fitted.
func (c *Classifier) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trained
}

// Train fits the multinomial logistic model. X rows are feature vectors in
// featureNames order; y holds class indices (0 Low, 1 Medium, 2 High).
func (c *Classifier) Train(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("classify: training set is empty or mismatched")
	}
	nFeatures := len(featureNames)
	for _, row := range x {
		if len(row) != nFeatures {
			return errors.New("classify: feature vector has wrong length")
		}
	}
	for _, label := range y {
		if label < 0 || label >= len(classLabels) {
			return errors.New("classify: class label out of range")
		}
	}

	means, stddevs := standardization(x)
	scaled := make([][]float64, len(x))
	for i, row := range x {
		scaled[i] = standardize(row, means, stddevs)
	}

	nClasses := len(classLabels)
	weights := make([][]float64, nClasses)
	for k := range weights {
		weights[k] = make([]float64, nFeatures)
	}
	biases := make([]float64, nClasses)

	// Batch gradient descent on the softmax cross-entropy.
	n := float64(len(scaled))
	for epoch := 0; epoch < trainEpochs; epoch++ {
		gradW := make([][]float64, nClasses)
		for k := range gradW {
			gradW[k] = make([]float64, nFeatures)
		}
		gradB := make([]float64, nClasses)

		for i, row := range scaled {
			probs := softmax(logits(row, weights, biases))
			for k := 0; k < nClasses; k++ {
				diff := probs[k]
				if k == y[i] {
					diff -= 1
				}
				gradB[k] += diff
				for j := 0; j < nFeatures; j++ {
					gradW[k][j] += diff * row[j]
				}
			}
		}

		for k := 0; k < nClasses; k++ {
			biases[k] -= trainLearningRate * gradB[k] / n
			for j := 0; j < nFeatures; j++ {
				weights[k][j] -= trainLearningRate * gradW[k][j] / n
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights = weights
	c.biases = biases
	c.means = means
	c.stddevs = stddevs
	c.trained = true
	return nil
}

// Predict returns the class label for the features.
func (c *Classifier) Predict(f Features) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return scoreClass(Score(f))
	}

	probs := softmax(logits(standardize(f.Vector(), c.means, c.stddevs), c.weights, c.biases))
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return classLabels[best]
}

// PredictProba returns the class probability distribution. Untrained it
// returns fixed distributions keyed off the rule-based score band.
func (c *Classifier) PredictProba(f Features) map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		switch score := Score(f); {
		case score < 40:
			return map[string]float64{"Low": 0.7, "Medium": 0.25, "High": 0.05}
		case score < 70:
			return map[string]float64{"Low": 0.2, "Medium": 0.6, "High": 0.2}
		default:
			return map[string]float64{"Low": 0.05, "Medium": 0.25, "High": 0.7}
		}
	}

	probs := softmax(logits(standardize(f.Vector(), c.means, c.stddevs), c.weights, c.biases))
	out := make(map[string]float64, len(classLabels))
	for k, label := range classLabels {
		out[label] = math.Round(probs[k]*100) / 100
	}
	return out
}

// FeatureImportance returns per-feature weight magnitudes averaged over the
// classes, or uniform importance when untrained.
func (c *Classifier) FeatureImportance() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(featureNames))
	if !c.trained {
		for _, name := range featureNames {
			out[name] = math.Round(1.0/float64(len(featureNames))*1000) / 1000
		}
		return out
	}

	total := 0.0
	raw := make([]float64, len(featureNames))
	for j := range featureNames {
		for k := range c.weights {
			raw[j] += math.Abs(c.weights[k][j])
		}
		total += raw[j]
	}
	for j, name := range featureNames {
		out[name] = math.Round(raw[j]/math.Max(total, 1e-12)*1000) / 1000
	}
	return out
}

// contributions returns the predicted class index, its probabilities, and
// each feature's linear contribution (weight times standardized value) to
// that class. Callers must hold no lock; valid only when trained.
func (c *Classifier) contributions(f Features) (int, []float64, []float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scaled := standardize(f.Vector(), c.means, c.stddevs)
	probs := softmax(logits(scaled, c.weights, c.biases))
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}

	contrib := make([]float64, len(scaled))
	for j := range scaled {
		contrib[j] = c.weights[best][j] * scaled[j]
	}
	return best, probs, contrib
}

func (c *Classifier) baseValue(class int) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.trained {
		return 0.33
	}
	return c.biases[class]
}

func logits(row []float64, weights [][]float64, biases []float64) []float64 {
	out := make([]float64, len(weights))
	for k := range weights {
		z := biases[k]
		for j, v := range row {
			z += weights[k][j] * v
		}
		out[k] = z
	}
	return out
}

func softmax(z []float64) []float64 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	sum := 0.0
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// standardization computes per-feature means and stddevs; constant features
// get a stddev of 1 so they scale to zero.
func standardization(x [][]float64) ([]float64, []float64) {
	nFeatures := len(x[0])
	n := float64(len(x))

	means := make([]float64, nFeatures)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	stddevs := make([]float64, nFeatures)
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			stddevs[j] += d * d
		}
	}
	for j := range stddevs {
		stddevs[j] = math.Sqrt(stddevs[j] / n)
		if stddevs[j] == 0 {
			stddevs[j] = 1
		}
	}
	return means, stddevs
}

func standardize(row, means, stddevs []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - means[j]) / stddevs[j]
	}
	return out
}
