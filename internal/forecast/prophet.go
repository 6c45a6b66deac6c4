// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"fmt"
	"math"
	"time"
)

// prophetMinHistory is the minimum number of daily observations required to
// fit the trend plus seasonality decomposition.
const prophetMinHistory = 10

const (
	prophetTrainedConfidence  = 0.8
	prophetFallbackConfidence = 0.5
	prophetConfidenceDecay    = 0.015
)

// Prophet is an additive decomposition strategy: a least-squares linear
// trend plus a weekly seasonal component estimated as the per-weekday mean
// residual. Untrained, it forecasts the history mean flat.
type Prophet struct {
	baseStrategy

	// Fitted parameters, guarded by baseStrategy.mu.
	intercept  float64
	slope      float64
	seasonal   [7]float64 // indexed by time.Weekday
	residSigma float64
	fitLen     int
	fitEnd     time.Time
}

var _ Strategy = (*Prophet)(nil)

// NewProphet creates a Prophet strategy.
func NewProphet() *Prophet {
	return &Prophet{baseStrategy: baseStrategy{name: StrategyProphet}}
}

// Fit estimates the linear trend over the day index and the weekly seasonal
// offsets from trend residuals. The final history element is anchored to the
// current day so weekday alignment survives between Fit and Forecast.
func (p *Prophet) Fit(ctx context.Context, history []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(history) < prophetMinHistory {
		p.trained = false
		return nil
	}

	n := len(history)
	now := time.Now().UTC()

	// OLS fit of y = intercept + slope*t over t = 0..n-1.
	var sumT, sumY, sumTT, sumTY float64
	for t, y := range history {
		ft := float64(t)
		sumT += ft
		sumY += y
		sumTT += ft * ft
		sumTY += ft * y
	}
	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	if denom == 0 {
		p.trained = false
		return nil
	}
	p.slope = (fn*sumTY - sumT*sumY) / denom
	p.intercept = (sumY - p.slope*sumT) / fn

	// Weekly seasonality: mean trend residual per weekday.
	var residSum, residCount [7]float64
	for t, y := range history {
		wd := now.AddDate(0, 0, t-(n-1)).Weekday()
		residSum[wd] += y - (p.intercept + p.slope*float64(t))
		residCount[wd]++
	}
	for wd := range p.seasonal {
		if residCount[wd] > 0 {
			p.seasonal[wd] = residSum[wd] / residCount[wd]
		} else {
			p.seasonal[wd] = 0
		}
	}

	// Residual sigma after removing trend and seasonality, for the bounds.
	rss := 0.0
	for t, y := range history {
		wd := now.AddDate(0, 0, t-(n-1)).Weekday()
		r := y - (p.intercept + p.slope*float64(t) + p.seasonal[wd])
		rss += r * r
	}
	p.residSigma = math.Sqrt(rss / fn)

	p.fitLen = n
	p.fitEnd = now
	p.trained = true
	return nil
}

// Forecast extends the trend line and adds the seasonal offset for each
// future weekday, or serves the flat-mean fallback when untrained.
func (p *Prophet) Forecast(ctx context.Context, history []float64, periods int) (*Result, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("prophet: periods must be positive, got %d", periods)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.trained {
		return p.fallback(history, periods), nil
	}

	now := time.Now().UTC()
	predictions := make([]float64, periods)
	bounds := make([][2]float64, periods)
	for i := 0; i < periods; i++ {
		t := float64(p.fitLen + i)
		wd := now.AddDate(0, 0, i+1).Weekday()
		pred := math.Max(0, p.intercept+p.slope*t+p.seasonal[wd])
		predictions[i] = pred

		half := 1.96 * p.residSigma
		bounds[i] = [2]float64{pred - half, pred + half}
	}

	return formatResult("Prophet", predictions, bounds, prophetTrainedConfidence, prophetConfidenceDecay), nil
}

// fallback predicts the history mean flat across the horizon.
func (p *Prophet) fallback(history []float64, periods int) *Result {
	base := defaultDailyMinutes * 1.0
	if len(history) > 0 {
		base = mean(history)
	}

	predictions := make([]float64, periods)
	for i := range predictions {
		predictions[i] = base
	}

	return formatResult("Prophet (fallback)", predictions, nil, prophetFallbackConfidence, prophetConfidenceDecay)
}
