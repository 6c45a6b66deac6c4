// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// arimaMinHistory is the minimum number of daily observations required to
// fit an autoregressive model.
const arimaMinHistory = 10

const (
	arimaTrainedConfidence  = 0.82
	arimaFallbackConfidence = 0.5
	arimaConfidenceDecay    = 0.015
)

// dayOfWeekModifiers shapes the fallback forecast with a weekly cycle,
// indexed Monday through Sunday.
var dayOfWeekModifiers = [7]float64{1.0, 1.05, 1.05, 1.0, 0.95, 0.75, 0.65}

// ARIMA is an autoregressive strategy for smooth trends and weekly cycles.
// With auto order selection enabled it picks (p, d, 0) by AIC over a small
// grid; otherwise it fits a fixed AR(1) on the raw series. Untrained, it
// falls back to the history mean shaped by day-of-week multipliers.
type ARIMA struct {
	baseStrategy
	autoOrder bool

	// Fitted parameters, guarded by baseStrategy.mu.
	p          int
	d          int
	coeffs     []float64 // intercept followed by AR coefficients
	residSigma float64
}

var _ Strategy = (*ARIMA)(nil)

// NewARIMA creates an ARIMA strategy. autoOrder enables AIC-based order
// selection over p in 1..3 and d in 0..1.
func NewARIMA(autoOrder bool) *ARIMA {
	return &ARIMA{
		baseStrategy: baseStrategy{name: StrategyARIMA},
		autoOrder:    autoOrder,
		p:            1,
		d:            0,
	}
}

// Fit estimates AR coefficients by ordinary least squares. Histories shorter
// than arimaMinHistory leave the strategy untrained.
func (a *ARIMA) Fit(ctx context.Context, history []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(history) < arimaMinHistory {
		a.trained = false
		return nil
	}

	type candidate struct{ p, d int }
	candidates := []candidate{{1, 0}}
	if a.autoOrder {
		candidates = []candidate{{1, 0}, {2, 0}, {3, 0}, {1, 1}, {2, 1}}
	}

	bestAIC := math.Inf(1)
	fitted := false
	for _, c := range candidates {
		series := history
		if c.d == 1 {
			series = difference(history)
		}
		coeffs, sigma, aic, err := fitAR(series, c.p)
		if err != nil {
			continue
		}
		if aic < bestAIC {
			bestAIC = aic
			a.p, a.d = c.p, c.d
			a.coeffs = coeffs
			a.residSigma = sigma
			fitted = true
		}
	}

	if !fitted {
		a.trained = false
		return errors.New("arima: no candidate order could be fitted")
	}
	a.trained = true
	return nil
}

// Forecast rolls the fitted AR model forward, or serves the day-of-week
// fallback when untrained. Approximate 95% bounds widen with the horizon.
func (a *ARIMA) Forecast(ctx context.Context, history []float64, periods int) (*Result, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("arima: periods must be positive, got %d", periods)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.trained || len(history) < a.p+a.d {
		return a.fallback(history, periods), nil
	}

	series := history
	if a.d == 1 {
		series = difference(history)
	}

	// Roll forward on the (possibly differenced) series.
	lags := append([]float64(nil), series[len(series)-a.p:]...)
	diffPreds := make([]float64, periods)
	for i := 0; i < periods; i++ {
		next := a.coeffs[0]
		for j := 1; j <= a.p; j++ {
			next += a.coeffs[j] * lags[len(lags)-j]
		}
		diffPreds[i] = next
		lags = append(lags, next)
	}

	// Integrate back to levels when differenced.
	predictions := diffPreds
	if a.d == 1 {
		predictions = make([]float64, periods)
		level := history[len(history)-1]
		for i, dp := range diffPreds {
			level += dp
			predictions[i] = math.Max(0, level)
		}
	} else {
		for i := range predictions {
			predictions[i] = math.Max(0, predictions[i])
		}
	}

	bounds := make([][2]float64, periods)
	for i, pred := range predictions {
		half := 1.96 * a.residSigma * math.Sqrt(float64(i+1))
		bounds[i] = [2]float64{pred - half, pred + half}
	}

	result := formatResult("ARIMA", predictions, bounds, arimaTrainedConfidence, arimaConfidenceDecay)
	result.Order = []int{a.p, a.d, 0}
	return result, nil
}

// fallback predicts the history mean shaped by the weekly cycle.
func (a *ARIMA) fallback(history []float64, periods int) *Result {
	base := defaultDailyMinutes * 1.0
	if len(history) > 0 {
		base = mean(history)
	}

	now := time.Now().UTC()
	predictions := make([]float64, periods)
	for i := 0; i < periods; i++ {
		wd := now.AddDate(0, 0, i+1).Weekday()
		// time.Weekday counts from Sunday; the modifier table from Monday.
		predictions[i] = math.Max(0, base*dayOfWeekModifiers[(int(wd)+6)%7])
	}

	result := formatResult("ARIMA", predictions, nil, arimaFallbackConfidence, arimaConfidenceDecay)
	result.Order = []int{a.p, a.d, 0}
	return result
}

// difference returns the first-order difference of series.
func difference(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		out[i-1] = series[i] - series[i-1]
	}
	return out
}

// fitAR fits y_t = c + phi_1*y_{t-1} + ... + phi_p*y_{t-p} by least squares.
// Returns the coefficient vector (intercept first), residual sigma, and AIC.
func fitAR(series []float64, p int) ([]float64, float64, float64, error) {
	n := len(series) - p
	if n <= p+1 {
		return nil, 0, 0, fmt.Errorf("ar(%d): %d observations is not enough", p, len(series))
	}

	// Normal equations X'X b = X'y with X rows [1, y_{t-1}, ..., y_{t-p}].
	k := p + 1
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)

	row := make([]float64, k)
	for t := p; t < len(series); t++ {
		row[0] = 1
		for j := 1; j <= p; j++ {
			row[j] = series[t-j]
		}
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * series[t]
		}
	}

	coeffs, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, 0, 0, err
	}

	rss := 0.0
	for t := p; t < len(series); t++ {
		pred := coeffs[0]
		for j := 1; j <= p; j++ {
			pred += coeffs[j] * series[t-j]
		}
		r := series[t] - pred
		rss += r * r
	}
	if rss < 1e-12 {
		rss = 1e-12
	}

	sigma := math.Sqrt(rss / float64(n))
	aic := float64(n)*math.Log(rss/float64(n)) + 2*float64(k)
	return coeffs, sigma, aic, nil
}

// solveLinearSystem solves Ax = b in place by Gaussian elimination with
// partial pivoting. A must be square and non-singular.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular system")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
