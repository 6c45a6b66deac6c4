// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package forecast implements productivity forecasting strategies and the
// weighted ensemble that blends them.
//
// Each strategy implements the Strategy interface and is constructed once at
// startup, then injected into the Ensemble. A strategy that has not been
// fitted (or was fitted on too little history) reports IsTrained() == false
// and serves a cheap statistical fallback instead of its model path; callers
// never need to catch errors to discover which path ran.
//
// # Thread Safety
//
// All strategies are safe for concurrent use. Fitting acquires an exclusive
// lock while forecasting uses a shared lock.
//
// # History convention
//
// A history slice holds one productive-minutes value per calendar day, oldest
// first, with the final element belonging to the current day. Forecast
// horizons therefore start tomorrow.
package forecast

import (
	"context"
	"math"
	"sync"
	"time"
)

// Strategy wire names. These are a de facto contract with stored weight
// records and API consumers; do not rename.
const (
	StrategyLSTM    = "lstm"
	StrategyARIMA   = "arima"
	StrategyProphet = "prophet"
)

// defaultDailyMinutes seeds predictions when history is empty.
const defaultDailyMinutes = 60

// Point is a single forecasted day.
type Point struct {
	Date                       string  `json:"date"`
	Day                        string  `json:"day"`
	PredictedProductiveMinutes float64 `json:"predicted_productive_minutes"`
	Confidence                 float64 `json:"confidence"`
	LowerBound                 float64 `json:"lower_bound,omitempty"`
	UpperBound                 float64 `json:"upper_bound,omitempty"`
}

// Result is a single strategy's forecast over a horizon.
type Result struct {
	Model            string  `json:"model"`
	Order            []int   `json:"order,omitempty"`
	Forecast         []Point `json:"forecast"`
	AveragePredicted float64 `json:"average_predicted"`
	Trend            string  `json:"trend"`
	Confidence       float64 `json:"confidence"`
	Periods          int     `json:"periods"`
}

// Strategy is a forecasting model over a daily productive-minutes series.
type Strategy interface {
	// Name returns the strategy's wire name (lstm, arima, prophet).
	Name() string

	// Fit trains the strategy on the given history. Insufficient history is
	// not an error: the strategy stays untrained and forecasts via its
	// fallback path.
	Fit(ctx context.Context, history []float64) error

	// Forecast predicts the next periods days. periods must be positive.
	Forecast(ctx context.Context, history []float64, periods int) (*Result, error)

	// IsTrained reports whether the last Fit produced a usable model.
	IsTrained() bool
}

// Trend labels returned by ClassifyTrend.
const (
	TrendUp     = "Up"
	TrendDown   = "Down"
	TrendStable = "Stable"
)

// ClassifyTrend compares the mean of the second half of values against the
// first half: more than 10% above is Up, more than 10% below is Down,
// anything else is Stable. Every strategy and the ensemble share this rule.
func ClassifyTrend(values []float64) string {
	if len(values) < 2 {
		return TrendStable
	}

	mid := len(values) / 2
	first := mean(values[:mid])
	second := mean(values[mid:])

	switch {
	case second > first*1.1:
		return TrendUp
	case second < first*0.9:
		return TrendDown
	default:
		return TrendStable
	}
}

// baseStrategy provides the shared trained-state bookkeeping for strategies.
// Fitting takes the exclusive lock, forecasting the shared lock.
type baseStrategy struct {
	name    string
	trained bool
	mu      sync.RWMutex
}

func (b *baseStrategy) Name() string {
	return b.name
}

func (b *baseStrategy) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// horizonDates returns the dates and weekday names for the next periods days
// starting tomorrow.
func horizonDates(now time.Time, periods int) ([]string, []string) {
	dates := make([]string, periods)
	days := make([]string, periods)
	for i := 0; i < periods; i++ {
		d := now.UTC().AddDate(0, 0, i+1)
		dates[i] = d.Format("2006-01-02")
		days[i] = d.Weekday().String()
	}
	return dates, days
}

// formatResult assembles the common Result shape: rounded predictions,
// per-day confidence decaying linearly from the base, trend over the raw
// predictions. Bounds (if non-nil, one [lower, upper] pair per period) are
// attached after clamping the lower bound at zero.
func formatResult(model string, predictions []float64, bounds [][2]float64, confidence, decay float64) *Result {
	now := time.Now()
	dates, days := horizonDates(now, len(predictions))

	points := make([]Point, len(predictions))
	for i, pred := range predictions {
		points[i] = Point{
			Date:                       dates[i],
			Day:                        days[i],
			PredictedProductiveMinutes: math.Round(math.Max(0, pred)),
			Confidence:                 round2(confidence - float64(i)*decay),
		}
		if bounds != nil && i < len(bounds) {
			points[i].LowerBound = math.Round(math.Max(0, bounds[i][0]))
			points[i].UpperBound = math.Round(bounds[i][1])
		}
	}

	return &Result{
		Model:            model,
		Forecast:         points,
		AveragePredicted: math.Round(mean(predictions)),
		Trend:            ClassifyTrend(predictions),
		Confidence:       confidence,
		Periods:          len(predictions),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
