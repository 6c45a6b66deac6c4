// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"math"
	"testing"
	"time"
)

func linearSeries(n int, start, step float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = start + step*float64(i)
	}
	return series
}

func TestARIMAShortHistoryStaysUntrained(t *testing.T) {
	t.Parallel()

	a := NewARIMA(false)
	if err := a.Fit(context.Background(), linearSeries(5, 60, 1)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if a.IsTrained() {
		t.Error("expected untrained on short history")
	}
}

func TestARIMAFallbackUsesWeeklyCycle(t *testing.T) {
	t.Parallel()

	a := NewARIMA(false)
	history := []float64{100, 100, 100}
	result, err := a.Forecast(context.Background(), history, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	if result.Model != "ARIMA" || result.Confidence != 0.5 {
		t.Errorf("unexpected fallback header: %+v", result)
	}
	if len(result.Forecast) != 7 {
		t.Fatalf("expected 7 points, got %d", len(result.Forecast))
	}

	now := time.Now().UTC()
	for i, p := range result.Forecast {
		wd := now.AddDate(0, 0, i+1).Weekday()
		want := math.Round(100 * dayOfWeekModifiers[(int(wd)+6)%7])
		if p.PredictedProductiveMinutes != want {
			t.Errorf("day %d (%s): got %v, want %v", i, wd, p.PredictedProductiveMinutes, want)
		}
	}
}

func TestARIMAFitsLinearTrend(t *testing.T) {
	t.Parallel()

	// y_t = y_{t-1} + 2 is exactly representable by AR(1).
	history := linearSeries(20, 50, 2)

	a := NewARIMA(false)
	if err := a.Fit(context.Background(), history); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !a.IsTrained() {
		t.Fatal("expected trained on 20-point history")
	}

	result, err := a.Forecast(context.Background(), history, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	if result.Confidence != 0.82 {
		t.Errorf("expected trained confidence 0.82, got %v", result.Confidence)
	}
	if got := result.Order; len(got) != 3 || got[0] != 1 || got[1] != 0 {
		t.Errorf("unexpected order: %v", got)
	}
	// First step continues the line: 88 + 2.
	if got := result.Forecast[0].PredictedProductiveMinutes; math.Abs(got-90) > 1 {
		t.Errorf("expected first prediction near 90, got %v", got)
	}
	for i := 1; i < len(result.Forecast); i++ {
		if result.Forecast[i].PredictedProductiveMinutes <= result.Forecast[i-1].PredictedProductiveMinutes {
			t.Errorf("expected strictly rising forecast, point %d did not rise", i)
		}
	}
	for i, p := range result.Forecast {
		if p.UpperBound < p.PredictedProductiveMinutes || p.LowerBound > p.PredictedProductiveMinutes {
			t.Errorf("point %d: prediction outside bounds: %+v", i, p)
		}
	}
}

func TestARIMAConstantHistoryFallsBack(t *testing.T) {
	t.Parallel()

	// A constant series makes the regressors collinear; the strategy must
	// stay untrained and keep serving the fallback.
	history := make([]float64, 15)
	for i := range history {
		history[i] = 120
	}

	a := NewARIMA(true)
	if err := a.Fit(context.Background(), history); err == nil {
		t.Error("expected fit error on constant history")
	}
	if a.IsTrained() {
		t.Error("expected untrained after failed fit")
	}

	result, err := a.Forecast(context.Background(), history, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Confidence != 0.5 {
		t.Errorf("expected fallback confidence, got %v", result.Confidence)
	}
}

func TestARIMARejectsNonPositivePeriods(t *testing.T) {
	t.Parallel()

	a := NewARIMA(false)
	if _, err := a.Forecast(context.Background(), linearSeries(20, 50, 2), 0); err == nil {
		t.Error("expected error for periods=0")
	}
	if _, err := a.Forecast(context.Background(), linearSeries(20, 50, 2), -3); err == nil {
		t.Error("expected error for negative periods")
	}
}

func TestSolveLinearSystem(t *testing.T) {
	t.Parallel()

	// 2x + y = 5, x + 3y = 10 has solution x=1, y=3.
	a := [][]float64{{2, 1}, {1, 3}}
	b := []float64{5, 10}
	x, err := solveLinearSystem(a, b)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(x[0]-1) > 1e-9 || math.Abs(x[1]-3) > 1e-9 {
		t.Errorf("got %v, want [1 3]", x)
	}

	singular := [][]float64{{1, 2}, {2, 4}}
	if _, err := solveLinearSystem(singular, []float64{1, 2}); err == nil {
		t.Error("expected error for singular system")
	}
}
