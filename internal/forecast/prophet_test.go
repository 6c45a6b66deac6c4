// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"math"
	"testing"
)

func TestProphetShortHistoryFallsBackFlat(t *testing.T) {
	t.Parallel()

	p := NewProphet()
	if err := p.Fit(context.Background(), []float64{60, 80, 100}); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if p.IsTrained() {
		t.Error("expected untrained below 10 points")
	}

	result, err := p.Forecast(context.Background(), []float64{60, 80, 100}, 5)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Model != "Prophet (fallback)" || result.Confidence != 0.5 {
		t.Errorf("unexpected fallback header: %+v", result)
	}
	for i, pt := range result.Forecast {
		if pt.PredictedProductiveMinutes != 80 {
			t.Errorf("point %d: expected flat mean 80, got %v", i, pt.PredictedProductiveMinutes)
		}
	}
	if result.Trend != TrendStable {
		t.Errorf("expected stable fallback trend, got %s", result.Trend)
	}
}

func TestProphetEmptyHistoryFallback(t *testing.T) {
	t.Parallel()

	p := NewProphet()
	result, err := p.Forecast(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for i, pt := range result.Forecast {
		if pt.PredictedProductiveMinutes != 60 {
			t.Errorf("point %d: expected default 60, got %v", i, pt.PredictedProductiveMinutes)
		}
	}
}

func TestProphetFitsTrendAndSeasonality(t *testing.T) {
	t.Parallel()

	// Three weeks of rising trend with a weekend dip.
	history := make([]float64, 21)
	for i := range history {
		history[i] = 60 + 2*float64(i)
		if i%7 >= 5 {
			history[i] -= 30
		}
	}

	p := NewProphet()
	if err := p.Fit(context.Background(), history); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !p.IsTrained() {
		t.Fatal("expected trained on 21-point history")
	}

	result, err := p.Forecast(context.Background(), history, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	if result.Model != "Prophet" || result.Confidence != 0.8 {
		t.Errorf("unexpected trained header: %+v", result)
	}
	for i, pt := range result.Forecast {
		if pt.PredictedProductiveMinutes < 0 {
			t.Errorf("point %d: negative prediction", i)
		}
		want := round2(0.8 - float64(i)*0.015)
		if pt.Confidence != want {
			t.Errorf("point %d: confidence %v, want %v", i, pt.Confidence, want)
		}
		if pt.UpperBound < pt.LowerBound {
			t.Errorf("point %d: inverted bounds %+v", i, pt)
		}
	}

	// The trend component keeps climbing: the forecast week's mean must sit
	// above the history's mean.
	if result.AveragePredicted <= mean(history) {
		t.Errorf("expected forecast above history mean %v, got %v", mean(history), result.AveragePredicted)
	}
}

func TestProphetConstantSeriesPredictsConstant(t *testing.T) {
	t.Parallel()

	history := make([]float64, 14)
	for i := range history {
		history[i] = 100
	}

	p := NewProphet()
	if err := p.Fit(context.Background(), history); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !p.IsTrained() {
		t.Fatal("expected trained")
	}

	result, err := p.Forecast(context.Background(), history, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for i, pt := range result.Forecast {
		if math.Abs(pt.PredictedProductiveMinutes-100) > 1 {
			t.Errorf("point %d: expected ~100, got %v", i, pt.PredictedProductiveMinutes)
		}
	}
}
