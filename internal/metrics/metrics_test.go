// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{"successful select", "SELECT", "activities", 10 * time.Millisecond, nil},
		{"successful insert", "INSERT", "mood_entries", 5 * time.Millisecond, nil},
		{"failed query", "SELECT", "focus_sessions", 100 * time.Millisecond, errors.New("query failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic; counter increments are verified below.
			RecordStoreQuery(tt.operation, tt.table, tt.duration, tt.err)
		})
	}

	if got := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("SELECT", "focus_sessions")); got < 1 {
		t.Errorf("expected at least one recorded store error, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/analytics/forecast", "200", 20*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/analytics/forecast", "200")); got < 1 {
		t.Errorf("expected request counter to increment, got %v", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected gauge %v, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected gauge %v, got %v", before, got)
	}
}

func TestRecordForecast(t *testing.T) {
	RecordForecast("arima", true, 5*time.Millisecond, nil)
	RecordForecast("lstm", false, 5*time.Millisecond, nil)
	RecordForecast("prophet", true, 5*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(ForecastRuns.WithLabelValues("arima", "trained")); got < 1 {
		t.Errorf("expected trained run recorded, got %v", got)
	}
	if got := testutil.ToFloat64(ForecastRuns.WithLabelValues("lstm", "fallback")); got < 1 {
		t.Errorf("expected fallback run recorded, got %v", got)
	}
	if got := testutil.ToFloat64(ForecastErrors.WithLabelValues("prophet")); got < 1 {
		t.Errorf("expected error recorded, got %v", got)
	}
}

func TestRecordWeightUpdate(t *testing.T) {
	RecordWeightUpdate(map[string]float64{"lstm": 0.4, "arima": 0.3, "prophet": 0.3}, nil)

	if got := testutil.ToFloat64(ModelWeight.WithLabelValues("lstm")); got != 0.4 {
		t.Errorf("expected lstm weight gauge 0.4, got %v", got)
	}

	before := testutil.ToFloat64(WeightUpdateErrors)
	RecordWeightUpdate(nil, errors.New("persist failed"))
	if got := testutil.ToFloat64(WeightUpdateErrors); got != before+1 {
		t.Errorf("expected error counter to increment, got %v", got)
	}
}

func TestRecordAnalyzerRun(t *testing.T) {
	RecordAnalyzerRun("fatigue", false)
	RecordAnalyzerRun("mood_causality", true)

	if got := testutil.ToFloat64(AnalyzerRuns.WithLabelValues("fatigue")); got < 1 {
		t.Errorf("expected analyzer run recorded, got %v", got)
	}
	if got := testutil.ToFloat64(AnalyzerInsufficientData.WithLabelValues("mood_causality")); got < 1 {
		t.Errorf("expected insufficient-data counter recorded, got %v", got)
	}
}
