// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package metrics provides Prometheus instrumentation for Focalis:
// store query performance, API latency and throughput, forecast runs,
// and adaptive weight updates. Exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "focalis_store_query_duration_seconds",
			Help:    "Duration of DuckDB store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_store_query_errors_total",
			Help: "Total number of DuckDB store query errors",
		},
		[]string{"operation", "table"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "focalis_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "focalis_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Forecast metrics
	ForecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_forecast_runs_total",
			Help: "Total number of strategy forecast runs",
		},
		[]string{"strategy", "mode"}, // mode: "trained", "fallback"
	)

	ForecastDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "focalis_forecast_duration_seconds",
			Help:    "Duration of strategy forecast runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	ForecastErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_forecast_errors_total",
			Help: "Total number of strategy forecast failures",
		},
		[]string{"strategy"},
	)

	// Adaptive weight metrics
	WeightUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "focalis_weight_updates_total",
			Help: "Total number of adaptive weight updates",
		},
	)

	WeightUpdateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "focalis_weight_update_errors_total",
			Help: "Total number of failed adaptive weight updates",
		},
	)

	ModelWeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focalis_model_weight",
			Help: "Current ensemble weight per model (most recent update)",
		},
		[]string{"model"},
	)

	// Analyzer metrics
	AnalyzerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_analyzer_runs_total",
			Help: "Total number of behavioral analyzer runs",
		},
		[]string{"analyzer"}, // fatigue, context_switch, procrastination, mood_causality, classification
	)

	AnalyzerInsufficientData = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focalis_analyzer_insufficient_data_total",
			Help: "Total number of analyzer runs short-circuited for lack of data",
		},
		[]string{"analyzer"},
	)
)

// RecordStoreQuery records a store query metric.
func RecordStoreQuery(operation, table string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordForecast records a strategy forecast run.
func RecordForecast(strategy string, trained bool, duration time.Duration, err error) {
	ForecastDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		ForecastErrors.WithLabelValues(strategy).Inc()
		return
	}
	mode := "fallback"
	if trained {
		mode = "trained"
	}
	ForecastRuns.WithLabelValues(strategy, mode).Inc()
}

// RecordWeightUpdate records an adaptive weight update and publishes the
// resulting per-model weights.
func RecordWeightUpdate(weights map[string]float64, err error) {
	if err != nil {
		WeightUpdateErrors.Inc()
		return
	}
	WeightUpdates.Inc()
	for model, w := range weights {
		ModelWeight.WithLabelValues(model).Set(w)
	}
}

// RecordAnalyzerRun records a behavioral analyzer invocation.
func RecordAnalyzerRun(analyzer string, insufficientData bool) {
	AnalyzerRuns.WithLabelValues(analyzer).Inc()
	if insufficientData {
		AnalyzerInsufficientData.WithLabelValues(analyzer).Inc()
	}
}
