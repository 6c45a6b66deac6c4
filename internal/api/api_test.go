// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/focalhq/focalis/internal/classify"
	"github.com/focalhq/focalis/internal/config"
	"github.com/focalhq/focalis/internal/forecast"
	"github.com/focalhq/focalis/internal/forecast/weights"
	"github.com/focalhq/focalis/internal/logging"
	"github.com/focalhq/focalis/internal/models"
	"github.com/focalhq/focalis/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8090, Timeout: 30 * time.Second},
		Database: config.DatabaseConfig{
			Path:      filepath.Join(t.TempDir(), "test.duckdb"),
			MaxMemory: "256MB",
			Threads:   1,
		},
		Forecast: config.ForecastConfig{
			DefaultDays:      7,
			MaxDays:          30,
			StrategyTimeout:  5 * time.Second,
			LSTMHiddenSize:   8,
			LSTMEpochs:       20,
			LSTMLearningRate: 0.05,
			ARIMAAutoOrder:   false,
		},
		Behavior: config.BehaviorConfig{
			FatigueWindowHours:  4,
			SwitchWindowHours:   8,
			ProcrastinationDays: 7,
			MoodDays:            30,
			GrangerAnalytic:     false,
		},
		API:     config.APIConfig{RateLimitDisabled: true},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig(t)

	st, err := store.New(&cfg.Database)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := logging.NewTestLogger(io.Discard)
	ws := weights.New(db, logger)
	ensemble := forecast.NewEnsemble([]forecast.Strategy{
		forecast.NewLSTM(forecast.LSTMConfig{
			HiddenSize:   cfg.Forecast.LSTMHiddenSize,
			Epochs:       cfg.Forecast.LSTMEpochs,
			LearningRate: cfg.Forecast.LSTMLearningRate,
		}),
		forecast.NewARIMA(cfg.Forecast.ARIMAAutoOrder),
		forecast.NewProphet(),
	}, ws, cfg.Forecast.StrategyTimeout, logger)

	handler := NewHandler(cfg, st, ensemble, ws, classify.NewClassifier())
	return NewRouter(handler, cfg).Setup()
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope from %s %s: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealthEndpoint(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("expected success envelope, got %q", env.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	var data struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode health data: %v", err)
	}
	if data.Status != "ok" || data.Database != "ok" {
		t.Errorf("expected healthy status, got %+v", data)
	}
}

func TestCreateActivityInfersCategory(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/activities",
		`{"app_name":"Visual Studio Code","duration_minutes":25}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var event models.ActivityEvent
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if event.Category != models.CategoryProductive {
		t.Errorf("expected inferred productive category, got %q", event.Category)
	}
	if event.ID == "" {
		t.Error("expected server-assigned ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected server-assigned timestamp")
	}
}

func TestCreateActivityValidation(t *testing.T) {
	h := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing app name", `{"duration_minutes":5}`},
		{"negative duration", `{"app_name":"Code","duration_minutes":-1}`},
		{"malformed json", `{"app_name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/activities", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
			}
		})
	}
}

func TestListActivitiesUserScoping(t *testing.T) {
	h := testRouter(t)

	alice := map[string]string{"X-User-ID": "alice"}
	bob := map[string]string{"X-User-ID": "bob"}

	rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/activities",
		`{"app_name":"Figma","duration_minutes":30}`, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed activity failed: %d", rec.Code)
	}

	var counts struct {
		Count int `json:"count"`
	}

	_, env := doRequest(t, h, http.MethodGet, "/api/v1/activities", "", alice)
	if err := json.Unmarshal(env.Data, &counts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if counts.Count != 1 {
		t.Errorf("expected alice to see 1 activity, got %d", counts.Count)
	}

	_, env = doRequest(t, h, http.MethodGet, "/api/v1/activities", "", bob)
	if err := json.Unmarshal(env.Data, &counts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if counts.Count != 0 {
		t.Errorf("expected bob to see 0 activities, got %d", counts.Count)
	}
}

func TestForecastDaysValidation(t *testing.T) {
	h := testRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{"zero days", "/api/v1/analytics/forecast?days=0"},
		{"above max", "/api/v1/analytics/forecast?days=31"},
		{"not a number", "/api/v1/analytics/forecast?days=soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
			}
		})
	}
}

func TestForecastEndpoint(t *testing.T) {
	h := testRouter(t)

	// Two weeks of history so every strategy has something to fit.
	now := time.Now().UTC()
	for i := 1; i <= 14; i++ {
		ts := now.AddDate(0, 0, -i).Format(time.RFC3339)
		body := fmt.Sprintf(`{"app_name":"IntelliJ","duration_minutes":%d,"timestamp":%q}`, 120+i*5, ts)
		rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/activities", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed day %d failed: %d", i, rec.Code)
		}
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/forecast?days=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outlook struct {
		WeeklyForecast []struct {
			Date                       string  `json:"date"`
			PredictedProductiveMinutes float64 `json:"predicted_productive_minutes"`
		} `json:"weekly_forecast"`
		ModelWeights map[string]float64 `json:"model_weights"`
		Trend        string             `json:"trend"`
	}
	if err := json.Unmarshal(env.Data, &outlook); err != nil {
		t.Fatalf("decode outlook: %v", err)
	}
	if len(outlook.WeeklyForecast) != 5 {
		t.Fatalf("expected 5 forecast points, got %d", len(outlook.WeeklyForecast))
	}
	if len(outlook.ModelWeights) != 3 {
		t.Errorf("expected 3 model weights, got %v", outlook.ModelWeights)
	}
	for _, p := range outlook.WeeklyForecast {
		if p.PredictedProductiveMinutes < 0 {
			t.Errorf("negative prediction on %s: %v", p.Date, p.PredictedProductiveMinutes)
		}
	}
}

func TestForecastModelsEndpoint(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/forecast/models", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status struct {
		Models  map[string]json.RawMessage `json:"models"`
		Weights map[string]float64         `json:"weights"`
	}
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	for _, name := range []string{forecast.StrategyLSTM, forecast.StrategyARIMA, forecast.StrategyProphet} {
		if _, ok := status.Models[name]; !ok {
			t.Errorf("missing model status for %s", name)
		}
		if _, ok := status.Weights[name]; !ok {
			t.Errorf("missing weight for %s", name)
		}
	}
}

func TestMoodUpsertPerDay(t *testing.T) {
	h := testRouter(t)

	date := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	first := fmt.Sprintf(`{"date":%q,"mood":3,"energy":3,"stress":3}`, date)
	second := fmt.Sprintf(`{"date":%q,"mood":5,"energy":4,"stress":2}`, date)

	for _, body := range []string{first, second} {
		rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/moods", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("mood post failed: %d", rec.Code)
		}
	}

	_, env := doRequest(t, h, http.MethodGet, "/api/v1/moods", "", nil)
	var data struct {
		Moods []models.MoodEntry `json:"moods"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode moods: %v", err)
	}
	if data.Count != 1 {
		t.Fatalf("expected one entry per day, got %d", data.Count)
	}
	if data.Moods[0].Mood != 5 {
		t.Errorf("expected second check-in to win, got mood %d", data.Moods[0].Mood)
	}
}

func TestMoodValidation(t *testing.T) {
	h := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"mood out of range", `{"mood":9,"energy":3,"stress":3}`},
		{"missing mood", `{"energy":3,"stress":3}`},
		{"bad date", `{"date":"not-a-date","mood":3,"energy":3,"stress":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/moods", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
			}
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/sessions",
		`{"planned_duration":25,"actual_duration":25,"completed":true}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var session models.FocusSession
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.StartTime.IsZero() {
		t.Error("expected server-assigned start time")
	}

	_, env = doRequest(t, h, http.MethodGet, "/api/v1/sessions", "", nil)
	var data struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if data.Count != 1 {
		t.Errorf("expected 1 session, got %d", data.Count)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	h := testRouter(t)

	rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/activities",
		`{"app_name":"YouTube","duration_minutes":45}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed failed: %d", rec.Code)
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/summary?days=7", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var data struct {
		Daily              []models.DailySummary `json:"daily"`
		TopDistractingApps []models.AppUsage     `json:"top_distracting_apps"`
		FocusScore         int                   `json:"focus_score"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(data.Daily) != 8 {
		t.Errorf("expected dense 8-day window (7 back plus today), got %d", len(data.Daily))
	}
	if len(data.TopDistractingApps) != 1 || data.TopDistractingApps[0].AppName != "YouTube" {
		t.Errorf("expected YouTube as top distracting app, got %+v", data.TopDistractingApps)
	}
}

func TestWeightsFeedbackAndReport(t *testing.T) {
	h := testRouter(t)

	body := `{"actual":120,"predictions":{"lstm":100,"arima":118,"prophet":140}}`
	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/analytics/weights/feedback", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result weights.UpdateResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode update result: %v", err)
	}
	if result.BestModel != forecast.StrategyARIMA {
		t.Errorf("expected arima as best model, got %q", result.BestModel)
	}
	sum := 0.0
	for _, w := range result.NewWeights {
		sum += w
	}
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("expected normalized weights, sum %v", sum)
	}

	_, env = doRequest(t, h, http.MethodGet, "/api/v1/analytics/weights", "", nil)
	var report weights.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalUpdates != 1 {
		t.Errorf("expected 1 recorded update, got %d", report.TotalUpdates)
	}
}

func TestWeightsFeedbackValidation(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/analytics/weights/feedback",
		`{"actual":-5,"predictions":{"lstm":100}}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

func TestClassificationColdStart(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/classification", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var data struct {
		Classification string             `json:"classification"`
		Probabilities  map[string]float64 `json:"probabilities"`
		Score          float64            `json:"score"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode classification: %v", err)
	}
	if data.Classification != "Low" {
		t.Errorf("expected Low with no tracked data, got %q", data.Classification)
	}
	if data.Probabilities["Low"] != 0.7 {
		t.Errorf("expected rule-based Low probability 0.7, got %v", data.Probabilities["Low"])
	}
}

func TestProcrastinationNoData(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/procrastination", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var data struct {
		RiskLevel string `json:"risk_level"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if data.RiskLevel != "No Data" {
		t.Errorf("expected No Data risk level, got %q", data.RiskLevel)
	}
}

func TestBehaviorWindowValidation(t *testing.T) {
	h := testRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{"fatigue zero hours", "/api/v1/analytics/fatigue?hours=0"},
		{"switches huge window", "/api/v1/analytics/context-switches?hours=500"},
		{"procrastination bad days", "/api/v1/analytics/procrastination?days=never"},
		{"mood causality zero days", "/api/v1/analytics/mood-causality?days=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
			}
		})
	}
}

func TestMoodCausalityInsufficientData(t *testing.T) {
	h := testRouter(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/analytics/mood-causality", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("insufficient data should still succeed, got %q", env.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected prometheus exposition output")
	}
}

func TestUnknownRoute(t *testing.T) {
	h := testRouter(t)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
