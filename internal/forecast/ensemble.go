// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/focalhq/focalis/internal/analytics"
	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// DefaultWeights returns the starting blend before any feedback has been
// observed for a user.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		StrategyLSTM:    0.4,
		StrategyARIMA:   0.3,
		StrategyProphet: 0.3,
	}
}

// WeightSource supplies per-user blend weights. Implemented by the adaptive
// weight optimizer; the ensemble falls back to DefaultWeights on error.
type WeightSource interface {
	Weights(ctx context.Context, userID string) (map[string]float64, error)
}

// EnsemblePoint is a single forecasted day with the per-model breakdown.
type EnsemblePoint struct {
	Date                       string  `json:"date"`
	Day                        string  `json:"day"`
	PredictedProductiveMinutes float64 `json:"predicted_productive_minutes"`
	LSTMPrediction             float64 `json:"lstm_prediction"`
	ARIMAPrediction            float64 `json:"arima_prediction"`
	ProphetPrediction          float64 `json:"prophet_prediction"`
	Confidence                 float64 `json:"confidence"`
}

// EnsembleResult is the blended forecast over a horizon.
type EnsembleResult struct {
	Model            string          `json:"model"`
	Forecast         []EnsemblePoint `json:"forecast"`
	AveragePredicted float64         `json:"average_predicted"`
	Trend            string          `json:"trend"`
	Confidence       float64         `json:"confidence"`
	Periods          int             `json:"periods"`
}

// ModelPredictions groups the individual strategy results with the blend.
type ModelPredictions struct {
	LSTM     *Result         `json:"lstm"`
	ARIMA    *Result         `json:"arima"`
	Prophet  *Result         `json:"prophet"`
	Ensemble *EnsembleResult `json:"ensemble"`
}

// Outlook is the full forecast response: the blended weekly forecast plus
// derived planning signals.
type Outlook struct {
	NextDayWorkload       int                `json:"next_day_workload"`
	CompletionProbability int                `json:"completion_probability"`
	BestFocusWindow       string             `json:"best_focus_window"`
	DistractionTrigger    string             `json:"distraction_trigger"`
	Trend                 string             `json:"trend"`
	WeeklyForecast        []EnsemblePoint    `json:"weekly_forecast"`
	LoadLevel             string             `json:"load_level"`
	StressRisk            string             `json:"stress_risk"`
	ModelPredictions      ModelPredictions   `json:"model_predictions"`
	ModelWeights          map[string]float64 `json:"model_weights"`
	EnsembleMethod        string             `json:"ensemble_method"`
}

// StrategyStatus describes one strategy's readiness.
type StrategyStatus struct {
	Available      bool  `json:"available"`
	Trained        bool  `json:"trained"`
	SequenceLength int   `json:"sequence_length,omitempty"`
	Order          []int `json:"order,omitempty"`
}

// Status reports every strategy's readiness plus the user's current weights.
type Status struct {
	Models  map[string]StrategyStatus `json:"models"`
	Weights map[string]float64        `json:"weights"`
}

// Ensemble blends injected strategies with per-user weights. It is safe for
// concurrent use.
type Ensemble struct {
	strategies []Strategy
	weights    WeightSource
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewEnsemble creates an ensemble over the given strategies. timeout bounds
// each strategy's forecast during the parallel fan-out.
func NewEnsemble(strategies []Strategy, weights WeightSource, timeout time.Duration, logger zerolog.Logger) *Ensemble {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Ensemble{
		strategies: strategies,
		weights:    weights,
		timeout:    timeout,
		logger:     logger.With().Str("component", "forecast").Logger(),
	}
}

// Fit trains every strategy on the history. Individual fit failures are
// logged and skipped: an unfitted strategy simply forecasts via its
// fallback path.
func (e *Ensemble) Fit(ctx context.Context, history []float64) {
	for _, s := range e.strategies {
		if err := s.Fit(ctx, history); err != nil {
			e.logger.Warn().Err(err).Str("strategy", s.Name()).Msg("strategy fit failed")
		}
	}
}

// strategyResult holds one strategy's forecast from the fan-out.
type strategyResult struct {
	name   string
	result *Result
	err    error
}

// runStrategies forecasts with all strategies in parallel, each under its
// own timeout.
func (e *Ensemble) runStrategies(ctx context.Context, history []float64, periods int) map[string]*Result {
	results := make([]strategyResult, len(e.strategies))
	var wg sync.WaitGroup

	for i, s := range e.strategies {
		wg.Add(1)
		go func(idx int, strat Strategy) {
			defer wg.Done()

			sCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			start := time.Now()
			res, err := strat.Forecast(sCtx, history, periods)
			metrics.RecordForecast(strat.Name(), strat.IsTrained(), time.Since(start), err)

			results[idx] = strategyResult{name: strat.Name(), result: res, err: err}
		}(i, s)
	}
	wg.Wait()

	byName := make(map[string]*Result, len(results))
	for _, r := range results {
		if r.err != nil {
			e.logger.Warn().Err(r.err).Str("strategy", r.name).Msg("strategy forecast failed")
			continue
		}
		byName[r.name] = r.result
	}
	return byName
}

// Forecast produces the blended outlook for a user. summaries supply both
// the history series and the stress-risk ratio; hourly supplies the focus
// window and distraction trigger heuristics.
func (e *Ensemble) Forecast(ctx context.Context, userID string, summaries []models.DailySummary, hourly []models.HourlyBucket, periods int) (*Outlook, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("forecast: periods must be positive, got %d", periods)
	}

	history := analytics.ProductiveSeries(summaries)
	byName := e.runStrategies(ctx, history, periods)

	weights := e.userWeights(ctx, userID)
	blended := e.combine(byName, weights, periods)

	if len(blended.Forecast) == 0 {
		return nil, fmt.Errorf("forecast: no strategy produced predictions")
	}

	avg := blended.AveragePredicted
	day1 := blended.Forecast[0].PredictedProductiveMinutes

	return &Outlook{
		NextDayWorkload:       int(math.Min(100, math.Round(day1/3))),
		CompletionProbability: clampInt(int(math.Round(70+(avg-60)/5)), 50, 95),
		BestFocusWindow:       analytics.BestFocusWindow(hourly),
		DistractionTrigger:    analytics.DistractionTrigger(hourly),
		Trend:                 blended.Trend,
		WeeklyForecast:        blended.Forecast,
		LoadLevel:             categorizeWorkload(avg),
		StressRisk:            stressRisk(summaries),
		ModelPredictions: ModelPredictions{
			LSTM:     byName[StrategyLSTM],
			ARIMA:    byName[StrategyARIMA],
			Prophet:  byName[StrategyProphet],
			Ensemble: blended,
		},
		ModelWeights:   weights,
		EnsembleMethod: "weighted_average",
	}, nil
}

// combine blends per-day predictions with the user's weights. A strategy
// missing a day contributes the default daily minutes for it.
func (e *Ensemble) combine(byName map[string]*Result, weights map[string]float64, periods int) *EnsembleResult {
	now := time.Now()
	dates, days := horizonDates(now, periods)

	dayValue := func(name string, i int) float64 {
		res := byName[name]
		if res == nil || i >= len(res.Forecast) {
			return defaultDailyMinutes
		}
		return res.Forecast[i].PredictedProductiveMinutes
	}

	points := make([]EnsemblePoint, periods)
	values := make([]float64, periods)
	for i := 0; i < periods; i++ {
		lstmVal := dayValue(StrategyLSTM, i)
		arimaVal := dayValue(StrategyARIMA, i)
		prophetVal := dayValue(StrategyProphet, i)

		blended := lstmVal*weights[StrategyLSTM] +
			arimaVal*weights[StrategyARIMA] +
			prophetVal*weights[StrategyProphet]

		values[i] = math.Round(blended)
		points[i] = EnsemblePoint{
			Date:                       dates[i],
			Day:                        days[i],
			PredictedProductiveMinutes: values[i],
			LSTMPrediction:             lstmVal,
			ARIMAPrediction:            arimaVal,
			ProphetPrediction:          prophetVal,
			Confidence:                 round2(0.85 - float64(i)*0.02),
		}
	}

	return &EnsembleResult{
		Model:            "Ensemble (LSTM + ARIMA + Prophet)",
		Forecast:         points,
		AveragePredicted: math.Round(mean(values)),
		Trend:            ClassifyTrend(values),
		Confidence:       0.85,
		Periods:          periods,
	}
}

// userWeights fetches the user's adaptive weights, falling back to defaults.
func (e *Ensemble) userWeights(ctx context.Context, userID string) map[string]float64 {
	if e.weights == nil {
		return DefaultWeights()
	}
	weights, err := e.weights.Weights(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("weight lookup failed, using defaults")
		return DefaultWeights()
	}
	return weights
}

// Status reports readiness for every strategy plus the user's weights.
func (e *Ensemble) Status(ctx context.Context, userID string) *Status {
	status := &Status{
		Models:  make(map[string]StrategyStatus, len(e.strategies)),
		Weights: e.userWeights(ctx, userID),
	}

	for _, s := range e.strategies {
		st := StrategyStatus{Available: true, Trained: s.IsTrained()}
		switch impl := s.(type) {
		case *LSTM:
			st.SequenceLength = lstmLookback
		case *ARIMA:
			impl.mu.RLock()
			st.Order = []int{impl.p, impl.d, 0}
			impl.mu.RUnlock()
		}
		status.Models[s.Name()] = st
	}
	return status
}

func categorizeWorkload(avgMinutes float64) string {
	switch {
	case avgMinutes < 60:
		return "Light"
	case avgMinutes < 180:
		return "Medium"
	default:
		return "Heavy"
	}
}

// stressRisk rates the distraction share of tracked time over the window.
func stressRisk(summaries []models.DailySummary) string {
	if len(summaries) == 0 {
		return "Low"
	}

	var distracting, productive float64
	for _, s := range summaries {
		distracting += s.DistractingMinutes
		productive += s.ProductiveMinutes
	}

	ratio := distracting / math.Max(distracting+productive, 1)
	switch {
	case ratio > 0.4:
		return "High"
	case ratio > 0.25:
		return "Medium"
	default:
		return "Low"
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
