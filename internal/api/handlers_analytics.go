// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/focalhq/focalis/internal/analytics"
	"github.com/focalhq/focalis/internal/behavior"
	"github.com/focalhq/focalis/internal/classify"
	"github.com/focalhq/focalis/internal/models"
)

// Summary aggregates the user's recent activity into daily and hourly
// views with the headline focus metrics.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()

	days, since, apiErr := windowDays(r, 7, 90, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	events, err := h.store.ListActivities(r.Context(), requestUserID(r), since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}

	daily := analytics.FillDaily(analytics.Daily(events), since, now)
	hourly := analytics.Hourly(events)

	var productive, total float64
	for _, d := range daily {
		productive += d.ProductiveMinutes
		total += d.TotalMinutes
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"days":                 days,
		"daily":                daily,
		"hourly":               hourly,
		"top_productive_apps":  analytics.TopApps(events, models.CategoryProductive, 5),
		"top_distracting_apps": analytics.TopApps(events, models.CategoryDistracting, 5),
		"focus_score":          analytics.FocusScore(productive, total),
		"best_focus_window":    analytics.BestFocusWindow(hourly),
		"distraction_trigger":  analytics.DistractionTrigger(hourly),
		"distraction_spikes":   analytics.DistractionSpikes(hourly),
	}, start)
}

// Forecast predicts the user's productive minutes over the next ?days=
// (default from config, capped at the configured maximum). The ensemble is
// refit on the trailing month before forecasting.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()
	userID := requestUserID(r)

	days, err := getIntParam(r, "days", h.cfg.Forecast.DefaultDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if days < 1 || days > h.cfg.Forecast.MaxDays {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"days must be between 1 and "+strconv.Itoa(h.cfg.Forecast.MaxDays), nil)
		return
	}

	summaries, hourly, apiErr := h.forecastInputs(r, userID, now)
	if apiErr != nil {
		respondError(w, http.StatusInternalServerError, apiErr.Code, apiErr.Message, nil)
		return
	}

	h.ensemble.Fit(r.Context(), analytics.ProductiveSeries(summaries))
	outlook, ferr := h.ensemble.Forecast(r.Context(), userID, summaries, hourly, days)
	if ferr != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "forecast failed", ferr)
		return
	}
	respondData(w, http.StatusOK, outlook, start)
}

// ForecastModels reports per-strategy readiness and the user's current
// blend weights.
func (h *Handler) ForecastModels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, http.StatusOK, h.ensemble.Status(r.Context(), requestUserID(r)), start)
}

// forecastInputs loads the trailing activity month as dense daily summaries
// plus hourly buckets.
func (h *Handler) forecastInputs(r *http.Request, userID string, now time.Time) ([]models.DailySummary, []models.HourlyBucket, *models.APIError) {
	since := now.AddDate(0, 0, -historyDays)
	events, err := h.store.ListActivities(r.Context(), userID, since, now)
	if err != nil {
		return nil, nil, &models.APIError{Code: "STORE_ERROR", Message: "failed to load activity history"}
	}
	summaries := analytics.FillDaily(analytics.Daily(events), since, now)
	return summaries, analytics.Hourly(events), nil
}

// Fatigue scores mental fatigue over the trailing ?hours= window.
func (h *Handler) Fatigue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()
	userID := requestUserID(r)

	hours, since, apiErr := windowHours(r, h.cfg.Behavior.FatigueWindowHours, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	events, err := h.store.ListActivities(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}
	sessions, err := h.store.ListSessions(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list sessions", err)
		return
	}

	respondData(w, http.StatusOK, behavior.AnalyzeFatigue(events, sessions, hours, now), start)
}

// ContextSwitches analyzes app-switching cost over the trailing ?hours=
// window.
func (h *Handler) ContextSwitches(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()

	hours, since, apiErr := windowHours(r, h.cfg.Behavior.SwitchWindowHours, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	events, err := h.store.ListActivities(r.Context(), requestUserID(r), since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}

	respondData(w, http.StatusOK, behavior.AnalyzeSwitches(events, hours, now), start)
}

// Procrastination mines distraction episodes and their trigger sequences
// over the trailing ?days= window.
func (h *Handler) Procrastination(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()

	days, since, apiErr := windowDays(r, h.cfg.Behavior.ProcrastinationDays, 90, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	events, err := h.store.ListActivities(r.Context(), requestUserID(r), since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}

	respondData(w, http.StatusOK, behavior.AnalyzeProcrastination(events, days, now), start)
}

// MoodCausality tests whether mood drives productivity (or the reverse)
// over the trailing ?days= window.
func (h *Handler) MoodCausality(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()
	userID := requestUserID(r)

	_, since, apiErr := windowDays(r, h.cfg.Behavior.MoodDays, 90, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	moods, err := h.store.ListMoods(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list mood entries", err)
		return
	}
	events, err := h.store.ListActivities(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}

	report := behavior.AnalyzeMoodCausality(moods, analytics.Daily(events),
		behavior.DefaultMoodMaxLags, h.cfg.Behavior.GrangerAnalytic)
	respondData(w, http.StatusOK, report, start)
}

// Classification predicts the user's weekly productivity level and explains
// the prediction feature by feature.
func (h *Handler) Classification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()
	userID := requestUserID(r)
	since := now.AddDate(0, 0, -7)

	events, err := h.store.ListActivities(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list activities", err)
		return
	}
	sessions, err := h.store.ListSessions(r.Context(), userID, since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list sessions", err)
		return
	}

	week := analytics.FillDaily(analytics.Daily(events), since, now)
	features := classify.PrepareFeatures(week, sessionTaskStats(sessions), sessionFocusStats(sessions))

	respondData(w, http.StatusOK, map[string]interface{}{
		"classification":     h.classifier.Predict(features),
		"probabilities":      h.classifier.PredictProba(features),
		"score":              classify.Score(features),
		"features":           features,
		"feature_importance": h.classifier.FeatureImportance(),
		"explanation":        classify.Explain(h.classifier, features),
	}, start)
}

// WeightsReport returns the adaptive weight state and per-model error
// statistics for the user.
func (h *Handler) WeightsReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.weights.Report(r.Context(), requestUserID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to load weight report", err)
		return
	}
	respondData(w, http.StatusOK, report, start)
}

// feedbackRequest reports one day's realized productive minutes alongside
// what each model had predicted for it.
type feedbackRequest struct {
	Actual      float64            `json:"actual" validate:"gte=0"`
	Predictions map[string]float64 `json:"predictions" validate:"required,min=1"`
}

// WeightsFeedback feeds an actual outcome back into the adaptive weight
// optimizer and returns the rebalanced weights.
func (h *Handler) WeightsFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	result, err := h.weights.Update(r.Context(), requestUserID(r), req.Actual, req.Predictions)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to update weights", err)
		return
	}
	respondData(w, http.StatusOK, result, start)
}

// sessionTaskStats treats each focus session as a task: completed sessions
// count toward the completion rate.
func sessionTaskStats(sessions []models.FocusSession) classify.TaskStats {
	completed := 0
	for _, s := range sessions {
		if s.Completed {
			completed++
		}
	}
	return classify.TaskStats{Completed: completed, Total: len(sessions)}
}

func sessionFocusStats(sessions []models.FocusSession) classify.FocusStats {
	if len(sessions) == 0 {
		return classify.FocusStats{}
	}
	var total float64
	for _, s := range sessions {
		total += s.ActualDuration
	}
	return classify.FocusStats{
		TotalSessions: len(sessions),
		AvgDuration:   total / float64(len(sessions)),
	}
}
