// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/focalhq/focalis/internal/models"
)

// Health reports service liveness and store reachability. A failing store
// degrades the response to 503 but still returns the envelope so monitors
// can see what broke.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := "ok"
	database := "ok"
	httpStatus := http.StatusOK
	if err := h.store.Health(r.Context()); err != nil {
		status = "degraded"
		database = err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	respondData(w, httpStatus, map[string]interface{}{
		"status":         status,
		"database":       database,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, start)
}

// CreateActivity logs one activity event. The category is inferred from the
// app name when the client omits it; a zero timestamp means "now".
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var event models.ActivityEvent
	if err := decodeJSON(r, &event); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}

	event.ID = uuid.NewString()
	event.UserID = requestUserID(r)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Category == "" {
		event.Category = models.CategorizeApp(event.AppName)
	}

	if apiErr := validateRequest(&event); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.store.InsertActivity(r.Context(), &event); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to store activity", err)
		return
	}
	respondData(w, http.StatusCreated, &event, start)
}

// ListActivities returns the user's activity events over the last ?days=
// (default 7, max 90).
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
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

	respondData(w, http.StatusOK, map[string]interface{}{
		"activities": events,
		"count":      len(events),
		"days":       days,
	}, start)
}

// CreateSession records one focus session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var session models.FocusSession
	if err := decodeJSON(r, &session); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}

	session.ID = uuid.NewString()
	session.UserID = requestUserID(r)
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().UTC().Add(-time.Duration(session.ActualDuration * float64(time.Minute)))
	}

	if apiErr := validateRequest(&session); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.store.InsertSession(r.Context(), &session); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to store session", err)
		return
	}
	respondData(w, http.StatusCreated, &session, start)
}

// ListSessions returns the user's focus sessions over the last ?days=
// (default 7, max 90).
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()

	days, since, apiErr := windowDays(r, 7, 90, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	sessions, err := h.store.ListSessions(r.Context(), requestUserID(r), since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list sessions", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
		"days":     days,
	}, start)
}

// moodRequest is the check-in payload. Date accepts YYYY-MM-DD or RFC 3339;
// empty means today.
type moodRequest struct {
	Date   string `json:"date"`
	Mood   int    `json:"mood" validate:"required,min=1,max=5"`
	Energy int    `json:"energy" validate:"required,min=1,max=5"`
	Stress int    `json:"stress" validate:"required,min=1,max=5"`
}

// CreateMood records a daily mood check-in. One entry per user per day:
// re-posting the same date overwrites the earlier check-in.
func (h *Handler) CreateMood(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req moodRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	date, err := parseMoodDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD or RFC 3339", err)
		return
	}

	entry := models.MoodEntry{
		ID:     uuid.NewString(),
		UserID: requestUserID(r),
		Date:   date,
		Mood:   req.Mood,
		Energy: req.Energy,
		Stress: req.Stress,
	}
	if err := h.store.InsertMood(r.Context(), &entry); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to store mood entry", err)
		return
	}
	respondData(w, http.StatusCreated, &entry, start)
}

// ListMoods returns the user's mood entries over the last ?days=
// (default 30, max 90).
func (h *Handler) ListMoods(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := time.Now().UTC()

	days, since, apiErr := windowDays(r, 30, 90, now)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	moods, err := h.store.ListMoods(r.Context(), requestUserID(r), since, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list mood entries", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"moods": moods,
		"count": len(moods),
		"days":  days,
	}, start)
}

func parseMoodDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.UTC().Truncate(24 * time.Hour), nil
}
