// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package api provides the HTTP surface: chi routing, request middleware,
// and the handlers that tie the store, the forecasting ensemble, and the
// behavioral analyzers together.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/focalhq/focalis/internal/classify"
	"github.com/focalhq/focalis/internal/config"
	"github.com/focalhq/focalis/internal/forecast"
	"github.com/focalhq/focalis/internal/forecast/weights"
	"github.com/focalhq/focalis/internal/logging"
	"github.com/focalhq/focalis/internal/models"
	"github.com/focalhq/focalis/internal/store"
	"github.com/focalhq/focalis/internal/validation"
)

// defaultUserID scopes requests that carry no X-User-ID header.
const defaultUserID = "default"

// historyDays is how much activity history feeds the forecasting ensemble.
const historyDays = 30

// Handler holds all HTTP handler dependencies.
type Handler struct {
	cfg        *config.Config
	store      *store.Store
	ensemble   *forecast.Ensemble
	weights    *weights.Store
	classifier *classify.Classifier
	startTime  time.Time
}

// NewHandler creates a handler backed by the given stores and models.
func NewHandler(cfg *config.Config, st *store.Store, ensemble *forecast.Ensemble, ws *weights.Store, classifier *classify.Classifier) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      st,
		ensemble:   ensemble,
		weights:    ws,
		classifier: classifier,
		startTime:  time.Now(),
	}
}

// sanitizeLogValue removes control characters from strings to prevent log
// injection. Newlines, carriage returns, and other control characters could
// otherwise forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData wraps data in the success envelope. start stamps the
// server-side computation time.
func respondData(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// generateETag creates a simple ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a structured VALIDATION_ERROR response.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}

// validateRequest validates a struct using go-playground/validator. Returns
// nil when validation passes.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// getIntParam extracts an integer query parameter. A missing parameter
// yields the default; an unparsable one is an error so callers can reject
// the request instead of silently substituting.
func getIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", name)
	}
	return value, nil
}

// requestUserID returns the user the request is scoped to.
func requestUserID(r *http.Request) string {
	if id := logging.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return defaultUserID
}

// decodeJSON decodes a request body into v, capping the body size.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}

// windowDays resolves a ?days= parameter bounded to [1, maxDays] and
// returns the matching since time.
func windowDays(r *http.Request, defaultDays, maxDays int, now time.Time) (int, time.Time, *models.APIError) {
	days, err := getIntParam(r, "days", defaultDays)
	if err != nil {
		return 0, time.Time{}, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	if days < 1 || days > maxDays {
		return 0, time.Time{}, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("days must be between 1 and %d", maxDays),
		}
	}
	return days, now.AddDate(0, 0, -days), nil
}

// windowHours resolves an ?hours= parameter bounded to [1, 168].
func windowHours(r *http.Request, defaultHours int, now time.Time) (int, time.Time, *models.APIError) {
	hours, err := getIntParam(r, "hours", defaultHours)
	if err != nil {
		return 0, time.Time{}, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	if hours < 1 || hours > 168 {
		return 0, time.Time{}, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "hours must be between 1 and 168",
		}
	}
	return hours, now.Add(-time.Duration(hours) * time.Hour), nil
}
