// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package models defines the domain types shared across Focalis: activity
// events, focus sessions, mood entries, and the standard API envelope.
package models

import (
	"time"
)

// Category classifies an application by its productivity impact.
type Category string

// Activity categories. Every activity event carries exactly one.
const (
	CategoryProductive  Category = "productive"
	CategoryDistracting Category = "distracting"
	CategoryNeutral     Category = "neutral"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryProductive, CategoryDistracting, CategoryNeutral:
		return true
	}
	return false
}

// ActivityEvent is a single tracked slice of application usage.
//
// Events arrive from the desktop tracker via POST /api/v1/activities. If the
// client omits Category, the server infers it with CategorizeApp.
type ActivityEvent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AppName         string    `json:"app_name" validate:"required,min=1,max=256"`
	Category        Category  `json:"category"`
	DurationMinutes float64   `json:"duration_minutes" validate:"gte=0"`
	Timestamp       time.Time `json:"timestamp"`
}

// IsProductive reports whether the event counts toward productive time.
func (e *ActivityEvent) IsProductive() bool {
	return e.Category == CategoryProductive
}

// FocusSession is one deliberate focus (Pomodoro-style) work block.
//
// EndTime is nil while the session is still running. ActualDuration is in
// minutes and may undershoot PlannedDuration when the session is abandoned.
type FocusSession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	PlannedDuration float64    `json:"planned_duration" validate:"gt=0"`
	ActualDuration  float64    `json:"actual_duration" validate:"gte=0"`
	Completed       bool       `json:"completed"`
}

// MoodEntry is a daily self-reported wellbeing check-in.
// Mood, Energy, and Stress are on a 1 to 5 scale.
type MoodEntry struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Date   time.Time `json:"date"`
	Mood   int       `json:"mood" validate:"min=1,max=5"`
	Energy int       `json:"energy" validate:"min=1,max=5"`
	Stress int       `json:"stress" validate:"min=1,max=5"`
}

// DailySummary is one calendar day of aggregated activity minutes.
// TotalMinutes is always the sum of the three category fields.
type DailySummary struct {
	Date               string  `json:"date"` // YYYY-MM-DD
	ProductiveMinutes  float64 `json:"productive_minutes"`
	DistractingMinutes float64 `json:"distracting_minutes"`
	NeutralMinutes     float64 `json:"neutral_minutes"`
	TotalMinutes       float64 `json:"total_minutes"`
}

// HourlyBucket is activity aggregated into one hour of the day.
type HourlyBucket struct {
	Time       string  `json:"time"` // "HH:00"
	Hour       int     `json:"hour"`
	Productive float64 `json:"productive"`
	Distracted float64 `json:"distracted"`
}

// AppUsage summarizes total time in a single application.
type AppUsage struct {
	AppName  string   `json:"app_name"`
	Category Category `json:"category"`
	Minutes  float64  `json:"minutes"`
	Sessions int      `json:"sessions"`
}
