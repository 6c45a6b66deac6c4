// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package classify predicts a weekly productivity level (Low, Medium, High)
// from aggregated activity, task, and focus-session statistics, and explains
// each prediction with per-feature contributions.
package classify

import (
	"math"

	"github.com/focalhq/focalis/internal/models"
)

// Class labels, ordered by their numeric encoding.
var classLabels = []string{"Low", "Medium", "High"}

// featureNames fixes the feature vector layout. Order matters: trained
// weights and explanations are indexed by it.
var featureNames = []string{
	"tasks_completed",
	"completion_rate",
	"productive_time",
	"distraction_time",
	"focus_sessions",
	"avg_session_duration",
	"consistency_score",
	"focus_ratio",
}

var featureLabels = map[string]string{
	"tasks_completed":      "Tasks Completed",
	"completion_rate":      "Task Completion Rate (%)",
	"productive_time":      "Productive Time (min)",
	"distraction_time":     "Distraction Time (min)",
	"focus_sessions":       "Focus Sessions",
	"avg_session_duration": "Avg Session Duration (min)",
	"consistency_score":    "Consistency Score (%)",
	"focus_ratio":          "Focus Ratio",
}

// TaskStats counts tasks over the analysis week.
type TaskStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// FocusStats summarizes focus sessions over the analysis week.
type FocusStats struct {
	TotalSessions int     `json:"total_sessions"`
	AvgDuration   float64 `json:"avg_duration"`
}

// Features is the classification feature vector.
type Features struct {
	TasksCompleted     float64 `json:"tasks_completed"`
	CompletionRate     float64 `json:"completion_rate"`
	ProductiveTime     float64 `json:"productive_time"`
	DistractionTime    float64 `json:"distraction_time"`
	FocusSessions      float64 `json:"focus_sessions"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	ConsistencyScore   float64 `json:"consistency_score"`
	FocusRatio         float64 `json:"focus_ratio"`
}

// Vector returns the features in featureNames order.
func (f Features) Vector() []float64 {
	return []float64{
		f.TasksCompleted,
		f.CompletionRate,
		f.ProductiveTime,
		f.DistractionTime,
		f.FocusSessions,
		f.AvgSessionDuration,
		f.ConsistencyScore,
		f.FocusRatio,
	}
}

// PrepareFeatures builds the feature vector from weekly daily summaries,
// task statistics, and focus-session statistics. ConsistencyScore is the
// share of the week with more than two hours of productive work.
func PrepareFeatures(week []models.DailySummary, tasks TaskStats, focus FocusStats) Features {
	var productive, distracted float64
	productiveDays := 0
	for _, d := range week {
		productive += d.ProductiveMinutes
		distracted += d.DistractingMinutes
		if d.ProductiveMinutes > 120 {
			productiveDays++
		}
	}

	return Features{
		TasksCompleted:     float64(tasks.Completed),
		CompletionRate:     float64(tasks.Completed) / math.Max(float64(tasks.Total), 1) * 100,
		ProductiveTime:     productive,
		DistractionTime:    distracted,
		FocusSessions:      float64(focus.TotalSessions),
		AvgSessionDuration: focus.AvgDuration,
		ConsistencyScore:   float64(productiveDays) / 7 * 100,
		FocusRatio:         productive / math.Max(productive+distracted, 1),
	}
}

// Score is the rule-based productivity score on a 0-100 scale: completion
// rate 30%, focus ratio 30%, consistency 20%, session quality 20%.
func Score(f Features) float64 {
	score := f.CompletionRate*0.30 +
		f.FocusRatio*100*0.30 +
		f.ConsistencyScore*0.20 +
		sessionQuality(f.AvgSessionDuration)*0.20

	return math.Min(100, math.Max(0, math.Round(score*10)/10))
}

// sessionQuality peaks for sessions in the 45-60 minute band and decays
// slowly past an hour.
func sessionQuality(avgDuration float64) float64 {
	switch {
	case avgDuration < 15:
		return avgDuration / 15 * 50
	case avgDuration <= 60:
		return 50 + (avgDuration-15)/45*50
	default:
		return math.Max(60, 100-(avgDuration-60)*0.5)
	}
}

// scoreClass maps the rule-based score onto a class label.
func scoreClass(score float64) string {
	switch {
	case score < 40:
		return classLabels[0]
	case score < 70:
		return classLabels[1]
	default:
		return classLabels[2]
	}
}
