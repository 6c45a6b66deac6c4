// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package behavior

import (
	"math"
	"sort"
	"time"

	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// DefaultFatigueWindowHours is the analysis window when none is configured.
const DefaultFatigueWindowHours = 4

// breakGapMinutes is the idle gap between activities that counts as a break.
const breakGapMinutes = 10

// fatigueSignalWeights fuses the five signals into the composite index.
var fatigueSignalWeights = map[string]float64{
	"session_decay":      0.20,
	"switch_rate":        0.25,
	"productivity_shift": 0.25,
	"time_since_break":   0.15,
	"distraction_slope":  0.15,
}

var fatigueSignalLabels = map[string]string{
	"session_decay":      "Session Duration Decay",
	"switch_rate":        "App-Switch Acceleration",
	"productivity_shift": "Productivity Ratio Shift",
	"time_since_break":   "Time Since Last Break",
	"distraction_slope":  "Distraction Frequency Slope",
}

// FatigueReport is the digital fatigue index with its component signals.
type FatigueReport struct {
	DFIScore           float64            `json:"dfi_score"`
	Status             string             `json:"status"`
	Color              string             `json:"color"`
	Recommendation     string             `json:"recommendation"`
	Trend              string             `json:"trend"`
	Signals            map[string]float64 `json:"signals"`
	SignalLabels       map[string]string  `json:"signal_labels"`
	WindowHours        int                `json:"window_hours"`
	ActivitiesAnalyzed int                `json:"activities_analyzed"`
	SessionsAnalyzed   int                `json:"sessions_analyzed"`
}

// AnalyzeFatigue computes the digital fatigue index over the last
// windowHours before now. Each signal scores 0-100 and defaults to a neutral
// value when its slice is too thin to read.
func AnalyzeFatigue(activities []models.ActivityEvent, sessions []models.FocusSession, windowHours int, now time.Time) *FatigueReport {
	if windowHours <= 0 {
		windowHours = DefaultFatigueWindowHours
	}
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)

	recent := filterActivitiesSince(activities, cutoff, now)
	recentSessions := filterSessionsSince(sessions, cutoff, now)

	metrics.RecordAnalyzerRun("fatigue", len(recent) == 0 && len(recentSessions) == 0)

	signals := map[string]float64{
		"session_decay":      sessionDurationDecay(recentSessions),
		"switch_rate":        appSwitchRate(recent),
		"productivity_shift": productivityRatioShift(recent),
		"time_since_break":   timeSinceBreak(recent, recentSessions, now),
		"distraction_slope":  distractionFrequencySlope(recent),
	}

	dfi := 0.0
	for name, weight := range fatigueSignalWeights {
		dfi += signals[name] * weight
	}
	dfi = math.Min(100, math.Max(0, math.Round(dfi*10)/10))

	for name := range signals {
		signals[name] = math.Round(signals[name]*10) / 10
	}

	status, recommendation, color := fatigueRecommendation(dfi)

	return &FatigueReport{
		DFIScore:           dfi,
		Status:             status,
		Color:              color,
		Recommendation:     recommendation,
		Trend:              fatigueTrend(recent, cutoff, windowHours),
		Signals:            signals,
		SignalLabels:       fatigueSignalLabels,
		WindowHours:        windowHours,
		ActivitiesAnalyzed: len(recent),
		SessionsAnalyzed:   len(recentSessions),
	}
}

// sessionDurationDecay scores how much shorter the second half of focus
// sessions ran compared to the first half.
func sessionDurationDecay(sessions []models.FocusSession) float64 {
	if len(sessions) < 2 {
		return 20
	}

	durations := make([]float64, len(sessions))
	for i, s := range sessions {
		durations[i] = s.ActualDuration
	}

	mid := len(durations) / 2
	firstAvg := durations[0]
	if mid > 0 {
		firstAvg = meanOf(durations[:mid])
	}
	secondAvg := meanOf(durations[mid:])

	if firstAvg == 0 {
		return 30
	}

	decay := (firstAvg - secondAvg) / firstAvg
	return math.Min(100, math.Max(0, 50+decay*100))
}

// appSwitchRate scores the share of consecutive activities that changed app.
func appSwitchRate(activities []models.ActivityEvent) float64 {
	if len(activities) < 3 {
		return 15
	}

	transitions := 0
	for i := 1; i < len(activities); i++ {
		if activities[i].AppName != activities[i-1].AppName {
			transitions++
		}
	}

	rate := float64(transitions) / math.Max(float64(len(activities)-1), 1) * 100
	return math.Min(100, rate)
}

// productivityRatioShift scores the drop in productive share between the
// first and second half of the window.
func productivityRatioShift(activities []models.ActivityEvent) float64 {
	if len(activities) < 4 {
		return 25
	}

	mid := len(activities) / 2
	decline := productiveShare(activities[:mid]) - productiveShare(activities[mid:])
	return math.Min(100, math.Max(0, 50+decline*100))
}

func productiveShare(activities []models.ActivityEvent) float64 {
	var productive, total float64
	for _, a := range activities {
		if a.Category == models.CategoryProductive {
			productive += a.DurationMinutes
		}
		total += a.DurationMinutes
	}
	return productive / math.Max(total, 1)
}

// timeSinceBreak scores continuous work: minutes since the last gap of at
// least breakGapMinutes, with 90 minutes and up scoring 100.
func timeSinceBreak(activities []models.ActivityEvent, sessions []models.FocusSession, now time.Time) float64 {
	if len(activities) == 0 && len(sessions) == 0 {
		return 10
	}
	if len(activities) == 0 {
		return 10
	}

	lastBreak := activities[0].Timestamp
	for i := 1; i < len(activities); i++ {
		prevEnd := activities[i-1].Timestamp.Add(time.Duration(activities[i-1].DurationMinutes * float64(time.Minute)))
		if activities[i].Timestamp.Sub(prevEnd).Minutes() >= breakGapMinutes {
			lastBreak = activities[i].Timestamp
		}
	}

	minutesSince := now.Sub(lastBreak).Minutes()
	return math.Max(0, math.Min(100, minutesSince/90*100))
}

// distractionFrequencySlope scores whether distraction counts trend up
// across four bins of the window.
func distractionFrequencySlope(activities []models.ActivityEvent) float64 {
	if len(activities) < 4 {
		return 20
	}

	binSize := len(activities) / 4
	if binSize < 1 {
		binSize = 1
	}
	var bins []float64
	for i := 0; i < len(activities); i += binSize {
		end := i + binSize
		if end > len(activities) {
			end = len(activities)
		}
		count := 0.0
		for _, a := range activities[i:end] {
			if a.Category == models.CategoryDistracting {
				count++
			}
		}
		bins = append(bins, count)
	}
	if len(bins) < 2 {
		return 20
	}

	slope := regressionSlope(bins)
	return math.Min(100, math.Max(0, 30+slope*25))
}

// regressionSlope fits y = a + b*x over x = 0..n-1 and returns b.
func regressionSlope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXX, sumXY float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXX += x * x
		sumXY += x * v
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// fatigueTrend compares productive activity counts between the window
// halves: fewer in the second half means fatigue is rising.
func fatigueTrend(activities []models.ActivityEvent, cutoff time.Time, windowHours int) string {
	mid := cutoff.Add(time.Duration(windowHours) * time.Hour / 2)

	var firstProd, secondProd int
	for _, a := range activities {
		if a.Category != models.CategoryProductive {
			continue
		}
		if a.Timestamp.Before(mid) {
			firstProd++
		} else {
			secondProd++
		}
	}

	switch {
	case secondProd < firstProd:
		return "rising"
	case secondProd > firstProd:
		return "falling"
	default:
		return "stable"
	}
}

func fatigueRecommendation(dfi float64) (status, recommendation, color string) {
	switch {
	case dfi < 25:
		return "Fresh", "You are in a great state to focus. Keep going!", "green"
	case dfi < 50:
		return "Moderate", "Consider a 5-minute micro-break to maintain performance.", "yellow"
	case dfi < 75:
		return "Fatigued", "Take a 15-minute break. Walk, stretch, or hydrate.", "orange"
	default:
		return "Burnout Risk", "Immediate rest recommended. Extended work is counterproductive at this fatigue level.", "red"
	}
}

// filterActivitiesSince returns activities at or after cutoff, sorted by
// timestamp. Zero timestamps are coerced to now.
func filterActivitiesSince(activities []models.ActivityEvent, cutoff, now time.Time) []models.ActivityEvent {
	var out []models.ActivityEvent
	for _, a := range activities {
		if a.Timestamp.IsZero() {
			a.Timestamp = now
		}
		if !a.Timestamp.Before(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// filterSessionsSince returns sessions starting at or after cutoff, sorted
// by start time.
func filterSessionsSince(sessions []models.FocusSession, cutoff, now time.Time) []models.FocusSession {
	var out []models.FocusSession
	for _, s := range sessions {
		if s.StartTime.IsZero() {
			s.StartTime = now
		}
		if !s.StartTime.Before(cutoff) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
