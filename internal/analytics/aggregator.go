// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package analytics turns raw activity events into the daily and hourly
// aggregates that feed the dashboard and the forecasters. All functions are
// pure: they never touch the store and never mutate their inputs.
package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/focalhq/focalis/internal/models"
)

// dateLayout is the canonical day key format used across Focalis.
const dateLayout = "2006-01-02"

// Daily aggregates events into per-calendar-day summaries, sorted by date
// ascending. TotalMinutes is always the sum of the three category sums.
// Events with a zero timestamp are counted under the current day.
func Daily(events []models.ActivityEvent) []models.DailySummary {
	byDay := make(map[string]*models.DailySummary)

	for _, e := range events {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		day := ts.UTC().Format(dateLayout)

		s, ok := byDay[day]
		if !ok {
			s = &models.DailySummary{Date: day}
			byDay[day] = s
		}
		switch e.Category {
		case models.CategoryProductive:
			s.ProductiveMinutes += e.DurationMinutes
		case models.CategoryDistracting:
			s.DistractingMinutes += e.DurationMinutes
		default:
			s.NeutralMinutes += e.DurationMinutes
		}
	}

	summaries := make([]models.DailySummary, 0, len(byDay))
	for _, s := range byDay {
		s.TotalMinutes = s.ProductiveMinutes + s.DistractingMinutes + s.NeutralMinutes
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date < summaries[j].Date
	})
	return summaries
}

// Hourly aggregates events into hour-of-day buckets over the whole input
// window. Distracted counts everything that is not productive, matching the
// dashboard's chart semantics. Only hours with activity appear, sorted by
// hour ascending.
func Hourly(events []models.ActivityEvent) []models.HourlyBucket {
	byHour := make(map[int]*models.HourlyBucket)

	for _, e := range events {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		hour := ts.UTC().Hour()

		b, ok := byHour[hour]
		if !ok {
			b = &models.HourlyBucket{Hour: hour, Time: fmt.Sprintf("%02d:00", hour)}
			byHour[hour] = b
		}
		if e.Category == models.CategoryProductive {
			b.Productive += e.DurationMinutes
		} else {
			b.Distracted += e.DurationMinutes
		}
	}

	buckets := make([]models.HourlyBucket, 0, len(byHour))
	for _, b := range byHour {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Hour < buckets[j].Hour
	})
	return buckets
}

// FillDaily returns a dense day-by-day series covering [from, to] inclusive.
// Days missing from summaries are zero-filled. The forecasters depend on a
// gap-free series.
func FillDaily(summaries []models.DailySummary, from, to time.Time) []models.DailySummary {
	byDay := make(map[string]models.DailySummary, len(summaries))
	for _, s := range summaries {
		byDay[s.Date] = s
	}

	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)

	var filled []models.DailySummary
	for d := from; !d.After(to); d = d.Add(24 * time.Hour) {
		day := d.Format(dateLayout)
		if s, ok := byDay[day]; ok {
			filled = append(filled, s)
		} else {
			filled = append(filled, models.DailySummary{Date: day})
		}
	}
	return filled
}

// ProductiveSeries extracts the productive-minutes series from daily
// summaries, in input order. This is the forecasters' target variable.
func ProductiveSeries(summaries []models.DailySummary) []float64 {
	series := make([]float64, len(summaries))
	for i, s := range summaries {
		series[i] = s.ProductiveMinutes
	}
	return series
}

// TopApps ranks applications by total minutes, descending. A non-empty
// category restricts the ranking to that category. At most limit entries are
// returned.
func TopApps(events []models.ActivityEvent, category models.Category, limit int) []models.AppUsage {
	type agg struct {
		category models.Category
		minutes  float64
		sessions int
	}
	byApp := make(map[string]*agg)

	for _, e := range events {
		if category != "" && e.Category != category {
			continue
		}
		a, ok := byApp[e.AppName]
		if !ok {
			a = &agg{category: e.Category}
			byApp[e.AppName] = a
		}
		a.minutes += e.DurationMinutes
		a.sessions++
	}

	apps := make([]models.AppUsage, 0, len(byApp))
	for name, a := range byApp {
		apps = append(apps, models.AppUsage{
			AppName:  name,
			Category: a.category,
			Minutes:  a.minutes,
			Sessions: a.sessions,
		})
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Minutes != apps[j].Minutes {
			return apps[i].Minutes > apps[j].Minutes
		}
		return apps[i].AppName < apps[j].AppName
	})
	if limit > 0 && len(apps) > limit {
		apps = apps[:limit]
	}
	return apps
}

// defaultFocusWindow is reported when there is not enough hourly data to
// detect a real peak.
const defaultFocusWindow = "09:00 AM - 11:30 AM"

// BestFocusWindow detects the user's peak focus window from hourly buckets:
// the span of the top three productive hours, extended two hours past the
// latest of them.
func BestFocusWindow(hourly []models.HourlyBucket) string {
	if len(hourly) < 2 {
		return defaultFocusWindow
	}

	sorted := make([]models.HourlyBucket, len(hourly))
	copy(sorted, hourly)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Productive > sorted[j].Productive
	})

	n := 3
	if len(sorted) < n {
		n = len(sorted)
	}
	var hours []int
	for _, b := range sorted[:n] {
		if h, err := strconv.Atoi(strings.SplitN(b.Time, ":", 2)[0]); err == nil {
			hours = append(hours, h)
		}
	}
	if len(hours) == 0 {
		return defaultFocusWindow
	}

	start, end := hours[0], hours[0]
	for _, h := range hours[1:] {
		if h < start {
			start = h
		}
		if h > end {
			end = h
		}
	}
	end += 2

	return fmt.Sprintf("%s - %s", formatFocusHour(start), formatFocusHour(end))
}

func formatFocusHour(hour int) string {
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:00 %s", hour, meridiem)
}

// DistractionTrigger names the likely distraction trigger from the peak
// distraction hour.
func DistractionTrigger(hourly []models.HourlyBucket) string {
	if len(hourly) == 0 {
		return "Social Media"
	}

	peak := hourly[0]
	for _, b := range hourly[1:] {
		if b.Distracted > peak.Distracted {
			peak = b
		}
	}

	switch hour := peak.Hour; {
	case hour >= 8 && hour <= 10:
		return "Morning Emails / News"
	case hour >= 12 && hour <= 14:
		return "Post-Lunch Social Media"
	case hour >= 15 && hour <= 17:
		return "Afternoon Fatigue"
	case hour >= 18:
		return "Evening Entertainment"
	default:
		return "Social Media"
	}
}

// DistractionSpikes counts hourly periods with significant distraction
// (more than 10 minutes).
func DistractionSpikes(hourly []models.HourlyBucket) int {
	spikes := 0
	for _, b := range hourly {
		if b.Distracted > 10 {
			spikes++
		}
	}
	return spikes
}

// FocusScore is the share of productive time in total time, rounded to a
// whole percentage. Zero total yields zero.
func FocusScore(productiveMinutes, totalMinutes float64) int {
	if totalMinutes <= 0 {
		return 0
	}
	return int(productiveMinutes/totalMinutes*100 + 0.5)
}
