// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package behavior

import (
	"strings"
	"testing"
	"time"

	"github.com/focalhq/focalis/internal/models"
)

// dayActivity builds an event on a specific day and clock time relative to
// fatigueNow's date.
func dayActivity(daysAgo int, clock string, app string, category models.Category, duration float64) models.ActivityEvent {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		panic(err)
	}
	day := fatigueNow.AddDate(0, 0, -daysAgo)
	ts := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	return models.ActivityEvent{
		AppName:         app,
		Category:        category,
		DurationMinutes: duration,
		Timestamp:       ts,
	}
}

func TestAnalyzeProcrastinationNoData(t *testing.T) {
	t.Parallel()

	report := AnalyzeProcrastination(nil, 0, fatigueNow)

	if report.RiskLevel != "No Data" {
		t.Fatalf("RiskLevel = %q, want No Data", report.RiskLevel)
	}
	if report.DaysAnalyzed != DefaultProcrastinationDays {
		t.Errorf("DaysAnalyzed = %d, want %d", report.DaysAnalyzed, DefaultProcrastinationDays)
	}
	if len(report.Recommendations) != 1 ||
		report.Recommendations[0] != "Start tracking your activity to detect procrastination patterns." {
		t.Errorf("Recommendations = %v", report.Recommendations)
	}
	if report.FrequentPatterns == nil || report.EpisodesDetail == nil {
		t.Error("empty report slices must be non-nil for JSON encoding")
	}
}

func TestIdentifyEpisodesThreshold(t *testing.T) {
	t.Parallel()

	below := []models.ActivityEvent{
		dayActivity(0, "09:00", "Twitter", models.CategoryDistracting, 7.4),
		dayActivity(0, "09:10", "YouTube", models.CategoryDistracting, 7.5),
	}
	if got := identifyEpisodes(below); len(got) != 0 {
		t.Errorf("14.9 minute run produced %d episodes, want 0", len(got))
	}

	at := []models.ActivityEvent{
		dayActivity(0, "09:00", "Twitter", models.CategoryDistracting, 7.5),
		dayActivity(0, "09:10", "YouTube", models.CategoryDistracting, 7.5),
	}
	got := identifyEpisodes(at)
	if len(got) != 1 {
		t.Fatalf("15.0 minute run produced %d episodes, want 1", len(got))
	}
	if got[0].triggerApp != "twitter" {
		t.Errorf("triggerApp = %q, want twitter", got[0].triggerApp)
	}
	if got[0].duration != 15 {
		t.Errorf("duration = %v, want 15", got[0].duration)
	}
}

func TestIdentifyEpisodesProductiveBreaksRun(t *testing.T) {
	t.Parallel()

	activities := []models.ActivityEvent{
		dayActivity(0, "09:00", "Twitter", models.CategoryDistracting, 10),
		dayActivity(0, "09:15", "Code", models.CategoryProductive, 10),
		dayActivity(0, "09:30", "YouTube", models.CategoryDistracting, 10),
	}
	if got := identifyEpisodes(activities); len(got) != 0 {
		t.Errorf("interrupted runs produced %d episodes, want 0", len(got))
	}
}

func TestBuildDailySequencesDedupsRepeats(t *testing.T) {
	t.Parallel()

	activities := []models.ActivityEvent{
		dayActivity(0, "09:00", "Code", models.CategoryProductive, 10),
		dayActivity(0, "09:15", "CODE", models.CategoryProductive, 10),
		dayActivity(0, "09:30", "Twitter", models.CategoryDistracting, 10),
		dayActivity(0, "09:45", "Code", models.CategoryProductive, 10),
	}

	daily := buildDailySequences(activities)
	seq := daily[fatigueNow.Format("2006-01-02")]
	want := []string{"code", "twitter", "code"}
	if len(seq) != len(want) {
		t.Fatalf("sequence = %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", seq, want)
		}
	}
}

func TestIsSubsequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sub  []string
		seq  []string
		want bool
	}{
		{[]string{"a", "b"}, []string{"a", "x", "b"}, true},
		{[]string{"a", "b"}, []string{"b", "a"}, false},
		{[]string{"a"}, []string{"a"}, true},
		{[]string{"a", "b", "c"}, []string{"a", "b"}, false},
		{nil, []string{"a"}, true},
	}
	for _, tt := range tests {
		if got := isSubsequence(tt.sub, tt.seq); got != tt.want {
			t.Errorf("isSubsequence(%v, %v) = %v, want %v", tt.sub, tt.seq, got, tt.want)
		}
	}
}

func TestScoreSession(t *testing.T) {
	t.Parallel()

	patterns := []Pattern{
		{Sequence: []string{"a", "b"}, Support: 0.3},
		{Sequence: []string{"b", "c"}, Support: 0.2},
	}

	risk, matched := scoreSession([]string{"a", "x", "b", "c"}, patterns)
	if risk != 50 {
		t.Errorf("risk = %v, want 50", risk)
	}
	if len(matched) != 2 {
		t.Errorf("matched = %d patterns, want 2", len(matched))
	}

	risk, matched = scoreSession([]string{"c", "b", "a"}, patterns)
	if risk != 0 || len(matched) != 0 {
		t.Errorf("risk/matched = %v/%d, want 0/0", risk, len(matched))
	}
}

func TestRiskLabelBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{0, "Low Risk"},
		{19.9, "Low Risk"},
		{20, "Moderate Risk"},
		{50, "High Risk"},
		{75, "Critical - Intervention Needed"},
		{100, "Critical - Intervention Needed"},
	}
	for _, tt := range tests {
		if got := riskLabel(tt.score); got != tt.want {
			t.Errorf("riskLabel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAnalyzeProcrastinationEndToEnd(t *testing.T) {
	t.Parallel()

	// Five past days plus today, each with the same code -> twitter ->
	// youtube slide. Every day ends in a qualifying episode.
	var activities []models.ActivityEvent
	for daysAgo := 5; daysAgo >= 1; daysAgo-- {
		activities = append(activities,
			dayActivity(daysAgo, "09:00", "Code", models.CategoryProductive, 30),
			dayActivity(daysAgo, "09:30", "Twitter", models.CategoryDistracting, 5),
			dayActivity(daysAgo, "09:35", "YouTube", models.CategoryDistracting, 15),
		)
	}
	activities = append(activities,
		dayActivity(0, "09:00", "Code", models.CategoryProductive, 30),
		dayActivity(0, "10:00", "Twitter", models.CategoryDistracting, 5),
		dayActivity(0, "10:05", "YouTube", models.CategoryDistracting, 12),
	)

	report := AnalyzeProcrastination(activities, 7, fatigueNow)

	if report.TotalEpisodes != 6 {
		t.Fatalf("TotalEpisodes = %d, want 6 (trailing episode included)", report.TotalEpisodes)
	}
	if report.TimeLostMinutes != 117 {
		t.Errorf("TimeLostMinutes = %v, want 117", report.TimeLostMinutes)
	}
	if report.AvgEpisodeDuration != 19.5 {
		t.Errorf("AvgEpisodeDuration = %v, want 19.5", report.AvgEpisodeDuration)
	}

	if len(report.FrequentPatterns) == 0 {
		t.Fatal("expected mined patterns")
	}
	top := report.FrequentPatterns[0]
	if top.Display != "Code → Twitter" {
		t.Errorf("top pattern display = %q, want Code → Twitter", top.Display)
	}
	if top.Frequency != 6 || top.Support != 1.0 {
		t.Errorf("top pattern = freq %d support %v, want 6/1.0", top.Frequency, top.Support)
	}

	// Today repeats the mined pattern, so risk maxes out.
	if report.RiskScore != 100 {
		t.Errorf("RiskScore = %v, want 100", report.RiskScore)
	}
	if report.RiskLevel != "Critical - Intervention Needed" {
		t.Errorf("RiskLevel = %q", report.RiskLevel)
	}

	if len(report.TriggerApps) == 0 || report.TriggerApps[0].App != "twitter" {
		t.Fatalf("TriggerApps = %+v, want twitter first", report.TriggerApps)
	}
	if report.TriggerApps[0].TriggerCount != 6 {
		t.Errorf("trigger count = %d, want 6", report.TriggerApps[0].TriggerCount)
	}

	if len(report.PeakProcrastinationHours) == 0 || report.PeakProcrastinationHours[0].Hour != "09:00" {
		t.Errorf("peak hours = %+v, want 09:00 first", report.PeakProcrastinationHours)
	}

	if len(report.DailyEpisodeCounts) != 6 {
		t.Errorf("DailyEpisodeCounts = %d days, want 6", len(report.DailyEpisodeCounts))
	}
	for i := 1; i < len(report.DailyEpisodeCounts); i++ {
		if report.DailyEpisodeCounts[i].Date < report.DailyEpisodeCounts[i-1].Date {
			t.Fatal("DailyEpisodeCounts not sorted by date")
		}
	}

	recs := strings.Join(report.Recommendations, " | ")
	if !strings.Contains(recs, `Block or limit "Twitter"`) {
		t.Errorf("missing trigger-app recommendation: %q", recs)
	}
	if !strings.Contains(recs, "BEFORE 09:00") {
		t.Errorf("missing peak-hour recommendation: %q", recs)
	}
	last := report.Recommendations[len(report.Recommendations)-1]
	if !strings.Contains(last, "2-minute rule") {
		t.Errorf("last recommendation = %q, want the 2-minute rule", last)
	}
}

func TestMinePatternsPrefixWindow(t *testing.T) {
	t.Parallel()

	// The prefix keeps at most three apps before the trigger plus the
	// trigger itself.
	seq := []string{"w", "x", "y", "z", "t"}
	eps := []*episode{{
		start:      fatigueNow,
		duration:   20,
		sequence:   []string{"t"},
		triggerApp: "t",
	}}
	daily := map[string][]string{fatigueNow.Format("2006-01-02"): seq}

	patterns := minePatterns(eps, daily)
	for _, p := range patterns {
		for _, app := range p.Sequence {
			if app == "w" {
				t.Fatalf("pattern %v includes app outside the 3-app prefix window", p.Sequence)
			}
		}
	}

	// With one episode every window of the prefix is kept (support 1.0).
	if len(patterns) == 0 {
		t.Fatal("expected patterns from the prefix")
	}
	for _, p := range patterns {
		if p.Support != 1.0 {
			t.Errorf("support = %v, want 1.0", p.Support)
		}
	}
}
