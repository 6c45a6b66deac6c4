// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package behavior

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/focalhq/focalis/internal/models"
)

var moodStart = time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

// moodDrivenData builds n aligned days where productivity follows the
// previous day's mood with a small deterministic wiggle.
func moodDrivenData(n int) ([]models.MoodEntry, []models.DailySummary) {
	moodVals := []int{3, 5, 2, 4, 1, 5, 2, 3, 4, 2, 5, 1, 3, 4, 2, 5, 3, 1, 4, 2}

	moods := make([]models.MoodEntry, n)
	summaries := make([]models.DailySummary, n)
	for i := 0; i < n; i++ {
		date := moodStart.AddDate(0, 0, i)
		mood := moodVals[i%len(moodVals)]
		moods[i] = models.MoodEntry{Date: date, Mood: mood, Energy: 3, Stress: 3}

		prod := 30.0
		if i > 0 {
			prod = float64(moodVals[(i-1)%len(moodVals)]*10 + i%3)
		}
		summaries[i] = models.DailySummary{
			Date:               date.Format("2006-01-02"),
			ProductiveMinutes:  prod,
			DistractingMinutes: 100 - prod,
			TotalMinutes:       100,
		}
	}
	return moods, summaries
}

func TestAnalyzeMoodCausalityInsufficientData(t *testing.T) {
	t.Parallel()

	moods, summaries := moodDrivenData(5)
	report := AnalyzeMoodCausality(moods, summaries, 0, false)

	if report.HasSufficientData {
		t.Fatal("HasSufficientData = true with 5 aligned days")
	}
	if report.Observations != 5 || report.MinRequired != 7 {
		t.Errorf("Observations/MinRequired = %d/%d, want 5/7", report.Observations, report.MinRequired)
	}
	if !strings.Contains(report.Message, "Currently have 5") {
		t.Errorf("Message = %q", report.Message)
	}
	if report.Correlation.Strength != "insufficient data" {
		t.Errorf("Correlation.Strength = %q", report.Correlation.Strength)
	}
	if report.DominantDirection.Label != "Insufficient Data" {
		t.Errorf("DominantDirection = %+v", report.DominantDirection)
	}
	if len(report.AlignedData) != 0 || report.AlignedData == nil {
		t.Errorf("AlignedData = %v, want empty non-nil", report.AlignedData)
	}
}

func TestAlignMoodProductivity(t *testing.T) {
	t.Parallel()

	moods := []models.MoodEntry{
		{Date: moodStart, Mood: 4, Energy: 3, Stress: 2},
		{Date: moodStart.AddDate(0, 0, 2), Mood: 2, Energy: 2, Stress: 4}, // no summary
	}
	summaries := []models.DailySummary{
		{Date: moodStart.Format("2006-01-02"), ProductiveMinutes: 90, DistractingMinutes: 30},
		{Date: moodStart.AddDate(0, 0, 1).Format("2006-01-02"), ProductiveMinutes: 60}, // no mood
	}

	aligned := alignMoodProductivity(moods, summaries)
	if len(aligned) != 1 {
		t.Fatalf("aligned = %d days, want 1", len(aligned))
	}
	if aligned[0].Productivity != 75 {
		t.Errorf("Productivity = %v, want 75 (90 of 120 minutes)", aligned[0].Productivity)
	}
	if aligned[0].Mood != 4 || aligned[0].ProductiveMinutes != 90 {
		t.Errorf("aligned[0] = %+v", aligned[0])
	}
}

func TestPearson(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{10, 20, 30, 40}, 1},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1},
		{"constant series", []float64{5, 5, 5}, []float64{1, 2, 3}, 0},
		{"uncorrelated", []float64{1, 2, 1, 2}, []float64{1, 1, 2, 2}, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pearson(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pearson = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCrossCorrelationDetectsMoodLead(t *testing.T) {
	t.Parallel()

	mood := []float64{1, 3, 2, 5, 4, 2, 5, 1, 4, 3}
	prod := make([]float64, len(mood))
	prod[0] = 2
	for i := 1; i < len(mood); i++ {
		prod[i] = mood[i-1]
	}

	cc := crossCorrelation(mood, prod, 5)
	if cc.PeakLag != 1 {
		t.Fatalf("PeakLag = %d, want 1", cc.PeakLag)
	}
	if cc.PeakCorrelation != 1 {
		t.Errorf("PeakCorrelation = %v, want 1", cc.PeakCorrelation)
	}
	if cc.PeakDirection != "mood_leads" {
		t.Errorf("PeakDirection = %q, want mood_leads", cc.PeakDirection)
	}
	if len(cc.Lags) != 11 {
		t.Errorf("lag sweep = %d entries, want 11", len(cc.Lags))
	}
}

func TestHeuristicCausalTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		corr        float64
		wantP       float64
		significant bool
	}{
		{0.5, 0.01, true},
		{0.2, 0.6, false},
		{-0.4, 0.2, true},
		{0, 1, false},
	}
	for _, tt := range tests {
		got := heuristicCausalTest(tt.corr)
		if math.Abs(got.PValue-tt.wantP) > 1e-9 || got.Significant != tt.significant {
			t.Errorf("heuristicCausalTest(%v) = p %v sig %v, want p %v sig %v",
				tt.corr, got.PValue, got.Significant, tt.wantP, tt.significant)
		}
		if got.BestLag != 1 {
			t.Errorf("BestLag = %d, want 1", got.BestLag)
		}
	}
}

func TestAnalyzeMoodCausalityHeuristicPath(t *testing.T) {
	t.Parallel()

	moods, summaries := moodDrivenData(20)
	report := AnalyzeMoodCausality(moods, summaries, 3, false)

	if !report.HasSufficientData {
		t.Fatal("HasSufficientData = false with 20 aligned days")
	}
	if report.Observations != 20 {
		t.Errorf("Observations = %d, want 20", report.Observations)
	}
	if len(report.AlignedData) != 14 {
		t.Errorf("AlignedData = %d days, want last 14", len(report.AlignedData))
	}
	if report.DateRange["end"] != moodStart.AddDate(0, 0, 19).Format("2006-01-02") {
		t.Errorf("DateRange = %v", report.DateRange)
	}

	// Heuristic VAR: not fitted, three forecast days continuing the dates.
	if report.VARModel == nil || report.VARModel.Fitted {
		t.Fatalf("VARModel = %+v, want unfitted heuristic", report.VARModel)
	}
	if len(report.VARModel.Forecast) != 3 {
		t.Fatalf("forecast = %d points, want 3", len(report.VARModel.Forecast))
	}
	first := report.VARModel.Forecast[0]
	if first.Date != moodStart.AddDate(0, 0, 20).Format("2006-01-02") {
		t.Errorf("forecast starts %s, want day after last observation", first.Date)
	}
	for _, f := range report.VARModel.Forecast {
		if f.PredictedMood < 1 || f.PredictedMood > 5 {
			t.Errorf("PredictedMood = %v, outside 1-5", f.PredictedMood)
		}
		if f.PredictedProductivity < 0 || f.PredictedProductivity > 100 {
			t.Errorf("PredictedProductivity = %v, outside 0-100", f.PredictedProductivity)
		}
	}

	// Heuristic impulse response uses the fixed estimate.
	if report.ImpulseResponse.Periods != 4 || report.ImpulseResponse.Note == "" {
		t.Errorf("ImpulseResponse = %+v, want estimated fallback", report.ImpulseResponse)
	}

	if report.GrangerCausality == nil {
		t.Fatal("GrangerCausality missing")
	}
	// Productivity mirrors yesterday's mood, so mood leads at lag 1.
	if !report.GrangerCausality.MoodCausesProductivity.Significant {
		t.Error("mood -> productivity not significant on mood-driven data")
	}
	if len(report.Insights) == 0 {
		t.Error("expected insights")
	}
}

func TestAnalyzeMoodCausalityAnalyticPath(t *testing.T) {
	t.Parallel()

	moods, summaries := moodDrivenData(20)
	report := AnalyzeMoodCausality(moods, summaries, 3, true)

	if !report.HasSufficientData {
		t.Fatal("HasSufficientData = false")
	}

	m2p := report.GrangerCausality.MoodCausesProductivity
	if !m2p.Significant {
		t.Errorf("analytic mood -> productivity p = %v, want significant", m2p.PValue)
	}
	if m2p.PValue < 0 || m2p.PValue > 1 {
		t.Errorf("p-value = %v, out of range", m2p.PValue)
	}

	if report.VARModel == nil || !report.VARModel.Fitted {
		t.Fatalf("VARModel = %+v, want fitted", report.VARModel)
	}
	if report.VARModel.AIC == nil || report.VARModel.BIC == nil {
		t.Error("fitted VAR must report AIC and BIC")
	}
	if report.VARModel.OptimalLag < 1 || report.VARModel.OptimalLag > 3 {
		t.Errorf("OptimalLag = %d, want 1..3", report.VARModel.OptimalLag)
	}
	if len(report.VARModel.Forecast) != 3 {
		t.Fatalf("forecast = %d points, want 3", len(report.VARModel.Forecast))
	}
	for _, f := range report.VARModel.Forecast {
		if f.PredictedMood < 1 || f.PredictedMood > 5 {
			t.Errorf("PredictedMood = %v, outside 1-5", f.PredictedMood)
		}
		if f.PredictedProductivity < 0 || f.PredictedProductivity > 100 {
			t.Errorf("PredictedProductivity = %v, outside 0-100", f.PredictedProductivity)
		}
	}

	irf := report.ImpulseResponse
	if irf.Periods != 5 {
		t.Errorf("IRF periods = %d, want 5", irf.Periods)
	}
	if len(irf.MoodShockOnProductivity) != 5 || irf.MoodShockOnProductivity[0] != 0 {
		t.Errorf("mood shock IRF = %v, want zero impact at period 0", irf.MoodShockOnProductivity)
	}
}

func TestDominantDirectionTemplates(t *testing.T) {
	t.Parallel()

	cc := &CrossCorrelation{PeakDirection: "mood_leads"}

	tests := []struct {
		name      string
		m2p, p2m  bool
		direction string
		label     string
	}{
		{"mood drives", true, false, "mood_drives_productivity", "Mood → Productivity"},
		{"productivity drives", false, true, "productivity_drives_mood", "Productivity → Mood"},
		{"bidirectional", true, true, "bidirectional", "Mood ↔ Productivity"},
		{"independent", false, false, "independent", "Independent"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			granger := &GrangerResult{
				MoodCausesProductivity: CausalTest{Significant: tt.m2p},
				ProductivityCausesMood: CausalTest{Significant: tt.p2m},
			}
			got := dominantDirection(granger, cc)
			if got.Direction != tt.direction || got.Label != tt.label {
				t.Errorf("dominantDirection = %s/%s, want %s/%s", got.Direction, got.Label, tt.direction, tt.label)
			}
			if got.Explanation == "" {
				t.Error("explanation missing")
			}
		})
	}
}

func TestFCDFUpper(t *testing.T) {
	t.Parallel()

	// F(d, d) has its median at exactly 1.
	if got := fCDFUpper(1, 5, 5); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("fCDFUpper(1, 5, 5) = %v, want 0.5", got)
	}
	if got := fCDFUpper(0, 3, 10); got != 1 {
		t.Errorf("fCDFUpper(0) = %v, want 1", got)
	}
	if got := fCDFUpper(100, 3, 10); got > 0.001 {
		t.Errorf("fCDFUpper(100, 3, 10) = %v, want near 0", got)
	}

	// Monotone decreasing in the test statistic.
	prev := 1.0
	for _, f := range []float64{0.5, 1, 2, 4, 8} {
		p := fCDFUpper(f, 3, 12)
		if p > prev {
			t.Fatalf("fCDFUpper not monotone at f=%v: %v > %v", f, p, prev)
		}
		prev = p
	}
}

func TestSolveLinearBehavior(t *testing.T) {
	t.Parallel()

	// 2x + y = 5, x + 3y = 10 -> x = 1, y = 3.
	x, ok := solveLinear([][]float64{{2, 1}, {1, 3}}, []float64{5, 10})
	if !ok {
		t.Fatal("solver failed on well-conditioned system")
	}
	if math.Abs(x[0]-1) > 1e-9 || math.Abs(x[1]-3) > 1e-9 {
		t.Errorf("solution = %v, want [1 3]", x)
	}

	if _, ok := solveLinear([][]float64{{1, 2}, {2, 4}}, []float64{1, 2}); ok {
		t.Error("singular system should fail")
	}
}
