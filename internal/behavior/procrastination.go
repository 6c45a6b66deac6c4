// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package behavior

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// DefaultProcrastinationDays is the analysis window when none is configured.
const DefaultProcrastinationDays = 7

// episodeThresholdMinutes is the minimum contiguous distracting time that
// counts as a procrastination episode.
const episodeThresholdMinutes = 15.0

// Pattern is a mined app subsequence that precedes procrastination.
type Pattern struct {
	Sequence  []string `json:"sequence"`
	Frequency int      `json:"frequency"`
	Support   float64  `json:"support"`
	Display   string   `json:"display"`
}

// TriggerApp is an app that starts procrastination episodes.
type TriggerApp struct {
	App           string  `json:"app"`
	TriggerCount  int     `json:"trigger_count"`
	TotalTimeLost float64 `json:"total_time_lost"`
}

// PeakHour is an hour of day ranked by episode starts.
type PeakHour struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// DailyEpisodes is the episode count for one day.
type DailyEpisodes struct {
	Date     string `json:"date"`
	Episodes int    `json:"episodes"`
}

// EpisodeDetail summarizes one procrastination episode.
type EpisodeDetail struct {
	Date       string   `json:"date"`
	StartTime  string   `json:"start_time"`
	Duration   float64  `json:"duration"`
	Sequence   []string `json:"sequence"`
	TriggerApp string   `json:"trigger_app"`
}

// ProcrastinationReport is the full sequence-mining analysis.
type ProcrastinationReport struct {
	RiskScore                float64         `json:"risk_score"`
	RiskLevel                string          `json:"risk_level"`
	TotalEpisodes            int             `json:"total_episodes"`
	AvgEpisodeDuration       float64         `json:"avg_episode_duration"`
	TimeLostMinutes          float64         `json:"time_lost_minutes"`
	FrequentPatterns         []Pattern       `json:"frequent_patterns"`
	MatchedPatterns          []Pattern       `json:"matched_patterns"`
	TriggerApps              []TriggerApp    `json:"trigger_apps"`
	PeakProcrastinationHours []PeakHour      `json:"peak_procrastination_hours"`
	DailyEpisodeCounts       []DailyEpisodes `json:"daily_episode_counts"`
	EpisodesDetail           []EpisodeDetail `json:"episodes_detail"`
	Recommendations          []string        `json:"recommendations"`
	DaysAnalyzed             int             `json:"days_analyzed"`
	ActivitiesAnalyzed       int             `json:"activities_analyzed"`
}

// episode is one contiguous distracting run under construction.
type episode struct {
	start      time.Time
	duration   float64
	sequence   []string
	triggerApp string
}

func (e *episode) date() string      { return e.start.Format("2006-01-02") }
func (e *episode) startTime() string { return e.start.Format("15:04") }

// AnalyzeProcrastination mines procrastination patterns over the last days
// before now and scores today's session against them. Fewer than five recent
// activities yield the empty report.
func AnalyzeProcrastination(activities []models.ActivityEvent, days int, now time.Time) *ProcrastinationReport {
	if days <= 0 {
		days = DefaultProcrastinationDays
	}
	cutoff := now.AddDate(0, 0, -days)
	recent := filterActivitiesSince(activities, cutoff, now)

	metrics.RecordAnalyzerRun("procrastination", len(recent) < 5)

	if len(recent) < 5 {
		return &ProcrastinationReport{
			RiskLevel:                "No Data",
			FrequentPatterns:         []Pattern{},
			MatchedPatterns:          []Pattern{},
			TriggerApps:              []TriggerApp{},
			PeakProcrastinationHours: []PeakHour{},
			DailyEpisodeCounts:       []DailyEpisodes{},
			EpisodesDetail:           []EpisodeDetail{},
			Recommendations:          []string{"Start tracking your activity to detect procrastination patterns."},
			DaysAnalyzed:             days,
		}
	}

	dailySequences := buildDailySequences(recent)
	episodes := identifyEpisodes(recent)
	patterns := minePatterns(episodes, dailySequences)

	todaySeq := dailySequences[now.Format("2006-01-02")]
	riskScore, matched := scoreSession(todaySeq, patterns)

	var totalLost float64
	durations := make([]float64, len(episodes))
	for i, ep := range episodes {
		durations[i] = ep.duration
		totalLost += ep.duration
	}

	triggerApps := topTriggerApps(episodes)
	peakHours := peakProcrastinationHours(episodes)

	detail := make([]EpisodeDetail, 0, 10)
	for _, ep := range episodes {
		if len(detail) == 10 {
			break
		}
		seq := ep.sequence
		if len(seq) > 5 {
			seq = seq[:5]
		}
		detail = append(detail, EpisodeDetail{
			Date:       ep.date(),
			StartTime:  ep.startTime(),
			Duration:   math.Round(ep.duration*10) / 10,
			Sequence:   seq,
			TriggerApp: ep.triggerApp,
		})
	}

	frequent := patterns
	if len(frequent) > 5 {
		frequent = frequent[:5]
	}
	topTriggers := triggerApps
	if len(topTriggers) > 5 {
		topTriggers = topTriggers[:5]
	}

	avgDuration := 0.0
	if len(durations) > 0 {
		avgDuration = meanOf(durations)
	}

	return &ProcrastinationReport{
		RiskScore:                math.Round(riskScore*10) / 10,
		RiskLevel:                riskLabel(riskScore),
		TotalEpisodes:            len(episodes),
		AvgEpisodeDuration:       math.Round(avgDuration*10) / 10,
		TimeLostMinutes:          math.Round(totalLost),
		FrequentPatterns:         frequent,
		MatchedPatterns:          matched,
		TriggerApps:              topTriggers,
		PeakProcrastinationHours: peakHours,
		DailyEpisodeCounts:       dailyEpisodeCounts(episodes),
		EpisodesDetail:           detail,
		Recommendations:          procrastinationRecommendations(patterns, triggerApps, peakHours),
		DaysAnalyzed:             days,
		ActivitiesAnalyzed:       len(recent),
	}
}

// buildDailySequences groups activities into per-day app sequences with
// immediate repeats collapsed.
func buildDailySequences(activities []models.ActivityEvent) map[string][]string {
	daily := make(map[string][]string)
	for _, a := range activities {
		date := a.Timestamp.Format("2006-01-02")
		app := strings.ToLower(a.AppName)
		seq := daily[date]
		if len(seq) == 0 || seq[len(seq)-1] != app {
			daily[date] = append(seq, app)
		}
	}
	return daily
}

// identifyEpisodes extracts contiguous distracting runs whose total duration
// reaches the episode threshold.
func identifyEpisodes(activities []models.ActivityEvent) []*episode {
	var episodes []*episode
	var current *episode

	flush := func() {
		if current != nil && current.duration >= episodeThresholdMinutes {
			episodes = append(episodes, current)
		}
		current = nil
	}

	for _, a := range activities {
		if a.Category != models.CategoryDistracting {
			flush()
			continue
		}

		app := strings.ToLower(a.AppName)
		if current == nil {
			current = &episode{
				start:      a.Timestamp,
				duration:   a.DurationMinutes,
				sequence:   []string{app},
				triggerApp: app,
			}
			continue
		}
		current.duration += a.DurationMinutes
		if current.sequence[len(current.sequence)-1] != app {
			current.sequence = append(current.sequence, app)
		}
	}
	flush()

	return episodes
}

// minePatterns counts 2- and 3-gram subsequences of the app prefixes (up to
// three apps plus the trigger) leading into each episode, keeping patterns
// with support of at least 30% of episodes.
func minePatterns(episodes []*episode, dailySequences map[string][]string) []Pattern {
	if len(episodes) == 0 {
		return []Pattern{}
	}

	var prefixes [][]string
	for _, ep := range episodes {
		seq, ok := dailySequences[ep.date()]
		if !ok {
			continue
		}
		idx := -1
		for i, app := range seq {
			if app == ep.triggerApp {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		lo := idx - 3
		if lo < 0 {
			lo = 0
		}
		prefix := seq[lo : idx+1]
		if len(prefix) >= 2 {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) == 0 {
		return []Pattern{}
	}

	counts := make(map[string]int)
	grams := make(map[string][]string)
	for _, seq := range prefixes {
		maxN := 3
		if len(seq) < maxN {
			maxN = len(seq)
		}
		for n := 2; n <= maxN; n++ {
			for i := 0; i+n <= len(seq); i++ {
				gram := seq[i : i+n]
				key := strings.Join(gram, "\x00")
				counts[key]++
				grams[key] = gram
			}
		}
	}

	minSupport := int(float64(len(episodes)) * 0.3)
	if minSupport < 1 {
		minSupport = 1
	}

	patterns := make([]Pattern, 0, len(counts))
	for key, count := range counts {
		if count < minSupport {
			continue
		}
		gram := grams[key]
		display := make([]string, len(gram))
		for i, app := range gram {
			display[i] = titleCase(app)
		}
		patterns = append(patterns, Pattern{
			Sequence:  gram,
			Frequency: count,
			Support:   math.Round(float64(count)/float64(len(episodes))*100) / 100,
			Display:   strings.Join(display, " → "),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		if len(patterns[i].Sequence) != len(patterns[j].Sequence) {
			return len(patterns[i].Sequence) > len(patterns[j].Sequence)
		}
		return patterns[i].Display < patterns[j].Display
	})
	return patterns
}

// scoreSession checks today's sequence against mined patterns. The risk is
// the summed support of every matched pattern, capped at 100.
func scoreSession(todaySeq []string, patterns []Pattern) (float64, []Pattern) {
	matched := []Pattern{}
	if len(todaySeq) == 0 || len(patterns) == 0 {
		return 0, matched
	}

	totalSupport := 0.0
	for _, p := range patterns {
		if isSubsequence(p.Sequence, todaySeq) {
			matched = append(matched, p)
			totalSupport += p.Support
		}
	}
	if len(matched) == 0 {
		return 0, matched
	}
	return math.Min(100, totalSupport*100), matched
}

// isSubsequence reports whether sub appears in seq in order, not
// necessarily contiguously.
func isSubsequence(sub, seq []string) bool {
	i := 0
	for _, s := range seq {
		if i == len(sub) {
			return true
		}
		if s == sub[i] {
			i++
		}
	}
	return i == len(sub)
}

func topTriggerApps(episodes []*episode) []TriggerApp {
	counts := make(map[string]int)
	durations := make(map[string]float64)
	for _, ep := range episodes {
		counts[ep.triggerApp]++
		durations[ep.triggerApp] += ep.duration
	}

	out := make([]TriggerApp, 0, len(counts))
	for app, count := range counts {
		out = append(out, TriggerApp{
			App:           app,
			TriggerCount:  count,
			TotalTimeLost: math.Round(durations[app]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerCount != out[j].TriggerCount {
			return out[i].TriggerCount > out[j].TriggerCount
		}
		return out[i].App < out[j].App
	})
	return out
}

func peakProcrastinationHours(episodes []*episode) []PeakHour {
	counts := make(map[string]int)
	for _, ep := range episodes {
		counts[ep.start.Format("15")+":00"]++
	}

	out := make([]PeakHour, 0, len(counts))
	for hour, count := range counts {
		out = append(out, PeakHour{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func dailyEpisodeCounts(episodes []*episode) []DailyEpisodes {
	counts := make(map[string]int)
	for _, ep := range episodes {
		counts[ep.date()]++
	}

	out := make([]DailyEpisodes, 0, len(counts))
	for date, count := range counts {
		out = append(out, DailyEpisodes{Date: date, Episodes: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

func procrastinationRecommendations(patterns []Pattern, triggerApps []TriggerApp, peakHours []PeakHour) []string {
	var recs []string

	if len(triggerApps) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Block or limit %q during work hours - it triggered %d procrastination episodes.",
			titleCase(triggerApps[0].App), triggerApps[0].TriggerCount))
	}
	if len(peakHours) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Schedule your most important focused work BEFORE %s, as this is your peak procrastination window.",
			peakHours[0].Hour))
	}
	if len(patterns) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Watch out for this sequence: %s. When you notice it starting, switch to a focus session immediately.",
			patterns[0].Display))
	}
	if len(recs) == 0 {
		recs = append(recs, "Keep tracking - more data will unlock personalized anti-procrastination strategies.")
	}

	recs = append(recs, `Try the "2-minute rule": when tempted to procrastinate, commit to working for just 2 minutes.`)
	return recs
}

func riskLabel(score float64) string {
	switch {
	case score < 20:
		return "Low Risk"
	case score < 50:
		return "Moderate Risk"
	case score < 75:
		return "High Risk"
	default:
		return "Critical - Intervention Needed"
	}
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
