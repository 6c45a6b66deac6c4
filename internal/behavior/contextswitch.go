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

// DefaultSwitchWindowHours is the analysis window when none is configured.
const DefaultSwitchWindowHours = 8

// shortSessionMinutes marks an app session as fragmented.
const shortSessionMinutes = 5

// appCluster groups related apps for batching recommendations. First match
// wins, so the order is part of the contract.
type appCluster struct {
	name string
	apps []string
}

var appClusters = []appCluster{
	{"Development", []string{"vscode", "code", "terminal", "github", "gitlab", "stackoverflow", "jupyter"}},
	{"Communication", []string{"slack", "teams", "zoom", "discord", "email", "gmail", "outlook"}},
	{"Creative", []string{"figma", "photoshop", "canva", "illustrator", "sketch"}},
	{"Documentation", []string{"word", "docs", "notion", "confluence", "obsidian", "notes"}},
	{"Social Media", []string{"twitter", "facebook", "instagram", "reddit", "tiktok", "linkedin"}},
	{"Entertainment", []string{"youtube", "netflix", "twitch", "spotify", "games"}},
	{"Productivity", []string{"excel", "sheets", "powerpoint", "trello", "jira", "asana"}},
}

// TransitionEdge is one app-to-app transition with its frequency.
type TransitionEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// TransitionGraph is the directed app transition multigraph.
type TransitionGraph struct {
	Nodes []string         `json:"nodes"`
	Edges []TransitionEdge `json:"edges"`
}

// AttentionResidue summarizes recovery after productive-to-distracting
// switches.
type AttentionResidue struct {
	AvgRecoveryMinutes float64 `json:"avg_recovery_minutes"`
	MaxRecoveryMinutes float64 `json:"max_recovery_minutes"`
	RecoveryEvents     int     `json:"recovery_events"`
	Insight            string  `json:"insight"`
}

// CategoryTransition counts switches between productivity categories.
type CategoryTransition struct {
	From  models.Category `json:"from"`
	To    models.Category `json:"to"`
	Count int             `json:"count"`
}

// CostlySwitch is a productive-to-distracting switch ranked by lost time.
type CostlySwitch struct {
	FromApp     string  `json:"from_app"`
	ToApp       string  `json:"to_app"`
	Time        string  `json:"time"`
	LostMinutes float64 `json:"lost_minutes"`
	Severity    string  `json:"severity"`
}

// BatchingRecommendation suggests grouping scattered app usage.
type BatchingRecommendation struct {
	Cluster          string   `json:"cluster"`
	Apps             []string `json:"apps"`
	Suggestion       string   `json:"suggestion"`
	PotentialSavings string   `json:"potential_savings"`
}

// HourlySwitches is the switch count for one hour of the day.
type HourlySwitches struct {
	Hour     string `json:"hour"`
	Switches int    `json:"switches"`
}

// SwitchReport is the full context-switch analysis.
type SwitchReport struct {
	CSPS                    float64                  `json:"csps"`
	CSPSLabel               string                   `json:"csps_label"`
	TotalSwitches           int                      `json:"total_switches"`
	UniqueApps              int                      `json:"unique_apps"`
	TransitionGraph         TransitionGraph          `json:"transition_graph"`
	AttentionResidue        AttentionResidue         `json:"attention_residue"`
	CategoryTransitions     []CategoryTransition     `json:"category_transitions"`
	CostlySwitches          []CostlySwitch           `json:"costly_switches"`
	BatchingRecommendations []BatchingRecommendation `json:"batching_recommendations"`
	HourlySwitchRate        []HourlySwitches         `json:"hourly_switch_rate"`
	WindowHours             int                      `json:"window_hours"`
	ActivitiesAnalyzed      int                      `json:"activities_analyzed"`
}

// AnalyzeSwitches quantifies context-switching cost over the last
// windowHours before now. Fewer than two recent activities yield the empty
// report.
func AnalyzeSwitches(activities []models.ActivityEvent, windowHours int, now time.Time) *SwitchReport {
	if windowHours <= 0 {
		windowHours = DefaultSwitchWindowHours
	}
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)
	recent := filterActivitiesSince(activities, cutoff, now)

	metrics.RecordAnalyzerRun("context_switch", len(recent) < 2)

	if len(recent) < 2 {
		return emptySwitchReport(windowHours)
	}

	graph, totalSwitches := buildTransitionGraph(recent)
	residue := analyzeResidueDecay(recent)
	costly := identifyCostlySwitches(recent)
	if len(costly) > 5 {
		costly = costly[:5]
	}
	edges := graph.Edges
	if len(edges) > 10 {
		edges = edges[:10]
	}

	unique := make(map[string]struct{})
	for _, a := range recent {
		unique[a.AppName] = struct{}{}
	}

	return &SwitchReport{
		CSPS:                    math.Round(computeCSPS(recent, totalSwitches)*10) / 10,
		CSPSLabel:               cspsLabel(computeCSPS(recent, totalSwitches)),
		TotalSwitches:           totalSwitches,
		UniqueApps:              len(unique),
		TransitionGraph:         TransitionGraph{Nodes: graph.Nodes, Edges: edges},
		AttentionResidue:        residue,
		CategoryTransitions:     categoryTransitions(recent),
		CostlySwitches:          costly,
		BatchingRecommendations: batchingRecommendations(recent),
		HourlySwitchRate:        hourlySwitchRate(recent),
		WindowHours:             windowHours,
		ActivitiesAnalyzed:      len(recent),
	}
}

func emptySwitchReport(windowHours int) *SwitchReport {
	return &SwitchReport{
		CSPSLabel: "No data - start tracking to analyze switching patterns",
		TransitionGraph: TransitionGraph{
			Nodes: []string{},
			Edges: []TransitionEdge{},
		},
		AttentionResidue: AttentionResidue{
			Insight: "Not enough data yet.",
		},
		CategoryTransitions:     []CategoryTransition{},
		CostlySwitches:          []CostlySwitch{},
		BatchingRecommendations: []BatchingRecommendation{},
		HourlySwitchRate:        []HourlySwitches{},
		WindowHours:             windowHours,
	}
}

// buildTransitionGraph counts app-to-app transitions, edges sorted by count
// descending then lexicographically for determinism.
func buildTransitionGraph(activities []models.ActivityEvent) (TransitionGraph, int) {
	type pair struct{ from, to string }
	counts := make(map[pair]int)
	nodes := make(map[string]struct{})

	for i := 1; i < len(activities); i++ {
		src := strings.ToLower(activities[i-1].AppName)
		dst := strings.ToLower(activities[i].AppName)
		if src == dst {
			continue
		}
		counts[pair{src, dst}]++
		nodes[src] = struct{}{}
		nodes[dst] = struct{}{}
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	edges := make([]TransitionEdge, 0, len(counts))
	for p, c := range counts {
		edges = append(edges, TransitionEdge{
			From:   p.from,
			To:     p.to,
			Count:  c,
			Weight: math.Round(float64(c)/math.Max(float64(total), 1)*1000) / 1000,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Count != edges[j].Count {
			return edges[i].Count > edges[j].Count
		}
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	nodeList := make([]string, 0, len(nodes))
	for n := range nodes {
		nodeList = append(nodeList, n)
	}
	sort.Strings(nodeList)

	return TransitionGraph{Nodes: nodeList, Edges: edges}, total
}

// computeCSPS scores switching cost 0-100: switch density (up to 40),
// category-crossing and productive-to-distracting switches (up to 40), and
// short-session fragmentation (up to 20).
func computeCSPS(activities []models.ActivityEvent, totalSwitches int) float64 {
	n := len(activities)
	if n <= 1 {
		return 0
	}

	densityScore := float64(totalSwitches) / float64(n-1) * 40

	var crossCategory, prodToDist int
	for i := 1; i < n; i++ {
		prev, curr := activities[i-1], activities[i]
		if !strings.EqualFold(prev.AppName, curr.AppName) {
			if prev.Category != curr.Category {
				crossCategory++
			}
			if prev.Category == models.CategoryProductive && curr.Category == models.CategoryDistracting {
				prodToDist++
			}
		}
	}
	switches := math.Max(float64(totalSwitches), 1)
	categoryScore := float64(crossCategory)/switches*20 + float64(prodToDist)/switches*20

	shortSessions := 0
	for _, a := range activities {
		if a.DurationMinutes < shortSessionMinutes {
			shortSessions++
		}
	}
	fragScore := float64(shortSessions) / float64(n) * 20

	return math.Min(100, densityScore+categoryScore+fragScore)
}

// analyzeResidueDecay measures how long productive work takes to resume
// after each productive-to-distracting switch.
func analyzeResidueDecay(activities []models.ActivityEvent) AttentionResidue {
	var recoveries []float64

	for i := 1; i < len(activities); i++ {
		if activities[i-1].Category != models.CategoryProductive ||
			activities[i].Category != models.CategoryDistracting {
			continue
		}
		for j := i + 1; j < len(activities); j++ {
			if activities[j].Category != models.CategoryProductive {
				continue
			}
			recovery := activities[j].Timestamp.Sub(activities[i].Timestamp).Minutes()
			if recovery > 0 && recovery < 120 {
				recoveries = append(recoveries, recovery)
			}
			break
		}
	}

	if len(recoveries) == 0 {
		return AttentionResidue{
			Insight: "No productive-to-distracting-to-productive sequences detected yet.",
		}
	}

	avg := meanOf(recoveries)
	maxRecovery := recoveries[0]
	for _, r := range recoveries[1:] {
		if r > maxRecovery {
			maxRecovery = r
		}
	}

	verdict := "Consider batching distractions to reduce this cost."
	if avg < 15 {
		verdict = "This is within healthy range (< 15 min)."
	}

	return AttentionResidue{
		AvgRecoveryMinutes: math.Round(avg*10) / 10,
		MaxRecoveryMinutes: math.Round(maxRecovery*10) / 10,
		RecoveryEvents:     len(recoveries),
		Insight: fmt.Sprintf(
			"After switching to distracting apps, it takes you an average of %.0f minutes to return to productive work. %s",
			avg, verdict),
	}
}

// categoryTransitions counts app switches per category pair, most frequent
// first.
func categoryTransitions(activities []models.ActivityEvent) []CategoryTransition {
	type pair struct{ from, to models.Category }
	counts := make(map[pair]int)

	for i := 1; i < len(activities); i++ {
		if strings.EqualFold(activities[i-1].AppName, activities[i].AppName) {
			continue
		}
		counts[pair{activities[i-1].Category, activities[i].Category}]++
	}

	out := make([]CategoryTransition, 0, len(counts))
	for p, c := range counts {
		out = append(out, CategoryTransition{From: p.from, To: p.to, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// identifyCostlySwitches ranks productive-to-distracting switches by the
// minutes spent in the distraction.
func identifyCostlySwitches(activities []models.ActivityEvent) []CostlySwitch {
	var costly []CostlySwitch

	for i := 1; i < len(activities); i++ {
		prev, curr := activities[i-1], activities[i]
		if prev.Category != models.CategoryProductive || curr.Category != models.CategoryDistracting {
			continue
		}

		severity := "low"
		switch {
		case curr.DurationMinutes > 15:
			severity = "high"
		case curr.DurationMinutes > 5:
			severity = "medium"
		}

		costly = append(costly, CostlySwitch{
			FromApp:     prev.AppName,
			ToApp:       curr.AppName,
			Time:        curr.Timestamp.Format("15:04"),
			LostMinutes: curr.DurationMinutes,
			Severity:    severity,
		})
	}

	sort.SliceStable(costly, func(i, j int) bool {
		return costly[i].LostMinutes > costly[j].LostMinutes
	})
	return costly
}

// batchingRecommendations suggests grouping scattered cluster usage and
// flags productive/distracting ping-pong patterns.
func batchingRecommendations(activities []models.ActivityEvent) []BatchingRecommendation {
	recommendations := []BatchingRecommendation{}

	appCounts := make(map[string]int)
	for _, a := range activities {
		appCounts[strings.ToLower(a.AppName)]++
	}

	clusterApps := make(map[string][]string)
	for app := range appCounts {
		for _, cluster := range appClusters {
			matched := false
			for _, keyword := range cluster.apps {
				if strings.Contains(app, keyword) {
					matched = true
					break
				}
			}
			if matched {
				clusterApps[cluster.name] = append(clusterApps[cluster.name], app)
				break
			}
		}
	}

	for _, cluster := range appClusters {
		apps := clusterApps[cluster.name]
		if len(apps) == 0 {
			continue
		}
		sort.Strings(apps)

		totalEntries := 0
		for _, a := range apps {
			totalEntries += appCounts[a]
		}
		if totalEntries < 3 {
			continue
		}

		savings := totalEntries * 3
		if savings > 30 {
			savings = 30
		}
		recommendations = append(recommendations, BatchingRecommendation{
			Cluster: cluster.name,
			Apps:    apps,
			Suggestion: fmt.Sprintf(
				"Batch your %s tasks together. You switched to %s apps %d times - try a single focused block instead.",
				cluster.name, cluster.name, totalEntries),
			PotentialSavings: fmt.Sprintf("%d minutes", savings),
		})
	}

	pingPong := 0
	for i := 2; i < len(activities); i++ {
		a, b, c := activities[i-2].Category, activities[i-1].Category, activities[i].Category
		if (a == models.CategoryProductive && b == models.CategoryDistracting && c == models.CategoryProductive) ||
			(a == models.CategoryDistracting && b == models.CategoryProductive && c == models.CategoryDistracting) {
			pingPong++
		}
	}
	if pingPong >= 2 {
		recommendations = append(recommendations, BatchingRecommendation{
			Cluster: "Focus Protection",
			Apps:    []string{},
			Suggestion: fmt.Sprintf(
				"You had %d \"ping-pong\" switches between productive and distracting apps. Use website blockers during deep work.",
				pingPong),
			PotentialSavings: fmt.Sprintf("%d minutes", pingPong*5),
		})
	}

	return recommendations
}

// hourlySwitchRate counts app switches per hour of day.
func hourlySwitchRate(activities []models.ActivityEvent) []HourlySwitches {
	hourly := make(map[string]int)
	for i := 1; i < len(activities); i++ {
		if strings.EqualFold(activities[i-1].AppName, activities[i].AppName) {
			continue
		}
		hour := activities[i].Timestamp.Format("15:00")
		hourly[hour]++
	}

	out := make([]HourlySwitches, 0, len(hourly))
	for h, c := range hourly {
		out = append(out, HourlySwitches{Hour: h, Switches: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hour < out[j].Hour
	})
	return out
}

func cspsLabel(csps float64) string {
	switch {
	case csps < 20:
		return "Excellent focus - minimal switching"
	case csps < 40:
		return "Moderate switching - generally manageable"
	case csps < 60:
		return "High switching - consider batching similar tasks"
	case csps < 80:
		return "Very high switching - significant productivity loss"
	default:
		return "Extreme switching - severe attention fragmentation"
	}
}
