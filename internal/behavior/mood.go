// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package behavior

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// DefaultMoodMaxLags bounds the lag order for Granger tests and the VAR fit.
const DefaultMoodMaxLags = 3

// moodMinObservations is the minimum number of aligned mood+productivity
// days required for the bidirectional analysis.
const moodMinObservations = 7

// AlignedDay is one date with both a mood entry and a productivity summary.
type AlignedDay struct {
	Date               string  `json:"date"`
	Mood               int     `json:"mood"`
	Energy             int     `json:"energy"`
	Stress             int     `json:"stress"`
	Productivity       float64 `json:"productivity"`
	ProductiveMinutes  float64 `json:"productive_minutes"`
	DistractingMinutes float64 `json:"distracting_minutes"`
}

// Correlation is the same-day Pearson correlation summary.
type Correlation struct {
	Value          float64 `json:"value"`
	Strength       string  `json:"strength"`
	Direction      string  `json:"direction,omitempty"`
	Interpretation string  `json:"interpretation"`
}

// LagCorrelation is the correlation at one lead/lag offset.
type LagCorrelation struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
	Meaning     string  `json:"meaning"`
}

// CrossCorrelation is the lag sweep with its peak.
type CrossCorrelation struct {
	Lags            []LagCorrelation `json:"lags"`
	PeakLag         int              `json:"peak_lag"`
	PeakCorrelation float64          `json:"peak_correlation"`
	PeakDirection   string           `json:"peak_direction"`
}

// CausalTest is one direction of the Granger causality test.
type CausalTest struct {
	BestLag     int      `json:"best_lag"`
	PValue      float64  `json:"p_value"`
	Significant bool     `json:"significant"`
	Correlation *float64 `json:"correlation,omitempty"`
}

// GrangerResult holds both causal directions.
type GrangerResult struct {
	MoodCausesProductivity CausalTest `json:"mood_causes_productivity"`
	ProductivityCausesMood CausalTest `json:"productivity_causes_mood"`
	Bidirectional          bool       `json:"bidirectional"`
	Interpretation         string     `json:"interpretation"`
}

// VARForecastPoint is one joint mood/productivity prediction.
type VARForecastPoint struct {
	Date                  string  `json:"date"`
	PredictedMood         float64 `json:"predicted_mood"`
	PredictedProductivity float64 `json:"predicted_productivity"`
}

// VARModel summarizes the vector autoregression fit and its forecast.
type VARModel struct {
	Fitted     bool               `json:"fitted"`
	OptimalLag int                `json:"optimal_lag"`
	AIC        *float64           `json:"aic"`
	BIC        *float64           `json:"bic"`
	Forecast   []VARForecastPoint `json:"forecast"`
	Note       string             `json:"note,omitempty"`
}

// ImpulseResponse traces how a one-unit shock in each series propagates to
// the other over the following days.
type ImpulseResponse struct {
	MoodShockOnProductivity []float64 `json:"mood_shock_on_productivity"`
	ProductivityShockOnMood []float64 `json:"productivity_shock_on_mood"`
	Periods                 int       `json:"periods"`
	Interpretation          string    `json:"interpretation,omitempty"`
	Note                    string    `json:"note,omitempty"`
}

// DominantDirection names the stronger causal pathway.
type DominantDirection struct {
	Direction            string `json:"direction"`
	Label                string `json:"label"`
	Explanation          string `json:"explanation"`
	CrossCorrelationPeak string `json:"cross_correlation_peak,omitempty"`
}

// MoodCausalityReport is the full bidirectional mood-productivity analysis.
type MoodCausalityReport struct {
	HasSufficientData bool              `json:"has_sufficient_data"`
	Observations      int               `json:"observations"`
	MinRequired       int               `json:"min_required,omitempty"`
	Message           string            `json:"message,omitempty"`
	DateRange         map[string]string `json:"date_range,omitempty"`
	Correlation       Correlation       `json:"correlation"`
	CrossCorrelation  *CrossCorrelation `json:"cross_correlation,omitempty"`
	GrangerCausality  *GrangerResult    `json:"granger_causality,omitempty"`
	VARModel          *VARModel         `json:"var_model,omitempty"`
	ImpulseResponse   *ImpulseResponse  `json:"impulse_response,omitempty"`
	DominantDirection DominantDirection `json:"dominant_direction"`
	Insights          []string          `json:"insights"`
	AlignedData       []AlignedDay      `json:"aligned_data"`
}

// AnalyzeMoodCausality models the bidirectional relationship between mood
// and productivity: which one predicts the other for this user, and how
// strongly. When analytic is false the Granger tests and the VAR fit use
// their lag-correlation and moving-average fallbacks instead of the OLS
// solver. Fewer than seven aligned days yield the insufficient-data report.
func AnalyzeMoodCausality(moods []models.MoodEntry, summaries []models.DailySummary, maxLags int, analytic bool) *MoodCausalityReport {
	if maxLags <= 0 {
		maxLags = DefaultMoodMaxLags
	}

	aligned := alignMoodProductivity(moods, summaries)

	metrics.RecordAnalyzerRun("mood_causality", len(aligned) < moodMinObservations)

	if len(aligned) < moodMinObservations {
		return &MoodCausalityReport{
			Observations: len(aligned),
			MinRequired:  moodMinObservations,
			Message: fmt.Sprintf("Need at least %d days of paired mood + productivity data. Currently have %d.",
				moodMinObservations, len(aligned)),
			Correlation:       Correlation{Strength: "insufficient data"},
			DominantDirection: DominantDirection{Direction: "unknown", Label: "Insufficient Data"},
			Insights:          []string{"Log your mood daily and keep tracking activity to unlock bidirectional analysis."},
			AlignedData:       []AlignedDay{},
		}
	}

	moodSeries := make([]float64, len(aligned))
	prodSeries := make([]float64, len(aligned))
	dates := make([]string, len(aligned))
	for i, d := range aligned {
		moodSeries[i] = float64(d.Mood)
		prodSeries[i] = d.Productivity
		dates[i] = d.Date
	}

	correlation := computeCorrelation(moodSeries, prodSeries)
	crossCorr := crossCorrelation(moodSeries, prodSeries, 5)
	granger := grangerCausality(moodSeries, prodSeries, maxLags, analytic)
	varModel := fitVAR(moodSeries, prodSeries, maxLags, dates, analytic)
	irf := computeIRF(moodSeries, prodSeries, maxLags, analytic)
	dominant := dominantDirection(granger, crossCorr)

	tail := aligned
	if len(tail) > 14 {
		tail = tail[len(tail)-14:]
	}

	return &MoodCausalityReport{
		HasSufficientData: true,
		Observations:      len(aligned),
		DateRange:         map[string]string{"start": dates[0], "end": dates[len(dates)-1]},
		Correlation:       correlation,
		CrossCorrelation:  crossCorr,
		GrangerCausality:  granger,
		VARModel:          varModel,
		ImpulseResponse:   irf,
		DominantDirection: dominant,
		Insights:          moodInsights(correlation, dominant, crossCorr),
		AlignedData:       tail,
	}
}

// alignMoodProductivity joins mood entries and daily summaries on date.
// Productivity is the productive share of categorized time as a percentage.
func alignMoodProductivity(moods []models.MoodEntry, summaries []models.DailySummary) []AlignedDay {
	moodByDate := make(map[string]models.MoodEntry)
	for _, m := range moods {
		moodByDate[m.Date.Format("2006-01-02")] = m
	}
	prodByDate := make(map[string]models.DailySummary)
	for _, s := range summaries {
		prodByDate[s.Date] = s
	}

	var dates []string
	for date := range moodByDate {
		if _, ok := prodByDate[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	aligned := make([]AlignedDay, 0, len(dates))
	for _, date := range dates {
		m := moodByDate[date]
		p := prodByDate[date]
		total := p.ProductiveMinutes + p.DistractingMinutes
		score := p.ProductiveMinutes / math.Max(total, 1) * 100

		aligned = append(aligned, AlignedDay{
			Date:               date,
			Mood:               m.Mood,
			Energy:             m.Energy,
			Stress:             m.Stress,
			Productivity:       math.Round(score*10) / 10,
			ProductiveMinutes:  p.ProductiveMinutes,
			DistractingMinutes: p.DistractingMinutes,
		})
	}
	return aligned
}

func computeCorrelation(mood, prod []float64) Correlation {
	if len(mood) < 3 {
		return Correlation{Strength: "insufficient data"}
	}

	corr := pearson(mood, prod)

	var strength string
	switch {
	case math.Abs(corr) < 0.3:
		strength = "weak"
	case math.Abs(corr) < 0.6:
		strength = "moderate"
	default:
		strength = "strong"
	}

	direction := "negative"
	tail := "Higher mood is associated with lower productivity (unusual - may indicate stress-driven overwork)."
	if corr > 0 {
		direction = "positive"
		tail = "Higher mood is associated with higher productivity."
	}

	return Correlation{
		Value:     math.Round(corr*1000) / 1000,
		Strength:  strength,
		Direction: direction,
		Interpretation: fmt.Sprintf("There is a %s %s correlation (r=%.2f). %s",
			strength, direction, corr, tail),
	}
}

// crossCorrelation sweeps lags from -maxLags to +maxLags. A positive lag
// correlates mood today with productivity lag days later (mood leads); a
// negative lag is the reverse.
func crossCorrelation(mood, prod []float64, maxLags int) *CrossCorrelation {
	n := len(mood)
	if n < 5 {
		return &CrossCorrelation{Lags: []LagCorrelation{}, PeakDirection: "none"}
	}

	var lags []LagCorrelation
	for lag := -maxLags; lag <= maxLags; lag++ {
		var m, p []float64
		if lag >= 0 {
			m = mood[:n-lag]
			p = prod[lag:]
		} else {
			m = mood[-lag:]
			p = prod[:n+lag]
		}
		if len(m) < 3 {
			continue
		}

		cc := pearson(m, p)
		meaning := "Same-day correlation"
		if lag > 0 {
			meaning = fmt.Sprintf("Mood leads productivity by %d day(s)", lag)
		} else if lag < 0 {
			meaning = fmt.Sprintf("Productivity leads mood by %d day(s)", -lag)
		}
		lags = append(lags, LagCorrelation{
			Lag:         lag,
			Correlation: math.Round(cc*1000) / 1000,
			Meaning:     meaning,
		})
	}

	out := &CrossCorrelation{Lags: lags, PeakDirection: "none"}
	if len(lags) == 0 {
		return out
	}

	peak := lags[0]
	for _, l := range lags[1:] {
		if math.Abs(l.Correlation) > math.Abs(peak.Correlation) {
			peak = l
		}
	}
	out.PeakLag = peak.Lag
	out.PeakCorrelation = peak.Correlation
	switch {
	case peak.Lag > 0:
		out.PeakDirection = "mood_leads"
	case peak.Lag < 0:
		out.PeakDirection = "productivity_leads"
	default:
		out.PeakDirection = "simultaneous"
	}
	return out
}

// grangerCausality tests both directions. The analytic path runs an OLS
// F-test at every lag up to maxLags and keeps the lag with the smallest
// p-value; otherwise a lag-1 correlation heuristic stands in.
func grangerCausality(mood, prod []float64, maxLags int, analytic bool) *GrangerResult {
	if !analytic || len(mood) < maxLags+5 {
		return heuristicGranger(mood, prod)
	}

	m2p := bestGrangerLag(prod, mood, maxLags)
	p2m := bestGrangerLag(mood, prod, maxLags)

	return &GrangerResult{
		MoodCausesProductivity: m2p,
		ProductivityCausesMood: p2m,
		Bidirectional:          m2p.Significant && p2m.Significant,
		Interpretation:         interpretGranger(m2p, p2m),
	}
}

// bestGrangerLag tests whether x Granger-causes y, scanning lags 1..maxLags.
func bestGrangerLag(y, x []float64, maxLags int) CausalTest {
	best := CausalTest{BestLag: 1, PValue: 1.0}
	for lag := 1; lag <= maxLags; lag++ {
		p, ok := grangerFTest(y, x, lag)
		if ok && p < best.PValue {
			best.PValue = p
			best.BestLag = lag
		}
	}
	best.PValue = math.Round(best.PValue*10000) / 10000
	best.Significant = best.PValue < 0.05
	return best
}

// grangerFTest compares a restricted AR model of y against one augmented
// with lagged x, returning the F-test p-value for the added lags.
func grangerFTest(y, x []float64, lag int) (float64, bool) {
	n := len(y)
	rows := n - lag
	restrictedK := lag + 1
	fullK := 2*lag + 1
	dfDenom := rows - fullK
	if dfDenom < 1 {
		return 1, false
	}

	target := y[lag:]

	restricted := make([][]float64, rows)
	full := make([][]float64, rows)
	for t := 0; t < rows; t++ {
		r := make([]float64, 0, restrictedK)
		f := make([]float64, 0, fullK)
		r = append(r, 1)
		f = append(f, 1)
		for j := 1; j <= lag; j++ {
			r = append(r, y[lag+t-j])
			f = append(f, y[lag+t-j])
		}
		for j := 1; j <= lag; j++ {
			f = append(f, x[lag+t-j])
		}
		restricted[t] = r
		full[t] = f
	}

	rssR, okR := olsRSS(restricted, target)
	rssF, okF := olsRSS(full, target)
	if !okR || !okF || rssF <= 0 {
		return 1, false
	}

	fStat := ((rssR - rssF) / float64(lag)) / (rssF / float64(dfDenom))
	if fStat < 0 {
		fStat = 0
	}
	return fCDFUpper(fStat, float64(lag), float64(dfDenom)), true
}

// olsRSS fits y = Xb by least squares and returns the residual sum of
// squares.
func olsRSS(x [][]float64, y []float64) (float64, bool) {
	k := len(x[0])
	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	for t, row := range x {
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[t]
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}

	beta, ok := solveLinear(xtx, xty)
	if !ok {
		return 0, false
	}

	rss := 0.0
	for t, row := range x {
		pred := 0.0
		for i := 0; i < k; i++ {
			pred += beta[i] * row[i]
		}
		resid := y[t] - pred
		rss += resid * resid
	}
	return rss, true
}

func heuristicGranger(mood, prod []float64) *GrangerResult {
	n := len(mood)
	if n < 4 {
		return &GrangerResult{
			MoodCausesProductivity: CausalTest{BestLag: 1, PValue: 1.0},
			ProductivityCausesMood: CausalTest{BestLag: 1, PValue: 1.0},
			Interpretation:         "Insufficient data for causal analysis.",
		}
	}

	lag1M2P := pearson(mood[:n-1], prod[1:])
	lag1P2M := pearson(prod[:n-1], mood[1:])

	m2p := heuristicCausalTest(lag1M2P)
	p2m := heuristicCausalTest(lag1P2M)

	return &GrangerResult{
		MoodCausesProductivity: m2p,
		ProductivityCausesMood: p2m,
		Bidirectional:          m2p.Significant && p2m.Significant,
		Interpretation:         interpretGranger(m2p, p2m),
	}
}

func heuristicCausalTest(lagCorr float64) CausalTest {
	rounded := math.Round(lagCorr*1000) / 1000
	return CausalTest{
		BestLag:     1,
		PValue:      math.Round(math.Max(0.01, 1-math.Abs(lagCorr)*2)*10000) / 10000,
		Significant: math.Abs(lagCorr) > 0.3,
		Correlation: &rounded,
	}
}

func interpretGranger(m2p, p2m CausalTest) string {
	switch {
	case m2p.Significant && p2m.Significant:
		return "Bidirectional causality detected: mood and productivity influence each other."
	case m2p.Significant:
		return fmt.Sprintf("Mood Granger-causes productivity (p=%.3f). Your emotional state today predicts tomorrow's output.", m2p.PValue)
	case p2m.Significant:
		return fmt.Sprintf("Productivity Granger-causes mood (p=%.3f). A productive day lifts your mood the next day.", p2m.PValue)
	default:
		return "No significant causal relationship detected at current data volume."
	}
}

// fitVAR fits a two-variable vector autoregression with AIC lag selection
// and forecasts the next three days. Without the analytic solver a recent
// moving average stands in.
func fitVAR(mood, prod []float64, maxLags int, dates []string, analytic bool) *VARModel {
	if !analytic || len(mood) < maxLags+5 {
		return heuristicVAR(mood, prod, dates)
	}

	lagCap := len(mood) / 3
	if lagCap > maxLags {
		lagCap = maxLags
	}
	if lagCap < 1 {
		lagCap = 1
	}

	var best *varFit
	for lag := 1; lag <= lagCap; lag++ {
		fit, ok := fitVAROrder(mood, prod, lag)
		if ok && (best == nil || fit.aic < best.aic) {
			best = fit
		}
	}
	if best == nil {
		return heuristicVAR(mood, prod, dates)
	}

	lastDate, err := time.Parse("2006-01-02", dates[len(dates)-1])
	if err != nil {
		lastDate = time.Now().UTC()
	}

	forecast := make([]VARForecastPoint, 0, 3)
	histMood := append([]float64(nil), mood...)
	histProd := append([]float64(nil), prod...)
	for i := 0; i < 3; i++ {
		nextMood, nextProd := best.step(histMood, histProd)
		histMood = append(histMood, nextMood)
		histProd = append(histProd, nextProd)

		forecast = append(forecast, VARForecastPoint{
			Date:                  lastDate.AddDate(0, 0, i+1).Format("2006-01-02"),
			PredictedMood:         math.Round(clampFloat(nextMood, 1, 5)*10) / 10,
			PredictedProductivity: math.Round(clampFloat(nextProd, 0, 100)*10) / 10,
		})
	}

	aic := math.Round(best.aic*100) / 100
	bic := math.Round(best.bic*100) / 100
	return &VARModel{
		Fitted:     true,
		OptimalLag: best.lag,
		AIC:        &aic,
		BIC:        &bic,
		Forecast:   forecast,
	}
}

// varFit holds the coefficients of one fitted VAR(p). Each equation is
// intercept, then p mood lags, then p productivity lags.
type varFit struct {
	lag       int
	moodCoef  []float64
	prodCoef  []float64
	aic, bic  float64
	residCovM [2][2]float64
}

// step predicts the next mood and productivity values from history tails.
func (f *varFit) step(mood, prod []float64) (float64, float64) {
	n := len(mood)
	nextMood := f.moodCoef[0]
	nextProd := f.prodCoef[0]
	for j := 1; j <= f.lag; j++ {
		nextMood += f.moodCoef[j]*mood[n-j] + f.moodCoef[f.lag+j]*prod[n-j]
		nextProd += f.prodCoef[j]*mood[n-j] + f.prodCoef[f.lag+j]*prod[n-j]
	}
	return nextMood, nextProd
}

func fitVAROrder(mood, prod []float64, lag int) (*varFit, bool) {
	n := len(mood)
	rows := n - lag
	k := 2*lag + 1
	if rows <= k {
		return nil, false
	}

	design := make([][]float64, rows)
	yMood := make([]float64, rows)
	yProd := make([]float64, rows)
	for t := 0; t < rows; t++ {
		row := make([]float64, 0, k)
		row = append(row, 1)
		for j := 1; j <= lag; j++ {
			row = append(row, mood[lag+t-j])
		}
		for j := 1; j <= lag; j++ {
			row = append(row, prod[lag+t-j])
		}
		design[t] = row
		yMood[t] = mood[lag+t]
		yProd[t] = prod[lag+t]
	}

	moodCoef, okM := olsSolve(design, yMood)
	prodCoef, okP := olsSolve(design, yProd)
	if !okM || !okP {
		return nil, false
	}

	// Residual covariance for the information criteria.
	var cov [2][2]float64
	for t, row := range design {
		var predM, predP float64
		for i := 0; i < k; i++ {
			predM += moodCoef[i] * row[i]
			predP += prodCoef[i] * row[i]
		}
		rm := yMood[t] - predM
		rp := yProd[t] - predP
		cov[0][0] += rm * rm
		cov[0][1] += rm * rp
		cov[1][0] += rp * rm
		cov[1][1] += rp * rp
	}
	nf := float64(rows)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			cov[i][j] /= nf
		}
	}

	det := cov[0][0]*cov[1][1] - cov[0][1]*cov[1][0]
	if det < 1e-12 {
		det = 1e-12
	}
	params := float64(2 * k)
	aic := nf*math.Log(det) + 2*params
	bic := nf*math.Log(det) + math.Log(nf)*params

	return &varFit{
		lag:       lag,
		moodCoef:  moodCoef,
		prodCoef:  prodCoef,
		aic:       aic,
		bic:       bic,
		residCovM: cov,
	}, true
}

// olsSolve fits y = Xb by least squares and returns the coefficients.
func olsSolve(x [][]float64, y []float64) ([]float64, bool) {
	k := len(x[0])
	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	for t, row := range x {
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[t]
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	return solveLinear(xtx, xty)
}

func heuristicVAR(mood, prod []float64, dates []string) *VARModel {
	recentMood := tailMean(mood, 3, 3)
	recentProd := tailMean(prod, 3, 50)

	lastDate := time.Now().UTC()
	if len(dates) > 0 {
		if d, err := time.Parse("2006-01-02", dates[len(dates)-1]); err == nil {
			lastDate = d
		}
	}

	rng := rand.New(rand.NewSource(42))
	forecast := make([]VARForecastPoint, 0, 3)
	for i := 0; i < 3; i++ {
		forecast = append(forecast, VARForecastPoint{
			Date:                  lastDate.AddDate(0, 0, i+1).Format("2006-01-02"),
			PredictedMood:         math.Round(clampFloat(recentMood+rng.NormFloat64()*0.2, 1, 5)*10) / 10,
			PredictedProductivity: math.Round(clampFloat(recentProd+rng.NormFloat64()*3, 0, 100)*10) / 10,
		})
	}

	return &VARModel{
		OptimalLag: 1,
		Forecast:   forecast,
		Note:       "Using heuristic moving-average forecast (analytic solver disabled or too little data).",
	}
}

func tailMean(values []float64, n int, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	if len(values) < n {
		return values[len(values)-1]
	}
	return meanOf(values[len(values)-n:])
}

// computeIRF derives reduced-form impulse responses from the fitted VAR via
// its moving-average representation. Without the solver a fixed estimate is
// reported.
func computeIRF(mood, prod []float64, maxLags int, analytic bool) *ImpulseResponse {
	estimated := &ImpulseResponse{
		MoodShockOnProductivity: []float64{0, 0.1, 0.05, 0.02},
		ProductivityShockOnMood: []float64{0, 0.08, 0.04, 0.01},
		Periods:                 4,
		Note:                    "Estimated impulse responses (analytic solver disabled or too little data).",
	}
	if !analytic || len(mood) < maxLags+5 {
		return estimated
	}

	lag := len(mood) / 3
	if lag > maxLags {
		lag = maxLags
	}
	if lag < 1 {
		lag = 1
	}
	fit, ok := fitVAROrder(mood, prod, lag)
	if !ok {
		return estimated
	}

	// Coefficient matrices A_j, rows ordered (mood, productivity).
	coefAt := func(j int) [2][2]float64 {
		return [2][2]float64{
			{fit.moodCoef[j], fit.moodCoef[fit.lag+j]},
			{fit.prodCoef[j], fit.prodCoef[fit.lag+j]},
		}
	}

	const periods = 5
	phi := make([][2][2]float64, periods)
	phi[0] = [2][2]float64{{1, 0}, {0, 1}}
	for t := 1; t < periods; t++ {
		var sum [2][2]float64
		for j := 1; j <= fit.lag && j <= t; j++ {
			a := coefAt(j)
			prev := phi[t-j]
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					sum[r][c] += a[r][0]*prev[0][c] + a[r][1]*prev[1][c]
				}
			}
		}
		phi[t] = sum
	}

	moodShockProd := make([]float64, periods)
	prodShockMood := make([]float64, periods)
	for t := 0; t < periods; t++ {
		moodShockProd[t] = math.Round(phi[t][1][0]*10000) / 10000
		prodShockMood[t] = math.Round(phi[t][0][1]*10000) / 10000
	}

	return &ImpulseResponse{
		MoodShockOnProductivity: moodShockProd,
		ProductivityShockOnMood: prodShockMood,
		Periods:                 periods,
		Interpretation: fmt.Sprintf(
			"A 1-unit mood increase leads to a %.2f point productivity change the next day. A 1-unit productivity boost leads to a %.2f mood change the next day.",
			moodShockProd[1], prodShockMood[1]),
	}
}

func dominantDirection(granger *GrangerResult, crossCorr *CrossCorrelation) DominantDirection {
	m2p := granger.MoodCausesProductivity.Significant
	p2m := granger.ProductivityCausesMood.Significant

	out := DominantDirection{CrossCorrelationPeak: crossCorr.PeakDirection}
	switch {
	case m2p && !p2m:
		out.Direction = "mood_drives_productivity"
		out.Label = "Mood → Productivity"
		out.Explanation = "Your mood significantly predicts next-day productivity, but not vice versa. Focus on mood management for better output."
	case p2m && !m2p:
		out.Direction = "productivity_drives_mood"
		out.Label = "Productivity → Mood"
		out.Explanation = "Your productivity significantly predicts next-day mood. Accomplishing tasks lifts your spirits."
	case m2p && p2m:
		out.Direction = "bidirectional"
		out.Label = "Mood ↔ Productivity"
		out.Explanation = "Both directions are significant - a positive feedback loop. Good days beget good days, bad days can spiral."
	default:
		out.Direction = "independent"
		out.Label = "Independent"
		out.Explanation = "No significant causal relationship detected yet. More data may reveal patterns."
	}
	return out
}

func moodInsights(correlation Correlation, dominant DominantDirection, crossCorr *CrossCorrelation) []string {
	var insights []string

	if math.Abs(correlation.Value) > 0.3 {
		insights = append(insights, correlation.Interpretation)
	}
	insights = append(insights, dominant.Explanation)

	switch dominant.Direction {
	case "mood_drives_productivity":
		insights = append(insights, "Recommendation: Start each morning with a mood check-in. If mood is low, begin with easier tasks to build momentum.")
	case "productivity_drives_mood":
		insights = append(insights, "Recommendation: Prioritize completing at least one meaningful task early - it will boost your mood for the rest of the day.")
	case "bidirectional":
		insights = append(insights, "Recommendation: Break negative spirals early - if either mood or productivity dips, take a short break and reset.")
	}

	if crossCorr.PeakLag > 0 {
		insights = append(insights, fmt.Sprintf(
			"Strongest link found at %d-day lag: today's mood most affects productivity %d day(s) later.",
			crossCorr.PeakLag, crossCorr.PeakLag))
	} else if crossCorr.PeakLag < 0 {
		insights = append(insights, fmt.Sprintf(
			"Strongest link found at %d-day lag: today's productivity most affects mood %d day(s) later.",
			-crossCorr.PeakLag, -crossCorr.PeakLag))
	}

	return insights
}

// pearson is the Pearson correlation coefficient, zero when either series
// is constant.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	meanA := meanOf(a)
	meanB := meanOf(b)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// solveLinear solves ax = b by Gaussian elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, true
}

// fCDFUpper is the upper tail probability of the F distribution with d1 and
// d2 degrees of freedom, via the regularized incomplete beta function.
func fCDFUpper(f, d1, d2 float64) float64 {
	if f <= 0 {
		return 1
	}
	x := d2 / (d2 + d1*f)
	return clampFloat(regIncBeta(d2/2, d1/2, x), 0, 1)
}

// regIncBeta is the regularized incomplete beta function I_x(a, b),
// evaluated with the Lentz continued fraction.
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x > (a+1)/(a+b+2) {
		return 1 - regIncBeta(b, a, 1-x)
	}

	const tiny = 1e-30
	c := 1.0
	d := 1 - (a+b)*x/(a+1)
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	result := d

	for i := 1; i <= 200; i++ {
		m := float64(i)
		// Even step.
		num := m * (b - m) * x / ((a + 2*m - 1) * (a + 2*m))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		result *= d * c

		// Odd step.
		num = -(a + m) * (a + b + m) * x / ((a + 2*m) * (a + 2*m + 1))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		delta := d * c
		result *= delta

		if math.Abs(delta-1) < 1e-10 {
			break
		}
	}

	return front * result / a
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
