// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package weights implements the adaptive ensemble weight optimizer.
//
// The fixed default blend treats every user the same. This store tracks each
// strategy's per-user prediction error and re-weights the blend with
// exponentially smoothed inverse errors, so users whose routines favour one
// model gradually get more of it. State is persisted per user in BadgerDB.
package weights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/focalhq/focalis/internal/forecast"
	"github.com/focalhq/focalis/internal/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	weightsKeyPrefix       = "weights/"
	errorHistoryKeyPrefix  = "errhist/"
	weightHistoryKeyPrefix = "weighthist/"
)

const (
	// smoothingFactor is the EWMA alpha: higher adapts faster.
	smoothingFactor = 0.3
	// minWeight keeps every strategy in the blend.
	minWeight = 0.05
	// errorEpsilon avoids division by zero in inverse-error weighting.
	errorEpsilon = 0.1
	// evolutionWindow bounds the weight evolution returned in reports.
	evolutionWindow = 14
)

// modelNames fixes the iteration order for deterministic tie-breaking.
var modelNames = []string{forecast.StrategyLSTM, forecast.StrategyARIMA, forecast.StrategyProphet}

// ErrorObservation records one actual-versus-predicted comparison.
// Substituted lists strategies that supplied no prediction and were scored
// with zero error against the actual value.
type ErrorObservation struct {
	Date        string             `json:"date"`
	Actual      float64            `json:"actual"`
	Predictions map[string]float64 `json:"predictions"`
	Errors      map[string]float64 `json:"errors"`
	Substituted []string           `json:"substituted,omitempty"`
}

// WeightSnapshot records the blend after one update.
type WeightSnapshot struct {
	Date    string             `json:"date"`
	Weights map[string]float64 `json:"weights"`
}

// UpdateResult summarizes a single weight update.
type UpdateResult struct {
	PreviousWeights map[string]float64 `json:"previous_weights"`
	NewWeights      map[string]float64 `json:"new_weights"`
	Errors          map[string]float64 `json:"errors"`
	BestModel       string             `json:"best_model"`
	WorstModel      string             `json:"worst_model"`
}

// ModelPerformance aggregates one strategy's error history.
type ModelPerformance struct {
	AvgError      float64 `json:"avg_error"`
	StdError      float64 `json:"std_error"`
	MaxError      float64 `json:"max_error"`
	MinError      float64 `json:"min_error"`
	BestCount     int     `json:"best_count"`
	CurrentWeight float64 `json:"current_weight"`
}

// Report is the full per-user performance report.
type Report struct {
	Weights          map[string]float64          `json:"weights"`
	TotalUpdates     int                         `json:"total_updates"`
	ModelPerformance map[string]ModelPerformance `json:"model_performance"`
	WeightEvolution  []WeightSnapshot            `json:"weight_evolution"`
	BestModel        string                      `json:"best_model,omitempty"`
	Recommendation   string                      `json:"recommendation"`
}

// Simulation replays the adaptation over historical data.
type Simulation struct {
	InitialWeights map[string]float64   `json:"initial_weights"`
	FinalWeights   map[string]float64   `json:"final_weights"`
	Evolution      []map[string]float64 `json:"evolution"`
	DaysSimulated  int                  `json:"days_simulated"`
}

// Store is the BadgerDB-backed weight optimizer. It is safe for concurrent
// use: updates for the same user are serialized through a per-user mutex so
// read-modify-write cycles never interleave.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	mu     sync.Mutex
	userMu map[string]*sync.Mutex
}

var _ forecast.WeightSource = (*Store)(nil)

// New creates a weight store on an already opened BadgerDB.
func New(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "weights").Logger(),
		userMu: make(map[string]*sync.Mutex),
	}
}

// Open opens (or creates) the BadgerDB at path, routing Badger's own log
// output through zerolog.
func Open(path string, logger zerolog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logger.With().Str("component", "badger").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open weight store at %s: %w", path, err)
	}
	return db, nil
}

// userLock returns the mutex serializing updates for one user.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.userMu[userID]
	if !ok {
		m = &sync.Mutex{}
		s.userMu[userID] = m
	}
	return m
}

// Weights returns the user's current blend, lazily defaulting for users with
// no stored state. Implements forecast.WeightSource.
func (s *Store) Weights(ctx context.Context, userID string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights := forecast.DefaultWeights()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(weightsKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &weights)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load weights for %s: %w", userID, err)
	}
	return weights, nil
}

// Update folds one observed day into the user's blend: per-model absolute
// errors, inverse-error weighting, EWMA smoothing, floor, renormalize.
// Strategies missing from predictions are scored with zero error.
func (s *Store) Update(ctx context.Context, userID string, actual float64, predictions map[string]float64) (*UpdateResult, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Weights(ctx, userID)
	if err != nil {
		metrics.RecordWeightUpdate(nil, err)
		return nil, err
	}

	obs := ErrorObservation{
		Date:        time.Now().UTC().Format("2006-01-02"),
		Actual:      actual,
		Predictions: predictions,
		Errors:      make(map[string]float64, len(modelNames)),
	}
	for _, m := range modelNames {
		pred, ok := predictions[m]
		if !ok {
			pred = actual
			obs.Substituted = append(obs.Substituted, m)
		}
		obs.Errors[m] = math.Abs(actual - pred)
	}

	newWeights := adaptWeights(current, obs.Errors)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, weightsKeyPrefix+userID, newWeights); err != nil {
			return err
		}
		if err := appendJSON(txn, errorHistoryKeyPrefix+userID, obs, new([]ErrorObservation)); err != nil {
			return err
		}
		snapshot := WeightSnapshot{Date: obs.Date, Weights: newWeights}
		return appendJSON(txn, weightHistoryKeyPrefix+userID, snapshot, new([]WeightSnapshot))
	})
	metrics.RecordWeightUpdate(newWeights, err)
	if err != nil {
		return nil, fmt.Errorf("persist weights for %s: %w", userID, err)
	}

	best, worst := bestAndWorst(obs.Errors)
	s.logger.Debug().
		Str("user_id", userID).
		Str("best_model", best).
		Interface("weights", newWeights).
		Msg("updated ensemble weights")

	return &UpdateResult{
		PreviousWeights: current,
		NewWeights:      newWeights,
		Errors:          obs.Errors,
		BestModel:       best,
		WorstModel:      worst,
	}, nil
}

// adaptWeights computes the next blend from the current one and a day's
// per-model errors.
func adaptWeights(current, errs map[string]float64) map[string]float64 {
	inverse := make(map[string]float64, len(modelNames))
	totalInv := 0.0
	for _, m := range modelNames {
		inverse[m] = 1.0 / (errs[m] + errorEpsilon)
		totalInv += inverse[m]
	}

	next := make(map[string]float64, len(modelNames))
	total := 0.0
	for _, m := range modelNames {
		computed := inverse[m] / totalInv
		cur, ok := current[m]
		if !ok {
			cur = 0.33
		}
		w := smoothingFactor*computed + (1-smoothingFactor)*cur
		if w < minWeight {
			w = minWeight
		}
		next[m] = w
		total += w
	}

	for _, m := range modelNames {
		next[m] = math.Round(next[m]/total*10000) / 10000
	}
	return next
}

// Report aggregates the user's error history into per-model statistics.
func (s *Store) Report(ctx context.Context, userID string) (*Report, error) {
	current, err := s.Weights(ctx, userID)
	if err != nil {
		return nil, err
	}

	var history []ErrorObservation
	var evolution []WeightSnapshot
	err = s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, errorHistoryKeyPrefix+userID, &history); err != nil {
			return err
		}
		return getJSON(txn, weightHistoryKeyPrefix+userID, &evolution)
	})
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}

	if len(history) == 0 {
		performance := make(map[string]ModelPerformance, len(modelNames))
		for _, m := range modelNames {
			performance[m] = ModelPerformance{CurrentWeight: current[m]}
		}
		return &Report{
			Weights:          current,
			TotalUpdates:     0,
			ModelPerformance: performance,
			WeightEvolution:  []WeightSnapshot{},
			Recommendation:   "Not enough data. Weights will adapt as predictions are compared to actual values.",
		}, nil
	}

	modelErrors := make(map[string][]float64, len(modelNames))
	bestCounts := make(map[string]int, len(modelNames))
	for _, entry := range history {
		if len(entry.Errors) == 0 {
			continue
		}
		best, _ := bestAndWorst(entry.Errors)
		bestCounts[best]++
		for _, m := range modelNames {
			if e, ok := entry.Errors[m]; ok {
				modelErrors[m] = append(modelErrors[m], e)
			}
		}
	}

	performance := make(map[string]ModelPerformance, len(modelNames))
	for _, m := range modelNames {
		errs := modelErrors[m]
		perf := ModelPerformance{BestCount: bestCounts[m], CurrentWeight: current[m]}
		if len(errs) > 0 {
			perf.AvgError = round2(meanOf(errs))
			perf.StdError = round2(stddevOf(errs))
			perf.MaxError = round2(maxOf(errs))
			perf.MinError = round2(minOf(errs))
		}
		performance[m] = perf
	}

	bestModel := modelNames[0]
	for _, m := range modelNames[1:] {
		if bestCounts[m] > bestCounts[bestModel] {
			bestModel = m
		}
	}

	if len(evolution) > evolutionWindow {
		evolution = evolution[len(evolution)-evolutionWindow:]
	}

	return &Report{
		Weights:          current,
		TotalUpdates:     len(history),
		ModelPerformance: performance,
		WeightEvolution:  evolution,
		BestModel:        bestModel,
		Recommendation: fmt.Sprintf(
			"%s has been the most accurate model (%d times best). Current weight: %.1f%%. "+
				"The ensemble adapts automatically - no manual tuning needed.",
			strings.ToUpper(bestModel), bestCounts[bestModel], current[bestModel]*100),
	}, nil
}

// Simulate replays the adaptation over a historical series and per-model
// prediction series, without touching stored state. Days a model has no
// prediction for score zero error.
func Simulate(history []float64, perModel map[string][]float64) *Simulation {
	current := forecast.DefaultWeights()
	evolution := []map[string]float64{copyWeights(current)}

	for i, actual := range history {
		errs := make(map[string]float64, len(modelNames))
		for _, m := range modelNames {
			pred := actual
			if preds, ok := perModel[m]; ok && i < len(preds) {
				pred = preds[i]
			}
			errs[m] = math.Abs(actual - pred)
		}
		current = adaptWeights(current, errs)
		evolution = append(evolution, copyWeights(current))
	}

	return &Simulation{
		InitialWeights: forecast.DefaultWeights(),
		FinalWeights:   current,
		Evolution:      evolution,
		DaysSimulated:  len(history),
	}
}

// RunGC runs Badger's value log garbage collection until there is nothing
// left to rewrite. Meant to be called periodically from the supervisor.
func (s *Store) RunGC() {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("value log GC stopped")
			return
		}
	}
}

func bestAndWorst(errs map[string]float64) (best, worst string) {
	for _, m := range modelNames {
		if _, ok := errs[m]; !ok {
			continue
		}
		if best == "" || errs[m] < errs[best] {
			best = m
		}
		if worst == "" || errs[m] > errs[worst] {
			worst = m
		}
	}
	return best, worst
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, out interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// appendJSON reads the list at key into buf, appends entry, and writes it
// back inside the same transaction.
func appendJSON(txn *badger.Txn, key string, entry interface{}, buf interface{}) error {
	if err := getJSON(txn, key, buf); err != nil {
		return err
	}
	switch list := buf.(type) {
	case *[]ErrorObservation:
		*list = append(*list, entry.(ErrorObservation))
		return setJSON(txn, key, *list)
	case *[]WeightSnapshot:
		*list = append(*list, entry.(WeightSnapshot))
		return setJSON(txn, key, *list)
	default:
		return fmt.Errorf("appendJSON: unsupported list type %T", buf)
	}
}

func copyWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// badgerLogger adapts zerolog to Badger's logger interface.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}
