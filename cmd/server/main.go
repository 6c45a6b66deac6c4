// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package main is the entry point for the Focalis server.
//
// Focalis is a self-hosted personal productivity analytics service. It
// ingests activity events, focus sessions, and mood check-ins, aggregates
// them into daily and hourly views, forecasts productive time with a
// three-model ensemble whose blend weights adapt per user, and runs
// behavioral analyzers for fatigue, context switching, procrastination,
// and mood-productivity causality.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml, env)
//  2. Logging: zerolog, configured from the loaded settings
//  3. Store: DuckDB for activities, focus sessions, and mood entries
//  4. Weights: BadgerDB for per-user adaptive ensemble weights
//  5. Ensemble: LSTM, ARIMA, and Prophet-style strategies
//  6. HTTP server: chi REST API under /api/v1
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests under a timeout, and
// closes both stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/focalhq/focalis/internal/api"
	"github.com/focalhq/focalis/internal/classify"
	"github.com/focalhq/focalis/internal/config"
	"github.com/focalhq/focalis/internal/forecast"
	"github.com/focalhq/focalis/internal/forecast/weights"
	"github.com/focalhq/focalis/internal/logging"
	"github.com/focalhq/focalis/internal/store"
	"github.com/focalhq/focalis/internal/supervisor"
	"github.com/focalhq/focalis/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("weights_path", cfg.Weights.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Focalis")

	st, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open activity store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing activity store")
		}
	}()

	weightsDB, err := weights.Open(cfg.Weights.Path, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open weight store")
	}
	defer func() {
		if err := weightsDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing weight store")
		}
	}()
	weightStore := weights.New(weightsDB, logging.Logger())

	ensemble := forecast.NewEnsemble([]forecast.Strategy{
		forecast.NewLSTM(forecast.LSTMConfig{
			HiddenSize:   cfg.Forecast.LSTMHiddenSize,
			Epochs:       cfg.Forecast.LSTMEpochs,
			LearningRate: cfg.Forecast.LSTMLearningRate,
		}),
		forecast.NewARIMA(cfg.Forecast.ARIMAAutoOrder),
		forecast.NewProphet(),
	}, weightStore, cfg.Forecast.StrategyTimeout, logging.Logger())

	handler := api.NewHandler(cfg, st, ensemble, weightStore, classify.NewClassifier())
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	tree.AddDataService(services.NewGCService("badger-gc", cfg.Weights.GCInterval, weightStore.RunGC))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Focalis listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}
	logging.Info().Msg("Focalis stopped")
}
