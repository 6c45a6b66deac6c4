// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package config loads and validates Focalis configuration from layered
// sources: struct defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Focalis server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Weights  WeightsConfig  `koanf:"weights"`
	Forecast ForecastConfig `koanf:"forecast"`
	Behavior BehaviorConfig `koanf:"behavior"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings for the activity store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" runs fully in-memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads caps DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// WeightsConfig holds BadgerDB settings for the adaptive weight optimizer.
type WeightsConfig struct {
	// Path is the Badger directory. Empty runs in-memory (tests).
	Path string `koanf:"path"`
	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ForecastConfig holds ensemble forecasting settings.
type ForecastConfig struct {
	// DefaultDays is the horizon used when the request omits ?days=.
	DefaultDays int `koanf:"default_days"`
	// MaxDays caps the requested horizon.
	MaxDays int `koanf:"max_days"`
	// StrategyTimeout bounds each strategy's forecast during fan-out.
	StrategyTimeout time.Duration `koanf:"strategy_timeout"`

	// LSTM network hyperparameters.
	LSTMHiddenSize   int     `koanf:"lstm_hidden_size"`
	LSTMEpochs       int     `koanf:"lstm_epochs"`
	LSTMLearningRate float64 `koanf:"lstm_learning_rate"`

	// ARIMAAutoOrder enables AIC order selection over a small grid
	// instead of the fixed (1,0,0) order.
	ARIMAAutoOrder bool `koanf:"arima_auto_order"`
}

// BehaviorConfig holds defaults for the behavioral analyzers.
type BehaviorConfig struct {
	FatigueWindowHours  int `koanf:"fatigue_window_hours"`
	SwitchWindowHours   int `koanf:"switch_window_hours"`
	ProcrastinationDays int `koanf:"procrastination_days"`
	MoodDays            int `koanf:"mood_days"`

	// GrangerAnalytic selects the OLS F-test Granger causality path.
	// When false the lag-1 correlation heuristic is used instead.
	GrangerAnalytic bool `koanf:"granger_analytic"`
}

// APIConfig holds API middleware settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for contract violations.
// It is called automatically by LoadWithKoanf.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Forecast.MaxDays < 1 {
		return fmt.Errorf("forecast.max_days must be positive, got %d", c.Forecast.MaxDays)
	}
	if c.Forecast.DefaultDays < 1 || c.Forecast.DefaultDays > c.Forecast.MaxDays {
		return fmt.Errorf("forecast.default_days must be between 1 and forecast.max_days (%d), got %d",
			c.Forecast.MaxDays, c.Forecast.DefaultDays)
	}
	if c.Forecast.StrategyTimeout <= 0 {
		return fmt.Errorf("forecast.strategy_timeout must be positive, got %s", c.Forecast.StrategyTimeout)
	}
	if c.Forecast.LSTMHiddenSize < 1 {
		return fmt.Errorf("forecast.lstm_hidden_size must be positive, got %d", c.Forecast.LSTMHiddenSize)
	}
	if c.Forecast.LSTMEpochs < 1 {
		return fmt.Errorf("forecast.lstm_epochs must be positive, got %d", c.Forecast.LSTMEpochs)
	}
	if c.Forecast.LSTMLearningRate <= 0 {
		return fmt.Errorf("forecast.lstm_learning_rate must be positive, got %f", c.Forecast.LSTMLearningRate)
	}
	if c.Behavior.FatigueWindowHours < 1 {
		return fmt.Errorf("behavior.fatigue_window_hours must be positive, got %d", c.Behavior.FatigueWindowHours)
	}
	if c.Behavior.SwitchWindowHours < 1 {
		return fmt.Errorf("behavior.switch_window_hours must be positive, got %d", c.Behavior.SwitchWindowHours)
	}
	if c.Behavior.ProcrastinationDays < 1 {
		return fmt.Errorf("behavior.procrastination_days must be positive, got %d", c.Behavior.ProcrastinationDays)
	}
	if c.Behavior.MoodDays < 1 {
		return fmt.Errorf("behavior.mood_days must be positive, got %d", c.Behavior.MoodDays)
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("api.rate_limit_reqs must be positive, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("api.rate_limit_window must be positive, got %s", c.API.RateLimitWindow)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
