// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerLevels(t *testing.T) {
	var buf bytes.Buffer

	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	slogger := slog.New(handler)

	tests := []struct {
		name    string
		logFunc func()
		level   string
	}{
		{"Debug", func() { slogger.Debug("debug msg") }, "debug"},
		{"Info", func() { slogger.Info("info msg") }, "info"},
		{"Warn", func() { slogger.Warn("warn msg") }, "warn"},
		{"Error", func() { slogger.Error("error msg") }, "error"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.logFunc()
		output := buf.String()
		if !strings.Contains(output, tt.level) {
			t.Errorf("%s: expected level %q in output: %s", tt.name, tt.level, output)
		}
	}
}

func TestSlogHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer

	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	slogger := slog.New(handler)

	slogger.Info("attr test",
		slog.String("str", "value"),
		slog.Int("count", 42),
		slog.Bool("flag", true),
	)

	output := buf.String()
	for _, want := range []string{`"str":"value"`, `"count":42`, `"flag":true`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer

	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	slogger := slog.New(handler).With(slog.String("service", "focalis"))

	slogger.Info("preconfigured")

	output := buf.String()
	if !strings.Contains(output, `"service":"focalis"`) {
		t.Errorf("expected preconfigured attr in output: %s", output)
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer

	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	slogger := slog.New(handler).WithGroup("req")

	slogger.Info("grouped", slog.String("id", "abc"))

	output := buf.String()
	if !strings.Contains(output, `"req.id":"abc"`) {
		t.Errorf("expected group-prefixed key in output: %s", output)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    slog.Level
		expected zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		if got := slogToZerologLevel(tt.input); got != tt.expected {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
