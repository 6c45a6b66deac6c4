// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// InsertActivity persists one activity event. Missing IDs are generated and
// zero timestamps are coerced to now.
func (s *Store) InsertActivity(ctx context.Context, event *models.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if !event.Category.Valid() {
		event.Category = models.CategorizeApp(event.AppName)
	}

	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, app_name, category, duration_minutes, timestamp, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.AppName, string(event.Category),
		event.DurationMinutes, event.Timestamp.UTC(), time.Now().UTC())
	metrics.RecordStoreQuery("INSERT", "activities", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns the user's activity events in [since, until),
// ordered by timestamp ascending.
func (s *Store) ListActivities(ctx context.Context, userID string, since, until time.Time) ([]models.ActivityEvent, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, app_name, category, duration_minutes, timestamp
		 FROM activities
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp ASC`,
		userID, since.UTC(), until.UTC())
	metrics.RecordStoreQuery("SELECT", "activities", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var events []models.ActivityEvent
	for rows.Next() {
		var e models.ActivityEvent
		var category string
		if err := rows.Scan(&e.ID, &e.UserID, &e.AppName, &category, &e.DurationMinutes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		e.Category = models.Category(category)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	return events, nil
}

// DailyProductiveMinutes returns per-day productive minute sums for the user
// over [since, until), ordered by day. Days without productive activity are
// absent; callers dense-fill as needed.
func (s *Store) DailyProductiveMinutes(ctx context.Context, userID string, since, until time.Time) (map[string]float64, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT strftime(timestamp, '%Y-%m-%d') AS day, SUM(duration_minutes)
		 FROM activities
		 WHERE user_id = ? AND category = 'productive' AND timestamp >= ? AND timestamp < ?
		 GROUP BY day
		 ORDER BY day`,
		userID, since.UTC(), until.UTC())
	metrics.RecordStoreQuery("SELECT", "activities", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily productive minutes: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var day string
		var minutes float64
		if err := rows.Scan(&day, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals[day] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily totals: %w", err)
	}
	return totals, nil
}
