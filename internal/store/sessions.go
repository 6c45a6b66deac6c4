// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focalhq/focalis/internal/metrics"
	"github.com/focalhq/focalis/internal/models"
)

// InsertSession persists one focus session.
func (s *Store) InsertSession(ctx context.Context, session *models.FocusSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().UTC()
	}

	var endTime interface{}
	if session.EndTime != nil {
		endTime = session.EndTime.UTC()
	}

	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO focus_sessions (id, user_id, start_time, end_time, planned_duration, actual_duration, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.StartTime.UTC(), endTime,
		session.PlannedDuration, session.ActualDuration, session.Completed, time.Now().UTC())
	metrics.RecordStoreQuery("INSERT", "focus_sessions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert focus session: %w", err)
	}
	return nil
}

// ListSessions returns the user's focus sessions starting in [since, until),
// ordered by start time ascending.
func (s *Store) ListSessions(ctx context.Context, userID string, since, until time.Time) ([]models.FocusSession, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, start_time, end_time, planned_duration, actual_duration, completed
		 FROM focus_sessions
		 WHERE user_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC`,
		userID, since.UTC(), until.UTC())
	metrics.RecordStoreQuery("SELECT", "focus_sessions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.FocusSession
	for rows.Next() {
		var fs models.FocusSession
		var endTime sql.NullTime
		if err := rows.Scan(&fs.ID, &fs.UserID, &fs.StartTime, &endTime, &fs.PlannedDuration, &fs.ActualDuration, &fs.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan focus session row: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time
			fs.EndTime = &t
		}
		sessions = append(sessions, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate focus session rows: %w", err)
	}
	return sessions, nil
}
