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

// InsertMood persists one mood entry. A second entry for the same user+date
// replaces the first (one check-in per day).
func (s *Store) InsertMood(ctx context.Context, entry *models.MoodEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	day := entry.Date.UTC().Truncate(24 * time.Hour)

	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO mood_entries (id, user_id, date, mood, energy, stress, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		   mood = excluded.mood,
		   energy = excluded.energy,
		   stress = excluded.stress,
		   created_at = excluded.created_at`,
		entry.ID, entry.UserID, day, entry.Mood, entry.Energy, entry.Stress, time.Now().UTC())
	metrics.RecordStoreQuery("INSERT", "mood_entries", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert mood entry: %w", err)
	}
	return nil
}

// ListMoods returns the user's mood entries dated in [since, until),
// ordered by date ascending.
func (s *Store) ListMoods(ctx context.Context, userID string, since, until time.Time) ([]models.MoodEntry, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, date, mood, energy, stress
		 FROM mood_entries
		 WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date ASC`,
		userID, since.UTC(), until.UTC())
	metrics.RecordStoreQuery("SELECT", "mood_entries", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()

	var entries []models.MoodEntry
	for rows.Next() {
		var m models.MoodEntry
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Mood, &m.Energy, &m.Stress); err != nil {
			return nil, fmt.Errorf("failed to scan mood row: %w", err)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mood rows: %w", err)
	}
	return entries, nil
}
