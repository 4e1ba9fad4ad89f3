/*
 * This file is part of FieldVoice (https://github.com/fieldvoice/fieldvoice-hub).
 * Copyright (C) 2025 FieldVoice
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldvoice/fieldvoice-hub/internal/events"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
)

// CommandEventsStore handles database operations for voice command events
type CommandEventsStore struct {
	db *Database
}

// NewCommandEventsStore creates a new command events store
func NewCommandEventsStore(db *Database) *CommandEventsStore {
	return &CommandEventsStore{db: db}
}

// Insert stores a new command event in the database
func (s *CommandEventsStore) Insert(ctx context.Context, event *events.CommandEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid command event: %w", err)
	}

	query := `
		INSERT INTO command_events (
			uuid, request_id, timestamp,
			screen_name, mode,
			audio_hash, audio_bytes, audio_format,
			transcription, action, target, value, confidence,
			tts_text, processing_time_ms, success, error_message
		) VALUES (
			?, ?, ?,
			?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?
		)`

	_, err := s.db.DB().ExecContext(ctx, query,
		event.UUID, event.RequestID, event.Timestamp,
		event.ScreenName, event.Mode,
		event.AudioHash, event.AudioBytes, event.AudioFormat,
		event.Transcription, event.Action, event.Target, event.Value, event.Confidence,
		event.TTSText, event.ProcessingTime, event.Success, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert command event: %w", err)
	}

	logging.Sugar.Debugw("📝 Stored command event",
		"uuid", event.UUID,
		"screen", event.ScreenName,
		"action", event.Action,
	)
	return nil
}

// GetByUUID retrieves a command event by its UUID
func (s *CommandEventsStore) GetByUUID(ctx context.Context, uuid string) (*events.CommandEvent, error) {
	query := `
		SELECT uuid, request_id, timestamp,
			   screen_name, mode,
			   audio_hash, audio_bytes, audio_format,
			   transcription, action, target, value, confidence,
			   tts_text, processing_time_ms, success, error_message
		FROM command_events
		WHERE uuid = ?`

	row := s.db.DB().QueryRowContext(ctx, query, uuid)
	return s.scanCommandEvent(row)
}

// List retrieves command events with pagination and filtering
func (s *CommandEventsStore) List(ctx context.Context, options ListOptions) ([]*events.CommandEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query command events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.CommandEvent
	for rows.Next() {
		event, err := s.scanCommandEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating command events: %w", err)
	}

	return eventsList, nil
}

// Count returns the total number of command events matching the filter
func (s *CommandEventsStore) Count(ctx context.Context, options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRowContext(ctx, countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count command events: %w", err)
	}

	return count, nil
}

// GetByAudioHash finds events with the same audio hash (potential duplicates)
func (s *CommandEventsStore) GetByAudioHash(ctx context.Context, audioHash string) ([]*events.CommandEvent, error) {
	return s.List(ctx, ListOptions{AudioHash: audioHash})
}

// Delete removes a command event by UUID
func (s *CommandEventsStore) Delete(ctx context.Context, uuid string) error {
	result, err := s.db.DB().ExecContext(ctx, "DELETE FROM command_events WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete command event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("command event not found: %s", uuid)
	}

	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	ScreenName string
	Action     string
	AudioHash  string
	Success    *bool // nil = all, true = success only, false = errors only
	StartTime  *time.Time
	EndTime    *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "confidence", "processing_time_ms"
	SortOrder string // "ASC", "DESC"
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *CommandEventsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := `
		SELECT uuid, request_id, timestamp,
			   screen_name, mode,
			   audio_hash, audio_bytes, audio_format,
			   transcription, action, target, value, confidence,
			   tts_text, processing_time_ms, success, error_message
		FROM command_events WHERE 1=1`

	var args []interface{}

	if options.ScreenName != "" {
		query += " AND screen_name = ?"
		args = append(args, options.ScreenName)
	}

	if options.Action != "" {
		query += " AND action = ?"
		args = append(args, options.Action)
	}

	if options.AudioHash != "" {
		query += " AND audio_hash = ?"
		args = append(args, options.AudioHash)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	sortBy := options.SortBy
	switch sortBy {
	case "timestamp", "confidence", "processing_time_ms":
	default:
		sortBy = "timestamp"
	}

	sortOrder := options.SortOrder
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanCommandEvent scans a database row into a CommandEvent struct
func (s *CommandEventsStore) scanCommandEvent(scanner interface{}) (*events.CommandEvent, error) {
	var event events.CommandEvent

	var row interface {
		Scan(dest ...interface{}) error
	}

	switch v := scanner.(type) {
	case *sql.Row:
		row = v
	case *sql.Rows:
		row = v
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	err := row.Scan(
		&event.UUID, &event.RequestID, &event.Timestamp,
		&event.ScreenName, &event.Mode,
		&event.AudioHash, &event.AudioBytes, &event.AudioFormat,
		&event.Transcription, &event.Action, &event.Target, &event.Value, &event.Confidence,
		&event.TTSText, &event.ProcessingTime, &event.Success, &event.ErrorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("command event not found")
		}
		return nil, err
	}

	return &event, nil
}
