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

// ReportsStore handles database operations for closeout report events
type ReportsStore struct {
	db *Database
}

// NewReportsStore creates a new reports store
func NewReportsStore(db *Database) *ReportsStore {
	return &ReportsStore{db: db}
}

// Insert stores a new report event in the database
func (s *ReportsStore) Insert(ctx context.Context, event *events.ReportEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid report event: %w", err)
	}

	summaryJSON, err := event.SummaryJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
		INSERT INTO report_events (
			uuid, timestamp,
			technician_name, location,
			transcription, summary,
			source, processing_time_ms
		) VALUES (
			?, ?,
			?, ?,
			?, ?,
			?, ?
		)`

	_, err = s.db.DB().ExecContext(ctx, query,
		event.UUID, event.Timestamp,
		event.TechnicianName, event.Location,
		event.Transcription, summaryJSON,
		event.Source, event.ProcessingTime,
	)

	if err != nil {
		return fmt.Errorf("failed to insert report event: %w", err)
	}

	logging.Sugar.Debugw("📝 Stored report event",
		"uuid", event.UUID,
		"technician", event.TechnicianName,
		"source", event.Source,
	)
	return nil
}

// GetByUUID retrieves a report event by its UUID
func (s *ReportsStore) GetByUUID(ctx context.Context, uuid string) (*events.ReportEvent, error) {
	query := `
		SELECT uuid, timestamp,
			   technician_name, location,
			   transcription, summary,
			   source, processing_time_ms
		FROM report_events
		WHERE uuid = ?`

	row := s.db.DB().QueryRowContext(ctx, query, uuid)
	return s.scanReportEvent(row)
}

// List retrieves report events with pagination and filtering
func (s *ReportsStore) List(ctx context.Context, options ReportListOptions) ([]*events.ReportEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.ReportEvent
	for rows.Next() {
		event, err := s.scanReportEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report events: %w", err)
	}

	return eventsList, nil
}

// Count returns the total number of report events matching the filter
func (s *ReportsStore) Count(ctx context.Context, options ReportListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRowContext(ctx, countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count report events: %w", err)
	}

	return count, nil
}

// Delete removes a report event by UUID
func (s *ReportsStore) Delete(ctx context.Context, uuid string) error {
	result, err := s.db.DB().ExecContext(ctx, "DELETE FROM report_events WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete report event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("report event not found: %s", uuid)
	}

	return nil
}

// ReportListOptions defines filtering and pagination options for reports
type ReportListOptions struct {
	// Filtering
	TechnicianName string
	Location       string
	Source         string
	StartTime      *time.Time
	EndTime        *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "technician_name", "processing_time_ms"
	SortOrder string // "ASC", "DESC"
}

// buildListQuery constructs the SQL query based on ReportListOptions
func (s *ReportsStore) buildListQuery(options ReportListOptions) (string, []interface{}) {
	query := `
		SELECT uuid, timestamp,
			   technician_name, location,
			   transcription, summary,
			   source, processing_time_ms
		FROM report_events WHERE 1=1`

	var args []interface{}

	if options.TechnicianName != "" {
		query += " AND technician_name = ?"
		args = append(args, options.TechnicianName)
	}

	if options.Location != "" {
		query += " AND location = ?"
		args = append(args, options.Location)
	}

	if options.Source != "" {
		query += " AND source = ?"
		args = append(args, options.Source)
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
	case "timestamp", "technician_name", "processing_time_ms":
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

// scanReportEvent scans a database row into a ReportEvent struct
func (s *ReportsStore) scanReportEvent(scanner interface{}) (*events.ReportEvent, error) {
	var event events.ReportEvent
	var summaryJSON string

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
		&event.UUID, &event.Timestamp,
		&event.TechnicianName, &event.Location,
		&event.Transcription, &summaryJSON,
		&event.Source, &event.ProcessingTime,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report event not found")
		}
		return nil, err
	}

	if err := event.SetSummaryFromJSON(summaryJSON); err != nil {
		return nil, fmt.Errorf("failed to parse summary JSON: %w", err)
	}

	return &event, nil
}
