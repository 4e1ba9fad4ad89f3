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

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

// Report sources.
const (
	SourceSummarize = "summarize"
	SourceVoice     = "voice"
)

// ReportEvent represents one generated closeout report
type ReportEvent struct {
	UUID      string    `json:"uuid" db:"uuid"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	TechnicianName string `json:"technician_name" db:"technician_name"`
	Location       string `json:"location" db:"location"`

	Transcription string                  `json:"transcription" db:"transcription"`
	Summary       *report.CloseoutSummary `json:"summary" db:"summary"`

	// Source is "summarize" for direct extraction requests and "voice" for
	// reports produced through the command loop.
	Source         string `json:"source" db:"source"`
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
}

// NewReportEvent creates a new ReportEvent with generated UUID and current timestamp
func NewReportEvent(source string) *ReportEvent {
	return &ReportEvent{
		UUID:      uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// SetSummary records the extracted summary and pulls technician and location
// out of it for indexed queries
func (re *ReportEvent) SetSummary(summary *report.CloseoutSummary, transcription string) {
	re.Summary = summary
	re.Transcription = transcription
	if summary != nil {
		re.TechnicianName = summary.TechnicianName
		re.Location = summary.Location
	}
	re.ProcessingTime = time.Since(re.Timestamp).Milliseconds()
}

// SummaryJSON returns the summary as a JSON string for database storage
func (re *ReportEvent) SummaryJSON() (string, error) {
	if re.Summary == nil {
		return "{}", nil
	}

	data, err := json.Marshal(re.Summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	return string(data), nil
}

// SetSummaryFromJSON parses a JSON string and sets the summary
func (re *ReportEvent) SetSummaryFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "{}" {
		re.Summary = &report.CloseoutSummary{}
		return nil
	}

	var summary report.CloseoutSummary
	if err := json.Unmarshal([]byte(jsonStr), &summary); err != nil {
		return fmt.Errorf("failed to unmarshal summary JSON: %w", err)
	}

	re.Summary = &summary
	return nil
}

// IsValid performs basic validation on the report event
func (re *ReportEvent) IsValid() error {
	if re.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if re.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if re.Source != SourceSummarize && re.Source != SourceVoice {
		return fmt.Errorf("source must be %q or %q", SourceSummarize, SourceVoice)
	}

	return nil
}

// String returns a human-readable representation of the report event
func (re *ReportEvent) String() string {
	return fmt.Sprintf("ReportEvent{UUID: %s, Technician: %s, Location: %s, Source: %s}",
		re.UUID, re.TechnicianName, re.Location, re.Source)
}
