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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldvoice/fieldvoice-hub/internal/events"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

func TestMain(m *testing.M) {
	_ = logging.InitializeWithConfig(logging.LogConfig{Level: "error", Format: "console"})
	code := m.Run()
	logging.Close()
	os.Exit(code)
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func newCommandEvent(t *testing.T, action string) *events.CommandEvent {
	t.Helper()

	event := events.NewCommandEvent("req_test")
	event.SetScreenContext("closeout_form", "edit")
	event.SetAudioMetadata([]byte("fake audio"), "m4a")
	event.SetTranscription("set the location to downtown office")
	event.SetInterpretation(action, "location", "Downtown Office", 0.95, "Updated Location")
	return event
}

func TestDatabase_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := NewDatabase(DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.GetPath() != path {
		t.Errorf("GetPath() = %q, want %q", db.GetPath(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
}

func TestCommandEventsStore_InsertAndGet(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	event := newCommandEvent(t, "update_field")
	if err := store.Insert(context.Background(), event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByUUID(context.Background(), event.UUID)
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}

	if got.UUID != event.UUID {
		t.Errorf("UUID = %q, want %q", got.UUID, event.UUID)
	}
	if got.Action != "update_field" || got.Target != "location" || got.Value != "Downtown Office" {
		t.Errorf("interpretation = %q/%q/%q", got.Action, got.Target, got.Value)
	}
	if got.ScreenName != "closeout_form" || got.Mode != "edit" {
		t.Errorf("screen context = %q/%q", got.ScreenName, got.Mode)
	}
	if got.AudioHash != event.AudioHash || got.AudioBytes != event.AudioBytes {
		t.Error("audio metadata did not round-trip")
	}
	if !got.Success {
		t.Error("Success did not round-trip")
	}
}

func TestCommandEventsStore_InsertInvalid(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	event := newCommandEvent(t, "update_field")
	event.UUID = ""

	if err := store.Insert(context.Background(), event); err == nil {
		t.Error("Insert() should reject invalid events")
	}
}

func TestCommandEventsStore_ListAndCount(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	actions := []string{"update_field", "update_field", "navigate", "clarify"}
	for _, action := range actions {
		if err := store.Insert(context.Background(), newCommandEvent(t, action)); err != nil {
			t.Fatalf("Insert(%s) error = %v", action, err)
		}
	}

	all, err := store.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() returned %d events, want 4", len(all))
	}

	updates, err := store.List(context.Background(), ListOptions{Action: "update_field"})
	if err != nil {
		t.Fatalf("List(action) error = %v", err)
	}
	if len(updates) != 2 {
		t.Errorf("List(action=update_field) returned %d, want 2", len(updates))
	}

	count, err := store.Count(context.Background(), ListOptions{Action: "update_field"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	page, err := store.List(context.Background(), ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List(paginated) error = %v", err)
	}
	if len(page) != 2 {
		t.Errorf("paginated List() returned %d, want 2", len(page))
	}
}

func TestCommandEventsStore_GetByAudioHash(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	event := newCommandEvent(t, "update_field")
	if err := store.Insert(context.Background(), event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	dupes, err := store.GetByAudioHash(context.Background(), event.AudioHash)
	if err != nil {
		t.Fatalf("GetByAudioHash() error = %v", err)
	}
	if len(dupes) != 1 || dupes[0].UUID != event.UUID {
		t.Errorf("GetByAudioHash() = %v, want the inserted event", dupes)
	}
}

func TestCommandEventsStore_RespectsContextCancellation(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Insert(ctx, newCommandEvent(t, "update_field")); err == nil {
		t.Error("Insert() should fail with a canceled context")
	}
	if _, err := store.List(ctx, ListOptions{}); err == nil {
		t.Error("List() should fail with a canceled context")
	}
	if _, err := store.Count(ctx, ListOptions{}); err == nil {
		t.Error("Count() should fail with a canceled context")
	}
}

func TestCommandEventsStore_Delete(t *testing.T) {
	store := NewCommandEventsStore(newTestDatabase(t))

	event := newCommandEvent(t, "update_field")
	if err := store.Insert(context.Background(), event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := store.Delete(context.Background(), event.UUID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(context.Background(), event.UUID); err == nil {
		t.Error("Delete() of missing event should error")
	}
}

func TestReportsStore_InsertAndGet(t *testing.T) {
	store := NewReportsStore(newTestDatabase(t))

	event := events.NewReportEvent(events.SourceSummarize)
	event.SetSummary(&report.CloseoutSummary{
		TechnicianName: "Jordan Reyes",
		Location:       "Plant 7",
		WorkCompleted:  "Replaced the failed PSU.",
	}, "raw transcription")

	if err := store.Insert(context.Background(), event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByUUID(context.Background(), event.UUID)
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}

	if got.TechnicianName != "Jordan Reyes" || got.Location != "Plant 7" {
		t.Errorf("indexed fields = %q/%q", got.TechnicianName, got.Location)
	}
	if got.Summary == nil || got.Summary.WorkCompleted != "Replaced the failed PSU." {
		t.Errorf("summary did not round-trip: %+v", got.Summary)
	}
	if got.Source != events.SourceSummarize {
		t.Errorf("Source = %q, want summarize", got.Source)
	}
}

func TestReportsStore_ListFilters(t *testing.T) {
	store := NewReportsStore(newTestDatabase(t))

	for _, tech := range []string{"Jordan Reyes", "Jordan Reyes", "Sam Okafor"} {
		event := events.NewReportEvent(events.SourceSummarize)
		event.SetSummary(&report.CloseoutSummary{TechnicianName: tech}, "")
		if err := store.Insert(context.Background(), event); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	byTech, err := store.List(context.Background(), ReportListOptions{TechnicianName: "Jordan Reyes"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(byTech) != 2 {
		t.Errorf("List(technician) returned %d, want 2", len(byTech))
	}

	count, err := store.Count(context.Background(), ReportListOptions{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestReportsStore_GetMissing(t *testing.T) {
	store := NewReportsStore(newTestDatabase(t))

	_, err := store.GetByUUID(context.Background(), "does-not-exist")
	if err == nil {
		t.Error("GetByUUID() of missing report should error")
	}
	if err != nil && !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not-found", err)
	}
}
