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

package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCloseoutSummary_JSONKeys(t *testing.T) {
	summary := &CloseoutSummary{
		OnsiteContact:  "Jamie Ortiz",
		WorkCompleted:  "Replaced the failed router",
		ReleaseCode:    "RC-1142",
		PhotosUploaded: "4",
		Location:       "Downtown Office",
	}

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	wantKeys := []string{"onsite_contact", "work_completed", "release_code", "photos_uploaded", "location"}
	for _, key := range wantKeys {
		if _, ok := raw[key]; !ok {
			t.Errorf("marshaled summary missing key %q", key)
		}
	}
	if len(raw) != len(wantKeys) {
		t.Errorf("marshaled summary has %d keys, want %d (empty fields must be omitted)", len(raw), len(wantKeys))
	}
}

func TestSections_CoverAllSummaryFields(t *testing.T) {
	catalog := map[string]bool{}
	for _, section := range Sections() {
		for _, field := range section.Fields {
			catalog[field.Key] = true
		}
	}
	for _, field := range ContextFields() {
		catalog[field.Key] = true
	}

	summary := &CloseoutSummary{}
	for key := range summary.fields() {
		if !catalog[key] {
			t.Errorf("summary field %q is not in the section catalog", key)
		}
	}
}

func TestFieldValueAndSetField(t *testing.T) {
	summary := &CloseoutSummary{}

	summary.SetField("onsite_contact", "Sam Lee")
	if got := summary.FieldValue("onsite_contact"); got != "Sam Lee" {
		t.Errorf("FieldValue(onsite_contact) = %q, want %q", got, "Sam Lee")
	}
	if summary.OnsiteContact != "Sam Lee" {
		t.Errorf("OnsiteContact = %q, want %q", summary.OnsiteContact, "Sam Lee")
	}

	// Unknown keys are ignored, not panics.
	summary.SetField("no_such_field", "value")
	if got := summary.FieldValue("no_such_field"); got != "" {
		t.Errorf("FieldValue(no_such_field) = %q, want empty", got)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		summary CloseoutSummary
		want    bool
	}{
		{name: "zero value", summary: CloseoutSummary{}, want: true},
		{name: "only filler", summary: CloseoutSummary{Delays: "Not mentioned", Expenses: "not mentioned"}, want: true},
		{name: "whitespace only", summary: CloseoutSummary{Delays: "   "}, want: true},
		{name: "real data", summary: CloseoutSummary{WorkCompleted: "Swapped PSU"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &CloseoutSummary{
		OnsiteContact: "Jamie Ortiz",
		WorkCompleted: "Replaced router",
	}
	incoming := &CloseoutSummary{
		WorkCompleted: "Replaced router and verified uplink",
		Delays:        "Waited 30 minutes for site access",
		Expenses:      "Not mentioned", // filler must not overwrite
	}

	base.Merge(incoming)

	if base.OnsiteContact != "Jamie Ortiz" {
		t.Errorf("OnsiteContact = %q, want preserved value", base.OnsiteContact)
	}
	if base.WorkCompleted != "Replaced router and verified uplink" {
		t.Errorf("WorkCompleted = %q, want incoming value", base.WorkCompleted)
	}
	if base.Delays != "Waited 30 minutes for site access" {
		t.Errorf("Delays = %q, want incoming value", base.Delays)
	}
	if base.Expenses != "" {
		t.Errorf("Expenses = %q, want empty (filler ignored)", base.Expenses)
	}

	base.Merge(nil) // must not panic
}

func TestEmailSubject(t *testing.T) {
	now := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		summary  CloseoutSummary
		techName string
		want     string
	}{
		{
			name:     "explicit technician",
			summary:  CloseoutSummary{Location: "Downtown Office"},
			techName: "Casey Nguyen",
			want:     "Field Service Closeout - Casey Nguyen - Downtown Office - 2025-06-12",
		},
		{
			name:    "technician from summary",
			summary: CloseoutSummary{TechnicianName: "Sam Lee", Location: "Plant 7"},
			want:    "Field Service Closeout - Sam Lee - Plant 7 - 2025-06-12",
		},
		{
			name:    "defaults",
			summary: CloseoutSummary{},
			want:    "Field Service Closeout - Field Technician - Unknown Location - 2025-06-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmailSubject(&tt.summary, tt.techName, now); got != tt.want {
				t.Errorf("EmailSubject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmailBody(t *testing.T) {
	now := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	summary := &CloseoutSummary{
		OnsiteContact: "Jamie Ortiz",
		WorkCompleted: "Replaced the failed router",
	}

	body := EmailBody(summary, "I met with Jamie and replaced the router.", now)

	for _, want := range []string{
		"Field Service Closeout Report",
		"Generated: 2025-06-12 09:30:00",
		"CLOSEOUT NOTES:",
		"EXPENSES:",
		"OUT OF SCOPE:",
		"PHOTOS:",
		"Who did you meet with on-site?\nJamie Ortiz",
		"What work was completed?\nReplaced the failed router",
		"Were there any delays?\nNot specified",
		"ORIGINAL TRANSCRIPTION:",
		"I met with Jamie and replaced the router.",
		"automatically generated from voice input",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("EmailBody() missing %q", want)
		}
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	now := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	summary := &CloseoutSummary{
		TechnicianName: "Casey Nguyen",
		Location:       "Downtown Office",
		WorkCompleted:  "Replaced the failed router and verified uplink",
		PhotosUploaded: "4",
	}

	gen := NewPDFGenerator()
	data, err := gen.Generate(summary, "Long form transcription text.", now)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Generate() returned empty PDF")
	}
	if !strings.HasPrefix(string(data[:5]), "%PDF-") {
		t.Errorf("PDF header = %q, want %%PDF- prefix", string(data[:5]))
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 6, 12, 9, 30, 45, 0, time.UTC)
	if got, want := Filename(now), "report_20250612_093045.pdf"; got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
