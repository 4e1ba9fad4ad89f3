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

// Package report defines the closeout summary model shared by the extraction,
// PDF, and email pipelines, and the catalog of questions a closeout answers.
package report

import "strings"

// CloseoutSummary is the structured field-service closeout record. Every field
// is an optional string: the extractor fills what the technician mentioned and
// leaves the rest empty.
type CloseoutSummary struct {
	// Closeout notes
	OnsiteContact        string `json:"onsite_contact,omitempty"`
	SupportContact       string `json:"support_contact,omitempty"`
	WorkCompleted        string `json:"work_completed,omitempty"`
	Delays               string `json:"delays,omitempty"`
	TroubleshootingSteps string `json:"troubleshooting_steps,omitempty"`
	ScopeCompleted       string `json:"scope_completed,omitempty"`
	ReleasedBy           string `json:"released_by,omitempty"`
	ReleaseCode          string `json:"release_code,omitempty"`
	ReturnTracking       string `json:"return_tracking,omitempty"`

	// Expenses
	Expenses      string `json:"expenses,omitempty"`
	MaterialsUsed string `json:"materials_used,omitempty"`

	// Out of scope
	OutOfScopeWork string `json:"out_of_scope_work,omitempty"`

	// Photos
	PhotosUploaded string `json:"photos_uploaded,omitempty"`

	// Additional context
	Location       string `json:"location,omitempty"`
	Datetime       string `json:"datetime,omitempty"`
	TechnicianName string `json:"technician_name,omitempty"`
}

// Field pairs a summary key with the question it answers on the closeout form.
type Field struct {
	Key      string
	Question string
}

// Section groups closeout fields under a report heading.
type Section struct {
	Title  string
	Fields []Field
}

// NotMentioned is the extractor's filler for fields absent from a transcription.
const NotMentioned = "Not mentioned"

// Sections returns the closeout form layout in render order. The PDF, the
// email body, and the extraction prompt all iterate this catalog so the three
// outputs never drift apart.
func Sections() []Section {
	return []Section{
		{
			Title: "Closeout Notes",
			Fields: []Field{
				{Key: "onsite_contact", Question: "Who did you meet with on-site?"},
				{Key: "support_contact", Question: "Who did you work with for support?"},
				{Key: "work_completed", Question: "What work was completed?"},
				{Key: "delays", Question: "Were there any delays?"},
				{Key: "troubleshooting_steps", Question: "What troubleshooting steps did you take?"},
				{Key: "scope_completed", Question: "Was the scope completed successfully?"},
				{Key: "released_by", Question: "Who released you?"},
				{Key: "release_code", Question: "Is there a release code? If so, what is it?"},
				{Key: "return_tracking", Question: "Is there a return tracking number? If so, what is it?"},
			},
		},
		{
			Title: "Expenses",
			Fields: []Field{
				{Key: "expenses", Question: "Did you have any expenses (parking fees, etc)?"},
				{Key: "materials_used", Question: "What materials did you use?"},
			},
		},
		{
			Title: "Out of Scope",
			Fields: []Field{
				{Key: "out_of_scope_work", Question: "Was there any out of scope work? If so, what is it and who approved the work?"},
			},
		},
		{
			Title: "Photos",
			Fields: []Field{
				{Key: "photos_uploaded", Question: "How many photos did you upload?"},
			},
		},
	}
}

// ContextFields returns the additional context keys the extractor also fills.
func ContextFields() []Field {
	return []Field{
		{Key: "location", Question: "Any location mentioned"},
		{Key: "datetime", Question: "Any date/time mentioned"},
		{Key: "technician_name", Question: "Any technician name mentioned"},
	}
}

// fields maps JSON keys to their storage so FieldValue, SetField, Merge, and
// IsEmpty stay in lockstep with the struct definition.
func (s *CloseoutSummary) fields() map[string]*string {
	return map[string]*string{
		"onsite_contact":        &s.OnsiteContact,
		"support_contact":       &s.SupportContact,
		"work_completed":        &s.WorkCompleted,
		"delays":                &s.Delays,
		"troubleshooting_steps": &s.TroubleshootingSteps,
		"scope_completed":       &s.ScopeCompleted,
		"released_by":           &s.ReleasedBy,
		"release_code":          &s.ReleaseCode,
		"return_tracking":       &s.ReturnTracking,
		"expenses":              &s.Expenses,
		"materials_used":        &s.MaterialsUsed,
		"out_of_scope_work":     &s.OutOfScopeWork,
		"photos_uploaded":       &s.PhotosUploaded,
		"location":              &s.Location,
		"datetime":              &s.Datetime,
		"technician_name":       &s.TechnicianName,
	}
}

// FieldValue returns the value stored under a JSON key, or "" for unknown keys.
func (s *CloseoutSummary) FieldValue(key string) string {
	if p, ok := s.fields()[key]; ok {
		return *p
	}
	return ""
}

// SetField stores a value under a JSON key. Unknown keys are ignored.
func (s *CloseoutSummary) SetField(key, value string) {
	if p, ok := s.fields()[key]; ok {
		*p = value
	}
}

// IsEmpty reports whether no field carries a meaningful value. "Not mentioned"
// filler counts as empty.
func (s *CloseoutSummary) IsEmpty() bool {
	for _, p := range s.fields() {
		if !isBlank(*p) {
			return false
		}
	}
	return true
}

// Merge overlays non-empty fields from other onto s. Incoming values win;
// "Not mentioned" filler never overwrites real data.
func (s *CloseoutSummary) Merge(other *CloseoutSummary) {
	if other == nil {
		return
	}
	dst := s.fields()
	for key, p := range other.fields() {
		if !isBlank(*p) {
			*dst[key] = *p
		}
	}
}

func isBlank(v string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || strings.EqualFold(trimmed, NotMentioned)
}
