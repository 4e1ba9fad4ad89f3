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
	"fmt"
	"strings"
	"time"
)

const (
	sectionRule  = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	notSpecified = "Not specified"
)

// EmailSubject builds the closeout email subject line.
func EmailSubject(summary *CloseoutSummary, technicianName string, now time.Time) string {
	tech := technicianName
	if tech == "" {
		tech = summary.TechnicianName
	}
	if tech == "" {
		tech = "Field Technician"
	}

	location := summary.Location
	if location == "" {
		location = "Unknown Location"
	}

	return fmt.Sprintf("Field Service Closeout - %s - %s - %s", tech, location, now.Format("2006-01-02"))
}

// EmailBody formats the closeout data into a plain-text report email.
func EmailBody(summary *CloseoutSummary, transcription string, now time.Time) string {
	var b strings.Builder

	b.WriteString("Field Service Closeout Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))

	for _, section := range Sections() {
		fmt.Fprintf(&b, "\n%s:\n%s\n", strings.ToUpper(section.Title), sectionRule)
		for _, field := range section.Fields {
			value := summary.FieldValue(field.Key)
			if isBlank(value) {
				value = notSpecified
			}
			fmt.Fprintf(&b, "\n%s\n%s\n", field.Question, value)
		}
	}

	fmt.Fprintf(&b, "\nORIGINAL TRANSCRIPTION:\n%s\n\n%s\n", sectionRule, transcription)

	b.WriteString("\n---\nThis report was automatically generated from voice input using the FieldVoice Field Service App.\n")

	return b.String()
}
