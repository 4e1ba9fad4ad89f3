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
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Report brand palette.
var (
	accentColor = rgb{255, 107, 53} // orange headings and labels
	inkColor    = rgb{26, 26, 26}
	mutedColor  = rgb{128, 128, 128}
)

type rgb struct{ r, g, b int }

// PDFGenerator renders closeout summaries as letter-format PDF reports.
type PDFGenerator struct{}

// NewPDFGenerator creates a PDF generator.
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate renders the closeout report and returns the PDF bytes.
func (g *PDFGenerator) Generate(summary *CloseoutSummary, transcription string, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(72, 72, 72)
	pdf.SetAutoPageBreak(true, 54)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-40)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(mutedColor.r, mutedColor.g, mutedColor.b)
		pdf.CellFormat(0, 12, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// Title block
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(inkColor.r, inkColor.g, inkColor.b)
	pdf.CellFormat(0, 32, "Field Service Closeout Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(mutedColor.r, mutedColor.g, mutedColor.b)
	pdf.CellFormat(0, 16, "Generated: "+now.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	if tech := summary.TechnicianName; tech != "" {
		g.writeValue(pdf, "Technician: "+tech)
	}
	if loc := summary.Location; loc != "" {
		g.writeValue(pdf, "Location: "+loc)
	}
	if dt := summary.Datetime; dt != "" {
		g.writeValue(pdf, "Date/Time: "+dt)
	}

	for _, section := range Sections() {
		g.writeSectionHeading(pdf, section.Title)
		for _, field := range section.Fields {
			value := summary.FieldValue(field.Key)
			if isBlank(value) {
				value = notSpecified
			}
			g.writeFieldLabel(pdf, field.Question)
			g.writeValue(pdf, value)
		}
	}

	g.writeSectionHeading(pdf, "Original Transcription")
	g.writeValue(pdf, transcription)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *PDFGenerator) writeSectionHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(14)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(accentColor.r, accentColor.g, accentColor.b)
	pdf.CellFormat(0, 20, title, "", 1, "L", false, 0, "")
}

func (g *PDFGenerator) writeFieldLabel(pdf *gofpdf.Fpdf, label string) {
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(accentColor.r, accentColor.g, accentColor.b)
	pdf.MultiCell(0, 15, label, "", "L", false)
}

func (g *PDFGenerator) writeValue(pdf *gofpdf.Fpdf, value string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(inkColor.r, inkColor.g, inkColor.b)
	pdf.SetLeftMargin(86) // indent values under their label
	pdf.MultiCell(0, 14, value, "", "L", false)
	pdf.SetLeftMargin(72)
}

// Filename returns the attachment filename for a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("report_%s.pdf", t.Format("20060102_150405"))
}
