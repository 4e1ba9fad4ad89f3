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

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/metrics"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

// mailer delivers closeout reports. Satisfied by email.Service.
type mailer interface {
	Configured() bool
	SendCloseout(ctx context.Context, summary *report.CloseoutSummary, transcription, technicianName string) ([]string, error)
}

// CloseoutHandler serves the report output endpoints: PDF generation and
// email delivery.
type CloseoutHandler struct {
	pdf   *report.PDFGenerator
	email mailer
	now   func() time.Time
}

// NewCloseoutHandler creates the closeout handler.
func NewCloseoutHandler(email mailer) *CloseoutHandler {
	return &CloseoutHandler{
		pdf:   report.NewPDFGenerator(),
		email: email,
		now:   time.Now,
	}
}

type generatePDFRequest struct {
	Summary       *report.CloseoutSummary `json:"summary"`
	Transcription string                  `json:"transcription"`
}

// HandleGeneratePDF handles POST /generate-pdf
func (h *CloseoutHandler) HandleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generatePDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Summary == nil {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	now := h.now()
	pdfBytes, err := h.pdf.Generate(req.Summary, req.Transcription, now)
	if err != nil {
		logging.LogError(err, "PDF generation failed")
		writeError(w, http.StatusInternalServerError, "PDF generation failed")
		return
	}

	metrics.ReportsGeneratedTotal.WithLabelValues("pdf").Inc()
	logging.LogReportStage("pdf_generated", zap.Int("bytes", len(pdfBytes)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}

type sendEmailRequest struct {
	Summary        *report.CloseoutSummary `json:"summary"`
	Transcription  string                  `json:"transcription"`
	TechnicianName string                  `json:"technician_name"`
}

type sendEmailResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// HandleSendEmail handles POST /send-email. Provider failures come back as
// success=false in the body, not as HTTP errors, so the app can show the
// technician what happened and offer a retry.
func (h *CloseoutHandler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Summary == nil {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	if !h.email.Configured() {
		writeJSON(w, http.StatusOK, sendEmailResponse{
			Success:    false,
			Message:    "Email delivery is not configured",
			Recipients: []string{},
		})
		return
	}

	recipients, err := h.email.SendCloseout(r.Context(), req.Summary, req.Transcription, req.TechnicianName)
	if recipients == nil {
		recipients = []string{}
	}
	if err != nil {
		writeJSON(w, http.StatusOK, sendEmailResponse{
			Success:    false,
			Message:    fmt.Sprintf("Failed to send email: %v", err),
			Recipients: recipients,
		})
		return
	}

	metrics.ReportsGeneratedTotal.WithLabelValues("email").Inc()

	writeJSON(w, http.StatusOK, sendEmailResponse{
		Success:    true,
		Message:    "Closeout report sent",
		Recipients: recipients,
	})
}
