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
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

type fakeMailer struct {
	configured bool
	recipients []string
	err        error
	gotSummary *report.CloseoutSummary
	gotTech    string
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) SendCloseout(_ context.Context, summary *report.CloseoutSummary, _, technicianName string) ([]string, error) {
	f.gotSummary = summary
	f.gotTech = technicianName
	return f.recipients, f.err
}

func TestHandleGeneratePDF(t *testing.T) {
	h := NewCloseoutHandler(&fakeMailer{})

	rec := postJSON(t, h.HandleGeneratePDF, "/generate-pdf", map[string]interface{}{
		"summary": map[string]string{
			"work_completed":  "Replaced the router.",
			"technician_name": "Jordan Reyes",
		},
		"transcription": "raw transcription",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename=report_") || !strings.HasSuffix(cd, ".pdf") {
		t.Errorf("Content-Disposition = %q, want report_YYYYMMDD_HHMMSS.pdf attachment", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body does not start with a PDF header")
	}
}

func TestHandleGeneratePDF_MissingSummary(t *testing.T) {
	h := NewCloseoutHandler(&fakeMailer{})

	rec := postJSON(t, h.HandleGeneratePDF, "/generate-pdf", map[string]string{
		"transcription": "raw transcription",
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSendEmail(t *testing.T) {
	mailer := &fakeMailer{configured: true, recipients: []string{"dispatch@example.com"}}
	h := NewCloseoutHandler(mailer)

	rec := postJSON(t, h.HandleSendEmail, "/send-email", map[string]interface{}{
		"summary":         map[string]string{"work_completed": "Replaced the router."},
		"transcription":   "raw transcription",
		"technician_name": "Jordan Reyes",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp sendEmailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false: %s", resp.Message)
	}
	if len(resp.Recipients) != 1 || resp.Recipients[0] != "dispatch@example.com" {
		t.Errorf("recipients = %v", resp.Recipients)
	}
	if mailer.gotTech != "Jordan Reyes" {
		t.Errorf("technician passed to mailer = %q", mailer.gotTech)
	}
}

func TestHandleSendEmail_NotConfigured(t *testing.T) {
	h := NewCloseoutHandler(&fakeMailer{configured: false})

	rec := postJSON(t, h.HandleSendEmail, "/send-email", map[string]interface{}{
		"summary": map[string]string{},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with success=false", rec.Code)
	}

	var resp sendEmailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success = true for unconfigured email")
	}
	if resp.Recipients == nil {
		t.Error("recipients should be an empty array, not null")
	}
}

func TestHandleSendEmail_ProviderFailureIsNot500(t *testing.T) {
	h := NewCloseoutHandler(&fakeMailer{
		configured: true,
		recipients: []string{"dispatch@example.com"},
		err:        errors.New("relay refused"),
	})

	rec := postJSON(t, h.HandleSendEmail, "/send-email", map[string]interface{}{
		"summary": map[string]string{},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with success=false", rec.Code)
	}

	var resp sendEmailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success = true for failed delivery")
	}
	if !strings.Contains(resp.Message, "relay refused") {
		t.Errorf("message = %q, want provider error surfaced", resp.Message)
	}
}
