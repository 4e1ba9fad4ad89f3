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

// Package email delivers closeout reports to the configured recipient list.
// Delivery is pluggable behind the Provider interface so the hub can run
// against SendGrid in production and plain SMTP everywhere else.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

// ErrNotConfigured is returned when no email provider credentials are set.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Provider sends a single plain-text message to the given recipients.
type Provider interface {
	Send(ctx context.Context, to []string, subject, body string) error
	Name() string
}

// Service composes closeout emails from a summary and hands them to the
// configured provider.
type Service struct {
	provider   Provider
	recipients []string
	now        func() time.Time
}

// NewService builds the delivery service from config. It returns a service
// with a nil provider when email is unconfigured so callers can still compose
// subjects and bodies.
func NewService(cfg config.EmailConfig) *Service {
	s := &Service{
		recipients: cfg.Recipients,
		now:        time.Now,
	}

	switch {
	case cfg.Provider == "sendgrid" && cfg.SendGridAPIKey != "":
		s.provider = NewSendGridProvider(cfg)
	case cfg.Provider == "smtp" && cfg.SMTPHost != "":
		s.provider = NewSMTPProvider(cfg)
	}

	if s.provider != nil {
		logging.Sugar.Infow("📧 Email delivery configured",
			"provider", s.provider.Name(),
			"recipients", len(cfg.Recipients),
		)
	} else {
		logging.Sugar.Warn("📧 Email delivery not configured, send-email will report failure")
	}

	return s
}

// Configured reports whether a provider and at least one recipient exist.
func (s *Service) Configured() bool {
	return s.provider != nil && len(s.recipients) > 0
}

// Recipients returns the configured recipient list.
func (s *Service) Recipients() []string {
	return s.recipients
}

// SendCloseout composes the closeout email for the summary and delivers it.
// It returns the recipients the message was addressed to.
func (s *Service) SendCloseout(ctx context.Context, summary *report.CloseoutSummary, transcription, technicianName string) ([]string, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	now := s.now()
	subject := report.EmailSubject(summary, technicianName, now)
	body := report.EmailBody(summary, transcription, now)

	startTime := time.Now()
	if err := s.provider.Send(ctx, s.recipients, subject, body); err != nil {
		logging.LogReportStage("email_failed",
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return s.recipients, fmt.Errorf("failed to send closeout email: %w", err)
	}

	logging.LogReportStage("email_sent",
		zap.String("provider", s.provider.Name()),
		zap.Int("recipients", len(s.recipients)),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
	)

	return s.recipients, nil
}
