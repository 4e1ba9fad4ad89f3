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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldvoice/fieldvoice-hub/internal/api"
	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/messaging"
	"github.com/fieldvoice/fieldvoice-hub/internal/metrics"
	"github.com/fieldvoice/fieldvoice-hub/internal/storage"
)

// Version is stamped at build time.
var Version = "dev"

// Server represents the FieldVoice hub HTTP service
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	pipeline      *api.PipelineHandler
	closeout      *api.CloseoutHandler
	commandEvents *api.CommandEventsHandler
	reports       *api.ReportEventsHandler

	db   *storage.Database
	nats *messaging.NATSService

	emailConfigured bool

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// Deps bundles the wired services the server exposes.
type Deps struct {
	Pipeline        *api.PipelineHandler
	Closeout        *api.CloseoutHandler
	CommandEvents   *api.CommandEventsHandler
	Reports         *api.ReportEventsHandler
	DB              *storage.Database
	NATS            *messaging.NATSService
	EmailConfigured bool
}

// New creates the hub server with its routes configured.
func New(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:             cfg,
		mux:             mux,
		pipeline:        deps.Pipeline,
		closeout:        deps.Closeout,
		commandEvents:   deps.CommandEvents,
		reports:         deps.Reports,
		db:              deps.DB,
		nats:            deps.NATS,
		emailConfigured: deps.EmailConfigured,
		ctx:             ctx,
		cancel:          cancel,
	}

	s.server = &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s
}

// Start starts the HTTP server. Blocks until shutdown.
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 FieldVoice Hub starting",
		"addr", s.server.Addr,
		"version", Version,
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down FieldVoice Hub")

	// Cancel context to stop background services
	s.cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Sugar.Infow("✅ FieldVoice Hub shut down successfully")
	return nil
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.handle("/", s.handleRoot)
	s.handle("/health", s.handleHealth)

	s.handle("/transcribe", s.pipeline.HandleTranscribe)
	s.handle("/summarize", s.pipeline.HandleSummarize)
	s.handle("/voice-command", s.pipeline.HandleVoiceCommand)
	s.handle("/text-to-speech", s.pipeline.HandleTextToSpeech)

	s.handle("/generate-pdf", s.closeout.HandleGeneratePDF)
	s.handle("/send-email", s.closeout.HandleSendEmail)

	s.handle("/api/command-events", s.commandEvents.HandleCommandEvents)
	s.handle("/api/command-events/", s.commandEvents.HandleCommandEventByID)
	s.handle("/api/reports", s.reports.HandleReports)
	s.handle("/api/reports/", s.reports.HandleReportByID)

	s.mux.Handle("/metrics", promhttp.Handler())

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"voice_command_endpoint", "/voice-command",
		"transcribe_endpoint", "/transcribe",
		"reports_endpoint", "/api/reports",
		"metrics_endpoint", "/metrics",
	)
}

// handle wraps a handler with request logging and metrics.
func (s *Server) handle(path string, handler http.HandlerFunc) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler(recorder, r)

		metrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(recorder.status)).Inc()
		logging.Sugar.Debugw("HTTP request",
			"method", r.Method,
			"path", path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleRoot answers discovery probes on / the same way /health does.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.handleHealth(w, r)
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"openai":   "configured",
		"email":    "not_configured",
		"nats":     "disabled",
		"database": "unavailable",
	}

	if s.emailConfigured {
		services["email"] = "configured"
	}
	if s.nats != nil {
		if s.nats.IsConnected() {
			services["nats"] = "connected"
		} else {
			services["nats"] = "disconnected"
		}
	}
	if s.db != nil {
		if err := s.db.Ping(); err == nil {
			services["database"] = "ok"
		}
	}

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "fieldvoice-hub",
		"version":   Version,
		"services":  services,
		"config": map[string]interface{}{
			"max_audio_size_mb": s.cfg.Audio.MaxSizeMB,
			"supported_formats": s.cfg.Audio.SupportedFormats,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Sugar.Errorw("Failed to write health response", "error", err)
	}
}
