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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldvoice/fieldvoice-hub/internal/agent"
	"github.com/fieldvoice/fieldvoice-hub/internal/api"
	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/email"
	"github.com/fieldvoice/fieldvoice-hub/internal/llm"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/messaging"
	"github.com/fieldvoice/fieldvoice-hub/internal/server"
	"github.com/fieldvoice/fieldvoice-hub/internal/storage"
)

func main() {
	// Initialize structured logging
	if err := logging.Initialize(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(err, "Failed to load configuration")
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Storage and NATS are best-effort. The hub still serves the voice
	// pipeline without them; persistence and fan-out just turn off.
	var db *storage.Database
	var commandEvents *storage.CommandEventsStore
	var reports *storage.ReportsStore

	db, err = storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Storage.DBPath})
	if err != nil {
		logging.Sugar.Warnw("⚠️ Database unavailable, event persistence disabled",
			"error", err,
			"db_path", cfg.Storage.DBPath,
		)
		db = nil
	} else {
		defer db.Close()
		commandEvents = storage.NewCommandEventsStore(db)
		reports = storage.NewReportsStore(db)
	}

	var nats *messaging.NATSService
	natsService := messaging.NewNATSService(cfg.NATS)
	if err := natsService.Connect(); err != nil {
		logging.Sugar.Warnw("⚠️ NATS unavailable, event fan-out disabled",
			"error", err,
			"nats_url", cfg.NATS.URL,
		)
	} else {
		nats = natsService
		defer nats.Close()
		if err := nats.PublishSystemEvent("startup", "fieldvoice-hub "+server.Version); err != nil {
			logging.Sugar.Warnw("⚠️ Failed to publish startup event", "error", err)
		}
	}

	// OpenAI clients share one HTTP client behind the circuit breaker.
	client := llm.NewClient(cfg.OpenAI)
	transcriber := llm.NewWhisperClient(client, cfg.OpenAI.Language)
	chat := llm.NewChatClient(client)
	extractor := llm.NewCloseoutExtractor(chat, cfg.OpenAI.ExtractModel)
	voiceAgent := agent.NewVoiceAgent(chat, cfg.OpenAI.GPTModel)
	tts := llm.NewSpeechClient(client, cfg.TTS)

	emailService := email.NewService(cfg.Email)

	deps := server.Deps{
		Pipeline: api.NewPipelineHandler(api.PipelineDeps{
			Transcriber: transcriber,
			Extractor:   extractor,
			Agent:       voiceAgent,
			TTS:         tts,
			Limits: llm.AudioLimits{
				MaxSizeMB:        cfg.Audio.MaxSizeMB,
				SupportedFormats: cfg.Audio.SupportedFormats,
			},
			CommandEvents: commandEvents,
			Reports:       reports,
			NATS:          nats,
		}),
		Closeout:        api.NewCloseoutHandler(emailService),
		CommandEvents:   api.NewCommandEventsHandler(commandEvents),
		Reports:         api.NewReportEventsHandler(reports),
		DB:              db,
		NATS:            nats,
		EmailConfigured: emailService.Configured(),
	}

	srv := server.New(cfg, deps)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Sugar.Infow("📡 Signal received, shutting down", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logging.LogError(err, "Server failed")
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	if err := srv.Stop(); err != nil {
		logging.LogError(err, "Shutdown failed")
		log.Fatalf("Shutdown failed: %v", err)
	}

	if nats != nil {
		if err := nats.PublishSystemEvent("shutdown", "graceful stop"); err != nil {
			logging.Sugar.Warnw("⚠️ Failed to publish shutdown event", "error", err)
		}
	}

	logging.Sugar.Infow("👋 FieldVoice Hub stopped")
}
