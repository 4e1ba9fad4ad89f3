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

package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config LogConfig
	}{
		{name: "info console", config: LogConfig{Level: "info", Format: "console"}},
		{name: "debug json", config: LogConfig{Level: "debug", Format: "json"}},
		{name: "invalid level falls back to info", config: LogConfig{Level: "chatty", Format: "json"}},
		{name: "invalid format falls back to console", config: LogConfig{Level: "warn", Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := InitializeWithConfig(tt.config); err != nil {
				t.Fatalf("InitializeWithConfig() error = %v", err)
			}
			if Logger == nil || Sugar == nil {
				t.Fatal("Logger/Sugar not set after initialization")
			}
			Close()
		})
	}
}

func TestLogHelpers(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core)
	Sugar = Logger.Sugar()
	defer func() {
		Logger = nil
		Sugar = nil
	}()

	LogVoiceCommand("req-1", "transcribed", zap.Int("chars", 42))
	LogReportStage("pdf_rendered", zap.String("filename", "report.pdf"))
	LogError(errors.New("boom"), "extraction failed")

	entries := observed.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	cmdFields := entries[0].ContextMap()
	if cmdFields["component"] != "voice_agent" {
		t.Errorf("component = %v, want voice_agent", cmdFields["component"])
	}
	if cmdFields["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", cmdFields["request_id"])
	}
	if cmdFields["stage"] != "transcribed" {
		t.Errorf("stage = %v, want transcribed", cmdFields["stage"])
	}

	reportFields := entries[1].ContextMap()
	if reportFields["component"] != "closeout_report" {
		t.Errorf("component = %v, want closeout_report", reportFields["component"])
	}

	if entries[2].Level != zapcore.ErrorLevel {
		t.Errorf("LogError level = %v, want error", entries[2].Level)
	}
}

func TestLogHelpers_NilLoggerIsSafe(t *testing.T) {
	Logger = nil
	Sugar = nil

	// Must not panic before Initialize is called.
	LogVoiceCommand("req-1", "stage")
	LogReportStage("stage")
	LogError(errors.New("boom"), "msg")
	Sync()
}
