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

package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("OpenAI.BaseURL = %q, want %q", cfg.OpenAI.BaseURL, "https://api.openai.com/v1")
	}
	if cfg.OpenAI.GPTModel != "gpt-4o-mini" {
		t.Errorf("OpenAI.GPTModel = %q, want %q", cfg.OpenAI.GPTModel, "gpt-4o-mini")
	}
	if cfg.OpenAI.ExtractModel != "gpt-4-turbo-preview" {
		t.Errorf("OpenAI.ExtractModel = %q, want %q", cfg.OpenAI.ExtractModel, "gpt-4-turbo-preview")
	}
	if cfg.Audio.MaxSizeMB != 25 {
		t.Errorf("Audio.MaxSizeMB = %d, want %d", cfg.Audio.MaxSizeMB, 25)
	}
	wantFormats := []string{"m4a", "mp4", "wav", "mp3", "webm"}
	if len(cfg.Audio.SupportedFormats) != len(wantFormats) {
		t.Fatalf("Audio.SupportedFormats = %v, want %v", cfg.Audio.SupportedFormats, wantFormats)
	}
	for i, f := range wantFormats {
		if cfg.Audio.SupportedFormats[i] != f {
			t.Errorf("Audio.SupportedFormats[%d] = %q, want %q", i, cfg.Audio.SupportedFormats[i], f)
		}
	}
	if cfg.TTS.Model != "tts-1" {
		t.Errorf("TTS.Model = %q, want %q", cfg.TTS.Model, "tts-1")
	}
	if cfg.TTS.Voice != "alloy" {
		t.Errorf("TTS.Voice = %q, want %q", cfg.TTS.Voice, "alloy")
	}
	if cfg.Storage.DBPath != "./data/fieldvoice-hub.db" {
		t.Errorf("Storage.DBPath = %q, want %q", cfg.Storage.DBPath, "./data/fieldvoice-hub.db")
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("NATS.URL = %q, want %q", cfg.NATS.URL, "nats://localhost:4222")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing OPENAI_API_KEY, got nil")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "server configuration",
			envVars: map[string]string{
				"FIELDVOICE_HOST":         "127.0.0.1",
				"PORT":                    "8000",
				"FIELDVOICE_READ_TIMEOUT": "15s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Host != "127.0.0.1" {
					t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
				}
				if cfg.Server.Port != 8000 {
					t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8000)
				}
				if cfg.Server.ReadTimeout != 15*time.Second {
					t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
				}
			},
		},
		{
			name: "openai configuration",
			envVars: map[string]string{
				"OPENAI_BASE_URL": "http://localhost:8080/v1",
				"GPT_MODEL":       "gpt-4o",
				"GPT_MAX_TOKENS":  "900",
				"GPT_TEMPERATURE": "0.1",
				"STT_LANGUAGE":    "es",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.OpenAI.BaseURL != "http://localhost:8080/v1" {
					t.Errorf("OpenAI.BaseURL = %q, want %q", cfg.OpenAI.BaseURL, "http://localhost:8080/v1")
				}
				if cfg.OpenAI.GPTModel != "gpt-4o" {
					t.Errorf("OpenAI.GPTModel = %q, want %q", cfg.OpenAI.GPTModel, "gpt-4o")
				}
				if cfg.OpenAI.MaxTokens != 900 {
					t.Errorf("OpenAI.MaxTokens = %d, want %d", cfg.OpenAI.MaxTokens, 900)
				}
				if cfg.OpenAI.Temperature != 0.1 {
					t.Errorf("OpenAI.Temperature = %f, want %f", cfg.OpenAI.Temperature, 0.1)
				}
				if cfg.OpenAI.Language != "es" {
					t.Errorf("OpenAI.Language = %q, want %q", cfg.OpenAI.Language, "es")
				}
			},
		},
		{
			name: "audio formats list",
			envVars: map[string]string{
				"SUPPORTED_AUDIO_FORMATS": "wav, mp3",
				"MAX_AUDIO_SIZE_MB":       "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				if len(cfg.Audio.SupportedFormats) != 2 {
					t.Fatalf("Audio.SupportedFormats = %v, want 2 entries", cfg.Audio.SupportedFormats)
				}
				if cfg.Audio.SupportedFormats[0] != "wav" || cfg.Audio.SupportedFormats[1] != "mp3" {
					t.Errorf("Audio.SupportedFormats = %v, want [wav mp3]", cfg.Audio.SupportedFormats)
				}
				if cfg.Audio.MaxSizeMB != 10 {
					t.Errorf("Audio.MaxSizeMB = %d, want %d", cfg.Audio.MaxSizeMB, 10)
				}
			},
		},
		{
			name: "email recipients list",
			envVars: map[string]string{
				"EMAIL_PROVIDER":   "sendgrid",
				"SENDGRID_API_KEY": "SG.test",
				"EMAIL_FROM":       "reports@example.com",
				"EMAIL_RECIPIENTS": "ops@example.com,dispatch@example.com",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Email.Provider != "sendgrid" {
					t.Errorf("Email.Provider = %q, want %q", cfg.Email.Provider, "sendgrid")
				}
				if len(cfg.Email.Recipients) != 2 {
					t.Fatalf("Email.Recipients = %v, want 2 entries", cfg.Email.Recipients)
				}
				if !cfg.EmailConfigured() {
					t.Error("EmailConfigured() = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "invalid port",
			envVars: map[string]string{"PORT": "99999"},
		},
		{
			name:    "unknown email provider",
			envVars: map[string]string{"EMAIL_PROVIDER": "carrier-pigeon"},
		},
		{
			name:    "zero TTS concurrency",
			envVars: map[string]string{"TTS_MAX_CONCURRENT": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Fatal("Load() expected error, got nil")
			}
		})
	}
}

func TestEmailConfigured_SMTP(t *testing.T) {
	cfg := &Config{
		Email: EmailConfig{
			Provider:   "smtp",
			Recipients: []string{"ops@example.com"},
		},
	}
	if cfg.EmailConfigured() {
		t.Error("EmailConfigured() = true without credentials, want false")
	}

	cfg.Email.SMTPUsername = "reports@example.com"
	cfg.Email.SMTPPassword = "app-password"
	if !cfg.EmailConfigured() {
		t.Error("EmailConfigured() = false with credentials, want true")
	}
}
