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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lpernett/godotenv"
)

// Config holds all configuration for the FieldVoice hub
type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	Audio   AudioConfig
	TTS     TTSConfig
	Email   EmailConfig
	Storage StorageConfig
	NATS    NATSConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OpenAIConfig holds configuration for the OpenAI REST clients
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	GPTModel     string  // conversational model for the voice agent
	ExtractModel string  // extraction model for closeout summarization
	MaxTokens    int
	Temperature  float32
	Language     string // transcription language hint
	Timeout      time.Duration
}

// AudioConfig holds limits for inbound audio payloads
type AudioConfig struct {
	MaxSizeMB        int
	SupportedFormats []string
}

// TTSConfig holds text-to-speech synthesis configuration
type TTSConfig struct {
	Model          string
	Voice          string
	ResponseFormat string        // audio format (mp3, wav, opus, flac)
	MaxConcurrent  int           // maximum concurrent synthesis requests
	Timeout        time.Duration // request timeout
}

// EmailConfig holds closeout email delivery configuration
type EmailConfig struct {
	Provider       string // "sendgrid" or "smtp"
	FromEmail      string
	FromName       string
	Recipients     []string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DBPath string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("FIELDVOICE_HOST", "0.0.0.0"),
			Port:         getEnvInt("PORT", 3000),
			ReadTimeout:  getEnvDuration("FIELDVOICE_READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getEnvDuration("FIELDVOICE_WRITE_TIMEOUT", 60*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:       getEnvString("OPENAI_API_KEY", ""),
			BaseURL:      getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GPTModel:     getEnvString("GPT_MODEL", "gpt-4o-mini"),
			ExtractModel: getEnvString("EXTRACT_MODEL", "gpt-4-turbo-preview"),
			MaxTokens:    getEnvInt("GPT_MAX_TOKENS", 500),
			Temperature:  getEnvFloat32("GPT_TEMPERATURE", 0.3),
			Language:     getEnvString("STT_LANGUAGE", "en"),
			Timeout:      getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Audio: AudioConfig{
			MaxSizeMB:        getEnvInt("MAX_AUDIO_SIZE_MB", 25),
			SupportedFormats: getEnvStringSlice("SUPPORTED_AUDIO_FORMATS", []string{"m4a", "mp4", "wav", "mp3", "webm"}),
		},
		TTS: TTSConfig{
			Model:          getEnvString("TTS_MODEL", "tts-1"),
			Voice:          getEnvString("TTS_VOICE", "alloy"),
			ResponseFormat: getEnvString("TTS_FORMAT", "mp3"),
			MaxConcurrent:  getEnvInt("TTS_MAX_CONCURRENT", 10),
			Timeout:        getEnvDuration("TTS_TIMEOUT", 30*time.Second),
		},
		Email: EmailConfig{
			Provider:       getEnvString("EMAIL_PROVIDER", "smtp"),
			FromEmail:      getEnvString("EMAIL_FROM", ""),
			FromName:       getEnvString("EMAIL_FROM_NAME", "FieldVoice"),
			Recipients:     getEnvStringSlice("EMAIL_RECIPIENTS", nil),
			SendGridAPIKey: getEnvString("SENDGRID_API_KEY", ""),
			SMTPHost:       getEnvString("SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:       getEnvInt("SMTP_PORT", 587),
			SMTPUsername:   getEnvString("EMAIL_USER", ""),
			SMTPPassword:   getEnvString("EMAIL_PASSWORD", ""),
		},
		Storage: StorageConfig{
			DBPath: getEnvString("DB_PATH", "./data/fieldvoice-hub.db"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be provided")
	}

	if c.OpenAI.BaseURL == "" {
		return fmt.Errorf("OpenAI base URL must be provided")
	}

	if c.Audio.MaxSizeMB <= 0 {
		return fmt.Errorf("max audio size must be positive: %d", c.Audio.MaxSizeMB)
	}

	if len(c.Audio.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format is required")
	}

	if c.TTS.MaxConcurrent <= 0 {
		return fmt.Errorf("TTS max concurrent must be positive: %d", c.TTS.MaxConcurrent)
	}

	switch c.Email.Provider {
	case "sendgrid", "smtp":
	default:
		return fmt.Errorf("unknown email provider: %s", c.Email.Provider)
	}

	return nil
}

// EmailConfigured reports whether the hub has enough configuration to send
// closeout emails. An unconfigured hub still serves every other endpoint.
func (c *Config) EmailConfigured() bool {
	if len(c.Email.Recipients) == 0 {
		return false
	}
	switch c.Email.Provider {
	case "sendgrid":
		return c.Email.SendGridAPIKey != "" && c.Email.FromEmail != ""
	case "smtp":
		return c.Email.SMTPUsername != "" && c.Email.SMTPPassword != ""
	}
	return false
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
