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

// Package events defines the persistent records the hub writes for every
// voice command and generated report.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CommandEvent represents one voice command interaction with full traceability
type CommandEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	RequestID string    `json:"request_id" db:"request_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Screen context
	ScreenName string `json:"screen_name" db:"screen_name"`
	Mode       string `json:"mode" db:"mode"`

	// Audio metadata
	AudioHash   string `json:"audio_hash" db:"audio_hash"`
	AudioBytes  int    `json:"audio_bytes" db:"audio_bytes"`
	AudioFormat string `json:"audio_format" db:"audio_format"`

	// Interpretation results
	Transcription string  `json:"transcription" db:"transcription"`
	Action        string  `json:"action" db:"action"`
	Target        string  `json:"target,omitempty" db:"target"`
	Value         string  `json:"value,omitempty" db:"value"`
	Confidence    float64 `json:"confidence" db:"confidence"`

	// Response data
	TTSText        string `json:"tts_text" db:"tts_text"`
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewCommandEvent creates a new CommandEvent with generated UUID and current timestamp
func NewCommandEvent(requestID string) *CommandEvent {
	return &CommandEvent{
		UUID:      uuid.NewString(),
		RequestID: requestID,
		Timestamp: time.Now(),
		Success:   true,
	}
}

// SetScreenContext records which screen the command was issued from
func (ce *CommandEvent) SetScreenContext(screenName, mode string) {
	ce.ScreenName = screenName
	ce.Mode = mode
}

// SetAudioMetadata records audio payload metadata for duplicate detection
func (ce *CommandEvent) SetAudioMetadata(audio []byte, format string) {
	ce.AudioHash = HashAudio(audio)
	ce.AudioBytes = len(audio)
	ce.AudioFormat = format
}

// SetTranscription sets the transcription result
func (ce *CommandEvent) SetTranscription(transcription string) {
	ce.Transcription = transcription
}

// SetInterpretation records the interpreted action and its response text
func (ce *CommandEvent) SetInterpretation(action, target, value string, confidence float64, ttsText string) {
	ce.Action = action
	ce.Target = target
	ce.Value = value
	ce.Confidence = confidence
	ce.TTSText = ttsText
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// SetError marks the event as failed with an error message
func (ce *CommandEvent) SetError(err error) {
	ce.Success = false
	ce.ErrorMessage = err.Error()
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// IsValid performs basic validation on the command event
func (ce *CommandEvent) IsValid() error {
	if ce.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if ce.RequestID == "" {
		return fmt.Errorf("requestID is required")
	}

	if ce.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if ce.Confidence < 0 || ce.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}

	return nil
}

// String returns a human-readable representation of the command event
func (ce *CommandEvent) String() string {
	return fmt.Sprintf("CommandEvent{UUID: %s, Screen: %s, Action: %s, Transcription: %q, Confidence: %.2f, Success: %t}",
		ce.UUID, ce.ScreenName, ce.Action, ce.Transcription, ce.Confidence, ce.Success)
}

// HashAudio generates a SHA-256 hash of the audio payload for duplicate detection
func HashAudio(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}
