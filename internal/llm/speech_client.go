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

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/metrics"
)

// speechRequest is the payload for the `/audio/speech` endpoint.
type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// SpeechClient implements the TextToSpeech interface against the OpenAI
// `/audio/speech` endpoint. Concurrent synthesis is capped by a semaphore so a
// burst of confirmations cannot starve the transcription path.
type SpeechClient struct {
	client    *Client
	cfg       config.TTSConfig
	semaphore chan struct{}
}

// NewSpeechClient creates a speech synthesis client.
func NewSpeechClient(client *Client, cfg config.TTSConfig) *SpeechClient {
	return &SpeechClient{
		client:    client,
		cfg:       cfg,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Synthesize converts text to speech audio.
func (s *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if text == "" {
		return nil, "", validationErrorf("no text provided")
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		return nil, "", fmt.Errorf("TTS request cancelled while waiting for slot: %w", ctx.Err())
	}

	startTime := time.Now()

	payload, err := json.Marshal(speechRequest{
		Model:          s.cfg.Model,
		Input:          text,
		Voice:          s.cfg.Voice,
		ResponseFormat: s.cfg.ResponseFormat,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal speech request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.client.endpoint("/audio/speech"), bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.do(req)
	if err != nil {
		metrics.OpenAILatency.WithLabelValues("tts").Observe(time.Since(startTime).Seconds())
		return nil, "", fmt.Errorf("speech request failed: %w", err)
	}
	defer closeBody(resp)

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read speech response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForFormat(s.cfg.ResponseFormat)
	}

	metrics.OpenAILatency.WithLabelValues("tts").Observe(time.Since(startTime).Seconds())

	logging.Sugar.Infow("🔊 Speech synthesized",
		"chars", len(text),
		"audio_bytes", len(audio),
		"voice", s.cfg.Voice,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return audio, contentType, nil
}

// Close implements the TextToSpeech interface.
func (s *SpeechClient) Close() error {
	return nil
}

func contentTypeForFormat(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
