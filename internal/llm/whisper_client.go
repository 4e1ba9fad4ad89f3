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
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/metrics"
)

const whisperModel = "whisper-1"

// WhisperClient implements the Transcriber interface against the OpenAI
// `/audio/transcriptions` endpoint.
type WhisperClient struct {
	client   *Client
	language string
}

// whisperResponse is the JSON shape of a transcription result.
type whisperResponse struct {
	Text string `json:"text"`
}

// NewWhisperClient creates a Whisper transcription client.
func NewWhisperClient(client *Client, language string) *WhisperClient {
	return &WhisperClient{
		client:   client,
		language: language,
	}
}

// Transcribe implements the Transcriber interface.
func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if len(audio) == 0 {
		return "", validationErrorf("empty audio data")
	}

	startTime := time.Now()
	requestID := fmt.Sprintf("req_%d", startTime.UnixNano())

	logging.Sugar.Infow("Sending transcription request",
		"request_id", requestID,
		"bytes", len(audio),
		"format", format,
	)

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	audioWriter, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := audioWriter.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}

	_ = writer.WriteField("model", whisperModel)
	_ = writer.WriteField("language", w.language)
	_ = writer.WriteField("temperature", "0.0")
	_ = writer.WriteField("response_format", "json")

	contentType := writer.FormDataContentType()
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.client.endpoint("/audio/transcriptions"), &requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.do(req)
	if err != nil {
		metrics.OpenAILatency.WithLabelValues("transcribe").Observe(time.Since(startTime).Seconds())
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	metrics.OpenAILatency.WithLabelValues("transcribe").Observe(time.Since(startTime).Seconds())

	logging.Sugar.Infow("Transcription completed",
		"request_id", requestID,
		"chars", len(result.Text),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return result.Text, nil
}

// Close implements the Transcriber interface.
func (w *WhisperClient) Close() error {
	return nil
}
