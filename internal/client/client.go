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

// Package client is the Go client for the FieldVoice hub REST API. It
// discovers a reachable hub from a candidate URL list and exposes typed
// methods for every endpoint, so the mobile app bridge and the CLI share
// one implementation.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fieldvoice/fieldvoice-hub/internal/agent"
	"github.com/fieldvoice/fieldvoice-hub/internal/api"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

// ErrNoBackend is returned by Discover when no candidate answers its
// health check.
var ErrNoBackend = errors.New("no reachable backend among candidates")

// Per-endpoint timeouts. Transcription and voice commands carry audio
// through Whisper and GPT, so they get the long budget.
const (
	healthTimeout  = 5 * time.Second
	defaultTimeout = 30 * time.Second
	audioTimeout   = 60 * time.Second
)

// Client talks to a FieldVoice hub. The zero value is not usable; create
// one with New.
type Client struct {
	httpClient *http.Client
	candidates []string

	mu      sync.Mutex
	baseURL string
}

// New creates a client that will discover a hub among the given candidate
// base URLs. Candidates are probed in order, so put the most likely URL
// (e.g. the LAN address) first.
func New(candidates ...string) *Client {
	trimmed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimRight(strings.TrimSpace(c), "/")
		if c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return &Client{
		httpClient: &http.Client{},
		candidates: trimmed,
	}
}

// NewWithBaseURL creates a client pinned to a known hub URL, skipping
// discovery entirely.
func NewWithBaseURL(baseURL string) *Client {
	c := New(baseURL)
	if len(c.candidates) > 0 {
		c.baseURL = c.candidates[0]
	}
	return c
}

// Discover probes each candidate's /health endpoint in order and caches
// the first one that answers 200. Subsequent calls return the cached URL
// until Invalidate is called.
func (c *Client) Discover(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseURL != "" {
		return c.baseURL, nil
	}

	for _, candidate := range c.candidates {
		if c.probe(ctx, candidate) {
			c.baseURL = candidate
			return candidate, nil
		}
	}

	return "", ErrNoBackend
}

// Invalidate drops the cached base URL so the next call re-discovers.
// Call it after a request fails with a connection error.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.baseURL = ""
	c.mu.Unlock()
}

func (c *Client) probe(ctx context.Context, baseURL string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// HealthStatus is the hub's health report.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// Health fetches the hub's health report.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.getJSON(ctx, "/health", healthTimeout, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Transcribe sends raw audio bytes for transcription. The audio is
// base64-encoded on the wire.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	reqBody := map[string]string{
		"audio":  base64.StdEncoding.EncodeToString(audio),
		"format": format,
	}
	var resp struct {
		Transcription string `json:"transcription"`
	}
	if err := c.postJSON(ctx, "/transcribe", audioTimeout, reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Transcription, nil
}

// Summarize extracts a structured closeout summary from a transcription.
func (c *Client) Summarize(ctx context.Context, transcription string) (*report.CloseoutSummary, error) {
	reqBody := map[string]string{"transcription": transcription}
	var resp struct {
		Summary *report.CloseoutSummary `json:"summary"`
	}
	if err := c.postJSON(ctx, "/summarize", defaultTimeout, reqBody, &resp); err != nil {
		return nil, err
	}
	return resp.Summary, nil
}

// GeneratePDF renders a closeout report PDF and returns the document
// bytes plus the filename suggested by the hub.
func (c *Client) GeneratePDF(ctx context.Context, summary *report.CloseoutSummary, transcription string) ([]byte, string, error) {
	reqBody := map[string]interface{}{
		"summary":       summary,
		"transcription": transcription,
	}

	resp, err := c.post(ctx, "/generate-pdf", defaultTimeout, reqBody)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", readError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading PDF response: %w", err)
	}

	filename := "report.pdf"
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if i := strings.Index(cd, "filename="); i >= 0 {
			filename = strings.Trim(cd[i+len("filename="):], `"`)
		}
	}
	return data, filename, nil
}

// SendEmailResult reports the outcome of an email delivery attempt.
// Success=false is not an error; the hub reports provider failures in
// the body so callers can surface them to the technician.
type SendEmailResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// SendEmail asks the hub to deliver the closeout report by email.
func (c *Client) SendEmail(ctx context.Context, summary *report.CloseoutSummary, transcription, technicianName string) (*SendEmailResult, error) {
	reqBody := map[string]interface{}{
		"summary":         summary,
		"transcription":   transcription,
		"technician_name": technicianName,
	}
	var result SendEmailResult
	if err := c.postJSON(ctx, "/send-email", defaultTimeout, reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VoiceCommand sends audio plus the app's screen context and returns the
// interpreted command. Interpretation failures come back as a clarify
// response, not an error.
func (c *Client) VoiceCommand(ctx context.Context, audio []byte, format string, screen agent.ScreenContext) (*agent.VoiceCommandResponse, error) {
	reqBody := map[string]interface{}{
		"audio":         base64.StdEncoding.EncodeToString(audio),
		"format":        format,
		"screenContext": screen,
	}
	var resp agent.VoiceCommandResponse
	if err := c.postJSON(ctx, "/voice-command", audioTimeout, reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TextToSpeech synthesizes speech for the given text and returns the
// audio bytes and their content type.
func (c *Client) TextToSpeech(ctx context.Context, text string) ([]byte, string, error) {
	reqBody := map[string]string{"text": text}

	resp, err := c.post(ctx, "/text-to-speech", defaultTimeout, reqBody)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", readError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading audio response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ListReports fetches a page of stored closeout reports.
func (c *Client) ListReports(ctx context.Context, page, pageSize int) (*api.ListReportsResponse, error) {
	path := fmt.Sprintf("/api/reports?page=%d&page_size=%d", page, pageSize)
	var resp api.ListReportsResponse
	if err := c.getJSON(ctx, path, defaultTimeout, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCommandEvents fetches a page of stored voice command events.
func (c *Client) ListCommandEvents(ctx context.Context, page, pageSize int) (*api.ListCommandEventsResponse, error) {
	path := fmt.Sprintf("/api/command-events?page=%d&page_size=%d", page, pageSize)
	var resp api.ListCommandEventsResponse
	if err := c.getJSON(ctx, path, defaultTimeout, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, timeout time.Duration, out interface{}) error {
	baseURL, err := c.Discover(ctx)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, timeout time.Duration, in, out interface{}) error {
	resp, err := c.post(ctx, path, timeout, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, timeout time.Duration, in interface{}) (*http.Response, error) {
	baseURL, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := doPost(reqCtx, c.httpClient, baseURL+path, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func doPost(ctx context.Context, client *http.Client, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

// cancelReadCloser ties a request's timeout cancel to the response body
// so callers can stream the body before the context is released.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// readError extracts the hub's error message from a non-200 response.
func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("hub returned %d: %s", resp.StatusCode, body.Error)
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("hub returned %d: %s", resp.StatusCode, msg)
}
