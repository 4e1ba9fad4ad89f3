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

// Package llm contains the REST clients for the OpenAI-compatible services the
// hub delegates to: Whisper transcription, chat completions, and speech
// synthesis. All requests share one breaker-wrapped HTTP client so a flailing
// upstream fails fast instead of stacking timeouts.
package llm

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
)

// Client is the shared transport for all OpenAI REST calls.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates the shared OpenAI transport.
func NewClient(cfg config.OpenAIConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logging.Sugar != nil {
				logging.Sugar.Warnw("⚡ Circuit breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			}
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: breaker,
	}
}

// do sends a request through the circuit breaker. Non-2xx responses count as
// failures and surface the upstream error body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			closeBody(resp)
			return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*http.Response), nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil && logging.Logger != nil {
		logging.Logger.Warn("failed to close response body", zap.Error(err))
	}
}
