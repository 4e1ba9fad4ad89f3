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

// Package metrics exposes the hub's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldvoice_http_requests_total",
		Help: "Total HTTP requests served, by path and status code",
	}, []string{"path", "status"})

	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldvoice_voice_commands_total",
		Help: "Total voice commands processed, by resulting action and status",
	}, []string{"action", "status"})

	TranscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldvoice_transcriptions_total",
		Help: "Total transcription requests, by status",
	}, []string{"status"})

	ReportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldvoice_reports_generated_total",
		Help: "Total closeout reports produced, by kind (summary, pdf, email)",
	}, []string{"kind"})

	OpenAILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldvoice_openai_latency_seconds",
		Help:    "Latency of OpenAI API calls, by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	AudioPayloadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldvoice_audio_payload_bytes",
		Help:    "Size distribution of inbound audio payloads",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)
