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

// Package api contains the HTTP handlers for the hub's REST surface.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/agent"
	"github.com/fieldvoice/fieldvoice-hub/internal/events"
	"github.com/fieldvoice/fieldvoice-hub/internal/llm"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/messaging"
	"github.com/fieldvoice/fieldvoice-hub/internal/metrics"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
	"github.com/fieldvoice/fieldvoice-hub/internal/security"
	"github.com/fieldvoice/fieldvoice-hub/internal/storage"
)

// interpreter runs the voice-command loop. Satisfied by agent.VoiceAgent.
type interpreter interface {
	Interpret(ctx context.Context, transcription string, screen agent.ScreenContext) *agent.VoiceCommandResponse
}

// summarizer extracts closeout summaries. Satisfied by llm.CloseoutExtractor.
type summarizer interface {
	Extract(ctx context.Context, transcription string) *report.CloseoutSummary
}

// PipelineHandler serves the audio-in endpoints: transcribe, summarize,
// voice-command, and text-to-speech.
type PipelineHandler struct {
	transcriber llm.Transcriber
	extractor   summarizer
	agent       interpreter
	tts         llm.TextToSpeech
	limits      llm.AudioLimits

	// Both optional: the pipeline keeps serving without persistence or fan-out.
	commandEvents *storage.CommandEventsStore
	reports       *storage.ReportsStore
	nats          *messaging.NATSService
}

// PipelineDeps bundles the services the pipeline handler needs.
type PipelineDeps struct {
	Transcriber   llm.Transcriber
	Extractor     summarizer
	Agent         interpreter
	TTS           llm.TextToSpeech
	Limits        llm.AudioLimits
	CommandEvents *storage.CommandEventsStore
	Reports       *storage.ReportsStore
	NATS          *messaging.NATSService
}

// NewPipelineHandler creates the pipeline handler.
func NewPipelineHandler(deps PipelineDeps) *PipelineHandler {
	return &PipelineHandler{
		transcriber:   deps.Transcriber,
		extractor:     deps.Extractor,
		agent:         deps.Agent,
		tts:           deps.TTS,
		limits:        deps.Limits,
		commandEvents: deps.CommandEvents,
		reports:       deps.Reports,
		nats:          deps.NATS,
	}
}

type transcribeRequest struct {
	Audio  string `json:"audio"`
	Format string `json:"format"`
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

// HandleTranscribe handles POST /transcribe
func (h *PipelineHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	audio, err := llm.DecodeAudio(req.Audio, req.Format, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.AudioPayloadBytes.Observe(float64(len(audio)))

	transcription, err := h.transcriber.Transcribe(r.Context(), audio, req.Format)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		logging.LogError(err, "Transcription failed")
		writeError(w, http.StatusInternalServerError, "Transcription failed")
		return
	}
	metrics.TranscriptionsTotal.WithLabelValues("success").Inc()

	writeJSON(w, http.StatusOK, transcribeResponse{Transcription: transcription})
}

type summarizeRequest struct {
	Transcription string `json:"transcription"`
}

type summarizeResponse struct {
	Summary *report.CloseoutSummary `json:"summary"`
}

// HandleSummarize handles POST /summarize
func (h *PipelineHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Transcription == "" {
		writeError(w, http.StatusBadRequest, "transcription is required")
		return
	}

	summary := h.extractor.Extract(r.Context(), req.Transcription)
	metrics.ReportsGeneratedTotal.WithLabelValues("summary").Inc()

	h.persistReport(r.Context(), summary, req.Transcription)

	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

type voiceCommandRequest struct {
	Audio         string              `json:"audio"`
	Format        string              `json:"format"`
	ScreenContext agent.ScreenContext `json:"screenContext"`
}

// HandleVoiceCommand handles POST /voice-command
func (h *PipelineHandler) HandleVoiceCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req voiceCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	requestID := fmt.Sprintf("req_%d", time.Now().UnixNano())
	event := events.NewCommandEvent(requestID)
	event.SetScreenContext(req.ScreenContext.ScreenName, req.ScreenContext.Mode)

	audio, err := llm.DecodeAudio(req.Audio, req.Format, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event.SetAudioMetadata(audio, req.Format)
	metrics.AudioPayloadBytes.Observe(float64(len(audio)))

	logging.LogVoiceCommand(requestID, "received",
		zap.String("screen", security.SanitizeLogInput(req.ScreenContext.ScreenName)),
		zap.String("mode", security.SanitizeLogInput(req.ScreenContext.Mode)),
		zap.Int("audio_bytes", len(audio)),
	)

	var response *agent.VoiceCommandResponse
	transcription, err := h.transcriber.Transcribe(r.Context(), audio, req.Format)
	if err != nil {
		// Command errors surface in the response, not as HTTP failures, so
		// the client always has something to speak back to the technician.
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		logging.LogVoiceCommand(requestID, "transcription_failed", zap.Error(err))
		event.SetError(err)
		response = agent.FallbackResponse(err)
	} else {
		metrics.TranscriptionsTotal.WithLabelValues("success").Inc()
		event.SetTranscription(transcription)
		response = h.agent.Interpret(r.Context(), transcription, req.ScreenContext)
		event.SetInterpretation(response.Action, response.Target, response.Value, response.Confidence, response.TTSText)
		event.Success = response.Success
		if !response.Success && response.Clarification != "" {
			event.ErrorMessage = response.Clarification
		}
	}

	h.recordCommand(r.Context(), event, response)

	writeJSON(w, http.StatusOK, response)
}

type ttsRequest struct {
	Text string `json:"text"`
}

// HandleTextToSpeech handles POST /text-to-speech
func (h *PipelineHandler) HandleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	audio, contentType, err := h.tts.Synthesize(r.Context(), req.Text)
	if err != nil {
		if llm.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.LogError(err, "Speech synthesis failed")
		writeError(w, http.StatusInternalServerError, "Speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// persistReport stores a report event and fans it out. Best-effort: failures
// are logged and do not affect the response.
func (h *PipelineHandler) persistReport(ctx context.Context, summary *report.CloseoutSummary, transcription string) {
	event := events.NewReportEvent(events.SourceSummarize)
	event.SetSummary(summary, transcription)

	if h.reports != nil {
		if err := h.reports.Insert(ctx, event); err != nil {
			logging.LogError(err, "Failed to persist report event")
		}
	}

	if h.nats != nil && h.nats.IsConnected() {
		msg := &messaging.ReportMessage{
			UUID:           event.UUID,
			TechnicianName: event.TechnicianName,
			Location:       event.Location,
			Source:         event.Source,
		}
		if err := h.nats.PublishReport(msg); err != nil {
			logging.LogError(err, "Failed to publish report event")
		}
	}
}

// recordCommand stores a command event and fans it out. Best-effort.
func (h *PipelineHandler) recordCommand(ctx context.Context, event *events.CommandEvent, response *agent.VoiceCommandResponse) {
	status := "success"
	if !response.Success {
		status = "error"
	}
	metrics.VoiceCommandsTotal.WithLabelValues(response.Action, status).Inc()

	if h.commandEvents != nil {
		if err := h.commandEvents.Insert(ctx, event); err != nil {
			logging.LogError(err, "Failed to persist command event")
		}
	}

	if h.nats != nil && h.nats.IsConnected() {
		msg := &messaging.CommandMessage{
			RequestID:     event.RequestID,
			ScreenName:    event.ScreenName,
			Transcription: event.Transcription,
			Action:        response.Action,
			Target:        response.Target,
			Value:         response.Value,
			Confidence:    response.Confidence,
			Success:       response.Success,
		}
		if err := h.nats.PublishCommand(msg); err != nil {
			logging.LogError(err, "Failed to publish command event")
		}
	}
}
