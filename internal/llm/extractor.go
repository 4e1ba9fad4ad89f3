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
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

const extractorSystemPrompt = "You are a specialized AI for extracting field service closeout information. Always respond with valid JSON only."

// CloseoutExtractor pulls structured closeout data out of a voice
// transcription using a chat completion.
type CloseoutExtractor struct {
	chat        *ChatClient
	model       string
	maxTokens   int
	temperature float32
}

// NewCloseoutExtractor creates a closeout data extractor.
func NewCloseoutExtractor(chat *ChatClient, model string) *CloseoutExtractor {
	return &CloseoutExtractor{
		chat:        chat,
		model:       model,
		maxTokens:   800,
		temperature: 0.1, // low temperature for consistent extraction
	}
}

// Extract analyzes a transcription and returns the closeout summary. Any
// upstream or parse failure degrades to an empty summary: the technician can
// still fill the form by hand, so extraction never fails the request.
func (e *CloseoutExtractor) Extract(ctx context.Context, transcription string) *report.CloseoutSummary {
	logging.Sugar.Infow("Extracting closeout data", "transcription_chars", len(transcription))

	response, err := e.chat.Complete(ctx, ChatRequest{
		Model:       e.model,
		System:      extractorSystemPrompt,
		User:        e.buildPrompt(transcription),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		logging.LogError(err, "Closeout data extraction failed")
		return &report.CloseoutSummary{}
	}

	summary, err := parseSummaryJSON(response)
	if err != nil {
		logging.LogError(err, "Failed to parse extraction response")
		return &report.CloseoutSummary{}
	}

	logging.Sugar.Infow("Successfully extracted closeout data", "empty", summary.IsEmpty())
	return summary
}

// buildPrompt renders the extraction prompt from the closeout form catalog so
// the questions asked of the model match the PDF and email output exactly.
func (e *CloseoutExtractor) buildPrompt(transcription string) string {
	var b strings.Builder

	b.WriteString("You are an AI assistant helping to extract structured closeout information from a field technician's voice report.\n\n")
	b.WriteString("Please analyze the following transcription and extract information for these specific categories. ")
	b.WriteString("If information is not mentioned, leave the field empty or mark as \"Not mentioned\".\n\n")
	fmt.Fprintf(&b, "TRANSCRIPTION:\n%q\n\n", transcription)
	b.WriteString("Please extract and format the following information in JSON format:\n")

	for _, section := range report.Sections() {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(section.Title))
		for _, field := range section.Fields {
			fmt.Fprintf(&b, "- %s: %s\n", field.Key, field.Question)
		}
	}

	b.WriteString("\nADDITIONAL CONTEXT:\n")
	for _, field := range report.ContextFields() {
		fmt.Fprintf(&b, "- %s: %s\n", field.Key, field.Question)
	}

	b.WriteString("\nPlease respond with ONLY a JSON object containing these fields. Use \"Not mentioned\" for fields that aren't discussed in the transcription.")

	return b.String()
}

// parseSummaryJSON extracts the first JSON object from a model reply. Models
// occasionally wrap the object in prose or code fences; scanning from the
// first '{' to the last '}' tolerates both.
func parseSummaryJSON(response string) (*report.CloseoutSummary, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var summary report.CloseoutSummary
	if err := json.Unmarshal([]byte(response[start:end+1]), &summary); err != nil {
		return nil, fmt.Errorf("invalid JSON in extraction response: %w", err)
	}

	return &summary, nil
}
