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

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fieldvoice/fieldvoice-hub/internal/llm"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/security"
)

const agentSystemPrompt = "You are a helpful AI assistant that processes voice commands for a mobile app. Always respond with valid JSON."

// completer is the slice of llm.ChatClient the agent needs.
type completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

// VoiceAgent interprets voice commands against a screen context.
type VoiceAgent struct {
	chat        completer
	model       string
	maxTokens   int
	temperature float32
	now         func() time.Time
}

// NewVoiceAgent creates a voice command agent.
func NewVoiceAgent(chat *llm.ChatClient, model string) *VoiceAgent {
	return &VoiceAgent{
		chat:        chat,
		model:       model,
		maxTokens:   500,
		temperature: 0.1, // low temperature for consistent command interpretation
		now:         time.Now,
	}
}

// Interpret maps a transcribed voice command onto a structured action. It
// never returns an error: failures collapse into a clarify response so the
// client always has something dispatchable to show and speak.
func (a *VoiceAgent) Interpret(ctx context.Context, transcription string, screen ScreenContext) *VoiceCommandResponse {
	if strings.TrimSpace(transcription) == "" {
		return &VoiceCommandResponse{
			Action:        ActionClarify,
			Confidence:    0,
			Clarification: "I didn't hear anything. Could you try again?",
			Confirmation:  "No speech detected",
			TTSText:       "I didn't hear anything. Could you please try again?",
			Success:       false,
		}
	}

	response, err := a.chat.Complete(ctx, llm.ChatRequest{
		Model:       a.model,
		System:      agentSystemPrompt,
		User:        a.buildPrompt(transcription, screen),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		logging.LogError(err, "Voice command completion failed")
		return FallbackResponse(err)
	}

	parsed, err := parseResponse(response)
	if err != nil {
		logging.LogError(err, "Failed to parse voice command response")
		return FallbackResponse(err)
	}

	enhanced := a.enhance(parsed, screen)

	logging.Sugar.Infow("🧠 Voice command interpreted",
		"transcription", security.SanitizeLogInput(transcription),
		"action", enhanced.Action,
		"target", security.SanitizeLogInput(enhanced.Target),
		"confidence", enhanced.Confidence,
	)

	return enhanced
}

// buildPrompt renders the interpretation prompt with the full screen context.
func (a *VoiceAgent) buildPrompt(transcription string, screen ScreenContext) string {
	mode := screen.Mode
	if mode == "" {
		mode = "N/A"
	}

	return fmt.Sprintf(`You are an AI assistant helping a user interact with their mobile voice report app via voice commands.

CURRENT SCREEN: %s
CURRENT MODE: %s

AVAILABLE FIELDS:
%s

CURRENT VALUES:
%s

AVAILABLE ACTIONS:
%s

USER COMMAND: "%s"

Your task is to interpret the user's voice command and determine the appropriate action. Consider:
1. Field name matching (exact, synonyms, and partial matches)
2. Context awareness (what screen they're on, what mode they're in)
3. Natural language variations
4. Common abbreviations and colloquialisms

Respond with a JSON object containing:
{
  "action": "update_field|toggle_mode|navigate|execute_action|clarify",
  "target": "field_name_or_action_name",
  "value": "new_value_if_updating_field",
  "confidence": 0.95,
  "clarification": "Question to ask if confidence < 0.7",
  "confirmation": "Brief confirmation of what was done",
  "ttsText": "Natural spoken response"
}

Rules:
- If confidence < 0.7, use "clarify" action and ask for clarification
- For field updates, use exact field names from the available fields
- For mode changes, use "toggle_mode" action
- For navigation/actions, use "execute_action" with the action name
- Keep TTS responses conversational but concise
- Handle common phrases like "change that", "update the place", etc.

Examples of good responses:
- "Updated! Location is now Downtown Office"
- "I heard 'place' - did you mean the location field?"
- "Switched to edit mode so you can make changes"`,
		screen.ScreenName,
		mode,
		screen.formatFields(),
		screen.formatCurrentValues(),
		strings.Join(screen.AvailableActions, ", "),
		transcription,
	)
}

// parseResponse extracts and validates the JSON action object from a model
// reply.
func parseResponse(response string) (*VoiceCommandResponse, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}
	jsonStr := response[start : end+1]

	// Decode to a map first so missing keys can be told apart from zero values.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}
	for _, required := range []string{"action", "confidence", "confirmation", "ttsText"} {
		if _, ok := raw[required]; !ok {
			return nil, fmt.Errorf("missing required field: %s", required)
		}
	}

	var parsed VoiceCommandResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("invalid response format: %w", err)
	}

	if !ValidAction(parsed.Action) {
		return nil, fmt.Errorf("invalid action: %s", parsed.Action)
	}

	parsed.Success = true
	return &parsed, nil
}

// enhance applies the context-aware post-processing rules to a parsed action.
func (a *VoiceAgent) enhance(r *VoiceCommandResponse, screen ScreenContext) *VoiceCommandResponse {
	// Datetime requests with no explicit value get the current timestamp.
	if r.Action == ActionUpdateField && r.Target == "datetime" && r.Value == "" {
		r.Value = a.now().Format("2006-01-02 15:04")
		r.TTSText = fmt.Sprintf("Added current date and time: %s", r.Value)
	}

	// Edits while previewing need the mode switched first.
	if r.Action == ActionUpdateField && screen.Mode == "preview" {
		r.Action = ActionClarify
		r.Clarification = "You're in preview mode. Should I switch to edit mode first?"
		r.TTSText = "You're in preview mode. Should I switch to edit mode so you can make changes?"
	}

	// Confirmations read better with the field's label than its internal name.
	if r.Action == ActionUpdateField {
		label := screen.FieldLabel(r.Target)
		if r.Value != "" {
			r.Confirmation = fmt.Sprintf("Updated %s to: %s", label, r.Value)
			r.TTSText = fmt.Sprintf("Updated! %s is now %s", label, r.Value)
		}
	}

	// Common action-name variations map onto the canonical actions.
	if r.Action == ActionExecuteAction {
		target := strings.ToLower(r.Target)
		switch {
		case strings.Contains(target, "pdf") || strings.Contains(target, "generate"):
			r.Target = "generate_pdf"
			r.TTSText = "Generating your PDF report now"
		case strings.Contains(target, "edit") && strings.Contains(target, "mode"):
			r.Action = ActionToggleMode
			r.TTSText = "Switched to edit mode"
		case strings.Contains(target, "preview") && strings.Contains(target, "mode"):
			r.Action = ActionToggleMode
			r.TTSText = "Switched to preview mode"
		}
	}

	// Older clients dispatch off fieldUpdates rather than target/value.
	if r.Action == ActionUpdateField && r.Target != "" && r.Value != "" {
		r.FieldUpdates = map[string]string{r.Target: r.Value}
	}

	return r
}

// FallbackResponse is the canonical fallback when interpretation fails.
func FallbackResponse(err error) *VoiceCommandResponse {
	return &VoiceCommandResponse{
		Action:        ActionClarify,
		Confidence:    0,
		Clarification: "I couldn't understand that command. Could you try again?",
		Confirmation:  fmt.Sprintf("Error: %v", err),
		TTSText:       "I didn't catch that. Could you please try again?",
		Success:       false,
	}
}
