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

// Package agent implements the voice-command interpretation loop: a
// transcription plus a snapshot of the app's current screen goes in, a
// structured action the client can dispatch comes out.
package agent

import (
	"fmt"
	"strings"
)

// FieldInfo describes one editable field visible on the client's screen.
type FieldInfo struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	CurrentValue string   `json:"currentValue"`
	Type         string   `json:"type"`
	IsEditable   bool     `json:"isEditable"`
	Synonyms     []string `json:"synonyms,omitempty"`
}

// ScreenContext is the client's snapshot of its UI state, sent with every
// voice command so the model can resolve field names and mode-dependent
// behavior.
type ScreenContext struct {
	ScreenName       string            `json:"screenName"`
	Mode             string            `json:"mode,omitempty"` // "edit" or "preview"
	VisibleFields    []FieldInfo       `json:"visibleFields,omitempty"`
	CurrentValues    map[string]string `json:"currentValues,omitempty"`
	AvailableActions []string          `json:"availableActions,omitempty"`
}

// Voice command actions the agent can return.
const (
	ActionUpdateField         = "update_field"
	ActionNavigate            = "navigate"
	ActionToggleMode          = "toggle_mode"
	ActionClarify             = "clarify"
	ActionExecuteAction       = "execute_action"
	ActionExplainCapabilities = "explain_capabilities"
	ActionProvideSuggestion   = "provide_suggestion"
	ActionAcknowledge         = "acknowledge"
)

// validActions is the closed action vocabulary. Anything else from the model
// is rejected and replaced by the canonical error response.
var validActions = map[string]bool{
	ActionUpdateField:         true,
	ActionNavigate:            true,
	ActionToggleMode:          true,
	ActionClarify:             true,
	ActionExecuteAction:       true,
	ActionExplainCapabilities: true,
	ActionProvideSuggestion:   true,
	ActionAcknowledge:         true,
}

// ValidAction reports whether action belongs to the command vocabulary.
func ValidAction(action string) bool {
	return validActions[action]
}

// VoiceCommandResponse is the structured action returned to the client.
type VoiceCommandResponse struct {
	Action        string            `json:"action"`
	Target        string            `json:"target,omitempty"`
	Value         string            `json:"value,omitempty"`
	Confidence    float64           `json:"confidence"`
	Clarification string            `json:"clarification,omitempty"`
	Confirmation  string            `json:"confirmation"`
	TTSText       string            `json:"ttsText"`
	FieldUpdates  map[string]string `json:"fieldUpdates,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Success       bool              `json:"success"`
}

// FieldLabel resolves a field name to its human label, falling back to the
// name itself.
func (sc *ScreenContext) FieldLabel(name string) string {
	for _, f := range sc.VisibleFields {
		if f.Name == name {
			return f.Label
		}
	}
	return name
}

// formatFields renders the field catalog for the interpretation prompt.
func (sc *ScreenContext) formatFields() string {
	if len(sc.VisibleFields) == 0 {
		return "No editable fields available"
	}

	lines := make([]string, 0, len(sc.VisibleFields))
	for _, f := range sc.VisibleFields {
		lines = append(lines, fmt.Sprintf("- %s ('%s'): Current='%s', Editable=%t, Synonyms=[%s]",
			f.Label, f.Name, f.CurrentValue, f.IsEditable, strings.Join(f.Synonyms, ", ")))
	}
	return strings.Join(lines, "\n")
}

// formatCurrentValues renders the current value map, truncating long values
// so a full transcript does not blow up the prompt.
func (sc *ScreenContext) formatCurrentValues() string {
	if len(sc.CurrentValues) == 0 {
		return "No current values"
	}

	lines := make([]string, 0, len(sc.CurrentValues))
	for _, f := range sc.VisibleFields {
		value, ok := sc.CurrentValues[f.Name]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: '%s'", f.Name, truncateValue(value)))
	}
	// Values for fields not in the visible catalog still matter to the model.
	for key, value := range sc.CurrentValues {
		if sc.isVisibleField(key) {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: '%s'", key, truncateValue(value)))
	}
	return strings.Join(lines, "\n")
}

func (sc *ScreenContext) isVisibleField(name string) bool {
	for _, f := range sc.VisibleFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func truncateValue(value string) string {
	const maxLen = 100
	runes := []rune(value)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return value
}
