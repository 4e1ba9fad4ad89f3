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
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks request problems the caller should surface as a 400
// rather than an upstream failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError creates a validation error with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err originated from request validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AudioLimits bounds inbound audio payloads.
type AudioLimits struct {
	MaxSizeMB        int
	SupportedFormats []string
}

// DecodeAudio validates and decodes a base64 audio payload.
func DecodeAudio(encoded, format string, limits AudioLimits) ([]byte, error) {
	if encoded == "" {
		return nil, validationErrorf("no audio data provided")
	}

	if !formatSupported(format, limits.SupportedFormats) {
		return nil, validationErrorf("unsupported audio format: %s", format)
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, validationErrorf("invalid base64 audio data")
	}

	sizeMB := float64(len(audio)) / (1024 * 1024)
	if sizeMB > float64(limits.MaxSizeMB) {
		return nil, validationErrorf("audio file too large: %.1fMB (max: %dMB)", sizeMB, limits.MaxSizeMB)
	}

	return audio, nil
}

func formatSupported(format string, supported []string) bool {
	for _, f := range supported {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}
