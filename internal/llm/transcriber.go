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

import "context"

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe converts an audio clip to text. format is the container the
	// clip was recorded in (m4a, wav, ...).
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)

	// Close cleans up resources
	Close() error
}

// TextToSpeech synthesizes spoken audio from text.
type TextToSpeech interface {
	// Synthesize converts text to speech audio, returning the audio bytes and
	// their MIME content type.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)

	// Close cleans up resources
	Close() error
}
