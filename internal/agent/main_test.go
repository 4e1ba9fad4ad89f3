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
	"os"
	"testing"

	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
)

func TestMain(m *testing.M) {
	_ = logging.InitializeWithConfig(logging.LogConfig{Level: "error", Format: "console"})
	code := m.Run()
	logging.Close()
	os.Exit(code)
}
