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

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/events"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/security"
	"github.com/fieldvoice/fieldvoice-hub/internal/storage"
)

// CommandEventsHandler handles HTTP requests for persisted voice command events
type CommandEventsHandler struct {
	store *storage.CommandEventsStore
}

// NewCommandEventsHandler creates a new command events handler
func NewCommandEventsHandler(store *storage.CommandEventsStore) *CommandEventsHandler {
	return &CommandEventsHandler{store: store}
}

// ListCommandEventsResponse represents the response for listing command events
type ListCommandEventsResponse struct {
	Events     []*events.CommandEvent `json:"events"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// HandleCommandEvents handles GET /api/command-events
func (h *CommandEventsHandler) HandleCommandEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Event storage is not available")
		return
	}

	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	options := storage.ListOptions{
		ScreenName: query.Get("screen"),
		Action:     query.Get("action"),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		SortBy:     query.Get("sort_by"),
		SortOrder:  strings.ToUpper(query.Get("sort_order")),
	}

	if successStr := query.Get("success"); successStr != "" {
		if success, err := strconv.ParseBool(successStr); err == nil {
			options.Success = &success
		}
	}

	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	total, err := h.store.Count(r.Context(), options)
	if err != nil {
		logging.LogError(err, "Failed to count command events")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	eventsList, err := h.store.List(r.Context(), options)
	if err != nil {
		logging.LogError(err, "Failed to list command events")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if eventsList == nil {
		eventsList = []*events.CommandEvent{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListCommandEventsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// HandleCommandEventByID handles GET /api/command-events/{id}
func (h *CommandEventsHandler) HandleCommandEventByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Event storage is not available")
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/command-events/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		writeError(w, http.StatusBadRequest, "Event ID is required")
		return
	}

	uuid := pathParts[0]
	if err := security.ValidateEventID(uuid); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	event, err := h.store.GetByUUID(r.Context(), uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "Command event not found")
			return
		}
		logging.LogError(err, "Failed to get command event",
			zap.String("uuid", security.SanitizeLogInput(uuid)),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(event)
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}
