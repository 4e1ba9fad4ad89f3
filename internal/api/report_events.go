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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldvoice/fieldvoice-hub/internal/events"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
	"github.com/fieldvoice/fieldvoice-hub/internal/security"
	"github.com/fieldvoice/fieldvoice-hub/internal/storage"
)

// ReportEventsHandler handles HTTP requests for persisted closeout reports
type ReportEventsHandler struct {
	store *storage.ReportsStore
}

// NewReportEventsHandler creates a new report events handler
func NewReportEventsHandler(store *storage.ReportsStore) *ReportEventsHandler {
	return &ReportEventsHandler{store: store}
}

// ListReportsResponse represents the response for listing reports
type ListReportsResponse struct {
	Reports    []*events.ReportEvent `json:"reports"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// HandleReports handles GET /api/reports
func (h *ReportEventsHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Report storage is not available")
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

	options := storage.ReportListOptions{
		TechnicianName: query.Get("technician"),
		Location:       query.Get("location"),
		Source:         query.Get("source"),
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
		SortBy:         query.Get("sort_by"),
		SortOrder:      strings.ToUpper(query.Get("sort_order")),
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
		logging.LogError(err, "Failed to count reports")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reports, err := h.store.List(r.Context(), options)
	if err != nil {
		logging.LogError(err, "Failed to list reports")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if reports == nil {
		reports = []*events.ReportEvent{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListReportsResponse{
		Reports:    reports,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// HandleReportByID handles GET /api/reports/{id}
func (h *ReportEventsHandler) HandleReportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Report storage is not available")
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/reports/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		writeError(w, http.StatusBadRequest, "Report ID is required")
		return
	}

	uuid := pathParts[0]
	if err := security.ValidateEventID(uuid); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	event, err := h.store.GetByUUID(r.Context(), uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "Report not found")
			return
		}
		logging.LogError(err, "Failed to get report",
			zap.String("uuid", security.SanitizeLogInput(uuid)),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(event)
}
