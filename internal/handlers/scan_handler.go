package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"conf-backend/internal/middleware"
	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/services"
)

type ScanHandler struct {
	Service *services.ScanService
	Logs    repositories.AccessLogStore
}

func NewScanHandler(service *services.ScanService, logs repositories.AccessLogStore) *ScanHandler {
	return &ScanHandler{Service: service, Logs: logs}
}

// Scan decides one scan request. All three outcomes (pass, fail, unknown)
// are 200 responses; only malformed requests are HTTP errors.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ScannedToken == "" || req.ScanType == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	staffUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.Service.Scan(r.Context(), &req, staffUserID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScanType) {
			http.Error(w, "Invalid scan type", http.StatusBadRequest)
			return
		}
		http.Error(w, "Scan failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// ListScans returns the newest access-log entries for the admin scans page.
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.Logs.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AccessLog{}
	}

	writeJSON(w, http.StatusOK, entries)
}
