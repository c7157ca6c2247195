package handlers

import (
	"net/http"

	"conf-backend/internal/health"
	"conf-backend/internal/monitoring"
)

type SystemHandler struct {
	Checker *health.Checker
}

func NewSystemHandler(checker *health.Checker) *SystemHandler {
	return &SystemHandler{Checker: checker}
}

// Health reports service and database health. 503 when the store is down
// so load balancers can rotate the instance out.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.Checker.Check()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// SystemStats returns host CPU, memory and disk usage for the admin
// dashboard.
func (h *SystemHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := monitoring.CollectSystem()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
