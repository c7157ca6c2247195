package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"conf-backend/internal/models"
	"conf-backend/internal/services"

	"github.com/gorilla/mux"
)

type AttendeeHandler struct {
	Service *services.AttendeeService
}

func NewAttendeeHandler(service *services.AttendeeService) *AttendeeHandler {
	return &AttendeeHandler{Service: service}
}

// ListAttendees returns a page of attendees.
func (h *AttendeeHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	attendees, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if attendees == nil {
		attendees = []models.Attendee{}
	}

	writeJSON(w, http.StatusOK, attendees)
}

// CreateAttendee registers a new attendee and assigns a badge id.
func (h *AttendeeHandler) CreateAttendee(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	attendee, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, attendee)
}

// GetAttendee returns one attendee by id.
func (h *AttendeeHandler) GetAttendee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	attendee, err := h.Service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if attendee == nil {
		http.Error(w, "Attendee not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, attendee)
}

// UpdateAttendee applies a partial update.
func (h *AttendeeHandler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.UpdateAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	attendee, err := h.Service.Update(r.Context(), id, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if attendee == nil {
		http.Error(w, "Attendee not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, attendee)
}

// DeactivateAttendee marks the attendee inactive. The row stays so
// credentials and access logs keep their references.
func (h *AttendeeHandler) DeactivateAttendee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
