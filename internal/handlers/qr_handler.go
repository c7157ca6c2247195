package handlers

import (
	"encoding/json"
	"net/http"

	"conf-backend/internal/services"

	qrcode "github.com/skip2/go-qrcode"
)

type QRHandler struct {
	Tokens    *services.TokenService
	Attendees *services.AttendeeService
}

func NewQRHandler(tokens *services.TokenService, attendees *services.AttendeeService) *QRHandler {
	return &QRHandler{Tokens: tokens, Attendees: attendees}
}

type generateQRRequest struct {
	AttendeeID string `json:"attendee_id"`
}

// GenerateQR issues (or rotates) the attendee's credential. With
// ?format=png the response is the QR image instead of JSON.
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	var req generateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AttendeeID == "" {
		http.Error(w, "Attendee ID is required", http.StatusBadRequest)
		return
	}

	attendee, err := h.Attendees.Get(r.Context(), req.AttendeeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if attendee == nil {
		http.Error(w, "Attendee not found", http.StatusNotFound)
		return
	}

	token, record, err := h.Tokens.IssueOrRotate(r.Context(), req.AttendeeID)
	if err != nil {
		http.Error(w, "Failed to generate QR token", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "png" {
		png, err := qrcode.Encode(token, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"qrToken": record,
	})
}

type revokeQRRequest struct {
	AttendeeID string `json:"attendee_id"`
}

// RevokeQR deactivates all active credentials for the attendee. Revoking an
// attendee with none is still a success.
func (h *QRHandler) RevokeQR(w http.ResponseWriter, r *http.Request) {
	var req revokeQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AttendeeID == "" {
		http.Error(w, "Attendee ID is required", http.StatusBadRequest)
		return
	}

	if err := h.Tokens.Revoke(r.Context(), req.AttendeeID); err != nil {
		http.Error(w, "Failed to revoke QR token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
