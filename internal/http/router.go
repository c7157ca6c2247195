package http

import (
	"net/http"
	"time"

	"conf-backend/internal/handlers"
	"conf-backend/internal/live"
	"conf-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var loginRateLimiter = middleware.NewRateLimiter(5, time.Minute)

// NewRouter wires the full route table. Everything under /api except login
// requires a staff session; credential issuance and revocation additionally
// require an admin role.
func NewRouter(
	authHandler *handlers.AuthHandler,
	attendeeHandler *handlers.AttendeeHandler,
	qrHandler *handlers.QRHandler,
	scanHandler *handlers.ScanHandler,
	systemHandler *handlers.SystemHandler,
	hub *live.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/auth/login",
		loginRateLimiter.Middleware(http.HandlerFunc(authHandler.Login)),
	).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.RequireAuth)

	protected.HandleFunc("/attendees", attendeeHandler.ListAttendees).Methods("GET")
	protected.HandleFunc("/attendees", attendeeHandler.CreateAttendee).Methods("POST")
	protected.HandleFunc("/attendees/{id}", attendeeHandler.GetAttendee).Methods("GET")
	protected.HandleFunc("/attendees/{id}", attendeeHandler.UpdateAttendee).Methods("PATCH")
	protected.HandleFunc("/attendees/{id}", attendeeHandler.DeactivateAttendee).Methods("DELETE")

	adminOnly := authMiddleware.RequireRole("SUPER_ADMIN", "ADMIN")
	protected.Handle("/generate-qr", adminOnly(http.HandlerFunc(qrHandler.GenerateQR))).Methods("POST")
	protected.Handle("/revoke-qr", adminOnly(http.HandlerFunc(qrHandler.RevokeQR))).Methods("POST")

	protected.HandleFunc("/scan", scanHandler.Scan).Methods("POST")
	protected.HandleFunc("/scans", scanHandler.ListScans).Methods("GET")
	protected.HandleFunc("/scans/stream", hub.ServeWS).Methods("GET")

	protected.HandleFunc("/monitoring/system", systemHandler.SystemStats).Methods("GET")

	return r
}
