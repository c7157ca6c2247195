package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conf-backend/internal/middleware"
	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/services"
	"conf-backend/internal/token"
)

// Stubs cover only the paths the handler tests touch: no stored
// credentials, so every scan resolves to the unknown-token outcome.

type stubCredentialStore struct{}

func (stubCredentialStore) FindActiveByAttendee(ctx context.Context, attendeeID string) (*models.QRToken, error) {
	return nil, nil
}

func (stubCredentialStore) FindLatestVersion(ctx context.Context, attendeeID string) (int, error) {
	return 0, nil
}

func (stubCredentialStore) FindByToken(ctx context.Context, tok string) (*models.QRToken, error) {
	return nil, nil
}

func (stubCredentialStore) Insert(ctx context.Context, t *models.QRToken) error { return nil }

func (stubCredentialStore) DeactivateAllActive(ctx context.Context, attendeeID string, revokedAt time.Time) (int64, error) {
	return 0, nil
}

func (s stubCredentialStore) WithAttendeeLock(ctx context.Context, attendeeID string, fn func(ctx context.Context, store repositories.CredentialStore) error) error {
	return fn(ctx, s)
}

type stubAttendeeFinder struct{}

func (stubAttendeeFinder) Get(ctx context.Context, id string) (*models.Attendee, error) {
	return nil, nil
}

type stubMealLedger struct{}

func (stubMealLedger) TotalUsed(ctx context.Context, attendeeID string, eventID int) (int, error) {
	return 0, nil
}

func (stubMealLedger) Consume(ctx context.Context, req *models.MealConsume) (*models.ConsumeResult, error) {
	return &models.ConsumeResult{}, nil
}

type stubAccessLogStore struct {
	entries []models.AccessLog
}

func (s *stubAccessLogStore) Create(ctx context.Context, entry *models.AccessLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAccessLogStore) ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func newTestScanHandler(t *testing.T) (*ScanHandler, *stubAccessLogStore) {
	t.Helper()
	codec, err := token.NewCodec("handler-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	logs := &stubAccessLogStore{}
	svc := services.NewScanService(codec, stubCredentialStore{}, stubAttendeeFinder{}, stubMealLedger{}, logs)
	return NewScanHandler(svc, logs), logs
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithStaffUser(req.Context(), 7, "STAFF"))
}

func TestScanRejectsMalformedBody(t *testing.T) {
	h, _ := newTestScanHandler(t)

	rec := httptest.NewRecorder()
	h.Scan(rec, authedRequest("POST", "/api/scan", "{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestScanRejectsMissingFields(t *testing.T) {
	h, _ := newTestScanHandler(t)

	for name, body := range map[string]string{
		"no token": `{"scanType":"gate"}`,
		"no type":  `{"scannedToken":"abc"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Scan(rec, authedRequest("POST", "/api/scan", body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestScanRejectsInvalidScanType(t *testing.T) {
	h, logs := newTestScanHandler(t)

	rec := httptest.NewRecorder()
	h.Scan(rec, authedRequest("POST", "/api/scan", `{"scannedToken":"abc","scanType":"turnstile"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(logs.entries) != 0 {
		t.Errorf("invalid scan type wrote %d log entries", len(logs.entries))
	}
}

func TestScanRequiresAuthenticatedStaff(t *testing.T) {
	h, _ := newTestScanHandler(t)

	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader(`{"scannedToken":"abc","scanType":"gate"}`))
	rec := httptest.NewRecorder()
	h.Scan(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestScanUnknownTokenIsOK(t *testing.T) {
	h, logs := newTestScanHandler(t)

	rec := httptest.NewRecorder()
	h.Scan(rec, authedRequest("POST", "/api/scan", `{"scannedToken":"abc","scanType":"gate","gateId":"gate-1"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var outcome models.ScanOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if outcome.Status != models.ScanStatusUnknown {
		t.Errorf("status = %q, want unknown", outcome.Status)
	}
	if outcome.RegistrationLink == "" {
		t.Error("registration link is empty")
	}

	if len(logs.entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(logs.entries))
	}
	if logs.entries[0].StaffUserID != 7 {
		t.Errorf("staff user id = %d, want 7", logs.entries[0].StaffUserID)
	}
}

func TestListScansValidatesLimit(t *testing.T) {
	h, _ := newTestScanHandler(t)

	for _, limit := range []string{"0", "-1", "501", "abc"} {
		t.Run(limit, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListScans(rec, authedRequest("GET", "/api/scans?limit="+limit, ""))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit %q: status = %d, want 400", limit, rec.Code)
			}
		})
	}
}

func TestListScansReturnsEmptyArray(t *testing.T) {
	h, _ := newTestScanHandler(t)

	rec := httptest.NewRecorder()
	h.ListScans(rec, authedRequest("GET", "/api/scans", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}
