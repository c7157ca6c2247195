package services

// In-memory implementations of the store interfaces. They honor the same
// serialization contracts as the Postgres repositories (per-attendee lock
// for rotation, per-(attendee,event) lock for meal consumption) so the
// concurrency tests exercise the real locking behavior.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/timeutil"
)

type memCredentialStore struct {
	mu     sync.Mutex
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
	tokens []*models.QRToken
	nextID int
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{locks: make(map[string]*sync.Mutex), nextID: 1}
}

func (s *memCredentialStore) attendeeLock(attendeeID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.locks[attendeeID] == nil {
		s.locks[attendeeID] = &sync.Mutex{}
	}
	return s.locks[attendeeID]
}

func (s *memCredentialStore) WithAttendeeLock(ctx context.Context, attendeeID string, fn func(ctx context.Context, store repositories.CredentialStore) error) error {
	lock := s.attendeeLock(attendeeID)
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx, s)
}

func (s *memCredentialStore) FindActiveByAttendee(ctx context.Context, attendeeID string) (*models.QRToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.AttendeeID == attendeeID && t.IsActive && t.RevokedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memCredentialStore) FindLatestVersion(ctx context.Context, attendeeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := 0
	for _, t := range s.tokens {
		if t.AttendeeID == attendeeID && t.Version > latest {
			latest = t.Version
		}
	}
	return latest, nil
}

func (s *memCredentialStore) FindByToken(ctx context.Context, token string) (*models.QRToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memCredentialStore) Insert(ctx context.Context, t *models.QRToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = timeutil.Now()
	cp := *t
	s.tokens = append(s.tokens, &cp)
	return nil
}

func (s *memCredentialStore) DeactivateAllActive(ctx context.Context, attendeeID string, revokedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, t := range s.tokens {
		if t.AttendeeID == attendeeID && t.IsActive && t.RevokedAt == nil {
			t.IsActive = false
			at := revokedAt
			t.RevokedAt = &at
			affected++
		}
	}
	return affected, nil
}

// all returns copies of every stored credential for assertions.
func (s *memCredentialStore) all(attendeeID string) []models.QRToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.QRToken
	for _, t := range s.tokens {
		if t.AttendeeID == attendeeID {
			out = append(out, *t)
		}
	}
	return out
}

type memAttendeeStore struct {
	mu        sync.Mutex
	attendees map[string]*models.Attendee
}

func newMemAttendeeStore() *memAttendeeStore {
	return &memAttendeeStore{attendees: make(map[string]*models.Attendee)}
}

func (s *memAttendeeStore) put(a *models.Attendee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.attendees[a.ID] = &cp
}

func (s *memAttendeeStore) Get(ctx context.Context, id string) (*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendees[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

type memAccessLogStore struct {
	mu      sync.Mutex
	entries []models.AccessLog
	nextID  int
}

func newMemAccessLogStore() *memAccessLogStore {
	return &memAccessLogStore{nextID: 1}
}

func (s *memAccessLogStore) Create(ctx context.Context, entry *models.AccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	entry.CreatedAt = timeutil.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memAccessLogStore) ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AccessLog
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *memAccessLogStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memAccessLogStore) last() *models.AccessLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	cp := s.entries[len(s.entries)-1]
	return &cp
}

type memMealLedger struct {
	mu     sync.Mutex
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
	usage  []models.MealUsage
	logs   *memAccessLogStore
	nextID int
}

func newMemMealLedger(logs *memAccessLogStore) *memMealLedger {
	return &memMealLedger{locks: make(map[string]*sync.Mutex), logs: logs, nextID: 1}
}

func (s *memMealLedger) keyLock(attendeeID string, eventID int) *sync.Mutex {
	key := fmt.Sprintf("%s:%d", attendeeID, eventID)
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.locks[key] == nil {
		s.locks[key] = &sync.Mutex{}
	}
	return s.locks[key]
}

func (s *memMealLedger) TotalUsed(ctx context.Context, attendeeID string, eventID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, u := range s.usage {
		if u.AttendeeID == attendeeID && u.EventID == eventID {
			total += u.Count
		}
	}
	return total, nil
}

func (s *memMealLedger) Consume(ctx context.Context, req *models.MealConsume) (*models.ConsumeResult, error) {
	lock := s.keyLock(req.AttendeeID, req.EventID)
	lock.Lock()
	defer lock.Unlock()

	used, err := s.TotalUsed(ctx, req.AttendeeID, req.EventID)
	if err != nil {
		return nil, err
	}

	result := &models.ConsumeResult{Used: used}
	entry := &models.AccessLog{
		AttendeeID:  &req.AttendeeID,
		TokenID:     &req.TokenID,
		ScanType:    models.ScanTypeCafeteria,
		GateID:      req.GateID,
		StaffUserID: req.StaffUserID,
	}

	if used >= req.Allowance {
		entry.Result = models.ScanResultFail
		entry.Details = map[string]interface{}{
			"reason":    models.ReasonMealLimitExceeded,
			"used":      used,
			"allowance": req.Allowance,
		}
		if err := s.logs.Create(ctx, entry); err != nil {
			return nil, err
		}
		result.LogID = entry.ID
		return result, nil
	}

	entry.Result = models.ScanResultPass
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.usage = append(s.usage, models.MealUsage{
		ID:         s.nextID,
		AttendeeID: req.AttendeeID,
		EventID:    req.EventID,
		Date:       req.Date,
		MealType:   req.MealType,
		Count:      1,
		ScanLogID:  entry.ID,
	})
	s.nextID++
	s.mu.Unlock()

	result.Passed = true
	result.LogID = entry.ID
	return result, nil
}

func (s *memMealLedger) usageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.usage)
}
