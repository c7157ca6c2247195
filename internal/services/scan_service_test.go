package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"conf-backend/internal/models"
	"conf-backend/internal/token"
)

type scanFixture struct {
	codec     *token.Codec
	creds     *memCredentialStore
	attendees *memAttendeeStore
	logs      *memAccessLogStore
	meals     *memMealLedger
	tokens    *TokenService
	scans     *ScanService
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()
	codec, err := token.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	creds := newMemCredentialStore()
	attendees := newMemAttendeeStore()
	logs := newMemAccessLogStore()
	meals := newMemMealLedger(logs)

	return &scanFixture{
		codec:     codec,
		creds:     creds,
		attendees: attendees,
		logs:      logs,
		meals:     meals,
		tokens:    NewTokenService(codec, creds, 7),
		scans:     NewScanService(codec, creds, attendees, meals, logs),
	}
}

// addAttendee registers an active attendee with the given allowance and
// issues a credential, returning the attendee and the token string.
func (f *scanFixture) addAttendee(t *testing.T, id string, eventID *int, allowance int) (*models.Attendee, string) {
	t.Helper()
	attendee := &models.Attendee{
		ID:               id,
		EventID:          eventID,
		BadgeID:          "BADGE-TEST-" + id,
		FirstName:        "Test",
		LastName:         "Attendee",
		RegistrationType: "delegate",
		MealAllowance:    allowance,
		Active:           true,
	}
	f.attendees.put(attendee)

	tok, _, err := f.tokens.IssueOrRotate(context.Background(), id)
	if err != nil {
		t.Fatalf("IssueOrRotate(%s): %v", id, err)
	}
	return attendee, tok
}

func gateScan(tok string) *models.ScanRequest {
	return &models.ScanRequest{ScannedToken: tok, ScanType: models.ScanTypeGate, GateID: "gate-1"}
}

func cafeteriaScan(tok string) *models.ScanRequest {
	return &models.ScanRequest{ScannedToken: tok, ScanType: models.ScanTypeCafeteria}
}

func TestGateScanPass(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	attendee, tok := f.addAttendee(t, "att-1", &eventID, 2)

	outcome, err := f.scans.Scan(context.Background(), gateScan(tok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusPass {
		t.Fatalf("status = %q, want pass", outcome.Status)
	}
	if outcome.Attendee == nil || outcome.Attendee.BadgeID != attendee.BadgeID {
		t.Errorf("attendee summary = %+v, want badge %q", outcome.Attendee, attendee.BadgeID)
	}
	if outcome.RemainingCount != nil {
		t.Errorf("gate scan returned meal figures: %+v", outcome)
	}

	entry := f.logs.last()
	if entry == nil || entry.Result != models.ScanResultPass || entry.ScanType != models.ScanTypeGate {
		t.Errorf("access log entry = %+v, want gate pass", entry)
	}
	if entry.StaffUserID != 7 {
		t.Errorf("staff user id = %d, want 7", entry.StaffUserID)
	}
}

func TestUnknownTokenScan(t *testing.T) {
	f := newScanFixture(t)

	outcome, err := f.scans.Scan(context.Background(), gateScan("not-a-real-token"), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusUnknown {
		t.Fatalf("status = %q, want unknown", outcome.Status)
	}
	if outcome.RegistrationLink == "" {
		t.Error("registration link is empty")
	}

	if f.logs.count() != 1 {
		t.Fatalf("access log entries = %d, want 1", f.logs.count())
	}
	entry := f.logs.last()
	if entry.AttendeeID != nil {
		t.Errorf("unknown-token log has attendee %v, want nil", *entry.AttendeeID)
	}
	if entry.Details["reason"] != models.ReasonUnknownToken {
		t.Errorf("log reason = %v, want %q", entry.Details["reason"], models.ReasonUnknownToken)
	}
}

func TestInactiveAttendeeFailsAnyScan(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	attendee, tok := f.addAttendee(t, "att-1", &eventID, 2)

	attendee.Active = false
	f.attendees.put(attendee)

	for _, scanType := range []string{models.ScanTypeGate, models.ScanTypeCafeteria} {
		t.Run(scanType, func(t *testing.T) {
			outcome, err := f.scans.Scan(context.Background(), &models.ScanRequest{ScannedToken: tok, ScanType: scanType}, 7)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if outcome.Status != models.ScanStatusFail {
				t.Fatalf("status = %q, want fail", outcome.Status)
			}
			if outcome.Reason != models.ReasonAttendeeInactive {
				t.Errorf("reason = %q, want %q", outcome.Reason, models.ReasonAttendeeInactive)
			}
		})
	}
}

func TestSupersededTokenFailsValidation(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, oldTok := f.addAttendee(t, "att-1", &eventID, 2)

	// Rotate; the old token is still validly signed and unexpired
	newTok, _, err := f.tokens.IssueOrRotate(context.Background(), "att-1")
	if err != nil {
		t.Fatalf("IssueOrRotate: %v", err)
	}

	outcome, err := f.scans.Scan(context.Background(), gateScan(oldTok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusUnknown {
		t.Errorf("superseded token status = %q, want unknown", outcome.Status)
	}

	outcome, err = f.scans.Scan(context.Background(), gateScan(newTok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusPass {
		t.Errorf("current token status = %q, want pass", outcome.Status)
	}
}

func TestRevokedTokenFailsValidation(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, tok := f.addAttendee(t, "att-1", &eventID, 2)

	if err := f.tokens.Revoke(context.Background(), "att-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	outcome, err := f.scans.Scan(context.Background(), gateScan(tok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusUnknown {
		t.Errorf("revoked token status = %q, want unknown", outcome.Status)
	}
}

func TestStoredExpiryCheckedIndependently(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	attendee := &models.Attendee{ID: "att-1", EventID: &eventID, BadgeID: "B1", Active: true}
	f.attendees.put(attendee)

	// Token payload says the credential is valid for another hour, but the
	// stored record has already expired
	tok := f.codec.Encode("att-1", 1, time.Now().Add(time.Hour))
	rec := &models.QRToken{
		AttendeeID: "att-1",
		Token:      tok,
		Version:    1,
		IssuedAt:   time.Now().Add(-time.Hour),
		ExpiresAt:  time.Now().Add(-time.Minute),
		IsActive:   true,
	}
	if err := f.creds.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cred, _, err := f.scans.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cred != nil {
		t.Error("accepted token whose stored record has expired")
	}
}

func TestVersionMismatchFailsValidation(t *testing.T) {
	f := newScanFixture(t)
	attendee := &models.Attendee{ID: "att-1", BadgeID: "B1", Active: true}
	f.attendees.put(attendee)

	// Stored row claims version 1 but the signed payload says 2
	tok := f.codec.Encode("att-1", 2, time.Now().Add(time.Hour))
	rec := &models.QRToken{
		AttendeeID: "att-1",
		Token:      tok,
		Version:    1,
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(time.Hour),
		IsActive:   true,
	}
	if err := f.creds.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cred, _, err := f.scans.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cred != nil {
		t.Error("accepted token whose version does not match the stored row")
	}
}

func TestCafeteriaAllowanceSequence(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, tok := f.addAttendee(t, "att-1", &eventID, 2)
	ctx := context.Background()

	// First two scans pass, counting down
	for i, wantRemaining := range []int{1, 0} {
		outcome, err := f.scans.Scan(ctx, cafeteriaScan(tok), 7)
		if err != nil {
			t.Fatalf("scan %d: %v", i+1, err)
		}
		if outcome.Status != models.ScanStatusPass {
			t.Fatalf("scan %d status = %q, want pass", i+1, outcome.Status)
		}
		if outcome.RemainingCount == nil || *outcome.RemainingCount != wantRemaining {
			t.Errorf("scan %d remaining = %v, want %d", i+1, outcome.RemainingCount, wantRemaining)
		}
		if outcome.Used == nil || *outcome.Used != i+1 {
			t.Errorf("scan %d used = %v, want %d", i+1, outcome.Used, i+1)
		}
	}

	// Third scan exceeds the allowance
	outcome, err := f.scans.Scan(ctx, cafeteriaScan(tok), 7)
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if outcome.Status != models.ScanStatusFail {
		t.Fatalf("third scan status = %q, want fail", outcome.Status)
	}
	if outcome.Reason != models.ReasonMealLimitExceeded {
		t.Errorf("third scan reason = %q, want %q", outcome.Reason, models.ReasonMealLimitExceeded)
	}
	if outcome.Used == nil || *outcome.Used != 2 || outcome.Allowance == nil || *outcome.Allowance != 2 {
		t.Errorf("third scan figures = used %v allowance %v, want 2/2", outcome.Used, outcome.Allowance)
	}

	// No usage row was created for the failed scan
	if got := f.meals.usageCount(); got != 2 {
		t.Errorf("meal usage rows = %d, want 2", got)
	}

	entry := f.logs.last()
	if entry.Result != models.ScanResultFail || entry.Details["reason"] != models.ReasonMealLimitExceeded {
		t.Errorf("limit-exceeded log entry = %+v", entry)
	}
}

func TestConcurrentCafeteriaScansNoDoubleSpend(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, tok := f.addAttendee(t, "att-1", &eventID, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make([]*models.ScanOutcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = f.scans.Scan(ctx, cafeteriaScan(tok), 7)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}

	passes, fails := 0, 0
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.ScanStatusPass:
			passes++
		case models.ScanStatusFail:
			fails++
			if outcome.Reason != models.ReasonMealLimitExceeded {
				t.Errorf("failing scan reason = %q, want %q", outcome.Reason, models.ReasonMealLimitExceeded)
			}
		}
	}
	if passes != 1 || fails != 1 {
		t.Errorf("passes = %d, fails = %d, want exactly one of each", passes, fails)
	}
	if got := f.meals.usageCount(); got != 1 {
		t.Errorf("meal usage rows = %d, want 1", got)
	}
}

func TestCafeteriaScanWithoutEvent(t *testing.T) {
	f := newScanFixture(t)
	_, tok := f.addAttendee(t, "att-1", nil, 2)

	before := f.logs.count()
	outcome, err := f.scans.Scan(context.Background(), cafeteriaScan(tok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusFail {
		t.Fatalf("status = %q, want fail", outcome.Status)
	}

	// Configuration issue, not a credential failure: nothing is logged
	if f.logs.count() != before {
		t.Errorf("access log entries = %d, want %d", f.logs.count(), before)
	}
}

func TestInvalidScanTypeRejectedBeforeLogging(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, tok := f.addAttendee(t, "att-1", &eventID, 2)

	_, err := f.scans.Scan(context.Background(), &models.ScanRequest{ScannedToken: tok, ScanType: "turnstile"}, 7)
	if err != ErrInvalidScanType {
		t.Fatalf("err = %v, want ErrInvalidScanType", err)
	}
	if f.logs.count() != 0 {
		t.Errorf("access log entries = %d, want 0", f.logs.count())
	}
}

type recordingNotifier struct {
	calls chan string
}

func (n *recordingNotifier) SendMealNotification(phone, mealType string, remaining int) error {
	n.calls <- phone
	return nil
}

func TestMealNotificationIsFireAndForget(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	attendee, tok := f.addAttendee(t, "att-1", &eventID, 2)

	phone := "+15550100"
	attendee.Phone = &phone
	f.attendees.put(attendee)

	notifier := &recordingNotifier{calls: make(chan string, 1)}
	f.scans.SetNotifier(notifier)

	outcome, err := f.scans.Scan(context.Background(), cafeteriaScan(tok), 7)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome.Status != models.ScanStatusPass {
		t.Fatalf("status = %q, want pass", outcome.Status)
	}

	select {
	case got := <-notifier.calls:
		if got != phone {
			t.Errorf("notified %q, want %q", got, phone)
		}
	case <-time.After(2 * time.Second):
		t.Error("notification was never sent")
	}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*models.ScanEvent
}

func (b *recordingBroadcaster) BroadcastScan(event *models.ScanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func TestScanOutcomesAreBroadcast(t *testing.T) {
	f := newScanFixture(t)
	eventID := 1
	_, tok := f.addAttendee(t, "att-1", &eventID, 2)

	broadcaster := &recordingBroadcaster{}
	f.scans.SetBroadcaster(broadcaster)

	if _, err := f.scans.Scan(context.Background(), gateScan(tok), 7); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if len(broadcaster.events) != 1 {
		t.Fatalf("broadcast events = %d, want 1", len(broadcaster.events))
	}
	if broadcaster.events[0].Status != models.ScanStatusPass {
		t.Errorf("broadcast status = %q, want pass", broadcaster.events[0].Status)
	}
}
