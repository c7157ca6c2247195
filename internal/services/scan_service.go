package services

import (
	"context"
	"errors"
	"log"
	"net/url"

	"conf-backend/internal/models"
	"conf-backend/internal/notifications"
	"conf-backend/internal/repositories"
	"conf-backend/internal/timeutil"
	"conf-backend/internal/token"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrInvalidScanType marks a client error rejected before any log write.
var ErrInvalidScanType = errors.New("invalid scan type")

var scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "conf_scans_total",
	Help: "Scan attempts by type and outcome status.",
}, []string{"scan_type", "status"})

// ScanBroadcaster receives scan outcomes for the live admin feed. Sends are
// best-effort and must never block or fail the scan.
type ScanBroadcaster interface {
	BroadcastScan(event *models.ScanEvent)
}

// ScanService validates presented tokens and decides scan requests. It is
// the only boundary that turns internal invalid/fail states into the
// three-way unknown/fail/pass response.
type ScanService struct {
	codec     *token.Codec
	tokens    repositories.CredentialStore
	attendees repositories.AttendeeFinder
	meals     repositories.MealLedger
	logs      repositories.AccessLogStore
	notifier  notifications.Provider
	live      ScanBroadcaster
}

func NewScanService(
	codec *token.Codec,
	tokens repositories.CredentialStore,
	attendees repositories.AttendeeFinder,
	meals repositories.MealLedger,
	logs repositories.AccessLogStore,
) *ScanService {
	return &ScanService{
		codec:     codec,
		tokens:    tokens,
		attendees: attendees,
		meals:     meals,
		logs:      logs,
	}
}

// SetNotifier enables fire-and-forget meal notifications.
func (s *ScanService) SetNotifier(p notifications.Provider) {
	s.notifier = p
}

// SetBroadcaster enables the live scan feed.
func (s *ScanService) SetBroadcaster(b ScanBroadcaster) {
	s.live = b
}

// Validate checks a presented token end to end: codec signature and payload
// expiry, then store state (exists, active, not revoked, stored expiry, and
// attendee/version match against the decoded payload). The double check is
// deliberate: the signature proves authenticity, the store proves current
// revocation status. Returns (nil, nil) for any invalid token.
func (s *ScanService) Validate(ctx context.Context, presented string) (*models.QRToken, *models.Attendee, error) {
	data, ok := s.codec.Decode(presented)
	if !ok {
		return nil, nil, nil
	}

	cred, err := s.tokens.FindByToken(ctx, presented)
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, nil
	}

	if !cred.IsActive || cred.RevokedAt != nil {
		return nil, nil, nil
	}
	if cred.ExpiresAt.Before(timeutil.Now()) {
		return nil, nil, nil
	}
	// A validly signed token must also match the stored row it resolves to;
	// a rotated-out token fails here even before its payload expiry.
	if cred.AttendeeID != data.AttendeeID || cred.Version != data.Version {
		return nil, nil, nil
	}

	attendee, err := s.attendees.Get(ctx, cred.AttendeeID)
	if err != nil {
		return nil, nil, err
	}
	if attendee == nil {
		return nil, nil, nil
	}

	return cred, attendee, nil
}

// Scan runs one scan decision. Store failures abort the whole operation;
// notification and broadcast failures never do.
func (s *ScanService) Scan(ctx context.Context, req *models.ScanRequest, staffUserID int) (*models.ScanOutcome, error) {
	if req.ScanType != models.ScanTypeGate && req.ScanType != models.ScanTypeCafeteria {
		return nil, ErrInvalidScanType
	}

	outcome, err := s.decide(ctx, req, staffUserID)
	if err != nil {
		return nil, err
	}

	scansTotal.WithLabelValues(req.ScanType, string(outcome.Status)).Inc()
	if s.live != nil {
		s.live.BroadcastScan(&models.ScanEvent{
			Status:   outcome.Status,
			ScanType: req.ScanType,
			GateID:   req.GateID,
			Reason:   outcome.Reason,
			Attendee: outcome.Attendee,
			At:       timeutil.Now(),
		})
	}
	return outcome, nil
}

func (s *ScanService) decide(ctx context.Context, req *models.ScanRequest, staffUserID int) (*models.ScanOutcome, error) {
	gateID := nilIfEmpty(req.GateID)

	cred, attendee, err := s.Validate(ctx, req.ScannedToken)
	if err != nil {
		return nil, err
	}

	if cred == nil {
		entry := &models.AccessLog{
			ScanType:    req.ScanType,
			GateID:      gateID,
			StaffUserID: staffUserID,
			Result:      models.ScanResultFail,
			Details: map[string]interface{}{
				"reason":       models.ReasonUnknownToken,
				"scannedToken": truncateToken(req.ScannedToken),
			},
		}
		if err := s.logs.Create(ctx, entry); err != nil {
			return nil, err
		}
		return &models.ScanOutcome{
			Status:           models.ScanStatusUnknown,
			Message:          "Token not recognized. Please register on-spot.",
			RegistrationLink: "/kiosk/register?token=" + url.QueryEscape(req.ScannedToken),
			Reason:           models.ReasonUnknownToken,
		}, nil
	}

	if !attendee.Active {
		entry := &models.AccessLog{
			AttendeeID:  &attendee.ID,
			TokenID:     &cred.ID,
			ScanType:    req.ScanType,
			GateID:      gateID,
			StaffUserID: staffUserID,
			Result:      models.ScanResultFail,
			Details:     map[string]interface{}{"reason": models.ReasonAttendeeInactive},
		}
		if err := s.logs.Create(ctx, entry); err != nil {
			return nil, err
		}
		return &models.ScanOutcome{
			Status:  models.ScanStatusFail,
			Message: "Attendee account is inactive",
			Reason:  models.ReasonAttendeeInactive,
		}, nil
	}

	if req.ScanType == models.ScanTypeGate {
		entry := &models.AccessLog{
			AttendeeID:  &attendee.ID,
			TokenID:     &cred.ID,
			ScanType:    models.ScanTypeGate,
			GateID:      gateID,
			StaffUserID: staffUserID,
			Result:      models.ScanResultPass,
		}
		if err := s.logs.Create(ctx, entry); err != nil {
			return nil, err
		}
		return &models.ScanOutcome{
			Status:   models.ScanStatusPass,
			Attendee: summarize(attendee),
		}, nil
	}

	return s.decideCafeteria(ctx, req, cred, attendee, staffUserID)
}

func (s *ScanService) decideCafeteria(ctx context.Context, req *models.ScanRequest, cred *models.QRToken, attendee *models.Attendee, staffUserID int) (*models.ScanOutcome, error) {
	// No event association is a configuration problem, not a credential
	// failure; nothing is logged against the attendee.
	if attendee.EventID == nil {
		return &models.ScanOutcome{
			Status:  models.ScanStatusFail,
			Message: "Attendee not associated with an event",
		}, nil
	}

	result, err := s.meals.Consume(ctx, &models.MealConsume{
		AttendeeID:  attendee.ID,
		EventID:     *attendee.EventID,
		Allowance:   attendee.MealAllowance,
		TokenID:     cred.ID,
		GateID:      nilIfEmpty(req.GateID),
		StaffUserID: staffUserID,
		MealType:    "lunch",
		Date:        timeutil.StartOfDay(timeutil.Now()),
	})
	if err != nil {
		return nil, err
	}

	allowance := attendee.MealAllowance

	if !result.Passed {
		used := result.Used
		return &models.ScanOutcome{
			Status:    models.ScanStatusFail,
			Message:   "Meal allowance exhausted",
			Used:      &used,
			Allowance: &allowance,
			Reason:    models.ReasonMealLimitExceeded,
		}, nil
	}

	used := result.Used + 1
	remaining := allowance - used

	if s.notifier != nil && attendee.Phone != nil {
		phone := *attendee.Phone
		go func() {
			if err := s.notifier.SendMealNotification(phone, "lunch", remaining); err != nil {
				log.Printf("Failed to send meal notification: %v", err)
			}
		}()
	}

	return &models.ScanOutcome{
		Status:         models.ScanStatusPass,
		Attendee:       summarize(attendee),
		RemainingCount: &remaining,
		Used:           &used,
		Allowance:      &allowance,
	}, nil
}

func summarize(a *models.Attendee) *models.AttendeeSummary {
	return &models.AttendeeSummary{
		ID:               a.ID,
		BadgeID:          a.BadgeID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Org:              a.Org,
		RegistrationType: a.RegistrationType,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// truncateToken keeps enough of an unrecognized token for diagnostics
// without storing arbitrary scanner input at full length.
func truncateToken(tok string) string {
	if len(tok) <= 20 {
		return tok
	}
	return tok[:20] + "..."
}
