package services

import (
	"context"
	"time"

	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/timeutil"
	"conf-backend/internal/token"
)

// TokenService manages the credential lifecycle. At most one credential per
// attendee is active and non-revoked at any time; rotation and revocation
// run under the store's per-attendee lock to keep that true under
// concurrent requests.
type TokenService struct {
	codec *token.Codec
	store repositories.CredentialStore
	ttl   time.Duration
}

func NewTokenService(codec *token.Codec, store repositories.CredentialStore, expiryDays int) *TokenService {
	if expiryDays <= 0 {
		expiryDays = 7
	}
	return &TokenService{
		codec: codec,
		store: store,
		ttl:   time.Duration(expiryDays) * 24 * time.Hour,
	}
}

// IssueOrRotate deactivates the attendee's current credential (if any) and
// issues a new one with the next version. Returns the signed token string
// and the persisted record.
func (s *TokenService) IssueOrRotate(ctx context.Context, attendeeID string) (string, *models.QRToken, error) {
	var issued *models.QRToken

	err := s.store.WithAttendeeLock(ctx, attendeeID, func(ctx context.Context, store repositories.CredentialStore) error {
		now := timeutil.Now()

		if _, err := store.DeactivateAllActive(ctx, attendeeID, now); err != nil {
			return err
		}

		latest, err := store.FindLatestVersion(ctx, attendeeID)
		if err != nil {
			return err
		}

		version := latest + 1
		expiresAt := now.Add(s.ttl)

		issued = &models.QRToken{
			AttendeeID: attendeeID,
			Token:      s.codec.Encode(attendeeID, version, expiresAt),
			Version:    version,
			IssuedAt:   now,
			ExpiresAt:  expiresAt,
			IsActive:   true,
		}
		return store.Insert(ctx, issued)
	})
	if err != nil {
		return "", nil, err
	}

	return issued.Token, issued, nil
}

// Revoke deactivates all active credentials for the attendee. Idempotent:
// revoking an attendee with no active credential is a no-op.
func (s *TokenService) Revoke(ctx context.Context, attendeeID string) error {
	return s.store.WithAttendeeLock(ctx, attendeeID, func(ctx context.Context, store repositories.CredentialStore) error {
		_, err := store.DeactivateAllActive(ctx, attendeeID, timeutil.Now())
		return err
	})
}

// ActiveCredential returns the attendee's current active credential, nil if
// none exists.
func (s *TokenService) ActiveCredential(ctx context.Context, attendeeID string) (*models.QRToken, error) {
	return s.store.FindActiveByAttendee(ctx, attendeeID)
}
