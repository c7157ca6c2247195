package models

import "time"

// QRToken is one issued credential. Rows are never deleted: superseded and
// revoked credentials stay with is_active=false and revoked_at set, so the
// full rotation history per attendee remains auditable.
type QRToken struct {
	ID         int        `json:"id" db:"id"`
	AttendeeID string     `json:"attendee_id" db:"attendee_id"`
	Token      string     `json:"token" db:"token"`
	Version    int        `json:"version" db:"version"`
	IssuedAt   time.Time  `json:"issued_at" db:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type GenerateQRRequest struct {
	AttendeeID string `json:"attendee_id"`
}

type RevokeQRRequest struct {
	AttendeeID string `json:"attendee_id"`
}
