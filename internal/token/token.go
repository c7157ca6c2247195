// Package token implements the signed QR credential wire format:
//
//	attendeeID:version:expiresAtEpochSeconds:hexHmacSha256Signature
//
// Encoding and decoding are pure; revocation state lives in the store and is
// checked separately by the scan validator.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"conf-backend/internal/timeutil"
)

// Data is the decoded credential payload.
type Data struct {
	AttendeeID string
	Version    int
	ExpiresAt  time.Time
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a codec over the process-wide signing secret. An empty
// secret is a configuration error, not something to fall back from.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is empty")
	}
	return &Codec{secret: []byte(secret), now: timeutil.Now}, nil
}

// NewCodecWithClock is NewCodec with an injected clock for tests.
func NewCodecWithClock(secret string, now func() time.Time) (*Codec, error) {
	c, err := NewCodec(secret)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Encode signs (attendeeID, version, expiresAt) into the four-field token
// string. Deterministic for identical inputs and secret.
func (c *Codec) Encode(attendeeID string, version int, expiresAt time.Time) string {
	payload := fmt.Sprintf("%s:%d:%d", attendeeID, version, expiresAt.Unix())
	return payload + ":" + c.sign(payload)
}

// Decode verifies and parses a presented token. It fails closed: any
// malformed input, signature mismatch, or payload expiry in the past yields
// ok=false. The signature check is constant-time.
func (c *Codec) Decode(tok string) (Data, bool) {
	parts := strings.Split(tok, ":")
	if len(parts) != 4 {
		return Data{}, false
	}

	version, err := strconv.Atoi(parts[1])
	if err != nil {
		return Data{}, false
	}
	expiryEpoch, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Data{}, false
	}

	// Recompute the MAC over the payload exactly as presented
	payload := parts[0] + ":" + parts[1] + ":" + parts[2]
	expected, err := hex.DecodeString(c.sign(payload))
	if err != nil {
		return Data{}, false
	}
	supplied, err := hex.DecodeString(parts[3])
	if err != nil {
		return Data{}, false
	}
	if !hmac.Equal(expected, supplied) {
		return Data{}, false
	}

	expiresAt := time.Unix(expiryEpoch, 0)
	if expiresAt.Before(c.now()) {
		return Data{}, false
	}

	return Data{
		AttendeeID: parts[0],
		Version:    version,
		ExpiresAt:  expiresAt,
	}, true
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
