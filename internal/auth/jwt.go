package auth

import (
	"errors"
	"fmt"
	"time"

	"conf-backend/internal/config"
	"conf-backend/internal/models"
	"conf-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager issues and verifies staff session tokens. The staff identity
// is an opaque caller identity to the scan path; only the user id and role
// are carried in claims.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	UserID int    `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    time.Duration(cfg.Auth.TokenTTLHrs) * time.Hour,
	}
}

// Generate issues a signed session token for the staff user.
func (m *JWTManager) Generate(user *models.StaffUser) (string, error) {
	now := timeutil.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a session token, returning its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
