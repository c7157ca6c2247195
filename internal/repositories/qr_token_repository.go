package repositories

import (
	"context"
	"errors"
	"time"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialStore is the persisted record of every credential ever issued.
// Find methods return (nil, nil) when no row matches. Callers that need the
// rotate sequence to be atomic per attendee wrap it in WithAttendeeLock.
type CredentialStore interface {
	FindActiveByAttendee(ctx context.Context, attendeeID string) (*models.QRToken, error)
	FindLatestVersion(ctx context.Context, attendeeID string) (int, error)
	FindByToken(ctx context.Context, token string) (*models.QRToken, error)
	Insert(ctx context.Context, t *models.QRToken) error
	DeactivateAllActive(ctx context.Context, attendeeID string, revokedAt time.Time) (int64, error)

	// WithAttendeeLock runs fn inside a transaction holding a per-attendee
	// lock. Store operations performed through the passed CredentialStore
	// commit or roll back together; concurrent calls for the same attendee
	// serialize, different attendees do not block each other.
	WithAttendeeLock(ctx context.Context, attendeeID string, fn func(ctx context.Context, store CredentialStore) error) error
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so repository
// methods run identically inside and outside a transaction.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type QRTokenRepository struct {
	pool *pgxpool.Pool
	db   pgxQuerier
}

func NewQRTokenRepository(pool *pgxpool.Pool) *QRTokenRepository {
	return &QRTokenRepository{pool: pool, db: pool}
}

const qrTokenColumns = `id, attendee_id, token, version, issued_at, expires_at, is_active, revoked_at, created_at`

func scanQRToken(row pgx.Row) (*models.QRToken, error) {
	var t models.QRToken
	err := row.Scan(
		&t.ID, &t.AttendeeID, &t.Token, &t.Version,
		&t.IssuedAt, &t.ExpiresAt, &t.IsActive, &t.RevokedAt, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindActiveByAttendee returns the attendee's current active, non-revoked
// credential, or nil if none exists.
func (r *QRTokenRepository) FindActiveByAttendee(ctx context.Context, attendeeID string) (*models.QRToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+qrTokenColumns+`
		FROM qr_tokens
		WHERE attendee_id = $1 AND is_active AND revoked_at IS NULL`,
		attendeeID)
	return scanQRToken(row)
}

// FindLatestVersion returns the highest version ever issued for the
// attendee, 0 when no credential exists yet.
func (r *QRTokenRepository) FindLatestVersion(ctx context.Context, attendeeID string) (int, error) {
	var version int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM qr_tokens WHERE attendee_id = $1`,
		attendeeID).Scan(&version)
	return version, err
}

// FindByToken looks up a credential by exact token string.
func (r *QRTokenRepository) FindByToken(ctx context.Context, token string) (*models.QRToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+qrTokenColumns+`
		FROM qr_tokens
		WHERE token = $1`,
		token)
	return scanQRToken(row)
}

// Insert stores a new credential record, filling ID and CreatedAt.
func (r *QRTokenRepository) Insert(ctx context.Context, t *models.QRToken) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO qr_tokens (attendee_id, token, version, issued_at, expires_at, is_active, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.AttendeeID, t.Token, t.Version, t.IssuedAt, t.ExpiresAt, t.IsActive, t.RevokedAt,
	).Scan(&t.ID, &t.CreatedAt)
}

// DeactivateAllActive marks every active, non-revoked credential for the
// attendee as revoked. Returns the number of rows affected; zero rows is
// not an error.
func (r *QRTokenRepository) DeactivateAllActive(ctx context.Context, attendeeID string, revokedAt time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE qr_tokens
		SET is_active = FALSE, revoked_at = $2
		WHERE attendee_id = $1 AND is_active AND revoked_at IS NULL`,
		attendeeID, revokedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// WithAttendeeLock opens a transaction and takes an advisory lock keyed on
// the attendee id before running fn. The lock is released on commit or
// rollback, so "deactivate old + insert new" cannot interleave between two
// rotations of the same attendee.
func (r *QRTokenRepository) WithAttendeeLock(ctx context.Context, attendeeID string, fn func(ctx context.Context, store CredentialStore) error) error {
	if r.pool == nil {
		// Already inside a locked transaction
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, attendeeID); err != nil {
		return err
	}

	if err := fn(ctx, &QRTokenRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
