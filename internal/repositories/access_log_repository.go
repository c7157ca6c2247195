package repositories

import (
	"context"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessLogStore records scan attempts. The log is append-only: there are
// no update or delete operations.
type AccessLogStore interface {
	Create(ctx context.Context, entry *models.AccessLog) error
	ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error)
}

type AccessLogRepository struct {
	pool *pgxpool.Pool
}

func NewAccessLogRepository(pool *pgxpool.Pool) *AccessLogRepository {
	return &AccessLogRepository{pool: pool}
}

// Create inserts one scan attempt, filling ID and CreatedAt.
func (r *AccessLogRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO access_logs (attendee_id, token_id, scan_type, gate_id, staff_user_id, result, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		entry.AttendeeID, entry.TokenID, entry.ScanType, entry.GateID,
		entry.StaffUserID, entry.Result, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListRecent returns the newest scan attempts with attendee and staff names
// joined in, for the admin scans page.
func (r *AccessLogRepository) ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			al.id, al.attendee_id, al.token_id, al.scan_type, al.gate_id,
			al.staff_user_id, al.result, al.details, al.created_at,
			a.badge_id, a.first_name || ' ' || a.last_name, su.name
		FROM access_logs al
		LEFT JOIN attendees a ON al.attendee_id = a.id
		JOIN staff_users su ON al.staff_user_id = su.id
		ORDER BY al.created_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AccessLog
	for rows.Next() {
		var e models.AccessLog
		err := rows.Scan(
			&e.ID, &e.AttendeeID, &e.TokenID, &e.ScanType, &e.GateID,
			&e.StaffUserID, &e.Result, &e.Details, &e.CreatedAt,
			&e.AttendeeBadgeID, &e.AttendeeName, &e.StaffName,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
