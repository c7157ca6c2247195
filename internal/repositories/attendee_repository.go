package repositories

import (
	"context"
	"errors"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttendeeFinder is the slice of the registry the scan path needs.
type AttendeeFinder interface {
	Get(ctx context.Context, id string) (*models.Attendee, error)
}

type AttendeeRepository struct {
	pool *pgxpool.Pool
}

func NewAttendeeRepository(pool *pgxpool.Pool) *AttendeeRepository {
	return &AttendeeRepository{pool: pool}
}

const attendeeColumns = `id, event_id, badge_id, first_name, last_name, email, phone, org,
	registration_type, meal_allowance, active, created_at, updated_at`

func scanAttendee(row pgx.Row) (*models.Attendee, error) {
	var a models.Attendee
	err := row.Scan(
		&a.ID, &a.EventID, &a.BadgeID, &a.FirstName, &a.LastName, &a.Email,
		&a.Phone, &a.Org, &a.RegistrationType, &a.MealAllowance, &a.Active,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns the attendee by id, nil if not found.
func (r *AttendeeRepository) Get(ctx context.Context, id string) (*models.Attendee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id)
	return scanAttendee(row)
}

// GetByBadgeID returns the attendee with the given badge id, nil if not found.
func (r *AttendeeRepository) GetByBadgeID(ctx context.Context, badgeID string) (*models.Attendee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE badge_id = $1`, badgeID)
	return scanAttendee(row)
}

// List returns attendees ordered by creation time, newest first.
func (r *AttendeeRepository) List(ctx context.Context, limit, offset int) ([]models.Attendee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attendeeColumns+`
		FROM attendees
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []models.Attendee
	for rows.Next() {
		var a models.Attendee
		err := rows.Scan(
			&a.ID, &a.EventID, &a.BadgeID, &a.FirstName, &a.LastName, &a.Email,
			&a.Phone, &a.Org, &a.RegistrationType, &a.MealAllowance, &a.Active,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// Create inserts a new attendee, filling ID and timestamps.
func (r *AttendeeRepository) Create(ctx context.Context, a *models.Attendee) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO attendees (event_id, badge_id, first_name, last_name, email, phone, org,
			registration_type, meal_allowance, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.EventID, a.BadgeID, a.FirstName, a.LastName, a.Email, a.Phone, a.Org,
		a.RegistrationType, a.MealAllowance, a.Active,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update applies the non-nil fields of req and returns the updated row.
func (r *AttendeeRepository) Update(ctx context.Context, id string, req *models.UpdateAttendeeRequest) (*models.Attendee, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE attendees SET
			event_id = COALESCE($2, event_id),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			org = COALESCE($7, org),
			registration_type = COALESCE($8, registration_type),
			meal_allowance = COALESCE($9, meal_allowance),
			active = COALESCE($10, active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+attendeeColumns,
		id, req.EventID, req.FirstName, req.LastName, req.Email, req.Phone,
		req.Org, req.RegistrationType, req.MealAllowance, req.Active)
	return scanAttendee(row)
}

// Deactivate marks the attendee inactive instead of deleting the row, so
// credentials and access logs keep a valid reference.
func (r *AttendeeRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE attendees SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}
