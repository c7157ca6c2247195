package repositories

import (
	"context"
	"errors"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Get returns the event by id, nil if not found.
func (r *EventRepository) Get(ctx context.Context, id int) (*models.Event, error) {
	var e models.Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, starts_at, ends_at, created_at FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.StartsAt, &e.EndsAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all events, newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, starts_at, ends_at, created_at FROM events ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Create inserts an event, filling ID and CreatedAt.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO events (name, starts_at, ends_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		e.Name, e.StartsAt, e.EndsAt,
	).Scan(&e.ID, &e.CreatedAt)
}
