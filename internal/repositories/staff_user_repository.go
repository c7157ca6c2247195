package repositories

import (
	"context"
	"errors"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StaffUserRepository struct {
	pool *pgxpool.Pool
}

func NewStaffUserRepository(pool *pgxpool.Pool) *StaffUserRepository {
	return &StaffUserRepository{pool: pool}
}

const staffUserColumns = `id, email, password_hash, name, role, created_at`

func scanStaffUser(row pgx.Row) (*models.StaffUser, error) {
	var u models.StaffUser
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the staff user with the given email, nil if not found.
func (r *StaffUserRepository) GetByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+staffUserColumns+` FROM staff_users WHERE email = $1`, email)
	return scanStaffUser(row)
}

// Get returns the staff user by id, nil if not found.
func (r *StaffUserRepository) Get(ctx context.Context, id int) (*models.StaffUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+staffUserColumns+` FROM staff_users WHERE id = $1`, id)
	return scanStaffUser(row)
}

// Create inserts a staff user, filling ID and CreatedAt.
func (r *StaffUserRepository) Create(ctx context.Context, u *models.StaffUser) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Name, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}
