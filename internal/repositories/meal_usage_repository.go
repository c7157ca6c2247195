package repositories

import (
	"context"
	"fmt"

	"conf-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MealLedger tracks per-(attendee, event) meal consumption against the
// attendee's allowance.
type MealLedger interface {
	TotalUsed(ctx context.Context, attendeeID string, eventID int) (int, error)

	// Consume decides and records one cafeteria scan atomically: it
	// serializes on (attendee, event), re-reads the usage total under the
	// lock, and commits the access-log entry (and usage row on a pass) as
	// one transaction. Two concurrent calls with one meal remaining cannot
	// both pass.
	Consume(ctx context.Context, req *models.MealConsume) (*models.ConsumeResult, error)
}

type MealUsageRepository struct {
	pool *pgxpool.Pool
}

func NewMealUsageRepository(pool *pgxpool.Pool) *MealUsageRepository {
	return &MealUsageRepository{pool: pool}
}

// TotalUsed sums consumed meals for the attendee at the event.
func (r *MealUsageRepository) TotalUsed(ctx context.Context, attendeeID string, eventID int) (int, error) {
	var used int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(count), 0)
		FROM meal_usage
		WHERE attendee_id = $1 AND event_id = $2`,
		attendeeID, eventID).Scan(&used)
	return used, err
}

func (r *MealUsageRepository) Consume(ctx context.Context, req *models.MealConsume) (*models.ConsumeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Serialize the check-then-act on (attendee, event). The lock is held
	// until commit, which also covers the access-log and usage inserts.
	// pg_advisory_xact_lock takes a single bigint, so both dimensions are
	// folded into one key before hashing.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, mealLockKey(req.AttendeeID, req.EventID)); err != nil {
		return nil, err
	}

	var used int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(count), 0)
		FROM meal_usage
		WHERE attendee_id = $1 AND event_id = $2`,
		req.AttendeeID, req.EventID).Scan(&used)
	if err != nil {
		return nil, err
	}

	result := &models.ConsumeResult{Used: used}

	if used >= req.Allowance {
		err = tx.QueryRow(ctx, `
			INSERT INTO access_logs (attendee_id, token_id, scan_type, gate_id, staff_user_id, result, details)
			VALUES ($1, $2, 'cafeteria', $3, $4, 'fail', $5)
			RETURNING id`,
			req.AttendeeID, req.TokenID, req.GateID, req.StaffUserID,
			map[string]interface{}{
				"reason":    models.ReasonMealLimitExceeded,
				"used":      used,
				"allowance": req.Allowance,
			},
		).Scan(&result.LogID)
		if err != nil {
			return nil, err
		}
		return result, tx.Commit(ctx)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO access_logs (attendee_id, token_id, scan_type, gate_id, staff_user_id, result)
		VALUES ($1, $2, 'cafeteria', $3, $4, 'pass')
		RETURNING id`,
		req.AttendeeID, req.TokenID, req.GateID, req.StaffUserID,
	).Scan(&result.LogID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO meal_usage (attendee_id, event_id, date, meal_type, count, scan_log_id)
		VALUES ($1, $2, $3, $4, 1, $5)`,
		req.AttendeeID, req.EventID, req.Date, req.MealType, result.LogID)
	if err != nil {
		return nil, err
	}

	result.Passed = true
	return result, tx.Commit(ctx)
}

// mealLockKey folds (attendee, event) into the single string hashed for the
// advisory lock. Distinct pairs must map to distinct keys or two unrelated
// consumers would serialize on each other.
func mealLockKey(attendeeID string, eventID int) string {
	return fmt.Sprintf("%s:%d", attendeeID, eventID)
}
