package models

import "time"

// MealUsage is one consumed meal, created only on a passing cafeteria scan.
// MealType is stored for reporting but the allowance is a single pooled
// counter per (attendee, event); per-type sub-allowances are not enforced.
type MealUsage struct {
	ID         int       `json:"id" db:"id"`
	AttendeeID string    `json:"attendee_id" db:"attendee_id"`
	EventID    int       `json:"event_id" db:"event_id"`
	Date       time.Time `json:"date" db:"date"`
	MealType   string    `json:"meal_type" db:"meal_type"`
	Count      int       `json:"count" db:"count"`
	ScanLogID  int       `json:"scan_log_id" db:"scan_log_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// MealConsume carries everything the store needs to decide and record one
// cafeteria scan in a single transaction.
type MealConsume struct {
	AttendeeID  string
	EventID     int
	Allowance   int
	TokenID     int
	GateID      *string
	StaffUserID int
	MealType    string
	Date        time.Time
}

// ConsumeResult reports the decision. Used counts meals consumed before this
// scan; on a pass the new usage row brings the total to Used+1.
type ConsumeResult struct {
	Passed bool
	Used   int
	LogID  int
}
