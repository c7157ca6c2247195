package models

import "time"

// Scan reason codes recorded in access_logs.details.
const (
	ReasonUnknownToken      = "unknown_token"
	ReasonAttendeeInactive  = "attendee_inactive"
	ReasonMealLimitExceeded = "meal_limit_exceeded"
)

// AccessLog is one scan attempt, pass or fail. Append-only: rows are never
// updated or deleted. AttendeeID and TokenID are nil for unrecognized tokens.
type AccessLog struct {
	ID          int                    `json:"id" db:"id"`
	AttendeeID  *string                `json:"attendee_id,omitempty" db:"attendee_id"`
	TokenID     *int                   `json:"token_id,omitempty" db:"token_id"`
	ScanType    string                 `json:"scan_type" db:"scan_type"`
	GateID      *string                `json:"gate_id,omitempty" db:"gate_id"`
	StaffUserID int                    `json:"staff_user_id" db:"staff_user_id"`
	Result      string                 `json:"result" db:"result"`
	Details     map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`

	// Joined fields for the admin scans listing
	AttendeeBadgeID *string `json:"attendee_badge_id,omitempty" db:"attendee_badge_id"`
	AttendeeName    *string `json:"attendee_name,omitempty" db:"attendee_name"`
	StaffName       string  `json:"staff_name,omitempty" db:"staff_name"`
}
