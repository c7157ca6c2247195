package models

import "time"

type Attendee struct {
	ID               string    `json:"id" db:"id"`
	EventID          *int      `json:"event_id,omitempty" db:"event_id"`
	BadgeID          string    `json:"badge_id" db:"badge_id"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Email            *string   `json:"email,omitempty" db:"email"`
	Phone            *string   `json:"phone,omitempty" db:"phone"`
	Org              *string   `json:"org,omitempty" db:"org"`
	RegistrationType string    `json:"registration_type" db:"registration_type"`
	MealAllowance    int       `json:"meal_allowance" db:"meal_allowance"`
	Active           bool      `json:"active" db:"active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type CreateAttendeeRequest struct {
	EventID          *int    `json:"event_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Org              string  `json:"org"`
	RegistrationType string  `json:"registration_type"`
	MealAllowance    int     `json:"meal_allowance"`
}

type UpdateAttendeeRequest struct {
	EventID          *int    `json:"event_id"`
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Org              *string `json:"org"`
	RegistrationType *string `json:"registration_type"`
	MealAllowance    *int    `json:"meal_allowance"`
	Active           *bool   `json:"active"`
}

// AttendeeSummary is the identity slice returned on a passing scan.
type AttendeeSummary struct {
	ID               string  `json:"id"`
	BadgeID          string  `json:"badge_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Org              *string `json:"org,omitempty"`
	RegistrationType string  `json:"registration_type,omitempty"`
}
