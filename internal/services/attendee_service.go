package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/timeutil"
)

type AttendeeService struct {
	Repo      *repositories.AttendeeRepository
	EventRepo *repositories.EventRepository
}

func NewAttendeeService(repo *repositories.AttendeeRepository, eventRepo *repositories.EventRepository) *AttendeeService {
	return &AttendeeService{Repo: repo, EventRepo: eventRepo}
}

// GenerateBadgeID builds a badge id of the form BADGE-{timestamp36}-{rand36}.
func GenerateBadgeID() string {
	ts := strings.ToUpper(strconv.FormatInt(timeutil.Now().UnixMilli(), 36))
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("BADGE-%s-%s", ts, suffix)
}

// Create registers an attendee with a fresh badge id.
func (s *AttendeeService) Create(ctx context.Context, req *models.CreateAttendeeRequest) (*models.Attendee, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, errors.New("first and last name are required")
	}

	if req.EventID != nil {
		event, err := s.EventRepo.Get(ctx, *req.EventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, errors.New("event not found")
		}
	}

	regType := req.RegistrationType
	if regType == "" {
		regType = "delegate"
	}

	attendee := &models.Attendee{
		EventID:          req.EventID,
		BadgeID:          GenerateBadgeID(),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		RegistrationType: regType,
		MealAllowance:    req.MealAllowance,
		Active:           true,
	}
	if req.Email != "" {
		attendee.Email = &req.Email
	}
	if req.Phone != "" {
		attendee.Phone = &req.Phone
	}
	if req.Org != "" {
		attendee.Org = &req.Org
	}

	if err := s.Repo.Create(ctx, attendee); err != nil {
		return nil, err
	}
	return attendee, nil
}

// Get returns the attendee by id, nil if not found.
func (s *AttendeeService) Get(ctx context.Context, id string) (*models.Attendee, error) {
	return s.Repo.Get(ctx, id)
}

// List returns a page of attendees.
func (s *AttendeeService) List(ctx context.Context, limit, offset int) ([]models.Attendee, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

// Update applies a partial update and returns the updated attendee.
func (s *AttendeeService) Update(ctx context.Context, id string, req *models.UpdateAttendeeRequest) (*models.Attendee, error) {
	if req.EventID != nil {
		event, err := s.EventRepo.Get(ctx, *req.EventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, errors.New("event not found")
		}
	}
	return s.Repo.Update(ctx, id, req)
}

// Deactivate marks the attendee inactive; scans fail from then on
// regardless of credential validity.
func (s *AttendeeService) Deactivate(ctx context.Context, id string) error {
	return s.Repo.Deactivate(ctx, id)
}
