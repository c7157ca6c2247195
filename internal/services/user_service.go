package services

import (
	"context"
	"errors"

	"conf-backend/internal/auth"
	"conf-backend/internal/models"
	"conf-backend/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login response does not reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	Repo       *repositories.StaffUserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.StaffUserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{Repo: repo, JWTManager: jwtManager}
}

// Login verifies the password and returns a session token with the user.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.JWTManager.Generate(user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{Token: token, User: user}, nil
}

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
