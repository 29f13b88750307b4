package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
)

// ErrUserNotFound is returned when no account matches.
var ErrUserNotFound = errors.New("user not found")

// UserService handles account lookups and the current-user view.
type UserService struct {
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserRepository, profiles *repository.ProfileRepository, auth *AuthService) *UserService {
	return &UserService{users: users, profiles: profiles, auth: auth}
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := s.auth.CheckEmailDomain(req.Email); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:            token,
		User:             *u,
		Profile:          profile,
		ProfileCompleted: profile != nil && profile.ProfileCompleted,
	}, nil
}

// CurrentUser resolves the session's user and profile.
func (s *UserService) CurrentUser(ctx context.Context, userID int) (*model.CurrentUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.CurrentUser{
		User:             *u,
		Profile:          profile,
		ProfileCompleted: profile != nil && profile.ProfileCompleted,
	}, nil
}

// Create registers an account with a hashed password.
func (s *UserService) Create(ctx context.Context, name, email, password string, userType model.UserType) (*model.User, error) {
	if userType != model.UserTypeStudent && userType != model.UserTypeFaculty {
		return nil, fmt.Errorf("unknown user type %q", userType)
	}
	if err := s.auth.CheckEmailDomain(email); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        strings.TrimSpace(email),
		Name:         strings.TrimSpace(name),
		UserType:     userType,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// StudentIDsByCohort lists students in a department and study year.
func (s *UserService) StudentIDsByCohort(ctx context.Context, department string, years []string) ([]int, error) {
	return s.users.ListStudentIDsByCohort(ctx, department, years)
}

func (s *UserService) profile(ctx context.Context, userID int) (*model.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
