package model

import "time"

// UserType separates the two kinds of campus accounts.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeFaculty UserType = "faculty"
)

// User is an authenticated account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	UserType     UserType  `json:"user_type"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for email + password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token            string   `json:"token"`
	User             User     `json:"user"`
	ProfileCompleted bool     `json:"profile_completed"`
	Profile          *Profile `json:"profile,omitempty"`
}

// CurrentUser is the session view returned by /auth/current-user.
type CurrentUser struct {
	User             User     `json:"user"`
	Profile          *Profile `json:"profile,omitempty"`
	ProfileCompleted bool     `json:"profile_completed"`
}
