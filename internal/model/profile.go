package model

import "time"

// Profile is the completed onboarding record in user_profiles.
type Profile struct {
	UserID           int       `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	UserType         UserType  `json:"user_type"`
	Department       string    `json:"department"`
	Year             string    `json:"year,omitempty"`
	PRN              string    `json:"prn,omitempty"`
	Designation      string    `json:"designation,omitempty"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	FaceImageURL     string    `json:"face_image_url"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProfileDraft is the typed view of a finalized profile wizard.
// Email and user type come from the session, never from user input.
type ProfileDraft struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	UserType    UserType `json:"user_type"`
	Department  string   `json:"department"`
	Year        string   `json:"year"`
	PRN         string   `json:"prn"`
	Designation string   `json:"designation"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	FaceImage   string   `json:"face_image"`
}
