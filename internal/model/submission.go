package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates submission states.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
)

// Submission is a student's answer to an assignment.
type Submission struct {
	ID              uuid.UUID        `json:"id"`
	AssignmentID    uuid.UUID        `json:"assignment_id"`
	StudentID       int              `json:"student_id"`
	StudentName     string           `json:"student_name,omitempty"`
	Content         string           `json:"content"`
	Files           []SubmissionFile `json:"files"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	IsLate          bool             `json:"is_late"`
	Status          SubmissionStatus `json:"status"`
	Grade           *float64         `json:"grade,omitempty"`
	Feedback        *string          `json:"feedback,omitempty"`
	GradedBy        *int             `json:"graded_by,omitempty"`
	GradedAt        *time.Time       `json:"graded_at,omitempty"`
	PlagiarismScore *float64         `json:"plagiarism_score,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SubmissionFile is one uploaded file of a submission.
type SubmissionFile struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
}

// SubmissionFileInput references a file previously stored via /uploads.
type SubmissionFileInput struct {
	FileName string `json:"file_name" binding:"required,max=255"`
	FileURL  string `json:"file_url" binding:"required,max=1024"`
	FileSize int64  `json:"file_size" binding:"omitempty,min=0"`
	MimeType string `json:"mime_type" binding:"omitempty,max=127"`
}

// SubmitAssignmentRequest is the student's submission payload.
type SubmitAssignmentRequest struct {
	Content string                `json:"content" binding:"omitempty,max=200000"`
	Files   []SubmissionFileInput `json:"files" binding:"omitempty,dive"`
}

// GradeSubmissionRequest is the faculty grading payload.
type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" binding:"gte=0"`
	Feedback string  `json:"feedback" binding:"omitempty,max=5000"`
}
