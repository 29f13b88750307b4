package model

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentType is the variant tag of an assignment.
type AssignmentType string

const (
	AssignmentTypeFileUpload AssignmentType = "file_upload"
	AssignmentTypeTextBased  AssignmentType = "text_based"
	AssignmentTypeQuiz       AssignmentType = "quiz"
	AssignmentTypeCoding     AssignmentType = "coding"
)

// AssignmentStatus enumerates the lifecycle of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"
	AssignmentStatusPublished AssignmentStatus = "published"
	AssignmentStatusClosed    AssignmentStatus = "closed"
)

// Assignment is a row of the assignments table.
type Assignment struct {
	ID                    uuid.UUID        `json:"id"`
	FacultyID             int              `json:"faculty_id"`
	FacultyName           string           `json:"faculty_name,omitempty"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	Instructions          string           `json:"instructions,omitempty"`
	Department            string           `json:"department"`
	TargetYears           []string         `json:"target_years"`
	AssignmentType        AssignmentType   `json:"assignment_type"`
	MaxMarks              int              `json:"max_marks"`
	PassingMarks          int              `json:"passing_marks"`
	StartAt               *time.Time       `json:"start_at,omitempty"`
	DueAt                 time.Time        `json:"due_at"`
	AllowedFileTypes      []string         `json:"allowed_file_types"`
	AllowLateSubmission   bool             `json:"allow_late_submission"`
	AllowResubmission     bool             `json:"allow_resubmission"`
	EnablePlagiarismCheck bool             `json:"enable_plagiarism_check"`
	EnableGroupSubmission bool             `json:"enable_group_submission"`
	Visibility            string           `json:"visibility"`
	Difficulty            string           `json:"difficulty,omitempty"`
	EstimatedMinutes      int              `json:"estimated_minutes,omitempty"`
	Questions             string           `json:"questions,omitempty"`
	Status                AssignmentStatus `json:"status"`
	PublishedAt           *time.Time       `json:"published_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`

	Resources       []AssignmentResource `json:"resources,omitempty"`
	Submission      *Submission          `json:"submission,omitempty"`
	SubmissionCount int                  `json:"submission_count"`
}

// ListID implements listview.Record.
func (a Assignment) ListID() string { return a.ID.String() }

// FieldValue implements listview.Record.
func (a Assignment) FieldValue(name string) any {
	switch name {
	case "title":
		return a.Title
	case "description":
		return a.Description
	case "department":
		return a.Department
	case "assignment_type":
		return string(a.AssignmentType)
	case "status":
		return string(a.Status)
	case "due_at":
		return a.DueAt
	case "created_at":
		return a.CreatedAt
	case "max_marks":
		return a.MaxMarks
	case "submission_count":
		return a.SubmissionCount
	}
	return nil
}

// AssignmentResource is a reference file attached by faculty.
type AssignmentResource struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// AssignmentDraft is the typed view of the assignment wizard's fields.
type AssignmentDraft struct {
	Title                 string         `json:"title"`
	Description           string         `json:"description"`
	Instructions          string         `json:"instructions"`
	Department            string         `json:"department"`
	Year                  string         `json:"year"`
	DueDate               string         `json:"due_date"`
	DueTime               string         `json:"due_time"`
	StartDate             string         `json:"start_date"`
	StartTime             string         `json:"start_time"`
	MaxMarks              int            `json:"max_marks"`
	PassingMarks          int            `json:"passing_marks"`
	AssignmentType        AssignmentType `json:"assignment_type"`
	AllowedFileTypes      []string       `json:"allowed_file_types"`
	AllowLateSubmission   bool           `json:"allow_late_submission"`
	AllowResubmission     bool           `json:"allow_resubmission"`
	EnablePlagiarismCheck bool           `json:"enable_plagiarism_check"`
	EnableGroupSubmission bool           `json:"enable_group_submission"`
	Visibility            string         `json:"visibility"`
	AIPrompt              string         `json:"ai_prompt"`
	Difficulty            string         `json:"difficulty"`
	EstimatedTime         int            `json:"estimated_time"`
	FileContent           string         `json:"file_content"`
	Questions             string         `json:"questions"`
}

// UpdateAssignmentRequest patches an existing assignment. Nil fields are kept.
type UpdateAssignmentRequest struct {
	Title                 *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description           *string    `json:"description" binding:"omitempty,min=1"`
	Instructions          *string    `json:"instructions"`
	Department            *string    `json:"department"`
	TargetYears           []string   `json:"target_years" binding:"omitempty,dive,required"`
	MaxMarks              *int       `json:"max_marks" binding:"omitempty,min=1,max=1000"`
	DueAt                 *time.Time `json:"due_at"`
	AllowLateSubmission   *bool      `json:"allow_late_submission"`
	AllowResubmission     *bool      `json:"allow_resubmission"`
	EnablePlagiarismCheck *bool      `json:"enable_plagiarism_check"`
	Questions             *string    `json:"questions"`
}
