package model

import "time"

// QuestionGenerationMethod is the variant tag of a coding exam's question source.
type QuestionGenerationMethod string

const (
	QuestionsByAI     QuestionGenerationMethod = "ai"
	QuestionsByUpload QuestionGenerationMethod = "upload"
	QuestionsByRandom QuestionGenerationMethod = "random"
)

// CodingExamStatus enumerates the lifecycle of a coding exam.
type CodingExamStatus string

const (
	// CodingExamStatusPending waits for its scheduled publish time.
	CodingExamStatusPending   CodingExamStatus = "pending"
	CodingExamStatusScheduled CodingExamStatus = "scheduled"
	CodingExamStatusCancelled CodingExamStatus = "cancelled"
)

// ExamSecurity holds the proctoring switches of a coding exam.
type ExamSecurity struct {
	EnableSecurity     bool `json:"enable_security"`
	EnableCamera       bool `json:"enable_camera"`
	EnableMicrophone   bool `json:"enable_microphone"`
	EnableScreenShare  bool `json:"enable_screen_share"`
	AllowTabSwitch     bool `json:"allow_tab_switch"`
	MaxTabSwitches     int  `json:"max_tab_switches"`
	EnableAutoSubmit   bool `json:"enable_auto_submit"`
	WarningThreshold   int  `json:"warning_threshold"`
	FullscreenRequired bool `json:"fullscreen_required"`
}

// ExamDraft is the typed view of the coding exam wizard's fields.
type ExamDraft struct {
	Title                    string                   `json:"title"`
	FacultyName              string                   `json:"faculty_name"`
	ExamDate                 string                   `json:"exam_date"`
	StartTime                string                   `json:"start_time"`
	EndTime                  string                   `json:"end_time"`
	Duration                 int                      `json:"duration"`
	Department               string                   `json:"department"`
	StudyingYear             string                   `json:"studying_year"`
	Language                 string                   `json:"language"`
	Description              string                   `json:"description"`
	Instructions             string                   `json:"instructions"`
	TotalMarks               int                      `json:"total_marks"`
	PassingMarks             int                      `json:"passing_marks"`
	IsScheduled              bool                     `json:"is_scheduled"`
	ScheduleDate             string                   `json:"schedule_date"`
	ScheduleTime             string                   `json:"schedule_time"`
	QuestionsPerStudent      int                      `json:"questions_per_student"`
	QuestionGenerationMethod QuestionGenerationMethod `json:"question_generation_method"`
	UploadedFile             string                   `json:"uploaded_file"`
	AIQuestions              string                   `json:"ai_questions"`
	ExamSecurity
}

// CodingExam is a finalized exam stored under the coding_exams key.
type CodingExam struct {
	ID        string `json:"id"`
	FacultyID int    `json:"faculty_id"`
	ExamDraft
	StartsAt    time.Time        `json:"starts_at"`
	IsExam      bool             `json:"is_exam"`
	Status      CodingExamStatus `json:"status"`
	PublishAt   *time.Time       `json:"publish_at,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ListID implements listview.Record.
func (e CodingExam) ListID() string { return e.ID }

// FieldValue implements listview.Record.
func (e CodingExam) FieldValue(name string) any {
	switch name {
	case "id":
		return e.ID
	case "title":
		return e.Title
	case "faculty_name":
		return e.FacultyName
	case "department":
		return e.Department
	case "studying_year":
		return e.StudyingYear
	case "language":
		return e.Language
	case "status":
		return string(e.Status)
	case "starts_at":
		return e.StartsAt
	case "created_at":
		return e.CreatedAt
	case "total_marks":
		return e.TotalMarks
	}
	return nil
}
