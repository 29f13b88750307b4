package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// FlowAssignment is the faculty assignment authoring wizard.
const FlowAssignment = "assignment"

// AssignmentWriter creates and publishes assignments.
type AssignmentWriter interface {
	Create(ctx context.Context, a *model.Assignment) error
	Publish(ctx context.Context, facultyID int, id uuid.UUID) (*model.Assignment, error)
}

var assignmentTypes = []string{
	string(model.AssignmentTypeFileUpload),
	string(model.AssignmentTypeTextBased),
	string(model.AssignmentTypeQuiz),
	string(model.AssignmentTypeCoding),
}

var assignmentDefinition = &wizard.Definition{
	Flow: FlowAssignment,
	Steps: []wizard.Step{
		{
			Name: "basic",
			Fields: []string{"title", "description", "instructions", "department", "year",
				"due_date", "due_time", "start_date", "start_time", "max_marks", "passing_marks"},
			Rules: []wizard.Rule{wizard.Required("title", "description", "due_date", "year")},
		},
		{
			Name: "settings",
			Fields: []string{"assignment_type", "allowed_file_types", "allow_late_submission",
				"allow_resubmission", "enable_plagiarism_check", "enable_group_submission", "visibility"},
			Rules: []wizard.Rule{
				wizard.OneOf("assignment_type", assignmentTypes...),
				wizard.OneOf("visibility", "department", "hidden"),
			},
		},
		{
			Name:   "ai",
			Fields: []string{"ai_prompt", "difficulty", "estimated_time", "file_content"},
			Rules:  []wizard.Rule{wizard.OneOf("difficulty", "beginner", "intermediate", "advanced")},
		},
		{
			Name:   "questions",
			Fields: []string{"questions"},
		},
	},
	// Department is optional: an assignment without one reaches every
	// department's students of the target years.
	FinalizeRules: []wizard.Rule{
		wizard.Required("title", "description", "due_date", "year"),
		wizard.OneOf("assignment_type", assignmentTypes...),
	},
	FinalizeFromAnyStep: true,
}

// AssignmentFlow authors an assignment and optionally publishes it.
type AssignmentFlow struct {
	assignments AssignmentWriter
	ai          TextGenerator
}

// NewAssignmentFlow creates a new AssignmentFlow.
func NewAssignmentFlow(assignments AssignmentWriter, ai TextGenerator) *AssignmentFlow {
	return &AssignmentFlow{assignments: assignments, ai: ai}
}

func (f *AssignmentFlow) Definition() *wizard.Definition { return assignmentDefinition }

func (f *AssignmentFlow) Allows(claims *Claims) bool { return claims.IsFaculty() }

func (f *AssignmentFlow) Initial(context.Context, *Claims) (wizard.Fields, error) {
	return wizard.Fields{
		"due_time":                wizard.Value("23:59"),
		"start_time":              wizard.Value("00:00"),
		"max_marks":               wizard.Value(100),
		"passing_marks":           wizard.Value(40),
		"assignment_type":         wizard.Value(string(model.AssignmentTypeFileUpload)),
		"allowed_file_types":      wizard.Value([]string{"pdf"}),
		"allow_late_submission":   wizard.Value(false),
		"allow_resubmission":      wizard.Value(false),
		"enable_plagiarism_check": wizard.Value(true),
		"enable_group_submission": wizard.Value(false),
		"visibility":              wizard.Value("department"),
		"difficulty":              wizard.Value("intermediate"),
		"estimated_time":          wizard.Value(60),
	}, nil
}

// Generate fills questions from the AI prompt or uploaded file content.
func (f *AssignmentFlow) Generate(ctx context.Context, _ *Claims, fields wizard.Fields) (wizard.Fields, error) {
	if errs := wizard.Check(fields,
		wizard.AnyOf("ai_prompt", "file_content"),
		wizard.Required("difficulty"),
	); errs != nil {
		return nil, &wizard.ValidationError{Fields: errs}
	}

	var d model.AssignmentDraft
	if err := wizard.Decode(fields, &d); err != nil {
		return nil, err
	}

	prompt := questionPrompt(d.Title, d.AIPrompt, d.FileContent, d.Difficulty, d.EstimatedTime)
	text, err := f.ai.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return wizard.Fields{"questions": wizard.Value(text)}, nil
}

// Persist inserts the assignment as a draft, then publishes it when asked.
func (f *AssignmentFlow) Persist(ctx context.Context, claims *Claims, fields wizard.Fields, opts FinalizeOptions) (any, error) {
	var d model.AssignmentDraft
	if err := wizard.Decode(fields, &d); err != nil {
		return nil, err
	}

	a, err := assignmentFromDraft(claims.UserID, d)
	if err != nil {
		return nil, err
	}
	if err := f.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	if !opts.Publish {
		return a, nil
	}
	return f.assignments.Publish(ctx, claims.UserID, a.ID)
}

// assignmentFromDraft checks the per-type requirements and builds the row.
func assignmentFromDraft(facultyID int, d model.AssignmentDraft) (*model.Assignment, error) {
	errs := wizard.FieldErrors{}

	due, err := parseDateTime(d.DueDate, d.DueTime, "23:59")
	if err != nil {
		errs["due_date"] = "must be a date (YYYY-MM-DD) and time (HH:MM)"
	}

	var start *time.Time
	if strings.TrimSpace(d.StartDate) != "" {
		t, err := parseDateTime(d.StartDate, d.StartTime, "00:00")
		switch {
		case err != nil:
			errs["start_date"] = "must be a date (YYYY-MM-DD) and time (HH:MM)"
		case !due.IsZero() && !t.Before(due):
			errs["start_date"] = "must be before the due date"
		default:
			start = &t
		}
	}

	if d.MaxMarks <= 0 {
		errs["max_marks"] = "must be greater than 0"
	}
	if d.PassingMarks < 0 || d.PassingMarks > d.MaxMarks {
		errs["passing_marks"] = "must be between 0 and max marks"
	}

	switch d.AssignmentType {
	case model.AssignmentTypeFileUpload:
		if len(d.AllowedFileTypes) == 0 {
			errs["allowed_file_types"] = "at least one file type is required"
		}
	case model.AssignmentTypeQuiz, model.AssignmentTypeCoding:
		if strings.TrimSpace(d.Questions) == "" {
			errs["questions"] = fmt.Sprintf("questions are required for %s assignments", d.AssignmentType)
		}
	}

	if len(errs) > 0 {
		return nil, &wizard.ValidationError{Fields: errs}
	}

	visibility := d.Visibility
	if visibility == "" {
		visibility = "department"
	}

	return &model.Assignment{
		FacultyID:             facultyID,
		Title:                 strings.TrimSpace(d.Title),
		Description:           strings.TrimSpace(d.Description),
		Instructions:          strings.TrimSpace(d.Instructions),
		Department:            strings.ToLower(strings.TrimSpace(d.Department)),
		TargetYears:           splitList(d.Year),
		AssignmentType:        d.AssignmentType,
		MaxMarks:              d.MaxMarks,
		PassingMarks:          d.PassingMarks,
		StartAt:               start,
		DueAt:                 due,
		AllowedFileTypes:      normalizeExtensions(d.AllowedFileTypes),
		AllowLateSubmission:   d.AllowLateSubmission,
		AllowResubmission:     d.AllowResubmission,
		EnablePlagiarismCheck: d.EnablePlagiarismCheck,
		EnableGroupSubmission: d.EnableGroupSubmission,
		Visibility:            visibility,
		Difficulty:            d.Difficulty,
		EstimatedMinutes:      d.EstimatedTime,
		Questions:             d.Questions,
		Status:                model.AssignmentStatusDraft,
	}, nil
}

// splitList turns "2, 3" into ["2", "3"].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
