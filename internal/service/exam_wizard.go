package service

import (
	"context"

	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// FlowExam is the coding exam authoring wizard.
const FlowExam = "exam"

// ExamCreator stores a finalized coding exam.
type ExamCreator interface {
	Create(ctx context.Context, claims *Claims, d model.ExamDraft) (*model.CodingExam, error)
}

var examBasicFields = []string{
	"title", "faculty_name", "exam_date", "start_time", "end_time", "department",
	"studying_year", "language", "total_marks", "passing_marks",
}

var (
	scheduledPublish = wizard.RequiredIf(wizard.FieldTrue("is_scheduled"), "schedule_date", "schedule_time")
	generationMethod = wizard.OneOf("question_generation_method",
		string(model.QuestionsByAI), string(model.QuestionsByUpload), string(model.QuestionsByRandom))
	uploadedQuestions = wizard.RequiredIf(
		wizard.FieldEquals("question_generation_method", string(model.QuestionsByUpload)), "uploaded_file")
)

var examDefinition = &wizard.Definition{
	Flow: FlowExam,
	Steps: []wizard.Step{
		{
			Name:   "basic",
			Fields: append(append([]string{}, examBasicFields...), "duration"),
			Rules:  []wizard.Rule{wizard.Required(examBasicFields...)},
		},
		{
			Name:   "content",
			Fields: []string{"description", "instructions"},
			Rules:  []wizard.Rule{wizard.Required("description", "instructions")},
		},
		{
			Name: "security",
			Fields: []string{
				"enable_security", "enable_camera", "enable_microphone", "enable_screen_share",
				"allow_tab_switch", "max_tab_switches", "enable_auto_submit", "warning_threshold",
				"fullscreen_required", "is_scheduled", "schedule_date", "schedule_time",
				"questions_per_student", "question_generation_method", "uploaded_file", "ai_questions",
			},
			Rules: []wizard.Rule{scheduledPublish, generationMethod, uploadedQuestions},
		},
		{Name: "review"},
	},
	FinalizeRules: []wizard.Rule{
		wizard.Required(examBasicFields...),
		scheduledPublish,
		generationMethod,
		uploadedQuestions,
	},
}

// ExamFlow authors a coding exam.
type ExamFlow struct {
	exams ExamCreator
}

// NewExamFlow creates a new ExamFlow.
func NewExamFlow(exams ExamCreator) *ExamFlow {
	return &ExamFlow{exams: exams}
}

func (f *ExamFlow) Definition() *wizard.Definition { return examDefinition }

func (f *ExamFlow) Allows(claims *Claims) bool { return claims.IsFaculty() }

func (f *ExamFlow) Initial(_ context.Context, claims *Claims) (wizard.Fields, error) {
	return wizard.Fields{
		"faculty_name":               wizard.Value(claims.Name),
		"duration":                   wizard.Value(120),
		"total_marks":                wizard.Value(100),
		"passing_marks":              wizard.Value(40),
		"enable_security":            wizard.Value(true),
		"enable_camera":              wizard.Value(true),
		"enable_microphone":          wizard.Value(false),
		"enable_screen_share":        wizard.Value(true),
		"allow_tab_switch":           wizard.Value(false),
		"max_tab_switches":           wizard.Value(3),
		"enable_auto_submit":         wizard.Value(true),
		"warning_threshold":          wizard.Value(3),
		"fullscreen_required":        wizard.Value(true),
		"is_scheduled":               wizard.Value(false),
		"questions_per_student":      wizard.Value(3),
		"question_generation_method": wizard.Value(string(model.QuestionsByAI)),
	}, nil
}

func (f *ExamFlow) Persist(ctx context.Context, claims *Claims, fields wizard.Fields, _ FinalizeOptions) (any, error) {
	var d model.ExamDraft
	if err := wizard.Decode(fields, &d); err != nil {
		return nil, err
	}
	return f.exams.Create(ctx, claims, d)
}
