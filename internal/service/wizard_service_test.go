package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

type memDraftStore struct {
	mu     sync.Mutex
	drafts map[string]*wizard.State
	locked map[string]bool
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: map[string]*wizard.State{}, locked: map[string]bool{}}
}

func draftKey(flow string, userID int) string {
	b, _ := json.Marshal([]any{flow, userID})
	return string(b)
}

func (m *memDraftStore) Load(_ context.Context, flow string, userID int) (*wizard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.drafts[draftKey(flow, userID)]
	if !ok {
		return nil, ErrDraftNotFound
	}
	raw, _ := json.Marshal(st)
	var out wizard.State
	_ = json.Unmarshal(raw, &out)
	return &out, nil
}

func (m *memDraftStore) Save(_ context.Context, userID int, st *wizard.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, _ := json.Marshal(st)
	var cp wizard.State
	_ = json.Unmarshal(raw, &cp)
	m.drafts[draftKey(st.Flow, userID)] = &cp
	return nil
}

func (m *memDraftStore) Delete(_ context.Context, flow string, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, draftKey(flow, userID))
	return nil
}

func (m *memDraftStore) Lock(_ context.Context, flow string, userID int) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := draftKey(flow, userID)
	if m.locked[k] {
		return nil, wizard.ErrInFlight
	}
	m.locked[k] = true
	return func() {
		m.mu.Lock()
		delete(m.locked, k)
		m.mu.Unlock()
	}, nil
}

func (m *memDraftStore) Locked(_ context.Context, flow string, userID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked[draftKey(flow, userID)], nil
}

type fakeProfiles struct {
	saved *model.Profile
}

func (f *fakeProfiles) GetByUserID(context.Context, int) (*model.Profile, error) {
	if f.saved == nil {
		return nil, repository.ErrNotFound
	}
	return f.saved, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *model.Profile) error {
	f.saved = p
	return nil
}

type fakeFaces struct{ err error }

func (f fakeFaces) SaveFaceImage(_ context.Context, userID int, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "/uploads/faces/face.jpg", nil
}

type fakeAssignments struct {
	created   []*model.Assignment
	published []uuid.UUID
}

func (f *fakeAssignments) Create(_ context.Context, a *model.Assignment) error {
	a.ID = uuid.New()
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAssignments) Publish(_ context.Context, _ int, id uuid.UUID) (*model.Assignment, error) {
	f.published = append(f.published, id)
	for _, a := range f.created {
		if a.ID == id {
			a.Status = model.AssignmentStatusPublished
			return a, nil
		}
	}
	return nil, ErrAssignmentNotFound
}

type fakeGenerator struct {
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return "1. Explain recursion.", nil
}

var (
	studentClaims = &Claims{UserID: 7, UserType: model.UserTypeStudent, Email: "asha@college.edu"}
	facultyClaims = &Claims{UserID: 3, UserType: model.UserTypeFaculty, Email: "rao@college.edu", Name: "Dr. Rao"}
)

type wizardFixture struct {
	svc         *WizardService
	drafts      *memDraftStore
	profiles    *fakeProfiles
	assignments *fakeAssignments
	gen         *fakeGenerator
}

func newWizardFixture() *wizardFixture {
	fx := &wizardFixture{
		drafts:      newMemDraftStore(),
		profiles:    &fakeProfiles{},
		assignments: &fakeAssignments{},
		gen:         &fakeGenerator{},
	}
	fx.svc = NewWizardService(fx.drafts, zerolog.Nop(),
		NewProfileFlow(fx.profiles, fakeFaces{}),
		NewAssignmentFlow(fx.assignments, fx.gen),
	)
	return fx
}

func patch(t *testing.T, values map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = raw
	}
	return out
}

func TestProfileWizardBlankNameStaysOnFirstStep(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)

	_, err = fx.svc.SetFields(ctx, studentClaims, FlowProfile, patch(t, map[string]any{
		"name":       "",
		"department": "cse",
	}))
	require.NoError(t, err)

	v, err := fx.svc.Advance(ctx, studentClaims, FlowProfile)
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
	assert.Equal(t, 1, v.CurrentStep)

	saved, err := fx.svc.Get(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.CurrentStep)
	assert.Contains(t, saved.Errors, "name")
}

func TestProfileWizardCompletes(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)

	steps := []map[string]any{
		{"name": "Asha", "department": "cse", "year": "2", "prn": "PRN001"},
		{"phone": "9876543210", "address": "Hostel 4"},
		{"face_image": "data:image/jpeg;base64,AAAA"},
	}
	for i, values := range steps {
		_, err := fx.svc.SetFields(ctx, studentClaims, FlowProfile, patch(t, values))
		require.NoError(t, err)
		if i < len(steps)-1 {
			v, err := fx.svc.Advance(ctx, studentClaims, FlowProfile)
			require.NoError(t, err)
			assert.Equal(t, i+2, v.CurrentStep)
		}
	}

	res, err := fx.svc.Finalize(ctx, studentClaims, FlowProfile, FinalizeOptions{})
	require.NoError(t, err)
	assert.True(t, res.Draft.Completed)

	require.NotNil(t, fx.profiles.saved)
	assert.Equal(t, "asha@college.edu", fx.profiles.saved.Email)
	assert.Equal(t, "PRN001", fx.profiles.saved.PRN)
	assert.Equal(t, "/uploads/faces/face.jpg", fx.profiles.saved.FaceImageURL)

	_, err = fx.svc.Get(ctx, studentClaims, FlowProfile)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestProfileWizardRejectsLockedAndUnknownFields(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)

	tests := []struct {
		name   string
		values map[string]any
		want   error
	}{
		{"locked email", map[string]any{"department": "cse", "email": "x@y.z"}, wizard.ErrFieldLocked},
		{"unknown field", map[string]any{"department": "cse", "shoe_size": 9}, wizard.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.SetFields(ctx, studentClaims, FlowProfile, patch(t, tt.values))
			assert.ErrorIs(t, err, tt.want)

			v, err := fx.svc.Get(ctx, studentClaims, FlowProfile)
			require.NoError(t, err)
			assert.False(t, v.Fields.Filled("department"), "patch must not be partially applied")
		})
	}
}

func TestAssignmentWizardFinalizesWithoutDepartment(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	_, err = fx.svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{
		"title":       "Linked lists",
		"description": "Implement a doubly linked list.",
		"due_date":    "2030-01-15",
		"year":        "2, 3",
	}))
	require.NoError(t, err)

	res, err := fx.svc.Finalize(ctx, facultyClaims, FlowAssignment, FinalizeOptions{Publish: true})
	require.NoError(t, err)

	require.Len(t, fx.assignments.created, 1)
	a := fx.assignments.created[0]
	assert.Empty(t, a.Department)
	assert.Equal(t, []string{"2", "3"}, a.TargetYears)
	assert.Equal(t, 23, a.DueAt.Hour())
	assert.Equal(t, []uuid.UUID{a.ID}, fx.assignments.published)
	assert.Equal(t, model.AssignmentStatusPublished, res.Result.(*model.Assignment).Status)
}

func TestAssignmentWizardPersistErrorsAreKeptOnDraft(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	_, err = fx.svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{
		"title":           "Quiz 1",
		"description":     "Short quiz",
		"due_date":        "2030-01-15",
		"year":            "1",
		"assignment_type": "quiz",
	}))
	require.NoError(t, err)

	res, err := fx.svc.Finalize(ctx, facultyClaims, FlowAssignment, FinalizeOptions{})
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "questions")
	assert.False(t, res.Draft.Completed)
	assert.Empty(t, fx.assignments.created)

	v, err := fx.svc.Get(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	assert.Contains(t, v.Errors, "questions")
	assert.False(t, v.Submitting)
}

func TestWizardFinalizeInFlight(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)

	release, err := fx.drafts.Lock(ctx, FlowAssignment, facultyClaims.UserID)
	require.NoError(t, err)
	defer release()

	_, err = fx.svc.Finalize(ctx, facultyClaims, FlowAssignment, FinalizeOptions{})
	assert.ErrorIs(t, err, wizard.ErrInFlight)
	assert.Empty(t, fx.assignments.created)
}

// blockingAssignments holds Create open until release is closed.
type blockingAssignments struct {
	fakeAssignments
	entered chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingAssignments) Create(ctx context.Context, a *model.Assignment) error {
	close(b.entered)
	<-b.release
	if b.err != nil {
		return b.err
	}
	return b.fakeAssignments.Create(ctx, a)
}

func startBlockedFinalize(t *testing.T, writer *blockingAssignments) (*WizardService, <-chan error) {
	t.Helper()
	ctx := context.Background()
	svc := NewWizardService(newMemDraftStore(), zerolog.Nop(), NewAssignmentFlow(writer, &fakeGenerator{}))

	_, err := svc.Start(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	_, err = svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{
		"title":       "Graphs",
		"description": "BFS and DFS",
		"due_date":    "2030-02-01",
		"year":        "2",
	}))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Finalize(ctx, facultyClaims, FlowAssignment, FinalizeOptions{})
		done <- err
	}()
	<-writer.entered
	return svc, done
}

func TestWizardRefusesEditsDuringFinalize(t *testing.T) {
	ctx := context.Background()
	writer := &blockingAssignments{entered: make(chan struct{}), release: make(chan struct{})}
	svc, done := startBlockedFinalize(t, writer)

	v, err := svc.Get(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	assert.True(t, v.Submitting)

	_, err = svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{"title": "Trees"}))
	assert.ErrorIs(t, err, wizard.ErrInFlight)
	_, err = svc.Advance(ctx, facultyClaims, FlowAssignment)
	assert.ErrorIs(t, err, wizard.ErrInFlight)
	_, err = svc.Retreat(ctx, facultyClaims, FlowAssignment)
	assert.ErrorIs(t, err, wizard.ErrInFlight)
	assert.ErrorIs(t, svc.Discard(ctx, facultyClaims, FlowAssignment), wizard.ErrInFlight)

	close(writer.release)
	require.NoError(t, <-done)

	require.Len(t, writer.created, 1)
	assert.Equal(t, "Graphs", writer.created[0].Title)
	_, err = svc.Get(ctx, facultyClaims, FlowAssignment)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestWizardFailedFinalizeClearsSubmitting(t *testing.T) {
	ctx := context.Background()
	writer := &blockingAssignments{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		err:     errors.New("connection reset"),
	}
	svc, done := startBlockedFinalize(t, writer)

	close(writer.release)
	require.Error(t, <-done)

	v, err := svc.Get(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	assert.False(t, v.Submitting)
	assert.False(t, v.Completed)

	v, err = svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{"title": "Trees"}))
	require.NoError(t, err)
	assert.Equal(t, "Trees", v.Fields.String("title"))
}

func TestWizardClearsStaleSubmittingFlag(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)
	st, err := fx.drafts.Load(ctx, FlowProfile, studentClaims.UserID)
	require.NoError(t, err)
	st.Submitting = true
	require.NoError(t, fx.drafts.Save(ctx, studentClaims.UserID, st))

	v, err := fx.svc.SetFields(ctx, studentClaims, FlowProfile, patch(t, map[string]any{"name": "Asha"}))
	require.NoError(t, err)
	assert.False(t, v.Submitting)
}

func TestWizardFlowAccess(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowAssignment)
	assert.ErrorIs(t, err, ErrFlowForbidden)

	_, err = fx.svc.Start(ctx, studentClaims, "payroll")
	assert.ErrorIs(t, err, ErrUnknownFlow)

	_, err = fx.svc.Get(ctx, facultyClaims, FlowAssignment)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestWizardRetreatKeepsFields(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)
	_, err = fx.svc.SetFields(ctx, studentClaims, FlowProfile, patch(t, map[string]any{
		"name": "Asha", "department": "cse", "year": "2", "prn": "P1",
	}))
	require.NoError(t, err)
	_, err = fx.svc.Advance(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)

	v, err := fx.svc.Retreat(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
	assert.Equal(t, "academic", v.Step.Name)
	assert.Equal(t, "P1", v.Fields.String("prn"))

	v, err = fx.svc.Retreat(ctx, studentClaims, FlowProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
}

func TestAssignmentWizardGenerate(t *testing.T) {
	ctx := context.Background()
	fx := newWizardFixture()

	_, err := fx.svc.Start(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)

	_, err = fx.svc.Generate(ctx, facultyClaims, FlowAssignment)
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "ai_prompt")

	_, err = fx.svc.SetFields(ctx, facultyClaims, FlowAssignment, patch(t, map[string]any{
		"title":     "Recursion",
		"ai_prompt": "Questions about recursion",
	}))
	require.NoError(t, err)

	v, err := fx.svc.Generate(ctx, facultyClaims, FlowAssignment)
	require.NoError(t, err)
	assert.Equal(t, "1. Explain recursion.", v.Fields.String("questions"))
	assert.Contains(t, fx.gen.prompt, "Questions about recursion")
	assert.Contains(t, fx.gen.prompt, "intermediate")
}

func TestProfilePersistMapsBadImageToFieldError(t *testing.T) {
	flow := NewProfileFlow(&fakeProfiles{}, fakeFaces{err: errors.Join(ErrInvalidImage, errors.New("bad header"))})
	_, err := flow.Persist(context.Background(), studentClaims, wizard.Fields{
		"name":       wizard.Value("Asha"),
		"face_image": wizard.Value("data:image/png;base64,xx"),
	}, FinalizeOptions{})

	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "face_image")
}

type fakeExams struct {
	created []model.ExamDraft
}

func (f *fakeExams) Create(_ context.Context, _ *Claims, d model.ExamDraft) (*model.CodingExam, error) {
	f.created = append(f.created, d)
	return &model.CodingExam{ID: "EXAM-1", ExamDraft: d}, nil
}

func startExamAtSecurityStep(t *testing.T) (*WizardService, *fakeExams) {
	t.Helper()
	ctx := context.Background()
	exams := &fakeExams{}
	svc := NewWizardService(newMemDraftStore(), zerolog.Nop(), NewExamFlow(exams))

	_, err := svc.Start(ctx, facultyClaims, FlowExam)
	require.NoError(t, err)

	steps := []map[string]any{
		{
			"title": "DSA Midterm", "exam_date": "2030-03-10", "start_time": "10:00", "end_time": "12:00",
			"department": "cse", "studying_year": "2", "language": "python",
		},
		{"description": "Arrays and trees", "instructions": "No internet"},
	}
	for _, values := range steps {
		_, err := svc.SetFields(ctx, facultyClaims, FlowExam, patch(t, values))
		require.NoError(t, err)
		_, err = svc.Advance(ctx, facultyClaims, FlowExam)
		require.NoError(t, err)
	}
	return svc, exams
}

func TestExamWizardSecurityRules(t *testing.T) {
	tests := []struct {
		name       string
		values     map[string]any
		wantFields []string
	}{
		{
			name:       "scheduled without date or time",
			values:     map[string]any{"is_scheduled": true},
			wantFields: []string{"schedule_date", "schedule_time"},
		},
		{
			name:       "scheduled without time",
			values:     map[string]any{"is_scheduled": true, "schedule_date": "2030-03-01"},
			wantFields: []string{"schedule_time"},
		},
		{
			name:       "upload without file",
			values:     map[string]any{"question_generation_method": "upload"},
			wantFields: []string{"uploaded_file"},
		},
		{
			name:       "unknown method",
			values:     map[string]any{"question_generation_method": "telepathy"},
			wantFields: []string{"question_generation_method"},
		},
		{
			name:   "scheduled and uploaded",
			values: map[string]any{
				"is_scheduled": true, "schedule_date": "2030-03-01", "schedule_time": "09:00",
				"question_generation_method": "upload", "uploaded_file": "/uploads/questions.xlsx",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := startExamAtSecurityStep(t)

			_, err := svc.SetFields(ctx, facultyClaims, FlowExam, patch(t, tt.values))
			require.NoError(t, err)

			v, err := svc.Advance(ctx, facultyClaims, FlowExam)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, "review", v.Step.Name)
				return
			}
			var ve *wizard.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Len(t, ve.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, ve.Fields, f)
			}
			assert.Equal(t, "security", v.Step.Name)
		})
	}
}

func TestExamWizardFinalizes(t *testing.T) {
	ctx := context.Background()
	svc, exams := startExamAtSecurityStep(t)

	_, err := svc.SetFields(ctx, facultyClaims, FlowExam, patch(t, map[string]any{
		"is_scheduled": true, "schedule_date": "2030-03-01", "schedule_time": "09:00",
		"question_generation_method": "upload", "uploaded_file": "/uploads/questions.xlsx",
	}))
	require.NoError(t, err)
	_, err = svc.Advance(ctx, facultyClaims, FlowExam)
	require.NoError(t, err)

	res, err := svc.Finalize(ctx, facultyClaims, FlowExam, FinalizeOptions{})
	require.NoError(t, err)
	assert.True(t, res.Draft.Completed)

	require.Len(t, exams.created, 1)
	d := exams.created[0]
	assert.Equal(t, "DSA Midterm", d.Title)
	assert.Equal(t, "Dr. Rao", d.FacultyName)
	assert.True(t, d.IsScheduled)
	assert.Equal(t, "09:00", d.ScheduleTime)
	assert.Equal(t, model.QuestionsByUpload, d.QuestionGenerationMethod)
	assert.Equal(t, "/uploads/questions.xlsx", d.UploadedFile)
	assert.Equal(t, 120, d.Duration)
}

func TestExamWizardFinalizeRechecksSchedule(t *testing.T) {
	ctx := context.Background()
	svc, exams := startExamAtSecurityStep(t)

	_, err := svc.Advance(ctx, facultyClaims, FlowExam)
	require.NoError(t, err)
	_, err = svc.SetFields(ctx, facultyClaims, FlowExam, patch(t, map[string]any{"is_scheduled": true}))
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, facultyClaims, FlowExam, FinalizeOptions{})
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "schedule_date")
	assert.Contains(t, ve.Fields, "schedule_time")
	assert.Empty(t, exams.created)
}
