package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// Sentinel errors for submissions.
var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrAssignmentNotPublished = errors.New("assignment not published")
	ErrSubmissionLocked       = errors.New("submission already graded")
	ErrResubmissionNotAllowed = errors.New("resubmission not allowed")
	ErrSubmissionClosed       = errors.New("due date passed")
	ErrGradeExceedsMax        = errors.New("grade exceeds max marks")
	ErrNotInCohort            = errors.New("assignment not assigned to student")
	ErrFileTypeNotAllowed     = errors.New("file type not allowed")
)

// SubmissionService handles student submissions and grading.
type SubmissionService struct {
	repo        *repository.SubmissionRepository
	assignments *AssignmentService
	profiles    *repository.ProfileRepository
	notifier    Notifier
	rdb         *redis.Client
	log         zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	repo *repository.SubmissionRepository,
	assignments *AssignmentService,
	profiles *repository.ProfileRepository,
	notifier Notifier,
	rdb *redis.Client,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		repo:        repo,
		assignments: assignments,
		profiles:    profiles,
		notifier:    notifier,
		rdb:         rdb,
		log:         log.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit records or replaces a student's submission.
func (s *SubmissionService) Submit(ctx context.Context, claims *Claims, assignmentID uuid.UUID, req model.SubmitAssignmentRequest) (*model.Submission, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := openForSubmission(a); err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileRequired
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !inCohort(a, p) {
		return nil, ErrNotInCohort
	}

	if err := checkSubmissionPayload(a, req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByAssignmentAndStudent(ctx, assignmentID, claims.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if existing != nil {
		if existing.Status == model.SubmissionStatusGraded {
			return nil, ErrSubmissionLocked
		}
		if !a.AllowResubmission {
			return nil, ErrResubmissionNotAllowed
		}
	}

	now := s.now()
	late := now.After(a.DueAt)
	if late && !a.AllowLateSubmission {
		return nil, ErrSubmissionClosed
	}

	sub := &model.Submission{
		AssignmentID: assignmentID,
		StudentID:    claims.UserID,
		StudentName:  claims.Name,
		Content:      req.Content,
		SubmittedAt:  now,
		IsLate:       late,
		Status:       model.SubmissionStatusSubmitted,
		Files:        make([]model.SubmissionFile, 0, len(req.Files)),
	}
	for _, f := range req.Files {
		sub.Files = append(sub.Files, model.SubmissionFile{
			FileName: f.FileName,
			FileURL:  f.FileURL,
			FileSize: f.FileSize,
			MimeType: f.MimeType,
		})
	}

	if err := s.repo.Save(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrGraded) {
			return nil, ErrSubmissionLocked
		}
		return nil, fmt.Errorf("save submission: %w", err)
	}

	s.notifyFaculty(ctx, a, sub)
	if a.EnablePlagiarismCheck && strings.TrimSpace(sub.Content) != "" {
		s.queuePlagiarismCheck(ctx, sub.ID)
	}

	s.log.Info().
		Str("assignment_id", assignmentID.String()).
		Int("student_id", claims.UserID).
		Bool("late", late).
		Msg("Submission saved")
	return sub, nil
}

// Get returns a submission visible to the caller: its student or the
// assignment's author.
func (s *SubmissionService) Get(ctx context.Context, claims *Claims, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub.StudentID == claims.UserID {
		return sub, nil
	}
	if claims.IsFaculty() {
		if _, err := s.assignments.owned(ctx, claims.UserID, sub.AssignmentID); err == nil {
			return sub, nil
		}
	}
	return nil, ErrSubmissionNotFound
}

// ListByAssignment returns all submissions of an assignment for its author.
func (s *SubmissionService) ListByAssignment(ctx context.Context, facultyID int, assignmentID uuid.UUID) ([]model.Submission, error) {
	if _, err := s.assignments.owned(ctx, facultyID, assignmentID); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	return subs, nil
}

// ListMine returns the caller's own submissions.
func (s *SubmissionService) ListMine(ctx context.Context, studentID int) ([]model.Submission, error) {
	subs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// Grade scores a submission and notifies the student. Regrading overwrites.
func (s *SubmissionService) Grade(ctx context.Context, facultyID int, id uuid.UUID, req model.GradeSubmissionRequest) (*model.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	a, err := s.assignments.owned(ctx, facultyID, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	if req.Grade > float64(a.MaxMarks) {
		return nil, ErrGradeExceedsMax
	}

	grade, feedback := req.Grade, req.Feedback
	sub.Grade = &grade
	sub.Feedback = &feedback
	sub.GradedBy = &facultyID
	if err := s.repo.Grade(ctx, sub); err != nil {
		return nil, fmt.Errorf("grade submission: %w", err)
	}

	n := model.Notification{
		UserID:  sub.StudentID,
		Type:    model.NotificationAssignmentGraded,
		Title:   "Graded: " + a.Title,
		Message: fmt.Sprintf("You scored %g out of %d.", grade, a.MaxMarks),
		Data: map[string]string{
			"assignment_id": a.ID.String(),
			"submission_id": sub.ID.String(),
		},
	}
	if err := s.notifier.Enqueue(ctx, n); err != nil {
		s.log.Error().Err(err).Str("submission_id", id.String()).Msg("Failed to queue grade notification")
	}
	return sub, nil
}

func (s *SubmissionService) notifyFaculty(ctx context.Context, a *model.Assignment, sub *model.Submission) {
	n := model.Notification{
		UserID:  a.FacultyID,
		Type:    model.NotificationAssignmentSubmitted,
		Title:   "New submission: " + a.Title,
		Message: sub.StudentName + " submitted their work.",
		Data: map[string]string{
			"assignment_id": a.ID.String(),
			"submission_id": sub.ID.String(),
		},
	}
	if sub.IsLate {
		n.Type = model.NotificationLateSubmission
		n.Title = "Late submission: " + a.Title
		n.Message = sub.StudentName + " submitted after the due date."
	}
	if err := s.notifier.Enqueue(ctx, n); err != nil {
		s.log.Error().Err(err).Str("submission_id", sub.ID.String()).Msg("Failed to queue submission notification")
	}
}

func (s *SubmissionService) queuePlagiarismCheck(ctx context.Context, id uuid.UUID) {
	payload, _ := json.Marshal(PlagiarismJob{SubmissionID: id})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PlagiarismQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("submission_id", id.String()).Msg("Failed to queue plagiarism check")
	}
}

// openForSubmission rejects assignments students cannot see. Hidden ones
// report not found, as they do on the student views.
func openForSubmission(a *model.Assignment) error {
	if a.Status != model.AssignmentStatusPublished {
		return ErrAssignmentNotPublished
	}
	if a.Visibility == "hidden" {
		return ErrAssignmentNotFound
	}
	return nil
}

func inCohort(a *model.Assignment, p *model.Profile) bool {
	if a.Department != "" && !strings.EqualFold(a.Department, p.Department) {
		return false
	}
	return slices.Contains(a.TargetYears, p.Year)
}

// checkSubmissionPayload enforces non-empty content and the assignment's
// allowed file extensions.
func checkSubmissionPayload(a *model.Assignment, req model.SubmitAssignmentRequest) error {
	if strings.TrimSpace(req.Content) == "" && len(req.Files) == 0 {
		return &wizard.ValidationError{Fields: wizard.FieldErrors{"content": "content or at least one file is required"}}
	}
	if a.AssignmentType != model.AssignmentTypeFileUpload || len(a.AllowedFileTypes) == 0 {
		return nil
	}
	for _, f := range req.Files {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.FileName), "."))
		if !slices.Contains(a.AllowedFileTypes, ext) {
			return fmt.Errorf("%w: %s (allowed: %s)", ErrFileTypeNotAllowed, f.FileName, strings.Join(a.AllowedFileTypes, ", "))
		}
	}
	return nil
}
