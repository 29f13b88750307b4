package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/listview"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
)

// Sentinel errors for assignment operations.
var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNotAssignmentOwner = errors.New("not the author of this assignment")
	ErrAssignmentNotDraft = errors.New("assignment is not a draft")
	ErrProfileRequired    = errors.New("profile not completed")
)

const assignmentCacheTTL = time.Hour

// AssignmentView configures search, filters and sort of assignment lists.
var AssignmentView = listview.View{
	TextFields:   []string{"title", "description", "department"},
	FilterFields: []string{"status", "assignment_type", "department"},
	SortFields:   []string{"due_at", "created_at", "title", "max_marks", "submission_count"},
	DefaultSort:  listview.Sort{Field: "due_at", Direction: listview.Asc},
}

// AssignmentService handles assignment authoring, publishing and listing.
type AssignmentService struct {
	repo        *repository.AssignmentRepository
	submissions *repository.SubmissionRepository
	profiles    *repository.ProfileRepository
	users       *repository.UserRepository
	media       *MediaService
	notifier    Notifier
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	repo *repository.AssignmentRepository,
	submissions *repository.SubmissionRepository,
	profiles *repository.ProfileRepository,
	users *repository.UserRepository,
	media *MediaService,
	notifier Notifier,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		repo:        repo,
		submissions: submissions,
		profiles:    profiles,
		users:       users,
		media:       media,
		notifier:    notifier,
		rdb:         rdb,
		log:         log.With().Str("component", "assignment_service").Logger(),
	}
}

// Create inserts a new assignment as a draft.
func (s *AssignmentService) Create(ctx context.Context, a *model.Assignment) error {
	a.Status = model.AssignmentStatusDraft
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	s.log.Info().Str("assignment_id", a.ID.String()).Int("faculty_id", a.FacultyID).Msg("Assignment created")
	return nil
}

// GetByID returns an assignment, trying the published-payload cache first.
func (s *AssignmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	key := config.CacheKey.AssignmentKey(id.String())
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var a model.Assignment
		if json.Unmarshal(raw, &a) == nil {
			return &a, nil
		}
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a.Status == model.AssignmentStatusPublished {
		s.cache(ctx, a)
	}
	return a, nil
}

// GetForStudent returns a published assignment visible to the student's
// cohort, with the student's submission attached when there is one.
func (s *AssignmentService) GetForStudent(ctx context.Context, studentID int, id uuid.UUID) (*model.Assignment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssignmentStatusPublished || a.Visibility == "hidden" {
		return nil, ErrAssignmentNotFound
	}

	p, err := s.profiles.GetByUserID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileRequired
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !inCohort(a, p) {
		return nil, ErrNotInCohort
	}

	sub, err := s.submissions.GetByAssignmentAndStudent(ctx, id, studentID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("get submission: %w", err)
	default:
		a.Submission = sub
	}
	return a, nil
}

// GetOwned returns an assignment authored by facultyID, whatever its status.
func (s *AssignmentService) GetOwned(ctx context.Context, facultyID int, id uuid.UUID) (*model.Assignment, error) {
	return s.owned(ctx, facultyID, id)
}

// ListForStudent returns published assignments for the student's cohort,
// each carrying the student's own submission if any.
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID int, q listview.Query) (listview.Result[model.Assignment], error) {
	var empty listview.Result[model.Assignment]

	p, err := s.profiles.GetByUserID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return empty, ErrProfileRequired
		}
		return empty, fmt.Errorf("get profile: %w", err)
	}

	items, err := s.repo.ListForStudent(ctx, studentID, p.Department, p.Year)
	if err != nil {
		return empty, fmt.Errorf("list assignments: %w", err)
	}
	return listview.Apply(AssignmentView, items, q), nil
}

// ListForFaculty returns the faculty member's assignments with submission counts.
func (s *AssignmentService) ListForFaculty(ctx context.Context, facultyID int, q listview.Query) (listview.Result[model.Assignment], error) {
	items, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return listview.Result[model.Assignment]{}, fmt.Errorf("list assignments: %w", err)
	}
	return listview.Apply(AssignmentView, items, q), nil
}

// Update patches an assignment owned by facultyID.
func (s *AssignmentService) Update(ctx context.Context, facultyID int, id uuid.UUID, req model.UpdateAssignmentRequest) (*model.Assignment, error) {
	a, err := s.owned(ctx, facultyID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Instructions != nil {
		a.Instructions = *req.Instructions
	}
	if req.Department != nil {
		a.Department = strings.ToLower(strings.TrimSpace(*req.Department))
	}
	if len(req.TargetYears) > 0 {
		a.TargetYears = req.TargetYears
	}
	if req.MaxMarks != nil {
		a.MaxMarks = *req.MaxMarks
	}
	if req.DueAt != nil {
		a.DueAt = *req.DueAt
	}
	if req.AllowLateSubmission != nil {
		a.AllowLateSubmission = *req.AllowLateSubmission
	}
	if req.AllowResubmission != nil {
		a.AllowResubmission = *req.AllowResubmission
	}
	if req.EnablePlagiarismCheck != nil {
		a.EnablePlagiarismCheck = *req.EnablePlagiarismCheck
	}
	if req.Questions != nil {
		a.Questions = *req.Questions
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	if a.Status == model.AssignmentStatusPublished {
		s.cache(ctx, a)
	}
	return a, nil
}

// Delete removes an assignment owned by facultyID.
func (s *AssignmentService) Delete(ctx context.Context, facultyID int, id uuid.UUID) error {
	if _, err := s.owned(ctx, facultyID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	s.rdb.Del(ctx, config.CacheKey.AssignmentKey(id.String()))
	return nil
}

// Publish moves a draft to published, warms the cache and notifies the
// target cohort. Notification failures do not undo the publish.
func (s *AssignmentService) Publish(ctx context.Context, facultyID int, id uuid.UUID) (*model.Assignment, error) {
	a, err := s.owned(ctx, facultyID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssignmentStatusDraft {
		return nil, ErrAssignmentNotDraft
	}

	publishedAt, err := s.repo.MarkPublished(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("publish assignment: %w", err)
	}
	a.Status = model.AssignmentStatusPublished
	a.PublishedAt = &publishedAt
	s.cache(ctx, a)

	if a.Visibility != "hidden" {
		s.notifyCohort(ctx, a)
	}

	s.log.Info().Str("assignment_id", id.String()).Msg("Assignment published")
	return a, nil
}

// AddResources uploads reference files one after another and attaches them.
// Files stored before a failure stay attached.
func (s *AssignmentService) AddResources(ctx context.Context, facultyID int, id uuid.UUID, files []*multipart.FileHeader) ([]model.AssignmentResource, error) {
	if _, err := s.owned(ctx, facultyID, id); err != nil {
		return nil, err
	}

	out := make([]model.AssignmentResource, 0, len(files))
	for _, fh := range files {
		up, err := s.media.SaveUpload(ctx, fh, "assignments/"+id.String())
		if err != nil {
			return out, err
		}
		res := model.AssignmentResource{
			AssignmentID: id,
			FileName:     up.FileName,
			FileURL:      up.FileURL,
			FileSize:     up.FileSize,
			MimeType:     up.MimeType,
		}
		if err := s.repo.AddResource(ctx, &res); err != nil {
			return out, fmt.Errorf("attach resource: %w", err)
		}
		out = append(out, res)
	}

	s.rdb.Del(ctx, config.CacheKey.AssignmentKey(id.String()))
	return out, nil
}

// PrewarmCache loads every published assignment into Redis.
func (s *AssignmentService) PrewarmCache(ctx context.Context) error {
	items, err := s.repo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published: %w", err)
	}
	for i := range items {
		s.cache(ctx, &items[i])
	}
	s.log.Info().Int("count", len(items)).Msg("Assignment cache prewarmed")
	return nil
}

func (s *AssignmentService) owned(ctx context.Context, facultyID int, id uuid.UUID) (*model.Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a.FacultyID != facultyID {
		return nil, ErrNotAssignmentOwner
	}
	return a, nil
}

func (s *AssignmentService) cache(ctx context.Context, a *model.Assignment) {
	cached := *a
	cached.Submission = nil
	payload, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.AssignmentKey(a.ID.String()), payload, assignmentCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("assignment_id", a.ID.String()).Msg("Failed to cache assignment")
	}
}

func (s *AssignmentService) notifyCohort(ctx context.Context, a *model.Assignment) {
	ids, err := s.users.ListStudentIDsByCohort(ctx, a.Department, a.TargetYears)
	if err != nil {
		s.log.Error().Err(err).Str("assignment_id", a.ID.String()).Msg("Failed to resolve cohort")
		return
	}

	batch := make([]model.Notification, 0, len(ids))
	for _, uid := range ids {
		batch = append(batch, model.Notification{
			UserID:  uid,
			Type:    model.NotificationAssignmentPublished,
			Title:   "New assignment: " + a.Title,
			Message: fmt.Sprintf("Due %s", a.DueAt.Format("02 Jan 2006 15:04")),
			Data:    map[string]string{"assignment_id": a.ID.String()},
		})
	}
	if err := s.notifier.Enqueue(ctx, batch...); err != nil {
		s.log.Error().Err(err).Str("assignment_id", a.ID.String()).Msg("Failed to queue notifications")
	}
}
