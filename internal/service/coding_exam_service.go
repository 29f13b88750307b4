package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/kvstore"
	"github.com/techsynergy/campus-backend/internal/listview"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// Sentinel errors for coding exams.
var (
	ErrCodingExamNotFound = errors.New("coding exam not found")
	ErrNotExamOwner       = errors.New("not the author of this exam")
)

// CohortLookup resolves the students of a department and year.
type CohortLookup interface {
	ListStudentIDsByCohort(ctx context.Context, department string, years []string) ([]int, error)
}

// CodingExamView configures search, filters and sort of exam lists.
var CodingExamView = listview.View{
	TextFields:   []string{"title", "faculty_name", "language", "id"},
	FilterFields: []string{"status", "department", "studying_year", "language"},
	SortFields:   []string{"starts_at", "created_at", "title", "total_marks"},
	DefaultSort:  listview.Sort{Field: "starts_at", Direction: listview.Asc},
}

// CodingExamService stores coding exams in the keyed store and publishes
// scheduled ones when their time comes.
type CodingExamService struct {
	store    kvstore.Store
	cohorts  CohortLookup
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewCodingExamService creates a new CodingExamService.
func NewCodingExamService(store kvstore.Store, cohorts CohortLookup, notifier Notifier, log zerolog.Logger) *CodingExamService {
	return &CodingExamService{
		store:    store,
		cohorts:  cohorts,
		notifier: notifier,
		log:      log.With().Str("component", "coding_exam_service").Logger(),
		now:      time.Now,
	}
}

// Create appends a finalized exam. A scheduled exam waits as pending until
// its publish time; otherwise it is visible immediately.
func (s *CodingExamService) Create(ctx context.Context, claims *Claims, d model.ExamDraft) (*model.CodingExam, error) {
	errs := wizard.FieldErrors{}

	startsAt, err := parseDateTime(d.ExamDate, d.StartTime, "")
	if err != nil {
		errs["exam_date"] = "must be a date (YYYY-MM-DD) and time (HH:MM)"
	}
	if endsAt, err := parseDateTime(d.ExamDate, d.EndTime, ""); err != nil {
		errs["end_time"] = "must be a time (HH:MM)"
	} else if !startsAt.IsZero() && !endsAt.After(startsAt) {
		errs["end_time"] = "must be after the start time"
	}
	if d.PassingMarks > d.TotalMarks {
		errs["passing_marks"] = "must not exceed total marks"
	}

	now := s.now()
	exam := &model.CodingExam{
		ID:        fmt.Sprintf("EXAM-%d", now.UnixMilli()),
		FacultyID: claims.UserID,
		ExamDraft: d,
		StartsAt:  startsAt,
		IsExam:    true,
		Status:    model.CodingExamStatusScheduled,
		CreatedAt: now,
	}
	exam.PublishedAt = &now

	if d.IsScheduled {
		publishAt, err := parseDateTime(d.ScheduleDate, d.ScheduleTime, "")
		switch {
		case err != nil:
			errs["schedule_date"] = "must be a date (YYYY-MM-DD) and time (HH:MM)"
		case !startsAt.IsZero() && publishAt.After(startsAt):
			errs["schedule_date"] = "must not be after the exam starts"
		default:
			exam.Status = model.CodingExamStatusPending
			exam.PublishAt = &publishAt
			exam.PublishedAt = nil
		}
	}
	if len(errs) > 0 {
		return nil, &wizard.ValidationError{Fields: errs}
	}

	err = kvstore.UpdateList(ctx, s.store, config.KeyCodingExams, func(exams []model.CodingExam) ([]model.CodingExam, error) {
		for _, e := range exams {
			if e.ID == exam.ID {
				exam.ID = fmt.Sprintf("EXAM-%d-%d", now.UnixMilli(), len(exams))
			}
		}
		return append(exams, *exam), nil
	})
	if err != nil {
		return nil, fmt.Errorf("store exam: %w", err)
	}

	if exam.Status == model.CodingExamStatusScheduled {
		s.notifyCohort(ctx, exam)
	}
	s.log.Info().Str("exam_id", exam.ID).Str("status", string(exam.Status)).Msg("Coding exam created")
	return exam, nil
}

// List returns exams visible to the caller: faculty see every exam,
// students only published ones.
func (s *CodingExamService) List(ctx context.Context, claims *Claims, q listview.Query) (listview.Result[model.CodingExam], error) {
	exams, err := kvstore.LoadList[model.CodingExam](ctx, s.store, config.KeyCodingExams)
	if err != nil {
		return listview.Result[model.CodingExam]{}, err
	}
	if !claims.IsFaculty() {
		visible := exams[:0:0]
		for _, e := range exams {
			if e.Status == model.CodingExamStatusScheduled {
				visible = append(visible, e)
			}
		}
		exams = visible
	}
	return listview.Apply(CodingExamView, exams, q), nil
}

// Get returns one exam visible to the caller.
func (s *CodingExamService) Get(ctx context.Context, claims *Claims, id string) (*model.CodingExam, error) {
	exams, err := kvstore.LoadList[model.CodingExam](ctx, s.store, config.KeyCodingExams)
	if err != nil {
		return nil, err
	}
	e, ok := listview.Detail(exams, id)
	if !ok || (!claims.IsFaculty() && e.Status != model.CodingExamStatusScheduled) {
		return nil, ErrCodingExamNotFound
	}
	return &e, nil
}

// Cancel marks an exam cancelled. Only its author may cancel it.
func (s *CodingExamService) Cancel(ctx context.Context, facultyID int, id string) (*model.CodingExam, error) {
	var out model.CodingExam
	err := kvstore.UpdateList(ctx, s.store, config.KeyCodingExams, func(exams []model.CodingExam) ([]model.CodingExam, error) {
		for i := range exams {
			if exams[i].ID != id {
				continue
			}
			if exams[i].FacultyID != facultyID {
				return nil, ErrNotExamOwner
			}
			exams[i].Status = model.CodingExamStatusCancelled
			out = exams[i]
			return exams, nil
		}
		return nil, ErrCodingExamNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an exam. Only its author may delete it.
func (s *CodingExamService) Delete(ctx context.Context, facultyID int, id string) error {
	return kvstore.UpdateList(ctx, s.store, config.KeyCodingExams, func(exams []model.CodingExam) ([]model.CodingExam, error) {
		for i := range exams {
			if exams[i].ID != id {
				continue
			}
			if exams[i].FacultyID != facultyID {
				return nil, ErrNotExamOwner
			}
			return append(exams[:i], exams[i+1:]...), nil
		}
		return nil, ErrCodingExamNotFound
	})
}

// PublishDue flips pending exams whose publish time has passed and notifies
// their cohorts. It returns how many were published.
func (s *CodingExamService) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	var published []model.CodingExam

	err := kvstore.UpdateList(ctx, s.store, config.KeyCodingExams, func(exams []model.CodingExam) ([]model.CodingExam, error) {
		published = published[:0]
		for i := range exams {
			e := &exams[i]
			if e.Status != model.CodingExamStatusPending || e.PublishAt == nil || e.PublishAt.After(now) {
				continue
			}
			e.Status = model.CodingExamStatusScheduled
			e.PublishedAt = &now
			published = append(published, *e)
		}
		if len(published) == 0 {
			return nil, errNothingToPublish
		}
		return exams, nil
	})
	if errors.Is(err, errNothingToPublish) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for i := range published {
		s.notifyCohort(ctx, &published[i])
	}
	return len(published), nil
}

var errNothingToPublish = errors.New("nothing to publish")

func (s *CodingExamService) notifyCohort(ctx context.Context, e *model.CodingExam) {
	ids, err := s.cohorts.ListStudentIDsByCohort(ctx, e.Department, []string{strings.TrimSpace(e.StudyingYear)})
	if err != nil {
		s.log.Error().Err(err).Str("exam_id", e.ID).Msg("Failed to resolve cohort")
		return
	}

	batch := make([]model.Notification, 0, len(ids))
	for _, uid := range ids {
		batch = append(batch, model.Notification{
			UserID:  uid,
			Type:    model.NotificationExamPublished,
			Title:   "Coding exam: " + e.Title,
			Message: fmt.Sprintf("Starts %s (%d minutes, %s).", e.StartsAt.Format("02 Jan 2006 15:04"), e.Duration, e.Language),
			Data:    map[string]string{"exam_id": e.ID},
		})
	}
	if err := s.notifier.Enqueue(ctx, batch...); err != nil {
		s.log.Error().Err(err).Str("exam_id", e.ID).Msg("Failed to queue exam notifications")
	}
}
