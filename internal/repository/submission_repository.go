package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techsynergy/campus-backend/internal/model"
)

const submissionColumns = `s.id, s.assignment_id, s.student_id, COALESCE(u.name, ''), s.content, s.submitted_at,
	s.is_late, s.status, s.grade, s.feedback, s.graded_by, s.graded_at, s.plagiarism_score, s.created_at, s.updated_at`

// SubmissionRepository handles submission and submission file data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func scanSubmission(row pgx.Row, s *model.Submission) error {
	return row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StudentName, &s.Content, &s.SubmittedAt,
		&s.IsLate, &s.Status, &s.Grade, &s.Feedback, &s.GradedBy, &s.GradedAt, &s.PlagiarismScore,
		&s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a submission with its files.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM assignment_submissions s LEFT JOIN users u ON u.id = s.student_id
		 WHERE s.id = $1`, id)
	if err := scanSubmission(row, s); err != nil {
		return nil, notFound(err)
	}
	return s, r.attachFiles(ctx, s)
}

// GetByAssignmentAndStudent retrieves the one submission a student has for an assignment.
func (r *SubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.Submission, error) {
	s := &model.Submission{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM assignment_submissions s LEFT JOIN users u ON u.id = s.student_id
		 WHERE s.assignment_id = $1 AND s.student_id = $2`, assignmentID, studentID)
	if err := scanSubmission(row, s); err != nil {
		return nil, notFound(err)
	}
	return s, r.attachFiles(ctx, s)
}

// ListByAssignment returns all submissions of an assignment, latest first.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM assignment_submissions s LEFT JOIN users u ON u.id = s.student_id
		 WHERE s.assignment_id = $1
		 ORDER BY s.submitted_at DESC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByStudent returns a student's submissions across assignments, latest first.
// Files are not attached.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM assignment_submissions s LEFT JOIN users u ON u.id = s.student_id
		 WHERE s.student_id = $1
		 ORDER BY s.submitted_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListContents returns the text of every other submission of an assignment,
// keyed by submission ID. Used as the local plagiarism corpus.
func (r *SubmissionRepository) ListContents(ctx context.Context, assignmentID uuid.UUID, exclude uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, content FROM assignment_submissions
		 WHERE assignment_id = $1 AND id <> $2 AND content <> ''`, assignmentID, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string)
	for rows.Next() {
		var (
			id      uuid.UUID
			content string
		)
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		out[id] = content
	}
	return out, rows.Err()
}

// Save inserts a new submission or overwrites the existing one together with
// its file list, in a single transaction. A graded row is never overwritten;
// Save returns ErrGraded instead.
func (r *SubmissionRepository) Save(ctx context.Context, s *model.Submission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO assignment_submissions (assignment_id, student_id, content, submitted_at, is_late, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (assignment_id, student_id) DO UPDATE SET
		     content = EXCLUDED.content,
		     submitted_at = EXCLUDED.submitted_at,
		     is_late = EXCLUDED.is_late,
		     status = EXCLUDED.status,
		     plagiarism_score = NULL,
		     updated_at = NOW()
		 WHERE assignment_submissions.status <> 'graded'
		 RETURNING id, created_at, updated_at`,
		s.AssignmentID, s.StudentID, s.Content, s.SubmittedAt, s.IsLate, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return upsertError(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM submission_files WHERE submission_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}

	// Files are inserted one by one, in order.
	for i := range s.Files {
		f := &s.Files[i]
		f.SubmissionID = s.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO submission_files (submission_id, file_name, file_url, file_size, mime_type)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			f.SubmissionID, f.FileName, f.FileURL, f.FileSize, f.MimeType,
		).Scan(&f.ID)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.FileName, err)
		}
	}

	return tx.Commit(ctx)
}

// Grade records a grade and feedback; regrading overwrites the previous one.
func (r *SubmissionRepository) Grade(ctx context.Context, s *model.Submission) error {
	return notFound(r.pool.QueryRow(ctx,
		`UPDATE assignment_submissions
		 SET grade = $1, feedback = $2, graded_by = $3, graded_at = NOW(), status = 'graded', updated_at = NOW()
		 WHERE id = $4
		 RETURNING graded_at, status, updated_at`,
		s.Grade, s.Feedback, s.GradedBy, s.ID,
	).Scan(&s.GradedAt, &s.Status, &s.UpdatedAt))
}

// SetPlagiarismScore stores the outcome of an asynchronous plagiarism check.
func (r *SubmissionRepository) SetPlagiarismScore(ctx context.Context, id uuid.UUID, score float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignment_submissions SET plagiarism_score = $1, updated_at = NOW() WHERE id = $2`,
		score, id)
	return err
}

func (r *SubmissionRepository) attachFiles(ctx context.Context, s *model.Submission) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, submission_id, file_name, file_url, file_size, mime_type
		 FROM submission_files WHERE submission_id = $1 ORDER BY created_at`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	s.Files = []model.SubmissionFile{}
	for rows.Next() {
		var f model.SubmissionFile
		if err := rows.Scan(&f.ID, &f.SubmissionID, &f.FileName, &f.FileURL, &f.FileSize, &f.MimeType); err != nil {
			return err
		}
		s.Files = append(s.Files, f)
	}
	return rows.Err()
}

// upsertError maps an empty RETURNING, which the conflict guard produces for
// a graded row, to ErrGraded.
func upsertError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGraded
	}
	return fmt.Errorf("upsert submission: %w", err)
}
