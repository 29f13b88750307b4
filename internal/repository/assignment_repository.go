package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techsynergy/campus-backend/internal/model"
)

const assignmentColumns = `a.id, a.faculty_id, COALESCE(f.name, ''), a.title, a.description, a.instructions,
	a.department, a.target_years, a.assignment_type, a.max_marks, a.passing_marks, a.start_at, a.due_at,
	a.allowed_file_types, a.allow_late_submission, a.allow_resubmission, a.enable_plagiarism_check,
	a.enable_group_submission, a.visibility, a.difficulty, a.estimated_minutes, a.questions, a.status,
	a.published_at, a.created_at, a.updated_at`

// AssignmentRepository handles assignment and resource data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

func scanAssignment(row pgx.Row, a *model.Assignment, extra ...any) error {
	dest := []any{&a.ID, &a.FacultyID, &a.FacultyName, &a.Title, &a.Description, &a.Instructions,
		&a.Department, &a.TargetYears, &a.AssignmentType, &a.MaxMarks, &a.PassingMarks, &a.StartAt, &a.DueAt,
		&a.AllowedFileTypes, &a.AllowLateSubmission, &a.AllowResubmission, &a.EnablePlagiarismCheck,
		&a.EnableGroupSubmission, &a.Visibility, &a.Difficulty, &a.EstimatedMinutes, &a.Questions, &a.Status,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assignments (faculty_id, title, description, instructions, department, target_years,
		                          assignment_type, max_marks, passing_marks, start_at, due_at, allowed_file_types,
		                          allow_late_submission, allow_resubmission, enable_plagiarism_check,
		                          enable_group_submission, visibility, difficulty, estimated_minutes, questions, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		 RETURNING id, created_at, updated_at`,
		a.FacultyID, a.Title, a.Description, a.Instructions, a.Department, a.TargetYears,
		a.AssignmentType, a.MaxMarks, a.PassingMarks, a.StartAt, a.DueAt, a.AllowedFileTypes,
		a.AllowLateSubmission, a.AllowResubmission, a.EnablePlagiarismCheck,
		a.EnableGroupSubmission, a.Visibility, a.Difficulty, a.EstimatedMinutes, a.Questions, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an assignment with its resources.
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	a := &model.Assignment{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments a LEFT JOIN users f ON f.id = a.faculty_id
		 WHERE a.id = $1`, id)
	if err := scanAssignment(row, a); err != nil {
		return nil, notFound(err)
	}

	resources, err := r.ListResources(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Resources = resources
	return a, nil
}

// ListForStudent returns published assignments for the student's cohort,
// newest first, each carrying only that student's own submission.
func (r *AssignmentRepository) ListForStudent(ctx context.Context, studentID int, department, year string) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`,
		        s.id, s.content, s.submitted_at, s.is_late, s.status, s.grade, s.feedback, s.graded_at, s.plagiarism_score
		 FROM assignments a
		 LEFT JOIN users f ON f.id = a.faculty_id
		 LEFT JOIN assignment_submissions s ON s.assignment_id = a.id AND s.student_id = $1
		 WHERE a.status = 'published'
		   AND a.visibility <> 'hidden'
		   AND (a.department = '' OR lower(a.department) = lower($2))
		   AND $3 = ANY(a.target_years)
		 ORDER BY a.created_at DESC`,
		studentID, department, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var (
			a         model.Assignment
			subID     *uuid.UUID
			content   *string
			subAt     *time.Time
			isLate    *bool
			status    *model.SubmissionStatus
			grade     *float64
			feedback  *string
			gradedAt  *time.Time
			plagScore *float64
		)
		if err := scanAssignment(rows, &a, &subID, &content, &subAt, &isLate, &status, &grade, &feedback, &gradedAt, &plagScore); err != nil {
			return nil, err
		}
		if subID != nil {
			a.Submission = &model.Submission{
				ID:              *subID,
				AssignmentID:    a.ID,
				StudentID:       studentID,
				Content:         deref(content),
				SubmittedAt:     *subAt,
				IsLate:          *isLate,
				Status:          *status,
				Grade:           grade,
				Feedback:        feedback,
				GradedAt:        gradedAt,
				PlagiarismScore: plagScore,
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByFaculty returns a faculty member's assignments with submission counts.
func (r *AssignmentRepository) ListByFaculty(ctx context.Context, facultyID int) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`,
		        (SELECT COUNT(*) FROM assignment_submissions s WHERE s.assignment_id = a.id)
		 FROM assignments a LEFT JOIN users f ON f.id = a.faculty_id
		 WHERE a.faculty_id = $1
		 ORDER BY a.created_at DESC`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := scanAssignment(rows, &a, &a.SubmissionCount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListPublished returns every published assignment; used to warm the cache.
func (r *AssignmentRepository) ListPublished(ctx context.Context) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments a LEFT JOIN users f ON f.id = a.faculty_id
		 WHERE a.status = 'published'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := scanAssignment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update writes the mutable columns of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET title = $1, description = $2, instructions = $3, department = $4,
		        target_years = $5, max_marks = $6, due_at = $7, allow_late_submission = $8,
		        allow_resubmission = $9, enable_plagiarism_check = $10, questions = $11,
		        updated_at = NOW()
		 WHERE id = $12`,
		a.Title, a.Description, a.Instructions, a.Department, a.TargetYears, a.MaxMarks, a.DueAt,
		a.AllowLateSubmission, a.AllowResubmission, a.EnablePlagiarismCheck, a.Questions, a.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPublished sets status to published and stamps published_at.
func (r *AssignmentRepository) MarkPublished(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var publishedAt time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE assignments SET status = 'published', published_at = NOW(), updated_at = NOW()
		 WHERE id = $1 RETURNING published_at`, id,
	).Scan(&publishedAt)
	return publishedAt, notFound(err)
}

// Delete removes an assignment; submissions and resources cascade.
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddResource attaches a reference file.
func (r *AssignmentRepository) AddResource(ctx context.Context, res *model.AssignmentResource) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assignment_resources (assignment_id, file_name, file_url, file_size, mime_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		res.AssignmentID, res.FileName, res.FileURL, res.FileSize, res.MimeType,
	).Scan(&res.ID, &res.CreatedAt)
}

// ListResources returns the files attached to an assignment.
func (r *AssignmentRepository) ListResources(ctx context.Context, assignmentID uuid.UUID) ([]model.AssignmentResource, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assignment_id, file_name, file_url, file_size, mime_type, created_at
		 FROM assignment_resources WHERE assignment_id = $1 ORDER BY created_at`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AssignmentResource
	for rows.Next() {
		var res model.AssignmentResource
		if err := rows.Scan(&res.ID, &res.AssignmentID, &res.FileName, &res.FileURL, &res.FileSize, &res.MimeType, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
