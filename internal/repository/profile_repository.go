package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techsynergy/campus-backend/internal/model"
)

// ProfileRepository handles user_profiles data access.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByUserID retrieves the profile of a user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int) (*model.Profile, error) {
	p := &model.Profile{}
	var year, prn, designation *string
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, email, name, user_type, department, year, prn, designation,
		        phone, address, face_image_url, profile_completed, created_at, updated_at
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Email, &p.Name, &p.UserType, &p.Department, &year, &prn, &designation,
		&p.Phone, &p.Address, &p.FaceImageURL, &p.ProfileCompleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.Year, p.PRN, p.Designation = deref(year), deref(prn), deref(designation)
	return p, nil
}

// Upsert writes the completed profile, keyed on user_id. Student-only and
// faculty-only columns are nulled for the other user type.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	var year, prn, designation *string
	switch p.UserType {
	case model.UserTypeStudent:
		year, prn = nullable(p.Year), nullable(p.PRN)
	case model.UserTypeFaculty:
		designation = nullable(p.Designation)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, email, name, user_type, department, year, prn,
		                            designation, phone, address, face_image_url, profile_completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		 ON CONFLICT (user_id) DO UPDATE SET
		     email = EXCLUDED.email,
		     name = EXCLUDED.name,
		     user_type = EXCLUDED.user_type,
		     department = EXCLUDED.department,
		     year = EXCLUDED.year,
		     prn = EXCLUDED.prn,
		     designation = EXCLUDED.designation,
		     phone = EXCLUDED.phone,
		     address = EXCLUDED.address,
		     face_image_url = EXCLUDED.face_image_url,
		     profile_completed = TRUE,
		     updated_at = NOW()
		 RETURNING profile_completed, created_at, updated_at`,
		p.UserID, p.Email, p.Name, p.UserType, p.Department, year, prn,
		designation, p.Phone, p.Address, p.FaceImageURL,
	).Scan(&p.ProfileCompleted, &p.CreatedAt, &p.UpdatedAt)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
