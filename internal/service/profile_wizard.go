package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// FlowProfile is the onboarding wizard every new account completes.
const FlowProfile = "profile"

// ProfileStore reads and writes completed profiles.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
}

// FaceImageStore turns a captured face into a stored URL.
type FaceImageStore interface {
	SaveFaceImage(ctx context.Context, userID int, value string) (string, error)
}

var profileDefinition = &wizard.Definition{
	Flow: FlowProfile,
	Steps: []wizard.Step{
		{
			Name:   "academic",
			Fields: []string{"name", "email", "user_type", "department", "year", "prn", "designation"},
			Rules: []wizard.Rule{
				wizard.Required("name", "department"),
				wizard.RequiredIf(wizard.FieldEquals("user_type", string(model.UserTypeStudent)), "year", "prn"),
				wizard.RequiredIf(wizard.FieldEquals("user_type", string(model.UserTypeFaculty)), "designation"),
			},
		},
		{
			Name:   "contact",
			Fields: []string{"phone", "address"},
			Rules:  []wizard.Rule{wizard.Required("phone", "address")},
		},
		{
			Name:   "face",
			Fields: []string{"face_image"},
			Rules:  []wizard.Rule{wizard.Required("face_image")},
		},
	},
	FinalizeRules: []wizard.Rule{wizard.Required("face_image")},
	Locked:        []string{"email", "user_type"},
}

// ProfileFlow completes a user's profile.
type ProfileFlow struct {
	profiles ProfileStore
	faces    FaceImageStore
}

// NewProfileFlow creates a new ProfileFlow.
func NewProfileFlow(profiles ProfileStore, faces FaceImageStore) *ProfileFlow {
	return &ProfileFlow{profiles: profiles, faces: faces}
}

func (f *ProfileFlow) Definition() *wizard.Definition { return profileDefinition }

func (f *ProfileFlow) Allows(*Claims) bool { return true }

// Initial seeds identity from the session and prefills an existing profile.
func (f *ProfileFlow) Initial(ctx context.Context, claims *Claims) (wizard.Fields, error) {
	fields := wizard.Fields{
		"name":      wizard.Value(claims.Name),
		"email":     wizard.Value(claims.Email),
		"user_type": wizard.Value(string(claims.UserType)),
	}

	p, err := f.profiles.GetByUserID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return fields, nil
	}
	if err != nil {
		return nil, err
	}

	prefill := map[string]string{
		"name":        p.Name,
		"department":  p.Department,
		"year":        p.Year,
		"prn":         p.PRN,
		"designation": p.Designation,
		"phone":       p.Phone,
		"address":     p.Address,
	}
	for k, v := range prefill {
		if v != "" {
			fields[k] = wizard.Value(v)
		}
	}
	return fields, nil
}

// Persist stores the face image, then upserts the profile.
func (f *ProfileFlow) Persist(ctx context.Context, claims *Claims, fields wizard.Fields, _ FinalizeOptions) (any, error) {
	var d model.ProfileDraft
	if err := wizard.Decode(fields, &d); err != nil {
		return nil, err
	}

	faceURL, err := f.faces.SaveFaceImage(ctx, claims.UserID, d.FaceImage)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) || errors.Is(err, ErrFileTooLarge) {
			return nil, &wizard.ValidationError{Fields: wizard.FieldErrors{"face_image": err.Error()}}
		}
		return nil, fmt.Errorf("save face image: %w", err)
	}

	p := &model.Profile{
		UserID:       claims.UserID,
		Email:        claims.Email,
		UserType:     claims.UserType,
		Name:         strings.TrimSpace(d.Name),
		Department:   strings.TrimSpace(d.Department),
		Year:         strings.TrimSpace(d.Year),
		PRN:          strings.TrimSpace(d.PRN),
		Designation:  strings.TrimSpace(d.Designation),
		Phone:        strings.TrimSpace(d.Phone),
		Address:      strings.TrimSpace(d.Address),
		FaceImageURL: faceURL,
	}
	if err := f.profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}
