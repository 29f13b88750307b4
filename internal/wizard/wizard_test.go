package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() *Definition {
	return &Definition{
		Flow: "sample",
		Steps: []Step{
			{Name: "basic", Fields: []string{"name", "role", "year"}, Rules: []Rule{
				Required("name"),
				RequiredIf(FieldEquals("role", "student"), "year"),
			}},
			{Name: "contact", Fields: []string{"phone"}, Rules: []Rule{Required("phone")}},
			{Name: "photo", Fields: []string{"photo"}},
		},
		FinalizeRules: []Rule{Required("photo")},
		Locked:        []string{"email"},
		Hidden:        []string{"email"},
	}
}

func set(t *testing.T, d *Definition, s *State, name string, v any) {
	t.Helper()
	require.NoError(t, d.SetField(s, name, Value(v)))
}

func TestAdvanceRejectsBlankRequiredField(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "empty string", value: ""},
		{name: "whitespace", value: "   "},
		{name: "null", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDefinition()
			s := d.New(nil)
			set(t, d, s, "name", tt.value)

			err := d.Advance(s)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "name")
			assert.Equal(t, 1, s.CurrentStep)
			assert.Equal(t, "is required", s.Errors["name"])
		})
	}
}

func TestAdvanceConditionalRequirement(t *testing.T) {
	d := testDefinition()
	s := d.New(nil)
	set(t, d, s, "name", "Asha")
	set(t, d, s, "role", "student")

	err := d.Advance(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldErrors{"year": "is required"}, verr.Fields)

	set(t, d, s, "role", "faculty")
	require.NoError(t, d.Advance(s))
	assert.Equal(t, 2, s.CurrentStep)
}

func TestAdvanceCapsAtFinalStep(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"name": Value("A"), "phone": Value("123")})

	require.NoError(t, d.Advance(s))
	require.NoError(t, d.Advance(s))
	require.NoError(t, d.Advance(s))

	assert.Equal(t, 3, s.CurrentStep)
}

func TestRetreatIsFlooredAndIdempotent(t *testing.T) {
	d := testDefinition()
	s := d.New(nil)

	d.Retreat(s)
	d.Retreat(s)
	assert.Equal(t, 1, s.CurrentStep)

	s.CurrentStep = 3
	d.Retreat(s)
	assert.Equal(t, 2, s.CurrentStep)
}

func TestRetreatDoesNotValidate(t *testing.T) {
	d := testDefinition()
	s := d.New(nil)
	s.CurrentStep = 2

	d.Retreat(s)
	assert.Equal(t, 1, s.CurrentStep)
	assert.Empty(t, s.Errors)
}

func TestSetFieldClearsErrorAndOverwrites(t *testing.T) {
	d := testDefinition()
	s := d.New(nil)
	require.Error(t, d.Advance(s))
	require.Contains(t, s.Errors, "name")

	set(t, d, s, "name", "first")
	set(t, d, s, "name", "second")

	assert.NotContains(t, s.Errors, "name")
	assert.Equal(t, "second", s.Fields.String("name"))
}

func TestSetFieldLockedAndUnknown(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"email": Value("a@college.edu")})

	err := d.SetField(s, "email", Value("b@college.edu"))
	assert.ErrorIs(t, err, ErrFieldLocked)
	assert.Equal(t, "a@college.edu", s.Fields.String("email"))

	err = d.SetField(s, "nickname", Value("x"))
	assert.ErrorIs(t, err, ErrUnknownField)

	err = d.SetField(s, "name", []byte("{broken"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFinalizeRequiresFinalStep(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"photo": Value("data:image/png;base64,AAAA")})

	calls := 0
	err := d.Finalize(context.Background(), s, func(context.Context, Fields) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrNotFinalStep)
	assert.Zero(t, calls)
}

func TestFinalizeValidatesTerminalFields(t *testing.T) {
	d := testDefinition()
	s := d.New(nil)
	s.CurrentStep = 3

	err := d.Finalize(context.Background(), s, func(context.Context, Fields) error {
		t.Fatal("persist must not be called")
		return nil
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "photo")
	assert.False(t, s.Completed)
}

func TestFinalizePersistFailureKeepsDraft(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"name": Value("A"), "photo": Value("img")})
	s.CurrentStep = 3

	remote := errors.New("connection reset")
	calls := 0
	err := d.Finalize(context.Background(), s, func(context.Context, Fields) error {
		calls++
		return remote
	})

	assert.ErrorIs(t, err, remote)
	assert.Equal(t, 1, calls)
	assert.False(t, s.Completed)
	assert.False(t, s.Submitting)
	assert.Equal(t, "A", s.Fields.String("name"))

	// A manual retry goes through.
	err = d.Finalize(context.Background(), s, func(context.Context, Fields) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, s.Completed)
}

func TestFinalizeRejectsWhileInFlight(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"photo": Value("img")})
	s.CurrentStep = 3

	var nested error
	err := d.Finalize(context.Background(), s, func(ctx context.Context, _ Fields) error {
		nested = d.Finalize(ctx, s, func(context.Context, Fields) error { return nil })
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrInFlight)

	err = d.Finalize(context.Background(), s, func(context.Context, Fields) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFinalizePassesCopyOfFields(t *testing.T) {
	d := testDefinition()
	d.FinalizeFromAnyStep = true
	s := d.New(Fields{"photo": Value("img")})

	err := d.Finalize(context.Background(), s, func(_ context.Context, f Fields) error {
		f["photo"] = Value("mutated")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "img", s.Fields.String("photo"))
}

func TestStateJSONRoundTrip(t *testing.T) {
	d := testDefinition()
	s := d.New(Fields{"name": Value("Asha"), "year": Value(2), "tags": Value([]string{"a", "b"})})
	s.CurrentStep = 2
	s.Errors = FieldErrors{"phone": "is required"}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.Flow, back.Flow)
	assert.Equal(t, s.CurrentStep, back.CurrentStep)
	assert.Equal(t, s.Fields, back.Fields)
	assert.Equal(t, s.Errors, back.Errors)
	assert.True(t, s.UpdatedAt.Equal(back.UpdatedAt))
}
