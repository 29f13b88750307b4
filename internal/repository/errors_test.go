package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows), ErrNotFound)

	other := errors.New("conn closed")
	assert.Equal(t, other, notFound(other))
}

func TestUpsertError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		graded bool
	}{
		{"graded row left untouched", pgx.ErrNoRows, true},
		{"connection failure", errors.New("conn closed"), false},
		{"constraint violation", &pgconn.PgError{Code: "23503"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := upsertError(tt.err)
			assert.Equal(t, tt.graded, errors.Is(err, ErrGraded))
			if !tt.graded {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
