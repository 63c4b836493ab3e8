package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		check  func(error) bool
	}{
		{name: "no rows", err: pgx.ErrNoRows, target: ErrNotFound, check: IsNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: "videos_url_key"}, target: ErrDuplicateKey, check: IsDuplicateKey},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: "videos_bci_score_check"}, target: ErrCheckViolation, check: IsCheckViolation},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503", ConstraintName: "path_steps_video_id_fkey"}, target: ErrForeignKey, check: IsForeignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, "get video")
			assert.ErrorIs(t, wrapped, tt.target)
			assert.True(t, tt.check(wrapped))
			assert.Contains(t, wrapped.Error(), "get video")
		})
	}
}

func TestWrapError_Passthrough(t *testing.T) {
	assert.NoError(t, WrapError(nil, "noop"))

	other := &pgconn.PgError{Code: "42P01"}
	wrapped := WrapError(other, "list videos")
	assert.ErrorIs(t, wrapped, other)
	assert.Contains(t, wrapped.Error(), "42P01")

	plain := errors.New("connection reset")
	assert.ErrorIs(t, WrapError(plain, "update scores"), plain)
	assert.False(t, IsNotFound(WrapError(plain, "update scores")))
}
