package users

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

func TestMapInsertErrorDetectsUniqueViolation(t *testing.T) {
	err := mapInsertError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.ErrorIs(t, err, shared.ErrDuplicateEmail)
}

func TestMapInsertErrorWrapsOtherFailures(t *testing.T) {
	cause := errors.New("connection refused")
	err := mapInsertError(cause)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, shared.ErrDuplicateEmail)

	other := mapInsertError(&pgconn.PgError{Code: "23502"})
	assert.ErrorIs(t, other, shared.ErrUnavailable)
}
