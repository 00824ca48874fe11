package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: RatingsUniqueLearner}
	wrapped := fmt.Errorf("insert rating: %w", pgErr)

	assert.True(t, IsDuplicateConstraintError(wrapped, RatingsUniqueLearner))
	assert.False(t, IsDuplicateConstraintError(wrapped, UsersEmailKey))
	assert.True(t, IsUniqueViolation(wrapped))
}

func TestOtherErrorsAreNotDuplicates(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: RatingsUniqueLearner}

	assert.False(t, IsDuplicateConstraintError(fk, RatingsUniqueLearner))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
