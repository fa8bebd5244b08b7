package domain

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomyMatchesThroughWrapping(t *testing.T) {
	cases := []struct {
		err    error
		target error
		msg    string
	}{
		{NotFoundError{Resource: "association"}, ErrNotFound, "association not found"},
		{ValidationError{Field: "ownershipPercentage", Reason: "must be between 0 and 100"}, ErrValidation, "invalid ownershipPercentage: must be between 0 and 100"},
		{ConflictError{Resource: "organization_relationship", Reason: "duplicate relationship"}, ErrConflict, "organization_relationship conflict: duplicate relationship"},
		{IntegrityError{Reason: "created_by references a missing user"}, ErrIntegrity, "integrity violation: created_by references a missing user"},
	}
	for _, c := range cases {
		wrapped := pkgerrors.Wrap(c.err, "repository")
		assert.True(t, errors.Is(wrapped, c.target), "%T", c.err)
		assert.Equal(t, c.msg, c.err.Error())
	}

	assert.False(t, errors.Is(NotFoundError{}, ErrConflict))
	assert.False(t, errors.Is(ValidationError{}, ErrIntegrity))
}

func TestErrorDefaults(t *testing.T) {
	assert.Equal(t, "not found", NotFoundError{}.Error())
	assert.Equal(t, "validation failed", ValidationError{}.Error())
	assert.Equal(t, "conflict", ConflictError{}.Error())
	assert.Equal(t, "integrity violation", IntegrityError{}.Error())
}
