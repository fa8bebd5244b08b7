package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"missing row", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, domain.ErrConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, domain.ErrIntegrity},
		{"check constraint", gorm.ErrCheckConstraintViolated, domain.ErrValidation},
		{"malformed uuid", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}, domain.ErrValidation},
		{"wrapped malformed uuid", errors.Wrap(&pgconn.PgError{Code: "22P02"}, "first"), domain.ErrValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(c.in, "organization association"), c.want)
		})
	}
}

func TestTranslateErrorKeepsUnknownFailures(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: "57014"}, "entity")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, translateError(nil, "entity"))
}
