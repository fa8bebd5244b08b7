package repository

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
)

// invalidTextRepresentation is raised when a value cannot be cast to the
// column type, such as a malformed uuid.
const invalidTextRepresentation = "22P02"

// translateError maps gorm's translated driver errors onto the domain taxonomy.
func translateError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrIntegrity):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Resource: resource, Reason: "duplicate record"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.IntegrityError{Reason: resource + " references a missing or protected row"}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.ValidationError{Field: resource, Reason: "violates a check constraint"}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return domain.ValidationError{Field: resource, Reason: "malformed identifier"}
	}
	return errors.Wrap(err, resource)
}
