package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ValidationError reports input that breaks a domain rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		if e.Reason == "" {
			return "validation failed"
		}
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ConflictError reports a uniqueness or concurrent-update collision.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e ConflictError) Error() string {
	switch {
	case e.Resource == "" && e.Reason == "":
		return "conflict"
	case e.Reason == "":
		return fmt.Sprintf("%s conflict", e.Resource)
	case e.Resource == "":
		return fmt.Sprintf("conflict: %s", e.Reason)
	}
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// IntegrityError reports a referential constraint the database refused.
type IntegrityError struct {
	Reason string
}

func (e IntegrityError) Error() string {
	if e.Reason == "" {
		return "integrity violation"
	}
	return fmt.Sprintf("integrity violation: %s", e.Reason)
}

func (e IntegrityError) Is(target error) bool {
	_, ok := target.(IntegrityError)
	if ok {
		return true
	}
	_, ok = target.(*IntegrityError)
	return ok
}

// Sentinels for errors.Is matching.
var (
	ErrNotFound   = NotFoundError{}
	ErrValidation = ValidationError{}
	ErrConflict   = ConflictError{}
	ErrIntegrity  = IntegrityError{}
)

// Invalid is shorthand for a ValidationError on a single field.
func Invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}
