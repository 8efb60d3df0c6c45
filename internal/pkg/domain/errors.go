package domain

import (
	"errors"
	"fmt"
)

//Sentinel errors shared by the services and mapped to responses by the http layer
var (
	//ErrNotFound is returned for entities that do not exist or are not visible to the principal
	ErrNotFound = errors.New("not found")
	//ErrForbidden is returned when the principal lacks the role required for an operation
	ErrForbidden = errors.New("forbidden")
	//ErrIntegrityViolation is returned when deleting an entity that still has dependents
	ErrIntegrityViolation = errors.New("integrity violation")
	//ErrValidation matches every *ValidationError through errors.Is
	ErrValidation = errors.New("validation failed")
)

//ValidationError identifies the offending input field and why it was rejected
type ValidationError struct {
	Field  string
	Reason string
}

//NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

//Is makes errors.Is(err, ErrValidation) hold for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

//NotFoundf wraps ErrNotFound with a formatted description
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

//IntegrityViolationf wraps ErrIntegrityViolation with a formatted description
func IntegrityViolationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrIntegrityViolation)
}
