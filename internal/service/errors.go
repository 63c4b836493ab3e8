package service

import (
	"errors"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
)

// ErrVideoNotFound is returned when an operation targets an unknown video.
var ErrVideoNotFound = errors.New("video not found")

// ValidationError represents rejected caller input. Fields is set when the
// input was a weight document.
type ValidationError struct {
	Message string
	Fields  []bci.FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProcessingError represents an error that occurred while carrying out a
// valid request.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// validationFromWeights converts a weight validation failure.
func validationFromWeights(err error) error {
	var verr *bci.ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Message: verr.Error(), Fields: verr.Fields}
	}
	return err
}
