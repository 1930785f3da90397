package handlers

import (
	"errors"
	"fmt"

	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
)

// TransformationError reports a payload that could not be decoded. Retrying
// the same bytes cannot succeed.
type TransformationError struct {
	Message Message
	Cause   error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("fieldcounter: failed to transform payload of message %q: %v", e.Message.UUID, e.Cause)
}

func (e *TransformationError) Unwrap() error {
	return e.Cause
}

// MissingFieldError reports a single-level lookup on a payload that has no
// such field.
type MissingFieldError struct {
	Field       string
	PayloadType string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("fieldcounter: property %q is not available in payload of type %s", e.Field, e.PayloadType)
}

// IsUnprocessable reports whether err can never succeed on redelivery.
func IsUnprocessable(err error) bool {
	if err == nil {
		return false
	}
	var transformErr *TransformationError
	return errors.As(err, &transformErr) || errors.Is(err, errspkg.ErrNameExpression)
}
