package errors

import sterrors "errors"

var (
	ErrServiceRequired      = sterrors.New("fieldcounter: service is required")
	ErrHandlerRequired      = sterrors.New("fieldcounter: handler function is required")
	ErrConsumeQueueRequired = sterrors.New("fieldcounter: consume queue is required")
	ErrHandlerNameRequired  = sterrors.New("fieldcounter: handler name is required")
	ErrConfigRequired       = sterrors.New("fieldcounter: configuration is required")
	ErrLoggerRequired       = sterrors.New("fieldcounter: logger is required")
	ErrFieldNameRequired    = sterrors.New("fieldcounter: field name is required")
	ErrWriterRequired       = sterrors.New("fieldcounter: counter writer is required")
	ErrDecoderRequired      = sterrors.New("fieldcounter: payload decoder is required")
	ErrNameExpression       = sterrors.New("fieldcounter: counter name expression failed")
	ErrUnknownCounterStore  = sterrors.New("fieldcounter: unknown counter store")
)

// ConfigValidationError marks errors produced while validating a Config.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "fieldcounter: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
