package domain

import "errors"

// Sentinel errors shared across services. Handlers translate them into
// HTTP status codes at the boundary; everything below the handlers works
// with errors.Is / errors.As only.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("already exists")
)

// ValidationError reports malformed or missing input. The message is safe
// to return to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
