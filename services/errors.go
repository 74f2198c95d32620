package services

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by Login for any unknown user or wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports malformed input. Field uses the JSON path of the
// offending value, e.g. "items[0].quantity".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
