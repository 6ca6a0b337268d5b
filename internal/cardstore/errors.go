package cardstore

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNoChanges  = errors.New("no changes to save")
)

// ValidationError is returned before any remote call is made. It never
// touches the loading flag or the last error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
