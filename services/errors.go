package services

import "errors"

var (
	ErrNotFound            = errors.New("todo item not found")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("todo item was modified concurrently")
)

// ValidationError 字段校验失败，errors.Is(err, ErrValidation) 为真
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
