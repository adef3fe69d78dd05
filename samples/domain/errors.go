package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSampleNotFound     = errors.New("sample not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrLabelUnreadable    = errors.New("label file unreadable")
)

// ValidationError reports a request field that is missing or out of range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
