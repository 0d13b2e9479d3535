package tasks

import (
	"fmt"

	"task-tracker-api/internal/apperr"
)

var (
	ErrTaskNotFound       = apperr.ErrTaskNotFound
	ErrUserNotFound       = apperr.ErrUserNotFound
	ErrDepartmentNotFound = apperr.ErrDepartmentNotFound
	ErrForbidden          = apperr.ErrForbidden
)

type ValidationError = apperr.ValidationError

func invalid(field, msg string) *ValidationError {
	return apperr.Invalid(field, msg)
}

// NotificationError reports a delivery failure after the task write succeeded.
type NotificationError struct {
	TaskID string
	Err    error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("task %s saved but notification failed: %v", e.TaskID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
