package lifecycle

import (
	"slices"
	"time"

	"task-tracker-api/internal/models"
)

// OpenStatuses is the set the metrics treat as "still open". It contains
// values outside the task status vocabulary (Pending, Processing, ...) that
// older records may still carry.
var OpenStatuses = []string{
	models.StatusInProgress,
	models.StatusNotStarted,
	"Waiting for confirmation",
	"Pending",
	"Delay processing",
	"Processing",
	models.StatusStalled,
	models.StatusOnHold,
	models.StatusOverdue,
}

// IsTerminal reports whether status ends the task's life.
func IsTerminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

// IsOpen reports whether status belongs to OpenStatuses.
func IsOpen(status string) bool {
	return slices.Contains(OpenStatuses, status)
}

// ValidStatus reports whether status is part of the task vocabulary.
func ValidStatus(status string) bool {
	return slices.Contains(models.Statuses, status)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DeriveStatus returns the status a task must carry on the given day.
// A lapsed deadline on a non-terminal task yields Overdue, or In Progress
// while a revised completion date is today or later.
func DeriveStatus(status string, deadline time.Time, revised *time.Time, today time.Time) string {
	today = Day(today)
	if !Day(deadline).Before(today) || IsTerminal(status) {
		return status
	}
	if revised == nil || Day(*revised).Before(today) {
		return models.StatusOverdue
	}
	return models.StatusInProgress
}

// PastDeadline reports whether the effective deadline (revised date when set)
// lies before today.
func PastDeadline(deadline time.Time, revised *time.Time, today time.Time) bool {
	effective := deadline
	if revised != nil {
		effective = *revised
	}
	return Day(effective).Before(Day(today))
}
