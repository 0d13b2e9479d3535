package lifecycle

import "task-tracker-api/internal/models"

// RecurrencePlan describes how many copies of a task to generate and how far
// apart. It is a value: expansion never reads recurrence fields from the task.
type RecurrencePlan struct {
	Type     string
	Count    int
	Duration int
}

// PlanFor extracts the recurrence plan of a task marked recurring.
// The second return is false when the task does not recur.
func PlanFor(t models.Task) (RecurrencePlan, bool) {
	if !t.IsRecurring {
		return RecurrencePlan{}, false
	}
	plan := RecurrencePlan{Count: t.RecurrenceCount, Duration: t.RecurrenceDuration}
	if t.RecurrenceType != nil {
		plan.Type = *t.RecurrenceType
	}
	return plan, true
}

// ValidRecurrenceType accepts daily, weekly or no type at all.
func ValidRecurrenceType(kind string) bool {
	return kind == "" || kind == models.RecurrenceDaily || kind == models.RecurrenceWeekly
}

// stepDays is the length of one recurrence unit in days.
func (p RecurrencePlan) stepDays() (int, bool) {
	switch p.Type {
	case models.RecurrenceDaily:
		return 1, true
	case models.RecurrenceWeekly:
		return 7, true
	}
	return 0, false
}

// Expand produces the generated instances of base for plan. Instance i is
// shifted by i*Duration days or weeks. Unknown recurrence types produce no
// instances. Generated tasks have no identifier, no viewers and never recur.
func Expand(base models.Task, plan RecurrencePlan) []models.Task {
	step, ok := plan.stepDays()
	if !ok || plan.Count <= 0 {
		return nil
	}

	out := make([]models.Task, 0, plan.Count)
	for i := 1; i <= plan.Count; i++ {
		shift := i * plan.Duration * step
		out = append(out, models.Task{
			DepartmentID:       base.DepartmentID,
			AssignedByID:       base.AssignedByID,
			AssignedToID:       base.AssignedToID,
			AssignedDate:       base.AssignedDate.AddDate(0, 0, shift),
			Deadline:           base.Deadline.AddDate(0, 0, shift),
			TicketType:         base.TicketType,
			Priority:           base.Priority,
			Status:             base.Status,
			Subject:            base.Subject,
			RequestDetails:     base.RequestDetails,
			AttachFile:         base.AttachFile,
			Notes:              base.Notes,
			IsRecurring:        false,
			IsRecurredTask:     true,
			RecurrenceType:     nil,
			RecurrenceCount:    base.RecurrenceCount,
			RecurrenceDuration: base.RecurrenceDuration,
		})
	}
	return out
}
