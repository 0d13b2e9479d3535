package lifecycle

import (
	"testing"

	"task-tracker-api/internal/models"

	"github.com/stretchr/testify/require"
)

func recurringTask(kind string, count, duration int) models.Task {
	by, to, dept := uint(1), uint(2), uint(3)
	return models.Task{
		TaskID:             "OPS-ABC123",
		DepartmentID:       &dept,
		AssignedByID:       &by,
		AssignedToID:       &to,
		AssignedDate:       day(2026, 10, 16),
		Deadline:           day(2026, 10, 18),
		TicketType:         "Hardware",
		Priority:           models.PriorityHigh,
		Status:             models.StatusNotStarted,
		Subject:            "Rotate backups",
		RequestDetails:     "weekly rotation",
		AttachFile:         "attachments/plan.pdf",
		Notes:              "see runbook",
		IsRecurring:        true,
		RecurrenceType:     &kind,
		RecurrenceCount:    count,
		RecurrenceDuration: duration,
		Viewers:            []string{"a@x.com"},
	}
}

func TestExpand_DailyOffsets(t *testing.T) {
	base := recurringTask(models.RecurrenceDaily, 3, 2)
	plan, ok := PlanFor(base)
	require.True(t, ok)

	out := Expand(base, plan)
	require.Len(t, out, 3)
	for i, gen := range out {
		offset := (i + 1) * 2
		require.Equal(t, base.AssignedDate.AddDate(0, 0, offset), gen.AssignedDate)
		require.Equal(t, base.Deadline.AddDate(0, 0, offset), gen.Deadline)
		require.True(t, gen.IsRecurredTask)
		require.False(t, gen.IsRecurring)
		require.Nil(t, gen.RecurrenceType)
		require.Empty(t, gen.TaskID)
		require.Empty(t, gen.Viewers)
		require.Equal(t, base.Subject, gen.Subject)
		require.Equal(t, base.AttachFile, gen.AttachFile)
		require.Equal(t, base.Notes, gen.Notes)
		require.Equal(t, *base.AssignedToID, *gen.AssignedToID)
	}
}

func TestExpand_Weekly(t *testing.T) {
	base := recurringTask(models.RecurrenceWeekly, 2, 1)
	plan, _ := PlanFor(base)

	out := Expand(base, plan)
	require.Len(t, out, 2)
	require.Equal(t, day(2026, 10, 25), out[0].Deadline)
	require.Equal(t, day(2026, 11, 1), out[1].Deadline)
}

func TestExpand_UnknownTypeProducesNothing(t *testing.T) {
	base := recurringTask("monthly", 3, 1)
	plan, _ := PlanFor(base)
	require.Empty(t, Expand(base, plan))

	base = recurringTask("", 3, 1)
	base.RecurrenceType = nil
	plan, _ = PlanFor(base)
	require.Empty(t, Expand(base, plan))
}

func TestPlanFor_NotRecurring(t *testing.T) {
	base := recurringTask(models.RecurrenceDaily, 3, 1)
	base.IsRecurring = false
	_, ok := PlanFor(base)
	require.False(t, ok)
}

func TestExpand_DoesNotMutateBase(t *testing.T) {
	base := recurringTask(models.RecurrenceDaily, 2, 1)
	before := base
	Expand(base, RecurrencePlan{Type: models.RecurrenceDaily, Count: 2, Duration: 1})
	require.Equal(t, before, base)
}
