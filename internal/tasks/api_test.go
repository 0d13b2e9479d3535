package tasks

import (
	"errors"
	"testing"

	"task-tracker-api/internal/models"
	"task-tracker-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

func (f *fixture) apiInput() APICreateInput {
	return APICreateInput{
		AssignedByEmail: "Creator@Example.com",
		AssignedToEmail: "assignee@example.com",
		Deadline:        "2026-10-30",
		TicketType:      "Issues",
		Priority:        "High",
		Department:      "operations",
		Subject:         "Server down",
		RequestDetails:  "Server not responding",
		Viewers:         []string{"Boss@X.com"},
	}
}

func TestAPICreate(t *testing.T) {
	f := newFixture(t)

	task, err := f.svc.APICreate(ctx, f.apiInput())
	require.NoError(t, err)
	require.Regexp(t, taskIDPattern, task.TaskID)
	require.Equal(t, f.creator.ID, *task.AssignedByID)
	require.Equal(t, f.ops.ID, *task.DepartmentID)
	require.Equal(t, models.PriorityHigh, task.Priority)
	require.Equal(t, []string{"boss@x.com"}, task.Viewers)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "assignee@example.com", sent[0].To)
	require.Equal(t, "creator@example.com", sent[1].To)
	require.Equal(t, []string{models.ActionCreated}, f.actions(t, task))
}

func TestAPICreate_DepartmentByID(t *testing.T) {
	f := newFixture(t)
	in := f.apiInput()
	in.Department = "2"

	task, err := f.svc.APICreate(ctx, in)
	require.NoError(t, err)
	require.Equal(t, f.sales.ID, *task.DepartmentID)
}

func TestAPICreate_Errors(t *testing.T) {
	f := newFixture(t)

	in := f.apiInput()
	in.AssignedByEmail = "ghost@example.com"
	_, err := f.svc.APICreate(ctx, in)
	require.ErrorIs(t, err, ErrUserNotFound)

	in = f.apiInput()
	in.AssignedToEmail = "ghost@example.com"
	_, err = f.svc.APICreate(ctx, in)
	require.ErrorIs(t, err, ErrUserNotFound)

	in = f.apiInput()
	in.Deadline = "31/12/2026"
	_, err = f.svc.APICreate(ctx, in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Invalid deadline format. Use YYYY-MM-DD", verr.Fields["deadline"])

	in = f.apiInput()
	in.Department = "Nowhere"
	_, err = f.svc.APICreate(ctx, in)
	require.ErrorIs(t, err, ErrDepartmentNotFound)
}

func TestAPICreate_NotificationFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.mailer.Err = errors.New("smtp down")

	task, err := f.svc.APICreate(ctx, f.apiInput())
	require.NoError(t, err)
	require.NotEmpty(t, task.TaskID)
}

func TestAPIUpdate(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))
	before := len(f.mailer.Sent())

	res, err := f.svc.APIUpdate(ctx, APIUpdateInput{TaskID: task.TaskID, UpdatedByEmail: "creator@example.com", Status: models.StatusNotStarted})
	require.NoError(t, err)
	require.Empty(t, res.Changes)
	require.Len(t, f.mailer.Sent(), before)

	res, err = f.svc.APIUpdate(ctx, APIUpdateInput{
		TaskID:             task.TaskID,
		UpdatedByEmail:     "creator@example.com",
		Status:             "In-Progress",
		Subject:            "Printer-on-fire",
		CommentsByAssignee: "ignored if same",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, res.Task.Status)
	require.Equal(t, "Printer on fire", res.Task.Subject)
	require.Len(t, res.Changes, 3)
	require.Equal(t, "creator@example.com", res.UpdatedBy)

	sent := f.mailer.Sent()[before:]
	require.Len(t, sent, 1)
	require.Equal(t, "assignee@example.com", sent[0].To)
	require.Equal(t, "Task Updated by Creator: "+task.TaskID, sent[0].Subject)
	require.Equal(t, []string{models.ActionCreated, models.ActionTaskUpdatedAPI}, f.actions(t, task))
}

func TestAPIUpdate_AssigneeNotifiesCreator(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))
	before := len(f.mailer.Sent())

	res, err := f.svc.APIUpdate(ctx, APIUpdateInput{
		TaskID:          task.TaskID,
		UpdatedByEmail:  "assignee@example.com",
		Status:          "On-Hold",
		RevisedDeadline: "2026-10-25",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusOnHold, res.Task.Status)
	require.Equal(t, testutil.Date(2026, 10, 25), res.Task.RevisedCompletionDate.UTC())

	sent := f.mailer.Sent()[before:]
	require.Len(t, sent, 1)
	require.Equal(t, "creator@example.com", sent[0].To)
	require.Equal(t, "Task Updated by Assignee: "+task.TaskID, sent[0].Subject)
}

func TestAPIUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))

	_, err := f.svc.APIUpdate(ctx, APIUpdateInput{TaskID: "OPE-ZZZZZZ", UpdatedByEmail: "creator@example.com"})
	require.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.svc.APIUpdate(ctx, APIUpdateInput{TaskID: task.TaskID, UpdatedByEmail: "ghost@example.com"})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.APIUpdate(ctx, APIUpdateInput{TaskID: task.TaskID, UpdatedByEmail: "opsmgr@example.com", Status: "Completed"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.APIUpdate(ctx, APIUpdateInput{TaskID: task.TaskID, UpdatedByEmail: "creator@example.com", RevisedDeadline: "tomorrow"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestAPIReassign(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))

	_, err := f.svc.APIReassign(ctx, task.TaskID, "outsider@example.com", "")
	require.ErrorIs(t, err, ErrForbidden)

	res, err := f.svc.APIReassign(ctx, task.TaskID, "assignee@example.com", "Back to you")
	require.NoError(t, err)
	require.Equal(t, "assignee", res.PreviousAssignee)
	require.Equal(t, "creator", res.NewAssignee)
	require.Equal(t, "Back to you", res.Task.Notes)
	require.Equal(t, f.sales.ID, *res.Task.DepartmentID)
	require.Equal(t, []string{models.ActionCreated, models.ActionReassigned, models.ActionCommentAdded}, f.actions(t, task))
}

func TestReminders(t *testing.T) {
	f := newFixture(t)
	dueTomorrow := f.create(t, f.input(today.AddDate(0, 0, 1)))
	f.create(t, f.input(today.AddDate(0, 0, 6)))
	late := f.create(t, f.input(today.AddDate(0, 0, -4)))
	require.NoError(t, f.db.Model(&models.Task{}).Where("id = ?", late.ID).Update("status", models.StatusInProgress).Error)
	before := len(f.mailer.Sent())

	n, err := f.svc.SendDeadlineReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	sent := f.mailer.Sent()[before:]
	require.Equal(t, "Reminder: Task Deadline Approaching ("+dueTomorrow.TaskID+")", sent[0].Subject)

	n, err = f.svc.NotifyOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	last := f.mailer.Sent()[len(f.mailer.Sent())-1]
	require.Equal(t, "creator@example.com", last.To)
	require.Equal(t, "Overdue Task: "+late.TaskID, last.Subject)
}
