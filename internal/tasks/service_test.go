package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"task-tracker-api/internal/activity"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"
	"task-tracker-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	now   = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	today = testutil.Date(2026, 10, 16)
	ctx   = context.Background()
)

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

type fixture struct {
	db     *gorm.DB
	svc    *Service
	mailer *notify.RecordingMailer
	inval  *countingInvalidator

	ops, sales models.Department

	creator, assignee, helper, outsider models.User
	opsManager, salesManager, sysadmin  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.MustDB(t)
	f := &fixture{db: db, mailer: &notify.RecordingMailer{}, inval: &countingInvalidator{}}

	f.ops = testutil.SeedDepartment(t, db, "Operations")
	f.sales = testutil.SeedDepartment(t, db, "Sales")
	f.creator = testutil.SeedUser(t, db, "creator", models.CategoryNonManagement, &f.sales)
	f.outsider = testutil.SeedUser(t, db, "outsider", models.CategoryNonManagement, &f.sales)
	f.assignee = testutil.SeedUser(t, db, "assignee", models.CategoryNonManagement, &f.ops)
	f.helper = testutil.SeedUser(t, db, "helper", models.CategoryNonManagement, &f.ops)
	f.opsManager = testutil.SeedUser(t, db, "opsmgr", models.CategoryDepartmentManager, &f.ops)
	f.salesManager = testutil.SeedUser(t, db, "salesmgr", models.CategoryDepartmentManager, &f.sales)
	f.sysadmin = testutil.SeedUser(t, db, "sysadmin", models.CategorySystemManager, nil)
	require.NoError(t, db.Model(&f.ops).Update("manager_id", f.opsManager.ID).Error)

	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	f.svc = NewService(Deps{
		DB:       db,
		Notifier: notify.NewDispatcher(renderer, f.mailer, "http://tracker.local"),
		Activity: activity.NewLogger(db),
		Hub:      realtime.NewHub(),
		Metrics:  f.inval,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).WithClock(testutil.Clock(now))
	return f
}

func (f *fixture) input(deadline time.Time) CreateInput {
	return CreateInput{
		AssignedToID: &f.assignee.ID,
		DepartmentID: &f.ops.ID,
		Deadline:     deadline,
		TicketType:   "Hardware",
		Priority:     models.PriorityHigh,
		Subject:      "Printer jam",
	}
}

func (f *fixture) create(t *testing.T, in CreateInput) models.Task {
	t.Helper()
	res, err := f.svc.Create(ctx, f.creator, in)
	require.NoError(t, err)
	return res.Task
}

func (f *fixture) actions(t *testing.T, task models.Task) []string {
	t.Helper()
	var out []string
	require.NoError(t, f.db.Model(&models.ActivityLog{}).
		Where("task_id = ?", task.ID).Order("id").Pluck("action", &out).Error)
	return out
}

var taskIDPattern = regexp.MustCompile(`^[A-Z0-9]{0,3}-[A-Z0-9]{6}$`)

func TestCreate_PersistsAndNotifies(t *testing.T) {
	f := newFixture(t)
	in := f.input(today.AddDate(0, 0, 5))
	in.Viewers = []string{"B@X.com", "a@x.com", "a@x.com"}

	task := f.create(t, in)

	require.Regexp(t, taskIDPattern, task.TaskID)
	require.Equal(t, "OPE-", task.TaskID[:4])
	require.Equal(t, models.StatusNotStarted, task.Status)
	require.Equal(t, today, task.AssignedDate.UTC())
	require.Equal(t, []string{"a@x.com", "b@x.com"}, task.Viewers)
	require.Equal(t, f.creator.ID, *task.AssignedByID)

	sent := f.mailer.Sent()
	require.Len(t, sent, 3)
	require.Equal(t, "opsmgr@example.com", sent[0].To)
	require.Equal(t, "New Task Created in Your Department", sent[0].Subject)
	require.Equal(t, []string{"a@x.com", "b@x.com"}, sent[0].Cc)
	require.Equal(t, "assignee@example.com", sent[1].To)
	require.Equal(t, "creator@example.com", sent[2].To)

	require.Equal(t, []string{models.ActionCreated}, f.actions(t, task))
	require.Positive(t, f.inval.n.Load())
}

func TestCreate_PastDeadlineIsOverdue(t *testing.T) {
	f := newFixture(t)
	in := f.input(today.AddDate(0, 0, -2))
	in.Status = models.StatusInProgress

	task := f.create(t, in)
	require.Equal(t, models.StatusOverdue, task.Status)
}

func TestCreate_TerminalStatusIsKept(t *testing.T) {
	f := newFixture(t)
	in := f.input(today.AddDate(0, 0, -2))
	in.Status = models.StatusCancelled

	task := f.create(t, in)
	require.Equal(t, models.StatusCancelled, task.Status)
}

func TestCreate_DailyRecurrence(t *testing.T) {
	f := newFixture(t)
	in := f.input(today.AddDate(0, 0, 1))
	in.IsRecurring = true
	in.RecurrenceType = models.RecurrenceDaily
	in.RecurrenceCount = 3
	in.RecurrenceDuration = 2
	in.Viewers = []string{"v@x.com"}

	res, err := f.svc.Create(ctx, f.creator, in)
	require.NoError(t, err)
	require.Equal(t, 3, res.Generated)

	var all []models.Task
	require.NoError(t, f.db.Order("assigned_date").Order("id").Find(&all).Error)
	require.Len(t, all, 4)

	require.Equal(t, res.Task.TaskID, all[0].TaskID)
	require.True(t, all[0].IsRecurring)

	ids := map[string]bool{}
	for i, child := range all[1:] {
		shift := 2 * (i + 1)
		require.Equal(t, today.AddDate(0, 0, shift), child.AssignedDate.UTC())
		require.Equal(t, today.AddDate(0, 0, 1+shift), child.Deadline.UTC())
		require.True(t, child.IsRecurredTask)
		require.False(t, child.IsRecurring)
		require.Nil(t, child.RecurrenceType)
		require.Empty(t, child.Viewers)
		require.Equal(t, f.assignee.ID, *child.AssignedToID)
		require.Regexp(t, taskIDPattern, child.TaskID)
		ids[child.TaskID] = true
	}
	require.Len(t, ids, 3)
}

func TestCreate_RegeneratesTakenID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Task{
		TaskID: "OPE-AAAAAA", AssignedDate: today, Deadline: today, Status: models.StatusNotStarted,
	}).Error)

	candidates := []string{"OPE-AAAAAA", "OPE-BBBBBB"}
	f.svc.newID = func(string) string {
		id := candidates[0]
		candidates = candidates[1:]
		return id
	}

	task := f.create(t, f.input(today.AddDate(0, 0, 3)))
	require.Equal(t, "OPE-BBBBBB", task.TaskID)
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Task{
		TaskID: "OPE-AAAAAA", AssignedDate: today, Deadline: today, Status: models.StatusNotStarted,
	}).Error)
	f.svc.newID = func(string) string { return "OPE-AAAAAA" }

	_, err := f.svc.Create(ctx, f.creator, f.input(today.AddDate(0, 0, 3)))
	require.Error(t, err)
}

func TestCreate_RecurrenceStopsAtFirstFailedInstance(t *testing.T) {
	f := newFixture(t)
	issued := []string{"OPE-PARENT", "OPE-CHILD1"}
	f.svc.newID = func(string) string {
		if len(issued) == 0 {
			return "OPE-CHILD1"
		}
		id := issued[0]
		issued = issued[1:]
		return id
	}

	in := f.input(today.AddDate(0, 0, 1))
	in.IsRecurring = true
	in.RecurrenceType = models.RecurrenceDaily
	in.RecurrenceCount = 3
	in.RecurrenceDuration = 1

	res, err := f.svc.Create(ctx, f.creator, in)
	require.Error(t, err)
	var nerr *NotificationError
	require.False(t, errors.As(err, &nerr))
	require.Equal(t, 1, res.Generated)

	var stored []string
	require.NoError(t, f.db.Model(&models.Task{}).Order("id").Pluck("task_id", &stored).Error)
	require.Equal(t, []string{"OPE-PARENT", "OPE-CHILD1"}, stored)
	require.Empty(t, f.mailer.Sent())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	in := f.input(time.Time{})
	in.Priority = "critical"
	in.IsRecurring = true
	in.RecurrenceType = "monthly"
	in.RecurrenceCount = 0
	in.RecurrenceDuration = 1

	_, err := f.svc.Create(ctx, f.creator, in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "deadline")
	require.Contains(t, verr.Fields, "priority")
	require.Contains(t, verr.Fields, "recurrence_type")
	require.Contains(t, verr.Fields, "recurrence_count")

	var n int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestCreate_UnknownAssigneeIsInvalid(t *testing.T) {
	f := newFixture(t)
	in := f.input(today.AddDate(0, 0, 3))
	missing := uint(9999)
	in.AssignedToID = &missing

	_, err := f.svc.Create(ctx, f.creator, in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "assigned_to")
}

func TestCreate_NotificationFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	f.mailer.Err = errors.New("smtp down")

	res, err := f.svc.Create(ctx, f.creator, f.input(today.AddDate(0, 0, 3)))
	var nerr *NotificationError
	require.True(t, errors.As(err, &nerr))
	require.ErrorIs(t, err, f.mailer.Err)
	require.NotEmpty(t, res.Task.TaskID)

	var stored models.Task
	require.NoError(t, f.db.Where("task_id = ?", res.Task.TaskID).First(&stored).Error)
	require.Equal(t, []string{models.ActionCreated}, f.actions(t, stored))
}

func TestEdit_Access(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))
	urgent := models.PriorityUrgent

	_, err := f.svc.Edit(ctx, f.outsider, task.TaskID, EditInput{Priority: &urgent})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Edit(ctx, f.opsManager, task.TaskID, EditInput{Priority: &urgent})
	require.ErrorIs(t, err, ErrForbidden)

	edited, err := f.svc.Edit(ctx, f.salesManager, task.TaskID, EditInput{Priority: &urgent})
	require.NoError(t, err)
	require.Equal(t, models.PriorityUrgent, edited.Priority)
	require.Equal(t, task.TaskID, edited.TaskID)
	require.Equal(t, []string{models.ActionCreated, models.ActionPriorityChanged}, f.actions(t, task))
}

func TestEdit_DerivesStatusAndLogsChange(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 3)))
	past := today.AddDate(0, 0, -1)

	edited, err := f.svc.Edit(ctx, f.creator, task.TaskID, EditInput{Deadline: &past})
	require.NoError(t, err)
	require.Equal(t, models.StatusOverdue, edited.Status)
	require.Equal(t, []string{models.ActionCreated, models.ActionStatusChanged}, f.actions(t, task))
}

func TestEdit_SwitchingToRecurringExpandsOnce(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 1)))

	yes := true
	weekly := models.RecurrenceWeekly
	count, duration := 2, 1
	in := EditInput{IsRecurring: &yes, RecurrenceType: &weekly, RecurrenceCount: &count, RecurrenceDuration: &duration}
	_, err := f.svc.Edit(ctx, f.creator, task.TaskID, in)
	require.NoError(t, err)

	var children []models.Task
	require.NoError(t, f.db.Where("is_recurred_task = ?", true).Order("assigned_date").Find(&children).Error)
	require.Len(t, children, 2)
	require.Equal(t, today.AddDate(0, 0, 7), children[0].AssignedDate.UTC())
	require.Equal(t, today.AddDate(0, 0, 14), children[1].AssignedDate.UTC())

	subject := "Printer still jammed"
	_, err = f.svc.Edit(ctx, f.creator, task.TaskID, EditInput{Subject: &subject})
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.db.Model(&models.Task{}).Where("is_recurred_task = ?", true).Count(&n).Error)
	require.EqualValues(t, 2, n)
}

func TestEdit_SwitchingToRecurringRestartsFromToday(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.input(today.AddDate(0, 0, 1)))
	require.NoError(t, f.db.Model(&models.Task{}).Where("id = ?", task.ID).
		Update("assigned_date", today.AddDate(0, 0, -10)).Error)

	yes := true
	daily := models.RecurrenceDaily
	count, duration := 2, 1
	in := EditInput{IsRecurring: &yes, RecurrenceType: &daily, RecurrenceCount: &count, RecurrenceDuration: &duration}
	edited, err := f.svc.Edit(ctx, f.creator, task.TaskID, in)
	require.NoError(t, err)
	require.Equal(t, today, edited.AssignedDate.UTC())

	var children []models.Task
	require.NoError(t, f.db.Where("is_recurred_task = ?", true).Order("assigned_date").Find(&children).Error)
	require.Len(t, children, 2)
	require.Equal(t, today.AddDate(0, 0, 1), children[0].AssignedDate.UTC())
	require.Equal(t, today.AddDate(0, 0, 2), children[1].AssignedDate.UTC())
}

func TestEdit_UnknownTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Edit(ctx, f.creator, "NOPE-000000", EditInput{})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func clockAt(days int) func() time.Time {
	return testutil.Clock(now.AddDate(0, 0, days))
}
