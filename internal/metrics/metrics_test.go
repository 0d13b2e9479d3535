package metrics

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"task-tracker-api/internal/models"
	"task-tracker-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testutil.Date(2026, 10, 16).AddDate(0, 0, offset)
}

func TestAggregate_EmptyDepartmentReportsZeros(t *testing.T) {
	report := Aggregate([]string{"Finance", "Sales"}, nil, now)

	require.Len(t, report.Departments, 2)
	for _, d := range report.Departments {
		require.Zero(t, d.OpenReceived)
		require.Zero(t, d.ReceivedLast24h)
		require.Zero(t, d.OpenRaised)
		require.Zero(t, d.RaisedLast24h)
		require.Zero(t, d.OlderOpen)
		require.Zero(t, d.Passed72Hours)
		require.Zero(t, d.PassedDeadline)
		require.Empty(t, d.PendingByDepartment)
	}
	require.Equal(t, Summary{}, report.Summary)
}

func TestAggregate_Counts(t *testing.T) {
	revisedFuture := day(3)
	rows := []Row{
		// received today from Sales, open
		{Department: "Ops", AssignerDepartment: "Sales", Status: models.StatusNotStarted, AssignedDate: day(0), Deadline: day(2)},
		// received five days ago from Sales, overdue
		{Department: "Ops", AssignerDepartment: "Sales", Status: models.StatusOverdue, AssignedDate: day(-5), Deadline: day(-1)},
		// old but deadline revised into the future
		{Department: "Ops", AssignerDepartment: "Ops", Status: models.StatusInProgress, AssignedDate: day(-4), Deadline: day(-2), RevisedDate: &revisedFuture},
		// legacy status outside the vocabulary still counts as open
		{Department: "Ops", AssignerDepartment: "", Status: "Pending", AssignedDate: day(-2), Deadline: day(5)},
		// closed
		{Department: "Ops", AssignerDepartment: "Sales", Status: models.StatusCompleted, AssignedDate: day(0), Deadline: day(-3)},
	}

	report := Aggregate([]string{"Ops", "Sales"}, rows, now)

	ops, ok := report.Find("Ops")
	require.True(t, ok)
	require.Equal(t, 4, ops.OpenReceived)
	require.Equal(t, 2, ops.ReceivedLast24h)
	require.Equal(t, 3, ops.OlderOpen)
	require.Equal(t, 2, ops.Passed72Hours)
	require.Equal(t, 1, ops.PassedDeadline)
	require.Equal(t, map[string]int{"Sales": 2, "Ops": 1}, ops.PendingByDepartment)
	require.Equal(t, 1, ops.OpenRaised)
	require.Empty(t, ops.AssignedToOtherDepartments)

	sales, ok := report.Find("Sales")
	require.True(t, ok)
	require.Zero(t, sales.OpenReceived)
	require.Equal(t, 2, sales.OpenRaised)
	require.Equal(t, 2, sales.RaisedLast24h)
	require.Equal(t, map[string]int{"Ops": 2}, sales.AssignedToOtherDepartments)

	require.Equal(t, 4, report.Summary.TotalOpenReceived)
	require.Equal(t, 3, report.Summary.TotalOpenRaised)
	require.Equal(t, 3, report.Summary.TotalPending)
}

func TestAggregator_ComputeFromDatabase(t *testing.T) {
	db := testutil.MustDB(t)
	ops := testutil.SeedDepartment(t, db, "Ops")
	sales := testutil.SeedDepartment(t, db, "Sales")
	testutil.SeedDepartment(t, db, "Legal")
	seller := testutil.SeedUser(t, db, "seller", models.CategoryNonManagement, &sales)
	operator := testutil.SeedUser(t, db, "operator", models.CategoryNonManagement, &ops)

	task := models.Task{
		TaskID:       "OPS-AAAAAA",
		DepartmentID: &ops.ID,
		AssignedByID: &seller.ID,
		AssignedToID: &operator.ID,
		AssignedDate: day(-4),
		Deadline:     day(-1),
		Status:       models.StatusOverdue,
	}
	require.NoError(t, db.Create(&task).Error)

	agg := NewAggregator(db, time.Minute).WithClock(testutil.Clock(now))
	report, err := agg.Compute(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Departments, 3)

	legal, ok := report.Find("Legal")
	require.True(t, ok)
	require.Zero(t, legal.OpenReceived)

	got, err := agg.Department(context.Background(), "Ops")
	require.NoError(t, err)
	require.Equal(t, 1, got.OpenReceived)
	require.Equal(t, 1, got.PassedDeadline)
	require.Equal(t, 1, got.Passed72Hours)
	require.Equal(t, map[string]int{"Sales": 1}, got.PendingByDepartment)

	_, err = agg.Department(context.Background(), "Nowhere")
	require.True(t, errors.Is(err, ErrUnknownDepartment))
}

func TestAggregator_CacheAndInvalidate(t *testing.T) {
	db := testutil.MustDB(t)
	ops := testutil.SeedDepartment(t, db, "Ops")
	agg := NewAggregator(db, time.Hour).WithClock(testutil.Clock(now))

	first, err := agg.Compute(context.Background())
	require.NoError(t, err)
	require.Zero(t, first.Summary.TotalOpenReceived)

	require.NoError(t, db.Create(&models.Task{
		TaskID: "OPS-BBBBBB", DepartmentID: &ops.ID,
		AssignedDate: day(0), Deadline: day(1), Status: models.StatusNotStarted,
	}).Error)

	cached, err := agg.Compute(context.Background())
	require.NoError(t, err)
	require.Zero(t, cached.Summary.TotalOpenReceived)

	agg.Invalidate()
	fresh, err := agg.Compute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fresh.Summary.TotalOpenReceived)
}

func TestWriteCSV(t *testing.T) {
	report := Aggregate([]string{"Ops"}, []Row{
		{Department: "Ops", AssignerDepartment: "Sales", Status: models.StatusNotStarted, AssignedDate: day(-3), Deadline: day(1)},
		{Department: "Ops", AssignerDepartment: "Finance", Status: models.StatusNotStarted, AssignedDate: day(-3), Deadline: day(1)},
	}, now)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, "Ops", records[1][0])
	require.Equal(t, "2", records[1][2])
	require.Equal(t, "Finance: 1; Sales: 1", records[1][6])
}
