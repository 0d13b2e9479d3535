package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"
)

// CreateInput carries the fields a creator chooses. Recurrence fields only
// matter when IsRecurring is set.
type CreateInput struct {
	AssignedToID       *uint
	DepartmentID       *uint
	Deadline           time.Time
	TicketType         string
	Priority           string
	Subject            string
	RequestDetails     string
	AttachFile         string
	Status             string
	IsRecurring        bool
	RecurrenceType     string
	RecurrenceCount    int
	RecurrenceDuration int
	Viewers            []string
}

func (in CreateInput) validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(in.Subject) == "" {
		fields["subject"] = "This field is required."
	}
	if in.Deadline.IsZero() {
		fields["deadline"] = "This field is required."
	}
	if !slices.Contains(models.TicketTypes, in.TicketType) {
		fields["ticket_type"] = fmt.Sprintf("%q is not a valid ticket type.", in.TicketType)
	}
	if !slices.Contains(models.Priorities, in.Priority) {
		fields["priority"] = fmt.Sprintf("%q is not a valid priority.", in.Priority)
	}
	if in.Status != "" && !lifecycle.ValidStatus(in.Status) {
		fields["status"] = fmt.Sprintf("%q is not a valid status.", in.Status)
	}
	validateRecurrence(fields, in.IsRecurring, in.RecurrenceType, in.RecurrenceCount, in.RecurrenceDuration)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateRecurrence(fields map[string]string, recurring bool, kind string, count, duration int) {
	if !lifecycle.ValidRecurrenceType(kind) {
		fields["recurrence_type"] = fmt.Sprintf("%q is not a valid recurrence type.", kind)
	}
	if !recurring {
		return
	}
	if count < 1 {
		fields["recurrence_count"] = "Must be at least 1."
	}
	if duration < 1 {
		fields["recurrence_duration"] = "Must be at least 1."
	}
}

// CreateResult is the saved task plus how many recurrence instances were written.
type CreateResult struct {
	Task      models.Task
	Generated int
}

// Create saves a new task assigned by actor, expands its recurrence and
// notifies the department manager, the assignee and the creator. A delivery
// failure is returned as *NotificationError after the task is stored.
func (s *Service) Create(ctx context.Context, actor models.User, in CreateInput) (CreateResult, error) {
	res, err := s.create(ctx, actor, in, fmt.Sprintf("by %s", actor.Username))
	if err != nil {
		return res, err
	}
	t := res.Task

	var events []notify.Event
	if t.Department != nil && t.Department.Manager != nil {
		events = append(events, notify.TicketCreated(*t.Department.Manager, t))
	}
	if t.AssignedTo != nil {
		events = append(events, notify.TicketAssigned(*t.AssignedTo, t))
	}
	events = append(events, notify.TaskCreatedByYou(actor, t))
	return res, s.notifyAll(ctx, t, events...)
}

// create persists the task and its recurrence, then records the activity
// row and the realtime event. It sends no notifications.
func (s *Service) create(ctx context.Context, actor models.User, in CreateInput, via string) (CreateResult, error) {
	if verr := in.validate(); verr != nil {
		return CreateResult{}, verr
	}

	var deptName string
	if in.DepartmentID != nil {
		d, err := s.department(ctx, *in.DepartmentID)
		if errors.Is(err, ErrDepartmentNotFound) {
			return CreateResult{}, invalid("department", "Select a valid choice.")
		}
		if err != nil {
			return CreateResult{}, err
		}
		deptName = d.Name
	}
	if in.AssignedToID != nil {
		_, err := s.userByID(ctx, *in.AssignedToID)
		if errors.Is(err, ErrUserNotFound) {
			return CreateResult{}, invalid("assigned_to", "Select a valid choice.")
		}
		if err != nil {
			return CreateResult{}, err
		}
	}

	today := s.today()
	status := in.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	actorID := actor.ID
	t := models.Task{
		DepartmentID:       in.DepartmentID,
		AssignedByID:       &actorID,
		AssignedToID:       in.AssignedToID,
		AssignedDate:       today,
		Deadline:           lifecycle.Day(in.Deadline.UTC()),
		TicketType:         in.TicketType,
		Priority:           in.Priority,
		Status:             status,
		Subject:            strings.TrimSpace(in.Subject),
		RequestDetails:     in.RequestDetails,
		AttachFile:         in.AttachFile,
		IsRecurring:        in.IsRecurring,
		RecurrenceCount:    max(in.RecurrenceCount, 1),
		RecurrenceDuration: max(in.RecurrenceDuration, 1),
		Viewers:            lifecycle.NormalizeEmails(in.Viewers),
	}
	if in.RecurrenceType != "" {
		kind := in.RecurrenceType
		t.RecurrenceType = &kind
	}
	t.Status = lifecycle.DeriveStatus(t.Status, t.Deadline, t.RevisedCompletionDate, today)

	if err := s.insert(ctx, &t, deptName); err != nil {
		return CreateResult{}, err
	}
	s.written()

	generated := 0
	if plan, ok := lifecycle.PlanFor(t); ok {
		n, err := s.expand(ctx, t, plan, deptName)
		generated = n
		if err != nil {
			return CreateResult{Generated: generated}, err
		}
	}

	saved, err := s.load(ctx, t.TaskID)
	if err != nil {
		return CreateResult{Generated: generated}, err
	}

	assignee := "Unassigned"
	if saved.AssignedTo != nil {
		assignee = saved.AssignedTo.Username
	}
	s.record(ctx, models.ActionCreated, actor.ID, saved,
		fmt.Sprintf("Task %s created %s for %s", saved.TaskID, via, assignee))
	s.publish(realtime.TaskCreated, actor.ID, saved)

	return CreateResult{Task: saved, Generated: generated}, nil
}
