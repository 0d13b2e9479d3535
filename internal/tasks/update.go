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

// EditInput changes the creator-owned fields of a task. Nil fields are left
// as they are; a nil Viewers keeps the current list.
type EditInput struct {
	AssignedToID       *uint
	DepartmentID       *uint
	Deadline           *time.Time
	TicketType         *string
	Priority           *string
	Subject            *string
	RequestDetails     *string
	AttachFile         *string
	Status             *string
	IsRecurring        *bool
	RecurrenceType     *string
	RecurrenceCount    *int
	RecurrenceDuration *int
	Viewers            []string
}

// Edit applies in to the task. Allowed for the creator or a Departmental
// Manager of the creator's department. Switching a task to recurring moves
// its assigned date to today and expands it once.
func (s *Service) Edit(ctx context.Context, actor models.User, taskID string, in EditInput) (models.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !canEdit(t, actor) {
		return models.Task{}, ErrForbidden
	}

	oldStatus, oldPriority, wasRecurring := t.Status, t.Priority, t.IsRecurring
	deptName := ""
	if t.Department != nil {
		deptName = t.Department.Name
	}

	if in.AssignedToID != nil {
		if _, err := s.userByID(ctx, *in.AssignedToID); errors.Is(err, ErrUserNotFound) {
			return models.Task{}, invalid("assigned_to", "Select a valid choice.")
		} else if err != nil {
			return models.Task{}, err
		}
		t.AssignedToID = in.AssignedToID
	}
	if in.DepartmentID != nil {
		d, err := s.department(ctx, *in.DepartmentID)
		if errors.Is(err, ErrDepartmentNotFound) {
			return models.Task{}, invalid("department", "Select a valid choice.")
		}
		if err != nil {
			return models.Task{}, err
		}
		t.DepartmentID = &d.ID
		deptName = d.Name
	}
	if in.Deadline != nil {
		t.Deadline = lifecycle.Day(in.Deadline.UTC())
	}
	setString(&t.TicketType, in.TicketType)
	setString(&t.Priority, in.Priority)
	setString(&t.Subject, in.Subject)
	setString(&t.RequestDetails, in.RequestDetails)
	setString(&t.AttachFile, in.AttachFile)
	setString(&t.Status, in.Status)
	if in.IsRecurring != nil {
		t.IsRecurring = *in.IsRecurring
	}
	if in.RecurrenceType != nil {
		if *in.RecurrenceType == "" {
			t.RecurrenceType = nil
		} else {
			kind := *in.RecurrenceType
			t.RecurrenceType = &kind
		}
	}
	if in.RecurrenceCount != nil {
		t.RecurrenceCount = *in.RecurrenceCount
	}
	if in.RecurrenceDuration != nil {
		t.RecurrenceDuration = *in.RecurrenceDuration
	}
	if in.Viewers != nil {
		t.Viewers = lifecycle.NormalizeEmails(in.Viewers)
	}

	if verr := validateTask(t); verr != nil {
		return models.Task{}, verr
	}

	expanding := !wasRecurring && t.IsRecurring
	if expanding {
		// instances are offset from the assigned date
		t.AssignedDate = s.today()
	}
	t.Status = lifecycle.DeriveStatus(t.Status, t.Deadline, t.RevisedCompletionDate, s.today())
	if err := s.save(ctx, &t); err != nil {
		return models.Task{}, err
	}
	s.written()

	if expanding {
		if plan, ok := lifecycle.PlanFor(t); ok {
			if _, err := s.expand(ctx, t, plan, deptName); err != nil {
				return models.Task{}, err
			}
		}
	}

	if oldStatus != t.Status {
		s.record(ctx, models.ActionStatusChanged, actor.ID, t,
			fmt.Sprintf("Status changed from '%s' to '%s'", oldStatus, t.Status))
	}
	if oldPriority != t.Priority {
		s.record(ctx, models.ActionPriorityChanged, actor.ID, t,
			fmt.Sprintf("Priority changed from %s to %s", oldPriority, t.Priority))
	}

	saved, err := s.load(ctx, t.TaskID)
	if err != nil {
		return models.Task{}, err
	}
	s.publish(realtime.TaskUpdated, actor.ID, saved)
	return saved, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func validateTask(t models.Task) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(t.Subject) == "" {
		fields["subject"] = "This field is required."
	}
	if !slices.Contains(models.TicketTypes, t.TicketType) {
		fields["ticket_type"] = fmt.Sprintf("%q is not a valid ticket type.", t.TicketType)
	}
	if !slices.Contains(models.Priorities, t.Priority) {
		fields["priority"] = fmt.Sprintf("%q is not a valid priority.", t.Priority)
	}
	if !lifecycle.ValidStatus(t.Status) {
		fields["status"] = fmt.Sprintf("%q is not a valid status.", t.Status)
	}
	kind := ""
	if t.RecurrenceType != nil {
		kind = *t.RecurrenceType
	}
	validateRecurrence(fields, t.IsRecurring, kind, t.RecurrenceCount, t.RecurrenceDuration)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// StatusInput is the progress update an assignee reports.
type StatusInput struct {
	Status                *string
	CommentsByAssignee    *string
	RevisedCompletionDate *time.Time
}

// UpdateStatus records progress on a task. A revised completion date or a
// changed comment notifies both the creator and the assignee.
func (s *Service) UpdateStatus(ctx context.Context, actor models.User, taskID string, in StatusInput) (models.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !canUpdateStatus(t, actor) {
		return models.Task{}, ErrForbidden
	}
	if in.Status != nil && !lifecycle.ValidStatus(*in.Status) {
		return models.Task{}, invalid("status", fmt.Sprintf("%q is not a valid status.", *in.Status))
	}

	oldStatus, oldComments, oldRevised := t.Status, t.CommentsByAssignee, t.RevisedCompletionDate
	setString(&t.Status, in.Status)
	setString(&t.CommentsByAssignee, in.CommentsByAssignee)
	if in.RevisedCompletionDate != nil {
		d := lifecycle.Day(in.RevisedCompletionDate.UTC())
		t.RevisedCompletionDate = &d
	}
	t.Status = lifecycle.DeriveStatus(t.Status, t.Deadline, t.RevisedCompletionDate, s.today())

	if err := s.save(ctx, &t); err != nil {
		return models.Task{}, err
	}
	s.written()

	deadlineRevised := !sameDate(oldRevised, t.RevisedCompletionDate)
	commentChanged := oldComments != t.CommentsByAssignee

	if oldStatus != t.Status {
		s.record(ctx, models.ActionStatusUpdated, actor.ID, t,
			fmt.Sprintf("Status changed from '%s' to '%s'", oldStatus, t.Status))
	}
	if deadlineRevised {
		s.record(ctx, models.ActionDeadlineRevised, actor.ID, t,
			fmt.Sprintf("Deadline revised from %s to %s", t.Deadline.Format(time.DateOnly), formatDate(t.RevisedCompletionDate)))
	}
	if commentChanged {
		s.record(ctx, models.ActionCommentAdded, actor.ID, t,
			"Comment added or updated by assignee: "+t.CommentsByAssignee)
	}
	s.publish(realtime.TaskUpdated, actor.ID, t)

	var events []notify.Event
	for _, recipient := range []*models.User{t.AssignedBy, t.AssignedTo} {
		if recipient == nil {
			continue
		}
		if deadlineRevised {
			events = append(events, notify.DeadlineRevised(*recipient, t))
		}
		if commentChanged {
			events = append(events, notify.CommentUpdated(*recipient, t))
		}
	}
	return t, s.notifyAll(ctx, t, events...)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return lifecycle.Day(*a).Equal(lifecycle.Day(*b))
}

func formatDate(d *time.Time) string {
	if d == nil {
		return "none"
	}
	return d.Format(time.DateOnly)
}

// Reassign hands the task back to its creator and the creator's department,
// storing note and an optional assignee attachment. Allowed for the assignee
// or a Departmental Manager of the assignee's department.
func (s *Service) Reassign(ctx context.Context, actor models.User, taskID, note, attachment string) (models.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !canReturn(t, actor) {
		return models.Task{}, ErrForbidden
	}

	previous, err := s.returnToCreator(ctx, &t, note, attachment)
	if err != nil {
		return models.Task{}, err
	}

	s.record(ctx, models.ActionReassigned, actor.ID, t,
		fmt.Sprintf("Task reassigned from %s to %s", previous, t.AssignedTo.Username))
	s.record(ctx, models.ActionCommentAdded, actor.ID, t,
		fmt.Sprintf("Note added by %s: %s", actor.Username, note))
	s.publish(realtime.TaskReassigned, actor.ID, t)

	return t, s.notifyAll(ctx, t, notify.TicketReassigned(*t.AssignedTo, t))
}

// returnToCreator mutates t in place and saves it. It returns the username
// of the previous assignee.
func (s *Service) returnToCreator(ctx context.Context, t *models.Task, note, attachment string) (string, error) {
	if t.AssignedBy == nil {
		return "", invalid("assigned_by", "Task has no creator to return it to.")
	}
	previous := "Unassigned"
	if t.AssignedTo != nil {
		previous = t.AssignedTo.Username
	}

	if note != "" {
		t.Notes = note
	}
	if attachment != "" {
		t.AttachmentByAssignee = attachment
	}
	creatorID := t.AssignedBy.ID
	t.AssignedToID = &creatorID
	t.DepartmentID = departmentOf(t.AssignedBy)

	if err := s.save(ctx, t); err != nil {
		return "", err
	}
	s.written()

	saved, err := s.load(ctx, t.TaskID)
	if err != nil {
		return "", err
	}
	*t = saved
	return previous, nil
}

// ReassignWithinDepartment moves the task to another Non-Management member of
// the acting Departmental Manager's department.
func (s *Service) ReassignWithinDepartment(ctx context.Context, actor models.User, taskID string, assigneeID uint) (models.Task, error) {
	if !isManager(actor) {
		return models.Task{}, ErrForbidden
	}
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	assignee, err := s.userByID(ctx, assigneeID)
	if err != nil {
		return models.Task{}, err
	}
	if categoryOf(assignee) != models.CategoryNonManagement || !sameID(departmentOf(&assignee), departmentOf(&actor)) {
		return models.Task{}, invalid("assigned_to", "Select a Non-Management member of your department.")
	}

	t.AssignedToID = &assignee.ID
	if err := s.save(ctx, &t); err != nil {
		return models.Task{}, err
	}
	s.written()

	if t, err = s.load(ctx, t.TaskID); err != nil {
		return models.Task{}, err
	}
	s.record(ctx, models.ActionAssigned, actor.ID, t,
		fmt.Sprintf("Task %s reassigned from %s to %s", t.TaskID, actor.Username, assignee.Username))
	s.publish(realtime.TaskReassigned, actor.ID, t)

	return t, s.notifyAll(ctx, t, notify.TicketAssigned(assignee, t))
}

// UpdateViewers replaces the viewer list from a comma separated string;
// "none" clears it. Only the viewers column is written.
func (s *Service) UpdateViewers(ctx context.Context, actor models.User, taskID, raw string) (models.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !canManageViewers(t, actor) {
		return models.Task{}, ErrForbidden
	}

	t.Viewers = lifecycle.ParseViewerList(raw)
	err = s.db.WithContext(ctx).
		Model(&models.Task{ID: t.ID}).
		Select("Viewers").
		Updates(&models.Task{Viewers: t.Viewers}).Error
	if err != nil {
		return models.Task{}, fmt.Errorf("update viewers of %s: %w", t.TaskID, err)
	}

	s.publish(realtime.ViewersUpdated, actor.ID, t)
	return t, nil
}
