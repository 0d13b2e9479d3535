package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"

	"gorm.io/gorm"
)

// APICreateInput mirrors the create-task URL. Empty AssignedToEmail and
// Department mean "none".
type APICreateInput struct {
	AssignedByEmail    string
	AssignedToEmail    string
	Deadline           string
	TicketType         string
	Priority           string
	Department         string
	Subject            string
	RequestDetails     string
	Status             string
	IsRecurring        bool
	RecurrenceType     string
	RecurrenceCount    int
	RecurrenceDuration int
	Viewers            []string
}

// APICreate creates a task on behalf of the user owning AssignedByEmail.
// Notification and activity failures are logged and never fail the call.
func (s *Service) APICreate(ctx context.Context, in APICreateInput) (models.Task, error) {
	creator, err := s.userByEmail(ctx, in.AssignedByEmail)
	if err != nil {
		return models.Task{}, err
	}

	ci := CreateInput{
		TicketType:     in.TicketType,
		Priority:       strings.ToLower(in.Priority),
		Subject:        in.Subject,
		RequestDetails: in.RequestDetails,
		Status:         in.Status,
		IsRecurring:    in.IsRecurring,
		Viewers:        in.Viewers,
	}
	if in.IsRecurring {
		ci.RecurrenceType = in.RecurrenceType
		ci.RecurrenceCount = in.RecurrenceCount
		ci.RecurrenceDuration = in.RecurrenceDuration
	}

	if in.AssignedToEmail != "" {
		assignee, err := s.userByEmail(ctx, in.AssignedToEmail)
		if err != nil {
			return models.Task{}, fmt.Errorf("assignee: %w", err)
		}
		ci.AssignedToID = &assignee.ID
	}
	if in.Deadline != "" {
		d, err := time.Parse(time.DateOnly, in.Deadline)
		if err != nil {
			return models.Task{}, invalid("deadline", "Invalid deadline format. Use YYYY-MM-DD")
		}
		ci.Deadline = d
	}
	if in.Department != "" {
		d, err := s.departmentByRef(ctx, in.Department)
		if err != nil {
			return models.Task{}, err
		}
		ci.DepartmentID = &d.ID
	}

	res, err := s.create(ctx, creator, ci, fmt.Sprintf("by %s via API", creator.Username))
	if err != nil {
		return res.Task, err
	}
	t := res.Task

	var events []notify.Event
	if t.AssignedTo != nil {
		events = append(events, notify.TicketAssigned(*t.AssignedTo, t))
	}
	events = append(events, notify.TaskCreatedByYou(creator, t))
	s.notifyQuietly(ctx, t, events...)
	return t, nil
}

// departmentByRef resolves a department by name (case-insensitive) or numeric ID.
func (s *Service) departmentByRef(ctx context.Context, ref string) (models.Department, error) {
	var d models.Department
	err := s.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(ref)).First(&d).Error
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Department{}, fmt.Errorf("load department %s: %w", ref, err)
	}
	if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil {
		return s.department(ctx, uint(id))
	}
	return models.Department{}, fmt.Errorf("%w: %s", ErrDepartmentNotFound, ref)
}

// APIUpdateInput mirrors the update-task URL. Empty strings leave a field as is.
type APIUpdateInput struct {
	TaskID             string
	UpdatedByEmail     string
	Status             string
	RevisedDeadline    string
	Subject            string
	RequestDetails     string
	CommentsByAssignee string
}

type APIUpdateResult struct {
	Task      models.Task
	Changes   []string
	UpdatedBy string
}

// APIUpdate changes a task on behalf of its creator or assignee and mails
// the other party. No write happens when nothing differs.
func (s *Service) APIUpdate(ctx context.Context, in APIUpdateInput) (APIUpdateResult, error) {
	t, err := s.load(ctx, in.TaskID)
	if err != nil {
		return APIUpdateResult{}, err
	}
	actor, err := s.userByEmail(ctx, in.UpdatedByEmail)
	if err != nil {
		return APIUpdateResult{}, err
	}
	byCreator, byAssignee := isCreator(t, actor), isAssignee(t, actor)
	if !byCreator && !byAssignee {
		return APIUpdateResult{}, fmt.Errorf("%w: only the creator or the assignee may update this task", ErrForbidden)
	}

	res := APIUpdateResult{UpdatedBy: actor.Email, Changes: []string{}}
	oldStatus := t.Status

	if in.Status != "" {
		status := statusFromPath(in.Status)
		if !lifecycle.ValidStatus(status) {
			return APIUpdateResult{}, invalid("status", fmt.Sprintf("%q is not a valid status.", status))
		}
		if status != t.Status {
			t.Status = status
			res.Changes = append(res.Changes, fmt.Sprintf("status: %s -> %s", oldStatus, status))
		}
	}
	if subject := dehyphen(in.Subject); subject != "" && subject != t.Subject {
		t.Subject = subject
		res.Changes = append(res.Changes, "subject updated")
	}
	if details := dehyphen(in.RequestDetails); details != "" && details != t.RequestDetails {
		t.RequestDetails = details
		res.Changes = append(res.Changes, "request_details updated")
	}
	if in.RevisedDeadline != "" {
		d, err := time.Parse(time.DateOnly, in.RevisedDeadline)
		if err != nil {
			return APIUpdateResult{}, invalid("revised_deadline", "Invalid revised_deadline format. Use YYYY-MM-DD")
		}
		if !sameDate(t.RevisedCompletionDate, &d) {
			res.Changes = append(res.Changes, fmt.Sprintf("revised_deadline: %s -> %s", formatDate(t.RevisedCompletionDate), d.Format(time.DateOnly)))
			t.RevisedCompletionDate = &d
		}
	}
	if in.CommentsByAssignee != "" && in.CommentsByAssignee != t.CommentsByAssignee {
		t.CommentsByAssignee = in.CommentsByAssignee
		res.Changes = append(res.Changes, "comments updated")
	}

	if len(res.Changes) == 0 {
		res.Task = t
		return res, nil
	}

	t.Status = lifecycle.DeriveStatus(t.Status, t.Deadline, t.RevisedCompletionDate, s.today())
	if err := s.save(ctx, &t); err != nil {
		return APIUpdateResult{}, err
	}
	s.written()
	res.Task = t

	recipient := t.AssignedTo
	if byAssignee && !byCreator {
		recipient = t.AssignedBy
	}
	if recipient != nil {
		s.notifyQuietly(ctx, t, notify.StatusUpdated(*recipient, t, byCreator))
	}

	desc := "Task updated via API by " + actor.Email
	if oldStatus != t.Status {
		desc += fmt.Sprintf(" - Status changed from '%s' to '%s'", oldStatus, t.Status)
	}
	if in.Subject != "" {
		desc += fmt.Sprintf(" - Subject updated to '%s'", t.Subject)
	}
	if in.RequestDetails != "" {
		desc += " - Request details updated"
	}
	s.record(ctx, models.ActionTaskUpdatedAPI, actor.ID, t, desc)
	s.publish(realtime.TaskUpdated, actor.ID, t)
	return res, nil
}

// statusFromPath turns hyphens into spaces unless the raw value already
// names a status, so "In-Progress" and "On-Hold" both resolve.
func statusFromPath(raw string) string {
	if lifecycle.ValidStatus(raw) {
		return raw
	}
	return dehyphen(raw)
}

func dehyphen(s string) string {
	return strings.ReplaceAll(s, "-", " ")
}

type APIReassignResult struct {
	Task             models.Task
	PreviousAssignee string
	NewAssignee      string
}

// APIReassign returns the task to its creator on behalf of the user owning
// byEmail, who must be the creator, the assignee or a Departmental Manager.
func (s *Service) APIReassign(ctx context.Context, taskID, byEmail, note string) (APIReassignResult, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return APIReassignResult{}, err
	}
	actor, err := s.userByEmail(ctx, byEmail)
	if err != nil {
		return APIReassignResult{}, err
	}
	if !isCreator(t, actor) && !isAssignee(t, actor) && !isManager(actor) {
		return APIReassignResult{}, ErrForbidden
	}

	previous, err := s.returnToCreator(ctx, &t, note, "")
	if err != nil {
		return APIReassignResult{}, err
	}

	s.notifyQuietly(ctx, t, notify.TicketReassigned(*t.AssignedTo, t))
	s.record(ctx, models.ActionReassigned, actor.ID, t,
		fmt.Sprintf("Task reassigned via API from %s to %s", previous, t.AssignedTo.Username))
	if note != "" {
		s.record(ctx, models.ActionCommentAdded, actor.ID, t, "Note added via API: "+note)
	}
	s.publish(realtime.TaskReassigned, actor.ID, t)

	return APIReassignResult{Task: t, PreviousAssignee: previous, NewAssignee: t.AssignedTo.Username}, nil
}

// APIUpdateViewers loads the caller by ID and delegates to UpdateViewers.
func (s *Service) APIUpdateViewers(ctx context.Context, actorID uint, taskID, raw string) (models.Task, error) {
	actor, err := s.userByID(ctx, actorID)
	if err != nil {
		return models.Task{}, err
	}
	return s.UpdateViewers(ctx, actor, taskID, raw)
}
