package tasks

import (
	"context"
	"fmt"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
)

var remindableStatuses = []string{models.StatusNotStarted, models.StatusInProgress}

func (s *Service) remindable(ctx context.Context) ([]models.Task, error) {
	var list []models.Task
	err := s.db.WithContext(ctx).
		Preload("AssignedBy").
		Preload("AssignedTo").
		Where("status IN ?", remindableStatuses).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list remindable tasks: %w", err)
	}
	return list, nil
}

// SendDeadlineReminders mails assignee and creator of every active task due
// today or tomorrow. It returns the number of e-mails delivered.
func (s *Service) SendDeadlineReminders(ctx context.Context) (int, error) {
	list, err := s.remindable(ctx)
	if err != nil {
		return 0, err
	}
	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)

	sent := 0
	for _, t := range list {
		due := lifecycle.Day(t.Deadline)
		if due.Before(today) || due.After(tomorrow) {
			continue
		}
		for _, u := range []*models.User{t.AssignedTo, t.AssignedBy} {
			if u != nil {
				sent += s.notifyQuietly(ctx, t, notify.DeadlineReminder(*u, t))
			}
		}
	}
	return sent, nil
}

// NotifyOverdue mails the creator of every active task past its deadline.
func (s *Service) NotifyOverdue(ctx context.Context) (int, error) {
	list, err := s.remindable(ctx)
	if err != nil {
		return 0, err
	}
	today := s.today()

	sent := 0
	for _, t := range list {
		if !lifecycle.Day(t.Deadline).Before(today) || t.AssignedBy == nil {
			continue
		}
		sent += s.notifyQuietly(ctx, t, notify.OverdueNotice(*t.AssignedBy, t))
	}
	return sent, nil
}
